package sql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mcoot/triviaduel/internal/model"
)

type ResultStoreSuite struct {
	suite.Suite
	store *ResultStore
	ctx   context.Context
	now   time.Time
}

func TestResultStoreSuite(t *testing.T) {
	suite.Run(t, new(ResultStoreSuite))
}

func (s *ResultStoreSuite) SetupTest() {
	dsn := fmt.Sprintf("file:%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	s.Require().NoError(err)

	s.store, err = New(db)
	s.Require().NoError(err)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *ResultStoreSuite) TearDownTest() {
	if s.store != nil {
		_ = s.store.Close()
	}
}

func (s *ResultStoreSuite) result(id model.GameID, completedAt time.Time) *model.MatchResult {
	return &model.MatchResult{
		GameID:   id,
		Category: model.CategoryBasketball,
		Duration: 2*time.Minute + 500*time.Millisecond,
		Players: []model.PlayerResult{
			{PlayerID: "p1", Username: "Alice", Score: 60, CorrectAnswers: 5, AverageResponseTime: 3.5},
			{PlayerID: "p2", Username: "Bob", Score: 45, CorrectAnswers: 4, AverageResponseTime: 6},
		},
		Winner:      "p1",
		CompletedAt: completedAt,
	}
}

func (s *ResultStoreSuite) TestSaveAndList() {
	want := s.result("ABC123", s.now)
	s.Require().NoError(s.store.SaveResult(s.ctx, want))

	results, err := s.store.ListResults(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(results, 1)

	got := results[0]
	s.Equal(want.GameID, got.GameID)
	s.Equal(want.Category, got.Category)
	s.Equal(want.Duration, got.Duration)
	s.Equal(want.Winner, got.Winner)
	s.Equal(want.Players, got.Players)
	s.True(want.CompletedAt.Equal(got.CompletedAt))
}

func (s *ResultStoreSuite) TestListNewestFirstWithLimit() {
	s.Require().NoError(s.store.SaveResult(s.ctx, s.result("AAAAAA", s.now)))
	s.Require().NoError(s.store.SaveResult(s.ctx, s.result("CCCCCC", s.now.Add(2*time.Minute))))
	s.Require().NoError(s.store.SaveResult(s.ctx, s.result("BBBBBB", s.now.Add(time.Minute))))

	results, err := s.store.ListResults(s.ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal(model.GameID("CCCCCC"), results[0].GameID)
	s.Equal(model.GameID("BBBBBB"), results[1].GameID)
}

func (s *ResultStoreSuite) TestTieHasNoWinner() {
	r := s.result("ABC123", s.now)
	r.Winner = ""
	s.Require().NoError(s.store.SaveResult(s.ctx, r))

	results, err := s.store.ListResults(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Empty(results[0].Winner)
}

func (s *ResultStoreSuite) TestOpenUnknownDriver() {
	_, err := Open("oracle", "whatever")
	s.Error(err)
}

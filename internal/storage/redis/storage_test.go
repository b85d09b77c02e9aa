package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviaduel/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
	now     time.Time
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.MatchTTL = time.Hour
	cfg.MaxResults = 3

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) newMatch(id model.GameID) *model.Match {
	host := model.NewPlayer("player-1", "Alice", true, s.now)
	questions := []model.Question{{
		ID:            "q1",
		Category:      model.CategoryFootball,
		Text:          "Which country won the 2022 FIFA World Cup?",
		Options:       []string{"France", "Argentina", "Brazil", "Croatia"},
		CorrectAnswer: "Argentina",
	}}
	return model.NewMatch(id, model.CategoryFootball, questions, host, s.now)
}

// Match tests

func (s *StorageSuite) TestSaveAndGetMatch() {
	match := s.newMatch("ABC123")
	countdown := 2
	match.StartCountdown = &countdown
	match.AnsweredPlayerIDs["player-1"] = true
	match.Players[0].ResponseTimes = []float64{4.5}

	err := s.storage.SaveMatch(s.ctx, match)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetMatch(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(match.ID, retrieved.ID)
	s.Require().NotNil(retrieved.StartCountdown)
	s.Equal(2, *retrieved.StartCountdown)
	s.True(retrieved.AnsweredPlayerIDs["player-1"])
	s.Equal([]float64{4.5}, retrieved.Players[0].ResponseTimes)
	s.Equal("Argentina", retrieved.Questions[0].CorrectAnswer)
}

func (s *StorageSuite) TestSaveMatchAppliesTTL() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.newMatch("ABC123")))

	s.Equal(time.Hour, s.mini.TTL(matchKey("ABC123")))
}

func (s *StorageSuite) TestGetMatchNotFound() {
	_, err := s.storage.GetMatch(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestGetMatchAfterExpiry() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.newMatch("ABC123")))

	s.mini.FastForward(2 * time.Hour)

	_, err := s.storage.GetMatch(s.ctx, "ABC123")
	s.ErrorIs(err, model.ErrMatchNotFound)
}

func (s *StorageSuite) TestDeleteMatch() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.newMatch("ABC123")))

	s.Require().NoError(s.storage.DeleteMatch(s.ctx, "ABC123"))

	exists, err := s.storage.MatchExists(s.ctx, "ABC123")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *StorageSuite) TestListMatches() {
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.newMatch("AAAAAA")))
	s.Require().NoError(s.storage.SaveMatch(s.ctx, s.newMatch("BBBBBB")))
	s.Require().NoError(s.storage.SaveQuestions(s.ctx, model.CategoryTennis, nil))

	matches, err := s.storage.ListMatches(s.ctx)
	s.Require().NoError(err)
	s.Len(matches, 2)
}

func (s *StorageSuite) TestListMatchesEmpty() {
	matches, err := s.storage.ListMatches(s.ctx)
	s.Require().NoError(err)
	s.Empty(matches)
}

// Question tests

func (s *StorageSuite) TestGetQuestionsNotLoaded() {
	_, err := s.storage.GetQuestions(s.ctx, model.CategoryBasketball)
	s.ErrorIs(err, model.ErrQuestionsNotLoaded)
}

func (s *StorageSuite) TestSaveAndGetQuestions() {
	questions := s.newMatch("ABC123").Questions
	s.Require().NoError(s.storage.SaveQuestions(s.ctx, model.CategoryFootball, questions))

	retrieved, err := s.storage.GetQuestions(s.ctx, model.CategoryFootball)
	s.Require().NoError(err)
	s.Equal(questions, retrieved)
	s.Equal(time.Duration(0), s.mini.TTL(questionsKey(model.CategoryFootball)))
}

func (s *StorageSuite) TestGetQuestionsCorrupt() {
	s.Require().NoError(s.mini.Set(questionsKey(model.CategoryTennis), "not json"))

	_, err := s.storage.GetQuestions(s.ctx, model.CategoryTennis)
	s.Error(err)
	s.NotErrorIs(err, model.ErrQuestionsNotLoaded)
}

// Result tests

func (s *StorageSuite) TestResultsAreCapped() {
	for _, id := range []model.GameID{"AAAAAA", "BBBBBB", "CCCCCC", "DDDDDD"} {
		s.Require().NoError(s.storage.SaveResult(s.ctx, &model.MatchResult{GameID: id, CompletedAt: s.now}))
	}

	results, err := s.storage.ListResults(s.ctx, 10)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(model.GameID("DDDDDD"), results[0].GameID)
	s.Equal(model.GameID("BBBBBB"), results[2].GameID)
}

func (s *StorageSuite) TestSaveResultRoundTrip() {
	result := &model.MatchResult{
		GameID:   "ABC123",
		Category: model.CategoryMixed,
		Duration: 95 * time.Second,
		Players: []model.PlayerResult{
			{PlayerID: "player-1", Username: "Alice", Score: 42, CorrectAnswers: 3, AverageResponseTime: 4.2},
		},
		Winner:      "player-1",
		CompletedAt: s.now,
	}
	s.Require().NoError(s.storage.SaveResult(s.ctx, result))

	results, err := s.storage.ListResults(s.ctx, 1)
	s.Require().NoError(err)
	s.Require().Len(results, 1)
	s.Equal(result.Duration, results[0].Duration)
	s.Equal(result.Players, results[0].Players)
	s.True(result.CompletedAt.Equal(results[0].CompletedAt))
}

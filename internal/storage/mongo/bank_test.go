package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/triviaduel/internal/model"
)

// Runs against a real server only when TRIVIA_TEST_MONGO_URI is set
type QuestionBankSuite struct {
	suite.Suite
	bank *QuestionBank
	ctx  context.Context
}

func TestQuestionBankSuite(t *testing.T) {
	uri := os.Getenv("TRIVIA_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("TRIVIA_TEST_MONGO_URI not set")
	}
	suite.Run(t, &QuestionBankSuite{})
}

func (s *QuestionBankSuite) SetupTest() {
	s.ctx = context.Background()
	cfg := DefaultConfig()
	cfg.URI = os.Getenv("TRIVIA_TEST_MONGO_URI")
	cfg.Database = "trivia_test"
	cfg.Collection = "questions_" + time.Now().Format("150405.000000")

	bank, err := New(s.ctx, cfg)
	s.Require().NoError(err)
	s.bank = bank
}

func (s *QuestionBankSuite) TearDownTest() {
	if s.bank != nil {
		_ = s.bank.col.Drop(s.ctx)
		_ = s.bank.Close(s.ctx)
	}
}

func (s *QuestionBankSuite) TestGetQuestionsNotLoaded() {
	_, err := s.bank.GetQuestions(s.ctx, model.CategoryTennis)
	s.ErrorIs(err, model.ErrQuestionsNotLoaded)
}

func (s *QuestionBankSuite) TestSaveReplacesCategory() {
	first := []model.Question{{
		ID: "t1", Category: model.CategoryTennis, Text: "Q1",
		Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "a",
	}}
	second := []model.Question{{
		ID: "t2", Category: model.CategoryTennis, Text: "Q2",
		Options: []string{"a", "b", "c", "d"}, CorrectAnswer: "b",
	}}

	s.Require().NoError(s.bank.SaveQuestions(s.ctx, model.CategoryTennis, first))
	s.Require().NoError(s.bank.SaveQuestions(s.ctx, model.CategoryTennis, second))

	questions, err := s.bank.GetQuestions(s.ctx, model.CategoryTennis)
	s.Require().NoError(err)
	s.Equal(second, questions)
}

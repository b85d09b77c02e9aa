package storage

import (
	"context"

	"github.com/mcoot/triviaduel/internal/model"
)

// MatchStore holds the active matches keyed by code
type MatchStore interface {
	SaveMatch(ctx context.Context, match *model.Match) error
	GetMatch(ctx context.Context, id model.GameID) (*model.Match, error)
	DeleteMatch(ctx context.Context, id model.GameID) error
	MatchExists(ctx context.Context, id model.GameID) (bool, error)
	ListMatches(ctx context.Context) ([]*model.Match, error)
}

// QuestionBank holds the questions available per concrete category
type QuestionBank interface {
	// GetQuestions returns model.ErrQuestionsNotLoaded if nothing was ever saved for the category
	GetQuestions(ctx context.Context, category model.Category) ([]model.Question, error)
	// SaveQuestions replaces the questions stored for a category
	SaveQuestions(ctx context.Context, category model.Category, questions []model.Question) error
}

// ResultStore persists completed match results
type ResultStore interface {
	SaveResult(ctx context.Context, result *model.MatchResult) error
	// ListResults returns the most recent results first
	ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error)
}

// Storage defines the interface for data persistence
type Storage interface {
	MatchStore
	QuestionBank
	ResultStore
}

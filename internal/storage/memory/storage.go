package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// Matches are copied on the way in and out so callers never share state.
type Storage struct {
	mu sync.RWMutex

	matches   map[model.GameID]*model.Match
	questions map[model.Category][]model.Question
	results   []*model.MatchResult
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		matches:   make(map[model.GameID]*model.Match),
		questions: make(map[model.Category][]model.Question),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Match operations

func (s *Storage) SaveMatch(ctx context.Context, match *model.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[match.ID] = match.Clone()
	return nil
}

func (s *Storage) GetMatch(ctx context.Context, id model.GameID) (*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	match, ok := s.matches[id]
	if !ok {
		return nil, model.ErrMatchNotFound
	}
	return match.Clone(), nil
}

func (s *Storage) DeleteMatch(ctx context.Context, id model.GameID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.matches, id)
	return nil
}

func (s *Storage) MatchExists(ctx context.Context, id model.GameID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.matches[id]
	return ok, nil
}

func (s *Storage) ListMatches(ctx context.Context) ([]*model.Match, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	matches := make([]*model.Match, 0, len(s.matches))
	for _, m := range s.matches {
		matches = append(matches, m.Clone())
	}
	return matches, nil
}

// Question operations

func (s *Storage) GetQuestions(ctx context.Context, category model.Category) ([]model.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	questions, ok := s.questions[category]
	if !ok {
		return nil, model.ErrQuestionsNotLoaded
	}
	return cloneQuestions(questions), nil
}

func (s *Storage) SaveQuestions(ctx context.Context, category model.Category, questions []model.Question) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.questions[category] = cloneQuestions(questions)
	return nil
}

// Result operations

func (s *Storage) SaveResult(ctx context.Context, result *model.MatchResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := *result
	r.Players = slices.Clone(result.Players)
	s.results = append(s.results, &r)
	return nil
}

func (s *Storage) ListResults(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	if limit <= 0 {
		return []*model.MatchResult{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*model.MatchResult, 0, min(limit, len(s.results)))
	for i := len(s.results) - 1; i >= 0 && len(out) < limit; i-- {
		r := *s.results[i]
		r.Players = slices.Clone(r.Players)
		out = append(out, &r)
	}
	return out, nil
}

func cloneQuestions(questions []model.Question) []model.Question {
	out := make([]model.Question, len(questions))
	for i, q := range questions {
		q.Options = slices.Clone(q.Options)
		out[i] = q
	}
	return out
}

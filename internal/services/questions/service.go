package questions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"

	"github.com/mcoot/triviaduel/internal/dependencies/random"
	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

// Service selects the questions for a match from the bank, topping up
// from the built-in set when the bank is short
type Service struct {
	bank   storage.QuestionBank
	random random.Random
	logger *slog.Logger
}

// New creates a new question Service
func New(bank storage.QuestionBank, rnd random.Random, logger *slog.Logger) *Service {
	return &Service{
		bank:   bank,
		random: rnd,
		logger: logger.With(slog.String("component", "questions")),
	}
}

// FetchQuestions returns exactly QuestionsPerMatch questions for category.
// Mixed draws from every concrete category.
func (s *Service) FetchQuestions(ctx context.Context, category model.Category) ([]model.Question, error) {
	if !category.Valid() {
		return nil, model.ErrInvalidCategory
	}

	categories := []model.Category{category}
	if category == model.CategoryMixed {
		categories = model.ConcreteCategories
	}

	var pool []model.Question
	for _, c := range categories {
		stored, err := s.bank.GetQuestions(ctx, c)
		if err != nil {
			if errors.Is(err, model.ErrQuestionsNotLoaded) {
				continue
			}
			s.logger.Error("question bank read failed",
				slog.String("category", string(c)),
				slog.Any("error", err),
			)
			return nil, fmt.Errorf("%w: %v", model.ErrQuestionsUnavailable, err)
		}
		pool = append(pool, stored...)
	}

	selected := s.pick(pool, model.QuestionsPerMatch, nil)
	if len(selected) < model.QuestionsPerMatch {
		var fallback []model.Question
		for _, c := range categories {
			fallback = append(fallback, builtin[c]...)
		}
		s.logger.Debug("topping up from built-in questions",
			slog.String("category", string(category)),
			slog.Int("from_bank", len(selected)),
		)
		selected = append(selected, s.pick(fallback, model.QuestionsPerMatch-len(selected), selected)...)
	}

	if len(selected) < model.QuestionsPerMatch {
		return nil, fmt.Errorf("%w: only %d questions for %s", model.ErrQuestionsUnavailable, len(selected), category)
	}
	return selected, nil
}

// pick returns up to n random questions from pool, skipping ids already in exclude
func (s *Service) pick(pool []model.Question, n int, exclude []model.Question) []model.Question {
	seen := make(map[model.QuestionID]bool, len(exclude))
	for _, q := range exclude {
		seen[q.ID] = true
	}

	candidates := make([]model.Question, 0, len(pool))
	for _, q := range pool {
		if seen[q.ID] {
			continue
		}
		seen[q.ID] = true
		q.Options = slices.Clone(q.Options)
		candidates = append(candidates, q)
	}

	random.Shuffle(s.random, len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

// LoadFromFile loads a JSON array of questions into the bank, replacing
// the stored questions of every category present in the file
func (s *Service) LoadFromFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var entries []fileQuestion
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	questions := make([]model.Question, len(entries))
	for i, e := range entries {
		questions[i] = e.toModel()
	}
	return s.LoadQuestions(ctx, questions)
}

// LoadQuestions validates and stores questions grouped by category
func (s *Service) LoadQuestions(ctx context.Context, questions []model.Question) error {
	byCategory := make(map[model.Category][]model.Question)
	for i, q := range questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("question %d (%s): %w", i, q.ID, err)
		}
		byCategory[q.Category] = append(byCategory[q.Category], q)
	}

	for category, qs := range byCategory {
		if err := s.bank.SaveQuestions(ctx, category, qs); err != nil {
			return err
		}
		s.logger.Info("questions loaded",
			slog.String("category", string(category)),
			slog.Int("count", len(qs)),
		)
	}
	return nil
}

// fileQuestion is the on-disk shape of a question
type fileQuestion struct {
	ID            string   `json:"id"`
	Category      string   `json:"category"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
}

func (f fileQuestion) toModel() model.Question {
	return model.Question{
		ID:            model.QuestionID(f.ID),
		Category:      model.Category(f.Category),
		Text:          f.Question,
		Options:       f.Options,
		CorrectAnswer: f.CorrectAnswer,
	}
}

// Interface check
type ServiceInterface interface {
	FetchQuestions(ctx context.Context, category model.Category) ([]model.Question, error)
	LoadFromFile(ctx context.Context, path string) error
	LoadQuestions(ctx context.Context, questions []model.Question) error
}

var _ ServiceInterface = (*Service)(nil)

package model

import "time"

const (
	// QuestionsPerMatch is the fixed length of every match's question list
	QuestionsPerMatch = 10
	// OptionsPerQuestion is the number of multiple choice options
	OptionsPerQuestion = 4
	// QuestionTimeLimit is the answer budget for a single question
	QuestionTimeLimit = 15 * time.Second
)

// QuestionID identifies a question in the bank
type QuestionID string

// Question is a single multiple choice trivia question
type Question struct {
	ID            QuestionID
	Category      Category
	Text          string
	Options       []string
	CorrectAnswer string
}

// IsCorrect reports whether answer matches the correct option
func (q Question) IsCorrect(answer string) bool {
	return answer == q.CorrectAnswer
}

// Validate checks the question is well formed and stored under a concrete category
func (q Question) Validate() error {
	if q.ID == "" || q.Text == "" {
		return ErrInvalidQuestion
	}
	if !q.Category.IsConcrete() {
		return ErrInvalidQuestion
	}
	if len(q.Options) != OptionsPerQuestion {
		return ErrInvalidQuestion
	}
	for _, opt := range q.Options {
		if opt == q.CorrectAnswer {
			return nil
		}
	}
	return ErrInvalidQuestion
}

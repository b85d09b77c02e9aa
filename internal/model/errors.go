package model

import "errors"

// Common errors used across the application
var (
	// Match errors
	ErrMatchNotFound   = errors.New("match not found")
	ErrMatchFull       = errors.New("match is full")
	ErrAlreadyInMatch  = errors.New("player is already in this match")
	ErrNotInMatch      = errors.New("player is not in this match")
	ErrNotHost         = errors.New("player is not the host")
	ErrMatchInProgress = errors.New("match has already started")
	ErrMatchNotStarted = errors.New("match has not started")
	ErrMatchEnded      = errors.New("match has ended")
	ErrMatchNotEnded   = errors.New("match has not ended")
	ErrAlreadyAnswered = errors.New("player has already answered this question")
	ErrCodeExhausted   = errors.New("could not generate a unique match code")

	// Input errors
	ErrInvalidCategory = errors.New("invalid category")
	ErrInvalidUsername = errors.New("username must be 1-24 characters")
	ErrInvalidChat     = errors.New("chat message must be 1-280 characters")

	// Question errors
	ErrInvalidQuestion      = errors.New("invalid question")
	ErrQuestionsNotLoaded   = errors.New("no questions loaded for category")
	ErrQuestionsUnavailable = errors.New("questions unavailable")

	// Result errors
	ErrResultNotFound = errors.New("result not found")
)

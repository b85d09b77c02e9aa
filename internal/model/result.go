package model

import "time"

// PlayerResult is one player's final line in a match result
type PlayerResult struct {
	PlayerID            PlayerID
	Username            string
	Score               int
	CorrectAnswers      int
	AverageResponseTime float64
}

// MatchResult is the record persisted when a match reaches game over
type MatchResult struct {
	GameID      GameID
	Category    Category
	Duration    time.Duration
	Players     []PlayerResult
	Winner      PlayerID // Empty if tie
	CompletedAt time.Time
}

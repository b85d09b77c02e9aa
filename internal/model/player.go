package model

import "time"

// PlayerID uniquely identifies a player. It is the id of the live
// connection and does not survive a reconnect.
type PlayerID string

// Player is a participant in a single match
type Player struct {
	ID             PlayerID
	Username       string
	Score          int
	CorrectAnswers int
	IsHost         bool
	IsReady        bool
	RematchReady   bool
	ResponseTimes  []float64 // seconds, one entry per answered question

	// Question index this player last answered, -1 if none this round
	AnsweredIndex int

	JoinedAt time.Time
}

// NewPlayer creates a player with no score and nothing answered
func NewPlayer(id PlayerID, username string, isHost bool, now time.Time) Player {
	return Player{
		ID:            id,
		Username:      username,
		IsHost:        isHost,
		ResponseTimes: []float64{},
		AnsweredIndex: -1,
		JoinedAt:      now,
	}
}

// AverageResponseTime returns the mean response time in seconds, 0 if none recorded
func (p *Player) AverageResponseTime() float64 {
	if len(p.ResponseTimes) == 0 {
		return 0
	}
	var total float64
	for _, t := range p.ResponseTimes {
		total += t
	}
	return total / float64(len(p.ResponseTimes))
}

// resetForRematch clears all per-game state while keeping identity and host flag
func (p *Player) resetForRematch() {
	p.Score = 0
	p.CorrectAnswers = 0
	p.IsReady = false
	p.RematchReady = false
	p.ResponseTimes = []float64{}
	p.AnsweredIndex = -1
}

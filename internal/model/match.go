package model

import (
	"slices"
	"time"
)

// GameID is the short shareable code identifying a match
type GameID string

const (
	// MaxPlayers is the roster limit of a 1v1 match
	MaxPlayers = 2
	// CountdownStart is the first value of the pre-game countdown
	CountdownStart = 3
)

// MatchPhase is the readiness state derived from a match's flags
type MatchPhase string

const (
	PhaseWaitingForPlayers MatchPhase = "waiting_for_players"
	PhaseWaitingForReady   MatchPhase = "waiting_for_ready"
	PhaseCountdown         MatchPhase = "countdown"
	PhaseStarted           MatchPhase = "started"
	PhaseEnded             MatchPhase = "ended"
)

// ChatMessage is a single entry in a match's chat log
type ChatMessage struct {
	PlayerID  PlayerID
	Username  string
	Text      string
	Timestamp time.Time
}

// Match is one 1v1 game session from creation to termination
type Match struct {
	ID       GameID
	Category Category

	// Frozen when the match (or rematch) is created
	Questions            []Question
	CurrentQuestionIndex int

	// Join order, host first
	Players []Player

	// Players who have answered the current question
	AnsweredPlayerIDs map[PlayerID]bool
	// Players who have answered the final question
	FinishedPlayers []PlayerID

	IsStarted      bool
	IsEnded        bool
	StartCountdown *int // nil when not counting down

	QuestionStartedAt time.Time
	StartedAt         time.Time
	EndedAt           time.Time
	CompletionTime    time.Duration

	ChatMessages []ChatMessage

	// Epoch is bumped whenever pending timers must be invalidated
	Epoch uint64

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewMatch creates a match with the host as its only player
func NewMatch(id GameID, category Category, questions []Question, host Player, now time.Time) *Match {
	host.IsHost = true
	return &Match{
		ID:                id,
		Category:          category,
		Questions:         questions,
		Players:           []Player{host},
		AnsweredPlayerIDs: make(map[PlayerID]bool),
		FinishedPlayers:   []PlayerID{},
		ChatMessages:      []ChatMessage{},
		QuestionStartedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// Phase derives the current readiness/lifecycle phase
func (m *Match) Phase() MatchPhase {
	switch {
	case m.IsEnded:
		return PhaseEnded
	case m.IsStarted:
		return PhaseStarted
	case m.StartCountdown != nil:
		return PhaseCountdown
	case len(m.Players) < MaxPlayers:
		return PhaseWaitingForPlayers
	default:
		return PhaseWaitingForReady
	}
}

// GetPlayer returns a pointer to the roster entry for id, or nil
func (m *Match) GetPlayer(id PlayerID) *Player {
	for i := range m.Players {
		if m.Players[i].ID == id {
			return &m.Players[i]
		}
	}
	return nil
}

// HasPlayer returns true if id is in the roster
func (m *Match) HasPlayer(id PlayerID) bool {
	return m.GetPlayer(id) != nil
}

// Host returns the host player, or nil if the roster has none
func (m *Match) Host() *Player {
	for i := range m.Players {
		if m.Players[i].IsHost {
			return &m.Players[i]
		}
	}
	return nil
}

// IsFull returns true if no more players can join
func (m *Match) IsFull() bool {
	return len(m.Players) >= MaxPlayers
}

// AllReady returns true if the roster is full and every player is ready
func (m *Match) AllReady() bool {
	if len(m.Players) != MaxPlayers {
		return false
	}
	for _, p := range m.Players {
		if !p.IsReady {
			return false
		}
	}
	return true
}

// AllAnswered returns true if every player in the roster has answered the current question
func (m *Match) AllAnswered() bool {
	if len(m.Players) == 0 {
		return false
	}
	for _, p := range m.Players {
		if !m.AnsweredPlayerIDs[p.ID] {
			return false
		}
	}
	return true
}

// AllRematchReady returns true if a full roster has all requested a rematch
func (m *Match) AllRematchReady() bool {
	if len(m.Players) != MaxPlayers {
		return false
	}
	for _, p := range m.Players {
		if !p.RematchReady {
			return false
		}
	}
	return true
}

// CurrentQuestion returns the question being played, or nil if out of range
func (m *Match) CurrentQuestion() *Question {
	if m.CurrentQuestionIndex < 0 || m.CurrentQuestionIndex >= len(m.Questions) {
		return nil
	}
	return &m.Questions[m.CurrentQuestionIndex]
}

// IsLastQuestion returns true if the current question is the final one
func (m *Match) IsLastQuestion() bool {
	return m.CurrentQuestionIndex >= len(m.Questions)-1
}

// RemovePlayer drops id from the roster and from the current round's answers
func (m *Match) RemovePlayer(id PlayerID) bool {
	idx := slices.IndexFunc(m.Players, func(p Player) bool { return p.ID == id })
	if idx < 0 {
		return false
	}
	m.Players = slices.Delete(m.Players, idx, idx+1)
	delete(m.AnsweredPlayerIDs, id)
	return true
}

// ResetForRematch restores the initial game state with a fresh question set.
// The id, category and roster are kept.
func (m *Match) ResetForRematch(questions []Question, now time.Time) {
	m.Questions = questions
	m.CurrentQuestionIndex = 0
	m.IsStarted = false
	m.IsEnded = false
	m.StartCountdown = nil
	m.AnsweredPlayerIDs = make(map[PlayerID]bool)
	m.FinishedPlayers = []PlayerID{}
	m.ChatMessages = []ChatMessage{}
	m.QuestionStartedAt = now
	m.StartedAt = time.Time{}
	m.EndedAt = time.Time{}
	m.CompletionTime = 0
	for i := range m.Players {
		m.Players[i].resetForRematch()
	}
	m.Epoch++
}

// Clone returns a deep copy safe to mutate independently
func (m *Match) Clone() *Match {
	c := *m
	c.Questions = make([]Question, len(m.Questions))
	for i, q := range m.Questions {
		q.Options = slices.Clone(q.Options)
		c.Questions[i] = q
	}
	c.Players = make([]Player, len(m.Players))
	for i, p := range m.Players {
		p.ResponseTimes = slices.Clone(p.ResponseTimes)
		if p.ResponseTimes == nil {
			p.ResponseTimes = []float64{}
		}
		c.Players[i] = p
	}
	c.AnsweredPlayerIDs = make(map[PlayerID]bool, len(m.AnsweredPlayerIDs))
	for id, v := range m.AnsweredPlayerIDs {
		c.AnsweredPlayerIDs[id] = v
	}
	c.FinishedPlayers = slices.Clone(m.FinishedPlayers)
	c.ChatMessages = slices.Clone(m.ChatMessages)
	if m.StartCountdown != nil {
		v := *m.StartCountdown
		c.StartCountdown = &v
	}
	return &c
}

package model

import "time"

// EventType identifies the type of event. The values are the message
// names clients receive.
type EventType string

const (
	// Session events
	EventConnected EventType = "connected"
	EventError     EventType = "error"

	// Lobby events
	EventMatchCreated      EventType = "matchCreated"
	EventMatchUpdated      EventType = "matchUpdated"
	EventPlayerReadyUpdate EventType = "playerReadyUpdate"
	EventCategoryUpdated   EventType = "categoryUpdated"
	EventNewChatMessage    EventType = "newChatMessage"
	EventHostLeft          EventType = "hostLeft"
	EventPlayerLeft        EventType = "playerLeft"
	EventMatchExpired      EventType = "matchExpired"

	// Game events
	EventGameStarted    EventType = "gameStarted"
	EventScoreUpdate    EventType = "scoreUpdate"
	EventPlayerAnswered EventType = "playerAnswered"
	EventNextQuestion   EventType = "nextQuestion"
	EventGameOver       EventType = "gameOver"

	// Rematch events
	EventRematchRequested EventType = "rematchRequested"
	EventGoToLobby        EventType = "goToLobby"
)

// Event is the base structure for all events
type Event struct {
	Type      EventType
	Timestamp time.Time
	GameID    GameID   // Empty for session events
	PlayerID  PlayerID // The player who triggered or is affected
	Payload   any      // Type-specific data
}

// SnapshotPayload carries the full match state
type SnapshotPayload struct {
	Match *Match
}

// GameOverPayload carries the final match state and its duration
type GameOverPayload struct {
	Match    *Match
	Duration time.Duration
}

// AnswerPayload is the partial update sent for scoreUpdate and playerAnswered
type AnswerPayload struct {
	PlayerID       PlayerID
	Score          int
	ResponseTime   float64
	CorrectAnswers int
	Correct        bool
	Points         int
	QuestionIndex  int
}

// ChatPayload carries a single new chat message
type ChatPayload struct {
	Message ChatMessage
}

// RematchRequestedPayload identifies who wants a rematch
type RematchRequestedPayload struct {
	PlayerID PlayerID
}

// DeparturePayload describes a player leaving. Match is nil when the match was destroyed.
type DeparturePayload struct {
	PlayerID PlayerID
	Username string
	Match    *Match
}

// ErrorPayload is sent only to the connection whose request failed
type ErrorPayload struct {
	Code    string
	Message string
}

// ConnectedPayload tells a new connection its player id
type ConnectedPayload struct {
	PlayerID PlayerID
}

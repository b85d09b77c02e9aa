package response

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcoot/triviaduel/internal/model"
)

// Event is the outbound websocket frame
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	GameID    string    `json:"game_id,omitempty"`
	PlayerID  string    `json:"player_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
}

// AnswerUpdate is the partial payload of scoreUpdate and playerAnswered
type AnswerUpdate struct {
	PlayerID       string  `json:"player_id"`
	Score          int     `json:"score"`
	ResponseTime   float64 `json:"response_time"`
	CorrectAnswers int     `json:"correct_answers"`
	Correct        bool    `json:"correct"`
	Points         int     `json:"points"`
	QuestionIndex  int     `json:"question_index"`
}

// GameOver carries the final snapshot and the match duration in seconds
type GameOver struct {
	Match    Match   `json:"match"`
	Duration float64 `json:"duration"`
}

// Departure describes a player leaving
type Departure struct {
	PlayerID string `json:"player_id"`
	Username string `json:"username"`
	Match    *Match `json:"match,omitempty"`
}

// RematchRequested identifies who asked for a rematch
type RematchRequested struct {
	PlayerID string `json:"player_id"`
}

// Connected tells a new connection its player id
type Connected struct {
	PlayerID string `json:"player_id"`
}

// Error is the payload of an error event
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// EventFromModel converts a model.Event and its payload to the wire shape
func EventFromModel(e model.Event) (Event, error) {
	out := Event{
		Type:      string(e.Type),
		Timestamp: e.Timestamp,
		GameID:    string(e.GameID),
		PlayerID:  string(e.PlayerID),
	}

	switch p := e.Payload.(type) {
	case nil:
	case model.SnapshotPayload:
		out.Payload = MatchFromModel(p.Match)
	case model.GameOverPayload:
		out.Payload = GameOver{Match: MatchFromModel(p.Match), Duration: p.Duration.Seconds()}
	case model.AnswerPayload:
		out.Payload = AnswerUpdate{
			PlayerID:       string(p.PlayerID),
			Score:          p.Score,
			ResponseTime:   p.ResponseTime,
			CorrectAnswers: p.CorrectAnswers,
			Correct:        p.Correct,
			Points:         p.Points,
			QuestionIndex:  p.QuestionIndex,
		}
	case model.ChatPayload:
		out.Payload = ChatMessageFromModel(p.Message)
	case model.RematchRequestedPayload:
		out.Payload = RematchRequested{PlayerID: string(p.PlayerID)}
	case model.DeparturePayload:
		d := Departure{PlayerID: string(p.PlayerID), Username: p.Username}
		if p.Match != nil {
			snapshot := MatchFromModel(p.Match)
			d.Match = &snapshot
		}
		out.Payload = d
	case model.ErrorPayload:
		out.Payload = Error{Code: p.Code, Message: p.Message}
	case model.ConnectedPayload:
		out.Payload = Connected{PlayerID: string(p.PlayerID)}
	default:
		return Event{}, fmt.Errorf("unsupported payload %T for event %s", e.Payload, e.Type)
	}
	return out, nil
}

// EncodeEvent serialises an event as a websocket text frame
func EncodeEvent(e model.Event) ([]byte, error) {
	out, err := EventFromModel(e)
	if err != nil {
		return nil, err
	}
	return json.Marshal(out)
}

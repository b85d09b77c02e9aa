package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mcoot/triviaduel/internal/model"
)

// ErrInvalidMessage is returned for frames that cannot be decoded or fail validation
var ErrInvalidMessage = errors.New("invalid message")

// Inbound message names
const (
	TypeCreateMatch     = "createMatch"
	TypeJoinMatch       = "joinMatch"
	TypeLeaveMatch      = "leaveMatch"
	TypeSetReady        = "setReady"
	TypeSubmitAnswer    = "submitAnswer"
	TypeRequestRematch  = "requestRematch"
	TypeUpdateCategory  = "updateCategory"
	TypeSendChatMessage = "sendChatMessage"
	TypeEndMatch        = "endMatch"
)

// Envelope is the outer shape of every inbound websocket frame
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Message is one decoded and validated inbound message
type Message interface {
	MessageType() string
	Validate() error
}

// CreateMatchRequest asks to host a new match
type CreateMatchRequest struct {
	Category string `json:"category"`
	Username string `json:"username"`
}

// JoinMatchRequest asks to join a waiting match by code
type JoinMatchRequest struct {
	GameID   string `json:"game_id"`
	Username string `json:"username"`
}

// LeaveMatchRequest leaves a match. Whether the sender is host is decided server-side.
type LeaveMatchRequest struct {
	GameID string `json:"game_id"`
}

// SetReadyRequest marks the sender ready
type SetReadyRequest struct {
	GameID string `json:"game_id"`
}

// SubmitAnswerRequest answers the current question. AwardedPoints and
// NewTotalScore are accepted for older clients and only compared.
type SubmitAnswerRequest struct {
	GameID        string  `json:"game_id"`
	Answer        string  `json:"answer"`
	TimeRemaining float64 `json:"time_remaining"`
	AwardedPoints *int    `json:"awarded_points,omitempty"`
	NewTotalScore *int    `json:"new_total_score,omitempty"`
}

// RequestRematchRequest asks to play the same match again
type RequestRematchRequest struct {
	GameID string `json:"game_id"`
}

// UpdateCategoryRequest changes the category before the game starts
type UpdateCategoryRequest struct {
	GameID   string `json:"game_id"`
	Category string `json:"category"`
}

// SendChatMessageRequest posts to the match chat
type SendChatMessageRequest struct {
	GameID string `json:"game_id"`
	Text   string `json:"text"`
}

// EndMatchRequest forces game over
type EndMatchRequest struct {
	GameID string `json:"game_id"`
}

func (CreateMatchRequest) MessageType() string     { return TypeCreateMatch }
func (JoinMatchRequest) MessageType() string       { return TypeJoinMatch }
func (LeaveMatchRequest) MessageType() string      { return TypeLeaveMatch }
func (SetReadyRequest) MessageType() string        { return TypeSetReady }
func (SubmitAnswerRequest) MessageType() string    { return TypeSubmitAnswer }
func (RequestRematchRequest) MessageType() string  { return TypeRequestRematch }
func (UpdateCategoryRequest) MessageType() string  { return TypeUpdateCategory }
func (SendChatMessageRequest) MessageType() string { return TypeSendChatMessage }
func (EndMatchRequest) MessageType() string        { return TypeEndMatch }

func (r CreateMatchRequest) Validate() error {
	if _, err := model.ParseCategory(r.Category); err != nil {
		return err
	}
	return requireField("username", r.Username)
}

func (r JoinMatchRequest) Validate() error {
	if err := requireField("game_id", r.GameID); err != nil {
		return err
	}
	return requireField("username", r.Username)
}

func (r LeaveMatchRequest) Validate() error     { return requireField("game_id", r.GameID) }
func (r SetReadyRequest) Validate() error       { return requireField("game_id", r.GameID) }
func (r RequestRematchRequest) Validate() error { return requireField("game_id", r.GameID) }
func (r EndMatchRequest) Validate() error       { return requireField("game_id", r.GameID) }

func (r SubmitAnswerRequest) Validate() error {
	if err := requireField("game_id", r.GameID); err != nil {
		return err
	}
	if r.Answer == "" {
		return fmt.Errorf("%w: answer is required", ErrInvalidMessage)
	}
	if r.TimeRemaining < 0 || r.TimeRemaining > model.QuestionTimeLimit.Seconds() {
		return fmt.Errorf("%w: time_remaining must be between 0 and %d", ErrInvalidMessage, int(model.QuestionTimeLimit.Seconds()))
	}
	return nil
}

func (r UpdateCategoryRequest) Validate() error {
	if err := requireField("game_id", r.GameID); err != nil {
		return err
	}
	_, err := model.ParseCategory(r.Category)
	return err
}

func (r SendChatMessageRequest) Validate() error {
	if err := requireField("game_id", r.GameID); err != nil {
		return err
	}
	return requireField("text", r.Text)
}

func requireField(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidMessage, name)
	}
	return nil
}

// Decode parses one inbound frame into its typed message and validates it
func Decode(data []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}

	switch env.Type {
	case TypeCreateMatch:
		msg, err := decodeAs[CreateMatchRequest](env.Payload)
		return validated(msg, err)
	case TypeJoinMatch:
		msg, err := decodeAs[JoinMatchRequest](env.Payload)
		return validated(msg, err)
	case TypeLeaveMatch:
		msg, err := decodeAs[LeaveMatchRequest](env.Payload)
		return validated(msg, err)
	case TypeSetReady:
		msg, err := decodeAs[SetReadyRequest](env.Payload)
		return validated(msg, err)
	case TypeSubmitAnswer:
		msg, err := decodeAs[SubmitAnswerRequest](env.Payload)
		return validated(msg, err)
	case TypeRequestRematch:
		msg, err := decodeAs[RequestRematchRequest](env.Payload)
		return validated(msg, err)
	case TypeUpdateCategory:
		msg, err := decodeAs[UpdateCategoryRequest](env.Payload)
		return validated(msg, err)
	case TypeSendChatMessage:
		msg, err := decodeAs[SendChatMessageRequest](env.Payload)
		return validated(msg, err)
	case TypeEndMatch:
		msg, err := decodeAs[EndMatchRequest](env.Payload)
		return validated(msg, err)
	case "":
		return nil, fmt.Errorf("%w: type is required", ErrInvalidMessage)
	default:
		return nil, fmt.Errorf("%w: unknown type %q", ErrInvalidMessage, env.Type)
	}
}

func decodeAs[T Message](payload json.RawMessage) (T, error) {
	var v T
	if len(payload) == 0 || string(payload) == "null" {
		return v, fmt.Errorf("%w: payload is required", ErrInvalidMessage)
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return v, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return v, nil
}

func validated[T Message](msg T, err error) (Message, error) {
	if err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return msg, nil
}

package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/mcoot/triviaduel/internal/model"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeInvalidMessage       = "INVALID_MESSAGE"
	CodeRateLimited          = "RATE_LIMITED"
	CodeMatchNotFound        = "MATCH_NOT_FOUND"
	CodeMatchFull            = "MATCH_FULL"
	CodeAlreadyInMatch       = "ALREADY_IN_MATCH"
	CodeNotInMatch           = "NOT_IN_MATCH"
	CodeNotHost              = "NOT_HOST"
	CodeMatchInProgress      = "MATCH_IN_PROGRESS"
	CodeMatchNotStarted      = "MATCH_NOT_STARTED"
	CodeMatchEnded           = "MATCH_ENDED"
	CodeMatchNotEnded        = "MATCH_NOT_ENDED"
	CodeAlreadyAnswered      = "ALREADY_ANSWERED"
	CodeInvalidCategory      = "INVALID_CATEGORY"
	CodeInvalidUsername      = "INVALID_USERNAME"
	CodeInvalidChat          = "INVALID_CHAT"
	CodeQuestionsUnavailable = "QUESTIONS_UNAVAILABLE"
	CodeInternalError        = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	status, apiError := FromError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: apiError})
}

// FromError maps any error to its HTTP status and client-facing code/message.
// Websocket sessions use the APIError half only.
func FromError(err error) (int, APIError) {
	he := toHTTPError(err)
	return he.status, he.apiError
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	// Check for specific error types
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrMatchNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeMatchNotFound, "Match not found"}}
	case errors.Is(err, model.ErrMatchFull):
		return &httpError{http.StatusConflict, APIError{CodeMatchFull, "Match is full"}}
	case errors.Is(err, model.ErrAlreadyInMatch):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyInMatch, "Already in this match"}}
	case errors.Is(err, model.ErrNotInMatch):
		return &httpError{http.StatusForbidden, APIError{CodeNotInMatch, "Not in this match"}}
	case errors.Is(err, model.ErrNotHost):
		return &httpError{http.StatusForbidden, APIError{CodeNotHost, "Only the host can perform this action"}}
	case errors.Is(err, model.ErrMatchInProgress):
		return &httpError{http.StatusConflict, APIError{CodeMatchInProgress, "Match has already started"}}
	case errors.Is(err, model.ErrMatchNotStarted):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotStarted, "Match has not started"}}
	case errors.Is(err, model.ErrMatchEnded):
		return &httpError{http.StatusConflict, APIError{CodeMatchEnded, "Match has ended"}}
	case errors.Is(err, model.ErrMatchNotEnded):
		return &httpError{http.StatusConflict, APIError{CodeMatchNotEnded, "Match has not ended yet"}}
	case errors.Is(err, model.ErrAlreadyAnswered):
		return &httpError{http.StatusConflict, APIError{CodeAlreadyAnswered, "Already answered this question"}}
	case errors.Is(err, model.ErrInvalidCategory):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidCategory, "Unknown category"}}
	case errors.Is(err, model.ErrInvalidUsername):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidUsername, "Username must be 1-24 characters"}}
	case errors.Is(err, model.ErrInvalidChat):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidChat, "Chat message must be 1-280 characters"}}
	case errors.Is(err, model.ErrQuestionsUnavailable):
		return &httpError{http.StatusServiceUnavailable, APIError{CodeQuestionsUnavailable, "Questions are unavailable, try again"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewInvalidMessageError creates an error for a malformed websocket message
func NewInvalidMessageError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidMessage, message}}
}

// NewRateLimitedError creates an error for a client sending too fast
func NewRateLimitedError() error {
	return &httpError{http.StatusTooManyRequests, APIError{CodeRateLimited, "Too many messages, slow down"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}

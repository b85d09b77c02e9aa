package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/triviaduel/internal/api/apierr"
	"github.com/mcoot/triviaduel/internal/api/request"
	"github.com/mcoot/triviaduel/internal/dependencies/clock"
	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/realtime"
	"github.com/mcoot/triviaduel/internal/services/match"
)

const (
	// messageTimeout bounds the work done for one inbound message
	messageTimeout = 10 * time.Second
	// disconnectTimeout bounds departure handling after a connection closes
	disconnectTimeout = 5 * time.Second
)

// SessionHandler upgrades a request to a websocket and routes the
// connection's messages to the match controller
type SessionHandler struct {
	controller match.ControllerInterface
	hub        *realtime.HubManager
	clock      clock.Clock
	upgrader   websocket.Upgrader
	logger     *slog.Logger
}

// NewSessionHandler creates a new session handler. An empty allowedOrigins
// or one containing "*" accepts any origin.
func NewSessionHandler(controller match.ControllerInterface, hub *realtime.HubManager, clk clock.Clock, allowedOrigins []string, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{
		controller: controller,
		hub:        hub,
		clock:      clk,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger.With(slog.String("component", "session")),
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 || slices.Contains(allowed, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// Non-browser clients send no Origin
		return origin == "" || slices.Contains(allowed, origin)
	}
}

// Serve handles GET /ws. It blocks for the lifetime of the connection.
func (h *SessionHandler) Serve(w http.ResponseWriter, r *http.Request) {
	end, ok := h.hub.BeginSession()
	if !ok {
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	}
	defer end()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	client := realtime.NewClient(conn, h.logger)
	h.hub.Register(client)
	defer h.depart(client)

	h.hub.Send(client.ID(), h.event(model.EventConnected, "", client.ID(), model.ConnectedPayload{PlayerID: client.ID()}))

	go client.WritePump()
	client.ReadPump(func(data []byte) {
		h.handleFrame(client, data)
	})
}

// depart unregisters a closed connection and runs departure handling for
// its player
func (h *SessionHandler) depart(client *realtime.Client) {
	h.hub.Unregister(client)

	ctx, cancel := context.WithTimeout(context.Background(), disconnectTimeout)
	defer cancel()
	if err := h.controller.Disconnect(ctx, client.ID()); err != nil {
		h.logger.Error("departure handling failed",
			slog.String("player_id", string(client.ID())),
			slog.Any("error", err))
	}
}

// handleFrame decodes, validates and dispatches one inbound frame. Failures
// are reported to this connection only.
func (h *SessionHandler) handleFrame(client *realtime.Client, data []byte) {
	playerID := client.ID()

	if !client.Allow() {
		metrics.MessageHandled("unknown", "rate_limited")
		h.sendError(playerID, "", apierr.NewRateLimitedError())
		return
	}

	msg, err := request.Decode(data)
	if err != nil {
		metrics.MessageHandled("unknown", "invalid")
		if errors.Is(err, request.ErrInvalidMessage) {
			err = apierr.NewInvalidMessageError(err.Error())
		}
		h.sendError(playerID, "", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	gameID, err := h.safeDispatch(ctx, playerID, msg)
	if err != nil {
		metrics.MessageHandled(msg.MessageType(), "error")
		h.logger.Debug("message rejected",
			slog.String("player_id", string(playerID)),
			slog.String("type", msg.MessageType()),
			slog.Any("error", err))
		h.sendError(playerID, gameID, err)
		return
	}
	metrics.MessageHandled(msg.MessageType(), "ok")
}

// safeDispatch turns a panic while handling one message into an internal
// error for that client
func (h *SessionHandler) safeDispatch(ctx context.Context, playerID model.PlayerID, msg request.Message) (gameID model.GameID, err error) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("panic handling message",
				slog.String("player_id", string(playerID)),
				slog.String("type", msg.MessageType()),
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())))
			err = apierr.NewInternalError()
		}
	}()
	return h.dispatch(ctx, playerID, msg)
}

func (h *SessionHandler) dispatch(ctx context.Context, playerID model.PlayerID, msg request.Message) (model.GameID, error) {
	switch m := msg.(type) {
	case request.CreateMatchRequest:
		category, err := model.ParseCategory(m.Category)
		if err != nil {
			return "", err
		}
		_, err = h.controller.CreateMatch(ctx, playerID, m.Username, category)
		return "", err

	case request.JoinMatchRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.JoinMatch(ctx, gameID, playerID, m.Username)
		return gameID, err

	case request.LeaveMatchRequest:
		gameID := normaliseCode(m.GameID)
		return gameID, h.controller.LeaveMatch(ctx, gameID, playerID)

	case request.SetReadyRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.SetReady(ctx, gameID, playerID)
		return gameID, err

	case request.SubmitAnswerRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.SubmitAnswer(ctx, gameID, playerID, match.AnswerSubmission{
			Answer:        m.Answer,
			TimeRemaining: m.TimeRemaining,
			AwardedPoints: m.AwardedPoints,
			NewTotalScore: m.NewTotalScore,
		})
		return gameID, err

	case request.RequestRematchRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.RequestRematch(ctx, gameID, playerID)
		return gameID, err

	case request.UpdateCategoryRequest:
		gameID := normaliseCode(m.GameID)
		category, err := model.ParseCategory(m.Category)
		if err != nil {
			return gameID, err
		}
		_, err = h.controller.UpdateCategory(ctx, gameID, playerID, category)
		return gameID, err

	case request.SendChatMessageRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.SendChatMessage(ctx, gameID, playerID, m.Text)
		return gameID, err

	case request.EndMatchRequest:
		gameID := normaliseCode(m.GameID)
		_, err := h.controller.EndMatch(ctx, gameID, playerID)
		return gameID, err

	default:
		return "", apierr.NewInvalidMessageError("unsupported message " + msg.MessageType())
	}
}

func (h *SessionHandler) sendError(playerID model.PlayerID, gameID model.GameID, err error) {
	_, apiError := apierr.FromError(err)
	h.hub.Send(playerID, h.event(model.EventError, gameID, playerID, model.ErrorPayload{
		Code:    apiError.Code,
		Message: apiError.Message,
	}))
}

func (h *SessionHandler) event(t model.EventType, gameID model.GameID, playerID model.PlayerID, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: h.clock.Now(),
		GameID:    gameID,
		PlayerID:  playerID,
		Payload:   payload,
	}
}

func normaliseCode(code string) model.GameID {
	return model.GameID(strings.ToUpper(strings.TrimSpace(code)))
}

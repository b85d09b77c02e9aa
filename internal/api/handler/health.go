package handler

import (
	"context"
	"net/http"

	"github.com/mcoot/triviaduel/internal/api/response"
	"github.com/mcoot/triviaduel/internal/model"
)

// MatchLister lists the active matches
type MatchLister interface {
	ListMatches(ctx context.Context) ([]*model.Match, error)
}

// ConnectionCounter reports live websocket connections
type ConnectionCounter interface {
	ClientCount() int
}

// HealthHandler handles the health endpoint
type HealthHandler struct {
	matches     MatchLister
	connections ConnectionCounter
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(matches MatchLister, connections ConnectionCounter) *HealthHandler {
	return &HealthHandler{matches: matches, connections: connections}
}

// Get handles GET /api/v1/health
func (h *HealthHandler) Get(w http.ResponseWriter, r *http.Request) {
	matches, err := h.matches.ListMatches(r.Context())
	if err != nil {
		response.JSON(w, http.StatusServiceUnavailable, response.HealthResponse{Status: "degraded"})
		return
	}
	response.JSON(w, http.StatusOK, response.HealthResponse{
		Status:      "ok",
		Connections: h.connections.ClientCount(),
		Matches:     len(matches),
	})
}

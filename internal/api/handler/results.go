package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/mcoot/triviaduel/internal/api/response"
	"github.com/mcoot/triviaduel/internal/model"
)

const defaultResultsLimit = 20

// ResultLister lists recently completed matches
type ResultLister interface {
	ListRecent(ctx context.Context, limit int) ([]*model.MatchResult, error)
}

// ResultsHandler handles result history endpoints
type ResultsHandler struct {
	results ResultLister
}

// NewResultsHandler creates a new results handler
func NewResultsHandler(results ResultLister) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// List handles GET /api/v1/results
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := defaultResultsLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			WriteError(w, NewInvalidRequestError("limit must be a positive integer"))
			return
		}
		limit = n
	}

	results, err := h.results.ListRecent(r.Context(), limit)
	if err != nil {
		WriteError(w, err)
		return
	}

	resp := response.ResultsResponse{Results: make([]response.MatchResult, len(results))}
	for i, result := range results {
		resp.Results[i] = response.MatchResultFromModel(result)
	}
	response.JSON(w, http.StatusOK, resp)
}

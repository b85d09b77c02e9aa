package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/skip2/go-qrcode"

	"github.com/mcoot/triviaduel/internal/api/response"
	"github.com/mcoot/triviaduel/internal/model"
)

const (
	defaultQRSize = 320
	minQRSize     = 128
	maxQRSize     = 1024
)

// MatchGetter looks up a match snapshot
type MatchGetter interface {
	GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error)
}

// MatchHandler handles read-only match endpoints
type MatchHandler struct {
	matches   MatchGetter
	publicURL string
}

// NewMatchHandler creates a new match handler. publicURL is the base of
// invite links; when empty it is derived from the request.
func NewMatchHandler(matches MatchGetter, publicURL string) *MatchHandler {
	return &MatchHandler{
		matches:   matches,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Categories handles GET /api/v1/categories
func (h *MatchHandler) Categories(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.NewCategoriesResponse())
}

// Get handles GET /api/v1/matches/{code}
func (h *MatchHandler) Get(w http.ResponseWriter, r *http.Request) {
	m, err := h.matches.GetMatch(r.Context(), matchCode(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.MatchFromModel(m))
}

// Invite handles GET /api/v1/matches/{code}/invite.png
func (h *MatchHandler) Invite(w http.ResponseWriter, r *http.Request) {
	code := matchCode(r)
	if _, err := h.matches.GetMatch(r.Context(), code); err != nil {
		WriteError(w, err)
		return
	}

	size := defaultQRSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < minQRSize || n > maxQRSize {
			WriteError(w, NewInvalidRequestError("size must be between 128 and 1024"))
			return
		}
		size = n
	}

	png, err := qrcode.Encode(h.inviteURL(r, code), qrcode.Medium, size)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.PNG(w, png)
}

// inviteURL builds the link a second player opens to join
func (h *MatchHandler) inviteURL(r *http.Request, code model.GameID) string {
	base := h.publicURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
		base = scheme + "://" + r.Host
	}
	return base + "/join/" + string(code)
}

func matchCode(r *http.Request) model.GameID {
	return model.GameID(strings.ToUpper(strings.TrimSpace(mux.Vars(r)["code"])))
}

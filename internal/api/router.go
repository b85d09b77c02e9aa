package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/gorilla/mux"

	"github.com/mcoot/triviaduel/internal/api/handler"
	"github.com/mcoot/triviaduel/internal/api/middleware"
	"github.com/mcoot/triviaduel/internal/dependencies/clock"
	"github.com/mcoot/triviaduel/internal/metrics"
	basemiddleware "github.com/mcoot/triviaduel/internal/middleware"
	"github.com/mcoot/triviaduel/internal/realtime"
	"github.com/mcoot/triviaduel/internal/services/match"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	Controller     match.ControllerInterface
	Matches        handler.MatchLister
	Results        handler.ResultLister
	HubManager     *realtime.HubManager
	Clock          clock.Clock
	PublicURL      string
	AllowedOrigins []string
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	healthHandler := handler.NewHealthHandler(cfg.Matches, cfg.HubManager)
	matchHandler := handler.NewMatchHandler(cfg.Controller, cfg.PublicURL)
	resultsHandler := handler.NewResultsHandler(cfg.Results)
	sessionHandler := handler.NewSessionHandler(cfg.Controller, cfg.HubManager, cfg.Clock, cfg.AllowedOrigins, cfg.Logger)

	// Middleware shared by every route. Order: recover outermost, then log, then measure.
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(basemiddleware.Logging(cfg.Logger))
	r.Use(metrics.Middleware)

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", healthHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/categories", matchHandler.Categories).Methods(http.MethodGet)
	api.HandleFunc("/matches/{code}", matchHandler.Get).Methods(http.MethodGet)
	api.HandleFunc("/matches/{code}/invite.png", matchHandler.Invite).Methods(http.MethodGet)
	api.HandleFunc("/results", resultsHandler.List).Methods(http.MethodGet)

	// Realtime session
	r.HandleFunc("/ws", sessionHandler.Serve).Methods(http.MethodGet)

	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	return corsHandler(cfg.AllowedOrigins)(r)
}

func corsHandler(allowedOrigins []string) func(http.Handler) http.Handler {
	origins := allowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
}

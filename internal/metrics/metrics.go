package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mcoot/triviaduel/internal/middleware"
)

const namespace = "trivia"

// Reasons a match is removed from the store
const (
	ReasonHostLeft  = "host_left"
	ReasonAbandoned = "abandoned"
	ReasonExpired   = "expired"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	httpInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_in_flight_requests",
		Help:      "Current number of in-flight HTTP requests",
	})

	matchesActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "matches_active",
		Help:      "Matches currently held in the match store",
	})

	matchesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_created_total",
		Help:      "Matches created",
	})

	matchesDeleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "matches_deleted_total",
		Help:      "Matches removed from the store, by reason",
	}, []string{"reason"})

	gamesFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "games_finished_total",
		Help:      "Games that reached game over, by whether they were forced",
	}, []string{"forced"})

	rematches = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rematches_total",
		Help:      "Mutual rematches started",
	})

	answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "answers_total",
		Help:      "Answers accepted, by correctness",
	}, []string{"correct"})

	responseTime = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "answer_response_seconds",
		Help:      "Seconds taken to answer a question",
		Buckets:   []float64{1, 2, 3, 4, 6, 8, 10, 12, 15},
	})

	wsConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ws_connections",
		Help:      "Open websocket connections",
	})

	wsMessages = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_messages_total",
		Help:      "Inbound websocket messages, by type and outcome",
	}, []string{"type", "outcome"})

	wsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ws_slow_clients_total",
		Help:      "Connections closed because their send buffer was full",
	})

	resultsPersisted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "results_persisted_total",
		Help:      "Match results handed to the result store, by outcome",
	}, []string{"status"})
)

// MatchCreated records a new match
func MatchCreated() {
	matchesCreated.Inc()
	matchesActive.Inc()
}

// MatchDeleted records a match leaving the store
func MatchDeleted(reason string) {
	matchesDeleted.WithLabelValues(reason).Inc()
	matchesActive.Dec()
}

// GameFinished records a game reaching game over
func GameFinished(forced bool) {
	gamesFinished.WithLabelValues(strconv.FormatBool(forced)).Inc()
}

// RematchStarted records a mutual rematch
func RematchStarted() {
	rematches.Inc()
}

// AnswerAccepted records a scored answer
func AnswerAccepted(correct bool, seconds float64) {
	answers.WithLabelValues(strconv.FormatBool(correct)).Inc()
	responseTime.Observe(seconds)
}

// ConnectionOpened records a websocket connection
func ConnectionOpened() { wsConnections.Inc() }

// ConnectionClosed records a websocket disconnect
func ConnectionClosed() { wsConnections.Dec() }

// SlowClientDropped records a connection closed for falling behind
func SlowClientDropped() { wsDropped.Inc() }

// MessageHandled records one inbound message
func MessageHandled(messageType, outcome string) {
	wsMessages.WithLabelValues(messageType, outcome).Inc()
}

// ResultPersisted records a result store write
func ResultPersisted(err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	resultsPersisted.WithLabelValues(status).Inc()
}

// Middleware records request metrics labelled by route template
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := middleware.NewResponseWriter(w)
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   middleware.RoutePath(r),
			"status": strconv.Itoa(rec.Status()),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the default Prometheus metrics endpoint
func Handler() http.Handler {
	return promhttp.Handler()
}

package results

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/storage"
)

const (
	// DefaultWriteTimeout bounds a single result write
	DefaultWriteTimeout = 5 * time.Second
	// MaxListLimit caps ListRecent
	MaxListLimit = 100
)

// Service records finished matches without ever blocking the caller
type Service struct {
	store   storage.ResultStore
	logger  *slog.Logger
	timeout time.Duration

	mu      sync.Mutex
	wg      sync.WaitGroup
	closing bool
}

// New creates a new results Service
func New(store storage.ResultStore, logger *slog.Logger) *Service {
	return &Service{
		store:   store,
		logger:  logger.With(slog.String("component", "results")),
		timeout: DefaultWriteTimeout,
	}
}

// Record persists result in the background. Failures are logged only.
// Results arriving after Close has started are dropped.
func (s *Service) Record(result *model.MatchResult) {
	s.mu.Lock()
	if s.closing {
		s.mu.Unlock()
		s.logger.Warn("dropping match result during shutdown",
			slog.String("game_id", string(result.GameID)))
		return
	}
	s.wg.Add(1)
	s.mu.Unlock()

	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		err := s.store.SaveResult(ctx, result)
		metrics.ResultPersisted(err)
		if err != nil {
			s.logger.Error("failed to persist match result",
				slog.String("game_id", string(result.GameID)),
				slog.Any("error", err),
			)
			return
		}
		s.logger.Debug("match result persisted", slog.String("game_id", string(result.GameID)))
	}()
}

// ListRecent returns up to limit results, newest first
func (s *Service) ListRecent(ctx context.Context, limit int) ([]*model.MatchResult, error) {
	if limit <= 0 || limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.store.ListResults(ctx, limit)
}

// Wait blocks until all in-flight writes have finished. It must not run
// concurrently with Record; use Close for that.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Close stops accepting results and waits for in-flight writes, or for ctx
func (s *Service) Close(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interface check
type ServiceInterface interface {
	Record(result *model.MatchResult)
	ListRecent(ctx context.Context, limit int) ([]*model.MatchResult, error)
}

var _ ServiceInterface = (*Service)(nil)

package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	DefaultReaperSchedule   = "@every 1m"
	DefaultMatchIdleTimeout = time.Hour

	// runTimeout bounds a single purge pass
	runTimeout = 30 * time.Second
)

// StalePurger deletes matches idle for longer than maxIdle
type StalePurger interface {
	PurgeStale(ctx context.Context, maxIdle time.Duration) (int, error)
}

// ReaperConfig configures the stale match reaper
type ReaperConfig struct {
	Schedule string        // cron schedule, e.g. "@every 1m"
	MaxIdle  time.Duration // matches untouched for this long are removed
}

// Reaper periodically removes matches nobody is using any more
type Reaper struct {
	purger StalePurger
	config ReaperConfig
	cron   *cron.Cron
	logger *slog.Logger
}

// NewReaper creates a new Reaper. Zero config fields fall back to defaults.
func NewReaper(purger StalePurger, config ReaperConfig, logger *slog.Logger) *Reaper {
	if config.Schedule == "" {
		config.Schedule = DefaultReaperSchedule
	}
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultMatchIdleTimeout
	}
	return &Reaper{
		purger: purger,
		config: config,
		cron:   cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger: logger.With(slog.String("component", "reaper")),
	}
}

// Start schedules the purge job
func (r *Reaper) Start() error {
	if _, err := r.cron.AddFunc(r.config.Schedule, r.runScheduled); err != nil {
		return fmt.Errorf("failed to schedule reaper: %w", err)
	}
	r.cron.Start()
	r.logger.Info("reaper started",
		slog.String("schedule", r.config.Schedule),
		slog.Duration("max_idle", r.config.MaxIdle))
	return nil
}

// Stop halts scheduling and waits for a running pass to finish or ctx to expire
func (r *Reaper) Stop(ctx context.Context) {
	select {
	case <-r.cron.Stop().Done():
	case <-ctx.Done():
	}
	r.logger.Info("reaper stopped")
}

func (r *Reaper) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
	defer cancel()
	_, _ = r.RunOnce(ctx)
}

// RunOnce performs a single purge pass
func (r *Reaper) RunOnce(ctx context.Context) (int, error) {
	purged, err := r.purger.PurgeStale(ctx, r.config.MaxIdle)
	if err != nil {
		r.logger.Error("stale match purge failed", slog.Any("error", err))
		return purged, err
	}
	if purged > 0 {
		r.logger.Info("stale matches purged", slog.Int("count", purged))
	}
	return purged, nil
}

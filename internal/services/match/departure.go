package match

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
)

// LeaveMatch removes playerID from the match. If the host leaves, the
// match is destroyed and the remaining player is told the host left.
func (c *Controller) LeaveMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error {
	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return err
	}
	if !m.HasPlayer(playerID) {
		return model.ErrNotInMatch
	}
	return c.departLocked(ctx, m, playerID)
}

// Disconnect runs departure handling for a connection that went away
func (c *Controller) Disconnect(ctx context.Context, playerID model.PlayerID) error {
	gameID, ok := c.registry.MatchOf(playerID)
	if !ok {
		return nil
	}

	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		c.registry.Dissociate(playerID, gameID)
		if errors.Is(err, model.ErrMatchNotFound) {
			return nil
		}
		return err
	}
	if !m.HasPlayer(playerID) {
		c.registry.Dissociate(playerID, gameID)
		return nil
	}

	c.logger.Info("player disconnected",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
	)
	return c.departLocked(ctx, m, playerID)
}

// departLocked applies the host / non-host departure rules. Callers hold the match lock.
func (c *Controller) departLocked(ctx context.Context, m *model.Match, playerID model.PlayerID) error {
	p := m.GetPlayer(playerID)
	payload := model.DeparturePayload{PlayerID: playerID, Username: p.Username}

	c.notifier.Unsubscribe(m.ID, playerID)
	c.registry.Dissociate(playerID, m.ID)

	if p.IsHost {
		c.notifier.Broadcast(m.ID, c.event(model.EventHostLeft, m.ID, playerID, payload))
		c.logger.Info("host left, match terminated",
			slog.String("game_id", string(m.ID)),
			slog.String("player_id", string(playerID)),
		)
		return c.deleteLocked(ctx, m, metrics.ReasonHostLeft)
	}

	m.RemovePlayer(playerID)
	if len(m.Players) == 0 {
		return c.deleteLocked(ctx, m, metrics.ReasonAbandoned)
	}

	c.cancelCountdown(m)
	roundResolved := c.resolveRoundIfComplete(m)
	if err := c.save(ctx, m); err != nil {
		return err
	}

	c.logger.Info("player left match",
		slog.String("game_id", string(m.ID)),
		slog.String("player_id", string(playerID)),
		slog.Int("player_count", len(m.Players)),
	)

	payload.Match = m.Clone()
	c.notifier.Broadcast(m.ID, c.event(model.EventPlayerLeft, m.ID, playerID, payload))

	if roundResolved {
		c.scheduleRoundEnd(m)
	}
	return nil
}

// deleteLocked removes the match and every association to it. Callers hold the match lock.
func (c *Controller) deleteLocked(ctx context.Context, m *model.Match, reason string) error {
	c.cancelTimer(m.ID)
	if err := c.store.DeleteMatch(ctx, m.ID); err != nil {
		c.logger.Error("failed to delete match",
			slog.String("game_id", string(m.ID)),
			slog.Any("error", err),
		)
		return err
	}
	for _, p := range m.Players {
		c.registry.Dissociate(p.ID, m.ID)
	}
	c.notifier.Close(m.ID)
	metrics.MatchDeleted(reason)

	c.logger.Info("match deleted",
		slog.String("game_id", string(m.ID)),
		slog.String("reason", reason),
	)
	return nil
}

// PurgeStale deletes matches that have not changed for longer than maxIdle,
// telling any remaining participants the match expired
func (c *Controller) PurgeStale(ctx context.Context, maxIdle time.Duration) (int, error) {
	matches, err := c.store.ListMatches(ctx)
	if err != nil {
		return 0, err
	}

	cutoff := c.clock.Now().Add(-maxIdle)
	purged := 0
	for _, candidate := range matches {
		if !candidate.UpdatedAt.Before(cutoff) {
			continue
		}
		ok, err := c.purgeIfStale(ctx, candidate.ID, cutoff)
		if err != nil {
			return purged, err
		}
		if ok {
			purged++
		}
	}
	return purged, nil
}

func (c *Controller) purgeIfStale(ctx context.Context, gameID model.GameID, cutoff time.Time) (bool, error) {
	unlock := c.lock(gameID)
	defer unlock()

	// Re-check under the lock in case it was touched since listing
	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		if errors.Is(err, model.ErrMatchNotFound) {
			return false, nil
		}
		return false, err
	}
	if !m.UpdatedAt.Before(cutoff) {
		return false, nil
	}

	c.notifier.Broadcast(gameID, c.event(model.EventMatchExpired, gameID, "", model.SnapshotPayload{Match: m.Clone()}))
	if err := c.deleteLocked(ctx, m, metrics.ReasonExpired); err != nil {
		return false, err
	}
	return true, nil
}

package match

import (
	"context"
	"log/slog"

	"github.com/mcoot/triviaduel/internal/model"
)

// SetReady marks playerID ready. Once both players are ready a single
// countdown starts; further ready calls while counting change nothing.
func (c *Controller) SetReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error) {
	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	p := m.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInMatch
	}
	if m.IsEnded {
		return nil, model.ErrMatchEnded
	}
	if m.IsStarted {
		return nil, model.ErrMatchInProgress
	}

	p.IsReady = true
	startCountdown := m.AllReady() && m.StartCountdown == nil
	if startCountdown {
		start := model.CountdownStart
		m.StartCountdown = &start
	}
	if err := c.save(ctx, m); err != nil {
		return nil, err
	}

	c.broadcastSnapshot(model.EventPlayerReadyUpdate, m, playerID)

	if startCountdown {
		c.logger.Info("countdown started", slog.String("game_id", string(gameID)))
		c.broadcastSnapshot(model.EventMatchUpdated, m, "")
		epoch := m.Epoch
		c.schedule(gameID, CountdownTick, "countdown", func(ctx context.Context) {
			c.countdownTick(ctx, gameID, epoch)
		})
	}
	return m, nil
}

// countdownTick moves the countdown one step and starts the game at zero
func (c *Controller) countdownTick(ctx context.Context, gameID model.GameID, epoch uint64) {
	unlock := c.lock(gameID)
	defer unlock()

	m, ok := c.loadForTimer(ctx, gameID, epoch)
	if !ok || m.IsStarted || m.StartCountdown == nil {
		return
	}
	if !m.AllReady() {
		// Roster changed without an epoch bump; never start short-handed
		m.StartCountdown = nil
		m.Epoch++
		if err := c.save(ctx, m); err == nil {
			c.broadcastSnapshot(model.EventMatchUpdated, m, "")
		}
		return
	}

	next := *m.StartCountdown - 1
	if next > 0 {
		m.StartCountdown = &next
		if err := c.save(ctx, m); err != nil {
			return
		}
		c.broadcastSnapshot(model.EventMatchUpdated, m, "")
		c.schedule(gameID, CountdownTick, "countdown", func(ctx context.Context) {
			c.countdownTick(ctx, gameID, epoch)
		})
		return
	}

	zero := 0
	m.StartCountdown = &zero
	c.broadcastSnapshot(model.EventMatchUpdated, m, "")

	now := c.clock.Now()
	m.StartCountdown = nil
	m.IsStarted = true
	m.CurrentQuestionIndex = 0
	m.QuestionStartedAt = now
	m.StartedAt = now
	if err := c.save(ctx, m); err != nil {
		return
	}

	c.logger.Info("game started",
		slog.String("game_id", string(gameID)),
		slog.String("category", string(m.Category)),
	)

	c.broadcastSnapshot(model.EventGameStarted, m, "")
}

// cancelCountdown abandons a running countdown. Callers hold the match lock and save afterwards.
func (c *Controller) cancelCountdown(m *model.Match) bool {
	if m.StartCountdown == nil || m.IsStarted {
		return false
	}
	m.StartCountdown = nil
	m.Epoch++
	c.cancelTimer(m.ID)
	c.logger.Info("countdown cancelled", slog.String("game_id", string(m.ID)))
	return true
}

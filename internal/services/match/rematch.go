package match

import (
	"context"
	"log/slog"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
)

// RequestRematch records that playerID wants to play again. When both
// players have asked, the match is reset with a fresh question set in the
// same category and everyone is sent back to the lobby.
func (c *Controller) RequestRematch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error) {
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
	if !m.IsEnded {
		return nil, model.ErrMatchNotEnded
	}

	if !p.RematchReady {
		p.RematchReady = true
		if err := c.save(ctx, m); err != nil {
			return nil, err
		}
		c.notifier.Broadcast(gameID, c.event(model.EventRematchRequested, gameID, playerID,
			model.RematchRequestedPayload{PlayerID: playerID}))
	}

	if !m.AllRematchReady() {
		return m, nil
	}

	questions, err := c.questions.FetchQuestions(ctx, m.Category)
	if err != nil {
		c.logger.Warn("question fetch failed for rematch",
			slog.String("game_id", string(gameID)),
			slog.Any("error", err),
		)
		return nil, err
	}

	m.ResetForRematch(questions, c.clock.Now())
	c.cancelTimer(gameID)
	if err := c.save(ctx, m); err != nil {
		return nil, err
	}
	metrics.RematchStarted()

	c.logger.Info("rematch started",
		slog.String("game_id", string(gameID)),
		slog.String("category", string(m.Category)),
	)

	c.broadcastSnapshot(model.EventGoToLobby, m, playerID)
	return m, nil
}

package match

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
)

// CreateMatch creates a new match hosted by playerID with a fresh question set.
// A player already in another match leaves it first.
func (c *Controller) CreateMatch(ctx context.Context, playerID model.PlayerID, username string, category model.Category) (*model.Match, error) {
	username, err := normaliseUsername(username)
	if err != nil {
		return nil, err
	}
	if !category.Valid() {
		return nil, model.ErrInvalidCategory
	}

	questions, err := c.questions.FetchQuestions(ctx, category)
	if err != nil {
		c.logger.Warn("question fetch failed for new match",
			slog.String("category", string(category)),
			slog.Any("error", err),
		)
		return nil, err
	}

	if err := c.leaveCurrent(ctx, playerID); err != nil {
		return nil, err
	}

	now := c.clock.Now()
	host := model.NewPlayer(playerID, username, true, now)

	// Generation and insert happen under one lock so two creates cannot claim the same code
	c.createMu.Lock()
	gameID, err := c.generateCode(ctx)
	if err != nil {
		c.createMu.Unlock()
		return nil, err
	}
	m := model.NewMatch(gameID, category, questions, host, now)
	err = c.save(ctx, m)
	c.createMu.Unlock()
	if err != nil {
		return nil, err
	}

	c.registry.Associate(playerID, gameID)
	c.notifier.Subscribe(gameID, playerID)
	metrics.MatchCreated()

	c.logger.Info("match created",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.String("category", string(category)),
	)

	c.notifier.Send(playerID, c.event(model.EventMatchCreated, gameID, playerID, model.SnapshotPayload{Match: m.Clone()}))
	return m, nil
}

// generateCode finds an unused match code. Callers hold createMu.
func (c *Controller) generateCode(ctx context.Context) (model.GameID, error) {
	for range maxCodeAttempts {
		code := model.GameID(c.random.String(MatchCodeLength, MatchCodeAlphabet))
		if code == "" {
			continue
		}
		exists, err := c.store.MatchExists(ctx, code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", model.ErrCodeExhausted
}

// JoinMatch adds playerID as the second player of a waiting match.
// A player already in another match leaves it first.
func (c *Controller) JoinMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID, username string) (*model.Match, error) {
	username, err := normaliseUsername(username)
	if err != nil {
		return nil, err
	}
	gameID = model.GameID(strings.ToUpper(strings.TrimSpace(string(gameID))))

	// Reject obviously unjoinable targets before touching the player's current match
	target, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := checkJoinable(target, playerID); err != nil {
		return nil, err
	}

	if current, ok := c.registry.MatchOf(playerID); ok && current != gameID {
		if err := c.leaveCurrent(ctx, playerID); err != nil {
			return nil, err
		}
	}

	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if err := checkJoinable(m, playerID); err != nil {
		return nil, err
	}

	m.Players = append(m.Players, model.NewPlayer(playerID, username, false, c.clock.Now()))
	if err := c.save(ctx, m); err != nil {
		return nil, err
	}

	c.registry.Associate(playerID, gameID)
	c.notifier.Subscribe(gameID, playerID)

	c.logger.Info("player joined match",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Int("player_count", len(m.Players)),
	)

	c.broadcastSnapshot(model.EventMatchUpdated, m, playerID)
	return m, nil
}

func checkJoinable(m *model.Match, playerID model.PlayerID) error {
	switch {
	case m.HasPlayer(playerID):
		return model.ErrAlreadyInMatch
	case m.IsStarted || m.IsEnded:
		return model.ErrMatchInProgress
	case m.IsFull():
		return model.ErrMatchFull
	}
	return nil
}

// leaveCurrent removes playerID from whatever match it is in
func (c *Controller) leaveCurrent(ctx context.Context, playerID model.PlayerID) error {
	current, ok := c.registry.MatchOf(playerID)
	if !ok {
		return nil
	}
	err := c.LeaveMatch(ctx, current, playerID)
	if errors.Is(err, model.ErrMatchNotFound) || errors.Is(err, model.ErrNotInMatch) {
		c.registry.Dissociate(playerID, current)
		return nil
	}
	return err
}

// UpdateCategory lets the host swap the category and question set before the game starts
func (c *Controller) UpdateCategory(ctx context.Context, gameID model.GameID, playerID model.PlayerID, category model.Category) (*model.Match, error) {
	if !category.Valid() {
		return nil, model.ErrInvalidCategory
	}

	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// Verify requester is host
	p := m.GetPlayer(playerID)
	if p == nil {
		return nil, model.ErrNotInMatch
	}
	if !p.IsHost {
		return nil, model.ErrNotHost
	}
	if m.IsEnded {
		return nil, model.ErrMatchEnded
	}
	if m.IsStarted || m.StartCountdown != nil {
		return nil, model.ErrMatchInProgress
	}

	questions, err := c.questions.FetchQuestions(ctx, category)
	if err != nil {
		return nil, err
	}

	m.Category = category
	m.Questions = questions
	m.CurrentQuestionIndex = 0
	if err := c.save(ctx, m); err != nil {
		return nil, err
	}

	c.logger.Info("match category updated",
		slog.String("game_id", string(gameID)),
		slog.String("category", string(category)),
	)

	c.broadcastSnapshot(model.EventCategoryUpdated, m, playerID)
	return m, nil
}

// SendChatMessage appends a chat message and broadcasts it
func (c *Controller) SendChatMessage(ctx context.Context, gameID model.GameID, playerID model.PlayerID, text string) (*model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if n := utf8.RuneCountInString(text); n == 0 || n > MaxChatLength {
		return nil, model.ErrInvalidChat
	}

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

	msg := model.ChatMessage{
		PlayerID:  playerID,
		Username:  p.Username,
		Text:      text,
		Timestamp: c.clock.Now(),
	}
	m.ChatMessages = append(m.ChatMessages, msg)
	if err := c.save(ctx, m); err != nil {
		return nil, err
	}

	c.notifier.Broadcast(gameID, c.event(model.EventNewChatMessage, gameID, playerID, model.ChatPayload{Message: msg}))
	return &msg, nil
}

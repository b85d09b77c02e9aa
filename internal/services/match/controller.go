package match

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/mcoot/triviaduel/internal/dependencies/clock"
	"github.com/mcoot/triviaduel/internal/dependencies/random"
	"github.com/mcoot/triviaduel/internal/model"
	"github.com/mcoot/triviaduel/internal/notify"
	"github.com/mcoot/triviaduel/internal/services/scoring"
	"github.com/mcoot/triviaduel/internal/storage"
)

const (
	// MatchCodeLength is the length of generated match codes
	MatchCodeLength = 6
	// MatchCodeAlphabet excludes confusing characters (0/O, 1/I/L)
	MatchCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	// maxCodeAttempts bounds collision retries when generating a code
	maxCodeAttempts = 100

	// CountdownTick is the interval between countdown values
	CountdownTick = time.Second
	// NextQuestionDelay is the grace delay after a round resolves mid-match
	NextQuestionDelay = time.Second
	// GameOverDelay is the grace delay after the final round resolves
	GameOverDelay = 2 * time.Second

	MaxUsernameLength = 24
	MaxChatLength     = 280

	// timerTimeout bounds storage work done from a timer callback
	timerTimeout = 5 * time.Second
)

// QuestionSource supplies the question list for a new match, rematch or category change
type QuestionSource interface {
	FetchQuestions(ctx context.Context, category model.Category) ([]model.Question, error)
}

// ResultRecorder receives finished matches. It must not block.
type ResultRecorder interface {
	Record(result *model.MatchResult)
}

// Controller coordinates every match: roster, readiness, question
// progression, rematches and departures. All mutations of one match are
// serialised on that match's lock and broadcast before the lock is released.
type Controller struct {
	store     storage.MatchStore
	questions QuestionSource
	scoring   *scoring.Service
	results   ResultRecorder
	notifier  notify.Notifier
	registry  *Registry
	clock     clock.Clock
	random    random.Random
	logger    *slog.Logger

	locks    *keyedMutex
	createMu sync.Mutex

	timersMu sync.Mutex
	timers   map[model.GameID]clock.Timer
	stopped  bool
}

// NewController creates a new match Controller
func NewController(
	store storage.MatchStore,
	questions QuestionSource,
	scoringService *scoring.Service,
	results ResultRecorder,
	notifier notify.Notifier,
	clk clock.Clock,
	rnd random.Random,
	logger *slog.Logger,
) *Controller {
	return &Controller{
		store:     store,
		questions: questions,
		scoring:   scoringService,
		results:   results,
		notifier:  notifier,
		registry:  NewRegistry(),
		clock:     clk,
		random:    rnd,
		logger:    logger.With(slog.String("component", "match")),
		locks:     newKeyedMutex(),
		timers:    make(map[model.GameID]clock.Timer),
	}
}

// Registry exposes the player to match associations
func (c *Controller) Registry() *Registry {
	return c.registry
}

// GetMatch returns a snapshot of a match
func (c *Controller) GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error) {
	return c.store.GetMatch(ctx, gameID)
}

// lock serialises access to one match
func (c *Controller) lock(gameID model.GameID) func() {
	return c.locks.Lock(string(gameID))
}

// save stamps UpdatedAt and writes the match
func (c *Controller) save(ctx context.Context, m *model.Match) error {
	m.UpdatedAt = c.clock.Now()
	if err := c.store.SaveMatch(ctx, m); err != nil {
		c.logger.Error("failed to save match",
			slog.String("game_id", string(m.ID)),
			slog.Any("error", err),
		)
		return fmt.Errorf("saving match %s: %w", m.ID, err)
	}
	return nil
}

// event builds an outbound event. Match payloads are snapshotted so later
// mutations never leak into an already-sent event.
func (c *Controller) event(t model.EventType, gameID model.GameID, playerID model.PlayerID, payload any) model.Event {
	return model.Event{
		Type:      t,
		Timestamp: c.clock.Now(),
		GameID:    gameID,
		PlayerID:  playerID,
		Payload:   payload,
	}
}

// broadcastSnapshot sends the full match state to every participant
func (c *Controller) broadcastSnapshot(t model.EventType, m *model.Match, playerID model.PlayerID) {
	c.notifier.Broadcast(m.ID, c.event(t, m.ID, playerID, model.SnapshotPayload{Match: m.Clone()}))
}

// schedule runs fn for gameID after d. At most one timer is pending per
// match; scheduling replaces the previous one.
func (c *Controller) schedule(gameID model.GameID, d time.Duration, name string, fn func(ctx context.Context)) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()

	if prev, ok := c.timers[gameID]; ok {
		prev.Stop()
		delete(c.timers, gameID)
	}
	if c.stopped {
		return
	}
	var t clock.Timer
	t = c.clock.AfterFunc(d, func() {
		c.timersMu.Lock()
		if c.timers[gameID] == t {
			delete(c.timers, gameID)
		}
		c.timersMu.Unlock()

		c.runTimer(gameID, name, fn)
	})
	c.timers[gameID] = t
}

// cancelTimer stops the pending timer for gameID, if any
func (c *Controller) cancelTimer(gameID model.GameID) {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()
	if t, ok := c.timers[gameID]; ok {
		t.Stop()
		delete(c.timers, gameID)
	}
}

// Shutdown stops every pending match timer. Nothing is scheduled afterwards.
func (c *Controller) Shutdown() {
	c.timersMu.Lock()
	defer c.timersMu.Unlock()

	c.stopped = true
	for gameID, t := range c.timers {
		t.Stop()
		delete(c.timers, gameID)
	}
	c.logger.Info("match timers stopped")
}

// runTimer isolates a timer callback so a fault in one match cannot take
// down the process
func (c *Controller) runTimer(gameID model.GameID, name string, fn func(ctx context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in match timer",
				slog.String("game_id", string(gameID)),
				slog.String("timer", name),
				slog.Any("error", r),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timerTimeout)
	defer cancel()
	fn(ctx)
}

// loadForTimer re-fetches a match inside a timer and reports whether the
// timer is still current for it
func (c *Controller) loadForTimer(ctx context.Context, gameID model.GameID, epoch uint64) (*model.Match, bool) {
	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		// Deleted while the timer was pending
		return nil, false
	}
	if m.Epoch != epoch || m.IsEnded {
		return nil, false
	}
	return m, true
}

// normaliseUsername trims and validates a display name
func normaliseUsername(username string) (string, error) {
	username = strings.TrimSpace(username)
	n := utf8.RuneCountInString(username)
	if n == 0 || n > MaxUsernameLength {
		return "", model.ErrInvalidUsername
	}
	return username, nil
}

// ControllerInterface defines the operations available on matches
type ControllerInterface interface {
	CreateMatch(ctx context.Context, playerID model.PlayerID, username string, category model.Category) (*model.Match, error)
	JoinMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID, username string) (*model.Match, error)
	LeaveMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) error
	Disconnect(ctx context.Context, playerID model.PlayerID) error
	SetReady(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error)
	SubmitAnswer(ctx context.Context, gameID model.GameID, playerID model.PlayerID, submission AnswerSubmission) (*AnswerOutcome, error)
	RequestRematch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error)
	UpdateCategory(ctx context.Context, gameID model.GameID, playerID model.PlayerID, category model.Category) (*model.Match, error)
	SendChatMessage(ctx context.Context, gameID model.GameID, playerID model.PlayerID, text string) (*model.ChatMessage, error)
	EndMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error)
	GetMatch(ctx context.Context, gameID model.GameID) (*model.Match, error)
	PurgeStale(ctx context.Context, maxIdle time.Duration) (int, error)
}

var _ ControllerInterface = (*Controller)(nil)

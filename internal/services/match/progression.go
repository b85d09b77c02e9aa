package match

import (
	"context"
	"log/slog"

	"github.com/mcoot/triviaduel/internal/metrics"
	"github.com/mcoot/triviaduel/internal/model"
)

// AnswerSubmission is one player's answer to the current question.
// AwardedPoints and NewTotalScore are what the client computed; they are
// only compared against the server's figures.
type AnswerSubmission struct {
	Answer        string
	TimeRemaining float64
	AwardedPoints *int
	NewTotalScore *int
}

// AnswerOutcome is the server's scoring of a submission
type AnswerOutcome struct {
	QuestionIndex  int
	Correct        bool
	Points         int
	ResponseTime   float64
	Score          int
	CorrectAnswers int
	RoundComplete  bool
}

// SubmitAnswer scores playerID's answer to the current question. Each player
// may answer each question once. When every player has answered, the match
// advances after a grace delay.
func (c *Controller) SubmitAnswer(ctx context.Context, gameID model.GameID, playerID model.PlayerID, submission AnswerSubmission) (*AnswerOutcome, error) {
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
	if !m.IsStarted {
		return nil, model.ErrMatchNotStarted
	}
	q := m.CurrentQuestion()
	if q == nil {
		return nil, model.ErrMatchEnded
	}

	// Reject a second answer for the same question, including during the grace delay
	if p.AnsweredIndex == m.CurrentQuestionIndex || m.AnsweredPlayerIDs[playerID] {
		return nil, model.ErrAlreadyAnswered
	}

	correct := q.IsCorrect(submission.Answer)
	responseTime := c.scoring.ResponseTime(submission.TimeRemaining)
	points := c.scoring.Points(correct, responseTime)

	p.ResponseTimes = append(p.ResponseTimes, responseTime)
	p.Score += points
	if correct {
		p.CorrectAnswers++
	}
	p.AnsweredIndex = m.CurrentQuestionIndex
	m.AnsweredPlayerIDs[playerID] = true
	if m.IsLastQuestion() {
		m.FinishedPlayers = append(m.FinishedPlayers, playerID)
	}

	if submission.NewTotalScore != nil && *submission.NewTotalScore != p.Score {
		c.logger.Debug("client score disagrees with server",
			slog.String("game_id", string(gameID)),
			slog.String("player_id", string(playerID)),
			slog.Int("client_score", *submission.NewTotalScore),
			slog.Int("server_score", p.Score),
		)
	}

	outcome := &AnswerOutcome{
		QuestionIndex:  m.CurrentQuestionIndex,
		Correct:        correct,
		Points:         points,
		ResponseTime:   responseTime,
		Score:          p.Score,
		CorrectAnswers: p.CorrectAnswers,
	}

	roundComplete := m.AllAnswered()
	if roundComplete {
		m.AnsweredPlayerIDs = make(map[model.PlayerID]bool)
		outcome.RoundComplete = true
	}

	if err := c.save(ctx, m); err != nil {
		return nil, err
	}
	metrics.AnswerAccepted(correct, responseTime)

	c.logger.Debug("answer submitted",
		slog.String("game_id", string(gameID)),
		slog.String("player_id", string(playerID)),
		slog.Int("question_index", outcome.QuestionIndex),
		slog.Bool("correct", correct),
		slog.Int("points", points),
	)

	payload := model.AnswerPayload{
		PlayerID:       playerID,
		Score:          p.Score,
		ResponseTime:   responseTime,
		CorrectAnswers: p.CorrectAnswers,
		Correct:        correct,
		Points:         points,
		QuestionIndex:  outcome.QuestionIndex,
	}
	c.notifier.Broadcast(gameID, c.event(model.EventScoreUpdate, gameID, playerID, payload))
	c.notifier.Broadcast(gameID, c.event(model.EventPlayerAnswered, gameID, playerID, payload))

	if roundComplete {
		c.scheduleRoundEnd(m)
	}
	return outcome, nil
}

// resolveRoundIfComplete schedules progression when a departure leaves
// only players who have already answered. Callers hold the match lock and save afterwards.
func (c *Controller) resolveRoundIfComplete(m *model.Match) bool {
	if !m.IsStarted || m.IsEnded || len(m.AnsweredPlayerIDs) == 0 || !m.AllAnswered() {
		return false
	}
	m.AnsweredPlayerIDs = make(map[model.PlayerID]bool)
	return true
}

// scheduleRoundEnd arms the grace delay for a resolved round
func (c *Controller) scheduleRoundEnd(m *model.Match) {
	gameID, epoch, index := m.ID, m.Epoch, m.CurrentQuestionIndex
	if m.IsLastQuestion() {
		c.schedule(gameID, GameOverDelay, "game_over", func(ctx context.Context) {
			c.finishGame(ctx, gameID, epoch, index)
		})
		return
	}
	c.schedule(gameID, NextQuestionDelay, "next_question", func(ctx context.Context) {
		c.advanceQuestion(ctx, gameID, epoch, index)
	})
}

// advanceQuestion moves to the next question after the grace delay
func (c *Controller) advanceQuestion(ctx context.Context, gameID model.GameID, epoch uint64, index int) {
	unlock := c.lock(gameID)
	defer unlock()

	m, ok := c.loadForTimer(ctx, gameID, epoch)
	if !ok || !m.IsStarted || m.CurrentQuestionIndex != index {
		return
	}

	m.CurrentQuestionIndex++
	m.QuestionStartedAt = c.clock.Now()
	m.AnsweredPlayerIDs = make(map[model.PlayerID]bool)
	if err := c.save(ctx, m); err != nil {
		return
	}

	c.logger.Info("question advanced",
		slog.String("game_id", string(gameID)),
		slog.Int("question_index", m.CurrentQuestionIndex),
	)

	c.broadcastSnapshot(model.EventNextQuestion, m, "")
}

// finishGame ends the game after the final grace delay
func (c *Controller) finishGame(ctx context.Context, gameID model.GameID, epoch uint64, index int) {
	unlock := c.lock(gameID)
	defer unlock()

	m, ok := c.loadForTimer(ctx, gameID, epoch)
	if !ok || !m.IsStarted || m.CurrentQuestionIndex != index {
		return
	}
	_ = c.endLocked(ctx, m, false)
}

// EndMatch forces game over at any point. Either player may call it.
func (c *Controller) EndMatch(ctx context.Context, gameID model.GameID, playerID model.PlayerID) (*model.Match, error) {
	unlock := c.lock(gameID)
	defer unlock()

	m, err := c.store.GetMatch(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !m.HasPlayer(playerID) {
		return nil, model.ErrNotInMatch
	}
	if m.IsEnded {
		return nil, model.ErrMatchEnded
	}

	if err := c.endLocked(ctx, m, true); err != nil {
		return nil, err
	}
	return m, nil
}

// endLocked marks the match ended, broadcasts game over and hands the
// result to the recorder. Callers hold the match lock.
func (c *Controller) endLocked(ctx context.Context, m *model.Match, forced bool) error {
	now := c.clock.Now()
	played := m.IsStarted

	m.IsEnded = true
	m.StartCountdown = nil
	m.EndedAt = now
	if played && !m.StartedAt.IsZero() {
		m.CompletionTime = now.Sub(m.StartedAt)
	}
	m.AnsweredPlayerIDs = make(map[model.PlayerID]bool)
	m.Epoch++
	c.cancelTimer(m.ID)

	if err := c.save(ctx, m); err != nil {
		return err
	}
	metrics.GameFinished(forced)

	c.logger.Info("game over",
		slog.String("game_id", string(m.ID)),
		slog.Bool("forced", forced),
		slog.Duration("duration", m.CompletionTime),
	)

	c.notifier.Broadcast(m.ID, c.event(model.EventGameOver, m.ID, "", model.GameOverPayload{
		Match:    m.Clone(),
		Duration: m.CompletionTime,
	}))

	if played && c.results != nil {
		c.results.Record(c.buildResult(m))
	}
	return nil
}

// buildResult summarises an ended match for persistence
func (c *Controller) buildResult(m *model.Match) *model.MatchResult {
	result := &model.MatchResult{
		GameID:      m.ID,
		Category:    m.Category,
		Duration:    m.CompletionTime,
		Winner:      c.scoring.Winner(m.Players),
		CompletedAt: m.EndedAt,
		Players:     make([]model.PlayerResult, len(m.Players)),
	}
	for i := range m.Players {
		p := &m.Players[i]
		result.Players[i] = model.PlayerResult{
			PlayerID:            p.ID,
			Username:            p.Username,
			Score:               p.Score,
			CorrectAnswers:      p.CorrectAnswers,
			AverageResponseTime: p.AverageResponseTime(),
		}
	}
	return result
}

package scoring

import (
	"github.com/mcoot/triviaduel/internal/model"
)

const (
	// BasePoints is awarded for any correct answer
	BasePoints = 10
)

// speedTier awards Bonus for answers at or under MaxSeconds
type speedTier struct {
	MaxSeconds float64
	Bonus      int
}

// Tiers are checked in order
var speedTiers = []speedTier{
	{MaxSeconds: 3, Bonus: 5},
	{MaxSeconds: 6, Bonus: 3},
	{MaxSeconds: 10, Bonus: 1},
}

// Service computes points for answers and match winners
type Service struct{}

// New creates a new ScoringService
func New() *Service {
	return &Service{}
}

// ResponseTime converts the client's reported time remaining into seconds
// taken, clamped to the question time limit
func (s *Service) ResponseTime(timeRemaining float64) float64 {
	limit := model.QuestionTimeLimit.Seconds()
	elapsed := limit - timeRemaining
	switch {
	case elapsed < 0:
		return 0
	case elapsed > limit:
		return limit
	default:
		return elapsed
	}
}

// Points returns the score for one answer
func (s *Service) Points(correct bool, responseTime float64) int {
	if !correct {
		return 0
	}
	return BasePoints + s.SpeedBonus(responseTime)
}

// SpeedBonus returns the bonus for answering within responseTime seconds
func (s *Service) SpeedBonus(responseTime float64) int {
	for _, tier := range speedTiers {
		if responseTime <= tier.MaxSeconds {
			return tier.Bonus
		}
	}
	return 0
}

// Winner returns the player with the highest score, or empty on a tie
func (s *Service) Winner(players []model.Player) model.PlayerID {
	var winner model.PlayerID
	best := -1
	tied := false
	for _, p := range players {
		switch {
		case p.Score > best:
			best = p.Score
			winner = p.ID
			tied = false
		case p.Score == best:
			tied = true
		}
	}
	if tied {
		return ""
	}
	return winner
}

// Interface check
type ServiceInterface interface {
	ResponseTime(timeRemaining float64) float64
	Points(correct bool, responseTime float64) int
	SpeedBonus(responseTime float64) int
	Winner(players []model.Player) model.PlayerID
}

var _ ServiceInterface = (*Service)(nil)

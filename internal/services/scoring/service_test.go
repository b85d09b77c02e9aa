package scoring

import (
	"testing"

	"github.com/mcoot/triviaduel/internal/model"
	"github.com/stretchr/testify/suite"
)

type ServiceSuite struct {
	suite.Suite
	service *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.service = New()
}

// ResponseTime tests

func (s *ServiceSuite) TestResponseTimeFromRemaining() {
	s.InDelta(5.0, s.service.ResponseTime(10), 0.0001)
	s.InDelta(0.0, s.service.ResponseTime(15), 0.0001)
	s.InDelta(15.0, s.service.ResponseTime(0), 0.0001)
}

func (s *ServiceSuite) TestResponseTimeIsClamped() {
	s.InDelta(0.0, s.service.ResponseTime(40), 0.0001)
	s.InDelta(15.0, s.service.ResponseTime(-3), 0.0001)
}

// Points tests

func (s *ServiceSuite) TestWrongAnswerScoresNothing() {
	s.Equal(0, s.service.Points(false, 1))
	s.Equal(0, s.service.Points(false, 14))
}

func (s *ServiceSuite) TestSpeedTiers() {
	cases := []struct {
		responseTime float64
		want         int
	}{
		{0, 15},
		{3, 15},
		{3.01, 13},
		{5, 13},
		{6, 13},
		{8, 11},
		{10, 11},
		{10.5, 10},
		{15, 10},
	}
	for _, tc := range cases {
		s.Equal(tc.want, s.service.Points(true, tc.responseTime), "response time %v", tc.responseTime)
	}
}

// Winner tests

func (s *ServiceSuite) TestWinnerHighestScore() {
	players := []model.Player{
		{ID: "p1", Score: 40},
		{ID: "p2", Score: 55},
	}
	s.Equal(model.PlayerID("p2"), s.service.Winner(players))
}

func (s *ServiceSuite) TestWinnerTie() {
	players := []model.Player{
		{ID: "p1", Score: 40},
		{ID: "p2", Score: 40},
	}
	s.Empty(s.service.Winner(players))
}

func (s *ServiceSuite) TestWinnerSinglePlayer() {
	s.Equal(model.PlayerID("p1"), s.service.Winner([]model.Player{{ID: "p1"}}))
}

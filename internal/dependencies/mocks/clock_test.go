package mocks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type MockClockSuite struct {
	suite.Suite
	clock *MockClock
	start time.Time
}

func TestMockClockSuite(t *testing.T) {
	suite.Run(t, new(MockClockSuite))
}

func (s *MockClockSuite) SetupTest() {
	s.start = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s.clock = NewMockClock(s.start)
}

func (s *MockClockSuite) TestAdvanceFiresDueTimersInOrder() {
	var fired []string
	s.clock.AfterFunc(2*time.Second, func() { fired = append(fired, "b") })
	s.clock.AfterFunc(1*time.Second, func() { fired = append(fired, "a") })
	s.clock.AfterFunc(5*time.Second, func() { fired = append(fired, "c") })

	s.clock.Advance(2 * time.Second)

	s.Equal([]string{"a", "b"}, fired)
	s.Equal(1, s.clock.PendingTimers())
	s.Equal(s.start.Add(2*time.Second), s.clock.Now())
}

func (s *MockClockSuite) TestCallbackSeesDeadlineAsNow() {
	var seen time.Time
	s.clock.AfterFunc(time.Second, func() { seen = s.clock.Now() })

	s.clock.Advance(10 * time.Second)

	s.Equal(s.start.Add(time.Second), seen)
}

func (s *MockClockSuite) TestChainedTimersFireWithinWindow() {
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			s.clock.AfterFunc(time.Second, tick)
		}
	}
	s.clock.AfterFunc(time.Second, tick)

	s.clock.Advance(3 * time.Second)

	s.Equal(3, count)
}

func (s *MockClockSuite) TestStopPreventsFiring() {
	fired := false
	t := s.clock.AfterFunc(time.Second, func() { fired = true })

	s.True(t.Stop())
	s.False(t.Stop())
	s.clock.Advance(time.Minute)

	s.False(fired)
	s.Equal(0, s.clock.PendingTimers())
}

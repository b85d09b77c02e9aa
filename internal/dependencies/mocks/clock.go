package mocks

import (
	"sort"
	"sync"
	"time"

	"github.com/mcoot/triviaduel/internal/dependencies/clock"
)

// MockClock is a mock implementation of Clock for testing.
// Timers only fire when the clock is advanced past their deadline.
type MockClock struct {
	mu      sync.Mutex
	current time.Time
	timers  []*mockTimer
	nextSeq int
}

type mockTimer struct {
	clock    *MockClock
	deadline time.Time
	seq      int
	f        func()
	stopped  bool
	fired    bool
}

// Ensure MockClock implements Clock
var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a MockClock set to the given time
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{current: t}
}

// Now returns the mocked current time
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// AfterFunc registers f to run when the clock reaches now+d
func (c *MockClock) AfterFunc(d time.Duration, f func()) clock.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &mockTimer{clock: c, deadline: c.current.Add(d), seq: c.nextSeq, f: f}
	c.nextSeq++
	c.timers = append(c.timers, t)
	return t
}

// Advance moves the clock forward by d, synchronously running every timer
// that comes due in deadline order. Timers scheduled by a callback fire in
// the same call if their deadline is within the window.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.current.Add(d)
	c.mu.Unlock()

	for {
		t := c.nextDue(target)
		if t == nil {
			break
		}
		t.f()
	}

	c.mu.Lock()
	c.current = target
	c.mu.Unlock()
}

// Set sets the clock to the given time without firing timers
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t
}

// PendingTimers returns the number of timers that have neither fired nor been stopped
func (c *MockClock) PendingTimers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

// nextDue pops the earliest live timer with deadline <= target and moves the clock to it
func (c *MockClock) nextDue(target time.Time) *mockTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	live := c.timers[:0]
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			live = append(live, t)
		}
	}
	c.timers = live
	sort.SliceStable(c.timers, func(i, j int) bool {
		if c.timers[i].deadline.Equal(c.timers[j].deadline) {
			return c.timers[i].seq < c.timers[j].seq
		}
		return c.timers[i].deadline.Before(c.timers[j].deadline)
	})

	if len(c.timers) == 0 || c.timers[0].deadline.After(target) {
		return nil
	}
	t := c.timers[0]
	t.fired = true
	if t.deadline.After(c.current) {
		c.current = t.deadline
	}
	return t
}

func (t *mockTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

package mocks

import (
	"sync"
	"time"

	"github.com/LBIT2016/trading-gamers/internal/dependencies/clock"
)

// MockClock is a settable clock for tests. When Step is non-zero every
// call to Now advances the clock by Step afterwards, which gives each
// created record a distinct timestamp.
type MockClock struct {
	mu          sync.Mutex
	CurrentTime time.Time
	Step        time.Duration
}

var _ clock.Clock = (*MockClock)(nil)

// NewMockClock creates a frozen MockClock at t
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{CurrentTime: t}
}

// NewSteppingClock creates a MockClock starting at t that ticks by step per read
func NewSteppingClock(t time.Time, step time.Duration) *MockClock {
	return &MockClock{CurrentTime: t, Step: step}
}

func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.CurrentTime
	c.CurrentTime = c.CurrentTime.Add(c.Step)
	return now
}

// Advance moves the clock forward by d
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = c.CurrentTime.Add(d)
}

// Set moves the clock to t
func (c *MockClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.CurrentTime = t
}

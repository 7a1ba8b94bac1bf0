package testutil

import (
	"sync"
	"time"
)

// Clock is a controllable time source for tests. Each call to Now advances
// the clock by a fixed step, so successive fetched stamps are distinct but
// fully deterministic.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Clock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewClock creates a clock starting at start. The first call to Now returns
// start; every later call advances by step.
func NewClock(start time.Time, step time.Duration) *Clock {
	return &Clock{now: start, step: step}
}

// Now returns the current time and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// Set rewinds or fast-forwards the clock. Used for test reuse.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

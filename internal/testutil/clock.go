// Package testutil provides deterministic helpers for tests.
package testutil

import (
	"sync"
	"time"
)

// FixedClock is a thread-safe clock that starts at a fixed instant and
// advances by a fixed step on every call. It makes run-log rows (and
// therefore their sort order) reproducible across test runs.
type FixedClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewFixedClock creates a clock starting at start, advancing by step per
// Now() call.
func NewFixedClock(start time.Time, step time.Duration) *FixedClock {
	return &FixedClock{now: start, step: step}
}

// Now returns the current instant and advances the clock.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}

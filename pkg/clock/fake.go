package clock

import (
	"sync"
	"time"
)

// Fake is a controllable clock for deterministic tests. Time only moves
// when Advance or Set is called, so window expiry and cool-down tests run
// instantly instead of sleeping.
//
// Fake is safe for concurrent use.
type Fake struct {
	mu      sync.RWMutex
	current time.Time
	waiters []waiter
}

type waiter struct {
	deadline time.Time
	ch       chan time.Time
}

// NewFake creates a Fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{current: start}
}

// Now returns the current fake time.
func (c *Fake) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current
}

// Since returns the fake duration elapsed since t.
func (c *Fake) Since(t time.Time) time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current.Sub(t)
}

// After returns a channel that fires once the clock has been advanced past
// the current time plus d. Zero and negative durations fire immediately.
func (c *Fake) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.current
		return ch
	}

	c.waiters = append(c.waiters, waiter{
		deadline: c.current.Add(d),
		ch:       ch,
	})
	return ch
}

// Advance moves the fake clock forward by d and fires any waiters whose
// deadlines have been reached. Panics if d is negative.
func (c *Fake) Advance(d time.Duration) {
	if d < 0 {
		panic("clock: cannot advance by negative duration")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = c.current.Add(d)
	c.fireWaitersLocked()
}

// Set moves the fake clock to an exact time. Panics if t is before the
// current time.
func (c *Fake) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.Before(c.current) {
		panic("clock: cannot move backwards")
	}

	c.current = t
	c.fireWaitersLocked()
}

// fireWaitersLocked delivers to waiters whose deadline has passed.
// Caller must hold the write lock.
func (c *Fake) fireWaitersLocked() {
	remaining := c.waiters[:0]
	for _, w := range c.waiters {
		if !w.deadline.After(c.current) {
			w.ch <- c.current
		} else {
			remaining = append(remaining, w)
		}
	}
	c.waiters = remaining
}

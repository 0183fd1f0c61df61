package counter

import (
	"context"
	"fmt"
	"time"

	"atelier-hq/vigil/pkg/clock"
	"atelier-hq/vigil/pkg/limits/store"
)

// Counter provides fixed-window counting keyed by (scope, identifier,
// window size). It owns key construction and remaining-window arithmetic;
// atomicity of the underlying read-modify-write belongs to the store.
type Counter struct {
	store store.Store
	clock clock.Clock
}

// New creates a Counter on top of the given store. A nil clock defaults
// to the system clock.
func New(s store.Store, c clock.Clock) *Counter {
	if c == nil {
		c = clock.NewReal()
	}
	return &Counter{store: s, clock: c}
}

// Increment atomically bumps the counter for (scope, identifier, window)
// and returns the post-increment count together with how long the current
// window has left. The window is lazily reset by the store when expired,
// so the returned count is always for a live window.
func (c *Counter) Increment(ctx context.Context, scope, identifier string, window time.Duration) (int64, time.Duration, error) {
	count, windowStart, err := c.store.Incr(ctx, key(scope, identifier, window), window)
	if err != nil {
		return 0, 0, fmt.Errorf("increment %s/%s: %w", scope, identifier, err)
	}
	return count, c.remaining(windowStart, window), nil
}

// Peek returns the current count for (scope, identifier, window) without
// mutating it.
func (c *Counter) Peek(ctx context.Context, scope, identifier string, window time.Duration) (int64, error) {
	count, _, err := c.store.Peek(ctx, key(scope, identifier, window), window)
	if err != nil {
		return 0, fmt.Errorf("peek %s/%s: %w", scope, identifier, err)
	}
	return count, nil
}

func (c *Counter) remaining(windowStart time.Time, window time.Duration) time.Duration {
	remaining := window - c.clock.Since(windowStart)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// key builds the composite store key. The window size is part of the key
// so the same scope and identifier track independent counters per tier.
func key(scope, identifier string, window time.Duration) string {
	return fmt.Sprintf("%s:%s:%s", scope, identifier, window)
}

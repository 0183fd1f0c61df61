package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// The limiter translates it into a fail-open or fail-closed decision
// according to the scope's configured policy.
var ErrUnavailable = errors.New("counter store unavailable")

// Store persists fixed-window counters keyed by an opaque string
// (scope, identifier, and window size are encoded into the key by the
// caller). Implementations must make Incr atomic with respect to
// concurrent callers on the same key: two concurrent increments must
// never observe the same pre-increment value.
type Store interface {
	// Incr increments the counter for key within its fixed window,
	// lazily resetting an expired window first, and returns the
	// post-increment count together with the window start time.
	Incr(ctx context.Context, key string, window time.Duration) (count int64, windowStart time.Time, err error)

	// Peek returns the current count and window start without mutating.
	// A key with no live window reports a zero count.
	Peek(ctx context.Context, key string, window time.Duration) (count int64, windowStart time.Time, err error)

	// Close releases any resources held by the store.
	Close() error
}

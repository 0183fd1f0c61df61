// Package clock abstracts time so limiters, throttles, and schedulers can
// run against both real and simulated time. All time-dependent code in
// Vigil reads time through this interface instead of calling time.Now()
// directly, which makes window-expiry and cool-down behavior testable
// without sleeping.
package clock

import "time"

// Clock provides the current time and timer primitives.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration elapsed since t.
	Since(t time.Time) time.Duration

	// After returns a channel that receives the current time after
	// duration d has elapsed.
	After(d time.Duration) <-chan time.Time
}

// Real delegates to the standard time package.
type Real struct{}

// NewReal returns a Clock backed by the system clock.
func NewReal() *Real {
	return &Real{}
}

func (c *Real) Now() time.Time {
	return time.Now()
}

func (c *Real) Since(t time.Time) time.Duration {
	return time.Since(t)
}

func (c *Real) After(d time.Duration) <-chan time.Time {
	return time.After(d)
}

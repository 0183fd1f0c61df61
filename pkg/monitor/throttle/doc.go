// Package throttle suppresses repeated alerts for the same problem.
// Each alert type carries a cool-down (critical system errors re-notify
// quickly, performance alerts slowly); within the cool-down only the
// first event per dedupe key reaches dispatch.
package throttle

package limits

import "time"

// FailurePolicy controls the decision taken when the counter store is
// unreachable.
type FailurePolicy string

const (
	// FailOpen allows the request when the store is unavailable.
	// Recommended for general API scopes where availability wins.
	FailOpen FailurePolicy = "fail-open"

	// FailClosed denies the request when the store is unavailable.
	// Recommended for auth-sensitive scopes such as login endpoints.
	FailClosed FailurePolicy = "fail-closed"
)

// Tier is one (window size, max count) pair within a scope's rate limit.
type Tier struct {
	// Window is the fixed-window duration (e.g., 1m, 1h, 24h).
	Window time.Duration

	// Max is the number of requests allowed per window.
	Max int64
}

// Rule is the immutable per-scope rate-limit configuration, loaded once
// at startup.
type Rule struct {
	// Scope names the rate-limit domain (e.g., "admin-auth").
	Scope string

	// Tiers are the limits applied together; a request must stay under
	// every tier to be allowed.
	Tiers []Tier

	// Policy decides fail-open vs fail-closed on store errors.
	// Defaults to FailOpen.
	Policy FailurePolicy
}

// Decision is the result of a rate-limit check.
type Decision struct {
	// Allowed indicates whether the request may proceed.
	Allowed bool

	// Scope is the rule the decision was made under.
	Scope string

	// Reason explains a denial (empty when allowed).
	Reason string

	// Limit is the max count of the tightest violated tier.
	Limit int64

	// RetryAfter is the remaining time of the tightest violated tier,
	// i.e. how long until a retry can succeed. Zero when allowed.
	RetryAfter time.Duration
}

// Package limits implements multi-tier request rate limiting.
//
// # Overview
//
// A scope (e.g., "admin-auth", "file-upload") carries an ordered set of
// tiers, each a fixed window with a maximum count:
//
//	rule := limits.Rule{
//	    Tiers: []limits.Tier{
//	        {Window: time.Minute, Max: 5},
//	        {Window: time.Hour, Max: 20},
//	        {Window: 24 * time.Hour, Max: 50},
//	    },
//	}
//
// Check increments every tier for the (scope, identifier) pair; if any
// tier's count exceeds its maximum the request is denied and RetryAfter
// carries the remaining time of the tightest violated tier.
//
// # Identifiers
//
// The identifier should combine a subject discriminator (authenticated
// user id when present, otherwise the client network address) so
// authenticated and anonymous traffic are limited independently.
//
// # Failure policy
//
// Counter store outages resolve per scope: fail-closed scopes deny
// (appropriate for login and other auth-sensitive paths), fail-open
// scopes allow. Store errors never propagate to request handlers.
package limits

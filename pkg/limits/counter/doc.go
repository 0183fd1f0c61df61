// Package counter implements fixed-window counters for rate limiting.
//
// A counter is identified by (scope, identifier, window size). Within a
// window the count only grows; once the window elapses the counter resets
// lazily on the next increment. Increments are atomic with respect to
// concurrent callers on the same key, so parallel request handlers never
// lose updates.
package counter

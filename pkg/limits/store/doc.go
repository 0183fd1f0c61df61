// Package store provides pluggable backends for fixed-window counters.
//
// Two backends are available:
//
//   - Memory: in-process map, the default. Counters are lost on restart
//     and are per-process, which is fine for single-instance deployments.
//
//   - Redis: shared counters for multi-instance deployments, using
//     server-side INCR for atomicity and key expiry for eviction.
//
// Both backends implement the Store interface consumed by the counter
// package; no other component touches counter state directly.
package store

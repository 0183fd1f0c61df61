// Package server exposes Vigil's operational HTTP surface: liveness and
// readiness probes, Prometheus metrics, the latest monitoring samples,
// and recent alert history. The rate-limit middleware in this package is
// how HTTP traffic reaches the limiter.
package server

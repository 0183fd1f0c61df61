// Package sampler takes point-in-time system measurements for the
// monitoring pipeline.
//
// A probe measures one component: built-in probes cover process memory,
// goroutine count, and disk usage, while latency and queue-depth probes
// wrap capabilities supplied by external collaborators (database client,
// cache client, queue client).
//
// All probes run concurrently under independent timeouts. A slow or
// failing probe yields a sample flagged unavailable instead of blocking
// or failing the tick, so healthy components keep being monitored
// through a partial outage.
package sampler

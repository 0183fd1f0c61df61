// Package monitor wires the monitoring stages into a periodic pipeline:
// sample the registered probes, evaluate thresholds, throttle duplicate
// alerts, dispatch what survives, and record the outcome in history.
//
// Subpackages implement the individual stages; this package owns the
// tick loop and its scheduling.
package monitor

package sampler

import "time"

// Unavailable is the sentinel value reported when a probe times out or
// fails. Consumers must check OK before comparing Value against
// thresholds.
const Unavailable = -1

// Sample is one point-in-time measurement of a component. Samples are
// produced by the Sampler and consumed by threshold evaluation; they are
// not persisted by the monitoring core.
type Sample struct {
	// Component names what was measured (e.g., "memory", "db-latency").
	Component string `json:"component"`

	// Value is the measurement in Unit, or Unavailable when OK is false.
	Value float64 `json:"value"`

	// Unit is the measurement unit (e.g., "mb", "ms", "percent").
	Unit string `json:"unit"`

	// CapturedAt is when the measurement was taken.
	CapturedAt time.Time `json:"captured_at"`

	// OK is false when the probe failed or timed out.
	OK bool `json:"ok"`

	// Error carries the probe failure reason when OK is false.
	Error string `json:"error,omitempty"`
}

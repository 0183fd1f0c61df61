package notify

import "time"

// DeliveryStatus is the terminal state of one channel attempt.
type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusFailed    DeliveryStatus = "failed"
)

// ChannelResult records the outcome of dispatching one alert to one
// channel.
type ChannelResult struct {
	// Channel is the channel name ("slack", "email", ...).
	Channel string `json:"channel"`

	// Status is delivered or failed.
	Status DeliveryStatus `json:"status"`

	// Attempts is how many sends were tried (1 or 2).
	Attempts int `json:"attempts"`

	// Duration is the total time spent on this channel.
	Duration time.Duration `json:"duration"`

	// Error is the final failure reason when Status is failed.
	Error string `json:"error,omitempty"`
}

// Outcome is the aggregate terminal state of a dispatch across all
// selected channels.
type Outcome string

const (
	OutcomeDelivered          Outcome = "delivered"
	OutcomePartiallyDelivered Outcome = "partially-delivered"
	OutcomeFailed             Outcome = "failed"
)

// Summarize reduces per-channel results to the aggregate outcome.
// No selected channels counts as delivered: there was nothing to fail.
func Summarize(results []ChannelResult) Outcome {
	delivered, failed := 0, 0
	for _, r := range results {
		if r.Status == StatusDelivered {
			delivered++
		} else {
			failed++
		}
	}

	switch {
	case failed == 0:
		return OutcomeDelivered
	case delivered == 0:
		return OutcomeFailed
	default:
		return OutcomePartiallyDelivered
	}
}

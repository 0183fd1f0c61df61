// Package alert defines the alert event type shared by the monitoring
// pipeline stages (evaluation, throttling, dispatch, history).
package alert

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Severity classifies how urgent an alert is.
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Rank orders severities so escalation can compare them; higher is more
// severe.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// Event is a single alert produced by threshold evaluation. An event is
// immutable once created; its lifecycle ends when it is dispatched or
// suppressed.
type Event struct {
	// ID uniquely identifies this occurrence.
	ID string `json:"id"`

	// Type classifies the alert for cool-down selection
	// (e.g., "performance", "system-error").
	Type string `json:"type"`

	// Component is the measured component that tripped the threshold.
	Component string `json:"component"`

	// Severity is warning or critical.
	Severity Severity `json:"severity"`

	// Message describes the violation, including the measured value and
	// the configured limit.
	Message string `json:"message"`

	// Value is the measured value that violated the threshold.
	Value float64 `json:"value"`

	// Limit is the threshold that was violated.
	Limit float64 `json:"limit"`

	// TriggeredAt is when the evaluation fired.
	TriggeredAt time.Time `json:"triggered_at"`
}

// New creates an Event with a fresh unique id.
func New(alertType, component string, severity Severity, message string, value, limit float64, triggeredAt time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        alertType,
		Component:   component,
		Severity:    severity,
		Message:     message,
		Value:       value,
		Limit:       limit,
		TriggeredAt: triggeredAt,
	}
}

// DedupeKey identifies "the same problem" across repeated evaluations:
// two events for the same component at the same severity are duplicates
// for throttling purposes.
func (e Event) DedupeKey() string {
	return fmt.Sprintf("%s:%s", e.Component, e.Severity)
}

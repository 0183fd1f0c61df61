package threshold

import (
	"fmt"
	"log/slog"

	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/sampler"
)

// Evaluator compares samples against configured thresholds and emits
// alert events for violations.
type Evaluator struct {
	thresholds []Threshold
	logger     *slog.Logger
}

// New creates an Evaluator over an immutable threshold table.
func New(thresholds []Threshold, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{
		thresholds: thresholds,
		logger:     logger.With("component", "threshold"),
	}
}

// Evaluate checks every sample against every matching threshold and
// returns the resulting alert events.
//
// Rules applied per evaluation pass:
//   - A sample with no matching threshold is skipped.
//   - Unavailable samples (OK=false) are skipped; their sentinel value
//     is not a measurement and must not be compared.
//   - Each threshold produces at most one event per sample.
//   - When both a warning and a critical threshold fire for the same
//     component, only the critical event survives: escalation wins and
//     the redundant warning is suppressed.
func (e *Evaluator) Evaluate(samples []sampler.Sample, thresholds []Threshold) []alert.Event {
	if thresholds == nil {
		thresholds = e.thresholds
	}

	// Highest severity fired per component in this pass.
	worst := make(map[string]alert.Severity)
	var events []alert.Event

	for _, s := range samples {
		if !s.OK {
			continue
		}

		for _, th := range thresholds {
			if th.Component != s.Component {
				continue
			}
			if !th.Operator.Violates(s.Value, th.Limit) {
				continue
			}

			message := fmt.Sprintf("%s is %.2f%s, threshold %s %.2f%s",
				s.Component, s.Value, unitSuffix(s.Unit), th.Operator, th.Limit, unitSuffix(s.Unit))

			events = append(events, alert.New(
				th.Type, th.Component, th.Severity, message, s.Value, th.Limit, s.CapturedAt,
			))

			if th.Severity.Rank() > worst[th.Component].Rank() {
				worst[th.Component] = th.Severity
			}
		}
	}

	// Drop events outranked by a more severe event for the same
	// component in this pass.
	filtered := events[:0]
	for _, ev := range events {
		if ev.Severity.Rank() < worst[ev.Component].Rank() {
			e.logger.Debug("suppressing escalated alert",
				"alert_component", ev.Component,
				"severity", ev.Severity,
				"escalated_to", worst[ev.Component],
			)
			continue
		}
		filtered = append(filtered, ev)
	}

	return filtered
}

func unitSuffix(unit string) string {
	if unit == "" {
		return ""
	}
	return " " + unit
}

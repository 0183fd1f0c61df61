package threshold

import (
	"testing"
	"time"

	"atelier-hq/vigil/pkg/monitor/alert"
	"atelier-hq/vigil/pkg/monitor/sampler"
)

func sample(component string, value float64) sampler.Sample {
	return sampler.Sample{
		Component:  component,
		Value:      value,
		Unit:       "mb",
		CapturedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		OK:         true,
	}
}

func TestEvaluate_SingleWarning(t *testing.T) {
	e := New([]Threshold{
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 500, Severity: alert.SeverityWarning, Type: "performance"},
	}, nil)

	events := e.Evaluate([]sampler.Sample{sample("memory", 520)}, nil)

	if len(events) != 1 {
		t.Fatalf("expected exactly 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.Severity != alert.SeverityWarning {
		t.Errorf("severity = %q", ev.Severity)
	}
	if ev.Component != "memory" || ev.Value != 520 || ev.Limit != 500 {
		t.Errorf("unexpected event: %+v", ev)
	}
	if ev.DedupeKey() != "memory:warning" {
		t.Errorf("dedupe key = %q", ev.DedupeKey())
	}
	if ev.Message == "" {
		t.Error("message should include value and limit")
	}
}

func TestEvaluate_CriticalSuppressesWarning(t *testing.T) {
	e := New([]Threshold{
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 500, Severity: alert.SeverityWarning, Type: "performance"},
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 600, Severity: alert.SeverityCritical, Type: "performance"},
	}, nil)

	events := e.Evaluate([]sampler.Sample{sample("memory", 650)}, nil)

	if len(events) != 1 {
		t.Fatalf("expected only the critical event, got %d", len(events))
	}
	if events[0].Severity != alert.SeverityCritical {
		t.Errorf("expected critical, got %q", events[0].Severity)
	}
}

func TestEvaluate_WarningOnlyWhenCriticalNotBreached(t *testing.T) {
	e := New([]Threshold{
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 500, Severity: alert.SeverityWarning, Type: "performance"},
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 600, Severity: alert.SeverityCritical, Type: "performance"},
	}, nil)

	events := e.Evaluate([]sampler.Sample{sample("memory", 520)}, nil)

	if len(events) != 1 || events[0].Severity != alert.SeverityWarning {
		t.Fatalf("expected single warning, got %+v", events)
	}
}

func TestEvaluate_EscalationIsPerComponent(t *testing.T) {
	e := New([]Threshold{
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 500, Severity: alert.SeverityCritical, Type: "performance"},
		{Component: "disk", Operator: OpGreaterOrEqual, Limit: 80, Severity: alert.SeverityWarning, Type: "capacity"},
	}, nil)

	events := e.Evaluate([]sampler.Sample{
		sample("memory", 700),
		sample("disk", 85),
	}, nil)

	if len(events) != 2 {
		t.Fatalf("expected 2 events (escalation must not cross components), got %d", len(events))
	}
}

func TestEvaluate_SkipsUnmatchedAndUnavailable(t *testing.T) {
	e := New([]Threshold{
		{Component: "memory", Operator: OpGreaterOrEqual, Limit: 500, Severity: alert.SeverityWarning, Type: "performance"},
	}, nil)

	unavailable := sampler.Sample{
		Component: "memory",
		Value:     sampler.Unavailable,
		OK:        false,
	}

	events := e.Evaluate([]sampler.Sample{
		sample("queue-depth", 9999), // no threshold: non-fatal skip
		unavailable,                 // sentinel value must not be compared
	}, nil)

	if len(events) != 0 {
		t.Errorf("expected no events, got %+v", events)
	}
}

func TestOperator_Violates(t *testing.T) {
	tests := []struct {
		op    Operator
		value float64
		limit float64
		want  bool
	}{
		{OpGreater, 501, 500, true},
		{OpGreater, 500, 500, false},
		{OpGreaterOrEqual, 500, 500, true},
		{OpGreaterOrEqual, 499, 500, false},
		{OpLess, 1, 2, true},
		{OpLess, 2, 2, false},
		{OpLessOrEqual, 2, 2, true},
		{OpLessOrEqual, 3, 2, false},
	}

	for _, tt := range tests {
		if got := tt.op.Violates(tt.value, tt.limit); got != tt.want {
			t.Errorf("%v.Violates(%v, %v) = %v, want %v", tt.op, tt.value, tt.limit, got, tt.want)
		}
	}
}

func TestParseOperator(t *testing.T) {
	for _, valid := range []string{">", ">=", "<", "<="} {
		if _, err := ParseOperator(valid); err != nil {
			t.Errorf("ParseOperator(%q) failed: %v", valid, err)
		}
	}
	for _, invalid := range []string{"==", "!=", "", "=>"} {
		if _, err := ParseOperator(invalid); err == nil {
			t.Errorf("ParseOperator(%q) should fail", invalid)
		}
	}
}

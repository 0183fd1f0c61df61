package threshold

import (
	"fmt"

	"atelier-hq/vigil/pkg/monitor/alert"
)

// Operator compares a measured value against a limit.
type Operator string

const (
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

// ParseOperator validates an operator string from configuration.
func ParseOperator(s string) (Operator, error) {
	switch Operator(s) {
	case OpGreater, OpGreaterOrEqual, OpLess, OpLessOrEqual:
		return Operator(s), nil
	default:
		return "", fmt.Errorf("invalid threshold operator %q", s)
	}
}

// Violates reports whether value breaches the limit under the operator.
func (op Operator) Violates(value, limit float64) bool {
	switch op {
	case OpGreater:
		return value > limit
	case OpGreaterOrEqual:
		return value >= limit
	case OpLess:
		return value < limit
	case OpLessOrEqual:
		return value <= limit
	default:
		return false
	}
}

// Threshold is one configured alerting rule for a component. Multiple
// thresholds for the same component (e.g., a warning and a critical
// level) are evaluated independently.
type Threshold struct {
	// Component is the sample component this threshold matches.
	Component string

	// Operator compares the sample value against Limit.
	Operator Operator

	// Limit is the boundary value in the component's unit.
	Limit float64

	// Severity of the alert produced on violation.
	Severity alert.Severity

	// Type classifies the produced alert for cool-down selection.
	Type string
}

// Package threshold evaluates metric samples against configured limits
// and produces alert events for violations. Thresholds are immutable
// configuration; a component may carry several (typically a warning and
// a critical level), and within one evaluation pass the most severe
// violation per component wins.
package threshold

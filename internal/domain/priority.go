package domain

import "strings"

// Priority indicates how urgently an instruction should be handled.
type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

// ParsePriority canonicalizes a raw priority string. URGENT and CRITICAL
// map to HIGH, NORMAL and MODERATE map to MEDIUM, everything else
// (including empty input) maps to LOW.
func ParsePriority(raw string) Priority {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "HIGH", "URGENT", "CRITICAL":
		return PriorityHigh
	case "MEDIUM", "NORMAL", "MODERATE":
		return PriorityMedium
	default:
		return PriorityLow
	}
}

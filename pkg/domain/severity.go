package domain

// Severity is the shared three-valued classification used for both document
// quality metrics and field mismatches.
// Invariant: the ordering GREEN < YELLOW < RED is the single ordering used
// for aggregation and tie-breaks everywhere in the engine.
type Severity string

const (
	SeverityGreen  Severity = "GREEN"
	SeverityYellow Severity = "YELLOW"
	SeverityRed    Severity = "RED"
)

// severityRank is the single source of truth for severity ordering.
var severityRank = map[Severity]int{
	SeverityGreen:  0,
	SeverityYellow: 1,
	SeverityRed:    2,
}

// Rank returns the position of the severity in the GREEN < YELLOW < RED
// ordering. Unknown values rank below GREEN so they can never escalate.
func (s Severity) Rank() int {
	if r, ok := severityRank[s]; ok {
		return r
	}
	return -1
}

// IsValid checks if the severity is one of the supported enum values.
func (s Severity) IsValid() bool {
	_, ok := severityRank[s]
	return ok
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	return string(s)
}

// WorstSeverity returns the more concerning of two severities.
func WorstSeverity(a, b Severity) Severity {
	if b.Rank() > a.Rank() {
		return b
	}
	return a
}

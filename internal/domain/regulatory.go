package domain

// ActionKind identifies what the regulatory controller did on a given day.
type ActionKind string

const (
	ActionStressTest ActionKind = "stress_test"
	ActionReport     ActionKind = "report"
	ActionRateChange ActionKind = "rate_change"
)

// RegulatoryAction records one regulatory step. Before and After are only
// meaningful for rate changes.
type RegulatoryAction struct {
	Day    int        `json:"day"`
	Kind   ActionKind `json:"kind"`
	Before float64    `json:"before,omitempty"`
	After  float64    `json:"after,omitempty"`
	Reason string     `json:"reason,omitempty"`
}

// Direction returns "raise" or "lower" for rate changes and "" otherwise.
func (a RegulatoryAction) Direction() string {
	if a.Kind != ActionRateChange {
		return ""
	}
	if a.After > a.Before {
		return "raise"
	}
	return "lower"
}

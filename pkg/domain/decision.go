package domain

import dErrors "veridoc/pkg/domain-errors"

// RiskTier is the aggregate risk classification of a verification.
// 1 is low risk, 3 is high risk.
type RiskTier int

const (
	RiskTierLow      RiskTier = 1
	RiskTierModerate RiskTier = 2
	RiskTierHigh     RiskTier = 3
)

// IsValid checks if the tier is one of the supported values.
func (t RiskTier) IsValid() bool {
	return t >= RiskTierLow && t <= RiskTierHigh
}

// Decision is the verification outcome driven by the risk tier.
type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReview  Decision = "REVIEW"
	DecisionReject  Decision = "REJECT"
)

// tierDecisions is the single source of truth for the tier/decision pairing.
// Invariant: a verification's tier and decision are always jointly consistent.
var tierDecisions = map[RiskTier]Decision{
	RiskTierLow:      DecisionApprove,
	RiskTierModerate: DecisionReview,
	RiskTierHigh:     DecisionReject,
}

// DecisionForTier returns the decision paired with a risk tier. Constructing
// decisions only through this function keeps the tier/decision invariant
// unrepresentable to break.
func DecisionForTier(t RiskTier) Decision {
	if d, ok := tierDecisions[t]; ok {
		return d
	}
	return DecisionReject
}

// String returns the string representation of the decision.
func (d Decision) String() string {
	return string(d)
}

// ResolutionDecision is the final outcome of a dispute, distinct from the
// original verification decision so appeals are auditable on their own.
type ResolutionDecision string

const (
	ResolutionApproved       ResolutionDecision = "APPROVED"
	ResolutionRejectedUpheld ResolutionDecision = "REJECTED_UPHELD"
	ResolutionEscalated      ResolutionDecision = "ESCALATED"
)

var validResolutions = map[ResolutionDecision]bool{
	ResolutionApproved:       true,
	ResolutionRejectedUpheld: true,
	ResolutionEscalated:      true,
}

// ParseResolutionDecision constructs a ResolutionDecision from external input.
// Errors: returns CodeBadRequest when the value is empty or unsupported.
func ParseResolutionDecision(s string) (ResolutionDecision, error) {
	d := ResolutionDecision(s)
	if !validResolutions[d] {
		return "", dErrors.New(dErrors.CodeBadRequest, "invalid resolution decision: "+s)
	}
	return d, nil
}

// String returns the string representation of the resolution decision.
func (d ResolutionDecision) String() string {
	return string(d)
}

package domain

// DisputeStatus is the finite lifecycle state of a dispute.
// Invariant: transitions follow INTAKE -> TRIAGED -> RE_VERIFIED -> RESOLVED
// with no skips; RESOLVED is terminal and disputes are never reopened.
type DisputeStatus string

const (
	DisputeIntake     DisputeStatus = "INTAKE"
	DisputeTriaged    DisputeStatus = "TRIAGED"
	DisputeReVerified DisputeStatus = "RE_VERIFIED"
	DisputeResolved   DisputeStatus = "RESOLVED"
)

// disputeTransitions is the single source of truth for legal transitions.
var disputeTransitions = map[DisputeStatus]DisputeStatus{
	DisputeIntake:     DisputeTriaged,
	DisputeTriaged:    DisputeReVerified,
	DisputeReVerified: DisputeResolved,
}

// CanTransitionTo reports whether moving from s to next is a legal step.
func (s DisputeStatus) CanTransitionTo(next DisputeStatus) bool {
	return disputeTransitions[s] == next
}

// IsTerminal reports whether the status admits no further transitions.
func (s DisputeStatus) IsTerminal() bool {
	_, ok := disputeTransitions[s]
	return !ok && s == DisputeResolved
}

// IsValid checks if the status is one of the supported enum values.
func (s DisputeStatus) IsValid() bool {
	switch s {
	case DisputeIntake, DisputeTriaged, DisputeReVerified, DisputeResolved:
		return true
	}
	return false
}

// String returns the string representation of the status.
func (s DisputeStatus) String() string {
	return string(s)
}

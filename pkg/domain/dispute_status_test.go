package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisputeStatusTransitions(t *testing.T) {
	legal := []struct {
		from, to DisputeStatus
	}{
		{DisputeIntake, DisputeTriaged},
		{DisputeTriaged, DisputeReVerified},
		{DisputeReVerified, DisputeResolved},
	}
	for _, tt := range legal {
		assert.True(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be legal", tt.from, tt.to)
	}

	illegal := []struct {
		from, to DisputeStatus
	}{
		{DisputeIntake, DisputeReVerified},
		{DisputeIntake, DisputeResolved},
		{DisputeTriaged, DisputeIntake},
		{DisputeTriaged, DisputeResolved},
		{DisputeResolved, DisputeIntake},
		{DisputeResolved, DisputeTriaged},
		{DisputeResolved, DisputeReVerified},
		{DisputeIntake, DisputeIntake},
	}
	for _, tt := range illegal {
		assert.False(t, tt.from.CanTransitionTo(tt.to), "%s -> %s should be illegal", tt.from, tt.to)
	}
}

func TestDisputeStatusIsTerminal(t *testing.T) {
	assert.True(t, DisputeResolved.IsTerminal())
	assert.False(t, DisputeIntake.IsTerminal())
	assert.False(t, DisputeTriaged.IsTerminal())
	assert.False(t, DisputeReVerified.IsTerminal())
	assert.False(t, DisputeStatus("BOGUS").IsTerminal())
}

func TestDisputeStatusIsValid(t *testing.T) {
	for _, s := range []DisputeStatus{DisputeIntake, DisputeTriaged, DisputeReVerified, DisputeResolved} {
		assert.True(t, s.IsValid())
	}
	assert.False(t, DisputeStatus("").IsValid())
	assert.False(t, DisputeStatus("intake").IsValid())
}

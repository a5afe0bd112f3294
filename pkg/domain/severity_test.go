package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityOrdering(t *testing.T) {
	assert.Less(t, SeverityGreen.Rank(), SeverityYellow.Rank())
	assert.Less(t, SeverityYellow.Rank(), SeverityRed.Rank())

	// Unknown severities rank below GREEN so they can never escalate an aggregate.
	assert.Less(t, Severity("PURPLE").Rank(), SeverityGreen.Rank())
}

func TestWorstSeverity(t *testing.T) {
	tests := []struct {
		a, b, expected Severity
	}{
		{SeverityGreen, SeverityGreen, SeverityGreen},
		{SeverityGreen, SeverityYellow, SeverityYellow},
		{SeverityYellow, SeverityGreen, SeverityYellow},
		{SeverityYellow, SeverityRed, SeverityRed},
		{SeverityRed, SeverityGreen, SeverityRed},
		{SeverityRed, SeverityRed, SeverityRed},
		{Severity("PURPLE"), SeverityGreen, SeverityGreen},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, WorstSeverity(tt.a, tt.b), "worst(%s, %s)", tt.a, tt.b)
	}
}

func TestSeverityIsValid(t *testing.T) {
	assert.True(t, SeverityGreen.IsValid())
	assert.True(t, SeverityYellow.IsValid())
	assert.True(t, SeverityRed.IsValid())
	assert.False(t, Severity("").IsValid())
	assert.False(t, Severity("green").IsValid())
}

package mismatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/platform/config"
	"veridoc/pkg/domain"
)

func newDetector() *Detector {
	return NewDetector(config.DefaultMatch())
}

func TestFuzzyMatchIdentity(t *testing.T) {
	d := newDetector()

	for _, pair := range [][2]string{
		{"John Doe", "John Doe"},
		{"JOHN DOE", "john doe"},
		{"  John Doe ", "John Doe"},
		{"", ""},
	} {
		sim, ok := d.FuzzyMatch(pair[0], pair[1])
		assert.Equal(t, 1.0, sim, "%q vs %q", pair[0], pair[1])
		assert.True(t, ok)
	}
}

func TestFuzzyMatchSimilarValues(t *testing.T) {
	d := newDetector()

	// One edit across eight characters.
	sim, ok := d.FuzzyMatch("John Doe", "Jon Doe")
	assert.InDelta(t, 0.875, sim, 1e-9)
	assert.True(t, ok)

	sim, ok = d.FuzzyMatch("John Doe", "Mary Sue")
	assert.Less(t, sim, 0.5)
	assert.False(t, ok)
}

func TestFuzzyMatchAcceptanceThreshold(t *testing.T) {
	strict := NewDetector(config.Match{
		AcceptanceThreshold: 0.9,
		GreenMinSimilarity:  0.98,
		YellowMinSimilarity: 0.80,
	})

	// 0.875 clears the default 0.80 threshold but not a stricter one.
	_, ok := newDetector().FuzzyMatch("John Doe", "Jon Doe")
	assert.True(t, ok)

	sim, ok := strict.FuzzyMatch("John Doe", "Jon Doe")
	assert.InDelta(t, 0.875, sim, 1e-9)
	assert.False(t, ok)
}

func TestFuzzyMatchMonotonicInEdits(t *testing.T) {
	d := newDetector()

	oneEdit, _ := d.FuzzyMatch("verification", "verificatian")
	twoEdits, _ := d.FuzzyMatch("verification", "verifacatian")
	assert.Greater(t, oneEdit, twoEdits)
}

func TestClassifySeverityBuckets(t *testing.T) {
	d := newDetector()

	tests := []struct {
		similarity float64
		want       domain.Severity
	}{
		{1.0, domain.SeverityGreen},
		{0.98, domain.SeverityGreen},
		{0.979, domain.SeverityYellow},
		{0.80, domain.SeverityYellow},
		{0.799, domain.SeverityRed},
		{0, domain.SeverityRed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, d.ClassifySeverity(tt.similarity), "similarity %v", tt.similarity)
	}
}

func TestDetectCoversFieldUnion(t *testing.T) {
	d := newDetector()

	docA := map[string]string{"name": "John Doe", "postcode": "2000", "phone": "0412345678"}
	docB := map[string]string{"name": "Jon Doe", "postcode": "2000", "identifier": "12345678"}

	out := d.Detect(docA, docB)

	byField := make(map[string]Mismatch, len(out))
	for _, m := range out {
		byField[m.Field] = m
	}

	// Exact agreement produces no mismatch at all.
	assert.NotContains(t, byField, "postcode")

	name, ok := byField["name"]
	require.True(t, ok)
	assert.InDelta(t, 0.875, name.Similarity, 1e-9)
	assert.Equal(t, domain.SeverityYellow, name.Severity)

	// One-sided fields are hard conflicts.
	phone, ok := byField["phone"]
	require.True(t, ok)
	assert.Equal(t, domain.SeverityRed, phone.Severity)
	assert.Zero(t, phone.Similarity)

	identifier, ok := byField["identifier"]
	require.True(t, ok)
	assert.Equal(t, domain.SeverityRed, identifier.Severity)
}

func TestDetectIdenticalDocuments(t *testing.T) {
	d := newDetector()
	fields := map[string]string{"name": "John Doe", "postcode": "2000"}

	assert.Empty(t, d.Detect(fields, fields))
}

func TestDetectIsDeterministic(t *testing.T) {
	d := newDetector()
	docA := map[string]string{"name": "John Doe", "address": "123 Main St", "phone": "0412345678"}
	docB := map[string]string{"name": "Jon Doe", "address": "123 Main Street"}

	first := d.Detect(docA, docB)
	second := d.Detect(docA, docB)
	assert.Equal(t, first, second)
}

func TestSeveritiesProjection(t *testing.T) {
	ms := []Mismatch{
		{Field: "name", Severity: domain.SeverityYellow},
		{Field: "phone", Severity: domain.SeverityRed},
	}
	assert.Equal(t, []domain.Severity{domain.SeverityYellow, domain.SeverityRed}, Severities(ms))
}

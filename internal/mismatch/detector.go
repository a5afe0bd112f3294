// Package mismatch compares the structured fields extracted from the two
// submitted documents and grades each discrepancy by severity.
package mismatch

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"veridoc/internal/platform/config"
	"veridoc/pkg/domain"
)

// Mismatch is one cross-document field discrepancy.
type Mismatch struct {
	Field      string          `json:"field"`
	ValueA     string          `json:"value_a"`
	ValueB     string          `json:"value_b"`
	Similarity float64         `json:"similarity"`
	Severity   domain.Severity `json:"severity"`
}

// Detector applies the fuzzy matching policy.
type Detector struct {
	cfg config.Match
}

// NewDetector builds a detector with the given matching policy.
func NewDetector(cfg config.Match) *Detector {
	return &Detector{cfg: cfg}
}

// FuzzyMatch scores the similarity of two values in [0,1] as normalized edit
// distance and reports whether they match at or above the configured
// acceptance threshold. Comparison is case-insensitive and
// whitespace-trimmed; identical values always score exactly 1.
func (d *Detector) FuzzyMatch(a, b string) (float64, bool) {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == b {
		return 1.0, true
	}
	maxLen := len([]rune(a))
	if n := len([]rune(b)); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 1.0, true
	}
	dist := levenshtein.ComputeDistance(a, b)
	sim := 1.0 - float64(dist)/float64(maxLen)
	return sim, sim >= d.cfg.AcceptanceThreshold
}

// ClassifySeverity buckets a similarity score. Scores at or above the green
// floor are cosmetic, above the yellow floor reviewable, and anything lower a
// hard conflict.
func (d *Detector) ClassifySeverity(similarity float64) domain.Severity {
	switch {
	case similarity >= d.cfg.GreenMinSimilarity:
		return domain.SeverityGreen
	case similarity >= d.cfg.YellowMinSimilarity:
		return domain.SeverityYellow
	default:
		return domain.SeverityRed
	}
}

// Detect compares every field present on either side. A field present on only
// one document is a hard conflict: absence of corroborating evidence is
// treated as the strongest form of disagreement. Fields that agree exactly
// produce no mismatch at all.
func (d *Detector) Detect(docA, docB map[string]string) []Mismatch {
	fields := make(map[string]struct{}, len(docA)+len(docB))
	for k := range docA {
		fields[k] = struct{}{}
	}
	for k := range docB {
		fields[k] = struct{}{}
	}

	names := make([]string, 0, len(fields))
	for k := range fields {
		names = append(names, k)
	}
	sort.Strings(names)

	var out []Mismatch
	for _, field := range names {
		a, okA := docA[field]
		b, okB := docB[field]

		if okA != okB {
			out = append(out, Mismatch{
				Field:      field,
				ValueA:     a,
				ValueB:     b,
				Similarity: 0,
				Severity:   domain.SeverityRed,
			})
			continue
		}

		sim, _ := d.FuzzyMatch(a, b)
		if sim == 1.0 {
			continue
		}
		out = append(out, Mismatch{
			Field:      field,
			ValueA:     a,
			ValueB:     b,
			Similarity: sim,
			Severity:   d.ClassifySeverity(sim),
		})
	}
	return out
}

// Severities projects the mismatch list onto its severity flags for risk
// aggregation.
func Severities(mismatches []Mismatch) []domain.Severity {
	out := make([]domain.Severity, len(mismatches))
	for i, m := range mismatches {
		out[i] = m.Severity
	}
	return out
}

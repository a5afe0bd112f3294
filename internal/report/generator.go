// Package report renders customer certificates and internal audit reports
// from persisted verification records. Reports are derived views; they never
// recompute or mutate a decision.
package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"veridoc/internal/audit"
	"veridoc/internal/dispute"
	"veridoc/internal/verification"
	"veridoc/pkg/domain"
)

// complianceQualityFloor is the score at or above which the quality check is
// reported as passed outright.
const complianceQualityFloor = 70

// VerificationReader resolves verifications for reporting.
type VerificationReader interface {
	FindByID(ctx context.Context, id string) (verification.Verification, error)
	List(ctx context.Context, customerID string) ([]verification.Verification, error)
}

// DisputeLister enumerates disputes so reports can cross-reference appeals.
type DisputeLister interface {
	List(ctx context.Context) ([]dispute.Dispute, error)
}

// TrailReader reads the audit trail backing a report.
type TrailReader interface {
	List(ctx context.Context, entityType, entityID string) ([]audit.Entry, error)
}

// Generator renders reports from the persisted records.
type Generator struct {
	verifications VerificationReader
	disputes      DisputeLister
	trail         TrailReader
}

// NewGenerator wires a report generator.
func NewGenerator(verifications VerificationReader, disputes DisputeLister, trail TrailReader) *Generator {
	return &Generator{verifications: verifications, disputes: disputes, trail: trail}
}

// Certificate renders the customer-facing verification certificate as plain
// text.
func (g *Generator) Certificate(ctx context.Context, verificationID string) (string, error) {
	v, err := g.verifications.FindByID(ctx, verificationID)
	if err != nil {
		return "", err
	}

	qualityLine := "REVIEWED"
	if v.QualityScore >= complianceQualityFloor {
		qualityLine = "PASSED"
	}

	var b strings.Builder
	b.WriteString("VERIDOC VERIFICATION CERTIFICATE\n")
	b.WriteString("================================\n\n")
	fmt.Fprintf(&b, "Verification ID: %s\n", v.ID)
	fmt.Fprintf(&b, "Customer ID: %s\n", v.CustomerID)
	fmt.Fprintf(&b, "Date: %s\n\n", v.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "VERIFICATION RESULT: %s\n\n", v.Decision)
	fmt.Fprintf(&b, "Quality Score: %d/100\n", v.QualityScore)
	fmt.Fprintf(&b, "Risk Tier: %d\n\n", v.RiskTier)
	b.WriteString("Document Analysis:\n")
	fmt.Fprintf(&b, "- Quality Assessment: %s\n", qualityLine)
	fmt.Fprintf(&b, "- Risk Assessment: %s\n\n", riskLabel(v.RiskTier))
	b.WriteString("This certificate confirms that the customer's identity documents have been\n")
	b.WriteString("verified according to our published standards.\n\n")
	b.WriteString("For dispute resolution, please contact support with this Verification ID.\n")
	return b.String(), nil
}

// InternalReport is the detailed audit view of one verification.
type InternalReport struct {
	VerificationID string          `json:"verification_id"`
	CustomerID     string          `json:"customer_id"`
	GeneratedAt    time.Time       `json:"generated_at"`
	Decision       domain.Decision `json:"decision"`
	QualityScore   int             `json:"quality_score"`
	RiskTier       domain.RiskTier `json:"risk_tier"`
	MismatchCount  int             `json:"mismatch_count"`
	DocumentPaths  []string        `json:"document_paths"`
	DisputeCount   int             `json:"dispute_count"`
	AuditTrail     []audit.Entry   `json:"audit_trail"`
	Compliance     Compliance      `json:"compliance"`
}

// Compliance is the per-verification compliance checklist.
type Compliance struct {
	AuditTrail    string `json:"audit_trail"`
	AccuracyCheck string `json:"accuracy_check"`
}

// Internal renders the detailed internal report for one verification.
func (g *Generator) Internal(ctx context.Context, verificationID string) (InternalReport, error) {
	v, err := g.verifications.FindByID(ctx, verificationID)
	if err != nil {
		return InternalReport{}, err
	}
	trail, err := g.trail.List(ctx, audit.EntityVerification, verificationID)
	if err != nil {
		return InternalReport{}, err
	}
	disputes, err := g.disputes.List(ctx)
	if err != nil {
		return InternalReport{}, err
	}

	disputeCount := 0
	for _, d := range disputes {
		if d.VerificationID == verificationID {
			disputeCount++
		}
	}

	accuracy := "Review"
	if v.QualityScore >= complianceQualityFloor {
		accuracy = "Passed"
	}
	trailStatus := "Complete"
	if len(trail) == 0 {
		trailStatus = "Missing"
	}

	return InternalReport{
		VerificationID: v.ID,
		CustomerID:     v.CustomerID,
		GeneratedAt:    time.Now().UTC(),
		Decision:       v.Decision,
		QualityScore:   v.QualityScore,
		RiskTier:       v.RiskTier,
		MismatchCount:  len(v.Mismatches),
		DocumentPaths:  []string{v.Documents[0].Path, v.Documents[1].Path},
		DisputeCount:   disputeCount,
		AuditTrail:     trail,
		Compliance: Compliance{
			AuditTrail:    trailStatus,
			AccuracyCheck: accuracy,
		},
	}, nil
}

// ComplianceSummary aggregates verification and dispute outcomes over a time
// window for regulatory reporting.
type ComplianceSummary struct {
	PeriodStart         time.Time `json:"period_start"`
	PeriodEnd           time.Time `json:"period_end"`
	TotalVerifications  int       `json:"total_verifications"`
	Approved            int       `json:"approved"`
	Reviewed            int       `json:"reviewed"`
	Rejected            int       `json:"rejected"`
	Disputes            int       `json:"disputes"`
	ResolutionRate      float64   `json:"resolution_rate"`
	AverageQualityScore float64   `json:"average_quality_score"`
}

// Summary computes the compliance summary for verifications created in
// [start, end).
func (g *Generator) Summary(ctx context.Context, start, end time.Time) (ComplianceSummary, error) {
	verifications, err := g.verifications.List(ctx, "")
	if err != nil {
		return ComplianceSummary{}, err
	}
	disputes, err := g.disputes.List(ctx)
	if err != nil {
		return ComplianceSummary{}, err
	}

	summary := ComplianceSummary{PeriodStart: start, PeriodEnd: end}
	inPeriod := make(map[string]bool)
	var scoreSum int
	for _, v := range verifications {
		if v.CreatedAt.Before(start) || !v.CreatedAt.Before(end) {
			continue
		}
		inPeriod[v.ID] = true
		summary.TotalVerifications++
		scoreSum += v.QualityScore
		switch v.Decision {
		case domain.DecisionApprove:
			summary.Approved++
		case domain.DecisionReview:
			summary.Reviewed++
		case domain.DecisionReject:
			summary.Rejected++
		}
	}

	resolved := 0
	for _, d := range disputes {
		if !inPeriod[d.VerificationID] {
			continue
		}
		summary.Disputes++
		if d.Status == domain.DisputeResolved {
			resolved++
		}
	}

	if summary.TotalVerifications > 0 {
		summary.AverageQualityScore = float64(scoreSum) / float64(summary.TotalVerifications)
	}
	if summary.Disputes > 0 {
		summary.ResolutionRate = float64(resolved) / float64(summary.Disputes)
	}
	return summary, nil
}

func riskLabel(t domain.RiskTier) string {
	switch t {
	case domain.RiskTierLow:
		return "LOW"
	case domain.RiskTierModerate:
		return "MODERATE"
	default:
		return "HIGH"
	}
}

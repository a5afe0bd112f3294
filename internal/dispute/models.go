// Package dispute owns the post-decision lifecycle: intake, triage,
// re-verification, and resolution. A dispute never mutates the verification
// it contests; re-verification records its own outcome and only the explicit
// resolution overrides the original decision.
package dispute

import (
	"time"

	"veridoc/internal/mismatch"
	"veridoc/internal/verification"
	"veridoc/pkg/domain"
)

// Root causes identified during triage.
const (
	CauseOCRError             = "ocr_error"
	CauseGenuineDiscrepancy   = "genuine_discrepancy"
	CauseInsufficientEvidence = "insufficient_evidence"
)

// Triage recommendations.
const (
	RecommendReVerify = "re_verify"
	RecommendUphold   = "uphold"
	RecommendEscalate = "escalate"
)

// Triage is the recorded root-cause analysis of a dispute.
type Triage struct {
	RootCauses     []string  `json:"root_causes"`
	Recommendation string    `json:"recommendation"`
	PerformedAt    time.Time `json:"performed_at"`
}

// ReVerification is the outcome of rerunning mismatch detection and risk
// assessment over the original evidence plus the additional documents. It is
// recorded on the dispute, not written back to the verification.
type ReVerification struct {
	AdditionalResults []verification.DocumentResult `json:"additional_results"`
	Mismatches        []mismatch.Mismatch           `json:"mismatches"`
	RiskTier          domain.RiskTier               `json:"risk_tier"`
	Decision          domain.Decision               `json:"decision"`
	QualityScore      int                           `json:"quality_score"`
	PerformedAt       time.Time                     `json:"performed_at"`
}

// Resolution is the terminal outcome of a dispute.
type Resolution struct {
	FinalDecision domain.ResolutionDecision `json:"final_decision"`
	Reason        string                    `json:"reason"`
	ResolvedAt    time.Time                 `json:"resolved_at"`
}

// Dispute is the persisted lifecycle record. Mutated in place through its
// state machine; never deleted.
type Dispute struct {
	ID                  string               `json:"id"`
	VerificationID      string               `json:"original_verification_id"`
	CustomerReason      string               `json:"customer_reason"`
	AdditionalDocuments []string             `json:"additional_documents,omitempty"`
	Status              domain.DisputeStatus `json:"status"`
	OriginalDecision    domain.Decision      `json:"original_decision"`
	Triage              *Triage              `json:"triage,omitempty"`
	ReVerification      *ReVerification      `json:"re_verification,omitempty"`
	Resolution          *Resolution          `json:"resolution,omitempty"`
	CreatedAt           time.Time            `json:"created_at"`
	UpdatedAt           time.Time            `json:"updated_at"`
}

// CreateRequest is the intake input.
type CreateRequest struct {
	VerificationID      string   `json:"verification_id"`
	CustomerReason      string   `json:"customer_reason"`
	AdditionalDocuments []string `json:"additional_documents,omitempty"`
}

// ResolveRequest is the resolution input.
type ResolveRequest struct {
	FinalDecision string `json:"final_decision"`
	Reason        string `json:"reason"`
}

// Analytics summarizes the dispute population for operations dashboards.
type Analytics struct {
	TotalDisputes     int `json:"total_disputes"`
	ResolvedDisputes  int `json:"resolved_disputes"`
	ApprovedOnAppeal  int `json:"approved_on_appeal"`
	UpheldRejections  int `json:"upheld_rejections"`
	EscalatedDisputes int `json:"escalated_disputes"`
}

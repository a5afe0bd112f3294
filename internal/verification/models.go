// Package verification orchestrates the document verification pipeline:
// per-document quality assessment, enhancement, and text extraction run in
// parallel, then cross-document comparison and risk assessment produce the
// decision. A verification is persisted exactly once, fully populated.
package verification

import (
	"time"

	"veridoc/internal/mismatch"
	"veridoc/internal/ocr"
	"veridoc/internal/quality"
	"veridoc/pkg/domain"
)

// DocumentResult is everything the pipeline learned about one submitted
// document image.
type DocumentResult struct {
	Path        string               `json:"path"`
	Quality     quality.Report       `json:"quality"`
	Enhancement []string             `json:"enhancement,omitempty"`
	Extraction  ocr.ExtractionResult `json:"extraction"`
	Fields      ocr.StructuredFields `json:"fields"`
}

// Verification is the persisted outcome of one verification request.
// Immutable once saved; disputes reference it rather than mutate it.
type Verification struct {
	ID           string              `json:"id"`
	CustomerID   string              `json:"customer_id"`
	Documents    [2]DocumentResult   `json:"documents"`
	Mismatches   []mismatch.Mismatch `json:"mismatches"`
	QualityScore int                 `json:"quality_score"`
	RiskTier     domain.RiskTier     `json:"risk_tier"`
	Decision     domain.Decision     `json:"decision"`
	RedCount     int                 `json:"red_count"`
	YellowCount  int                 `json:"yellow_count"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

// VerifyRequest is the input to the pipeline. Exactly two documents are
// compared per verification.
type VerifyRequest struct {
	CustomerID    string `json:"customer_id"`
	DocumentPathA string `json:"document_path_a"`
	DocumentPathB string `json:"document_path_b"`
}

package dispute

import (
	"context"
	"fmt"
	"strings"

	"veridoc/internal/ocr"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// ResolutionLetter renders the customer-facing communication for a resolved
// dispute, addressed by the extracted customer name when one is on record.
// Errors: CodeInvalidState when the dispute has no resolution yet.
func (s *Service) ResolutionLetter(ctx context.Context, id string) (string, error) {
	d, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if d.Resolution == nil {
		return "", dErrors.New(dErrors.CodeInvalidState, "dispute "+id+" is not resolved yet")
	}

	salutation := "Customer"
	if v, err := s.verifications.FindByID(ctx, d.VerificationID); err == nil {
		for _, doc := range v.Documents {
			if fv, ok := doc.Fields.Fields[ocr.FieldName]; ok && fv.Value != "" {
				salutation = fv.Value
				break
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", salutation)
	fmt.Fprintf(&b, "Your dispute %s regarding verification %s has been reviewed.\n\n", d.ID, d.VerificationID)
	fmt.Fprintf(&b, "OUTCOME: %s\n\n", d.Resolution.FinalDecision)

	switch d.Resolution.FinalDecision {
	case domain.ResolutionApproved:
		b.WriteString("The original decision has been overturned and your verification is now approved.\n")
	case domain.ResolutionRejectedUpheld:
		b.WriteString("After re-examining the evidence, the original decision stands.\n")
	case domain.ResolutionEscalated:
		b.WriteString("Your case has been escalated to a specialist for manual review. We will contact you with the outcome.\n")
	}

	fmt.Fprintf(&b, "\nReason: %s\n", d.Resolution.Reason)
	fmt.Fprintf(&b, "Resolved: %s\n\n", d.Resolution.ResolvedAt.Format("2006-01-02 15:04:05"))
	b.WriteString("If you have further questions, please quote your dispute ID when contacting support.\n")
	return b.String(), nil
}

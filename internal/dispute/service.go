package dispute

import (
	"context"
	"log/slog"
	"time"

	"veridoc/internal/audit"
	"veridoc/internal/mismatch"
	"veridoc/internal/risk"
	"veridoc/internal/verification"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
	vstrings "veridoc/pkg/platform/strings"
)

// triageLowConfidence is the calibrated confidence below which a mismatched
// field is attributed to the extraction rather than the documents.
const triageLowConfidence = 70.0

// VerificationReader resolves the verification a dispute contests.
type VerificationReader interface {
	FindByID(ctx context.Context, id string) (verification.Verification, error)
}

// DocumentProcessor runs the per-document pipeline over additional evidence.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, path string) (verification.DocumentResult, error)
}

// Service drives the dispute state machine.
type Service struct {
	store         Store
	verifications VerificationReader
	processor     DocumentProcessor
	detector      *mismatch.Detector
	risk          *risk.Assessor
	audit         *audit.Publisher
	logger        *slog.Logger
}

// NewService wires the dispute lifecycle.
func NewService(
	store Store,
	verifications VerificationReader,
	processor DocumentProcessor,
	detector *mismatch.Detector,
	riskAssessor *risk.Assessor,
	auditPublisher *audit.Publisher,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:         store,
		verifications: verifications,
		processor:     processor,
		detector:      detector,
		risk:          riskAssessor,
		audit:         auditPublisher,
		logger:        logger,
	}
}

// Create opens a dispute against an existing verification in state INTAKE.
// Errors: CodeNotFound when the verification does not resolve, CodeBadRequest
// on missing reason.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Dispute, error) {
	if err := domain.ValidateVerificationID(req.VerificationID); err != nil {
		return Dispute{}, err
	}
	if req.CustomerReason == "" {
		return Dispute{}, dErrors.New(dErrors.CodeBadRequest, "customer_reason is required")
	}

	v, err := s.verifications.FindByID(ctx, req.VerificationID)
	if err != nil {
		return Dispute{}, err
	}

	now := time.Now().UTC()
	d := Dispute{
		ID:                  domain.NewDisputeID(),
		VerificationID:      v.ID,
		CustomerReason:      req.CustomerReason,
		AdditionalDocuments: vstrings.DedupeAndTrim(req.AdditionalDocuments),
		Status:              domain.DisputeIntake,
		OriginalDecision:    v.Decision,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.store.Save(ctx, d); err != nil {
		return Dispute{}, err
	}

	if err := s.emit(ctx, d.ID, "dispute.created", map[string]any{
		"verification_id": d.VerificationID,
		"reason":          d.CustomerReason,
	}); err != nil {
		return Dispute{}, err
	}
	s.logger.InfoContext(ctx, "dispute created",
		"dispute_id", d.ID, "verification_id", d.VerificationID)
	return d, nil
}

// Triage re-examines the original mismatch and quality evidence to classify
// the likely root causes and recommend an action. Transitions INTAKE→TRIAGED.
func (s *Service) Triage(ctx context.Context, id string) (Dispute, error) {
	d, err := s.load(ctx, id, domain.DisputeIntake)
	if err != nil {
		return Dispute{}, err
	}
	v, err := s.verifications.FindByID(ctx, d.VerificationID)
	if err != nil {
		return Dispute{}, err
	}

	t := s.analyze(v, d)
	d.Triage = &t
	if err := s.transition(ctx, &d, domain.DisputeIntake, domain.DisputeTriaged); err != nil {
		return Dispute{}, err
	}

	if err := s.emit(ctx, d.ID, "dispute.triaged", map[string]any{
		"root_causes":    t.RootCauses,
		"recommendation": t.Recommendation,
	}); err != nil {
		return Dispute{}, err
	}
	return d, nil
}

// ReVerify reruns mismatch detection and risk assessment over the original
// evidence plus any additional documents. The original verification is left
// untouched; the outcome is recorded on the dispute. Transitions
// TRIAGED→RE_VERIFIED.
func (s *Service) ReVerify(ctx context.Context, id string) (Dispute, error) {
	d, err := s.load(ctx, id, domain.DisputeTriaged)
	if err != nil {
		return Dispute{}, err
	}
	v, err := s.verifications.FindByID(ctx, d.VerificationID)
	if err != nil {
		return Dispute{}, err
	}

	additional := make([]verification.DocumentResult, 0, len(d.AdditionalDocuments))
	for _, path := range d.AdditionalDocuments {
		doc, err := s.processor.ProcessDocument(ctx, path)
		if err != nil {
			return Dispute{}, err
		}
		additional = append(additional, doc)
	}

	revised := s.reviseMismatches(v.Mismatches, additional)

	// Same tiering rule as the original verification: mismatch evidence only,
	// with the worst quality score across all documents carried alongside.
	allDocs := append(append([]verification.DocumentResult{}, v.Documents[:]...), additional...)
	verdict := s.risk.Assess(mismatch.Severities(revised), float64(verification.WorstQualityScore(allDocs)))

	d.ReVerification = &ReVerification{
		AdditionalResults: additional,
		Mismatches:        revised,
		RiskTier:          verdict.Tier,
		Decision:          verdict.Decision,
		QualityScore:      int(verdict.QualityScore),
		PerformedAt:       time.Now().UTC(),
	}
	if err := s.transition(ctx, &d, domain.DisputeTriaged, domain.DisputeReVerified); err != nil {
		return Dispute{}, err
	}

	if err := s.emit(ctx, d.ID, "dispute.reverified", map[string]any{
		"decision":  verdict.Decision.String(),
		"risk_tier": int(verdict.Tier),
	}); err != nil {
		return Dispute{}, err
	}
	return d, nil
}

// Resolve records the final decision. Transitions RE_VERIFIED→RESOLVED; any
// other starting state is CodeInvalidState so a dispute cannot be closed
// without its evidence review.
func (s *Service) Resolve(ctx context.Context, id string, req ResolveRequest) (Dispute, error) {
	decision, err := domain.ParseResolutionDecision(req.FinalDecision)
	if err != nil {
		return Dispute{}, err
	}
	if req.Reason == "" {
		return Dispute{}, dErrors.New(dErrors.CodeBadRequest, "reason is required")
	}

	d, err := s.load(ctx, id, domain.DisputeReVerified)
	if err != nil {
		return Dispute{}, err
	}

	d.Resolution = &Resolution{
		FinalDecision: decision,
		Reason:        req.Reason,
		ResolvedAt:    time.Now().UTC(),
	}
	if err := s.transition(ctx, &d, domain.DisputeReVerified, domain.DisputeResolved); err != nil {
		return Dispute{}, err
	}

	if err := s.emit(ctx, d.ID, "dispute.resolved", map[string]any{
		"final_decision": decision.String(),
		"reason":         req.Reason,
	}); err != nil {
		return Dispute{}, err
	}
	s.logger.InfoContext(ctx, "dispute resolved",
		"dispute_id", d.ID, "final_decision", decision.String())
	return d, nil
}

// Get returns a dispute by ID.
func (s *Service) Get(ctx context.Context, id string) (Dispute, error) {
	if err := domain.ValidateDisputeID(id); err != nil {
		return Dispute{}, err
	}
	return s.store.FindByID(ctx, id)
}

// Trail returns the audit trail for one dispute.
func (s *Service) Trail(ctx context.Context, id string) ([]audit.Entry, error) {
	if err := domain.ValidateDisputeID(id); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, audit.EntityDispute, id)
}

// GetAnalytics summarizes the dispute population.
func (s *Service) GetAnalytics(ctx context.Context) (Analytics, error) {
	disputes, err := s.store.List(ctx)
	if err != nil {
		return Analytics{}, err
	}
	var a Analytics
	a.TotalDisputes = len(disputes)
	for _, d := range disputes {
		if d.Status != domain.DisputeResolved || d.Resolution == nil {
			continue
		}
		a.ResolvedDisputes++
		switch d.Resolution.FinalDecision {
		case domain.ResolutionApproved:
			// Approval on appeal means the dispute actually overturned
			// something; approving an already approved verification does not
			// count.
			if d.OriginalDecision != domain.DecisionApprove {
				a.ApprovedOnAppeal++
			}
		case domain.ResolutionRejectedUpheld:
			a.UpheldRejections++
		case domain.ResolutionEscalated:
			a.EscalatedDisputes++
		}
	}
	return a, nil
}

// load fetches a dispute and checks it is in the state the operation needs.
// A wrong state is CodeInvalidState, never silently coerced.
func (s *Service) load(ctx context.Context, id string, want domain.DisputeStatus) (Dispute, error) {
	if err := domain.ValidateDisputeID(id); err != nil {
		return Dispute{}, err
	}
	d, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Dispute{}, err
	}
	if d.Status != want {
		return Dispute{}, dErrors.New(dErrors.CodeInvalidState,
			"dispute "+id+" is "+d.Status.String()+", expected "+want.String())
	}
	return d, nil
}

// transition advances the state machine with a CAS write.
func (s *Service) transition(ctx context.Context, d *Dispute, from, to domain.DisputeStatus) error {
	if !from.CanTransitionTo(to) {
		return dErrors.New(dErrors.CodeInvalidState,
			"illegal transition "+from.String()+" -> "+to.String())
	}
	d.Status = to
	d.UpdatedAt = time.Now().UTC()
	return s.store.Update(ctx, *d, from)
}

// analyze classifies the likely root causes of the contested decision.
func (s *Service) analyze(v verification.Verification, d Dispute) Triage {
	causes := make(map[string]bool)

	for _, doc := range v.Documents {
		if !doc.Quality.Success || !doc.Extraction.Success {
			causes[CauseInsufficientEvidence] = true
		}
	}

	for _, m := range v.Mismatches {
		if m.Severity == domain.SeverityGreen {
			continue
		}
		if lowestFieldConfidence(v.Documents[:], m.Field) < triageLowConfidence {
			causes[CauseOCRError] = true
		} else {
			causes[CauseGenuineDiscrepancy] = true
		}
	}

	// A dispute with clean extraction and no mismatches contests a decision
	// driven by quality flags alone; there is nothing new to compare.
	if len(causes) == 0 {
		causes[CauseInsufficientEvidence] = true
	}

	var rootCauses []string
	for _, c := range []string{CauseOCRError, CauseGenuineDiscrepancy, CauseInsufficientEvidence} {
		if causes[c] {
			rootCauses = append(rootCauses, c)
		}
	}

	var recommendation string
	switch {
	case causes[CauseOCRError] || len(d.AdditionalDocuments) > 0:
		recommendation = RecommendReVerify
	case causes[CauseGenuineDiscrepancy]:
		recommendation = RecommendUphold
	default:
		recommendation = RecommendEscalate
	}

	return Triage{
		RootCauses:     rootCauses,
		Recommendation: recommendation,
		PerformedAt:    time.Now().UTC(),
	}
}

// reviseMismatches rechecks each original mismatch against the additional
// documents: corroborating evidence can only improve a field's similarity,
// never worsen it, so re-verification is monotone in the customer's favor on
// the mismatch axis while new documents still contribute their own quality
// flags.
func (s *Service) reviseMismatches(original []mismatch.Mismatch, additional []verification.DocumentResult) []mismatch.Mismatch {
	revised := append([]mismatch.Mismatch{}, original...)
	for i, m := range revised {
		best := m.Similarity
		for _, doc := range additional {
			fv, ok := doc.Fields.Fields[m.Field]
			if !ok {
				continue
			}
			if sim, _ := s.detector.FuzzyMatch(fv.Value, m.ValueA); sim > best {
				best = sim
			}
			if sim, _ := s.detector.FuzzyMatch(fv.Value, m.ValueB); sim > best {
				best = sim
			}
		}
		if best > m.Similarity {
			revised[i].Similarity = best
			revised[i].Severity = s.detector.ClassifySeverity(best)
		}
	}
	return revised
}

// lowestFieldConfidence returns the weakest calibrated confidence backing a
// field across the documents, or 100 when no document carries it.
func lowestFieldConfidence(docs []verification.DocumentResult, field string) float64 {
	lowest := 100.0
	for _, doc := range docs {
		if fv, ok := doc.Fields.Fields[field]; ok && fv.Confidence < lowest {
			lowest = fv.Confidence
		}
	}
	return lowest
}

// emit appends a trail entry for the dispute. The trail is part of the
// operation's contract; append failures propagate to the caller.
func (s *Service) emit(ctx context.Context, disputeID, action string, details map[string]any) error {
	return s.audit.Emit(ctx, audit.NewEntry(audit.EntityDispute, disputeID, action, details))
}

package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"veridoc/internal/audit"
	"veridoc/internal/enhance"
	"veridoc/internal/mismatch"
	"veridoc/internal/ocr"
	"veridoc/internal/quality"
	"veridoc/internal/risk"
	"veridoc/internal/verification/metrics"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// Service runs the verification pipeline and persists its outcome.
type Service struct {
	store        Store
	assessor     *quality.Assessor
	enhancer     *enhance.Enhancer
	extractor    *ocr.Extractor
	detector     *mismatch.Detector
	risk         *risk.Assessor
	audit        *audit.Publisher
	metrics      *metrics.Metrics
	logger       *slog.Logger
	stageTimeout time.Duration
}

// NewService wires the pipeline components.
func NewService(
	store Store,
	assessor *quality.Assessor,
	enhancer *enhance.Enhancer,
	extractor *ocr.Extractor,
	detector *mismatch.Detector,
	riskAssessor *risk.Assessor,
	auditPublisher *audit.Publisher,
	m *metrics.Metrics,
	logger *slog.Logger,
	stageTimeout time.Duration,
) *Service {
	return &Service{
		store:        store,
		assessor:     assessor,
		enhancer:     enhancer,
		extractor:    extractor,
		detector:     detector,
		risk:         riskAssessor,
		audit:        auditPublisher,
		metrics:      m,
		logger:       logger,
		stageTimeout: stageTimeout,
	}
}

// Verify runs the full pipeline: both documents are processed in parallel,
// the results joined into mismatch detection and risk assessment, and the
// verification saved exactly once, fully populated. Cancellation before the
// save point persists nothing.
func (s *Service) Verify(ctx context.Context, req VerifyRequest) (Verification, error) {
	if err := validateRequest(req); err != nil {
		return Verification{}, err
	}

	start := time.Now()
	id := domain.NewVerificationID()
	paths := [2]string{req.DocumentPathA, req.DocumentPathB}

	var docs [2]DocumentResult
	g, gctx := errgroup.WithContext(ctx)
	for i := range paths {
		i := i
		g.Go(func() error {
			doc, err := s.ProcessDocument(gctx, paths[i])
			if err != nil {
				return err
			}
			docs[i] = doc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Verification{}, asPipelineError(err)
	}

	// The tier is derived from the mismatch evidence alone; the quality score
	// rides along as corroborating context for human review, never as a
	// tiering input. A document that yielded no fields surfaces here as
	// one-sided RED mismatches against its counterpart.
	mismatches := s.detector.Detect(docs[0].Fields.Values(), docs[1].Fields.Values())
	verdict := s.risk.Assess(mismatch.Severities(mismatches), float64(WorstQualityScore(docs[:])))

	// The save is the single externally visible effect; a cancelled request
	// must leave no partial record behind.
	if err := ctx.Err(); err != nil {
		return Verification{}, asPipelineError(err)
	}

	now := time.Now().UTC()
	v := Verification{
		ID:           id,
		CustomerID:   req.CustomerID,
		Documents:    docs,
		Mismatches:   mismatches,
		QualityScore: int(verdict.QualityScore),
		RiskTier:     verdict.Tier,
		Decision:     verdict.Decision,
		RedCount:     verdict.RedCount,
		YellowCount:  verdict.YellowCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.store.Save(ctx, v); err != nil {
		return Verification{}, err
	}

	// A verification without its trail entry is incomplete for compliance
	// purposes; an append failure fails the operation.
	if err := s.audit.Emit(ctx, audit.NewEntry(audit.EntityVerification, v.ID, "verification.completed", map[string]any{
		"customer_id":   v.CustomerID,
		"decision":      v.Decision.String(),
		"risk_tier":     int(v.RiskTier),
		"quality_score": v.QualityScore,
		"mismatches":    len(v.Mismatches),
	})); err != nil {
		return Verification{}, err
	}

	s.metrics.IncrementDecision(v.Decision.String())
	s.metrics.ObservePipelineLatency(time.Since(start))
	s.logger.InfoContext(ctx, "verification completed",
		"verification_id", v.ID,
		"customer_id", v.CustomerID,
		"decision", v.Decision.String(),
		"risk_tier", int(v.RiskTier),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return v, nil
}

// Get returns a verification by ID.
func (s *Service) Get(ctx context.Context, id string) (Verification, error) {
	if err := domain.ValidateVerificationID(id); err != nil {
		return Verification{}, err
	}
	return s.store.FindByID(ctx, id)
}

// List returns verifications for a customer, or all when customerID is empty.
func (s *Service) List(ctx context.Context, customerID string) ([]Verification, error) {
	return s.store.List(ctx, customerID)
}

// Trail returns the audit trail for one verification.
func (s *Service) Trail(ctx context.Context, id string) ([]audit.Entry, error) {
	if err := domain.ValidateVerificationID(id); err != nil {
		return nil, err
	}
	return s.audit.List(ctx, audit.EntityVerification, id)
}

// ProcessDocument runs the per-document stages: quality assessment,
// enhancement, and text extraction with field mapping. An unreadable or
// low-yield image is a populated failure result, not an error; the only
// errors returned are cancellations.
func (s *Service) ProcessDocument(ctx context.Context, path string) (DocumentResult, error) {
	doc := DocumentResult{Path: path}

	img, err := imaging.Open(path)
	if err != nil {
		s.logger.WarnContext(ctx, "document unreadable", "path", path, "error", err)
		doc.Quality = quality.Report{Success: false, Error: "cannot load image: " + err.Error(), Path: path}
		return doc, nil
	}

	stage := time.Now()
	doc.Quality = s.assessor.AssessImage(path, img)
	s.metrics.ObserveStageLatency("quality", time.Since(stage))

	stage = time.Now()
	enhanced := s.enhancer.EnhanceImage(img, doc.Quality.SkewAngle)
	doc.Enhancement = enhanced.Applied
	s.metrics.ObserveStageLatency("enhance", time.Since(stage))

	stage = time.Now()
	octx, cancel := context.WithTimeout(ctx, s.stageTimeout)
	defer cancel()
	doc.Extraction = s.extractor.Extract(octx, enhanced.Image)
	s.metrics.ObserveStageLatency("ocr", time.Since(stage))

	// Distinguish the caller giving up from the engine failing: the former
	// aborts the pipeline, the latter is a recorded extraction failure.
	if err := ctx.Err(); err != nil {
		return DocumentResult{}, err
	}

	doc.Fields = ocr.MapFields(doc.Extraction.Tokens)
	return doc, nil
}

// WorstQualityScore takes the lowest of the document scores: the verification
// is only as legible as its worst document.
func WorstQualityScore(docs []DocumentResult) int {
	score := 100
	for _, d := range docs {
		s := d.Quality.Score
		if !d.Quality.Success {
			s = 0
		}
		if s < score {
			score = s
		}
	}
	return score
}

func validateRequest(req VerifyRequest) error {
	switch {
	case req.CustomerID == "":
		return dErrors.New(dErrors.CodeBadRequest, "customer_id is required")
	case req.DocumentPathA == "" || req.DocumentPathB == "":
		return dErrors.New(dErrors.CodeBadRequest, "two document paths are required")
	case req.DocumentPathA == req.DocumentPathB:
		return dErrors.New(dErrors.CodeBadRequest, "documents must be distinct")
	}
	return nil
}

func asPipelineError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification pipeline timed out")
	}
	if errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification pipeline cancelled")
	}
	return err
}

package verification

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veridoc/internal/audit"
	"veridoc/internal/enhance"
	"veridoc/internal/mismatch"
	"veridoc/internal/ocr"
	"veridoc/internal/platform/config"
	"veridoc/internal/quality"
	"veridoc/internal/risk"
	"veridoc/pkg/domain"
	dErrors "veridoc/pkg/domain-errors"
)

// stubEngine keys its output on image width so the two documents of one
// verification can carry different text without touching the filesystem
// beyond the fixture images.
type stubEngine struct{}

func (stubEngine) Recognize(_ context.Context, img image.Image) ([]ocr.Token, error) {
	if img.Bounds().Dx() < 350 {
		return []ocr.Token{
			{Text: "Name: John Smith", Confidence: 90},
			{Text: "12 Main Street", Confidence: 85},
		}, nil
	}
	return []ocr.Token{
		{Text: "Name: Jon Smith", Confidence: 88},
		{Text: "12 Main Street", Confidence: 84},
	}, nil
}

func writeFixtureImage(t *testing.T, dir, name string, width int) string {
	t.Helper()
	img := imaging.New(width, width*2/3, color.NRGBA{R: 128, G: 128, B: 128, A: 255})
	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path))
	return path
}

func newTestService(t *testing.T, store Store, auditStore audit.Store) *Service {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(
		store,
		quality.NewAssessor(config.DefaultQuality()),
		enhance.NewEnhancer(),
		ocr.NewExtractor(stubEngine{}, ocr.LinearCalibrator{BaselineAccuracy: 95}, log),
		mismatch.NewDetector(config.DefaultMatch()),
		risk.NewAssessor(config.DefaultRisk()),
		audit.NewPublisher(auditStore, nil, log),
		nil,
		log,
		time.Second,
	)
}

func TestVerifyRequestValidation(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(), audit.NewInMemoryStore())

	tests := []struct {
		name string
		req  VerifyRequest
	}{
		{"missing customer", VerifyRequest{DocumentPathA: "a.png", DocumentPathB: "b.png"}},
		{"missing document", VerifyRequest{CustomerID: "cust-1", DocumentPathA: "a.png"}},
		{"identical documents", VerifyRequest{CustomerID: "cust-1", DocumentPathA: "a.png", DocumentPathB: "a.png"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Verify(context.Background(), tt.req)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
		})
	}
}

func TestVerifyRunsFullPipeline(t *testing.T) {
	store := NewInMemoryStore()
	auditStore := audit.NewInMemoryStore()
	svc := newTestService(t, store, auditStore)
	dir := t.TempDir()

	v, err := svc.Verify(context.Background(), VerifyRequest{
		CustomerID:    "cust-1",
		DocumentPathA: writeFixtureImage(t, dir, "a.png", 300),
		DocumentPathB: writeFixtureImage(t, dir, "b.png", 400),
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(v.ID, "ver_"))
	assert.Equal(t, "cust-1", v.CustomerID)
	assert.Equal(t, domain.DecisionForTier(v.RiskTier), v.Decision)

	// The name differs across documents by one character; the address is
	// identical and must not be reported.
	require.Len(t, v.Mismatches, 1)
	assert.Equal(t, ocr.FieldName, v.Mismatches[0].Field)
	assert.Equal(t, domain.SeverityYellow, v.Mismatches[0].Severity)

	// One yellow mismatch exceeds the tier-1 allowance: manual review. The
	// flat fixtures score poorly on quality, but quality never moves the tier.
	assert.Equal(t, domain.RiskTierModerate, v.RiskTier)
	assert.Equal(t, domain.DecisionReview, v.Decision)
	assert.Equal(t, 0, v.RedCount)
	assert.Equal(t, 1, v.YellowCount)

	stored, err := store.FindByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, v, stored)

	trail, err := svc.Trail(context.Background(), v.ID)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "verification.completed", trail[0].Action)
	assert.Equal(t, v.Decision.String(), trail[0].Details["decision"])
}

func TestVerifyQualityFlagsNeverChangeTier(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(t, store, audit.NewInMemoryStore())
	dir := t.TempDir()

	// Both widths sit below the stub engine's cutover, so the documents carry
	// identical fields and there is nothing to mismatch.
	v, err := svc.Verify(context.Background(), VerifyRequest{
		CustomerID:    "cust-1",
		DocumentPathA: writeFixtureImage(t, dir, "a.png", 300),
		DocumentPathB: writeFixtureImage(t, dir, "b.png", 320),
	})
	require.NoError(t, err)
	assert.Empty(t, v.Mismatches)

	// The flat fixtures flag poorly on contrast and blur, so the quality
	// score is well short of perfect. With matching fields that still means
	// tier 1: quality is corroborating context, never tiering input.
	assert.Less(t, v.QualityScore, 100)
	assert.Equal(t, domain.RiskTierLow, v.RiskTier)
	assert.Equal(t, domain.DecisionApprove, v.Decision)
	assert.Zero(t, v.RedCount)
	assert.Zero(t, v.YellowCount)
}

func TestVerifyUnreadableDocumentFailsSoft(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(t, store, audit.NewInMemoryStore())
	dir := t.TempDir()

	v, err := svc.Verify(context.Background(), VerifyRequest{
		CustomerID:    "cust-1",
		DocumentPathA: writeFixtureImage(t, dir, "a.png", 300),
		DocumentPathB: filepath.Join(dir, "missing.png"),
	})
	require.NoError(t, err)

	assert.False(t, v.Documents[1].Quality.Success)
	assert.NotEmpty(t, v.Documents[1].Quality.Error)

	// A failed document floors the verification quality score.
	assert.Equal(t, 0, v.QualityScore)

	// The failed document yields no fields, so everything the readable
	// document extracted is a one-sided hard conflict.
	require.NotEmpty(t, v.Mismatches)
	for _, m := range v.Mismatches {
		assert.Equal(t, domain.SeverityRed, m.Severity)
	}
	assert.GreaterOrEqual(t, v.RedCount, 2)
	assert.Equal(t, domain.RiskTierHigh, v.RiskTier)
	assert.Equal(t, domain.DecisionReject, v.Decision)

	_, err = store.FindByID(context.Background(), v.ID)
	assert.NoError(t, err)
}

func TestVerifyCancellationPersistsNothing(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(t, store, audit.NewInMemoryStore())
	dir := t.TempDir()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Verify(ctx, VerifyRequest{
		CustomerID:    "cust-1",
		DocumentPathA: writeFixtureImage(t, dir, "a.png", 300),
		DocumentPathB: writeFixtureImage(t, dir, "b.png", 400),
	})
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))

	all, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestGetValidatesID(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(), audit.NewInMemoryStore())

	_, err := svc.Get(context.Background(), "disp_wrong-kind")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = svc.Get(context.Background(), domain.NewVerificationID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestListFiltersByCustomer(t *testing.T) {
	store := NewInMemoryStore()
	svc := newTestService(t, store, audit.NewInMemoryStore())
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Verification{ID: "ver_1", CustomerID: "cust-1", CreatedAt: time.Now()}))
	require.NoError(t, store.Save(ctx, Verification{ID: "ver_2", CustomerID: "cust-2", CreatedAt: time.Now().Add(time.Second)}))
	require.NoError(t, store.Save(ctx, Verification{ID: "ver_3", CustomerID: "cust-1", CreatedAt: time.Now().Add(2 * time.Second)}))

	mine, err := svc.List(ctx, "cust-1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "ver_3", mine[0].ID)
	assert.Equal(t, "ver_1", mine[1].ID)

	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

// failingAuditStore rejects every append so trail-write failures can be
// observed at the service boundary.
type failingAuditStore struct{}

func (failingAuditStore) Append(context.Context, audit.Entry) error {
	return errors.New("audit store unavailable")
}

func (failingAuditStore) ListByEntity(context.Context, string, string) ([]audit.Entry, error) {
	return nil, nil
}

func TestVerifyFailsWhenTrailWriteFails(t *testing.T) {
	svc := newTestService(t, NewInMemoryStore(), failingAuditStore{})
	dir := t.TempDir()

	_, err := svc.Verify(context.Background(), VerifyRequest{
		CustomerID:    "cust-1",
		DocumentPathA: writeFixtureImage(t, dir, "a.png", 300),
		DocumentPathB: writeFixtureImage(t, dir, "b.png", 400),
	})
	require.Error(t, err)
	assert.ErrorContains(t, err, "audit store unavailable")
}

func TestWorstQualityScore(t *testing.T) {
	good := DocumentResult{Quality: quality.Report{Success: true, Score: 90}}
	poor := DocumentResult{Quality: quality.Report{Success: true, Score: 40}}
	failed := DocumentResult{Quality: quality.Report{Success: false, Score: 70}}

	assert.Equal(t, 90, WorstQualityScore([]DocumentResult{good}))
	assert.Equal(t, 40, WorstQualityScore([]DocumentResult{good, poor}))
	assert.Equal(t, 0, WorstQualityScore([]DocumentResult{good, failed}))
}

package ocr

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEngine struct {
	tokens []Token
	err    error
}

func (s *stubEngine) Recognize(context.Context, image.Image) ([]Token, error) {
	return s.tokens, s.err
}

func testImage() image.Image {
	return image.NewNRGBA(image.Rect(0, 0, 10, 10))
}

func newTestExtractor(engine Engine) *Extractor {
	return NewExtractor(engine, LinearCalibrator{BaselineAccuracy: 95}, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestExtractCalibratesAndAverages(t *testing.T) {
	x := newTestExtractor(&stubEngine{tokens: []Token{
		{Text: "john", Confidence: 100},
		{Text: "doe", Confidence: 60},
	}})

	res := x.Extract(context.Background(), testImage())

	require.True(t, res.Success)
	require.Len(t, res.Tokens, 2)
	assert.InDelta(t, 95.0, res.Tokens[0].ConfidenceCalibrated, 1e-9)
	assert.InDelta(t, 57.0, res.Tokens[1].ConfidenceCalibrated, 1e-9)
	assert.InDelta(t, 76.0, res.OverallConfidence, 1e-9)
	// Raw engine confidence survives for audit.
	assert.Equal(t, 100.0, res.Tokens[0].Confidence)
}

func TestExtractEngineFailureIsFailSoft(t *testing.T) {
	x := newTestExtractor(&stubEngine{err: errors.New("tesseract exploded")})

	res := x.Extract(context.Background(), testImage())

	assert.False(t, res.Success)
	assert.Empty(t, res.Tokens)
	assert.Zero(t, res.OverallConfidence)
}

func TestExtractNoTokensIsFailure(t *testing.T) {
	x := newTestExtractor(&stubEngine{})

	res := x.Extract(context.Background(), testImage())

	assert.False(t, res.Success)
}

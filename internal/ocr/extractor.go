package ocr

import (
	"context"
	"image"
	"log/slog"
)

// ExtractionResult is the outcome of one recognition pass. Recognition
// failure is a reportable outcome (Success=false, no tokens, confidence 0),
// never an error that escapes the component.
type ExtractionResult struct {
	Success           bool    `json:"success"`
	Tokens            []Token `json:"extractions"`
	OverallConfidence float64 `json:"overall_confidence"`
}

// Extractor runs the engine and calibrates its output.
type Extractor struct {
	engine     Engine
	calibrator Calibrator
	logger     *slog.Logger
}

// NewExtractor wires an extractor from its engine and calibration strategy.
func NewExtractor(engine Engine, calibrator Calibrator, logger *slog.Logger) *Extractor {
	return &Extractor{engine: engine, calibrator: calibrator, logger: logger}
}

// Extract recognizes text in the image with per-token calibrated confidence.
func (x *Extractor) Extract(ctx context.Context, img image.Image) ExtractionResult {
	tokens, err := x.engine.Recognize(ctx, img)
	if err != nil {
		x.logger.WarnContext(ctx, "ocr recognition failed", "error", err)
		return ExtractionResult{Success: false}
	}
	if len(tokens) == 0 {
		return ExtractionResult{Success: false}
	}

	tokens = CalibrateTokens(tokens, x.calibrator)

	var sum float64
	for _, t := range tokens {
		sum += t.ConfidenceCalibrated
	}
	return ExtractionResult{
		Success:           true,
		Tokens:            tokens,
		OverallConfidence: sum / float64(len(tokens)),
	}
}

package ocr

// Calibrator rescales an engine's native confidence so that downstream
// consumers see scores approximating true empirical accuracy. OCR engines
// differ wildly in native confidence behavior, so this stays a pluggable
// strategy.
type Calibrator interface {
	Calibrate(raw float64) float64
}

// LinearCalibrator scales raw confidence by the engine's known baseline
// accuracy: an engine that is right 95% of the time at full confidence maps
// raw 100 onto calibrated 95.
type LinearCalibrator struct {
	BaselineAccuracy float64
}

// Calibrate applies the linear rescale, clamped to [0,100].
func (c LinearCalibrator) Calibrate(raw float64) float64 {
	v := raw * c.BaselineAccuracy / 100
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// CalibrateTokens returns a copy of tokens with ConfidenceCalibrated filled
// in. Raw confidence is preserved on every token.
func CalibrateTokens(tokens []Token, c Calibrator) []Token {
	out := make([]Token, len(tokens))
	for i, t := range tokens {
		t.ConfidenceCalibrated = c.Calibrate(t.Confidence)
		out[i] = t
	}
	return out
}

package quality

import "veridoc/pkg/domain"

// Metric is one axis's measurement. Value units are axis-specific (DPI,
// percent, degrees, luminance); Severity is the shared three-valued
// classification and Status a human label for review screens.
type Metric struct {
	Value    float64         `json:"value"`
	Severity domain.Severity `json:"severity"`
	Status   string          `json:"status"`
	// Methods lists the underlying estimators that contributed to the value.
	// Only populated for ensemble metrics (blur).
	Methods []string `json:"methods,omitempty"`
}

// Report is the full quality assessment of one document image. Immutable
// after creation. A failed decode yields Success=false with Error set and no
// metrics; this is a reportable outcome, not a crash.
type Report struct {
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	Path       string `json:"path"`
	Resolution Metric `json:"resolution"`
	Contrast   Metric `json:"contrast"`
	Skew       Metric `json:"skew"`
	Blur       Metric `json:"blur"`
	Brightness Metric `json:"brightness"`
	// SkewAngle keeps the signed estimate for the enhancer; Skew.Value is the
	// magnitude used for severity.
	SkewAngle float64 `json:"skew_angle"`
	// Score is the composite legibility score in [0,100].
	Score int `json:"score"`
}

// Severities returns the five axis severities for aggregation.
func (r Report) Severities() []domain.Severity {
	return []domain.Severity{
		r.Resolution.Severity,
		r.Contrast.Severity,
		r.Skew.Severity,
		r.Blur.Severity,
		r.Brightness.Severity,
	}
}

// compositeScore folds axis severities into a single score. Each YELLOW costs
// 10 points and each RED costs 30, so strictly more RED axes can never score
// higher than strictly fewer, all else equal.
func compositeScore(severities []domain.Severity) int {
	score := 100
	for _, s := range severities {
		switch s {
		case domain.SeverityYellow:
			score -= 10
		case domain.SeverityRed:
			score -= 30
		}
	}
	if score < 0 {
		score = 0
	}
	return score
}

func statusFor(s domain.Severity) string {
	switch s {
	case domain.SeverityGreen:
		return "good"
	case domain.SeverityYellow:
		return "acceptable"
	default:
		return "poor"
	}
}

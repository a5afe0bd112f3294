// Package risk folds every severity flag raised during verification into a
// risk tier and the decision that tier mandates.
package risk

import (
	"veridoc/internal/platform/config"
	"veridoc/pkg/domain"
)

// Counts tallies severity flags by color.
type Counts struct {
	Red    int `json:"red"`
	Yellow int `json:"yellow"`
	Green  int `json:"green"`
}

// CountFlags tallies a flag list.
func CountFlags(flags []domain.Severity) Counts {
	var c Counts
	for _, f := range flags {
		switch f {
		case domain.SeverityRed:
			c.Red++
		case domain.SeverityYellow:
			c.Yellow++
		case domain.SeverityGreen:
			c.Green++
		}
	}
	return c
}

// Result is the risk verdict for one verification.
type Result struct {
	Tier         domain.RiskTier `json:"tier"`
	Decision     domain.Decision `json:"decision"`
	RedCount     int             `json:"red_count"`
	YellowCount  int             `json:"yellow_count"`
	QualityScore float64         `json:"quality_score"`
}

// Assessor applies the tier boundary policy. The same flags always yield the
// same tier; the assessor holds no state beyond configuration.
type Assessor struct {
	cfg config.Risk
}

// NewAssessor builds an assessor with the given tier boundaries.
func NewAssessor(cfg config.Risk) *Assessor {
	return &Assessor{cfg: cfg}
}

// Assess maps flag counts onto a tier and its paired decision. Boundaries are
// checked worst-first so a verification lands in the highest tier any rule
// puts it in.
func (a *Assessor) Assess(flags []domain.Severity, qualityScore float64) Result {
	c := CountFlags(flags)
	tier := a.tierFor(c)
	return Result{
		Tier:         tier,
		Decision:     domain.DecisionForTier(tier),
		RedCount:     c.Red,
		YellowCount:  c.Yellow,
		QualityScore: qualityScore,
	}
}

func (a *Assessor) tierFor(c Counts) domain.RiskTier {
	switch {
	case c.Red >= a.cfg.Tier3MinRed || c.Yellow >= a.cfg.Tier3MinYellow:
		return domain.RiskTierHigh
	case c.Red >= 1 || c.Yellow > a.cfg.Tier1MaxYellow:
		return domain.RiskTierModerate
	default:
		return domain.RiskTierLow
	}
}

// Package config builds the engine configuration from the environment.
//
// Every threshold recognized by the engine lives here with its default, so
// operators can retune quality, risk, and matching policy without code
// changes. Malformed values are a startup failure, never a per-request one.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr string `validate:"required"`
}

// Database configures the optional postgres persistence layer. Empty URL
// selects the in-memory stores.
type Database struct {
	URL string
}

// Redis configures the optional verification read cache.
type Redis struct {
	URL      string
	CacheTTL time.Duration `validate:"gt=0"`
}

// Kafka configures the optional audit event sink.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// OCR configures the text recognition engine and its confidence calibration.
type OCR struct {
	TesseractCmd string `validate:"required"`
	// BaselineAccuracy is the engine's known empirical accuracy in percent,
	// used to rescale its native (typically overconfident) scores.
	BaselineAccuracy float64 `validate:"gt=0,lte=100"`
}

// Quality holds the per-axis thresholds for document quality assessment.
type Quality struct {
	DPIMin    float64 `validate:"gt=0"`
	DPITarget float64 `validate:"gtefield=DPIMin"`

	ContrastMin    float64 `validate:"gte=0,lte=100"`
	ContrastTarget float64 `validate:"gtefield=ContrastMin,lte=100"`

	SkewTargetDegrees float64 `validate:"gte=0"`
	SkewMaxDegrees    float64 `validate:"gtefield=SkewTargetDegrees"`

	BlurTarget float64 `validate:"gte=0,lte=100"`
	BlurMax    float64 `validate:"gtefield=BlurTarget,lte=100"`

	BrightnessMin       float64 `validate:"gte=0,lte=255"`
	BrightnessTargetMin float64 `validate:"gtefield=BrightnessMin,lte=255"`
	BrightnessTargetMax float64 `validate:"gtefield=BrightnessTargetMin,lte=255"`
	BrightnessMax       float64 `validate:"gtefield=BrightnessTargetMax,lte=255"`
}

// Risk holds the tier boundary counts for the decision policy.
type Risk struct {
	Tier1MaxYellow int `validate:"gte=0"`
	Tier3MinRed    int `validate:"gte=1"`
	Tier3MinYellow int `validate:"gte=1"`
}

// Match holds the fuzzy comparison policy.
type Match struct {
	AcceptanceThreshold float64 `validate:"gt=0,lte=1"`
	GreenMinSimilarity  float64 `validate:"gt=0,lte=1"`
	YellowMinSimilarity float64 `validate:"gt=0,ltefield=GreenMinSimilarity"`
}

// Pipeline bounds the per-verification processing stages.
type Pipeline struct {
	StageTimeout time.Duration `validate:"gt=0"`
}

// Config is the full engine configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    Redis
	Kafka    Kafka
	OCR      OCR
	Quality  Quality
	Risk     Risk
	Match    Match
	Pipeline Pipeline
}

// DefaultQuality returns the stock quality thresholds.
func DefaultQuality() Quality {
	return Quality{
		DPIMin:              100,
		DPITarget:           200,
		ContrastMin:         60,
		ContrastTarget:      75,
		SkewTargetDegrees:   1,
		SkewMaxDegrees:      5,
		BlurTarget:          30,
		BlurMax:             40,
		BrightnessMin:       30,
		BrightnessTargetMin: 50,
		BrightnessTargetMax: 200,
		BrightnessMax:       225,
	}
}

// DefaultRisk returns the stock tier boundaries.
func DefaultRisk() Risk {
	return Risk{Tier1MaxYellow: 0, Tier3MinRed: 2, Tier3MinYellow: 3}
}

// DefaultMatch returns the stock fuzzy matching policy.
func DefaultMatch() Match {
	return Match{AcceptanceThreshold: 0.80, GreenMinSimilarity: 0.98, YellowMinSimilarity: 0.80}
}

// FromEnv builds and validates the configuration. A malformed or out-of-range
// value here is fatal for the process; the engine never starts with bad
// thresholds and never discovers them per-request.
func FromEnv() (Config, error) {
	var p envParser
	cfg := p.parse()
	if p.err != nil {
		return Config{}, p.err
	}
	if err := validator.New().Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// envParser accumulates the first parse failure so every lookup stays a
// one-liner at the call site.
type envParser struct {
	err error
}

func (p *envParser) parse() Config {
	return Config{
		Server:   Server{Addr: envString("VERIDOC_ADDR", ":8080")},
		Database: Database{URL: os.Getenv("DATABASE_URL")},
		Redis: Redis{
			URL:      os.Getenv("REDIS_URL"),
			CacheTTL: p.duration("VERIDOC_CACHE_TTL", 5*time.Minute),
		},
		Kafka: Kafka{
			Brokers:    envList("KAFKA_BROKERS"),
			AuditTopic: envString("KAFKA_AUDIT_TOPIC", "veridoc.audit"),
		},
		OCR: OCR{
			TesseractCmd:     envString("TESSERACT_CMD", "tesseract"),
			BaselineAccuracy: p.float("OCR_BASELINE_ACCURACY", 95),
		},
		Quality: Quality{
			DPIMin:              p.float("QUALITY_DPI_MIN", 100),
			DPITarget:           p.float("QUALITY_DPI_TARGET", 200),
			ContrastMin:         p.float("QUALITY_CONTRAST_MIN", 60),
			ContrastTarget:      p.float("QUALITY_CONTRAST_TARGET", 75),
			SkewTargetDegrees:   p.float("QUALITY_SKEW_TARGET", 1),
			SkewMaxDegrees:      p.float("QUALITY_SKEW_MAX", 5),
			BlurTarget:          p.float("QUALITY_BLUR_TARGET", 30),
			BlurMax:             p.float("QUALITY_BLUR_MAX", 40),
			BrightnessMin:       p.float("QUALITY_BRIGHTNESS_MIN", 30),
			BrightnessTargetMin: p.float("QUALITY_BRIGHTNESS_TARGET_MIN", 50),
			BrightnessTargetMax: p.float("QUALITY_BRIGHTNESS_TARGET_MAX", 200),
			BrightnessMax:       p.float("QUALITY_BRIGHTNESS_MAX", 225),
		},
		Risk: Risk{
			Tier1MaxYellow: p.integer("RISK_TIER1_MAX_YELLOW", 0),
			Tier3MinRed:    p.integer("RISK_TIER3_MIN_RED", 2),
			Tier3MinYellow: p.integer("RISK_TIER3_MIN_YELLOW", 3),
		},
		Match: Match{
			AcceptanceThreshold: p.float("MATCH_ACCEPTANCE_THRESHOLD", 0.80),
			GreenMinSimilarity:  p.float("MATCH_GREEN_MIN", 0.98),
			YellowMinSimilarity: p.float("MATCH_YELLOW_MIN", 0.80),
		},
		Pipeline: Pipeline{
			StageTimeout: p.duration("PIPELINE_STAGE_TIMEOUT", 30*time.Second),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (p *envParser) float(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid configuration: %s=%q is not a number", key, v)
	}
	return f
}

func (p *envParser) integer(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid configuration: %s=%q is not an integer", key, v)
	}
	return n
}

func (p *envParser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("invalid configuration: %s=%q is not a duration", key, v)
	}
	return d
}

func envList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

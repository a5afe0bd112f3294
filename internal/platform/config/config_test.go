package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "veridoc.audit", cfg.Kafka.AuditTopic)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.Equal(t, "tesseract", cfg.OCR.TesseractCmd)
	assert.Equal(t, 95.0, cfg.OCR.BaselineAccuracy)
	assert.Equal(t, DefaultQuality(), cfg.Quality)
	assert.Equal(t, DefaultRisk(), cfg.Risk)
	assert.Equal(t, DefaultMatch(), cfg.Match)
	assert.Equal(t, 30*time.Second, cfg.Pipeline.StageTimeout)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("VERIDOC_ADDR", ":9999")
	t.Setenv("RISK_TIER1_MAX_YELLOW", "1")
	t.Setenv("MATCH_GREEN_MIN", "0.95")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092,")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "5s")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.Addr)
	assert.Equal(t, 1, cfg.Risk.Tier1MaxYellow)
	assert.Equal(t, 0.95, cfg.Match.GreenMinSimilarity)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5*time.Second, cfg.Pipeline.StageTimeout)
}

func TestFromEnvMalformedValue(t *testing.T) {
	t.Setenv("QUALITY_DPI_MIN", "not-a-number")

	_, err := FromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "QUALITY_DPI_MIN")
}

func TestFromEnvOutOfRangeValue(t *testing.T) {
	t.Run("mismatch bands must be ordered", func(t *testing.T) {
		t.Setenv("MATCH_GREEN_MIN", "0.5")
		t.Setenv("MATCH_YELLOW_MIN", "0.9")

		_, err := FromEnv()
		require.Error(t, err)
	})

	t.Run("calibration baseline is a percentage", func(t *testing.T) {
		t.Setenv("OCR_BASELINE_ACCURACY", "150")

		_, err := FromEnv()
		require.Error(t, err)
	})
}

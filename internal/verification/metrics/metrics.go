package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification pipeline.
type Metrics struct {
	// Per-document stage latencies
	StageLatency *prometheus.HistogramVec

	// Decisions by outcome
	Decisions *prometheus.CounterVec

	// Full pipeline latency
	PipelineLatency prometheus.Histogram
}

// New creates a Metrics instance with all verification pipeline metrics
// registered.
func New() *Metrics {
	return &Metrics{
		StageLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "veridoc_verification_stage_duration_seconds",
			Help:    "Duration of per-document pipeline stages",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}), // stage: "quality", "enhance", "ocr"

		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "veridoc_verification_decisions_total",
			Help: "Total verification decisions by outcome",
		}, []string{"decision"}),

		PipelineLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "veridoc_verification_pipeline_duration_seconds",
			Help:    "Duration of the full verification pipeline",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// ObserveStageLatency records the duration of one pipeline stage.
func (m *Metrics) ObserveStageLatency(stage string, d time.Duration) {
	if m != nil {
		m.StageLatency.WithLabelValues(stage).Observe(d.Seconds())
	}
}

// IncrementDecision records a verification outcome.
func (m *Metrics) IncrementDecision(decision string) {
	if m != nil {
		m.Decisions.WithLabelValues(decision).Inc()
	}
}

// ObservePipelineLatency records the total pipeline duration.
func (m *Metrics) ObservePipelineLatency(d time.Duration) {
	if m != nil {
		m.PipelineLatency.Observe(d.Seconds())
	}
}

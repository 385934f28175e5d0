// Package prometheus exposes classification metrics. A Metrics interface
// decouples the engine from the collector so tests and library users can
// inject a no-op sink.
package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records classification activity.
type Metrics interface {
	// ObserveClassification records one finished classification with its
	// terminal match type, outcome, and wall time.
	ObserveClassification(matchType string, isStandard bool, duration time.Duration)
	// ObserveStageScore records the raw score a stage produced.
	ObserveStageScore(stage string, score float64)
	// IncStageFailure counts an internal stage error.
	IncStageFailure(stage string)
	// IncOverride counts a business-rule veto, by the match type it vetoed.
	IncOverride(matchType string)
}

type promMetrics struct {
	classifications *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	stageScores     *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	overrides       *prometheus.CounterVec
}

// NewMetrics registers collectors on the given registerer and returns the
// recording handle. Pass prometheus.DefaultRegisterer for the default
// registry.
func NewMetrics(reg prometheus.Registerer) Metrics {
	factory := promauto.With(reg)
	return &promMetrics{
		classifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clauseguard",
			Name:      "classifications_total",
			Help:      "Finished classifications by terminal match type and outcome.",
		}, []string{"match_type", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clauseguard",
			Name:      "classification_duration_seconds",
			Help:      "Wall time of one attribute classification.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"match_type"}),
		stageScores: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clauseguard",
			Name:      "stage_score",
			Help:      "Raw similarity scores produced by each cascade stage.",
			Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
		}, []string{"stage"}),
		stageFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clauseguard",
			Name:      "stage_failures_total",
			Help:      "Internal stage errors converted into rejected results.",
		}, []string{"stage"}),
		overrides: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clauseguard",
			Name:      "business_rule_overrides_total",
			Help:      "Business-rule vetoes of accepted matches, by match type.",
		}, []string{"match_type"}),
	}
}

func (m *promMetrics) ObserveClassification(matchType string, isStandard bool, duration time.Duration) {
	outcome := "non_standard"
	if isStandard {
		outcome = "standard"
	}
	m.classifications.WithLabelValues(matchType, outcome).Inc()
	m.duration.WithLabelValues(matchType).Observe(duration.Seconds())
}

func (m *promMetrics) ObserveStageScore(stage string, score float64) {
	m.stageScores.WithLabelValues(stage).Observe(score)
}

func (m *promMetrics) IncStageFailure(stage string) {
	m.stageFailures.WithLabelValues(stage).Inc()
}

func (m *promMetrics) IncOverride(matchType string) {
	m.overrides.WithLabelValues(matchType).Inc()
}

type nopMetrics struct{}

// NewNopMetrics returns a Metrics that records nothing.
func NewNopMetrics() Metrics { return nopMetrics{} }

func (nopMetrics) ObserveClassification(string, bool, time.Duration) {}
func (nopMetrics) ObserveStageScore(string, float64)                 {}
func (nopMetrics) IncStageFailure(string)                            {}
func (nopMetrics) IncOverride(string)                                {}

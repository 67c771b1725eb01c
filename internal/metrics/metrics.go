// Package metrics provides Prometheus instrumentation for integrityd.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the engine's Prometheus collectors.
type Metrics struct {
	AnalysesTotal       prometheus.Counter
	AnalysisErrors      prometheus.Counter
	ClassifierFallbacks prometheus.Counter
	ActivitiesFlagged   *prometheus.CounterVec
	AnalysisDuration    prometheus.Histogram
	ArchiveFailures     prometheus.Counter
}

// New creates and registers the collectors on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "integrityd",
			Name:      "analyses_total",
			Help:      "Completed analysis calls.",
		}),
		AnalysisErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "integrityd",
			Name:      "analysis_errors_total",
			Help:      "Analysis calls rejected or failed.",
		}),
		ClassifierFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "integrityd",
			Name:      "classifier_fallbacks_total",
			Help:      "Classifications resolved by the local heuristic.",
		}),
		ActivitiesFlagged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "integrityd",
			Name:      "activities_flagged_total",
			Help:      "Suspicious activities emitted, by kind.",
		}, []string{"kind"}),
		AnalysisDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "integrityd",
			Name:      "analysis_duration_seconds",
			Help:      "Wall time per analysis call.",
			Buckets:   prometheus.DefBuckets,
		}),
		ArchiveFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "integrityd",
			Name:      "archive_failures_total",
			Help:      "Best-effort text archival failures (analysis unaffected).",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AnalysesTotal,
			m.AnalysisErrors,
			m.ClassifierFallbacks,
			m.ActivitiesFlagged,
			m.AnalysisDuration,
			m.ArchiveFailures,
		)
	}
	return m
}

// Package metrics implements Prometheus metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// AnalysesTotal counts completed analyses by pipeline.
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pcaplens_analyses_total",
			Help: "Total number of completed capture analyses",
		},
		[]string{"pipeline"},
	)

	// FramesProcessedTotal counts frames folded into summaries.
	FramesProcessedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcaplens_frames_processed_total",
			Help: "Total number of frames processed across all analyses",
		},
	)

	// AnomaliesDetectedTotal counts anomaly rules that fired.
	AnomaliesDetectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcaplens_anomalies_detected_total",
			Help: "Total number of anomalies detected across all analyses",
		},
	)

	// AnalysisDurationSeconds measures wall-clock analysis latency.
	AnalysisDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "pcaplens_analysis_duration_seconds",
			Help:    "Wall-clock duration of capture analyses in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 16), // 1ms to ~32s
		},
	)

	// CacheHitsTotal counts summary cache hits in the analyzer service.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcaplens_cache_hits_total",
			Help: "Total number of analyzer result cache hits",
		},
	)

	// PublishErrorsTotal counts failed summary publishes.
	PublishErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pcaplens_publish_errors_total",
			Help: "Total number of failed summary publishes",
		},
	)
)

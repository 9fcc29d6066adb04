package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_analyses_total",
			Help: "Total number of CV analysis requests by outcome",
		},
		[]string{"outcome"},
	)

	CacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cv_cache_lookups_total",
			Help: "Total number of analysis cache lookups by tier and result",
		},
		[]string{"tier", "result"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cv_analysis_duration_seconds",
			Help:    "Duration of CV analysis requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"cached"},
	)

	PersistFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cv_analysis_persist_failures_total",
			Help: "Total number of scored reports that could not be persisted",
		},
	)

	BatchJobsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "cv_batch_jobs_active",
			Help: "Number of batch analysis jobs currently being processed",
		},
	)
)

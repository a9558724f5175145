package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// JobsProcessed counts jobs by type and terminal status.
	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_jobs_processed_total",
			Help: "Total number of jobs driven to a terminal state",
		},
		[]string{"type", "status"},
	)

	// JobDuration tracks end-to-end processing time per job type.
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_job_duration_seconds",
			Help:    "Job processing duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)

	// AICalls counts upstream AI calls by service and outcome.
	AICalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_ai_calls_total",
			Help: "Total number of upstream AI calls",
		},
		[]string{"service", "outcome"},
	)

	// AIRetries counts retry attempts against upstream AI services.
	AIRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_ai_retries_total",
			Help: "Total number of retried upstream AI calls",
		},
		[]string{"service"},
	)

	// CreditsMoved tracks ledger movement by entry type.
	CreditsMoved = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_credits_moved_total",
			Help: "Absolute credit amounts appended to the ledger",
		},
		[]string{"entry_type"},
	)

	// RateLimited counts rejected requests per limiter category.
	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"category"},
	)
)

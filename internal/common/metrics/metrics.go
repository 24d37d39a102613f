// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of jobs currently being processed",
		},
		[]string{"task_type"},
	)

	LeadsScored = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leads_scored_total",
			Help: "Total number of leads scored, by intent tier",
		},
		[]string{"tier"},
	)

	ScoreAdvisories = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lead_score_advisories_total",
			Help: "Total number of scoring advisories, by code",
		},
		[]string{"code"},
	)

	LeadScoreDistribution = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "lead_final_score",
			Help:    "Distribution of final lead scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	ClassifierRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_requests_total",
			Help: "Total classifier API calls, by outcome",
		},
		[]string{"status"},
	)
)

package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(jobsProcessedTotal, jobDurationSeconds, jobsStaleFailedTotal, jobFallbacksTotal) }

var jobsProcessedTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "jobs_processed_total",
		Help: "Total number of jobs processed, labeled by tool type and terminal status.",
	},
	[]string{"tool_type", "status"}, // 'completed', 'failed'
)

var jobDurationSeconds = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Wall-clock duration of job execution.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
	},
	[]string{"tool_type"},
)

var jobsStaleFailedTotal = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "jobs_stale_failed_total",
		Help: "Jobs force-failed by the stale-job reaper.",
	},
)

var jobFallbacksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "job_fallbacks_total",
		Help: "Executions that switched to a secondary path after primary degradation.",
	},
	[]string{"tool_type"},
)

func IncJob(toolType, status string) {
	jobsProcessedTotal.WithLabelValues(norm(toolType), norm(status)).Inc()
}

func ObserveJobDuration(toolType string, seconds float64) {
	jobDurationSeconds.WithLabelValues(norm(toolType)).Observe(seconds)
}

func IncStaleFailed(n int) {
	jobsStaleFailedTotal.Add(float64(n))
}

func IncFallback(toolType string) {
	jobFallbacksTotal.WithLabelValues(norm(toolType)).Inc()
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcomes recorded on erp_cron_job_runs_total.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeSkipped = "skipped"
)

// CronJobMetrics records cron-worker job runs. A nil receiver is a no-op.
type CronJobMetrics struct {
	duration    *prometheus.HistogramVec
	runs        *prometheus.CounterVec
	lastSuccess *prometheus.GaugeVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return nil
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "erp_cron_job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900},
	}, []string{"job"})
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "erp_cron_job_runs_total",
		Help: "Cron job runs by outcome. skipped means another worker held the lock.",
	}, []string{"job", "outcome"})
	lastSuccess := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "erp_cron_job_last_success_timestamp_seconds",
		Help: "Unix time of the last successful run of each job.",
	}, []string{"job"})
	reg.MustRegister(duration, runs, lastSuccess)
	return &CronJobMetrics{duration: duration, runs: runs, lastSuccess: lastSuccess}
}

// Observe records one completed run.
func (c *CronJobMetrics) Observe(job string, elapsed time.Duration, err error, finished time.Time) {
	if c == nil {
		return
	}
	job = normalizeLabel(job)
	c.duration.WithLabelValues(job).Observe(elapsed.Seconds())
	if err != nil {
		c.runs.WithLabelValues(job, OutcomeFailure).Inc()
		return
	}
	c.runs.WithLabelValues(job, OutcomeSuccess).Inc()
	c.lastSuccess.WithLabelValues(job).Set(float64(finished.Unix()))
}

func (c *CronJobMetrics) Skipped(job string) {
	if c == nil {
		return
	}
	c.runs.WithLabelValues(normalizeLabel(job), OutcomeSkipped).Inc()
}

func normalizeLabel(job string) string {
	if job == "" {
		return "unknown"
	}
	return job
}

// RetentionMetrics counts what the query retention sweep removed.
type RetentionMetrics struct {
	purged       prometheus.Counter
	fileFailures prometheus.Counter
}

func NewRetentionMetrics(reg prometheus.Registerer) *RetentionMetrics {
	if reg == nil {
		return nil
	}
	purged := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "erp_retention_queries_purged_total",
		Help: "Soft-deleted queries hard-deleted by the retention sweep.",
	})
	fileFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "erp_retention_attachment_failures_total",
		Help: "Attachments of purged queries that could not be removed.",
	})
	reg.MustRegister(purged, fileFailures)
	return &RetentionMetrics{purged: purged, fileFailures: fileFailures}
}

func (r *RetentionMetrics) Purged(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.purged.Add(float64(n))
}

func (r *RetentionMetrics) FileFailures(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.fileFailures.Add(float64(n))
}

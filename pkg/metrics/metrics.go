package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// AutoReplyMetrics records outcomes of the inbound auto-reply pipeline.
type AutoReplyMetrics struct {
	outcomes   *prometheus.CounterVec
	generation prometheus.Histogram
}

// NewAutoReplyMetrics registers the auto-reply metrics on the provided registerer.
func NewAutoReplyMetrics(reg prometheus.Registerer) *AutoReplyMetrics {
	if reg == nil {
		return &AutoReplyMetrics{}
	}
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "auto_reply_outcomes_total",
		Help: "Auto-reply pipeline outcomes by result.",
	}, []string{"outcome"})
	generation := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "auto_reply_generation_seconds",
		Help:    "Duration of reply generation calls in seconds.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(outcomes, generation)
	return &AutoReplyMetrics{
		outcomes:   outcomes,
		generation: generation,
	}
}

// IncOutcome increments the counter for the named pipeline outcome
// (sent, fallback, denied_<reason>, failed).
func (m *AutoReplyMetrics) IncOutcome(outcome string) {
	if m == nil || m.outcomes == nil {
		return
	}
	m.outcomes.WithLabelValues(normalizeLabel(outcome)).Inc()
}

// ObserveGeneration records how long a generation call took.
func (m *AutoReplyMetrics) ObserveGeneration(duration time.Duration) {
	if m == nil || m.generation == nil {
		return
	}
	m.generation.Observe(duration.Seconds())
}

// CronJobMetrics records metadata for scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCronJobMetrics registers the cron job metrics on the provided registerer.
func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "job_duration_seconds",
		Help:    "Duration of cron jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_success",
		Help: "Successful cron job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "job_failure",
		Help: "Failed cron job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// ObserveDuration records the duration for the named job.
func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

// IncSuccess increments the success counter for the named job.
func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

// IncFailure increments the failure counter for the named job.
func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

func normalizeLabel(label string) string {
	if label == "" {
		return "unknown"
	}
	return label
}

package scheduler

import (
	"time"

	"github.com/contaspagar/backend/internal/domain/payables"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	resultSent    = "sent"
	resultRetried = "retried"
	resultFailed  = "failed"
	resultDropped = "dropped"

	scanResultSuccess = "success"
	scanResultPartial = "partial"
	scanResultFailed  = "failed"
	scanResultSkipped = "skipped"
)

// Metrics exposes worker pool and status scan health to Prometheus.
// A nil *Metrics records nothing.
type Metrics struct {
	jobsEnqueued  *prometheus.CounterVec
	jobsProcessed *prometheus.CounterVec
	jobDuration   *prometheus.HistogramVec
	queueDepth    prometheus.Gauge
	scanRuns      *prometheus.CounterVec
	scanDuration  prometheus.Histogram
	lastScan      prometheus.Gauge
}

// NewMetrics creates the scheduler collectors and registers them.
// A nil registerer uses the default registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		jobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contaspagar_notification_jobs_enqueued_total",
			Help: "Notifications accepted by the delivery queue.",
		}, []string{"kind"}),
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contaspagar_notification_jobs_processed_total",
			Help: "Notification delivery attempts by outcome.",
		}, []string{"kind", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "contaspagar_notification_job_duration_seconds",
			Help:    "Latency of a single delivery attempt.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 30},
		}, []string{"kind"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contaspagar_notification_queue_depth",
			Help: "Notifications waiting for a worker.",
		}),
		scanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "contaspagar_status_scan_runs_total",
			Help: "Scheduled status scans by result.",
		}, []string{"result"}),
		scanDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "contaspagar_status_scan_duration_seconds",
			Help:    "Duration of scheduled status scans.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		lastScan: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "contaspagar_status_scan_last_success_timestamp_seconds",
			Help: "Unix time of the last scheduled scan that finished without errors.",
		}),
	}

	registerer.MustRegister(
		m.jobsEnqueued,
		m.jobsProcessed,
		m.jobDuration,
		m.queueDepth,
		m.scanRuns,
		m.scanDuration,
		m.lastScan,
	)
	return m
}

func (m *Metrics) jobEnqueued(kind payables.NotificationKind) {
	if m == nil {
		return
	}
	m.jobsEnqueued.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) jobProcessed(kind payables.NotificationKind, result string) {
	if m == nil {
		return
	}
	m.jobsProcessed.WithLabelValues(string(kind), result).Inc()
}

func (m *Metrics) observeDuration(kind payables.NotificationKind, d time.Duration) {
	if m == nil {
		return
	}
	m.jobDuration.WithLabelValues(string(kind)).Observe(d.Seconds())
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) scanFinished(result string, d time.Duration, at time.Time) {
	if m == nil {
		return
	}
	m.scanRuns.WithLabelValues(result).Inc()
	if result == scanResultSkipped {
		return
	}
	m.scanDuration.Observe(d.Seconds())
	if result == scanResultSuccess {
		m.lastScan.Set(float64(at.Unix()))
	}
}

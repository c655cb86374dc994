package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// dispatch engine.
type Metrics struct {
	MessagesSent prometheus.Counter
	JobFailures  *prometheus.CounterVec // labels: reason={fetch,forecast,send,canceled,other}
	BatchRunning prometheus.Gauge
	JobsStaged   prometheus.Gauge

	JobDuration   prometheus.Histogram
	MessageLength prometheus.Histogram
}

// NewMetrics creates and registers all dispatch metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		MessagesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "saro_sms",
			Name:      "messages_sent_total",
			Help:      "Total SMS accepted by the outbound gateway.",
		}),
		JobFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saro_sms",
			Name:      "job_failures_total",
			Help:      "Total settled jobs that failed, by failure reason.",
		}, []string{"reason"}),
		BatchRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saro_sms",
			Name:      "batch_running",
			Help:      "1 while a batch is dispatching, 0 otherwise.",
		}),
		JobsStaged: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "saro_sms",
			Name:      "jobs_staged",
			Help:      "Number of jobs staged for the current batch.",
		}),
		JobDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "saro_sms",
			Name:      "job_duration_seconds",
			Help:      "Duration of one fetch-render-send job, excluding its stagger delay.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		MessageLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "saro_sms",
			Name:      "message_length_chars",
			Help:      "Length of rendered SMS bodies in characters.",
			Buckets:   []float64{40, 80, 120, 140, 150, 160},
		}),
	}

	prometheus.MustRegister(
		m.MessagesSent,
		m.JobFailures,
		m.BatchRunning,
		m.JobsStaged,
		m.JobDuration,
		m.MessageLength,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		MessagesSent:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: "saro_sms", Name: "messages_sent_total"}),
		JobFailures:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "saro_sms", Name: "job_failures_total"}, []string{"reason"}),
		BatchRunning:  prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "saro_sms", Name: "batch_running"}),
		JobsStaged:    prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "saro_sms", Name: "jobs_staged"}),
		JobDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "saro_sms", Name: "job_duration_seconds"}),
		MessageLength: prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "saro_sms", Name: "message_length_chars"}),
	}
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	pulsesStored   *prometheus.CounterVec
	marketsCreated prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		pulsesStored: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_pulses_stored_total",
				Help: "Total number of pulse records stored, by kind",
			},
			[]string{"kind"},
		),
		marketsCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "marketpulse_markets_created_total",
				Help: "Total number of markets created",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPulseStored records a stored pulse of a kind.
func (r *Recorder) RecordPulseStored(kind string) {
	r.pulsesStored.WithLabelValues(kind).Inc()
}

// RecordMarketCreated records a created market.
func (r *Recorder) RecordMarketCreated() {
	r.marketsCreated.Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

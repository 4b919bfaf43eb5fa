package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	upstreamLatency *prometheus.HistogramVec
	upstreamErrors  *prometheus.CounterVec
	sourceStatus    *prometheus.CounterVec
	quoteDecisions  *prometheus.CounterVec
	events          *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	lastSpot        *prometheus.GaugeVec
	latency         *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder registered on reg. A nil reg
// uses the default registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		upstreamLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskportal_upstream_duration_seconds",
				Help:    "Duration of calls to external services",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
			},
			[]string{"service", "operation"},
		),
		upstreamErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskportal_upstream_errors_total",
				Help: "Failed calls to external services",
			},
			[]string{"service", "operation"},
		),
		sourceStatus: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskportal_risk_source_total",
				Help: "Risk aggregation source outcomes",
			},
			[]string{"source", "status"},
		),
		quoteDecisions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskportal_quote_decisions_total",
				Help: "Quote records moved to a terminal status",
			},
			[]string{"status"},
		),
		events: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskportal_events_total",
				Help: "Desk events by outcome",
			},
			[]string{"type", "outcome"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deskportal_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastSpot: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "deskportal_last_spot",
				Help: "Last spot price fetched for a pair",
			},
			[]string{"pair"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deskportal_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordUpstream records one call to an external service.
func (r *Recorder) RecordUpstream(service, op string, seconds float64, err error) {
	r.upstreamLatency.WithLabelValues(service, op).Observe(seconds)
	if err != nil {
		r.upstreamErrors.WithLabelValues(service, op).Inc()
	}
}

// RecordSourceStatus records the outcome of one risk source.
func (r *Recorder) RecordSourceStatus(source, status string) {
	r.sourceStatus.WithLabelValues(source, status).Inc()
}

// RecordQuoteDecision counts quote records moved to status.
func (r *Recorder) RecordQuoteDecision(status string, count int) {
	r.quoteDecisions.WithLabelValues(status).Add(float64(count))
}

// RecordEvent counts a desk event outcome (published, dropped, failed, stored).
func (r *Recorder) RecordEvent(eventType, outcome string) {
	r.events.WithLabelValues(eventType, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastSpot records the last spot price for a pair.
func (r *Recorder) RecordLastSpot(pair string, price float64) {
	r.lastSpot.WithLabelValues(pair).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

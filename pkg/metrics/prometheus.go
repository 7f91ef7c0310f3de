package metrics

import (
	"PivotScreener/internal/domain/models"
	"PivotScreener/internal/domain/repository"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	screened  *prometheus.CounterVec
	category  *prometheus.GaugeVec
	failures  *prometheus.CounterVec
	lastClose *prometheus.GaugeVec
	latency   *prometheus.HistogramVec
}

var _ repository.Metrics = (*Recorder)(nil)

// New creates a recorder registered on the default Prometheus registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		screened: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_screener_symbols_screened_total",
				Help: "Symbols screened, by resulting category",
			},
			[]string{"category"},
		),
		category: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pivot_screener_symbol_category",
				Help: "Latest category per symbol (0 undetermined, 1 completely bearish, 2 completely bullish, 3 gradually bullish)",
			},
			[]string{"symbol"},
		),
		failures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pivot_screener_failures_total",
				Help: "Per-symbol failures by diagnostic kind",
			},
			[]string{"kind"},
		),
		lastClose: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pivot_screener_last_close",
				Help: "Close of the most recent bar for a symbol",
			},
			[]string{"symbol"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pivot_screener_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordScreened records one screened symbol and its category.
func (r *Recorder) RecordScreened(symbol string, category models.Category) {
	r.screened.WithLabelValues(category.String()).Inc()
	r.category.WithLabelValues(symbol).Set(float64(category))
}

// RecordFailure records a per-symbol failure.
func (r *Recorder) RecordFailure(kind string) {
	r.failures.WithLabelValues(kind).Inc()
}

// RecordLastClose records the last close for a symbol.
func (r *Recorder) RecordLastClose(symbol string, price float64) {
	r.lastClose.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

// Nop discards all measurements.
type Nop struct{}

var _ repository.Metrics = Nop{}

func (Nop) RecordScreened(string, models.Category) {}
func (Nop) RecordFailure(string)                   {}
func (Nop) RecordLastClose(string, float64)        {}
func (Nop) RecordLatency(string, float64)          {}

package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Exchange holds per-endpoint instrumentation for the upstream market data API.
type Exchange struct {
	Latency *prometheus.HistogramVec
	Errors  *prometheus.CounterVec
	Retries *prometheus.CounterVec
}

// NewExchange builds the collectors and registers them on reg. Registering
// twice on the same registry returns the existing collectors.
func NewExchange(reg prometheus.Registerer) *Exchange {
	m := &Exchange{
		Latency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pivot_screener",
				Subsystem: "exchange",
				Name:      "latency_seconds",
				Help:      "Latency of upstream exchange endpoints",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pivot_screener",
				Subsystem: "exchange",
				Name:      "errors_total",
				Help:      "Failed upstream requests by endpoint and class",
			},
			[]string{"endpoint", "class"},
		),
		Retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pivot_screener",
				Subsystem: "exchange",
				Name:      "retries_total",
				Help:      "Retried upstream requests by endpoint",
			},
			[]string{"endpoint"},
		),
	}
	if reg == nil {
		return m
	}
	m.Latency = register(reg, m.Latency).(*prometheus.HistogramVec)
	m.Errors = register(reg, m.Errors).(*prometheus.CounterVec)
	m.Retries = register(reg, m.Retries).(*prometheus.CounterVec)
	return m
}

func register(reg prometheus.Registerer, c prometheus.Collector) prometheus.Collector {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			return are.ExistingCollector
		}
		panic(err)
	}
	return c
}

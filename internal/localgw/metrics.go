package localgw

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Invocation outcomes recorded by Metrics.
const (
	OutcomeSuccess   = "success"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Metrics holds the Prometheus metrics of the local gateway.
type Metrics struct {
	InvocationsTotal   *prometheus.CounterVec
	InvocationDuration *prometheus.HistogramVec
	ActiveConnections  prometheus.Gauge
}

// NewMetrics creates and registers all metrics with the given registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		InvocationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "lambdahttp",
				Subsystem: "local",
				Name:      "invocations_total",
				Help:      "Total number of function invocations made by the local gateway",
			},
			[]string{"origin", "outcome"}, // outcome=success/malformed/error
		),
		InvocationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "lambdahttp",
				Subsystem: "local",
				Name:      "invocation_duration_seconds",
				Help:      "Function invocation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"origin"},
		),
		ActiveConnections: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Namespace: "lambdahttp",
				Subsystem: "local",
				Name:      "websocket_connections",
				Help:      "Number of open WebSocket connections",
			},
		),
	}
}

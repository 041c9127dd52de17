package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/codewandler/asys-go/adapters/nats"
	"github.com/codewandler/asys-go/core/metrics"
)

// gatewayMetrics implements nats.GatewayMetrics using Prometheus.
type gatewayMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestsTotal   *prometheus.CounterVec
	decodeErrors    *prometheus.CounterVec
}

// NewGatewayMetrics creates a new Prometheus implementation of GatewayMetrics.
func NewGatewayMetrics(reg prometheus.Registerer) nats.GatewayMetrics {
	m := &gatewayMetrics{
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "asys_gateway_request_duration_seconds",
			Help:    "Gateway request duration in seconds",
			Buckets: defaultBuckets,
		}, []string{"subject"}),

		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asys_gateway_requests_total",
			Help: "Total number of gateway requests by outcome",
		}, []string{"subject", "outcome"}),

		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "asys_gateway_decode_errors_total",
			Help: "Total number of requests that could not be decoded",
		}, []string{"subject"}),
	}

	reg.MustRegister(
		m.requestDuration,
		m.requestsTotal,
		m.decodeErrors,
	)

	return m
}

func (m *gatewayMetrics) RequestDuration(subject string) metrics.Timer {
	return newTimer(m.requestDuration.WithLabelValues(subject))
}

func (m *gatewayMetrics) RequestCompleted(subject, outcome string) {
	m.requestsTotal.WithLabelValues(subject, outcome).Inc()
}

func (m *gatewayMetrics) DecodeError(subject string) {
	m.decodeErrors.WithLabelValues(subject).Inc()
}

var _ nats.GatewayMetrics = (*gatewayMetrics)(nil)

package nats

import "github.com/codewandler/asys-go/core/metrics"

// Outcome label values of GatewayMetrics.RequestCompleted.
const (
	OutcomeOK         = "ok"
	OutcomeTimeout    = "timeout"
	OutcomeUnresolved = "unresolved"
	OutcomeShutdown   = "shutdown"
	OutcomeError      = "error"
)

// GatewayMetrics observes requests served by a Gateway.
type GatewayMetrics interface {
	RequestDuration(subject string) metrics.Timer
	RequestCompleted(subject, outcome string)
	DecodeError(subject string)
}

type nopGatewayMetrics struct{}

func (nopGatewayMetrics) RequestDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopGatewayMetrics) RequestCompleted(string, string)     {}
func (nopGatewayMetrics) DecodeError(string)                  {}

// NopGatewayMetrics returns a GatewayMetrics that records nothing.
func NopGatewayMetrics() GatewayMetrics { return nopGatewayMetrics{} }

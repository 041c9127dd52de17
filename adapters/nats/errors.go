package nats

import "errors"

var (
	ErrGatewayClosed = errors.New("nats gateway closed")
	ErrClientClosed  = errors.New("nats client closed")
)

// RemoteError is an error returned by the actor behind a Gateway.
type RemoteError struct {
	Code string
	Msg  string
}

func (e *RemoteError) Error() string { return "remote: " + e.Msg }

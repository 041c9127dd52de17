package actor

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout is matched by every AskTimeoutError.
	ErrTimeout = errors.New("ask timed out")
	// ErrUnresolvedAddress is returned for targets that are unknown or stopped.
	ErrUnresolvedAddress = errors.New("unresolved actor address")
	// ErrShutdown is returned by any operation issued after Shutdown began,
	// and resolves asks that were pending when it did.
	ErrShutdown = errors.New("actor system shutting down")
	// ErrSelfAsk is returned when a handler asks its own actor, which
	// could only end in a timeout.
	ErrSelfAsk = errors.New("actor cannot ask itself from its own handler")
	// ErrNoHandler is returned by Handlers for payloads without a handler.
	ErrNoHandler = errors.New("no handler for message")

	errPanicked = errors.New("handler panicked")
)

// AskTimeoutError is returned by Ask when no correlated reply arrived before
// the deadline.
type AskTimeoutError struct {
	Target  Address
	Timeout time.Duration
}

func (e *AskTimeoutError) Error() string {
	return fmt.Sprintf("ask to %s timed out after %v", e.Target, e.Timeout)
}

func (e *AskTimeoutError) Is(target error) bool { return target == ErrTimeout }

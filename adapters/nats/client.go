package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/asys-go/core/actor"
)

type ClientConfig struct {
	Connect Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)
	// Timeout applies to requests whose context has no deadline. Default: 5s.
	Timeout time.Duration
}

// Client sends requests to actors served by a Gateway.
type Client struct {
	nc      *natsgo.Conn
	closeNc closeFunc
	log     *slog.Logger
	timeout time.Duration
	closed  atomic.Bool
}

func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Connect == nil {
		cfg.Connect = ConnectDefault()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	nc, closeNc, err := cfg.Connect()
	if err != nil {
		return nil, fmt.Errorf("nats client: connect: %w", err)
	}
	return &Client{
		nc:      nc,
		closeNc: closeNc,
		log:     cfg.Log.With(slog.String("client", "nats")),
		timeout: cfg.Timeout,
	}, nil
}

// Request sends data to subject and returns the reply body. Errors of the
// remote actor are returned as *RemoteError; remote ask timeouts also match
// actor.ErrTimeout and a subject nobody serves matches
// actor.ErrUnresolvedAddress.
func (c *Client) Request(ctx context.Context, subject string, data []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrClientClosed
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	switch {
	case errors.Is(err, natsgo.ErrNoResponders):
		return nil, fmt.Errorf("%w: %s: %w", actor.ErrUnresolvedAddress, subject, err)
	case err != nil:
		return nil, fmt.Errorf("nats: request: %w", err)
	}

	var rf responseFrame
	if err := json.Unmarshal(msg.Data, &rf); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if rf.Err != "" {
		re := &RemoteError{Code: rf.Code, Msg: rf.Err}
		c.log.Debug("remote error", slog.String("subject", subject), slog.String("code", rf.Code), slog.String("error", rf.Err))
		switch rf.Code {
		case OutcomeTimeout:
			return nil, fmt.Errorf("%w: %w", actor.ErrTimeout, re)
		case OutcomeUnresolved:
			return nil, fmt.Errorf("%w: %w", actor.ErrUnresolvedAddress, re)
		case OutcomeShutdown:
			return nil, fmt.Errorf("%w: %w", actor.ErrShutdown, re)
		}
		return nil, re
	}
	return rf.Data, nil
}

func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	c.closeNc()
	return nil
}

package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	natsgo "github.com/nats-io/nats.go"

	"github.com/codewandler/asys-go/core/actor"
)

// GatewayConfig configures a Gateway.
type GatewayConfig struct {
	Connect Connector    // Connect is used to create the underlying NATS connection. If nil, ConnectDefault() is used.
	Log     *slog.Logger // Log for diagnostics (optional)

	System  *actor.System
	Target  actor.Address
	Subject string
	Queue   string // Queue group; gateways sharing it split the requests

	// Timeout bounds each Ask. If 0, the system's default ask timeout is used.
	Timeout time.Duration
	// MaxInflight caps concurrent requests. Default: 64.
	MaxInflight int

	// Decode turns a request into the payload sent to Target.
	// Default: the request body as a string.
	Decode func(msg *natsgo.Msg) (any, error)
	// Encode turns the reply into the response body.
	// Default: strings and byte slices as-is, everything else as JSON.
	Encode  func(reply any) ([]byte, error)
	Metrics GatewayMetrics
}

// Gateway serves an actor on a NATS subject: every request is asked of
// the target actor and its reply published back to the requester.
type Gateway struct {
	cfg     GatewayConfig
	log     *slog.Logger
	nc      *natsgo.Conn
	closeNc closeFunc
	sub     *natsgo.Subscription
	sched   actor.Scheduler

	cancel    context.CancelFunc
	stopAfter func() bool
	closeOnce sync.Once
}

// responseFrame is the response encoding shared by Gateway and Client.
type responseFrame struct {
	Data []byte `json:"data,omitempty"`
	Err  string `json:"err,omitempty"`
	Code string `json:"code,omitempty"`
}

// NewGateway subscribes to cfg.Subject. The gateway is closed when ctx is
// cancelled or Close is called.
func NewGateway(ctx context.Context, cfg GatewayConfig) (*Gateway, error) {
	if cfg.System == nil {
		return nil, errors.New("nats gateway: system is nil")
	}
	if cfg.Target.IsZero() {
		return nil, errors.New("nats gateway: target is zero")
	}
	if cfg.Subject == "" {
		return nil, errors.New("nats gateway: subject is empty")
	}
	if cfg.Connect == nil {
		cfg.Connect = ConnectDefault()
	}
	if cfg.Log == nil {
		cfg.Log = slog.Default()
	}
	if cfg.MaxInflight <= 0 {
		cfg.MaxInflight = 64
	}
	if cfg.Decode == nil {
		cfg.Decode = decodeString
	}
	if cfg.Encode == nil {
		cfg.Encode = encodeReply
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NopGatewayMetrics()
	}

	nc, closeNc, err := cfg.Connect()
	if err != nil {
		return nil, fmt.Errorf("nats gateway: connect: %w", err)
	}

	ctx, cancel := context.WithCancel(ctx)
	g := &Gateway{
		cfg:     cfg,
		log:     cfg.Log.With(slog.String("gateway", "nats"), slog.String("subject", cfg.Subject)),
		nc:      nc,
		closeNc: closeNc,
		sched:   actor.NewScheduler(ctx, cfg.MaxInflight),
		cancel:  cancel,
	}

	handler := func(msg *natsgo.Msg) {
		g.sched.Schedule(func(ctx context.Context) { g.serve(ctx, msg) })
	}
	if cfg.Queue != "" {
		g.sub, err = nc.QueueSubscribe(cfg.Subject, cfg.Queue, handler)
	} else {
		g.sub, err = nc.Subscribe(cfg.Subject, handler)
	}
	if err != nil {
		cancel()
		closeNc()
		return nil, fmt.Errorf("nats gateway: subscribe: %w", err)
	}
	if err := nc.Flush(); err != nil {
		_ = g.Close()
		return nil, fmt.Errorf("nats gateway: flush: %w", err)
	}

	g.stopAfter = context.AfterFunc(ctx, func() { _ = g.Close() })
	g.log.Info("nats gateway serving", slog.Any("target", cfg.Target))
	return g, nil
}

func (g *Gateway) serve(ctx context.Context, msg *natsgo.Msg) {
	defer g.cfg.Metrics.RequestDuration(g.cfg.Subject).ObserveDuration()

	payload, err := g.cfg.Decode(msg)
	if err != nil {
		g.cfg.Metrics.DecodeError(g.cfg.Subject)
		g.log.Warn("failed to decode request", slog.Any("error", err))
		g.respond(msg, responseFrame{Err: err.Error(), Code: OutcomeError})
		return
	}

	reply, err := g.cfg.System.Ask(ctx, g.cfg.Target, payload, g.cfg.Timeout)
	if err == nil {
		if rerr, ok := reply.(error); ok {
			err = rerr
		}
	}

	var rf responseFrame
	if err != nil {
		rf = responseFrame{Err: err.Error(), Code: outcomeOf(err)}
	} else if rf.Data, err = g.cfg.Encode(reply); err != nil {
		rf = responseFrame{Err: fmt.Sprintf("encode reply: %s", err), Code: OutcomeError}
	} else {
		rf.Code = OutcomeOK
	}

	g.cfg.Metrics.RequestCompleted(g.cfg.Subject, rf.Code)
	g.respond(msg, rf)
}

func (g *Gateway) respond(msg *natsgo.Msg, rf responseFrame) {
	if msg.Reply == "" {
		return
	}
	b, err := json.Marshal(rf)
	if err != nil {
		g.log.Error("failed to encode response", slog.Any("error", err))
		return
	}
	if err := msg.Respond(b); err != nil {
		g.log.Error("failed to publish reply", slog.Any("error", err))
	}
}

// Close unsubscribes, waits for in-flight requests and releases the
// connection.
func (g *Gateway) Close() error {
	err := ErrGatewayClosed
	g.closeOnce.Do(func() {
		err = nil
		if g.stopAfter != nil {
			g.stopAfter()
		}
		if g.sub != nil {
			err = g.sub.Unsubscribe()
		}
		g.cancel()
		g.sched.Wait()
		g.closeNc()
		g.log.Info("nats gateway closed")
	})
	return err
}

func outcomeOf(err error) string {
	switch {
	case errors.Is(err, actor.ErrTimeout):
		return OutcomeTimeout
	case errors.Is(err, actor.ErrUnresolvedAddress):
		return OutcomeUnresolved
	case errors.Is(err, actor.ErrShutdown):
		return OutcomeShutdown
	default:
		return OutcomeError
	}
}

func decodeString(msg *natsgo.Msg) (any, error) {
	return string(msg.Data), nil
}

func encodeReply(reply any) ([]byte, error) {
	switch v := reply.(type) {
	case nil:
		return nil, nil
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

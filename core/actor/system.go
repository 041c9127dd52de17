package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Options configures a System. Zero values are replaced by defaults.
type Options struct {
	// Name identifies the system in logs. Default: "asys-<random>".
	Name string
	// Context bounds the lifetime of every actor. Default: context.Background().
	Context context.Context
	// Logger receives the runtime's diagnostic events. Default: slog.Default().
	Logger  *slog.Logger
	Metrics ActorMetrics
	OnPanic OnPanic
	// MaxConcurrentTasks caps each actor's scheduled workers. If 0, 32 is used;
	// negative means unlimited.
	MaxConcurrentTasks int
	// DefaultAskTimeout is used by Ask when called with a timeout <= 0.
	// Default: 5s.
	DefaultAskTimeout time.Duration
}

// Stats is a point-in-time snapshot of system counters.
type Stats struct {
	Actors        int
	Sent          int64
	Processed     int64
	Failed        int64
	Undeliverable int64
	AsksPending   int
	AskTimeouts   int64
	LateReplies   int64
}

// System creates actors, routes messages between them and answers Ask.
// All methods are safe for concurrent use from any goroutine.
type System struct {
	name    string
	opts    Options
	log     *slog.Logger
	metrics ActorMetrics
	onPanic OnPanic

	ctx    context.Context
	cancel context.CancelFunc

	mu     sync.RWMutex
	cells  map[Address]*cell
	// stopping holds stopped cells whose loop has not exited yet
	stopping map[Address]*cell
	closed bool

	pending   *pendingAsks
	wg        sync.WaitGroup
	done      chan struct{}
	once      sync.Once
	stopAfter func() bool

	stats struct {
		sent          atomic.Int64
		processed     atomic.Int64
		failed        atomic.Int64
		undeliverable atomic.Int64
		timeouts      atomic.Int64
		lateReplies   atomic.Int64
	}
}

// NewSystem creates a running System.
func NewSystem(opts Options) *System {
	if opts.Name == "" {
		opts.Name = "asys-" + gonanoid.Must(6)
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopActorMetrics()
	}
	if opts.MaxConcurrentTasks == 0 {
		opts.MaxConcurrentTasks = 32
	}
	if opts.DefaultAskTimeout <= 0 {
		opts.DefaultAskTimeout = 5 * time.Second
	}

	log := opts.Logger.With(slog.String("system", opts.Name))
	if opts.OnPanic == nil {
		opts.OnPanic = func(addr Address, recovered any, stack []byte, msg any) {
			log.Error("actor panicked",
				slog.Any(LogKeyAddress, addr),
				slog.Any("recovered", recovered),
				slog.String("stack", string(stack)),
				slog.Any("msg", msg),
			)
		}
	}

	ctx, cancel := context.WithCancel(opts.Context)

	s := &System{
		name:    opts.Name,
		opts:    opts,
		log:     log,
		metrics: opts.Metrics,
		onPanic: opts.OnPanic,
		ctx:     ctx,
		cancel:  cancel,
		cells:    make(map[Address]*cell),
		stopping: make(map[Address]*cell),
		pending: newPendingAsks(),
		done:    make(chan struct{}),
	}

	// cancelling the parent context shuts the system down
	s.stopAfter = context.AfterFunc(opts.Context, func() {
		_ = s.Shutdown(context.Background())
	})

	s.log.Info("actor system started")
	return s
}

func (s *System) Name() string { return s.name }

// CreateActor allocates an Address and Mailbox, starts the processing
// goroutine and returns at once; f runs on that goroutine.
func (s *System) CreateActor(f Factory) (Address, error) {
	if f == nil {
		return Address{}, errors.New("actor factory is nil")
	}
	addr := newActorAddress()
	c := newCell(s, addr)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		c.cancel()
		return Address{}, ErrShutdown
	}
	s.cells[addr] = c
	n := len(s.cells)
	s.wg.Add(1)
	s.mu.Unlock()

	s.metrics.ActorsLive(n)
	go c.run(f)

	c.log.Debug("actor created")
	return addr, nil
}

// Send delivers msg to target without a sender.
func (s *System) Send(target Address, msg any) error {
	return s.SendWithSender(target, msg, Address{})
}

// SendWithSender enqueues msg for target and returns without waiting for
// delivery. It never blocks on the target. Unknown or stopped targets yield
// ErrUnresolvedAddress and the message is dropped. Sends to the reply
// address of an already resolved Ask are dropped silently.
func (s *System) SendWithSender(target Address, msg any, sender Address) error {
	if s.isClosed() {
		s.undeliverable(target, msg, sender, ErrShutdown)
		return ErrShutdown
	}
	if target.IsReply() {
		s.reply(target, msg, sender)
		return nil
	}

	c, err := s.resolve(target)
	if err == nil && !c.mailbox.Enqueue(newEnvelope(sender, msg)) {
		err = ErrUnresolvedAddress
	}
	if err != nil {
		s.undeliverable(target, msg, sender, err)
		return err
	}

	s.stats.sent.Add(1)
	s.metrics.MailboxDepth(target.id, c.mailbox.Len())
	s.debug(sender, "message sent",
		slog.Any("target", target),
		slog.String("msg_type", msgTypeOf(msg)),
	)
	return nil
}

func (s *System) reply(target Address, msg any, sender Address) {
	if s.pending.resolve(target.corr, askResult{value: msg}) {
		s.stats.sent.Add(1)
		return
	}
	s.stats.lateReplies.Add(1)
	s.metrics.LateReply()
	s.debug(sender, "late reply dropped",
		slog.Any("reply_to", target),
		slog.String("msg_type", msgTypeOf(msg)),
	)
}

func (s *System) undeliverable(target Address, msg any, sender Address, err error) {
	s.stats.undeliverable.Add(1)
	reason := AskOutcomeUnresolved
	if errors.Is(err, ErrShutdown) {
		reason = AskOutcomeShutdown
	}
	s.metrics.Undeliverable(reason)
	s.debug(sender, "send to unresolved address",
		slog.Any("target", target),
		slog.String("msg_type", msgTypeOf(msg)),
		slog.Any("error", err),
	)
}

// Ask sends msg to target with a one-shot reply address as sender and
// blocks until the target (or any actor it forwards to) sends a reply to
// that address, the timeout elapses, ctx is done or the system shuts down.
// Exactly one of these outcomes is returned; replies arriving later are
// dropped. The timeout runs from the call, not from delivery.
func (s *System) Ask(ctx context.Context, target Address, msg any, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		timeout = s.opts.DefaultAskTimeout
	}
	defer s.metrics.AskDuration().ObserveDuration()

	p, err := s.pending.register(target, timeout)
	if err != nil {
		s.metrics.AskCompleted(AskOutcomeShutdown)
		return nil, err
	}

	timer := time.NewTimer(time.Until(p.deadline))
	defer timer.Stop()

	if err := s.SendWithSender(target, msg, p.reply); err != nil {
		s.pending.resolve(p.corr, askResult{err: err})
	}

	select {
	case res := <-p.result:
		return s.askDone(p, res)
	case <-timer.C:
		s.pending.resolve(p.corr, askResult{err: &AskTimeoutError{Target: target, Timeout: timeout}})
	case <-ctx.Done():
		s.pending.resolve(p.corr, askResult{err: ctx.Err()})
	}

	// Whichever event won the resolve race has written the only result.
	return s.askDone(p, <-p.result)
}

func (s *System) askDone(p *pendingAsk, res askResult) (any, error) {
	switch {
	case res.err == nil:
		s.metrics.AskCompleted(AskOutcomeReply)
	case errors.Is(res.err, ErrTimeout):
		s.stats.timeouts.Add(1)
		s.metrics.AskCompleted(AskOutcomeTimeout)
		s.log.Warn("ask timed out",
			slog.Any(LogKeyAddress, p.target),
			slog.Any("reply_to", p.reply),
			slog.Any("error", res.err),
		)
	case errors.Is(res.err, ErrShutdown):
		s.metrics.AskCompleted(AskOutcomeShutdown)
	case errors.Is(res.err, ErrUnresolvedAddress):
		s.metrics.AskCompleted(AskOutcomeUnresolved)
	default:
		s.metrics.AskCompleted(AskOutcomeCanceled)
	}
	return res.value, res.err
}

// StopActor stops the actor at addr. The address is unresolvable as soon
// as StopActor returns; the message being handled finishes, queued ones are
// discarded. Use Done to wait for the loop to exit.
func (s *System) StopActor(addr Address) error {
	s.mu.Lock()
	c, ok := s.cells[addr]
	if ok {
		delete(s.cells, addr)
		s.stopping[addr] = c
	}
	n := len(s.cells)
	s.mu.Unlock()

	if !ok {
		return ErrUnresolvedAddress
	}
	s.metrics.ActorsLive(n)
	c.stop()
	return nil
}

// Done returns a channel closed once the actor's loop and workers have
// exited. For unknown addresses the channel is already closed.
func (s *System) Done(addr Address) <-chan struct{} {
	s.mu.RLock()
	c, ok := s.cells[addr]
	if !ok {
		c, ok = s.stopping[addr]
	}
	s.mu.RUnlock()
	if ok {
		return c.done
	}
	ch := make(chan struct{})
	close(ch)
	return ch
}

// Shutdown stops every actor and resolves all pending asks with
// ErrShutdown, then waits for processing loops and workers to exit or ctx
// to end. Queued messages are discarded. Safe to call more than once.
func (s *System) Shutdown(ctx context.Context) error {
	s.once.Do(func() {
		s.stopAfter()

		s.mu.Lock()
		s.closed = true
		cells := make([]*cell, 0, len(s.cells))
		for addr, c := range s.cells {
			cells = append(cells, c)
			s.stopping[addr] = c
		}
		s.cells = make(map[Address]*cell)
		s.mu.Unlock()

		s.log.Info("actor system shutting down", slog.Int("actors", len(cells)))

		if n := s.pending.cancelAll(ErrShutdown); n > 0 {
			s.log.Debug("cancelled pending asks", slog.Int("count", n))
		}
		for _, c := range cells {
			c.stop()
		}
		s.metrics.ActorsLive(0)
		s.cancel()

		go func() {
			s.wg.Wait()
			close(s.done)
		}()
	})

	select {
	case <-s.done:
		s.log.Info("actor system shutdown complete")
		return nil
	case <-ctx.Done():
		s.log.Warn("actor system shutdown incomplete", slog.Any("error", ctx.Err()))
		return fmt.Errorf("shutdown: %w", ctx.Err())
	}
}

// Stats returns a snapshot of the system counters.
func (s *System) Stats() Stats {
	s.mu.RLock()
	n := len(s.cells)
	s.mu.RUnlock()
	return Stats{
		Actors:        n,
		Sent:          s.stats.sent.Load(),
		Processed:     s.stats.processed.Load(),
		Failed:        s.stats.failed.Load(),
		Undeliverable: s.stats.undeliverable.Load(),
		AsksPending:   s.pending.Len(),
		AskTimeouts:   s.stats.timeouts.Load(),
		LateReplies:   s.stats.lateReplies.Load(),
	}
}

func (s *System) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

func (s *System) resolve(addr Address) (*cell, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrShutdown
	}
	c, ok := s.cells[addr]
	if !ok {
		return nil, ErrUnresolvedAddress
	}
	return c, nil
}

// release runs when a cell's loop exits.
func (s *System) release(c *cell) {
	c.stop()

	s.mu.Lock()
	if cur, ok := s.cells[c.addr]; ok && cur == c {
		delete(s.cells, c.addr)
		s.stopping[c.addr] = c
	}
	n := len(s.cells)
	closed := s.closed
	s.mu.Unlock()

	if !closed {
		s.metrics.ActorsLive(n)
	}
	c.log.Debug("actor stopped")
}

// forget runs once a cell's loop and workers have exited and done is closed.
func (s *System) forget(c *cell) {
	s.mu.Lock()
	if cur, ok := s.stopping[c.addr]; ok && cur == c {
		delete(s.stopping, c.addr)
	}
	s.mu.Unlock()

	s.metrics.ActorStopped(c.addr.id)
}

// debug logs a per-message event, tagged with the sending actor if any.
func (s *System) debug(sender Address, msg string, attrs ...slog.Attr) {
	ctx := context.Background()
	if !s.log.Enabled(ctx, slog.LevelDebug) {
		return
	}
	if !sender.IsZero() && !sender.IsReply() {
		attrs = append(attrs, slog.Any(LogKeyAddress, sender))
	}
	s.log.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

package actor

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// cell is the runtime side of one actor: its mailbox, its processing
// goroutine and its workers. The behavior itself only exists as a local
// variable of run.
type cell struct {
	addr    Address
	sys     *System
	log     *slog.Logger
	mailbox *Mailbox
	sched   *scheduler

	ctx    context.Context
	cancel context.CancelFunc

	stopOnce sync.Once
	done     chan struct{}
}

func newCell(sys *System, addr Address) *cell {
	ctx, cancel := context.WithCancel(sys.ctx)
	log := sys.log.With(slog.Any(LogKeyAddress, addr))
	return &cell{
		addr:    addr,
		sys:     sys,
		log:     log,
		mailbox: NewMailbox(),
		sched:   newScheduler(ctx, sys.opts.MaxConcurrentTasks, log, addr.id, sys.metrics),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// stop moves the cell to Stopped: the loop finishes its current message
// and exits, queued envelopes are discarded, workers see ctx cancelled.
func (c *cell) stop() {
	c.stopOnce.Do(func() {
		c.cancel()
		if n := c.mailbox.Close(); n > 0 {
			c.log.Debug("discarded queued messages", slog.Int("count", n))
		}
	})
}

func (c *cell) run(factory Factory) {
	defer c.sys.wg.Done()
	defer c.sys.forget(c)
	defer close(c.done)
	defer c.sched.Wait()
	defer c.sys.release(c)

	ac := &actorCtx{Context: c.ctx, c: c}

	behavior, err := c.construct(factory)
	if err != nil {
		c.log.Error("actor construction failed", slog.Any("error", err))
		c.stop()
		return
	}

	if err := c.safeCall("start", nil, func() error { return behavior.OnStart(ac) }); err != nil {
		c.log.Error("actor start failed", slog.Any("error", err))
		c.stop()
		return
	}

	for {
		env, ok := c.mailbox.Dequeue()
		if !ok {
			return
		}
		c.sys.metrics.MailboxDepth(c.addr.id, c.mailbox.Len())
		c.handle(ac, behavior, env)
	}
}

func (c *cell) construct(factory Factory) (behavior Actor, err error) {
	err = c.safeCall("construct", nil, func() error {
		behavior = factory()
		return nil
	})
	if err == nil && behavior == nil {
		err = fmt.Errorf("factory returned nil actor")
	}
	return behavior, err
}

func (c *cell) handle(ac *actorCtx, behavior Actor, env Envelope) {
	mt := msgTypeOf(env.Payload)
	defer c.sys.metrics.MessageDuration(mt).ObserveDuration()

	err := c.safeCall(mt, env.Payload, func() error {
		return behavior.OnMessage(ac, env.Payload, env.Sender)
	})

	c.sys.metrics.MessageProcessed(mt, err == nil)
	c.sys.stats.processed.Add(1)
	if err != nil {
		c.sys.stats.failed.Add(1)
		c.log.Warn("message handler failed",
			slog.String("msg_type", mt),
			slog.Any("sender", env.Sender),
			slog.Any("error", err),
		)
	}
}

// safeCall runs f, turning a panic into an error after reporting it.
func (c *cell) safeCall(mt string, msg any, f func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.sys.metrics.MessagePanic(mt)
			c.sys.onPanic(c.addr, r, debug.Stack(), msg)
			err = fmt.Errorf("%w: %v", errPanicked, r)
		}
	}()
	return f()
}

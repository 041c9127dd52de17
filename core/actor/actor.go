package actor

import (
	"context"
	"log/slog"
	"time"
)

type (
	// Actor is the behavior bound to one Address. Both methods run on the
	// actor's processing goroutine, one call at a time, so the behavior's
	// own fields need no locking. Code scheduled off that goroutine must
	// not touch them; it talks to the actor with Send like anyone else.
	Actor interface {
		// OnStart runs once before the first message. An error stops the actor.
		OnStart(ac Context) error
		// OnMessage handles one envelope. Errors are logged and counted.
		OnMessage(ac Context, msg any, sender Address) error
	}

	// Factory constructs a fresh behavior. It is called on the new actor's
	// processing goroutine, after CreateActor has returned.
	Factory func() Actor

	// OnPanic is called when a factory, OnStart, OnMessage or scheduled
	// task panics.
	OnPanic func(addr Address, recovered any, stack []byte, msg any)

	// Context is an actor's handle on the runtime. Use it from OnStart and
	// OnMessage; worker goroutines should capture Self() and System()
	// instead.
	Context interface {
		context.Context
		Self() Address
		Log() *slog.Logger
		System() *System
		// Send delivers msg to target with this actor as sender.
		Send(target Address, msg any) error
		// Ask queries target and blocks this actor until the reply or timeout.
		Ask(target Address, msg any, timeout time.Duration) (any, error)
		CreateActor(f Factory) (Address, error)
		// Schedule runs f on a worker goroutine bounded by
		// Options.MaxConcurrentTasks.
		Schedule(f TaskFunc)
		// StopSelf stops this actor once the current message is handled.
		StopSelf()
	}
)

// Func adapts a plain function to an Actor with no start logic.
type Func func(ac Context, msg any, sender Address) error

func (f Func) OnStart(Context) error { return nil }

func (f Func) OnMessage(ac Context, msg any, sender Address) error { return f(ac, msg, sender) }

// actorCtx is the Context of one cell.
type actorCtx struct {
	context.Context
	c *cell
}

func (ac *actorCtx) Self() Address     { return ac.c.addr }
func (ac *actorCtx) Log() *slog.Logger { return ac.c.log }
func (ac *actorCtx) System() *System   { return ac.c.sys }

func (ac *actorCtx) Send(target Address, msg any) error {
	return ac.c.sys.SendWithSender(target, msg, ac.c.addr)
}

func (ac *actorCtx) Ask(target Address, msg any, timeout time.Duration) (any, error) {
	if target == ac.c.addr {
		ac.c.sys.metrics.AskCompleted(AskOutcomeSelf)
		return nil, ErrSelfAsk
	}
	return ac.c.sys.Ask(ac, target, msg, timeout)
}

func (ac *actorCtx) CreateActor(f Factory) (Address, error) { return ac.c.sys.CreateActor(f) }
func (ac *actorCtx) Schedule(f TaskFunc)                    { ac.c.sched.Schedule(f) }
func (ac *actorCtx) StopSelf()                              { _ = ac.c.sys.StopActor(ac.c.addr) }

var (
	_ Context = (*actorCtx)(nil)
	_ Actor   = Func(nil)
)

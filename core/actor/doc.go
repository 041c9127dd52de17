// Package actor is an in-process actor runtime: actors with private state,
// unbounded mailboxes, fire-and-forget Send and timeout-bounded Ask.
//
// Each actor:
//   - Is identified by an [Address], a comparable value that becomes
//     unresolvable once the actor stops
//   - Handles its messages one at a time on its own goroutine
//   - Can schedule worker goroutines via [Context.Schedule]
//
// # Creating Actors
//
// Implement [Actor], or build one from typed handlers:
//
//	sys := actor.NewSystem(actor.Options{})
//	defer sys.Shutdown(context.Background())
//
//	hello, _ := sys.CreateActor(actor.Handlers(
//	    actor.Handle[string](func(ac actor.Context, msg string, sender actor.Address) error {
//	        return ac.Send(sender, "Hello")
//	    }),
//	).Factory())
//
// # Sending Messages
//
// [System.Send] enqueues and returns; it never waits for the target.
// [System.Ask] sends with a one-shot reply address as sender and blocks
// until a message is sent to that address, or the timeout elapses:
//
//	greeting, err := sys.Ask(ctx, hello, "are you there?", 5*time.Second)
//	if errors.Is(err, actor.ErrTimeout) {
//	    // no reply in time; a reply arriving now is dropped
//	}
//
// The reply address can be forwarded: any actor may answer it.
//
// # Ordering
//
// Envelopes from one goroutine reach a mailbox in the order that goroutine
// sent them. Nothing orders envelopes from different goroutines, including
// an actor's own workers sending to it while others do too.
//
// # Worker Goroutines
//
// A worker must not touch the behavior's state. It re-enters the actor by
// sending to it:
//
//	self, sys := ac.Self(), ac.System()
//	ac.Schedule(func(ctx context.Context) {
//	    _ = sys.Send(self, start{})
//	})
//
// # Shutdown
//
// [System.Shutdown] resolves pending asks with [ErrShutdown], lets every
// actor finish its current message, discards queued ones and waits for all
// goroutines. Later calls fail fast with ErrShutdown.
package actor

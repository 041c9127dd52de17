package actor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAsk_timeout_bounds(t *testing.T) {
	const timeout = 100 * time.Millisecond
	sys := newTestSystem(t)
	a := mustCreate(t, sys, silent)

	start := time.Now()
	res, err := sys.Ask(t.Context(), a, "anyone?", timeout)
	elapsed := time.Since(start)

	require.Nil(t, res)
	require.ErrorIs(t, err, ErrTimeout)
	var te *AskTimeoutError
	require.ErrorAs(t, err, &te)
	require.Equal(t, a, te.Target)
	require.Equal(t, timeout, te.Timeout)

	require.GreaterOrEqual(t, elapsed, timeout)
	require.Less(t, elapsed, timeout+500*time.Millisecond)

	st := sys.Stats()
	require.EqualValues(t, 1, st.AskTimeouts)
	require.Equal(t, 0, st.AsksPending)
}

func TestAsk_timeout_runs_from_issuance(t *testing.T) {
	sys := newTestSystem(t)

	release := make(chan struct{})
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			if msg == "block" {
				<-release
			}
			return ac.Send(sender, msg)
		})
	})
	defer close(release)
	require.NoError(t, sys.Send(a, "block"))

	// the target is busy and never dequeues the ask before the deadline
	start := time.Now()
	_, err := sys.Ask(t.Context(), a, "queued", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAsk_late_reply_is_dropped(t *testing.T) {
	sys := newTestSystem(t)

	sendErr := make(chan error, 1)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			time.Sleep(300 * time.Millisecond)
			sendErr <- ac.Send(sender, "too late")
			return nil
		})
	})

	start := time.Now()
	res, err := sys.Ask(t.Context(), a, "slow", 100*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)
	require.Nil(t, res)
	require.Less(t, time.Since(start), 300*time.Millisecond)

	select {
	case err := <-sendErr:
		require.NoError(t, err, "late reply is dropped without error")
	case <-time.After(2 * time.Second):
		t.Fatal("actor never replied")
	}
	require.EqualValues(t, 1, sys.Stats().LateReplies)
}

func TestAsk_late_reply_does_not_leak_into_next_ask(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			if msg == "first" {
				time.Sleep(150 * time.Millisecond)
			}
			return ac.Send(sender, msg)
		})
	})

	_, err := sys.Ask(t.Context(), a, "first", 50*time.Millisecond)
	require.ErrorIs(t, err, ErrTimeout)

	res, err := sys.Ask(t.Context(), a, "second", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "second", res)

	require.Eventually(t, func() bool { return sys.Stats().LateReplies == 1 }, time.Second, time.Millisecond)
}

func TestAsk_second_reply_is_dropped(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			if err := ac.Send(sender, "one"); err != nil {
				return err
			}
			return ac.Send(sender, "two")
		})
	})

	res, err := sys.Ask(t.Context(), a, "go", time.Second)
	require.NoError(t, err)
	require.Equal(t, "one", res)
	require.Eventually(t, func() bool { return sys.Stats().LateReplies == 1 }, time.Second, time.Millisecond)
}

func TestAsk_context_cancel(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, silent)

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := sys.Ask(ctx, a, "x", time.Minute)
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 0, sys.Stats().AsksPending)
}

func TestAsk_default_timeout(t *testing.T) {
	sys := newTestSystem(t, func(o *Options) { o.DefaultAskTimeout = 30 * time.Millisecond })
	a := mustCreate(t, sys, silent)

	start := time.Now()
	_, err := sys.Ask(t.Context(), a, "x", 0)
	require.ErrorIs(t, err, ErrTimeout)
	require.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestAsk_between_actors(t *testing.T) {
	sys := newTestSystem(t)
	b := mustCreate(t, sys, echo)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			res, err := ac.Ask(b, msg, time.Second)
			if err != nil {
				return err
			}
			return ac.Send(sender, res.(string)+"!")
		})
	})

	res, err := sys.Ask(t.Context(), a, "Hello", time.Second)
	require.NoError(t, err)
	require.Equal(t, "Hello!", res)
}

func TestAsk_self_from_handler(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			_, err := ac.Ask(ac.Self(), "me?", time.Minute)
			return ac.Send(sender, err)
		})
	})

	start := time.Now()
	res, err := sys.Ask(t.Context(), a, "go", time.Second)
	require.NoError(t, err)
	require.ErrorIs(t, res.(error), ErrSelfAsk)
	require.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAsk_self_from_worker(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, func() Actor {
		return Func(func(ac Context, msg any, sender Address) error {
			if msg == "inner" {
				return ac.Send(sender, "inner done")
			}
			self, sys := ac.Self(), ac.System()
			ac.Schedule(func(ctx context.Context) {
				res, err := sys.Ask(ctx, self, "inner", time.Second)
				if err != nil {
					res = err
				}
				_ = sys.Send(sender, res)
			})
			return nil
		})
	})

	res, err := sys.Ask(t.Context(), a, "outer", 2*time.Second)
	require.NoError(t, err)
	require.Equal(t, "inner done", res)
}

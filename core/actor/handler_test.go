package actor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }

func TestHandlers_dispatch_by_type(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, Handlers(
		Handle[ping](func(ac Context, m ping, sender Address) error {
			return ac.Send(sender, "value")
		}),
		Handle[*ping](func(ac Context, m *ping, sender Address) error {
			return ac.Send(sender, "pointer")
		}),
		Handle[int](func(ac Context, m int, sender Address) error {
			return ac.Send(sender, m*2)
		}),
	).Factory())

	for _, tc := range []struct {
		name string
		msg  any
		want any
	}{
		{"value", ping{N: 1}, "value"},
		{"pointer", &ping{N: 1}, "pointer"},
		{"builtin", 21, 42},
	} {
		t.Run(tc.name, func(t *testing.T) {
			res, err := sys.Ask(t.Context(), a, tc.msg, time.Second)
			require.NoError(t, err)
			require.Equal(t, tc.want, res)
		})
	}
}

func TestHandlers_default(t *testing.T) {
	sys := newTestSystem(t)
	a := mustCreate(t, sys, Handlers(
		Handle[int](func(ac Context, m int, sender Address) error {
			return ac.Send(sender, "int")
		}),
		Default(func(ac Context, msg any, sender Address) error {
			return ac.Send(sender, "default")
		}),
	).Factory())

	res, err := sys.Ask(t.Context(), a, "unknown", time.Second)
	require.NoError(t, err)
	require.Equal(t, "default", res)
}

func TestHandlers_no_handler(t *testing.T) {
	r := Handlers(Handle[int](func(Context, int, Address) error { return nil }))

	err := r.OnMessage(nil, "text", Address{})
	require.ErrorIs(t, err, ErrNoHandler)
	require.Contains(t, err.Error(), "go_type=string")

	// the actor stays alive
	sys := newTestSystem(t)
	a := mustCreate(t, sys, r.Factory())
	require.NoError(t, sys.Send(a, "text"))
	require.Eventually(t, func() bool { return sys.Stats().Failed == 1 }, time.Second, time.Millisecond)
	require.NoError(t, sys.Send(a, 1))
	require.Eventually(t, func() bool { return sys.Stats().Processed == 2 }, time.Second, time.Millisecond)
}

func TestHandlers_OnStart(t *testing.T) {
	t.Run("runs before first message", func(t *testing.T) {
		sys := newTestSystem(t)
		a := mustCreate(t, sys, func() Actor {
			var started bool
			return Handlers(
				OnStart(func(Context) error {
					started = true
					return nil
				}),
				Handle[string](func(ac Context, _ string, sender Address) error {
					return ac.Send(sender, started)
				}),
			)
		})

		res, err := sys.Ask(t.Context(), a, "started?", time.Second)
		require.NoError(t, err)
		require.Equal(t, true, res)
	})

	t.Run("error is wrapped", func(t *testing.T) {
		boom := errors.New("boom")
		r := Handlers(OnStart(func(Context) error { return boom }))
		err := r.OnStart(nil)
		require.ErrorIs(t, err, boom)
		require.ErrorContains(t, err, "failed to init handler")
	})
}

type customType struct{}

func (customType) MsgType() string { return "custom.v1" }

func TestMsgTypeOf(t *testing.T) {
	require.Equal(t, "custom.v1", msgTypeOf(customType{}))
	require.Equal(t, "github.com/codewandler/asys-go/core/actor.ping", msgTypeOf(ping{}))
	require.Equal(t, "github.com/codewandler/asys-go/core/actor.ping", msgTypeOf(&ping{}))
	require.Equal(t, "string", msgTypeOf("x"))
}

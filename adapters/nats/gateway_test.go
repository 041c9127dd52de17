package nats

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/codewandler/asys-go/core/actor"
)

func TestEncodeReply(t *testing.T) {
	for _, tc := range []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"Hello", "Hello"},
		{[]byte("raw"), "raw"},
		{map[string]int{"n": 1}, `{"n":1}`},
	} {
		b, err := encodeReply(tc.in)
		require.NoError(t, err)
		require.Equal(t, tc.want, string(b))
	}
}

func TestOutcomeOf(t *testing.T) {
	require.Equal(t, OutcomeTimeout, outcomeOf(&actor.AskTimeoutError{}))
	require.Equal(t, OutcomeUnresolved, outcomeOf(actor.ErrUnresolvedAddress))
	require.Equal(t, OutcomeShutdown, outcomeOf(actor.ErrShutdown))
	require.Equal(t, OutcomeError, outcomeOf(errors.New("boom")))
}

func TestNewGateway_invalid_config(t *testing.T) {
	sys := actor.NewSystem(actor.Options{Context: t.Context()})

	_, err := NewGateway(t.Context(), GatewayConfig{Subject: "x"})
	require.Error(t, err)
	_, err = NewGateway(t.Context(), GatewayConfig{System: sys, Subject: "x"})
	require.Error(t, err)
}

func TestNats_Gateway(t *testing.T) {
	slog.SetLogLoggerLevel(slog.LevelDebug)

	connect := ReuseConnection(newTestConnector(t))

	sys := actor.NewSystem(actor.Options{Context: t.Context()})
	t.Cleanup(func() { _ = sys.Shutdown(context.Background()) })

	hello, err := sys.CreateActor(actor.Handlers(
		actor.Handle[string](func(ac actor.Context, msg string, sender actor.Address) error {
			switch msg {
			case "are you there?":
				return ac.Send(sender, "Hello")
			case "fail":
				return ac.Send(sender, errors.New("no luck"))
			case "sleep":
				return nil
			}
			return ac.Send(sender, strings.ToUpper(msg))
		}),
	).Factory())
	require.NoError(t, err)

	gw, err := NewGateway(t.Context(), GatewayConfig{
		Connect: connect,
		System:  sys,
		Target:  hello,
		Subject: "test.hello",
		Queue:   "hello",
		Timeout: 100 * time.Millisecond,
	})
	require.NoError(t, err)

	client, err := NewClient(ClientConfig{Connect: connect})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	t.Run("request", func(t *testing.T) {
		res, err := client.Request(t.Context(), "test.hello", []byte("are you there?"))
		require.NoError(t, err)
		require.Equal(t, "Hello", string(res))
	})

	t.Run("concurrent requests", func(t *testing.T) {
		g, ctx := errgroup.WithContext(t.Context())
		for _, w := range []string{"a", "b", "c", "d", "e"} {
			g.Go(func() error {
				res, err := client.Request(ctx, "test.hello", []byte(w))
				if err != nil {
					return err
				}
				if string(res) != strings.ToUpper(w) {
					return errors.New("unexpected reply: " + string(res))
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
	})

	t.Run("error reply", func(t *testing.T) {
		_, err := client.Request(t.Context(), "test.hello", []byte("fail"))
		var re *RemoteError
		require.ErrorAs(t, err, &re)
		require.Equal(t, OutcomeError, re.Code)
		require.Contains(t, re.Msg, "no luck")
	})

	t.Run("ask timeout", func(t *testing.T) {
		_, err := client.Request(t.Context(), "test.hello", []byte("sleep"))
		require.ErrorIs(t, err, actor.ErrTimeout)
	})

	t.Run("no responders", func(t *testing.T) {
		_, err := client.Request(t.Context(), "test.nobody", []byte("hi"))
		require.ErrorIs(t, err, actor.ErrUnresolvedAddress)
	})

	t.Run("close", func(t *testing.T) {
		require.NoError(t, gw.Close())
		require.ErrorIs(t, gw.Close(), ErrGatewayClosed)

		_, err := client.Request(t.Context(), "test.hello", []byte("are you there?"))
		require.ErrorIs(t, err, actor.ErrUnresolvedAddress)
	})
}

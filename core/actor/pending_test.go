package actor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestPendingAsks_resolve_once(t *testing.T) {
	r := newPendingAsks()
	p, err := r.register(Address{id: "actor-x"}, time.Second)
	require.NoError(t, err)
	require.True(t, p.reply.IsReply())
	require.Equal(t, 1, r.Len())

	require.True(t, r.resolve(p.corr, askResult{value: "Hello"}))
	require.False(t, r.resolve(p.corr, askResult{err: ErrTimeout}), "second resolution is a no-op")
	require.Equal(t, 0, r.Len())

	res := <-p.result
	require.Equal(t, "Hello", res.value)
	require.NoError(t, res.err)
	select {
	case <-p.result:
		t.Fatal("result written twice")
	default:
	}
}

func TestPendingAsks_unique_correlation(t *testing.T) {
	r := newPendingAsks()
	a, err := r.register(Address{}, time.Second)
	require.NoError(t, err)
	b, err := r.register(Address{}, time.Second)
	require.NoError(t, err)
	require.NotEqual(t, a.corr, b.corr)
	require.NotEqual(t, a.reply, b.reply)
}

func TestPendingAsks_cancelAll(t *testing.T) {
	r := newPendingAsks()
	a, _ := r.register(Address{}, time.Minute)
	b, _ := r.register(Address{}, time.Minute)

	require.Equal(t, 2, r.cancelAll(ErrShutdown))
	require.ErrorIs(t, (<-a.result).err, ErrShutdown)
	require.ErrorIs(t, (<-b.result).err, ErrShutdown)
	require.False(t, r.resolve(a.corr, askResult{value: "late"}))

	_, err := r.register(Address{}, time.Second)
	require.ErrorIs(t, err, ErrShutdown)
}

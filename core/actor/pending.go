package actor

import (
	"sync"
	"time"
)

type askResult struct {
	value any
	err   error
}

// pendingAsk is one in-flight Ask. result is written exactly once, by
// whichever of reply, timeout, cancellation or shutdown resolves it first.
type pendingAsk struct {
	corr     uint64
	reply    Address
	target   Address
	deadline time.Time
	result   chan askResult
}

// pendingAsks is the registry of in-flight asks keyed by correlation id.
type pendingAsks struct {
	mu     sync.Mutex
	seq    uint64
	asks   map[uint64]*pendingAsk
	closed bool
}

func newPendingAsks() *pendingAsks {
	return &pendingAsks{asks: make(map[uint64]*pendingAsk)}
}

// register allocates a correlation id and reply address for an ask to
// target. It fails with ErrShutdown once cancelAll has run.
func (r *pendingAsks) register(target Address, timeout time.Duration) (*pendingAsk, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrShutdown
	}
	r.seq++
	p := &pendingAsk{
		corr:     r.seq,
		reply:    newReplyAddress(r.seq),
		target:   target,
		deadline: time.Now().Add(timeout),
		result:   make(chan askResult, 1),
	}
	r.asks[p.corr] = p
	return p, nil
}

// resolve completes the ask with res and removes it. It reports false if
// the ask was already resolved, in which case res is dropped.
func (r *pendingAsks) resolve(corr uint64, res askResult) bool {
	r.mu.Lock()
	p, ok := r.asks[corr]
	if ok {
		delete(r.asks, corr)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	p.result <- res
	return true
}

// cancelAll resolves every pending ask with err and rejects new ones.
func (r *pendingAsks) cancelAll(err error) int {
	r.mu.Lock()
	r.closed = true
	asks := r.asks
	r.asks = make(map[uint64]*pendingAsk)
	r.mu.Unlock()

	for _, p := range asks {
		p.result <- askResult{err: err}
	}
	return len(asks)
}

func (r *pendingAsks) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.asks)
}

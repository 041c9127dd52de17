package actor

import "sync"

// Mailbox is an unbounded FIFO of envelopes with any number of producers
// and a single consumer. Envelopes enqueued by one goroutine are dequeued
// in that goroutine's order; there is no order across producers.
type Mailbox struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []Envelope
	closed bool
}

// NewMailbox returns an open, empty mailbox.
func NewMailbox() *Mailbox {
	m := &Mailbox{}
	m.cond = sync.NewCond(&m.mu)
	return m
}

// Enqueue appends env and wakes the consumer. It never blocks on the
// consumer; it returns false if the mailbox is closed.
func (m *Mailbox) Enqueue(env Envelope) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return false
	}
	m.queue = append(m.queue, env)
	m.cond.Signal()
	return true
}

// Dequeue blocks until an envelope is available or the mailbox is closed.
// After Close it returns false, even if envelopes were still queued.
func (m *Mailbox) Dequeue() (Envelope, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for len(m.queue) == 0 && !m.closed {
		m.cond.Wait()
	}
	if m.closed {
		return Envelope{}, false
	}

	env := m.queue[0]
	m.queue[0] = Envelope{}
	m.queue = m.queue[1:]
	if len(m.queue) == 0 {
		// release the backing array once drained
		m.queue = nil
	}
	return env, true
}

// Close stops the mailbox, wakes a blocked consumer and discards whatever
// is still queued. It returns the number of discarded envelopes. Idempotent.
func (m *Mailbox) Close() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0
	}
	m.closed = true
	n := len(m.queue)
	m.queue = nil
	m.cond.Broadcast()
	return n
}

// Len returns the number of queued envelopes.
func (m *Mailbox) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Closed reports whether Close was called.
func (m *Mailbox) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

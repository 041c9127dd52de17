package actor

import "time"

// Envelope is one delivered unit in a mailbox. It is passed by value and
// never modified after enqueue.
type Envelope struct {
	Sender     Address // zero when sent from outside any actor
	Payload    any
	EnqueuedAt time.Time
}

func newEnvelope(sender Address, payload any) Envelope {
	return Envelope{Sender: sender, Payload: payload, EnqueuedAt: time.Now()}
}

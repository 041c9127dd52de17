package actor

import (
	"log/slog"
	"strconv"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// LogKeyAddress is the slog attribute key carrying the originating actor
// address on every diagnostic record the runtime emits.
const LogKeyAddress = "actor_address"

// Address identifies one actor instance. It is comparable and safe to copy;
// two addresses are equal only if they were handed out for the same
// instance. The zero Address means "no actor" (e.g. a send without sender).
type Address struct {
	id string
	// corr is non-zero for the one-shot reply address allocated by Ask.
	corr uint64
}

func newActorAddress() Address {
	return Address{id: "actor-" + gonanoid.Must()}
}

func newReplyAddress(corr uint64) Address {
	return Address{id: "ask-" + strconv.FormatUint(corr, 10) + "-" + gonanoid.Must(8), corr: corr}
}

// IsZero reports whether a is the "no actor" address.
func (a Address) IsZero() bool { return a.id == "" }

// IsReply reports whether a is the reply address of an Ask.
func (a Address) IsReply() bool { return a.corr != 0 }

func (a Address) String() string {
	if a.IsZero() {
		return "<none>"
	}
	return a.id
}

// LogValue implements slog.LogValuer.
func (a Address) LogValue() slog.Value { return slog.StringValue(a.String()) }

var _ slog.LogValuer = Address{}

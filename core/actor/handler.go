package actor

import (
	"fmt"
	"reflect"

	"github.com/codewandler/asys-go/internal/reflector"
)

type (
	// HandlerFunc handles a message whose type has no more specific handler.
	HandlerFunc func(ac Context, msg any, sender Address) error

	// StartFunc runs from OnStart.
	StartFunc func(ac Context) error

	// Registration adds a handler to a Registry.
	// Create these using [Handle], [Default] and [OnStart].
	Registration func(r *Registry)
)

// Registry is an Actor that dispatches each payload by its exact Go type to
// the handler registered for it. It holds no state of its own, so one
// Registry may back any number of actors; keep per-actor state in the
// closure of a Factory instead.
type Registry struct {
	inits    []StartFunc
	handlers map[reflect.Type]HandlerFunc
	fallback HandlerFunc
}

// Handlers builds a Registry from the given registrations.
//
//	actor.Handlers(
//	    actor.Handle[string](func(ac actor.Context, s string, from actor.Address) error {
//	        return ac.Send(from, "Hello")
//	    }),
//	    actor.Default(ignore),
//	)
func Handlers(regs ...Registration) *Registry {
	r := &Registry{
		handlers: make(map[reflect.Type]HandlerFunc),
	}
	for _, reg := range regs {
		reg(r)
	}
	return r
}

// Handle registers fn for payloads of type T. T and *T are distinct.
func Handle[T any](fn func(ac Context, msg T, sender Address) error) Registration {
	ti := reflector.TypeInfoFor[T]()
	return func(r *Registry) {
		r.handlers[ti.Type] = func(ac Context, msg any, sender Address) error {
			m, ok := msg.(T)
			if !ok {
				return fmt.Errorf("invalid message type: %T", msg)
			}
			return fn(ac, m, sender)
		}
	}
}

// Default registers the handler for payloads no other handler matches.
// Without one, such payloads fail with ErrNoHandler.
func Default(fn HandlerFunc) Registration {
	return func(r *Registry) { r.fallback = fn }
}

// OnStart registers fn to run when an actor backed by the registry starts.
func OnStart(fn StartFunc) Registration {
	return func(r *Registry) { r.inits = append(r.inits, fn) }
}

// Factory returns a Factory producing actors backed by r.
func (r *Registry) Factory() Factory {
	return func() Actor { return r }
}

func (r *Registry) OnStart(ac Context) error {
	for _, fn := range r.inits {
		if err := fn(ac); err != nil {
			return fmt.Errorf("failed to init handler: %w", err)
		}
	}
	return nil
}

func (r *Registry) OnMessage(ac Context, msg any, sender Address) error {
	ti := reflector.TypeInfoOf(msg)
	if h, ok := r.handlers[ti.Type]; ok {
		return h(ac, msg, sender)
	}
	if r.fallback != nil {
		return r.fallback(ac, msg, sender)
	}
	return fmt.Errorf("%w: msg_type=%s go_type=%T", ErrNoHandler, ti.Name, msg)
}

var _ Actor = (*Registry)(nil)

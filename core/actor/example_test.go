package actor_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codewandler/asys-go/core/actor"
)

func ExampleSystem_Ask() {
	sys := actor.NewSystem(actor.Options{Logger: slog.New(slog.DiscardHandler)})
	defer sys.Shutdown(context.Background())

	hello, _ := sys.CreateActor(actor.Handlers(
		actor.Handle[string](func(ac actor.Context, msg string, sender actor.Address) error {
			return ac.Send(sender, "Hello")
		}),
	).Factory())

	res, err := sys.Ask(context.Background(), hello, "are you there?", time.Second)
	fmt.Println(res, err)
	// Output: Hello <nil>
}

func ExampleSystem_Ask_timeout() {
	sys := actor.NewSystem(actor.Options{Logger: slog.New(slog.DiscardHandler)})
	defer sys.Shutdown(context.Background())

	silent, _ := sys.CreateActor(func() actor.Actor {
		return actor.Func(func(actor.Context, any, actor.Address) error { return nil })
	})

	_, err := sys.Ask(context.Background(), silent, "anyone?", 10*time.Millisecond)
	fmt.Println(errors.Is(err, actor.ErrTimeout))
	// Output: true
}

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codewandler/asys-go/adapters/nats"
	"github.com/codewandler/asys-go/core/actor"
)

// === Config ===

// NOTE: for BACKEND=nats run a server first: docker run --net=host nats:latest

var (
	logLevel    = slog.LevelWarn
	N           = getEnvInt("N", 100_000)
	batchSize   = getEnvInt("B", 10_000)
	producers   = getEnvInt("P", runtime.NumCPU())
	backendType = getEnv("BACKEND", "mem")
	askTimeout  = getEnvDuration("ASK_TIMEOUT", time.Second)
	useSend     = getEnvBool("SEND_ONLY", false)
)

func getEnvBool(key string, fallback bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return fallback
	}
	return v == "1" || strings.EqualFold(v, "true")
}

func getEnv(key, fallback string) string {
	v, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(getEnv(key, fmt.Sprintf("%d", fallback)))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return fallback
	}
	return v
}

// === Load ===

// asker issues one request against the echo actor.
type asker func(ctx context.Context, i int) error

func main() {
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	fmt.Printf("Backend:   %s\n", backendType)
	fmt.Printf("Producers: %d\n", producers)
	fmt.Printf("Send only: %s\n", strconv.FormatBool(useSend))

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	sys := actor.NewSystem(actor.Options{Context: ctx, Logger: log})
	defer sys.Shutdown(context.Background())

	var received atomic.Int64
	echo, err := sys.CreateActor(func() actor.Actor {
		return actor.Func(func(ac actor.Context, msg any, sender actor.Address) error {
			received.Add(1)
			if sender.IsZero() {
				return nil
			}
			return ac.Send(sender, msg)
		})
	})
	checkErr(err)

	var ask asker
	switch {
	case useSend:
		ask = func(_ context.Context, i int) error { return sys.Send(echo, i) }
	case backendType == "nats":
		ask = natsAsker(ctx, log, sys, echo)
	default:
		ask = func(ctx context.Context, i int) error {
			_, err := sys.Ask(ctx, echo, i, askTimeout)
			return err
		}
	}

	// === START ===

	log.Info("starting", slog.Int("n", N))
	startAt := time.Now()
	lastTime := startAt

	var timeouts atomic.Int64
	for done := 0; done < N; done += batchSize {
		n := min(batchSize, N-done)
		g, gctx := errgroup.WithContext(ctx)
		for p := range producers {
			g.Go(func() error {
				for i := p; i < n; i += producers {
					err := ask(gctx, done+i)
					if errors.Is(err, actor.ErrTimeout) {
						timeouts.Add(1)
						continue
					}
					if err != nil {
						return err
					}
				}
				return nil
			})
		}
		checkErr(g.Wait())

		mu := getMemUsage()
		now := time.Now()
		took := now.Sub(lastTime)
		fmt.Printf(" | %6d asks | %6d ms | %8d asks/s | (%d / %d) MiB mem (sys) |\n", n, took.Milliseconds(), int(float64(n)/took.Seconds()), mu.Alloc/1024/1024, mu.Sys/1024/1024)
		lastTime = now
	}

	// === stats ===
	println("")
	println("==========================================")

	took := time.Since(startAt)
	runtime.GC()
	st := sys.Stats()

	fmt.Printf("total runtime: %.3f seconds\n", took.Seconds())
	fmt.Printf("     received: %d\n", received.Load())
	fmt.Printf("     timeouts: %d\n", timeouts.Load())
	fmt.Printf(" late replies: %d\n", st.LateReplies)
	fmt.Printf("  avg. asks/s: %d\n", int(float64(N)/took.Seconds()))
}

// natsAsker serves echo through a gateway and asks it over NATS.
func natsAsker(ctx context.Context, log *slog.Logger, sys *actor.System, echo actor.Address) asker {
	connect := nats.ReuseConnection(nats.ConnectDefault())
	const subject = "asys.loadtest.echo"

	_, err := nats.NewGateway(ctx, nats.GatewayConfig{
		Connect:     connect,
		Log:         log,
		System:      sys,
		Target:      echo,
		Subject:     subject,
		Timeout:     askTimeout,
		MaxInflight: producers * 2,
	})
	checkErr(err)

	client, err := nats.NewClient(nats.ClientConfig{Connect: connect, Log: log, Timeout: askTimeout})
	checkErr(err)

	return func(ctx context.Context, i int) error {
		_, err := client.Request(ctx, subject, []byte(strconv.Itoa(i)))
		return err
	}
}

// === stats helpers ===

type MemUsage struct {
	Alloc      uint64 // bytes allocated and not yet freed (heap)
	TotalAlloc uint64 // cumulative bytes allocated
	Sys        uint64 // total bytes obtained from OS
	NumGC      uint32 // gc cycles
}

func getMemUsage() MemUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemUsage{
		Alloc:      m.Alloc,
		TotalAlloc: m.TotalAlloc,
		Sys:        m.Sys,
		NumGC:      m.NumGC,
	}
}

func checkErr(err error) {
	if err != nil {
		panic(err)
	}
}

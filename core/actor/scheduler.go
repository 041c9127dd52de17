package actor

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// TaskFunc is work run off the processing loop. ctx is cancelled when the
// owning actor stops or the system shuts down.
type TaskFunc func(ctx context.Context)

// Scheduler runs an actor's worker goroutines.
type Scheduler interface {
	Schedule(f TaskFunc)
	// Wait blocks until all started tasks have returned.
	Wait()
}

type scheduler struct {
	ctx      context.Context
	log      *slog.Logger
	inflight atomic.Int32
	sem      chan struct{}
	max      int

	wg sync.WaitGroup

	actorID string
	metrics ActorMetrics
}

func (s *scheduler) Schedule(f TaskFunc) {
	select {
	case <-s.ctx.Done():
		return
	default:
	}

	s.wg.Add(1)

	if s.max <= 0 {
		go func() {
			defer s.wg.Done()
			s.track(1)
			defer s.track(-1)
			s.runTask(f)
		}()
		return
	}

	go func() {
		defer s.wg.Done()

		select {
		case <-s.ctx.Done():
			return
		case s.sem <- struct{}{}:
		}
		if s.ctx.Err() != nil {
			<-s.sem
			return
		}

		s.track(1)
		defer func() {
			<-s.sem
			s.track(-1)
		}()

		s.runTask(f)
	}()
}

func (s *scheduler) track(delta int32) {
	s.metrics.SchedulerInflight(s.actorID, int(s.inflight.Add(delta)))
}

func (s *scheduler) runTask(f TaskFunc) {
	defer s.metrics.SchedulerTaskDuration().ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.SchedulerTaskCompleted(false)
			s.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()

	f(s.ctx)
	s.metrics.SchedulerTaskCompleted(true)
}

func (s *scheduler) Wait() {
	s.wg.Wait()
}

// NewScheduler creates a scheduler that runs at most max tasks at once
// (unlimited if max <= 0). Tasks not yet started when ctx is cancelled
// are skipped.
func NewScheduler(ctx context.Context, max int) Scheduler {
	return newScheduler(ctx, max, slog.Default(), "", NopActorMetrics())
}

func newScheduler(ctx context.Context, max int, log *slog.Logger, actorID string, m ActorMetrics) *scheduler {
	var sem chan struct{}
	if max > 0 {
		sem = make(chan struct{}, max)
	}
	if m == nil {
		m = NopActorMetrics()
	}
	return &scheduler{
		ctx:     ctx,
		log:     log,
		sem:     sem,
		max:     max,
		actorID: actorID,
		metrics: m,
	}
}

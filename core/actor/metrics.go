package actor

import "github.com/codewandler/asys-go/core/metrics"

// Ask outcomes reported through ActorMetrics.AskCompleted.
const (
	AskOutcomeReply      = "reply"
	AskOutcomeTimeout    = "timeout"
	AskOutcomeShutdown   = "shutdown"
	AskOutcomeUnresolved = "unresolved"
	AskOutcomeCanceled   = "canceled"
	AskOutcomeSelf       = "self"
)

// ActorMetrics is the instrumentation surface of the runtime.
// All methods are thread-safe.
type ActorMetrics interface {
	// Message handling
	MessageDuration(msgType string) metrics.Timer
	MessageProcessed(msgType string, success bool)
	MessagePanic(msgType string)

	// Mailboxes and registry
	MailboxDepth(actorID string, depth int)
	ActorsLive(count int)
	// ActorStopped is called once the actor's loop and workers have exited.
	ActorStopped(actorID string)
	Undeliverable(reason string)

	// Ask
	AskDuration() metrics.Timer
	AskCompleted(outcome string)
	LateReply()

	// Worker scheduler
	SchedulerInflight(actorID string, count int)
	SchedulerTaskDuration() metrics.Timer
	SchedulerTaskCompleted(success bool)
}

type nopActorMetrics struct{}

func (nopActorMetrics) MessageDuration(string) metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) MessageProcessed(string, bool)        {}
func (nopActorMetrics) MessagePanic(string)                  {}

func (nopActorMetrics) MailboxDepth(string, int) {}
func (nopActorMetrics) ActorsLive(int)           {}
func (nopActorMetrics) ActorStopped(string)      {}
func (nopActorMetrics) Undeliverable(string)     {}

func (nopActorMetrics) AskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) AskCompleted(string)        {}
func (nopActorMetrics) LateReply()                 {}

func (nopActorMetrics) SchedulerInflight(string, int)        {}
func (nopActorMetrics) SchedulerTaskDuration() metrics.Timer { return metrics.NopTimer() }
func (nopActorMetrics) SchedulerTaskCompleted(bool)          {}

// NopActorMetrics returns an ActorMetrics that records nothing.
func NopActorMetrics() ActorMetrics { return nopActorMetrics{} }

package orchestrator

import "github.com/showfloor-ai/showfloor/log"

// NotificationSink receives lifecycle events as the orchestrator transitions
// tasks and members. Implementations are external display layers; the core
// depends only on this interface. Calls are made from the orchestrator's
// dispatch goroutine, so implementations must not block for long.
type NotificationSink interface {
	// OnDispatch is called when a task is handed to a team member.
	OnDispatch(memberID int, taskID int64)

	// OnComplete is called when a task completes with the generated text.
	OnComplete(memberID int, taskID int64, result string)

	// OnError is called when a task fails, with the failure reason.
	// memberID is 0 for tasks that were never dispatched.
	OnError(memberID int, taskID int64, reason string)

	// OnLog carries informational messages about the run.
	OnLog(message string)
}

// NoopSink is a NotificationSink that discards all events.
type NoopSink struct{}

func (NoopSink) OnDispatch(memberID int, taskID int64)                {}
func (NoopSink) OnComplete(memberID int, taskID int64, result string) {}
func (NoopSink) OnError(memberID int, taskID int64, reason string)    {}
func (NoopSink) OnLog(message string)                                 {}

// notify runs a sink callback, isolating the orchestrator from panics in the
// consumer. A broken display layer must never corrupt task state.
func notify(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorLog.Printf("notification sink panicked: %v", r)
		}
	}()
	fn()
}

package coyote

import (
	"errors"
	"fmt"
)

// StrategyExhausted indicates the configured [Strategy] has no further
// schedules to explore. It is not a failure. The test-iteration loop stops
// when [Strategy.HasMoreIterations] reports false; no function in this
// package returns this value.
var StrategyExhausted = errors.New("coyote: strategy exhausted")

// AssertionFailure is a user-visible specification check failure, raised by
// user handler code calling Assert-style helpers.
type AssertionFailure struct {
	Message string
}

func (e *AssertionFailure) Error() string { return e.Message }

// UnhandledEvent is reported when a dequeued event has no matching handler
// anywhere in the current state stack.
type UnhandledEvent struct {
	Actor     ActorId
	EventType string
}

func (e *UnhandledEvent) Error() string {
	return fmt.Sprintf("%s received event '%s' that cannot be handled", e.Actor, e.EventType)
}

// MaxInstancesExceeded is reported when a SendEvent call's
// assert_max_instances bound is violated by the receiver's current inbox
// contents.
type MaxInstancesExceeded struct {
	Receiver  ActorId
	EventType string
	Limit     uint32
	Actual    int
}

func (e *MaxInstancesExceeded) Error() string {
	return fmt.Sprintf(
		"There are more than %d instances of '%s' in the input queue of machine '%s'",
		e.Limit, e.EventType, e.Receiver,
	)
}

// InvalidTransition is reported when a Goto or Push names a state not
// declared on the target actor's type.
type InvalidTransition struct {
	Actor  ActorId
	Target string
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("%s cannot transition to undeclared state '%s'", e.Actor, e.Target)
}

// MultipleTransitions is reported when a handler invocation performs more
// than one of {raise, goto, push, pop}.
type MultipleTransitions struct {
	Actor ActorId
}

func (e *MultipleTransitions) Error() string {
	return fmt.Sprintf("%s performed more than one transition in a single handler", e.Actor)
}

// SendAfterTransition is reported when a handler calls SendEvent after
// already performing a raise/goto/push/pop in the same invocation.
type SendAfterTransition struct {
	Actor ActorId
}

func (e *SendAfterTransition) Error() string {
	return fmt.Sprintf("%s sent an event after a transition in the same handler", e.Actor)
}

// TransitionInOnExit is reported when an OnExit closure attempts a
// raise/goto/push/pop.
type TransitionInOnExit struct {
	Actor ActorId
}

func (e *TransitionInOnExit) Error() string {
	return fmt.Sprintf("%s attempted a transition from inside OnExit", e.Actor)
}

// UnboundActor is reported when SendEvent targets an ActorId that has never
// been bound to a live actor.
type UnboundActor struct {
	Id ActorId
}

func (e *UnboundActor) Error() string {
	return fmt.Sprintf("%s is not bound to a live actor", e.Id)
}

// TypeMismatch is reported when CreateActorWithId binds an id to a type
// different from the type the id was declared with.
type TypeMismatch struct {
	Id       ActorId
	Expected string
	Actual   string
}

func (e *TypeMismatch) Error() string {
	return fmt.Sprintf("%s declared as '%s' cannot be bound as '%s'", e.Id, e.Expected, e.Actual)
}

// ActorIdReuse is reported when CreateActor/CreateActorWithId is given an
// id whose prior occupant has not yet fully halted.
type ActorIdReuse struct {
	Id ActorId
}

func (e *ActorIdReuse) Error() string {
	return fmt.Sprintf("%s cannot be reused before its prior instance halts", e.Id)
}

// Deadlock is reported when, at a scheduling point, the enabled set is
// empty but live operations remain blocked on something other than an
// empty actor inbox (an actor idle on its inbox is not a deadlock).
type Deadlock struct {
	Blocked []WaitReason
}

func (e *Deadlock) Error() string {
	return fmt.Sprintf("deadlock detected: %d operation(s) blocked with no enabled alternative", len(e.Blocked))
}

// LivenessViolation is reported when a monitor's hot-state residence
// exceeds LivenessTemperatureThreshold under a strategy declared fair.
type LivenessViolation struct {
	Monitor string
	State   string
}

func (e *LivenessViolation) Error() string {
	return fmt.Sprintf("monitor '%s' exceeded the liveness temperature threshold in hot state '%s'", e.Monitor, e.State)
}

// LivenessCycle is reported by the cycle-detection mode when the global
// program state repeats while a monitor is hot.
type LivenessCycle struct {
	Monitor string
	State   string
}

func (e *LivenessCycle) Error() string {
	return fmt.Sprintf("detected potential infinite execution: monitor '%s' cycles in hot state '%s'", e.Monitor, e.State)
}

// LivenessEndOfProgram is reported when a monitor is still in a hot state
// at iteration end.
type LivenessEndOfProgram struct {
	Monitor string
	State   string
}

func (e *LivenessEndOfProgram) Error() string {
	return fmt.Sprintf("monitor '%s' ended the program in hot state '%s'", e.Monitor, e.State)
}

// ReplayDivergence is reported when a replayed schedule's recorded
// decision no longer matches the live situation.
type ReplayDivergence struct {
	StepIndex int
	Expected  string
	Actual    string
}

func (e *ReplayDivergence) Error() string {
	return fmt.Sprintf("replay diverged at step %d: expected %s, observed %s", e.StepIndex, e.Expected, e.Actual)
}

// WrapError wraps an error with a message, preserving the cause chain for
// errors.Is/errors.As.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

package coyote

import "fmt"

// Event is an immutable value carrying a payload, dispatched to an actor's
// declared handlers by its concrete Go type (exact type match, then
// inheritance across declared handlers via [EventType]).
type Event interface {
	// EventType returns the stable type token used for handler lookup and
	// diagnostics. Typically the Go type name of the concrete event.
	EventType() string
}

// eventTypeOf returns e's EventType(), or "<nil>" for a nil event.
func eventTypeOf(e Event) string {
	if e == nil {
		return "<nil>"
	}
	return e.EventType()
}

// HaltEvent is the built-in event that halts an actor when dequeued: the
// runtime runs the OnHalt hook, marks the actor Halted, and releases its
// operation.
type HaltEvent struct{}

// EventType implements [Event].
func (HaltEvent) EventType() string { return "HaltEvent" }

// DefaultEvent is synthesized when an actor's inbox is otherwise empty and
// the current state (or an ancestor on the stack) declares a default
// handler. Per the resolved open question in SPEC_FULL.md, dispatching a
// DefaultEvent is itself the actor's quiescence signal.
type DefaultEvent struct{}

// EventType implements [Event].
func (DefaultEvent) EventType() string { return "DefaultEvent" }

// UnitEvent is a convenience event carrying no payload, for handlers that
// only care that something happened.
type UnitEvent struct{}

// EventType implements [Event].
func (UnitEvent) EventType() string { return "UnitEvent" }

// TimerElapsedEvent is enqueued by a [Timer] when it fires, once after a
// due interval or repeatedly at a period. Under controlled execution,
// whether and when it fires is a scheduling choice, not wall-clock driven.
type TimerElapsedEvent struct {
	// Name is the timer's diagnostic name, as given to [Context.StartTimer].
	Name string
}

// EventType implements [Event].
func (TimerElapsedEvent) EventType() string { return "TimerElapsedEvent" }

// String implements fmt.Stringer for diagnostics.
func (e TimerElapsedEvent) String() string { return fmt.Sprintf("TimerElapsedEvent(%s)", e.Name) }

// namedEvent wraps a payload-carrying event with an explicit type token,
// for callers who want structural event types without hand-writing
// EventType() on every payload struct.
type namedEvent struct {
	typ     string
	Payload any
}

// NewEvent returns an [Event] of the given type name carrying payload.
// Prefer declaring a concrete Go type implementing [Event] for anything
// with handler-level significance; NewEvent is a convenience for
// throwaway/test events.
func NewEvent(typ string, payload any) Event {
	return namedEvent{typ: typ, Payload: payload}
}

// EventType implements [Event].
func (e namedEvent) EventType() string { return e.typ }

package coyote

// handlerKind classifies a single declared (event type -> behavior)
// binding within a [StateDecl].
type handlerKind int

const (
	handlerDoAction handlerKind = iota
	handlerGotoState
	handlerPushState
	handlerIgnore
	handlerDefer
)

// handlerEntry is one declared binding for a single event type.
type handlerEntry struct {
	kind   handlerKind
	target string // state name, for GotoState/PushState
	action func(ctx *Context) error
}

// StateDecl declares one state of an [ActorDecl]: optional
// entry/exit closures, a handler map keyed by event-type token, and
// optional Ignore/Defer event sets. Replaces reflection-driven attribute
// scanning with an explicit builder invoked once at registration time.
type StateDecl struct {
	Name    string
	OnEntry func(ctx *Context) error
	OnExit  func(ctx *Context) error

	// Hot and Cold mark this state for monitors only; both false means
	// Unmarked. Meaningless on a plain actor/state-machine state.
	Hot  bool
	Cold bool

	handlers map[string]handlerEntry
	fallback *handlerEntry // DefaultEvent handler, if declared
}

// NewStateDecl returns an empty state declaration named name.
func NewStateDecl(name string) *StateDecl {
	return &StateDecl{Name: name, handlers: make(map[string]handlerEntry)}
}

// OnEventDoAction declares that dequeuing an event of eventType invokes
// action; the action may send, create, raise, or transition subject to the
// single-transition invariant.
func (d *StateDecl) OnEventDoAction(eventType string, action func(ctx *Context) error) *StateDecl {
	d.handlers[eventType] = handlerEntry{kind: handlerDoAction, action: action}
	return d
}

// OnEventGotoState declares that dequeuing an event of eventType runs
// OnExit for the current state, pops it, pushes target, and runs target's
// OnEntry.
func (d *StateDecl) OnEventGotoState(eventType, target string) *StateDecl {
	d.handlers[eventType] = handlerEntry{kind: handlerGotoState, target: target}
	return d
}

// OnEventPushState declares that dequeuing an event of eventType pushes
// target onto the stack (without exiting the current state) and runs its
// OnEntry.
func (d *StateDecl) OnEventPushState(eventType, target string) *StateDecl {
	d.handlers[eventType] = handlerEntry{kind: handlerPushState, target: target}
	return d
}

// IgnoreEvents declares that events of the given types are consumed
// without any effect whenever this state is on top of the stack.
func (d *StateDecl) IgnoreEvents(eventTypes ...string) *StateDecl {
	for _, t := range eventTypes {
		d.handlers[t] = handlerEntry{kind: handlerIgnore}
	}
	return d
}

// DeferEvents declares that events of the given types are left in the
// inbox, in order, until this state is no longer on top of the stack.
func (d *StateDecl) DeferEvents(eventTypes ...string) *StateDecl {
	for _, t := range eventTypes {
		d.handlers[t] = handlerEntry{kind: handlerDefer}
	}
	return d
}

// OnDefault declares the handler invoked with a synthesized [DefaultEvent]
// whenever the inbox has nothing dispatchable; per this runtime's resolved
// semantics, dispatching DefaultEvent is itself the actor's quiescence
// signal, not a separate notification.
func (d *StateDecl) OnDefault(action func(ctx *Context) error) *StateDecl {
	d.fallback = &handlerEntry{kind: handlerDoAction, action: action}
	return d
}

func (d *StateDecl) lookup(eventType string) (handlerEntry, bool) {
	h, ok := d.handlers[eventType]
	return h, ok
}

package coyote

import "fmt"

// MonitorContext is passed to every monitor OnEntry/OnExit/action closure.
// Monitors run synchronously to quiescence: any number of Raise/Goto/Push/
// Pop is permitted, but (unlike [Context]) there is no SendEvent or
// CreateActor -- monitors may not send events or create actors.
type MonitorContext struct {
	monitor *monitorInstance
	event   Event
	exited  bool
	pending pendingTransition
}

// Event returns the event that triggered the current handler invocation.
func (mc *MonitorContext) Event() Event { return mc.event }

// Assert fails the iteration with [AssertionFailure] if cond is false --
// the idiomatic way a monitor declares a safety violation.
func (mc *MonitorContext) Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	mc.monitor.rt.sched.Fail(&AssertionFailure{Message: fmt.Sprintf(format, args...)})
}

func (mc *MonitorContext) transition(kind transitionKind, target string, raised Event) error {
	if mc.exited {
		return &MultipleTransitions{}
	}
	mc.exited = true
	mc.pending = pendingTransition{kind: kind, target: target, raised: raised}
	return nil
}

// RaiseEvent schedules e for immediate reprocessing, once the current
// handler returns, against the (possibly just transitioned) state stack.
func (mc *MonitorContext) RaiseEvent(e Event) error { return mc.transition(transitionRaise, "", e) }

// GotoState transitions the monitor to target.
func (mc *MonitorContext) GotoState(target string) error {
	return mc.transition(transitionGoto, target, nil)
}

// PushState pushes target onto the monitor's stack.
func (mc *MonitorContext) PushState(target string) error {
	return mc.transition(transitionPush, target, nil)
}

// PopState pops the monitor's current state.
func (mc *MonitorContext) PopState() error { return mc.transition(transitionPop, "", nil) }

// monitorHandlerKind mirrors [handlerKind] for the smaller set of monitor
// behaviors (no Defer: monitors have no inbox to defer from).
type monitorHandlerKind int

const (
	monitorDoAction monitorHandlerKind = iota
	monitorGotoState
	monitorPushState
	monitorIgnore
)

type monitorHandlerEntry struct {
	kind   monitorHandlerKind
	target string
	action func(mc *MonitorContext) error
}

// MonitorStateDecl declares one state of a [MonitorDecl]: optional
// entry/exit closures, a handler map keyed by event-type token, and the
// Hot/Cold liveness marker.
type MonitorStateDecl struct {
	Name    string
	OnEntry func(mc *MonitorContext) error
	OnExit  func(mc *MonitorContext) error

	// Hot marks this state as one the liveness checker must not see the
	// monitor remain in forever; Cold marks it as an acceptable resting
	// state. Both false means Unmarked.
	Hot  bool
	Cold bool

	handlers map[string]monitorHandlerEntry
}

// NewMonitorStateDecl returns an empty monitor state declaration named
// name.
func NewMonitorStateDecl(name string) *MonitorStateDecl {
	return &MonitorStateDecl{Name: name, handlers: make(map[string]monitorHandlerEntry)}
}

// OnEventDoAction declares that event dispatches to action.
func (d *MonitorStateDecl) OnEventDoAction(eventType string, action func(mc *MonitorContext) error) *MonitorStateDecl {
	d.handlers[eventType] = monitorHandlerEntry{kind: monitorDoAction, action: action}
	return d
}

// OnEventGotoState declares that event transitions the monitor to target.
func (d *MonitorStateDecl) OnEventGotoState(eventType, target string) *MonitorStateDecl {
	d.handlers[eventType] = monitorHandlerEntry{kind: monitorGotoState, target: target}
	return d
}

// OnEventPushState declares that event pushes target onto the stack.
func (d *MonitorStateDecl) OnEventPushState(eventType, target string) *MonitorStateDecl {
	d.handlers[eventType] = monitorHandlerEntry{kind: monitorPushState, target: target}
	return d
}

// IgnoreEvents declares that the given event types are silently consumed
// whenever this state is on top of the stack.
func (d *MonitorStateDecl) IgnoreEvents(eventTypes ...string) *MonitorStateDecl {
	for _, t := range eventTypes {
		d.handlers[t] = monitorHandlerEntry{kind: monitorIgnore}
	}
	return d
}

func (d *MonitorStateDecl) lookup(eventType string) (monitorHandlerEntry, bool) {
	h, ok := d.handlers[eventType]
	return h, ok
}

// MonitorDecl is a user-authored specification monitor blueprint: a
// state-only machine with no inbox and no operation, invoked synchronously
// from actor code via [Context.Monitor]/[Runtime.Monitor].
type MonitorDecl struct {
	TypeName string
	Start    string
	States   func() []*MonitorStateDecl
}

// monitorInstance is one registered, live monitor automaton.
type monitorInstance struct {
	typeName string
	states   map[string]*MonitorStateDecl
	stack    []*MonitorStateDecl
	rt       *Runtime
}

func (m *monitorInstance) top() *MonitorStateDecl {
	if len(m.stack) == 0 {
		return nil
	}
	return m.stack[len(m.stack)-1]
}

func (m *monitorInstance) lookup(event Event) (monitorHandlerEntry, bool) {
	et := eventTypeOf(event)
	for i := len(m.stack) - 1; i >= 0; i-- {
		if h, ok := m.stack[i].lookup(et); ok {
			return h, true
		}
	}
	return monitorHandlerEntry{}, false
}

// RegisterMonitor instantiates decl as a new live monitor, running its
// Start state's OnEntry. Must happen before any actor is created, per the
// harness contract.
func (rt *Runtime) RegisterMonitor(decl MonitorDecl) error {
	m := &monitorInstance{typeName: decl.TypeName, states: make(map[string]*MonitorStateDecl), rt: rt}
	for _, s := range decl.States() {
		m.states[s.Name] = s
	}
	start, ok := m.states[decl.Start]
	if !ok {
		return &InvalidTransition{Target: decl.Start}
	}
	if rt.monitors == nil {
		rt.monitors = make(map[string]*monitorInstance)
	}
	m.stack = append(m.stack, start)
	rt.monitors[decl.TypeName] = m
	return m.runEntry(start)
}

func (m *monitorInstance) applyPending(mc *MonitorContext) error {
	switch mc.pending.kind {
	case transitionNone:
		return nil
	case transitionGoto:
		return m.doGoto(mc.pending.target)
	case transitionPush:
		return m.doPush(mc.pending.target)
	case transitionPop:
		return m.doPop()
	case transitionRaise:
		return m.dispatch(mc.pending.raised)
	}
	return nil
}

func (m *monitorInstance) runExit(s *MonitorStateDecl) error {
	if s == nil || s.OnExit == nil {
		return nil
	}
	return s.OnExit(&MonitorContext{monitor: m})
}

func (m *monitorInstance) runEntry(s *MonitorStateDecl) error {
	m.rt.coverage.visitMonitorState(m.typeName, s.Name)
	if s.OnEntry == nil {
		return nil
	}
	mc := &MonitorContext{monitor: m}
	if err := s.OnEntry(mc); err != nil {
		return err
	}
	return m.applyPending(mc)
}

func (m *monitorInstance) doGoto(target string) error {
	if err := m.runExit(m.top()); err != nil {
		return err
	}
	m.stack = m.stack[:len(m.stack)-1]
	next := m.states[target]
	m.stack = append(m.stack, next)
	return m.runEntry(next)
}

func (m *monitorInstance) doPush(target string) error {
	next := m.states[target]
	m.stack = append(m.stack, next)
	return m.runEntry(next)
}

func (m *monitorInstance) doPop() error {
	if err := m.runExit(m.top()); err != nil {
		return err
	}
	if len(m.stack) > 0 {
		m.stack = m.stack[:len(m.stack)-1]
	}
	return nil
}

// dispatch runs event against the monitor's current state stack to
// quiescence (following any chain of Raises until one leaves nothing
// pending). Monitors silently ignore event types they have no handler
// for.
func (m *monitorInstance) dispatch(event Event) error {
	h, ok := m.lookup(event)
	if !ok {
		return nil
	}
	switch h.kind {
	case monitorIgnore:
		return nil
	case monitorGotoState:
		return m.doGoto(h.target)
	case monitorPushState:
		return m.doPush(h.target)
	}
	mc := &MonitorContext{monitor: m, event: event}
	if h.action != nil {
		if err := h.action(mc); err != nil {
			return err
		}
	}
	return m.applyPending(mc)
}

// Monitor invokes the registered monitor of the given type name
// synchronously with event; this is not a scheduling point.
func (rt *Runtime) Monitor(typeName string, event Event) error {
	m := rt.monitors[typeName]
	if m == nil {
		return nil
	}
	return m.dispatch(event)
}

// Monitor invokes the registered monitor named typeName synchronously with
// event, from within the calling actor's handler.
func (ctx *Context) Monitor(typeName string, event Event) error {
	return ctx.rt.Monitor(typeName, event)
}

// MonitorStates reports, for diagnostics/coverage, the current state stack
// (bottom to top) of the named monitor.
func (rt *Runtime) MonitorStates(typeName string) []string {
	m := rt.monitors[typeName]
	if m == nil {
		return nil
	}
	out := make([]string, len(m.stack))
	for i, s := range m.stack {
		out[i] = s.Name
	}
	return out
}

// currentHotMonitors returns the (typeName -> stateName) of every monitor
// currently residing in a Hot state, for the liveness checker.
func (rt *Runtime) currentHotMonitors() map[string]string {
	hot := make(map[string]string)
	for name, m := range rt.monitors {
		if top := m.top(); top != nil && top.Hot {
			hot[name] = top.Name
		}
	}
	return hot
}

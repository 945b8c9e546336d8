package coyote

import "fmt"

// ActorStatus is an [Actor]'s lifecycle stage.
type ActorStatus int

const (
	ActorCreated ActorStatus = iota
	ActorInitialized
	ActorRunning
	ActorHalted
)

// String implements fmt.Stringer.
func (s ActorStatus) String() string {
	switch s {
	case ActorCreated:
		return "Created"
	case ActorInitialized:
		return "Initialized"
	case ActorRunning:
		return "Running"
	case ActorHalted:
		return "Halted"
	default:
		return "Unknown"
	}
}

// ActorDecl is a user-authored actor/state-machine blueprint. States is
// invoked fresh on every [Runtime.CreateActor] call, so its closures may
// capture per-instance fields; this replaces reflection-driven handler
// discovery with an explicit builder invoked once per instance.
type ActorDecl struct {
	TypeName string
	Start    string
	States   func() []*StateDecl
	// OnHalt runs once, after HaltEvent is dequeued and before the actor's
	// operation completes.
	OnHalt func(ctx *Context) error
}

// Actor is the unified runtime representation of both a plain actor and a
// hierarchical state machine: a plain actor is simply one whose stack
// never grows past its single Start state, so both share one dispatch
// loop.
type Actor struct {
	id     ActorId
	rt     *Runtime
	op     *Operation
	decl   ActorDecl
	states map[string]*StateDecl
	stack  []*StateDecl
	ib     inbox
	group  *EventGroup
	status ActorStatus

	lastEventType string // the event type currently being dispatched, for coverage edge labeling
}

// Status returns the actor's current lifecycle stage.
func (a *Actor) Status() ActorStatus { return a.status }

// ID returns the actor's id.
func (a *Actor) ID() ActorId { return a.id }

func (a *Actor) top() *StateDecl {
	if len(a.stack) == 0 {
		return nil
	}
	return a.stack[len(a.stack)-1]
}

// lookup scans the state stack top-down for a handler matching eventType.
func (a *Actor) lookup(event Event) (handlerEntry, bool) {
	et := eventTypeOf(event)
	for i := len(a.stack) - 1; i >= 0; i-- {
		if h, ok := a.stack[i].lookup(et); ok {
			return h, true
		}
	}
	return handlerEntry{}, false
}

func (a *Actor) hasDispatchable() bool {
	return a.ib.hasDispatchable(a.lookup)
}

// defaultHandler returns the nearest (top-down) declared default handler,
// if any.
func (a *Actor) defaultHandler() *handlerEntry {
	for i := len(a.stack) - 1; i >= 0; i-- {
		if a.stack[i].fallback != nil {
			return a.stack[i].fallback
		}
	}
	return nil
}

// Context is passed to every OnEntry/OnExit/action closure; it exposes the
// runtime operations (send, create, raise, transition) available to the
// currently executing handler, enforcing the single-transition-per-handler
// and no-transition-in-OnExit invariants.
type Context struct {
	rt      *Runtime
	actor   *Actor
	event   Event
	group   *EventGroup
	inExit  bool
	exited  bool // transition/raise/halt already called this invocation
	sent    bool
	pending pendingTransition
}

type transitionKind int

const (
	transitionNone transitionKind = iota
	transitionRaise
	transitionGoto
	transitionPush
	transitionPop
	transitionHalt
)

type pendingTransition struct {
	kind   transitionKind
	target string
	raised Event
}

// Self returns the id of the actor executing the current handler.
func (ctx *Context) Self() ActorId { return ctx.actor.id }

// Event returns the event that triggered the current handler invocation.
func (ctx *Context) Event() Event { return ctx.event }

// Group returns the event group in effect for the current handler
// invocation.
func (ctx *Context) Group() *EventGroup { return ctx.group }

// Operation returns the scheduler operation backing the executing actor,
// for passing to [Task.Await]/[AwaitableEventGroup.Await]/lock and
// semaphore calls made from within a handler.
func (ctx *Context) Operation() *Operation { return ctx.actor.op }

// Scheduler returns the runtime's scheduler.
func (ctx *Context) Scheduler() *Scheduler { return ctx.rt.sched }

func (ctx *Context) checkTransitionAllowed() error {
	if ctx.inExit {
		return &TransitionInOnExit{Actor: ctx.actor.id}
	}
	if ctx.exited {
		return &MultipleTransitions{Actor: ctx.actor.id}
	}
	return nil
}

// RaiseEvent schedules e to be processed immediately after the current
// handler returns, ahead of the inbox, against the (possibly just
// transitioned) state stack.
func (ctx *Context) RaiseEvent(e Event) error {
	if err := ctx.checkTransitionAllowed(); err != nil {
		return err
	}
	ctx.exited = true
	ctx.pending = pendingTransition{kind: transitionRaise, raised: e}
	return nil
}

// GotoState runs OnExit for the current top state, pops it, pushes target,
// and runs target's OnEntry.
func (ctx *Context) GotoState(target string) error {
	if err := ctx.checkTransitionAllowed(); err != nil {
		return err
	}
	if _, ok := ctx.actor.states[target]; !ok {
		return &InvalidTransition{Actor: ctx.actor.id, Target: target}
	}
	ctx.exited = true
	ctx.pending = pendingTransition{kind: transitionGoto, target: target}
	return nil
}

// PushState pushes target onto the stack, without exiting the current
// state, and runs its OnEntry.
func (ctx *Context) PushState(target string) error {
	if err := ctx.checkTransitionAllowed(); err != nil {
		return err
	}
	if _, ok := ctx.actor.states[target]; !ok {
		return &InvalidTransition{Actor: ctx.actor.id, Target: target}
	}
	ctx.exited = true
	ctx.pending = pendingTransition{kind: transitionPush, target: target}
	return nil
}

// PopState runs OnExit for the current top state and pops it; if the
// resulting stack is empty, the actor halts.
func (ctx *Context) PopState() error {
	if err := ctx.checkTransitionAllowed(); err != nil {
		return err
	}
	ctx.exited = true
	ctx.pending = pendingTransition{kind: transitionPop}
	return nil
}

// Halt halts the actor once the current handler returns.
func (ctx *Context) Halt() error {
	if err := ctx.checkTransitionAllowed(); err != nil {
		return err
	}
	ctx.exited = true
	ctx.pending = pendingTransition{kind: transitionHalt}
	return nil
}

// SendOption configures an individual [Context.SendEvent] /
// [Context.CreateActor] call.
type SendOption interface{ apply(*sendConfig) }

type sendConfig struct {
	group        *EventGroup
	groupSet     bool
	maxInstances uint32
}

type sendOptionFunc func(*sendConfig)

func (f sendOptionFunc) apply(c *sendConfig) { f(c) }

// WithEventGroup explicitly sets (or, passed nil, explicitly disables) the
// event group attached to a send/create call, taking precedence over
// inheriting the caller's current group.
func WithEventGroup(g *EventGroup) SendOption {
	return sendOptionFunc(func(c *sendConfig) {
		c.group = g
		c.groupSet = true
	})
}

// WithMaxInstances asserts that the target's inbox must not already
// contain limit or more instances of the event's type, failing the
// iteration with [MaxInstancesExceeded] if violated.
func WithMaxInstances(limit uint32) SendOption {
	return sendOptionFunc(func(c *sendConfig) { c.maxInstances = limit })
}

func resolveSendConfig(inherited *EventGroup, opts []SendOption) sendConfig {
	c := sendConfig{group: inherited}
	for _, o := range opts {
		o.apply(&c)
	}
	return c
}

// SendEvent enqueues event on target's inbox and yields a scheduling
// point. Per event-group propagation rules: an explicit [WithEventGroup]
// wins, otherwise the sending actor's current group is inherited.
func (ctx *Context) SendEvent(target ActorId, event Event, opts ...SendOption) error {
	if ctx.exited {
		return &SendAfterTransition{Actor: ctx.actor.id}
	}
	ctx.sent = true
	cfg := resolveSendConfig(ctx.group, opts)
	return ctx.rt.SendEvent(ctx.actor.op, target, event, cfg.group, cfg.maxInstances)
}

// CreateActor starts a new actor and yields a scheduling point.
func (ctx *Context) CreateActor(decl ActorDecl, initialEvent Event, opts ...SendOption) (ActorId, error) {
	if ctx.exited {
		return ActorId{}, &SendAfterTransition{Actor: ctx.actor.id}
	}
	cfg := resolveSendConfig(ctx.group, opts)
	return ctx.rt.CreateActor(ctx.actor.op, decl, initialEvent, cfg.group)
}

// CreateActorWithId starts (binds) a new actor under a pre-declared id and
// yields a scheduling point.
func (ctx *Context) CreateActorWithId(id ActorId, decl ActorDecl, initialEvent Event, opts ...SendOption) error {
	if ctx.exited {
		return &SendAfterTransition{Actor: ctx.actor.id}
	}
	cfg := resolveSendConfig(ctx.group, opts)
	return ctx.rt.CreateActorWithId(ctx.actor.op, id, decl, initialEvent, cfg.group)
}

// Assert fails the iteration with [AssertionFailure] if cond is false.
func (ctx *Context) Assert(cond bool, format string, args ...any) {
	if cond {
		return
	}
	ctx.rt.sched.Fail(&AssertionFailure{Message: fmt.Sprintf(format, args...)})
}

// RandomBoolean consumes a GetRandomBoolean() scheduling point.
func (ctx *Context) RandomBoolean() bool {
	v := ctx.rt.sched.NextBoolean()
	ctx.rt.sched.schedulingPoint(ctx.actor.op)
	return v
}

// RandomInteger consumes a GetRandomInteger(maxExclusive) scheduling
// point.
func (ctx *Context) RandomInteger(maxExclusive uint32) uint32 {
	v := ctx.rt.sched.NextInteger(maxExclusive)
	ctx.rt.sched.schedulingPoint(ctx.actor.op)
	return v
}

// FairRandomBoolean consumes a GetFairRandomBoolean() scheduling point.
func (ctx *Context) FairRandomBoolean() bool {
	v := ctx.rt.sched.FairBoolean()
	ctx.rt.sched.schedulingPoint(ctx.actor.op)
	return v
}

// run is the actor's operation body: it loops dequeuing and dispatching
// events until halted, blocking on the inbox (or firing a declared default
// handler) when nothing is currently dispatchable.
func (a *Actor) run() {
	rt := a.rt
	for {
		idx, env, ok := a.ib.dispatchable(a.lookup)
		if !ok {
			if d := a.defaultHandler(); d != nil {
				if err := a.invoke(*d, envelope{event: DefaultEvent{}, group: a.group}); err != nil {
					rt.sched.Fail(err)
					return
				}
				if a.status == ActorHalted {
					return
				}
				rt.sched.schedulingPoint(a.op)
				continue
			}
			rt.sched.suspendUntil(a.op, a.hasDispatchable, WaitReason{Kind: WaitInbox, Detail: a.id.String()})
			continue
		}
		if _, isHalt := env.event.(HaltEvent); isHalt {
			a.ib.remove(idx)
			if err := a.doHalt(); err != nil {
				rt.sched.Fail(err)
			}
			return
		}
		h, found := a.lookup(env.event)
		if !found {
			rt.sched.Fail(&UnhandledEvent{Actor: a.id, EventType: eventTypeOf(env.event)})
			return
		}
		a.ib.remove(idx)
		if err := a.invoke(h, env); err != nil {
			rt.sched.Fail(err)
			return
		}
		if a.status == ActorHalted {
			return
		}
		rt.sched.schedulingPoint(a.op)
	}
}

// invoke runs a single handler to completion, applying whatever
// goto/push/pop/raise/halt it requested, and recursing for any raised
// event (processed ahead of the inbox, against the new state stack).
func (a *Actor) invoke(h handlerEntry, env envelope) error {
	prevGroup := a.group
	a.group = env.group
	defer func() { a.group = prevGroup }()

	et := eventTypeOf(env.event)
	a.rt.coverage.received(a.decl.TypeName, et)
	prevEventType := a.lastEventType
	a.lastEventType = et
	defer func() { a.lastEventType = prevEventType }()

	switch h.kind {
	case handlerGotoState, handlerPushState:
		return a.applyTransitionOnly(h)
	}

	ctx := &Context{rt: a.rt, actor: a, event: env.event, group: a.group}
	if h.action != nil {
		if err := h.action(ctx); err != nil {
			return WrapError(fmt.Sprintf("%s action for '%s'", a.id, et), err)
		}
	}
	return a.applyPending(ctx)
}

// applyTransitionOnly handles the bare GotoState/PushState declarations
// (no user action closure attached), which still must run OnExit/OnEntry.
func (a *Actor) applyTransitionOnly(h handlerEntry) error {
	switch h.kind {
	case handlerGotoState:
		return a.doGoto(h.target)
	case handlerPushState:
		return a.doPush(h.target)
	}
	return nil
}

func (a *Actor) applyPending(ctx *Context) error {
	switch ctx.pending.kind {
	case transitionNone:
		return nil
	case transitionGoto:
		return a.doGoto(ctx.pending.target)
	case transitionPush:
		return a.doPush(ctx.pending.target)
	case transitionPop:
		return a.doPop()
	case transitionHalt:
		return a.doHalt()
	case transitionRaise:
		return a.doRaise(ctx.pending.raised)
	}
	return nil
}

func (a *Actor) runExit(s *StateDecl) error {
	if s == nil || s.OnExit == nil {
		return nil
	}
	ctx := &Context{rt: a.rt, actor: a, group: a.group, inExit: true}
	return s.OnExit(ctx)
}

func (a *Actor) runEntry(s *StateDecl) error {
	a.rt.coverage.visitState(a.decl.TypeName, s.Name)
	if s.OnEntry == nil {
		return nil
	}
	ctx := &Context{rt: a.rt, actor: a, group: a.group}
	if err := s.OnEntry(ctx); err != nil {
		return err
	}
	return a.applyPending(ctx)
}

func (a *Actor) doGoto(target string) error {
	cur := a.top()
	if err := a.runExit(cur); err != nil {
		return err
	}
	a.stack = a.stack[:len(a.stack)-1]
	next := a.states[target]
	a.stack = append(a.stack, next)
	a.rt.coverage.transition(a.decl.TypeName, cur.Name, next.Name, a.lastEventType)
	return a.runEntry(next)
}

func (a *Actor) doPush(target string) error {
	next := a.states[target]
	a.stack = append(a.stack, next)
	return a.runEntry(next)
}

func (a *Actor) doPop() error {
	cur := a.top()
	if err := a.runExit(cur); err != nil {
		return err
	}
	a.stack = a.stack[:len(a.stack)-1]
	if len(a.stack) == 0 {
		return a.doHalt()
	}
	return nil
}

func (a *Actor) doHalt() error {
	if a.decl.OnHalt != nil {
		ctx := &Context{rt: a.rt, actor: a, group: a.group}
		if err := a.decl.OnHalt(ctx); err != nil {
			return err
		}
	}
	a.status = ActorHalted
	a.rt.ids.unbind(a.id)
	return nil
}

func (a *Actor) doRaise(e Event) error {
	h, found := a.lookup(e)
	if !found {
		return &UnhandledEvent{Actor: a.id, EventType: eventTypeOf(e)}
	}
	return a.invoke(h, envelope{event: e, group: a.group})
}

// Runtime owns the live actor table, scheduler, and cross-cutting
// diagnostic hooks for one test iteration.
type Runtime struct {
	sched          *Scheduler
	ids            *idTable
	onEventDropped func(target ActorId, e Event)
	onFailure      func(err error)
	coverage       *coverageRecorder
	liveness       *livenessChecker
	monitors       map[string]*monitorInstance
}

// NewRuntime returns a fresh runtime bound to sched, ready to create
// actors for one test iteration.
func NewRuntime(sched *Scheduler) *Runtime {
	return &Runtime{sched: sched, ids: newIdTable(), coverage: newCoverageRecorder()}
}

// Scheduler returns the runtime's scheduler, for top-level test code (which
// has no enclosing [Context]) to report a failure directly via
// [Scheduler.Fail] or consume a scheduling point via one of its Next*
// methods.
func (rt *Runtime) Scheduler() *Scheduler { return rt.sched }

// OnEventDropped installs the callback invoked when an event is sent to an
// already-halted actor.
func (rt *Runtime) OnEventDropped(cb func(target ActorId, e Event)) { rt.onEventDropped = cb }

// OnFailure installs the callback invoked (in addition to the iteration
// result) whenever the runtime records a failure.
func (rt *Runtime) OnFailure(cb func(err error)) { rt.onFailure = cb }

func (rt *Runtime) fail(err error) {
	if rt.onFailure != nil {
		rt.onFailure(err)
	}
	rt.sched.Fail(err)
}

// CreateActor starts a new actor of decl's type with a freshly generated
// id, as a side effect of the operation identified by op, and yields a
// scheduling point before op continues.
func (rt *Runtime) CreateActor(op *Operation, decl ActorDecl, initialEvent Event, group *EventGroup) (ActorId, error) {
	id := NewActorId(decl.TypeName)
	if err := rt.createActorWithId(op, id, decl, initialEvent, group); err != nil {
		return ActorId{}, err
	}
	return id, nil
}

// CreateActorWithId binds decl's type to the pre-declared id id (typically
// obtained from [Runtime.CreateActorIdFromName]), failing with
// [ActorIdReuse]/[TypeMismatch] as appropriate.
func (rt *Runtime) CreateActorWithId(op *Operation, id ActorId, decl ActorDecl, initialEvent Event, group *EventGroup) error {
	return rt.createActorWithId(op, id, decl, initialEvent, group)
}

// CreateActorIdFromName returns the deterministic id bound to (typeName,
// name), for use with CreateActorWithId.
func (rt *Runtime) CreateActorIdFromName(typeName, name string) ActorId {
	return rt.ids.CreateActorIdFromName(typeName, name)
}

func (rt *Runtime) createActorWithId(op *Operation, id ActorId, decl ActorDecl, initialEvent Event, group *EventGroup) error {
	if decl.TypeName != id.TypeName() {
		return &TypeMismatch{Id: id, Expected: id.TypeName(), Actual: decl.TypeName}
	}
	a := &Actor{id: id, rt: rt, decl: decl, states: make(map[string]*StateDecl), status: ActorCreated, group: group}
	for _, s := range decl.States() {
		a.states[s.Name] = s
	}
	start, ok := a.states[decl.Start]
	if !ok {
		return &InvalidTransition{Actor: id, Target: decl.Start}
	}
	if err := rt.ids.bind(id, a); err != nil {
		return err
	}
	if initialEvent != nil {
		a.ib.enqueue(envelope{event: initialEvent, senderID: op.ID(), group: group})
		rt.coverage.sent(id.TypeName(), eventTypeOf(initialEvent))
	}
	a.op = rt.sched.spawn(OperationActor, id.String(), func(actorOp *Operation) {
		a.status = ActorInitialized
		a.stack = append(a.stack, start)
		if err := a.runEntry(start); err != nil {
			rt.sched.Fail(err)
			return
		}
		a.status = ActorRunning
		a.run()
	})
	rt.sched.schedulingPoint(op)
	return nil
}

// SendEvent enqueues event on target's inbox as a side effect of the
// operation identified by op, and yields a scheduling point before op
// continues. Sending to an id whose actor has halted drops the event and
// fires [Runtime.OnEventDropped] (if installed) rather than failing the
// iteration; sending to an id that was never bound returns [UnboundActor].
func (rt *Runtime) SendEvent(op *Operation, target ActorId, event Event, group *EventGroup, maxInstances uint32) error {
	a := rt.ids.lookup(target)
	if a == nil {
		rt.ids.mu.Lock()
		_, wasBound := rt.ids.declared[target.id]
		rt.ids.mu.Unlock()
		if !wasBound {
			return &UnboundActor{Id: target}
		}
		if rt.onEventDropped != nil {
			rt.onEventDropped(target, event)
		}
		rt.sched.schedulingPoint(op)
		return nil
	}
	if maxInstances > 0 {
		count := 0
		et := eventTypeOf(event)
		for _, e := range a.ib.items {
			if eventTypeOf(e.event) == et {
				count++
			}
		}
		if count >= int(maxInstances) {
			return &MaxInstancesExceeded{Receiver: target, EventType: et, Limit: maxInstances, Actual: count + 1}
		}
	}
	a.ib.enqueue(envelope{event: event, senderID: op.ID(), group: group})
	rt.coverage.sent(target.TypeName(), eventTypeOf(event))
	rt.sched.schedulingPoint(op)
	return nil
}

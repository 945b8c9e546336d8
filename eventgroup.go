package coyote

import "sync"

// EventGroup is a context object threaded through event sends and actor
// creations. A nil *EventGroup disables propagation; a named group
// inherits unless a SendEvent call explicitly replaces it. See spec.md
// §4.6/§4.3 "Event-group propagation rules" for the full precedence order,
// implemented in actor.go's SendEvent/dispatch.
type EventGroup struct {
	Name string
}

// NewEventGroup returns a plain, non-awaitable event group with the given
// diagnostic name.
func NewEventGroup(name string) *EventGroup {
	return &EventGroup{Name: name}
}

// groupCompletionState is shared between [AwaitableEventGroup] and any
// [EventGroupCounter] built on top of it.
type groupCompletionState struct {
	mu        sync.Mutex
	done      bool
	result    any
	err       error
	canceled  bool
	waiters   []chan struct{}
}

func (s *groupCompletionState) settle(result any, err error, canceled bool) bool {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return false
	}
	s.done = true
	s.result = result
	s.err = err
	s.canceled = canceled
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
	return true
}

func (s *groupCompletionState) subscribe() (ch chan struct{}, alreadyDone bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, true
	}
	ch = make(chan struct{})
	s.waiters = append(s.waiters, ch)
	return ch, false
}

// AwaitableEventGroup carries both context identity (embedding
// [EventGroup]) and a single-assignment completion slot for a value of
// type T, enabling fan-out/fan-in patterns where a caller awaits the
// group rather than any one individual response.
type AwaitableEventGroup[T any] struct {
	*EventGroup
	state *groupCompletionState
}

// NewAwaitableEventGroup returns a new, pending awaitable event group.
func NewAwaitableEventGroup[T any](name string) *AwaitableEventGroup[T] {
	return &AwaitableEventGroup[T]{
		EventGroup: NewEventGroup(name),
		state:      &groupCompletionState{},
	}
}

// SetResult transitions the group to Completed(v). It returns an error if
// the group has already completed; [AwaitableEventGroup.TrySetResult]
// reports the same case as false instead.
func (g *AwaitableEventGroup[T]) SetResult(v T) error {
	if !g.state.settle(v, nil, false) {
		return &invalidGroupState{}
	}
	return nil
}

// TrySetResult attempts to transition to Completed(v), returning false
// (without error) if the group was already completed.
func (g *AwaitableEventGroup[T]) TrySetResult(v T) bool {
	return g.state.settle(v, nil, false)
}

// SetCanceled transitions the group to Canceled.
func (g *AwaitableEventGroup[T]) SetCanceled() error {
	if !g.state.settle(nil, nil, true) {
		return &invalidGroupState{}
	}
	return nil
}

// TrySetCanceled attempts to transition to Canceled, returning false if
// already completed.
func (g *AwaitableEventGroup[T]) TrySetCanceled() bool {
	return g.state.settle(nil, nil, true)
}

// SetException transitions the group to Faulted(err).
func (g *AwaitableEventGroup[T]) SetException(err error) error {
	if !g.state.settle(nil, err, false) {
		return &invalidGroupState{}
	}
	return nil
}

// TrySetException attempts to transition to Faulted(err), returning false
// if already completed.
func (g *AwaitableEventGroup[T]) TrySetException(err error) bool {
	return g.state.settle(nil, err, false)
}

// Await suspends the calling controlled operation until the group
// completes, then returns its result (zero value plus error/canceled
// otherwise). All pending awaiters become enabled together when the group
// completes; the order in which they resume is the [Strategy]'s choice, not
// the order in which they started awaiting.
func (g *AwaitableEventGroup[T]) Await(sched *Scheduler, op *Operation) (T, error) {
	ch, already := g.state.subscribe()
	if !already {
		sched.suspendUntil(op, func() bool {
			select {
			case <-ch:
				return true
			default:
				return false
			}
		}, WaitReason{Kind: WaitEventGroup, Detail: g.Name})
	}
	g.state.mu.Lock()
	defer g.state.mu.Unlock()
	if g.state.canceled {
		var zero T
		return zero, errCanceled
	}
	if g.state.err != nil {
		var zero T
		return zero, g.state.err
	}
	v, _ := g.state.result.(T)
	return v, nil
}

type invalidGroupState struct{}

func (e *invalidGroupState) Error() string { return "event group already completed" }

// EventGroupCounter is an [AwaitableEventGroup] specialization that
// completes after n calls to SetResult(true), enabling fan-out/fan-in: n
// independent producers each call SetResult once the counter is shared,
// and the consumer awaits a single completion.
type EventGroupCounter struct {
	awaitable *AwaitableEventGroup[bool]
	mu        sync.Mutex
	remaining int
}

// NewEventGroupCounter returns a counter that completes after n
// SetResult(true) calls.
func NewEventGroupCounter(name string, n int) *EventGroupCounter {
	return &EventGroupCounter{
		awaitable: NewAwaitableEventGroup[bool](name),
		remaining: n,
	}
}

// SetResult records one of the n completions, whatever v is; once the nth
// is recorded, the underlying awaitable group completes with the v passed
// to that nth call.
func (c *EventGroupCounter) SetResult(v bool) {
	c.mu.Lock()
	if c.remaining > 0 {
		c.remaining--
	}
	done := c.remaining == 0
	c.mu.Unlock()
	if done {
		c.awaitable.TrySetResult(v)
	}
}

// Await suspends until the counter reaches zero.
func (c *EventGroupCounter) Await(sched *Scheduler, op *Operation) (bool, error) {
	return c.awaitable.Await(sched, op)
}

// Group returns the underlying awaitable group, e.g. to pass as the
// group argument of SendEvent/CreateActor.
func (c *EventGroupCounter) Group() *EventGroup { return c.awaitable.EventGroup }

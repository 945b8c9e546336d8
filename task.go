package coyote

import (
	"errors"
	"sync"
)

// errCanceled is returned by [Task.Await] and [AwaitableEventGroup.Await]
// when the awaited value was canceled rather than completed or faulted.
var errCanceled = errors.New("coyote: operation canceled")

// ErrCanceled reports whether err is (or wraps) the controlled
// cancellation sentinel.
func ErrCanceled(err error) bool { return errors.Is(err, errCanceled) }

// CancellationToken is a cooperative cancellation signal threaded through
// [Run]; controlled task bodies are expected to check IsCanceled (or
// select on Done) at their own yield points, mirroring context.Context's
// cancellation idiom without depending on wall-clock deadlines.
type CancellationToken struct {
	mu       sync.Mutex
	canceled bool
	doneCh   chan struct{}
}

// NewCancellationToken returns a fresh, uncanceled token.
func NewCancellationToken() *CancellationToken {
	return &CancellationToken{doneCh: make(chan struct{})}
}

// Cancel marks the token canceled. Idempotent.
func (t *CancellationToken) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.canceled {
		t.canceled = true
		close(t.doneCh)
	}
}

// IsCanceled reports whether Cancel has been called.
func (t *CancellationToken) IsCanceled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canceled
}

// Done returns a channel closed when the token is canceled.
func (t *CancellationToken) Done() <-chan struct{} { return t.doneCh }

// taskState is the single-assignment completion slot shared between a
// [Task] and the goroutine computing its value.
type taskState[T any] struct {
	mu      sync.Mutex
	done    bool
	value   T
	err     error
	waiters []chan struct{}
}

func (s *taskState[T]) settle(v T, err error) {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return
	}
	s.done = true
	s.value = v
	s.err = err
	waiters := s.waiters
	s.waiters = nil
	s.mu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

func (s *taskState[T]) subscribe() (ch chan struct{}, alreadyDone bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.done {
		return nil, true
	}
	ch = make(chan struct{})
	s.waiters = append(s.waiters, ch)
	return ch, false
}

// Task represents a controlled asynchronous computation of a T, modeled as
// its own [Operation] so the scheduler can interleave it with every other
// live actor and task.
type Task[T any] struct {
	op    *Operation
	state *taskState[T]
}

// Run spawns fn as a new controlled operation on sched, immediately
// returning a [Task] handle; fn's eventual return value (or error) settles
// the task. token may be nil; if non-nil and already canceled at spawn
// time, fn never runs and the task settles canceled. fn receives its own
// [Operation], so it can in turn create actors, send events, or await
// other tasks/groups via whatever [Runtime] the caller closes over.
func Run[T any](sched *Scheduler, name string, token *CancellationToken, fn func(op *Operation, token *CancellationToken) (T, error)) *Task[T] {
	state := &taskState[T]{}
	op := sched.spawn(OperationTask, name, func(op *Operation) {
		if token != nil && token.IsCanceled() {
			var zero T
			state.settle(zero, errCanceled)
			return
		}
		v, err := fn(op, token)
		state.settle(v, err)
	})
	return &Task[T]{op: op, state: state}
}

// Completed returns an already-completed task carrying v.
func Completed[T any](v T) *Task[T] {
	state := &taskState[T]{}
	state.settle(v, nil)
	return &Task[T]{state: state}
}

// FromException returns an already-faulted task.
func FromException[T any](err error) *Task[T] {
	state := &taskState[T]{}
	var zero T
	state.settle(zero, err)
	return &Task[T]{state: state}
}

// FromCanceled returns an already-canceled task.
func FromCanceled[T any]() *Task[T] {
	return FromException[T](errCanceled)
}

// Delay blocks the operation identified by op until an in-model timer,
// modeled as an always-enabled [OperationTimer], is chosen to fire by the
// [Strategy]: under controlled execution there is no wall-clock wait, only
// a nondeterministic choice of when the delay elapses relative to every
// other enabled operation.
func Delay(sched *Scheduler, op *Operation, name string) {
	timerOp := sched.spawnTimer(name)
	sched.suspendUntil(op, func() bool {
		return timerOp.status.IsCompleted()
	}, WaitReason{Kind: WaitJoin, Detail: name})
}

// Await suspends the operation identified by op until t completes,
// returning its result or error (including [errCanceled] via
// [ErrCanceled]).
func (t *Task[T]) Await(sched *Scheduler, op *Operation) (T, error) {
	ch, already := t.state.subscribe()
	if !already {
		sched.suspendUntil(op, func() bool {
			select {
			case <-ch:
				return true
			default:
				return false
			}
		}, WaitReason{Kind: WaitJoin, Detail: t.Name()})
	}
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.state.value, t.state.err
}

// Name returns the task's diagnostic operation name.
func (t *Task[T]) Name() string {
	if t.op == nil {
		return "<completed>"
	}
	return t.op.Name()
}

// IsCompleted reports whether the task has settled (result, fault, or
// cancellation).
func (t *Task[T]) IsCompleted() bool {
	t.state.mu.Lock()
	defer t.state.mu.Unlock()
	return t.state.done
}

// WhenAll suspends until every task in tasks completes, then returns their
// results in the same order; the first error observed (by task index) is
// returned alongside the partial results.
func WhenAll[T any](sched *Scheduler, op *Operation, tasks []*Task[T]) ([]T, error) {
	results := make([]T, len(tasks))
	var firstErr error
	for i, t := range tasks {
		v, err := t.Await(sched, op)
		results[i] = v
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return results, firstErr
}

// WaitAll is the error-discarding form of [WhenAll], for callers only
// interested in sequencing.
func WaitAll[T any](sched *Scheduler, op *Operation, tasks []*Task[T]) {
	for _, t := range tasks {
		_, _ = t.Await(sched, op)
	}
}

// whenAnyResult is the value produced by [WhenAny].
type whenAnyResult[T any] struct {
	Index int
	Value T
	Err   error
}

// WhenAny suspends until the first of tasks completes (in scheduler
// selection order, which is itself nondeterministic under the configured
// [Strategy]), returning its index, value, and error.
func WhenAny[T any](sched *Scheduler, op *Operation, tasks []*Task[T]) (int, T, error) {
	for {
		for i, t := range tasks {
			if t.IsCompleted() {
				v, err := t.Await(sched, op)
				return i, v, err
			}
		}
		sched.suspendUntil(op, func() bool {
			for _, t := range tasks {
				if t.IsCompleted() {
					return true
				}
			}
			return false
		}, WaitReason{Kind: WaitJoin, Detail: "WhenAny"})
	}
}

// WaitAny is the index-only form of [WhenAny].
func WaitAny[T any](sched *Scheduler, op *Operation, tasks []*Task[T]) int {
	i, _, _ := WhenAny(sched, op, tasks)
	return i
}

package coyote

import "sync"

// Timer models an actor-bound logical timer (spec.md §3): once started via
// [Context.StartTimer] it enqueues [TimerElapsedEvent] into the owning
// actor's inbox, either once (a due interval) or repeatedly (a period),
// whenever the configured [Strategy] chooses to fire its backing
// [OperationTimer] -- there is no wall-clock wait, only a nondeterministic
// choice of when it elapses relative to every other enabled operation. A
// fired timer still respects the owning actor's inbox FIFO: the event is
// appended like any other send, dispatched in order once the actor's own
// operation is next scheduled.
type Timer struct {
	mu      sync.Mutex
	stopped bool
	op      *Operation
}

// Stop marks the timer so that it enqueues no further [TimerElapsedEvent]
// after its current firing (if one is in flight). Idempotent; a no-op on a
// non-periodic timer that has already fired.
func (t *Timer) Stop() {
	t.mu.Lock()
	t.stopped = true
	t.mu.Unlock()
}

func (t *Timer) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

// StartTimer starts a [Timer] bound to the actor executing the current
// handler. period selects a repeating timer (fires again after each
// firing, until [Timer.Stop]) over a one-shot timer (fires exactly once).
func (ctx *Context) StartTimer(name string, period bool) *Timer {
	return ctx.actor.startTimer(name, period)
}

// startTimer spawns the timer's backing [OperationTimer]: every time the
// [Strategy] chooses to schedule it, it enqueues one [TimerElapsedEvent]
// into the owning actor's inbox, then either yields a scheduling point and
// loops (periodic) or completes (one-shot).
func (a *Actor) startTimer(name string, period bool) *Timer {
	t := &Timer{}
	t.op = a.rt.sched.spawn(OperationTimer, name, func(op *Operation) {
		for {
			if t.isStopped() {
				return
			}
			a.ib.enqueue(envelope{event: TimerElapsedEvent{Name: name}, senderID: op.ID(), group: a.group})
			a.rt.coverage.sent(a.decl.TypeName, "TimerElapsedEvent")
			if !period || t.isStopped() {
				return
			}
			a.rt.sched.schedulingPoint(op)
		}
	})
	return t
}

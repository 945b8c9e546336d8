package coyote

import (
	"sync"
)

// decisionSink receives every scheduling decision as it is made, for
// recording to a replay schedule file. See replay.go.
type decisionSink interface {
	recordOperation(step int, op *Operation)
	recordBoolean(step int, v bool)
	recordInteger(step int, v uint32)
	recordFair(step int, v bool)
}

// livenessTicker is consulted once per scheduling step so the liveness
// checker (liveness.go) can track hot-state residence and cycle detection
// without the scheduler knowing anything about monitors directly.
type livenessTicker interface {
	tick(step int) error
}

// errorAwareStrategy is implemented by [ReplayStrategy] (replay.go) to
// surface a [ReplayDivergence] discovered mid-iteration once the iteration
// otherwise finishes quiescently.
type errorAwareStrategy interface {
	Err() error
}

// Scheduler is the single driver of controlled nondeterminism for one test
// iteration: it owns the set of live [Operation]s, consults a [Strategy] at
// every scheduling point, and hands off execution one operation at a time
// via baton-passing channels, guaranteeing that exactly one operation's
// goroutine ever runs application code at once.
type Scheduler struct {
	strategy Strategy

	maxSteps int

	mu      sync.Mutex
	ops     []*Operation
	nextID  uint64
	steps   int
	stopped bool

	liveness livenessTicker
	sink     decisionSink

	doneCh  chan struct{}
	failure error
	once    sync.Once
}

// NewScheduler returns a scheduler that will drive one iteration using
// strategy, aborting (without failure) an iteration that exceeds maxSteps
// scheduling points. A maxSteps of 0 means unbounded.
func NewScheduler(strategy Strategy, maxSteps int) *Scheduler {
	return &Scheduler{
		strategy: strategy,
		maxSteps: maxSteps,
		doneCh:   make(chan struct{}),
	}
}

// SetLivenessTicker installs the liveness checker consulted at every
// scheduling step. Optional; nil disables liveness checking entirely.
func (s *Scheduler) SetLivenessTicker(t livenessTicker) { s.liveness = t }

// SetDecisionSink installs the recorder notified of every scheduling
// decision, e.g. to persist a replayable schedule file.
func (s *Scheduler) SetDecisionSink(sink decisionSink) { s.sink = sink }

// Operations returns a snapshot of every operation created so far this
// iteration, for deadlock/coverage reporting.
func (s *Scheduler) Operations() []*Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Operation(nil), s.ops...)
}

// Steps returns the number of scheduling points consumed so far.
func (s *Scheduler) Steps() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.steps
}

// RunIteration drives one complete test iteration: it runs body on a fresh
// root [OperationTask], then continues handing off the baton among any
// operations body spawned until every operation has completed or is an
// actor idle on its empty inbox (success), the enabled set empties with
// other operations still blocked ([Deadlock]), the step budget is hit
// (treated as a quiet stop, not a failure), or application code reports a
// failure via [Scheduler.Fail].
func (s *Scheduler) RunIteration(body func(sched *Scheduler, op *Operation)) error {
	root := s.spawn(OperationTask, "TestBody", func(op *Operation) {
		body(s, op)
	})
	root.resumeCh <- struct{}{}
	<-s.doneCh
	if s.failure == nil {
		if ea, ok := s.strategy.(errorAwareStrategy); ok {
			s.failure = ea.Err()
		}
	}
	return s.failure
}

// Fail records a terminal failure for the current iteration (an assertion
// failure, unhandled event, etc). The first call wins; later calls are
// ignored. It does not itself stop any running operation -- callers
// typically panic or return immediately after calling it so their
// goroutine unwinds toward completion.
func (s *Scheduler) Fail(err error) {
	if err == nil {
		return
	}
	s.setResult(err)
}

func (s *Scheduler) setResult(err error) {
	s.once.Do(func() {
		s.failure = err
		close(s.doneCh)
	})
}

// spawn creates a new operation of the given kind, running fn on its own
// goroutine once the scheduler grants it a turn. fn must not return until
// the operation's work is logically finished; the wrapper marks it
// Completed and yields the baton onward automatically.
func (s *Scheduler) spawn(kind OperationKind, name string, fn func(op *Operation)) *Operation {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	op := newOperation(id, kind, name)
	s.ops = append(s.ops, op)
	s.mu.Unlock()

	go func() {
		<-op.resumeCh
		fn(op)
		op.complete()
		s.schedulingPoint(op)
	}()
	return op
}

// spawnTimer creates the always-enabled [OperationTimer] backing a delay:
// its body is empty, so simply being scheduled at all -- at a point of the
// [Strategy]'s choosing relative to every other enabled operation -- is
// what it means for the timer to fire.
func (s *Scheduler) spawnTimer(name string) *Operation {
	return s.spawn(OperationTimer, name, func(op *Operation) {})
}

// suspendUntil blocks op (already expected to be the operation making this
// call, on its own goroutine) until ready reports true, yielding the baton
// to another enabled operation meanwhile. If ready is already true, it
// returns immediately without yielding.
func (s *Scheduler) suspendUntil(op *Operation, ready func() bool, reason WaitReason) {
	if ready() {
		return
	}
	op.block(reason, ready)
	s.schedulingPoint(op)
}

// schedulingPoint is the heart of the driver: called by whichever
// operation's goroutine is currently running, it recomputes the enabled
// set, consults the [Strategy] for the next operation to run, and either
// continues inline (next == current) or hands off the baton and blocks
// until resumed.
func (s *Scheduler) schedulingPoint(current *Operation) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		if current.status.Load() != StatusCompleted {
			<-current.resumeCh
		}
		return
	}
	s.mu.Unlock()

	s.refreshAll()
	enabled := s.enabledOps()

	if len(enabled) == 0 {
		s.finish(current)
		return
	}

	s.mu.Lock()
	s.steps++
	step := s.steps
	budgetExceeded := s.maxSteps > 0 && step > s.maxSteps
	s.mu.Unlock()

	if budgetExceeded {
		s.stop()
		if current.status.Load() != StatusCompleted {
			<-current.resumeCh
		}
		return
	}

	next := s.strategy.NextOperation(enabled, current)
	if next == nil {
		panic("coyote: strategy returned nil operation for a non-empty enabled set")
	}
	inEnabled := false
	for _, o := range enabled {
		if o == next {
			inEnabled = true
			break
		}
	}
	if !inEnabled {
		panic("coyote: strategy returned an operation outside the enabled set")
	}
	if s.sink != nil {
		s.sink.recordOperation(step, next)
	}
	if s.liveness != nil {
		if err := s.liveness.tick(step); err != nil {
			s.setResult(err)
			s.stop()
		}
	}

	if next == current {
		return
	}

	next.resumeCh <- struct{}{}
	if current.status.Load() == StatusCompleted {
		return
	}
	<-current.resumeCh
}

// stop marks the scheduler so that any further schedulingPoint calls park
// their caller forever without making further progress, and unblocks
// RunIteration. Used both for the normal all-complete case and for
// step-budget / liveness-failure early termination.
func (s *Scheduler) stop() {
	s.mu.Lock()
	already := s.stopped
	s.stopped = true
	s.mu.Unlock()
	if !already {
		s.setResult(s.failure)
	}
}

func (s *Scheduler) finish(current *Operation) {
	s.mu.Lock()
	var blocked []WaitReason
	for _, o := range s.ops {
		if o.status.Load() != StatusCompleted && o.waitReason.Kind != WaitInbox {
			blocked = append(blocked, o.waitReason)
		}
	}
	s.mu.Unlock()
	if len(blocked) > 0 {
		s.setResult(&Deadlock{Blocked: blocked})
	} else {
		s.setResult(nil)
	}
	s.stop()
	if current.status.Load() != StatusCompleted {
		<-current.resumeCh
	}
}

func (s *Scheduler) refreshAll() {
	s.mu.Lock()
	ops := append([]*Operation(nil), s.ops...)
	s.mu.Unlock()
	for _, o := range ops {
		o.refreshReady()
	}
}

func (s *Scheduler) enabledOps() []*Operation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Operation, 0, len(s.ops))
	for _, o := range s.ops {
		if o.status.IsEnabled() {
			out = append(out, o)
		}
	}
	return out
}

// NextBoolean consumes a GetRandomBoolean() choice from the configured
// strategy.
func (s *Scheduler) NextBoolean() bool {
	v := s.strategy.NextBoolean()
	if s.sink != nil {
		s.mu.Lock()
		step := s.steps
		s.mu.Unlock()
		s.sink.recordBoolean(step, v)
	}
	return v
}

// NextInteger consumes a GetRandomInteger(maxExclusive) choice from the
// configured strategy.
func (s *Scheduler) NextInteger(maxExclusive uint32) uint32 {
	v := s.strategy.NextInteger(maxExclusive)
	if s.sink != nil {
		s.mu.Lock()
		step := s.steps
		s.mu.Unlock()
		s.sink.recordInteger(step, v)
	}
	return v
}

// fairBooleanStrategy is implemented by strategies (e.g. [FairStrategy],
// [ReplayStrategy]) that distinguish a GetFairRandomBoolean() choice from an
// ordinary NextBoolean() one.
type fairBooleanStrategy interface {
	FairBoolean() bool
}

// FairBoolean consumes a GetFairRandomBoolean() choice: when the configured
// strategy implements [fairBooleanStrategy] (e.g. it is wrapped in a
// [FairStrategy], or is a [ReplayStrategy] reproducing one), it uses the
// dedicated fair selector rather than the (possibly biased) NextBoolean;
// otherwise it falls back to NextBoolean.
func (s *Scheduler) FairBoolean() bool {
	var v bool
	if fs, ok := s.strategy.(fairBooleanStrategy); ok {
		v = fs.FairBoolean()
	} else {
		v = s.strategy.NextBoolean()
	}
	if s.sink != nil {
		s.mu.Lock()
		step := s.steps
		s.mu.Unlock()
		s.sink.recordFair(step, v)
	}
	return v
}

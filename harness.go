package coyote

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// TestBody is user test code: it registers monitors and creates the root
// actors for one iteration against a fresh [Runtime]. It runs as the
// scheduler's root operation (op), so it may itself call [Runtime] methods
// that require one (CreateActor, SendEvent, ...) directly before returning.
type TestBody func(rt *Runtime, op *Operation)

// IterationResult is the outcome of one [TestEngine] iteration.
type IterationResult struct {
	Iteration int
	Failed    bool
	Err       error
	Steps     int
	Duration  time.Duration
	Schedule  *Schedule
}

// TestReport summarizes an entire [TestEngine.Run].
type TestReport struct {
	Iterations      int
	Failures        []IterationResult
	Coverage        *Coverage
	Metrics         MetricsSnapshot
	FailingSchedule *Schedule
}

// Passed reports whether every iteration completed without a reported
// failure.
func (r *TestReport) Passed() bool { return len(r.Failures) == 0 }

// TestEngine drives up to [WithTestingIterations] independent iterations of
// a [TestBody], exploring schedules via the configured [Strategy], optionally
// in parallel, accumulating coverage and latency metrics, and persisting
// the first failing iteration's schedule (if [WithScheduleFile] is set)
// for later reproduction via [NewReplayStrategy].
type TestEngine struct {
	cfg     *Config
	metrics *Metrics

	userHash func() uint64

	mu              sync.Mutex
	coverage        *Coverage
	failures        []IterationResult
	failingSchedule *Schedule
	scheduleWritten bool
}

// NewTestEngine returns an engine configured by cfg.
func NewTestEngine(cfg *Config) *TestEngine {
	return &TestEngine{
		cfg:      cfg,
		metrics:  NewMetrics(),
		coverage: NewCoverage(),
	}
}

// SetUserStateHash installs the extra hash contribution folded into the
// liveness cycle detector's per-tick state hash; only consulted when
// [WithCycleDetection] and [WithUserDefinedStateHashing] are both enabled.
func (e *TestEngine) SetUserStateHash(fn func() uint64) { e.userHash = fn }

// buildStrategy constructs a fresh top-level [Strategy] for one exploration
// lane, seeded from cfg.randomSeed offset by lane so parallel lanes explore
// disjoint sequences rather than duplicating each other's work.
func (e *TestEngine) buildStrategy(lane int) Strategy {
	c := e.cfg.c
	seed := c.randomSeed + uint64(lane)*0x9e3779b97f4a7c15

	var base Strategy
	switch c.strategyName {
	case StrategyDFS:
		base = NewDFSStrategy()
	case StrategyPrioritization:
		base = NewPriorityStrategy(seed, c.strategyBound)
	case StrategyProbabilistic:
		base = NewProbabilisticStrategy(seed, 0.3)
	case StrategyFair:
		base = NewFairStrategy(NewRandomStrategy(seed), c.strategyBound)
	default:
		base = NewRandomStrategy(seed)
	}
	return base
}

// Run explores cfg.TestingIterations iterations of body, partitioned across
// cfg.Parallelism concurrent lanes (each lane running its assigned
// iterations sequentially against its own [Strategy] instance, so a
// stateful strategy like DFS still explores exhaustively within its lane).
func (e *TestEngine) Run(body TestBody) (*TestReport, error) {
	c := e.cfg.c
	lanes := c.parallelism
	if lanes > c.iterations {
		lanes = c.iterations
	}
	if lanes < 1 {
		lanes = 1
	}

	var g errgroup.Group
	for lane := 0; lane < lanes; lane++ {
		lane := lane
		g.Go(func() error {
			strategy := e.buildStrategy(lane)
			for iteration := lane; iteration < c.iterations; iteration += lanes {
				if !strategy.HasMoreIterations() {
					return nil
				}
				e.runOne(strategy, iteration, body)
				if p, ok := strategy.(interface{ PrepareNext() }); ok {
					p.PrepareNext()
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return &TestReport{
		Iterations:      c.iterations,
		Failures:        append([]IterationResult(nil), e.failures...),
		Coverage:        e.coverage,
		Metrics:         e.metrics.Snapshot(),
		FailingSchedule: e.failingSchedule,
	}, nil
}

func (e *TestEngine) runOne(strategy Strategy, iteration int, body TestBody) {
	c := e.cfg.c
	beginStrategyIteration(strategy, iteration)

	sched := NewScheduler(strategy, c.maxSchedulingSteps)
	rt := NewRuntime(sched)

	var recorder *scheduleRecorder
	if c.scheduleFile != "" {
		recorder = newScheduleRecorder(strategy.Name(), c.randomSeed)
		sched.SetDecisionSink(recorder)
	}

	checker := newLivenessChecker(rt, c.livenessThreshold, strategy.IsFair())
	if c.enableCycleDetection {
		checker.enableCycleDetection(e.userHashIfEnabled())
	}
	rt.liveness = checker
	sched.SetLivenessTicker(checker)

	start := time.Now()
	err := sched.RunIteration(func(sched *Scheduler, op *Operation) { body(rt, op) })
	if err == nil {
		err = checker.endOfIteration()
	}
	duration := time.Since(start)
	steps := sched.Steps()
	failed := err != nil

	e.metrics.Record(duration, steps, failed)

	result := IterationResult{Iteration: iteration, Failed: failed, Err: err, Steps: steps, Duration: duration}
	if recorder != nil {
		result.Schedule = recorder.Schedule()
	}

	if failed {
		logFailure(iteration, steps, err)
	} else {
		logIterationPassed(iteration, steps)
	}

	e.mu.Lock()
	if c.reportActivityCoverage {
		e.coverage.Merge(rt.coverage.Snapshot())
	}
	if failed {
		e.failures = append(e.failures, result)
		if e.failingSchedule == nil && result.Schedule != nil {
			e.failingSchedule = result.Schedule
		}
		e.maybeWriteScheduleLocked()
	}
	e.mu.Unlock()
}

func (e *TestEngine) userHashIfEnabled() func() uint64 {
	if !e.cfg.c.enableUserDefinedHashing {
		return nil
	}
	return e.userHash
}

// maybeWriteScheduleLocked persists the first failing iteration's schedule
// to cfg.scheduleFile, once. Must be called with e.mu held.
func (e *TestEngine) maybeWriteScheduleLocked() {
	c := e.cfg.c
	w := c.scheduleWriter
	if w == nil {
		if c.scheduleFile == "" {
			return
		}
		w = FileScheduleWriter{Path: c.scheduleFile}
	}
	if e.scheduleWritten || e.failingSchedule == nil {
		return
	}
	e.scheduleWritten = true
	if err := w.WriteSchedule(e.failingSchedule); err != nil {
		logger().Err().Err(err).Log("failed to write replay schedule")
	}
}

// ReplayFailure reruns exactly one previously recorded [Schedule] against
// body, for reproducing a failure found during [TestEngine.Run] (typically
// the file written to the path given by [WithScheduleFile]). The returned error is the
// iteration's failure, if any, or a [ReplayDivergence] wrapped via
// [WrapError] if the schedule no longer matches the live program's choices.
func ReplayFailure(schedule *Schedule, body TestBody) error {
	strategy := NewReplayStrategy(schedule)
	sched := NewScheduler(strategy, 0)
	rt := NewRuntime(sched)

	checker := newLivenessChecker(rt, 0, false)
	rt.liveness = checker
	sched.SetLivenessTicker(checker)

	err := sched.RunIteration(func(sched *Scheduler, op *Operation) { body(rt, op) })
	if divergeErr := strategy.Err(); divergeErr != nil {
		if div, ok := divergeErr.(*ReplayDivergence); ok {
			logReplayDivergence("", div)
		}
		if err == nil {
			return fmt.Errorf("coyote: replay completed without reproducing the recorded failure, but diverged: %w", divergeErr)
		}
	}
	return err
}

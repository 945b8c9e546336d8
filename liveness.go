package coyote

import (
	"hash/maphash"
	"sort"
)

// livenessChecker tracks, for one iteration, how long each monitor has
// continuously resided in a Hot state, and (optionally) whether the global
// program state is repeating while a monitor is hot. It implements
// [livenessTicker], consulted by the scheduler once per scheduling step.
type livenessChecker struct {
	rt          *Runtime
	threshold   int
	fair        bool
	temperature map[string]int // monitor type -> consecutive hot ticks

	cycleDetection bool
	seed           maphash.Seed
	seen           map[uint64]bool
	userHash       func() uint64
}

// newLivenessChecker returns a checker that fails the iteration with
// [LivenessViolation] once any monitor's Hot-state residence reaches
// threshold consecutive ticks. fair should be strategy.IsFair(): an unfair
// strategy cannot be trusted to eventually schedule a starved operation, so
// LivenessViolation is only reported under a fair strategy (spec: "the
// liveness checker must trust that the strategy is fair").
func newLivenessChecker(rt *Runtime, threshold int, fair bool) *livenessChecker {
	return &livenessChecker{
		rt:          rt,
		threshold:   threshold,
		fair:        fair,
		temperature: make(map[string]int),
	}
}

// enableCycleDetection switches the checker into hashing the program state
// (every operation's name and enabled/blocked status, every monitor's state
// stack, plus an optional userHash contribution; actor state stacks and
// inbox contents are not included) at each tick, reporting
// [LivenessCycle] the moment a hash repeats while some monitor is hot. This
// finds violations in far fewer steps than temperature thresholds alone, at
// the cost of unbounded memory for the seen-hash set.
func (l *livenessChecker) enableCycleDetection(userHash func() uint64) {
	l.cycleDetection = true
	l.seed = maphash.MakeSeed()
	l.seen = make(map[uint64]bool)
	l.userHash = userHash
}

func (l *livenessChecker) tick(step int) error {
	hot := l.rt.currentHotMonitors()

	for name := range l.temperature {
		if _, stillHot := hot[name]; !stillHot {
			delete(l.temperature, name)
		}
	}
	for name, state := range hot {
		l.temperature[name]++
		if l.fair && l.threshold > 0 && l.temperature[name] >= l.threshold {
			return &LivenessViolation{Monitor: name, State: state}
		}
	}

	if l.cycleDetection && len(hot) > 0 {
		h := l.stateHash()
		if l.seen[h] {
			// Report against an arbitrary one of the currently hot monitors;
			// a cycle with any monitor hot throughout is itself the
			// violation, regardless of which one is named.
			for name, state := range hot {
				return &LivenessCycle{Monitor: name, State: state}
			}
		}
		l.seen[h] = true
	}

	return nil
}

// endOfIteration reports [LivenessEndOfProgram] for the first monitor (by
// name, for determinism) still hot when an iteration otherwise completes
// successfully. Called from the harness after [Scheduler.RunIteration]
// returns nil.
func (l *livenessChecker) endOfIteration() error {
	hot := l.rt.currentHotMonitors()
	if len(hot) == 0 {
		return nil
	}
	names := make([]string, 0, len(hot))
	for name := range hot {
		names = append(names, name)
	}
	sort.Strings(names)
	return &LivenessEndOfProgram{Monitor: names[0], State: hot[names[0]]}
}

// stateHash hashes each operation's name and whether it is enabled, and
// every monitor's state stack, into a single value; two ticks with equal
// hashes are strong
// (not certain -- this is a hash, not an equality check) evidence of a
// repeated global state.
func (l *livenessChecker) stateHash() uint64 {
	var h maphash.Hash
	h.SetSeed(l.seed)

	ops := l.rt.sched.Operations()
	for _, op := range ops {
		_, _ = h.WriteString(op.Name())
		_, _ = h.WriteString("\x00")
		var statusByte byte
		if op.status.IsEnabled() {
			statusByte = 1
		}
		_ = h.WriteByte(statusByte)
	}

	names := make([]string, 0, len(l.rt.monitors))
	for name := range l.rt.monitors {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, s := range l.rt.MonitorStates(name) {
			_, _ = h.WriteString(name)
			_, _ = h.WriteString("\x00")
			_, _ = h.WriteString(s)
			_, _ = h.WriteString("\x00")
		}
	}

	if l.userHash != nil {
		var buf [8]byte
		u := l.userHash()
		for i := range buf {
			buf[i] = byte(u >> (8 * i))
		}
		_, _ = h.Write(buf[:])
	}

	return h.Sum64()
}

package coyote

// FairStrategy wraps any [Strategy], and after FairnessThreshold
// consecutive steps without "progress" (the same operation set
// repeatedly declining to change), begins round-robin selection so
// hot-state monitors can eventually witness progress. A
// [Scheduler.FairBoolean] choice point always consults the
// wrapper's fair selector directly, bypassing the inner strategy.
type FairStrategy struct {
	inner             Strategy
	fairnessThreshold int

	stepsSinceProgress int
	lastChoiceSetKey   string
	roundRobinCursor   int
}

// NewFairStrategy wraps inner, switching to round-robin after threshold
// consecutive non-progressing steps.
func NewFairStrategy(inner Strategy, threshold int) *FairStrategy {
	return &FairStrategy{inner: inner, fairnessThreshold: threshold}
}

func (s *FairStrategy) beginIteration(iteration int) {
	s.stepsSinceProgress = 0
	s.lastChoiceSetKey = ""
	s.roundRobinCursor = 0
	beginStrategyIteration(s.inner, iteration)
}

func enabledSetKey(enabled []*Operation) string {
	key := make([]byte, 0, len(enabled)*9)
	for _, op := range enabled {
		key = append(key, byte(op.id), byte(op.id>>8), byte(op.id>>16), byte(op.id>>24),
			byte(op.id>>32), byte(op.id>>40), byte(op.id>>48), byte(op.id>>56), ',')
	}
	return string(key)
}

// NextOperation implements [Strategy].
func (s *FairStrategy) NextOperation(enabled []*Operation, current *Operation) *Operation {
	if len(enabled) == 0 {
		return nil
	}
	key := enabledSetKey(enabled)
	if key == s.lastChoiceSetKey {
		s.stepsSinceProgress++
	} else {
		s.stepsSinceProgress = 0
		s.lastChoiceSetKey = key
	}
	if s.stepsSinceProgress >= s.fairnessThreshold {
		op := enabled[s.roundRobinCursor%len(enabled)]
		s.roundRobinCursor++
		return op
	}
	return s.inner.NextOperation(enabled, current)
}

// NextBoolean implements [Strategy], delegating to the wrapped strategy.
func (s *FairStrategy) NextBoolean() bool { return s.inner.NextBoolean() }

// NextInteger implements [Strategy], delegating to the wrapped strategy.
func (s *FairStrategy) NextInteger(maxExclusive uint32) uint32 { return s.inner.NextInteger(maxExclusive) }

// FairBoolean implements the GetFairRandomBoolean choice point: it
// advances the round-robin cursor (shared with NextOperation) and returns
// whether the cursor is now even, so successive calls alternate between
// false and true; the wrapped strategy's NextBoolean is not consulted.
func (s *FairStrategy) FairBoolean() bool {
	s.roundRobinCursor++
	return s.roundRobinCursor%2 == 0
}

// HasMoreIterations implements [Strategy].
func (s *FairStrategy) HasMoreIterations() bool { return s.inner.HasMoreIterations() }

// IsFair implements [Strategy]: the wrapper always is, regardless of the
// inner strategy.
func (s *FairStrategy) IsFair() bool { return true }

// Name implements [Strategy].
func (s *FairStrategy) Name() string { return "Fair(" + s.inner.Name() + ")" }

// Inner returns the wrapped strategy, e.g. for [DFSStrategy.PrepareNext].
func (s *FairStrategy) Inner() Strategy { return s.inner }

package coyote

// DFSStrategy performs a deterministic depth-first search over the choice
// tree: at each scheduling point it records the index, within the enabled
// set, of the branch taken; on the next iteration it replays the prior
// path but advances the last decision to its next untried branch
// (classic DFS backtracking), and truncates the path once every branch
// at the tail has been explored. It is exhaustive within the configured
// step budget, but is not fair for liveness unless paired with
// [NewFairStrategy].
type DFSStrategy struct {
	// path is the sequence of (branch index, branch count) pairs chosen
	// on the PRIOR iteration; this iteration replays path[i].index for
	// i < cursor-that-was-bumped, then explores fresh.
	path   []dfsChoice
	cursor int
	// exhausted becomes true once path is empty after a backtrack,
	// meaning every branch at every depth has been explored.
	exhausted bool
}

type dfsChoice struct {
	index int
	count int
}

// NewDFSStrategy returns a fresh depth-first strategy.
func NewDFSStrategy() *DFSStrategy {
	return &DFSStrategy{}
}

func (s *DFSStrategy) beginIteration(int) {
	s.cursor = 0
}

func (s *DFSStrategy) choose(count int) int {
	if count <= 0 {
		return 0
	}
	if s.cursor < len(s.path) {
		c := s.path[s.cursor]
		if c.count != count {
			// The choice tree shape differs from the recorded path
			// (nondeterminism outside the strategy's control); fall
			// back to the first branch rather than panicking.
			c = dfsChoice{index: 0, count: count}
			s.path[s.cursor] = c
		}
		s.cursor++
		return c.index
	}
	s.path = append(s.path, dfsChoice{index: 0, count: count})
	s.cursor++
	return 0
}

// NextOperation implements [Strategy].
func (s *DFSStrategy) NextOperation(enabled []*Operation, _ *Operation) *Operation {
	if len(enabled) == 0 {
		return nil
	}
	return enabled[s.choose(len(enabled))]
}

// NextBoolean implements [Strategy].
func (s *DFSStrategy) NextBoolean() bool { return s.choose(2) == 1 }

// NextInteger implements [Strategy].
func (s *DFSStrategy) NextInteger(maxExclusive uint32) uint32 {
	if maxExclusive == 0 {
		return 0
	}
	return uint32(s.choose(int(maxExclusive)))
}

// HasMoreIterations implements [Strategy]: false once backtracking has
// exhausted every branch of the choice tree explored so far.
func (s *DFSStrategy) HasMoreIterations() bool { return !s.exhausted }

// PrepareNext advances the recorded path to the next unexplored branch,
// backtracking (popping the tail) over any choice whose every branch has
// already been tried. Called by the [TestEngine] between iterations.
func (s *DFSStrategy) PrepareNext() {
	for len(s.path) > 0 {
		last := len(s.path) - 1
		s.path[last].index++
		if s.path[last].index < s.path[last].count {
			return
		}
		s.path = s.path[:last]
	}
	s.exhausted = true
}

// IsFair implements [Strategy]: DFS alone offers no fairness guarantee.
func (s *DFSStrategy) IsFair() bool { return false }

// Name implements [Strategy].
func (s *DFSStrategy) Name() string { return "DFS" }

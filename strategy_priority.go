package coyote

import "math/rand/v2"

// PriorityStrategy implements a PCT-like (probabilistic concurrency
// testing) exploration: it assigns a total order of priorities over
// operations (new operations are inserted at the lowest priority as they
// are created) and, at a fixed number of randomly chosen scheduling
// points per iteration (PriorityChangePoints), demotes the currently
// highest-priority operation to the bottom. At every scheduling point it
// selects the highest-priority enabled operation.
type PriorityStrategy struct {
	rng                 *rand.Rand
	priorityChangePoints int
	priorities          []uint64 // operation id, highest priority first
	changeAtStep        map[int]bool
	step                int
}

// NewPriorityStrategy returns a PCT-like strategy that performs
// changePoints priority demotions per iteration, seeded from seed.
func NewPriorityStrategy(seed uint64, changePoints int) *PriorityStrategy {
	return &PriorityStrategy{
		rng:                 rand.New(rand.NewPCG(seed, seed^0xd1b54a32d192ed03)),
		priorityChangePoints: changePoints,
	}
}

func (s *PriorityStrategy) beginIteration(int) {
	s.priorities = nil
	s.step = 0
	s.changeAtStep = nil
}

func (s *PriorityStrategy) ensurePlanned(maxSteps int) {
	if s.changeAtStep != nil {
		return
	}
	s.changeAtStep = make(map[int]bool, s.priorityChangePoints)
	if maxSteps <= 0 {
		maxSteps = 1
	}
	for i := 0; i < s.priorityChangePoints; i++ {
		s.changeAtStep[s.rng.IntN(maxSteps)] = true
	}
}

func (s *PriorityStrategy) insertKnown(enabled []*Operation) {
	known := make(map[uint64]bool, len(s.priorities))
	for _, id := range s.priorities {
		known[id] = true
	}
	for _, op := range enabled {
		if !known[op.id] {
			s.priorities = append(s.priorities, op.id)
			known[op.id] = true
		}
	}
}

// demoteHighest moves the current highest-priority operation id (the
// first entry present in enabled) to the bottom of the priority list.
func (s *PriorityStrategy) demoteHighest(enabled []*Operation) {
	enabledSet := make(map[uint64]bool, len(enabled))
	for _, op := range enabled {
		enabledSet[op.id] = true
	}
	for i, id := range s.priorities {
		if enabledSet[id] {
			s.priorities = append(s.priorities[:i], s.priorities[i+1:]...)
			s.priorities = append(s.priorities, id)
			return
		}
	}
}

// NextOperation implements [Strategy].
func (s *PriorityStrategy) NextOperation(enabled []*Operation, _ *Operation) *Operation {
	if len(enabled) == 0 {
		return nil
	}
	s.ensurePlanned(256)
	s.insertKnown(enabled)
	if s.changeAtStep[s.step] {
		s.demoteHighest(enabled)
	}
	s.step++
	byID := make(map[uint64]*Operation, len(enabled))
	for _, op := range enabled {
		byID[op.id] = op
	}
	for _, id := range s.priorities {
		if op, ok := byID[id]; ok {
			return op
		}
	}
	return enabled[0]
}

// NextBoolean implements [Strategy].
func (s *PriorityStrategy) NextBoolean() bool { return s.rng.IntN(2) == 1 }

// NextInteger implements [Strategy].
func (s *PriorityStrategy) NextInteger(maxExclusive uint32) uint32 {
	if maxExclusive == 0 {
		return 0
	}
	return uint32(s.rng.IntN(int(maxExclusive)))
}

// HasMoreIterations implements [Strategy].
func (s *PriorityStrategy) HasMoreIterations() bool { return true }

// IsFair implements [Strategy]: bounded priority-change points do not
// guarantee every enabled operation eventually runs.
func (s *PriorityStrategy) IsFair() bool { return false }

// Name implements [Strategy].
func (s *PriorityStrategy) Name() string { return "Prioritization" }

package coyote

import "math/rand/v2"

// RandomStrategy selects uniformly among the enabled operations, and
// returns uniform booleans/integers. It is seeded for reproducibility; see
// [WithRandomSeed]. Under an unbounded step budget it is fair: every
// continually-enabled operation has nonzero probability of selection at
// every step, so (with probability 1 in the limit) it is eventually
// chosen.
type RandomStrategy struct {
	rng *rand.Rand
}

// NewRandomStrategy returns a [RandomStrategy] seeded from seed.
func NewRandomStrategy(seed uint64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// NextOperation implements [Strategy].
func (s *RandomStrategy) NextOperation(enabled []*Operation, _ *Operation) *Operation {
	if len(enabled) == 0 {
		return nil
	}
	return enabled[s.rng.IntN(len(enabled))]
}

// NextBoolean implements [Strategy].
func (s *RandomStrategy) NextBoolean() bool { return s.rng.IntN(2) == 1 }

// NextInteger implements [Strategy].
func (s *RandomStrategy) NextInteger(maxExclusive uint32) uint32 {
	if maxExclusive == 0 {
		return 0
	}
	return uint32(s.rng.IntN(int(maxExclusive)))
}

// HasMoreIterations implements [Strategy]; Random never exhausts on its
// own -- the [TestEngine] bounds it via [WithTestingIterations].
func (s *RandomStrategy) HasMoreIterations() bool { return true }

// IsFair implements [Strategy].
func (s *RandomStrategy) IsFair() bool { return true }

// Name implements [Strategy].
func (s *RandomStrategy) Name() string { return "Random" }

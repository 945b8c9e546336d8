package coyote

import "math/rand/v2"

// ProbabilisticStrategy flips a biased coin at every scheduling point
// between "continue the current operation, if still enabled" and "switch
// to a uniformly random different enabled operation". SwitchProbability
// is the chance of the latter, in [0, 1].
type ProbabilisticStrategy struct {
	rng         *rand.Rand
	switchProb  float64
}

// NewProbabilisticStrategy returns a strategy that switches operations
// with probability switchProb, seeded from seed.
func NewProbabilisticStrategy(seed uint64, switchProb float64) *ProbabilisticStrategy {
	switchProb = clamp(switchProb, 0, 1)
	return &ProbabilisticStrategy{
		rng:        rand.New(rand.NewPCG(seed, seed^0x2545f4914f6cdd1d)),
		switchProb: switchProb,
	}
}

// NextOperation implements [Strategy].
func (s *ProbabilisticStrategy) NextOperation(enabled []*Operation, current *Operation) *Operation {
	if len(enabled) == 0 {
		return nil
	}
	currentStillEnabled := false
	for _, op := range enabled {
		if op == current {
			currentStillEnabled = true
			break
		}
	}
	if currentStillEnabled && s.rng.Float64() >= s.switchProb {
		return current
	}
	if len(enabled) == 1 {
		return enabled[0]
	}
	// Switch to a different enabled operation, uniformly.
	choices := enabled
	if currentStillEnabled {
		choices = make([]*Operation, 0, len(enabled)-1)
		for _, op := range enabled {
			if op != current {
				choices = append(choices, op)
			}
		}
	}
	return choices[s.rng.IntN(len(choices))]
}

// NextBoolean implements [Strategy].
func (s *ProbabilisticStrategy) NextBoolean() bool { return s.rng.IntN(2) == 1 }

// NextInteger implements [Strategy].
func (s *ProbabilisticStrategy) NextInteger(maxExclusive uint32) uint32 {
	if maxExclusive == 0 {
		return 0
	}
	return uint32(s.rng.IntN(int(maxExclusive)))
}

// HasMoreIterations implements [Strategy].
func (s *ProbabilisticStrategy) HasMoreIterations() bool { return true }

// IsFair implements [Strategy]: a nonzero switch probability gives every
// continually-enabled operation nonzero selection probability at every
// step, so it is fair in the limit.
func (s *ProbabilisticStrategy) IsFair() bool { return s.switchProb > 0 }

// Name implements [Strategy].
func (s *ProbabilisticStrategy) Name() string { return "Probabilistic" }

package coyote

import "fmt"

// config holds the resolved settings for one [TestEngine] run.
type config struct {
	iterations               int
	maxSchedulingSteps       int
	strategyName             string
	strategyBound            int
	randomSeed               uint64
	enableCycleDetection     bool
	enableUserDefinedHashing bool
	livenessThreshold        int
	enableMonitorsInProd     bool
	scheduleFile             string
	scheduleWriter           ScheduleWriter
	reportActivityCoverage   bool
	parallelism              int
}

// Option configures a [Config] via [NewConfig] or [LoadConfigYAML].
type Option interface{ apply(*config) error }

type optionImpl struct {
	fn func(*config) error
}

func (o *optionImpl) apply(c *config) error { return o.fn(c) }

func newOption(fn func(*config) error) Option {
	return &optionImpl{fn: fn}
}

// WithTestingIterations sets how many independent iterations [TestEngine.Run]
// explores (default 1).
func WithTestingIterations(n int) Option {
	return newOption(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("coyote: WithTestingIterations: n must be >= 1, got %d", n)
		}
		c.iterations = n
		return nil
	})
}

// WithMaxSchedulingSteps bounds the number of scheduling points a single
// iteration may consume before it is quietly stopped (0 means unbounded,
// the default).
func WithMaxSchedulingSteps(n int) Option {
	return newOption(func(c *config) error {
		if n < 0 {
			return fmt.Errorf("coyote: WithMaxSchedulingSteps: n must be >= 0, got %d", n)
		}
		c.maxSchedulingSteps = n
		return nil
	})
}

// Strategy names accepted by [WithSchedulingStrategy].
const (
	StrategyRandom         = "random"
	StrategyProbabilistic  = "probabilistic"
	StrategyPrioritization = "prioritization"
	StrategyDFS            = "dfs"
	StrategyFair           = "fair"
)

// WithSchedulingStrategy selects the exploration [Strategy] by name (one of
// the Strategy* constants); default [StrategyRandom].
func WithSchedulingStrategy(name string) Option {
	return newOption(func(c *config) error {
		switch name {
		case StrategyRandom, StrategyProbabilistic, StrategyPrioritization, StrategyDFS, StrategyFair:
			c.strategyName = name
			return nil
		default:
			return fmt.Errorf("coyote: WithSchedulingStrategy: unknown strategy %q", name)
		}
	})
}

// WithStrategyBound sets the strategy-specific exploration bound: the
// prioritization strategy's priority-change points, or the fair strategy's
// fairness threshold (default 3). The probabilistic strategy does not use
// it.
func WithStrategyBound(n int) Option {
	return newOption(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("coyote: WithStrategyBound: n must be >= 1, got %d", n)
		}
		c.strategyBound = n
		return nil
	})
}

// WithRandomSeed fixes the PRNG seed driving the configured strategy, for
// reproducibility outside of full schedule replay.
func WithRandomSeed(seed uint64) Option {
	return newOption(func(c *config) error {
		c.randomSeed = seed
		return nil
	})
}

// WithCycleDetection enables the liveness checker's state-hashing cycle
// detector, in addition to (not instead of) the temperature threshold.
func WithCycleDetection(enabled bool) Option {
	return newOption(func(c *config) error {
		c.enableCycleDetection = enabled
		return nil
	})
}

// WithUserDefinedStateHashing folds a user-supplied hash contribution into
// the cycle detector's per-tick state hash; meaningless unless
// [WithCycleDetection] is also enabled.
func WithUserDefinedStateHashing(enabled bool) Option {
	return newOption(func(c *config) error {
		c.enableUserDefinedHashing = enabled
		return nil
	})
}

// WithLivenessTemperatureThreshold sets the number of consecutive
// scheduling steps a monitor may reside in a Hot state before
// [LivenessViolation] is raised (default 150, mirroring Coyote's default).
func WithLivenessTemperatureThreshold(n int) Option {
	return newOption(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("coyote: WithLivenessTemperatureThreshold: n must be >= 1, got %d", n)
		}
		c.livenessThreshold = n
		return nil
	})
}

// WithMonitorsInProduction records the EnableMonitorsInProduction setting.
// Nothing in this package reads it: [Runtime.RegisterMonitor] behaves the
// same whether or not it is set.
func WithMonitorsInProduction(enabled bool) Option {
	return newOption(func(c *config) error {
		c.enableMonitorsInProd = enabled
		return nil
	})
}

// WithScheduleFile sets the path a failing iteration's [Schedule] is written
// to, for later replay via [NewReplayStrategy]/[ParseSchedule]. Sugar for
// [WithScheduleWriter] with a [FileScheduleWriter] targeting path.
func WithScheduleFile(path string) Option {
	return newOption(func(c *config) error {
		c.scheduleFile = path
		return nil
	})
}

// WithScheduleWriter overrides how a failing iteration's [Schedule] is
// persisted, in place of the default [FileScheduleWriter] implied by
// [WithScheduleFile]. Takes precedence over WithScheduleFile if both are
// given.
func WithScheduleWriter(w ScheduleWriter) Option {
	return newOption(func(c *config) error {
		c.scheduleWriter = w
		return nil
	})
}

// WithActivityCoverageReport enables accumulation and return of merged
// [Coverage] across every iteration run by a [TestEngine].
func WithActivityCoverageReport(enabled bool) Option {
	return newOption(func(c *config) error {
		c.reportActivityCoverage = enabled
		return nil
	})
}

// WithParallelism bounds how many iterations a [TestEngine] runs
// concurrently (default 1, fully sequential).
func WithParallelism(n int) Option {
	return newOption(func(c *config) error {
		if n < 1 {
			return fmt.Errorf("coyote: WithParallelism: n must be >= 1, got %d", n)
		}
		c.parallelism = n
		return nil
	})
}

// resolveConfig applies defaults, then opts in order, failing fast on the
// first invalid option.
func resolveConfig(opts []Option) (*config, error) {
	c := &config{
		iterations:        1,
		strategyName:      StrategyRandom,
		strategyBound:     3,
		livenessThreshold: 150,
		parallelism:       1,
	}
	for _, o := range opts {
		if o == nil {
			continue
		}
		if err := o.apply(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

package coyote

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the resolved, immutable settings for one [TestEngine] run,
// built by [NewConfig] or [LoadConfigYAML].
type Config struct{ c *config }

// NewConfig resolves opts against the package defaults.
func NewConfig(opts ...Option) (*Config, error) {
	c, err := resolveConfig(opts)
	if err != nil {
		return nil, err
	}
	return &Config{c: c}, nil
}

// yamlConfig mirrors the fields of [Config] in their on-disk, checked-in
// settings-file form (snake_case, zero value meaning "use the default").
type yamlConfig struct {
	TestingIterations            int    `yaml:"testing_iterations"`
	MaxSchedulingSteps           int    `yaml:"max_scheduling_steps"`
	SchedulingStrategy           string `yaml:"scheduling_strategy"`
	StrategyBound                int    `yaml:"strategy_bound"`
	RandomSeed                   uint64 `yaml:"random_seed"`
	EnableCycleDetection         bool   `yaml:"enable_cycle_detection"`
	EnableUserDefinedStateHashing bool  `yaml:"enable_user_defined_state_hashing"`
	LivenessTemperatureThreshold int    `yaml:"liveness_temperature_threshold"`
	EnableMonitorsInProduction   bool   `yaml:"enable_monitors_in_production"`
	ScheduleFile                 string `yaml:"schedule_file"`
	IsActivityCoverageReported   bool   `yaml:"is_activity_coverage_reported"`
	Parallelism                  int    `yaml:"parallelism"`
}

// LoadConfigYAML parses a settings file in the format written by a checked-in
// coyote.yaml, applying any zero-valued field as "leave at default" and any
// extraOpts after the file's own settings (so callers may still override
// specific fields programmatically).
func LoadConfigYAML(data []byte, extraOpts ...Option) (*Config, error) {
	var y yamlConfig
	if err := yaml.Unmarshal(data, &y); err != nil {
		return nil, fmt.Errorf("coyote: LoadConfigYAML: %w", err)
	}

	var opts []Option
	if y.TestingIterations > 0 {
		opts = append(opts, WithTestingIterations(y.TestingIterations))
	}
	if y.MaxSchedulingSteps > 0 {
		opts = append(opts, WithMaxSchedulingSteps(y.MaxSchedulingSteps))
	}
	if y.SchedulingStrategy != "" {
		opts = append(opts, WithSchedulingStrategy(y.SchedulingStrategy))
	}
	if y.StrategyBound > 0 {
		opts = append(opts, WithStrategyBound(y.StrategyBound))
	}
	if y.RandomSeed != 0 {
		opts = append(opts, WithRandomSeed(y.RandomSeed))
	}
	if y.EnableCycleDetection {
		opts = append(opts, WithCycleDetection(true))
	}
	if y.EnableUserDefinedStateHashing {
		opts = append(opts, WithUserDefinedStateHashing(true))
	}
	if y.LivenessTemperatureThreshold > 0 {
		opts = append(opts, WithLivenessTemperatureThreshold(y.LivenessTemperatureThreshold))
	}
	if y.EnableMonitorsInProduction {
		opts = append(opts, WithMonitorsInProduction(true))
	}
	if y.ScheduleFile != "" {
		opts = append(opts, WithScheduleFile(y.ScheduleFile))
	}
	if y.IsActivityCoverageReported {
		opts = append(opts, WithActivityCoverageReport(true))
	}
	if y.Parallelism > 0 {
		opts = append(opts, WithParallelism(y.Parallelism))
	}
	opts = append(opts, extraOpts...)

	return NewConfig(opts...)
}

// LoadConfigYAMLFile reads path and parses it via [LoadConfigYAML].
func LoadConfigYAMLFile(path string, extraOpts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("coyote: LoadConfigYAMLFile: %w", err)
	}
	return LoadConfigYAML(data, extraOpts...)
}

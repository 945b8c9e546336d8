package coyote

import (
	"fmt"
	"sync"
	"time"
)

// percentiles tracked by [Metrics]: P50, P90, P95, P99.
var metricsPercentiles = []float64{0.5, 0.9, 0.95, 0.99}

// Metrics accumulates streaming latency statistics across the iterations of
// one [TestEngine] run: how long each iteration took to explore, and how
// many scheduling steps it consumed. Estimates use the P-Square algorithm,
// so memory use is independent of the iteration count.
//
// Safe for concurrent use; a [TestEngine] running iterations in parallel
// records into the same Metrics from multiple goroutines.
type Metrics struct {
	mu sync.Mutex

	durations *pSquareMultiQuantile
	steps     *pSquareMultiQuantile

	iterations int
	failures   int
}

// NewMetrics returns an empty Metrics ready to record.
func NewMetrics() *Metrics {
	return &Metrics{
		durations: newPSquareMultiQuantile(metricsPercentiles...),
		steps:     newPSquareMultiQuantile(metricsPercentiles...),
	}
}

// Record folds one completed iteration's duration and scheduling-step count
// into the running estimate. failed indicates whether the iteration ended
// in a reported failure (an assertion, deadlock, or liveness violation),
// purely for the failure-rate reported by [Metrics.Snapshot].
func (m *Metrics) Record(d time.Duration, steps int, failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.durations.Update(d.Seconds())
	m.steps.Update(float64(steps))
	m.iterations++
	if failed {
		m.failures++
	}
}

// MetricsSnapshot is a point-in-time, immutable copy of a [Metrics]'
// accumulated statistics.
type MetricsSnapshot struct {
	Iterations int
	Failures   int

	DurationP50, DurationP90, DurationP95, DurationP99, DurationMax, DurationMean time.Duration

	StepsP50, StepsP90, StepsP95, StepsP99 float64
	StepsMax, StepsMean                    float64
}

// Snapshot returns the current accumulated statistics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	toDuration := func(seconds float64) time.Duration {
		return time.Duration(seconds * float64(time.Second))
	}

	return MetricsSnapshot{
		Iterations: m.iterations,
		Failures:   m.failures,

		DurationP50:  toDuration(m.durations.Quantile(0)),
		DurationP90:  toDuration(m.durations.Quantile(1)),
		DurationP95:  toDuration(m.durations.Quantile(2)),
		DurationP99:  toDuration(m.durations.Quantile(3)),
		DurationMax:  toDuration(m.durations.Max()),
		DurationMean: toDuration(m.durations.Mean()),

		StepsP50:  m.steps.Quantile(0),
		StepsP90:  m.steps.Quantile(1),
		StepsP95:  m.steps.Quantile(2),
		StepsP99:  m.steps.Quantile(3),
		StepsMax:  m.steps.Max(),
		StepsMean: m.steps.Mean(),
	}
}

// String renders a one-line human-readable summary, suitable for a test
// log's final report.
func (s MetricsSnapshot) String() string {
	return fmt.Sprintf(
		"iterations=%d failures=%d duration(p50=%s p90=%s p95=%s p99=%s max=%s mean=%s) steps(p50=%.0f p90=%.0f p95=%.0f p99=%.0f max=%.0f mean=%.1f)",
		s.Iterations, s.Failures,
		s.DurationP50, s.DurationP90, s.DurationP95, s.DurationP99, s.DurationMax, s.DurationMean,
		s.StepsP50, s.StepsP90, s.StepsP95, s.StepsP99, s.StepsMax, s.StepsMean,
	)
}

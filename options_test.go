package coyote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

func TestNewConfigDefaults(t *testing.T) {
	_, err := coyote.NewConfig()
	require.NoError(t, err)
}

func TestWithTestingIterationsRejectsZero(t *testing.T) {
	_, err := coyote.NewConfig(coyote.WithTestingIterations(0))
	require.Error(t, err)
}

func TestWithSchedulingStrategyRejectsUnknownName(t *testing.T) {
	_, err := coyote.NewConfig(coyote.WithSchedulingStrategy("quantum"))
	require.Error(t, err)
}

func TestWithSchedulingStrategyAcceptsEveryDeclaredName(t *testing.T) {
	for _, name := range []string{
		coyote.StrategyRandom,
		coyote.StrategyProbabilistic,
		coyote.StrategyPrioritization,
		coyote.StrategyDFS,
		coyote.StrategyFair,
	} {
		_, err := coyote.NewConfig(coyote.WithSchedulingStrategy(name))
		require.NoError(t, err, "strategy %q", name)
	}
}

func TestWithParallelismRejectsZero(t *testing.T) {
	_, err := coyote.NewConfig(coyote.WithParallelism(0))
	require.Error(t, err)
}

func TestWithStrategyBoundRejectsZero(t *testing.T) {
	_, err := coyote.NewConfig(coyote.WithStrategyBound(0))
	require.Error(t, err)
}

func TestWithLivenessTemperatureThresholdRejectsZero(t *testing.T) {
	_, err := coyote.NewConfig(coyote.WithLivenessTemperatureThreshold(0))
	require.Error(t, err)
}

func TestOptionsApplyInOrderFailsFast(t *testing.T) {
	_, err := coyote.NewConfig(
		coyote.WithTestingIterations(10),
		coyote.WithParallelism(-1),
		coyote.WithTestingIterations(20),
	)
	require.Error(t, err)
}

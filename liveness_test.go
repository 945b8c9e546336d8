package coyote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

// stuckHotBody registers a monitor that enters a Hot state and never
// leaves it, then spins an actor through enough Delay-driven scheduling
// points to cross a small liveness temperature threshold.
func stuckHotBody(rt *coyote.Runtime, op *coyote.Operation) {
	hot := coyote.NewMonitorStateDecl("Hot")
	hot.Hot = true
	if err := rt.RegisterMonitor(coyote.MonitorDecl{
		TypeName: "Stuck",
		Start:    "Hot",
		States:   func() []*coyote.MonitorStateDecl { return []*coyote.MonitorStateDecl{hot} },
	}); err != nil {
		rt.Scheduler().Fail(err)
		return
	}

	spin := &coyote.StateDecl{
		Name: "Spin",
		OnEntry: func(ctx *coyote.Context) error {
			for i := 0; i < 20; i++ {
				coyote.Delay(ctx.Scheduler(), ctx.Operation(), "tick")
			}
			return nil
		},
	}
	if _, err := rt.CreateActor(op, coyote.ActorDecl{
		TypeName: "Spinner",
		Start:    "Spin",
		States:   func() []*coyote.StateDecl { return []*coyote.StateDecl{spin} },
	}, nil, nil); err != nil {
		rt.Scheduler().Fail(err)
	}
}

func TestLivenessViolationUnderFairStrategy(t *testing.T) {
	cfg, err := coyote.NewConfig(
		coyote.WithTestingIterations(1),
		coyote.WithSchedulingStrategy(coyote.StrategyFair),
		coyote.WithLivenessTemperatureThreshold(5),
	)
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(stuckHotBody)
	require.NoError(t, err)
	require.False(t, report.Passed())

	var violation *coyote.LivenessViolation
	require.ErrorAs(t, report.Failures[0].Err, &violation)
	require.Equal(t, "Stuck", violation.Monitor)
	require.Equal(t, "Hot", violation.State)
}

func TestNoLivenessViolationUnderUnfairStrategy(t *testing.T) {
	// An unfair strategy cannot be trusted to eventually schedule a
	// starved operation, so the temperature threshold is not consulted;
	// only LivenessEndOfProgram (checked at the very end) can still fire.
	cfg, err := coyote.NewConfig(
		coyote.WithTestingIterations(1),
		coyote.WithSchedulingStrategy(coyote.StrategyDFS),
		coyote.WithLivenessTemperatureThreshold(5),
	)
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(stuckHotBody)
	require.NoError(t, err)
	require.False(t, report.Passed())

	var endOfProgram *coyote.LivenessEndOfProgram
	require.ErrorAs(t, report.Failures[0].Err, &endOfProgram)
}

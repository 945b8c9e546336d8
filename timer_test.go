package coyote_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

// timerActor starts a one-shot and a periodic timer on entry, counts
// TimerElapsedEvent deliveries by name, and asserts the one-shot timer
// never fires more than once while the periodic one fires at least three
// times before halting itself.
func timerActorDecl(done chan<- struct{}) coyote.ActorDecl {
	var onceCount, periodicCount int
	var periodic *coyote.Timer

	running := &coyote.StateDecl{
		Name: "Running",
		OnEntry: func(ctx *coyote.Context) error {
			ctx.StartTimer("once", false)
			periodic = ctx.StartTimer("tick", true)
			return nil
		},
	}
	running.OnEventDoAction("TimerElapsedEvent", func(ctx *coyote.Context) error {
		ev := ctx.Event().(coyote.TimerElapsedEvent)
		switch ev.Name {
		case "once":
			onceCount++
			ctx.Assert(onceCount == 1, "one-shot timer fired %d times", onceCount)
		case "tick":
			periodicCount++
			if periodicCount >= 3 {
				periodic.Stop()
				close(done)
				return ctx.Halt()
			}
		}
		return nil
	})

	return coyote.ActorDecl{
		TypeName: "TimerActor",
		Start:    "Running",
		States:   func() []*coyote.StateDecl { return []*coyote.StateDecl{running} },
	}
}

func TestActorTimerOneShotAndPeriodic(t *testing.T) {
	done := make(chan struct{})

	cfg, err := coyote.NewConfig(coyote.WithTestingIterations(1))
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		if _, err := rt.CreateActor(op, timerActorDecl(done), nil, nil); err != nil {
			rt.Scheduler().Fail(err)
		}
	})
	require.NoError(t, err)
	require.True(t, report.Passed(), "unexpected failures: %+v", report.Failures)

	select {
	case <-done:
	default:
		t.Fatal("periodic timer never reached its expected firing count")
	}
}

// markerEvent is a payload-free probe event, distinct from TimerElapsedEvent.
type markerEvent struct{}

func (markerEvent) EventType() string { return "Marker" }

// TestActorTimerRespectsInboxFIFO checks that a marker event queued ahead
// of a timer start -- as the actor's initial event, so it is enqueued
// before the actor's operation ever runs -- is still dispatched before
// whatever TimerElapsedEvent the timer appends later, per the per-actor
// FIFO ordering guarantee (spec.md §5).
func TestActorTimerRespectsInboxFIFO(t *testing.T) {
	var order []string

	waiting := &coyote.StateDecl{
		Name: "Waiting",
		OnEntry: func(ctx *coyote.Context) error {
			ctx.StartTimer("fire-once", false)
			return nil
		},
	}
	waiting.OnEventDoAction("Marker", func(ctx *coyote.Context) error {
		order = append(order, "marker")
		return nil
	})
	waiting.OnEventDoAction("TimerElapsedEvent", func(ctx *coyote.Context) error {
		order = append(order, "timer")
		return nil
	})

	cfg, err := coyote.NewConfig(coyote.WithTestingIterations(1))
	require.NoError(t, err)

	report, err := coyote.NewTestEngine(cfg).Run(func(rt *coyote.Runtime, op *coyote.Operation) {
		if _, err := rt.CreateActor(op, coyote.ActorDecl{
			TypeName: "FIFOActor",
			Start:    "Waiting",
			States:   func() []*coyote.StateDecl { return []*coyote.StateDecl{waiting} },
		}, markerEvent{}, nil); err != nil {
			rt.Scheduler().Fail(err)
		}
	})
	require.NoError(t, err)
	require.True(t, report.Passed(), "unexpected failures: %+v", report.Failures)
	require.Equal(t, []string{"marker", "timer"}, order)
}

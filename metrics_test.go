package coyote_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coyote "github.com/joeycumines/go-coyote"
)

func TestMetricsSnapshotAccumulates(t *testing.T) {
	m := coyote.NewMetrics()
	m.Record(10*time.Millisecond, 5, false)
	m.Record(20*time.Millisecond, 7, true)
	m.Record(30*time.Millisecond, 9, false)

	snap := m.Snapshot()
	require.Equal(t, 3, snap.Iterations)
	require.Equal(t, 1, snap.Failures)
	require.Equal(t, 30*time.Millisecond, snap.DurationMax)
	require.Equal(t, 9.0, snap.StepsMax)
	require.Contains(t, snap.String(), "iterations=3 failures=1")
}

func TestMetricsSnapshotEmpty(t *testing.T) {
	snap := coyote.NewMetrics().Snapshot()
	require.Zero(t, snap.Iterations)
	require.Zero(t, snap.DurationMax)
}

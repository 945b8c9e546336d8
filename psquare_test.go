package coyote

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClamp(t *testing.T) {
	require.Equal(t, 0.0, clamp(-1.0, 0.0, 1.0))
	require.Equal(t, 1.0, clamp(2.0, 0.0, 1.0))
	require.Equal(t, 0.5, clamp(0.5, 0.0, 1.0))
	require.Equal(t, 3, clamp(3, 1, 10))
}

func TestPSquareQuantileMedianOfUniformStream(t *testing.T) {
	ps := newPSquareQuantile(0.5)
	for i := 1; i <= 1001; i++ {
		ps.Update(float64(i))
	}
	// True median of 1..1001 is 501; P-Square is an estimate, not exact.
	require.InDelta(t, 501, ps.Quantile(), 30)
	require.Equal(t, 1001.0, ps.Max())
	require.Equal(t, 1001, ps.Count())
}

func TestPSquareQuantileFewerThanFiveSamplesIsExact(t *testing.T) {
	ps := newPSquareQuantile(0.5)
	ps.Update(3)
	ps.Update(1)
	ps.Update(2)
	// With count < 5, Quantile sorts the raw buffer directly.
	require.Equal(t, 2.0, ps.Quantile())
	require.Equal(t, 3.0, ps.Max())
}

func TestPSquareMultiQuantileTracksSumMaxMean(t *testing.T) {
	m := newPSquareMultiQuantile(0.5, 0.9)
	for _, v := range []float64{1, 2, 3, 4, 5} {
		m.Update(v)
	}
	require.Equal(t, 5, m.Count())
	require.Equal(t, 15.0, m.Sum())
	require.Equal(t, 5.0, m.Max())
	require.Equal(t, 3.0, m.Mean())
}

func TestPSquareMultiQuantileEmptyIsZeroNotNaN(t *testing.T) {
	m := newPSquareMultiQuantile(0.5)
	require.Zero(t, m.Max())
	require.Zero(t, m.Mean())
	require.False(t, math.IsNaN(m.Mean()))
}

package activity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFitSmoothingSplineInterpolates(t *testing.T) {
	x := []float64{0, 1, 2, 3, 4}
	y := []float64{1, 3, 2, 5, 4}

	sp, err := FitSmoothingSpline(x, y, 0)
	require.NoError(t, err)

	for i := range x {
		assert.InDelta(t, y[i], sp.At(x[i]), 1e-9, "knot %d", i)
	}
}

func TestFitSmoothingSplineTwoPoints(t *testing.T) {
	sp, err := FitSmoothingSpline([]float64{0, 10}, []float64{2, 12}, 5)
	require.NoError(t, err)

	assert.InDelta(t, 7.0, sp.At(5), 1e-9)
	assert.InDelta(t, 2.0, sp.At(0), 1e-9)
	assert.InDelta(t, 12.0, sp.At(10), 1e-9)
}

func TestFitSmoothingSplineLinearData(t *testing.T) {
	// A straight line has zero curvature, so any smoothing level reproduces it.
	x := []float64{0, 1, 2, 3, 4, 5}
	y := make([]float64, len(x))
	for i, xi := range x {
		y[i] = 2*xi + 1
	}

	sp, err := FitSmoothingSpline(x, y, 10)
	require.NoError(t, err)

	assert.InDelta(t, 6.0, sp.At(2.5), 1e-6)
	assert.InDelta(t, 1.0, sp.At(0), 1e-6)
	assert.InDelta(t, 11.0, sp.At(5), 1e-6)
}

func TestFitSmoothingSplineSmoothsNoise(t *testing.T) {
	// Alternating values around 5: a heavily smoothed fit approaches the
	// least-squares trend rather than chasing the oscillation.
	x := []float64{0, 1, 2, 3, 4, 5}
	y := []float64{4, 6, 4, 6, 4, 6}

	sp, err := FitSmoothingSpline(x, y, 100)
	require.NoError(t, err)

	assert.InDelta(t, 5.0, sp.At(2.5), 0.5)
	for _, xi := range x {
		v := sp.At(xi)
		assert.Greater(t, v, 3.5)
		assert.Less(t, v, 6.5)
	}
}

func TestFitSmoothingSplineClampsOutsideRange(t *testing.T) {
	sp, err := FitSmoothingSpline([]float64{0, 1, 2}, []float64{1, 2, 3}, 0)
	require.NoError(t, err)

	assert.InDelta(t, sp.At(0), sp.At(-100), 1e-12)
	assert.InDelta(t, sp.At(2), sp.At(100), 1e-12)
}

func TestFitSmoothingSplineErrors(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		y    []float64
	}{
		{name: "length mismatch", x: []float64{0, 1}, y: []float64{1}},
		{name: "too few points", x: []float64{0}, y: []float64{1}},
		{name: "non increasing x", x: []float64{0, 0, 1}, y: []float64{1, 2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FitSmoothingSpline(tt.x, tt.y, 0)
			assert.Error(t, err)
		})
	}
}

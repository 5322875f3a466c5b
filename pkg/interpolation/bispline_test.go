package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBiSplineKnotExactness verifies the spline reproduces the patch values
// exactly at every knot.
func TestBiSplineKnotExactness(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{10, 11, 12, 13}
	values := [][]float64{
		{1, 4, 2, 7},
		{3, 8, 5, 1},
		{6, 2, 9, 4},
		{5, 7, 3, 8},
	}

	s, err := NewBiSpline(xs, ys, values)
	require.NoError(t, err)

	for i, x := range xs {
		for j, y := range ys {
			got, err := s.Eval(x, y)
			require.NoError(t, err)
			assert.InDelta(t, values[i][j], got, 1e-9, "knot (%d,%d)", i, j)
		}
	}
}

// TestBiSplineLinearReproduction verifies a bilinear field is interpolated
// exactly between knots.
func TestBiSplineLinearReproduction(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 2, 3, 4}
	values := make([][]float64, len(xs))
	for i, x := range xs {
		values[i] = make([]float64, len(ys))
		for j, y := range ys {
			values[i][j] = 2*x - 3*y + 0.5
		}
	}

	s, err := NewBiSpline(xs, ys, values)
	require.NoError(t, err)

	for _, p := range [][2]float64{{0.5, 0.5}, {1.3, 2.7}, {3.9, 0.1}} {
		got, err := s.Eval(p[0], p[1])
		require.NoError(t, err)
		assert.InDelta(t, 2*p[0]-3*p[1]+0.5, got, 1e-9, "point %v", p)
	}
}

// TestBiSplineSingleKnot verifies degenerate 1x1 patches act as constants.
func TestBiSplineSingleKnot(t *testing.T) {
	s, err := NewBiSpline([]float64{2}, []float64{5}, [][]float64{{42}})
	require.NoError(t, err)

	got, err := s.Eval(7, -3)
	require.NoError(t, err)
	assert.Equal(t, 42.0, got)
}

// TestBiSplineShapeErrors verifies malformed patches are rejected.
func TestBiSplineShapeErrors(t *testing.T) {
	_, err := NewBiSpline([]float64{0, 1}, []float64{0, 1}, [][]float64{{1, 2}})
	assert.ErrorIs(t, err, ErrPatchShape)

	_, err = NewBiSpline([]float64{0, 1}, []float64{0, 1}, [][]float64{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrPatchShape)

	_, err = NewBiSpline(nil, nil, nil)
	assert.ErrorIs(t, err, ErrPatchShape)
}

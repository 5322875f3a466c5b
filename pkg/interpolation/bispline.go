// Package interpolation provides the local bivariate spline used to sample
// smooth grids at non-integer coordinates. A spline is fit independently to
// a small rectangular patch around each requested point, which avoids the
// cost and ringing of a global interpolant.
package interpolation

import (
	"errors"

	"gonum.org/v1/gonum/interp"
)

// ErrPatchShape is returned when knot vectors and values disagree in shape.
var ErrPatchShape = errors.New("interpolation: patch shape mismatch")

// BiSpline is a tensor-product natural cubic spline over a small
// rectangular grid patch. It interpolates the patch values exactly at the
// knots. Not safe for concurrent use; each goroutine should build its own.
type BiSpline struct {
	xs, ys []float64
	values [][]float64 // values[i][j] at (xs[i], ys[j])
	row    []float64   // scratch for per-row evaluations
}

// NewBiSpline builds a bivariate spline over the patch with row knots xs,
// column knots ys and values[i][j] at (xs[i], ys[j]). Knots must be
// strictly increasing.
func NewBiSpline(xs, ys []float64, values [][]float64) (*BiSpline, error) {
	if len(values) != len(xs) {
		return nil, ErrPatchShape
	}
	for _, row := range values {
		if len(row) != len(ys) {
			return nil, ErrPatchShape
		}
	}
	if len(xs) == 0 || len(ys) == 0 {
		return nil, ErrPatchShape
	}
	return &BiSpline{
		xs:     xs,
		ys:     ys,
		values: values,
		row:    make([]float64, len(xs)),
	}, nil
}

// Eval evaluates the spline at (x, y): each patch row is splined along the
// column axis and evaluated at y, then the resulting column profile is
// splined along the row axis and evaluated at x.
func (s *BiSpline) Eval(x, y float64) (float64, error) {
	for i, rowVals := range s.values {
		v, err := spline1D(s.ys, rowVals, y)
		if err != nil {
			return 0, err
		}
		s.row[i] = v
	}
	return spline1D(s.xs, s.row, x)
}

// spline1D evaluates a natural cubic spline through (xs, ys) at x. A
// single-knot profile degenerates to a constant.
func spline1D(xs, ys []float64, x float64) (float64, error) {
	if len(xs) == 1 {
		return ys[0], nil
	}
	var nc interp.NaturalCubic
	if err := nc.Fit(xs, ys); err != nil {
		return 0, err
	}
	return nc.Predict(x), nil
}

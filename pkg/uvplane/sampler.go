package uvplane

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"kerphase/pkg/interpolation"
)

// ErrSampleCount is returned when the row and column coordinate slices
// differ in length.
var ErrSampleCount = errors.New("uvplane: row and column sample counts differ")

// Sample interpolates a complex grid at fractional (row, col) pixel
// coordinates. Around each coordinate a k x k neighborhood is selected,
// clamped so it stays inside the grid, and a bivariate spline is fit
// independently to the real and imaginary parts. k <= 0 degenerates to a
// rounded-index lookup. Coordinates outside the grid clamp to an edge
// patch; that is documented behavior, not an error.
func Sample(grid *mat.CDense, rows, cols []float64, k int) ([]complex128, error) {
	if len(rows) != len(cols) {
		return nil, ErrSampleCount
	}
	n, _ := grid.Dims()
	out := make([]complex128, len(rows))

	for s := range rows {
		ri := int(math.Round(rows[s]))
		ci := int(math.Round(cols[s]))

		if k <= 0 {
			out[s] = grid.At(clamp(ri, 0, n-1), clamp(ci, 0, n-1))
			continue
		}

		r0 := clamp(ri-k/2, 0, n-k)
		c0 := clamp(ci-k/2, 0, n-k)

		xs := make([]float64, k)
		ys := make([]float64, k)
		re := make([][]float64, k)
		im := make([][]float64, k)
		for i := 0; i < k; i++ {
			xs[i] = float64(r0 + i)
			ys[i] = float64(c0 + i)
			re[i] = make([]float64, k)
			im[i] = make([]float64, k)
			for j := 0; j < k; j++ {
				v := grid.At(r0+i, c0+j)
				re[i][j] = real(v)
				im[i][j] = imag(v)
			}
		}

		fre, err := interpolation.NewBiSpline(xs, ys, re)
		if err != nil {
			return nil, err
		}
		fim, err := interpolation.NewBiSpline(xs, ys, im)
		if err != nil {
			return nil, err
		}
		vre, err := fre.Eval(rows[s], cols[s])
		if err != nil {
			return nil, err
		}
		vim, err := fim.Eval(rows[s], cols[s])
		if err != nil {
			return nil, err
		}
		out[s] = complex(vre, vim)
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

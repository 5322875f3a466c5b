package psf

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// SuperGauss returns a rows x cols super-Gaussian apodization mask centered
// on (y0, x0): exp(-(d/radius)^4), flat near 1 inside the radius and
// falling steeply to 0 outside. A non-positive radius is rejected.
func SuperGauss(rows, cols int, y0, x0, radius float64) (*mat.Dense, error) {
	if radius <= 0 {
		return nil, ErrInvalidRadius
	}
	mask := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		dy := float64(i) - y0
		for j := 0; j < cols; j++ {
			dx := float64(j) - x0
			d := math.Sqrt(dx*dx+dy*dy) / radius
			mask.Set(i, j, math.Exp(-(d * d * d * d)))
		}
	}
	return mask, nil
}

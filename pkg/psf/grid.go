package psf

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// canvasSizes is the ladder of supported power-of-two canvas sizes.
var canvasSizes = []int{64, 128, 256, 512, 1024, 2048}

// CanvasSize returns the smallest supported power-of-two square size that
// accommodates maxDim. Images larger than the top of the ladder are
// rejected.
func CanvasSize(maxDim int) (int, error) {
	for _, sz := range canvasSizes {
		if sz >= maxDim {
			return sz, nil
		}
	}
	return 0, fmt.Errorf("%w: %d > %d", ErrCanvasTooLarge, maxDim, canvasSizes[len(canvasSizes)-1])
}

// Median returns the median of all grid values.
func Median(m *mat.Dense) float64 {
	r, c := m.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		values = append(values, m.RawRowView(i)...)
	}
	return medianOf(values)
}

// medianOf computes the median of values, averaging the two middle entries
// for even counts. The input slice is copied, not reordered.
func medianOf(values []float64) float64 {
	n := len(values)
	if n == 0 {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

// MedianFilter3 applies a 3x3 median filter, treating pixels outside the
// grid as zero.
func MedianFilter3(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	window := make([]float64, 0, 9)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			window = window[:0]
			for di := -1; di <= 1; di++ {
				for dj := -1; dj <= 1; dj++ {
					ni, nj := i+di, j+dj
					if ni < 0 || ni >= r || nj < 0 || nj >= c {
						window = append(window, 0)
					} else {
						window = append(window, m.At(ni, nj))
					}
				}
			}
			out.Set(i, j, medianOf(window))
		}
	}
	return out
}

// PadToSquare centers an image inside a zero-filled size x size canvas.
func PadToSquare(m *mat.Dense, size int) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(size, size, nil)
	offR := (size - r) / 2
	offC := (size - c) / 2
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(offR+i, offC+j, m.At(i, j))
		}
	}
	return out
}

// Roll circularly shifts the grid by dr rows and dc columns. Positive
// shifts move content toward higher indices, wrapping around.
func Roll(m *mat.Dense, dr, dc int) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		ni := ((i+dr)%r + r) % r
		for j := 0; j < c; j++ {
			nj := ((j+dc)%c + c) % c
			out.Set(ni, nj, m.At(i, j))
		}
	}
	return out
}

// Sum returns the sum of all grid values.
func Sum(m *mat.Dense) float64 {
	r, _ := m.Dims()
	total := 0.0
	for i := 0; i < r; i++ {
		total += floats.Sum(m.RawRowView(i))
	}
	return total
}

// subtractScalar returns m - v as a new grid.
func subtractScalar(m *mat.Dense, v float64) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(_, _ int, x float64) float64 { return x - v }, m)
	return out
}

package kernelphase

import (
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"
)

// Phases returns the argument of each sampled visibility in radians.
func Phases(vis []complex128) []float64 {
	out := make([]float64, len(vis))
	for i, v := range vis {
		out[i] = cmplx.Phase(v)
	}
	return out
}

// Project applies the kernel-phase relation matrix to a vector of
// per-baseline phases (radians) and scales the result to degrees.
func Project(kerPhi *mat.Dense, phases []float64) ([]float64, error) {
	rows, cols := kerPhi.Dims()
	if cols != len(phases) {
		return nil, fmt.Errorf("%w: matrix is %dx%d, phase vector has %d entries",
			ErrDimensionMismatch, rows, cols, len(phases))
	}
	var kp mat.VecDense
	kp.MulVec(kerPhi, mat.NewVecDense(len(phases), phases))

	out := make([]float64, rows)
	for i := range out {
		out[i] = kp.AtVec(i) / dtor
	}
	return out, nil
}

// SquaredVisibilities normalizes the squared magnitude of each sampled
// visibility against the squared magnitude at the zero-baseline (center)
// pixel of the un-interpolated spectrum.
func SquaredVisibilities(vis []complex128, spectrum *mat.CDense) []float64 {
	n, _ := spectrum.Dims()
	center := spectrum.At(n/2, n/2)
	norm := real(center)*real(center) + imag(center)*imag(center)

	out := make([]float64, len(vis))
	for i, v := range vis {
		out[i] = (real(v)*real(v) + imag(v)*imag(v)) / norm
	}
	return out
}

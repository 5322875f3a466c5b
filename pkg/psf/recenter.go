// Package psf implements the image-plane half of the extraction pipeline:
// the super-Gaussian apodization mask, the iterative PSF center locator and
// the flux-preserving sub-pixel recenterer.
package psf

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/mat"

	"kerphase/pkg/uvplane"
)

// DefaultRecenterIterations is the locator iteration count used when
// recentring full frames.
const DefaultRecenterIterations = 20

// Recenter returns a centered, windowed, power-of-two-square version of an
// arbitrary-size image, normalized so that the total masked flux is
// preserved. The integer part of the translation is a circular roll; the
// fractional remainder is applied in the Fourier domain with a phase ramp,
// which shifts by non-integer amounts without interpolation artifacts.
//
// Every step operates on a fresh array; the input is never mutated. The
// returned flag reports a degraded low-signal center estimate.
func Recenter(img *mat.Dense, radius float64, iterations int) (*mat.Dense, bool, error) {
	if iterations <= 0 {
		iterations = DefaultRecenterIterations
	}
	r, c := img.Dims()
	maxDim := r
	if c > maxDim {
		maxDim = c
	}
	size, err := CanvasSize(maxDim)
	if err != nil {
		return nil, false, err
	}
	half := float64(size) / 2

	mask, err := SuperGauss(size, size, half, half, radius)
	if err != nil {
		return nil, false, err
	}

	padded := PadToSquare(img, size)

	est, err := FindCenter(padded, iterations)
	if err != nil {
		return nil, est.LowSignal, fmt.Errorf("recenter: %w", err)
	}

	work := subtractScalar(padded, Median(padded))

	// Reference flux of the masked image before any shifting.
	masked := mat.NewDense(size, size, nil)
	masked.MulElem(work, mask)
	flux := Sum(masked)

	dx := est.X - half
	dy := est.Y - half

	// Integer part of the translation as a wrap-around roll.
	ix := math.Trunc(dx)
	iy := math.Trunc(dy)
	rolled := Roll(work, -int(iy), -int(ix))
	fx := dx - ix
	fy := dy - iy

	shifted := fourierShift(rolled, mask, fx, fy, half)

	// Re-mask the shifted result and restore the reference flux.
	out := mat.NewDense(size, size, nil)
	out.MulElem(shifted, mask)
	total := Sum(out)
	if total == 0 {
		return nil, est.LowSignal, fmt.Errorf("recenter: %w", ErrDegenerateSignal)
	}
	out.Scale(flux/total, out)
	return out, est.LowSignal, nil
}

// fourierShift translates the masked image by the fractional offset
// (fx, fy) using the shift theorem: the spectrum is multiplied by
// exp(i*(fx*wedgeX + fy*wedgeY)) where the wedges are linear phase ramps
// scaled by pi/half across the canvas. The positive signs move a source at
// (half+fx, half+fy) onto the canvas center.
func fourierShift(img, mask *mat.Dense, fx, fy, half float64) *mat.Dense {
	size, _ := img.Dims()

	ramp := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		wy := (float64(i) - half) * math.Pi / half
		for j := 0; j < size; j++ {
			wx := (float64(j) - half) * math.Pi / half
			ramp.Set(i, j, fx*wx+fy*wy)
		}
	}
	ramp = uvplane.Shift2(ramp)

	phase := mat.NewCDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			phase.Set(i, j, cmplx.Exp(complex(0, ramp.At(i, j))))
		}
	}

	masked := mat.NewDense(size, size, nil)
	masked.MulElem(img, mask)

	spec := uvplane.FFT2(uvplane.ToComplex(uvplane.Shift2(masked)))
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			spec.Set(i, j, spec.At(i, j)*phase.At(i, j))
		}
	}
	back := uvplane.Shift2C(uvplane.IFFT2(spec))

	out := mat.NewDense(size, size, nil)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			out.Set(i, j, cmplx.Abs(back.At(i, j)))
		}
	}
	return out
}

// PadAndWindow conditions a frame without recentring it: the image is
// zero-padded into the power-of-two canvas, the median background is
// subtracted and the super-Gaussian mask applied.
func PadAndWindow(img *mat.Dense, radius float64) (*mat.Dense, error) {
	r, c := img.Dims()
	maxDim := r
	if c > maxDim {
		maxDim = c
	}
	size, err := CanvasSize(maxDim)
	if err != nil {
		return nil, err
	}
	half := float64(size) / 2
	mask, err := SuperGauss(size, size, half, half, radius)
	if err != nil {
		return nil, err
	}
	padded := PadToSquare(img, size)
	work := subtractScalar(padded, Median(padded))
	out := mat.NewDense(size, size, nil)
	out.MulElem(work, mask)
	return out, nil
}

// Pad conditions a frame for the transform stage without windowing: it is
// only zero-padded into the power-of-two canvas.
func Pad(img *mat.Dense) (*mat.Dense, error) {
	r, c := img.Dims()
	maxDim := r
	if c > maxDim {
		maxDim = c
	}
	size, err := CanvasSize(maxDim)
	if err != nil {
		return nil, err
	}
	return PadToSquare(img, size), nil
}

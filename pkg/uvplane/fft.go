// Package uvplane provides the frequency-domain half of the extraction
// pipeline: the centered 2D Fourier transform of a square image and the
// sampling of that plane at continuous baseline coordinates.
package uvplane

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/mat"
)

// ErrEmptySpectrum is returned when a frame transforms to an all-zero
// spectrum and the zero-baseline normalization is undefined.
var ErrEmptySpectrum = errors.New("uvplane: spectrum is identically zero")

// Shift2 swaps the quadrants of a real square grid, moving the zero
// frequency between corner and center. For the even sizes used here the
// operation is its own inverse.
func Shift2(m *mat.Dense) *mat.Dense {
	r, c := m.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set((i+r/2)%r, (j+c/2)%c, m.At(i, j))
		}
	}
	return out
}

// Shift2C is Shift2 for complex grids.
func Shift2C(m *mat.CDense) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set((i+r/2)%r, (j+c/2)%c, m.At(i, j))
		}
	}
	return out
}

// FFT2 computes the unnormalized forward 2D discrete Fourier transform by
// running 1D complex transforms along the rows and then the columns.
func FFT2(m *mat.CDense) *mat.CDense {
	return fft2(m, false)
}

// IFFT2 computes the inverse 2D discrete Fourier transform, including the
// 1/N^2 normalization so that IFFT2(FFT2(x)) == x.
func IFFT2(m *mat.CDense) *mat.CDense {
	return fft2(m, true)
}

func fft2(m *mat.CDense, inverse bool) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)

	// Rows first.
	rowFFT := fourier.NewCmplxFFT(c)
	rowIn := make([]complex128, c)
	rowOut := make([]complex128, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			rowIn[j] = m.At(i, j)
		}
		transform1D(rowFFT, rowOut, rowIn, inverse)
		for j := 0; j < c; j++ {
			out.Set(i, j, rowOut[j])
		}
	}

	// Then columns.
	colFFT := fourier.NewCmplxFFT(r)
	colIn := make([]complex128, r)
	colOut := make([]complex128, r)
	for j := 0; j < c; j++ {
		for i := 0; i < r; i++ {
			colIn[i] = out.At(i, j)
		}
		transform1D(colFFT, colOut, colIn, inverse)
		for i := 0; i < r; i++ {
			out.Set(i, j, colOut[i])
		}
	}
	return out
}

func transform1D(fft *fourier.CmplxFFT, dst, src []complex128, inverse bool) {
	if inverse {
		fft.Sequence(dst, src)
		n := complex(float64(len(src)), 0)
		for i := range dst {
			dst[i] /= n
		}
		return
	}
	fft.Coefficients(dst, src)
}

// ToComplex promotes a real grid to a complex one.
func ToComplex(m *mat.Dense) *mat.CDense {
	r, c := m.Dims()
	out := mat.NewCDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, complex(m.At(i, j), 0))
		}
	}
	return out
}

// CenteredSpectrum computes the zero-frequency-to-center Fourier transform
// of a square image and rescales it so the peak magnitude (the zero
// baseline for a non-negative image) equals holes, the number of
// independent sampling holes in the aperture model.
func CenteredSpectrum(img *mat.Dense, holes float64) (*mat.CDense, error) {
	ac := Shift2C(FFT2(ToComplex(Shift2(img))))
	r, c := ac.Dims()
	peak := 0.0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if a := cmplx.Abs(ac.At(i, j)); a > peak {
				peak = a
			}
		}
	}
	if peak == 0 {
		return nil, ErrEmptySpectrum
	}
	scale := complex(holes/peak, 0)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			ac.Set(i, j, ac.At(i, j)*scale)
		}
	}
	return ac, nil
}

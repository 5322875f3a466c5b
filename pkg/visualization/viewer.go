// Package visualization exports diagnostic images of the extraction
// intermediates: the centered frame, the Fourier amplitude and the Fourier
// phase with the uv sample coordinates overlaid. It renders to PNG files
// only; there is no interactive display.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"

	"kerphase/pkg/kernelphase"
)

// Viewer renders the intermediates of one extracted bundle.
type Viewer struct {
	bundle *kernelphase.Bundle
}

// NewViewer wraps a bundle for rendering. The bundle must have been
// extracted with SaveImages enabled.
func NewViewer(bundle *kernelphase.Bundle) (*Viewer, error) {
	if bundle == nil || bundle.Image == nil || bundle.Spectrum == nil {
		return nil, fmt.Errorf("visualization: bundle carries no intermediate images")
	}
	return &Viewer{bundle: bundle}, nil
}

// SaveDiagnostics writes image.png, amplitude.png and phase.png into dir.
func (v *Viewer) SaveDiagnostics(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if err := savePNG(filepath.Join(dir, "image.png"), renderReal(v.bundle.Image, math.Sqrt, nil)); err != nil {
		return err
	}

	amp := complexField(v.bundle.Spectrum, cmplx.Abs)
	if err := savePNG(filepath.Join(dir, "amplitude.png"), renderReal(amp, nil, v.bundle.UVPixels)); err != nil {
		return err
	}

	phase := complexField(v.bundle.Spectrum, cmplx.Phase)
	return savePNG(filepath.Join(dir, "phase.png"), renderReal(phase, nil, v.bundle.UVPixels))
}

// complexField maps a complex grid through f into a real grid.
func complexField(g *mat.CDense, f func(complex128) float64) *mat.Dense {
	r, c := g.Dims()
	out := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out.Set(i, j, f(g.At(i, j)))
		}
	}
	return out
}

// renderReal maps a real grid to a grayscale image, optionally through a
// stretch function, and marks sample coordinates in blue.
func renderReal(g *mat.Dense, stretch func(float64) float64, samples [][2]float64) image.Image {
	r, c := g.Dims()
	lo, hi := math.Inf(1), math.Inf(-1)
	vals := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := g.At(i, j)
			if stretch != nil {
				if v > 0 {
					v = stretch(v)
				} else {
					v = 0
				}
			}
			vals.Set(i, j, v)
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	img := image.NewNRGBA(image.Rect(0, 0, c, r))
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			level := uint8((vals.At(i, j) - lo) / span * 255)
			img.SetNRGBA(j, i, color.NRGBA{R: level, G: level, B: level, A: 255})
		}
	}

	mark := color.NRGBA{R: 64, G: 96, B: 255, A: 255}
	for _, s := range samples {
		x := int(math.Round(s[0]))
		y := int(math.Round(s[1]))
		for _, d := range [][2]int{{0, 0}, {1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
			px, py := x+d[0], y+d[1]
			if px >= 0 && px < c && py >= 0 && py < r {
				img.SetNRGBA(px, py, mark)
			}
		}
	}
	return img
}

func savePNG(path string, img image.Image) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

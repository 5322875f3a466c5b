package psf

import "errors"

var (
	// ErrInvalidRadius is returned for a zero or negative windowing radius.
	ErrInvalidRadius = errors.New("psf: windowing radius must be positive")

	// ErrDegenerateSignal is returned when the windowed profile carries no
	// flux and the centroid is undefined.
	ErrDegenerateSignal = errors.New("psf: centroid undefined, no signal in window")

	// ErrCanvasTooLarge is returned when an input image exceeds the largest
	// supported power-of-two canvas.
	ErrCanvasTooLarge = errors.New("psf: image exceeds largest supported canvas size")
)

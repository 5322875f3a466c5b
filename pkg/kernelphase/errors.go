package kernelphase

import "errors"

var (
	// ErrInvalidArgument is returned for unusable pipeline parameters.
	ErrInvalidArgument = errors.New("kernelphase: invalid argument")

	// ErrDimensionMismatch is returned when the kernel-phase relation
	// matrix does not match the baseline phase vector. This is a
	// configuration error, never silently broadcast.
	ErrDimensionMismatch = errors.New("kernelphase: relation matrix dimension mismatch")

	// ErrGeometry is returned when a geometry description is internally
	// inconsistent.
	ErrGeometry = errors.New("kernelphase: invalid geometry")
)

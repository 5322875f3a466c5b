// Package bispectrum extracts bispectral (closure-like) phases from a set
// of sampled complex visibilities and the uv relation matrix describing
// which unique baseline each sampling-point pair maps to.
package bispectrum

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/cmplx"
)

const radToDeg = 180.0 / math.Pi

var (
	// ErrRelationMatrix is returned when the uv relation matrix is not
	// square or references a baseline outside the visibility vector.
	ErrRelationMatrix = errors.New("bispectrum: invalid uv relation matrix")

	// ErrTripleOverflow is returned in non-redundant mode when the packed
	// baseline-triple key would overflow; such geometries would previously
	// have allocated a cubic lookup table.
	ErrTripleOverflow = errors.New("bispectrum: too many unique baselines for non-redundant mode")
)

// Options bound the triangle enumeration.
type Options struct {
	// Lower and Upper select a half-open slice [Lower, Upper) of the
	// emitted-triangle sequence. Out-of-range bounds are clamped to
	// [0, TriangleCount(n)]; a negative Upper clamps to an empty range.
	// Upper == 0 means no upper bound.
	Lower, Upper int

	// Degrees converts the resulting phases to degrees.
	Degrees bool

	// NonRedundant skips triangles whose baseline triple has already been
	// emitted. Redundancy is tracked with a hash set keyed by the packed
	// triple, so memory scales with emitted triangles rather than with the
	// cube of the baseline count.
	NonRedundant bool

	// Progress, when non-nil, receives textual progress updates.
	Progress io.Writer
}

// TriangleCount returns the number of (i < j < k) triangles over n
// sampling points.
func TriangleCount(n int) int {
	return n * (n - 1) * (n - 2) / 6
}

// Extract enumerates closing triangles over the sampling-point index set
// and returns one bispectral phase per triangle whose three baselines are
// all present in the relation matrix: the argument of the triple product
// of the leg visibilities, each leg conjugated when its stored baseline
// direction opposes the triangle's traversal. Triangles with a missing
// baseline are silently skipped.
func Extract(vis []complex128, uvrel [][]int, opts Options) ([]float64, error) {
	return extract(len(vis), uvrel, opts, func(uv1, uv2, uv3 int, fwd1, fwd2, fwd3 bool) float64 {
		v1 := legCplx(vis[uv1], fwd1)
		v2 := legCplx(vis[uv2], fwd2)
		// The third leg is traversed against its stored direction to close
		// the triangle.
		v3 := legCplx(vis[uv3], !fwd3)
		return cmplx.Phase(v1 * v2 * v3)
	})
}

// ExtractPhases is Extract for phase-only input (radians): each triangle
// contributes the signed sum of its three leg phases.
func ExtractPhases(phases []float64, uvrel [][]int, opts Options) ([]float64, error) {
	return extract(len(phases), uvrel, opts, func(uv1, uv2, uv3 int, fwd1, fwd2, fwd3 bool) float64 {
		return legPhase(phases[uv1], fwd1) + legPhase(phases[uv2], fwd2) + legPhase(phases[uv3], !fwd3)
	})
}

func legCplx(v complex128, forward bool) complex128 {
	if forward {
		return v
	}
	return cmplx.Conj(v)
}

func legPhase(p float64, forward bool) float64 {
	if forward {
		return p
	}
	return -p
}

func extract(nvis int, uvrel [][]int, opts Options, combine func(uv1, uv2, uv3 int, fwd1, fwd2, fwd3 bool) float64) ([]float64, error) {
	nsp := len(uvrel)
	nuv := 0
	for _, row := range uvrel {
		if len(row) != nsp {
			return nil, ErrRelationMatrix
		}
		for _, b := range row {
			if b >= nuv {
				nuv = b + 1
			}
		}
	}
	if nuv > nvis {
		return nil, fmt.Errorf("%w: baseline index %d exceeds %d visibilities", ErrRelationMatrix, nuv-1, nvis)
	}

	total := TriangleCount(nsp)
	lower := clampRange(opts.Lower, 0, total)
	upper := total
	if opts.Upper != 0 {
		upper = clampRange(opts.Upper, 0, total)
	}
	if upper <= lower {
		return nil, nil
	}

	var seen map[uint64]struct{}
	if opts.NonRedundant {
		// The packed triple key is uv1*nuv^2 + uv2*nuv + uv3.
		if nuv > 1<<21 {
			return nil, fmt.Errorf("%w: %d baselines", ErrTripleOverflow, nuv)
		}
		seen = make(map[uint64]struct{})
	}

	out := make([]float64, 0, upper-lower)
	emitted := 0

enumerate:
	for i := 0; i < nsp; i++ {
		for j := i + 1; j < nsp; j++ {
			for k := j + 1; k < nsp; k++ {
				uv1, fwd1 := resolve(uvrel, i, j)
				uv2, fwd2 := resolve(uvrel, j, k)
				uv3, fwd3 := resolve(uvrel, i, k)
				if uv1 < 0 || uv2 < 0 || uv3 < 0 {
					continue // incomplete triangle, expected and frequent
				}
				if opts.NonRedundant {
					key := (uint64(uv1)*uint64(nuv)+uint64(uv2))*uint64(nuv) + uint64(uv3)
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
				if emitted >= lower {
					out = append(out, combine(uv1, uv2, uv3, fwd1, fwd2, fwd3))
					if opts.Progress != nil && (len(out)%256 == 0 || emitted == upper-1) {
						fmt.Fprintf(opts.Progress, "\rextracting bispectrum: triangle %d of %d", emitted+1, upper)
					}
				}
				emitted++
				if emitted >= upper {
					break enumerate
				}
			}
		}
	}
	if opts.Progress != nil && len(out) > 0 {
		fmt.Fprintln(opts.Progress)
	}

	if opts.Degrees {
		for i := range out {
			out[i] *= radToDeg
		}
	}
	return out, nil
}

// resolve looks up the unique baseline index for the sampling-point pair
// (a, b) and whether that baseline is stored in the traversal direction.
func resolve(uvrel [][]int, a, b int) (int, bool) {
	fwd, rev := uvrel[a][b], uvrel[b][a]
	idx := fwd
	if rev > idx {
		idx = rev
	}
	return idx, fwd >= 0
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

package bispectrum

import (
	"bytes"
	"math"
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stationSetup builds a fully connected relation matrix over n sampling
// points with every pair's baseline stored in (low, high) order, plus the
// visibility vector exp(i*(phase[i]-phase[j])) implied by per-station
// phases. Every closing triangle of such a set has zero bispectral phase.
func stationSetup(phases []float64) ([][]int, []complex128) {
	n := len(phases)
	uvrel := make([][]int, n)
	for i := range uvrel {
		uvrel[i] = make([]int, n)
		for j := range uvrel[i] {
			uvrel[i][j] = -1
		}
	}
	var vis []complex128
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			uvrel[i][j] = len(vis)
			vis = append(vis, cmplx.Exp(complex(0, phases[i]-phases[j])))
		}
	}
	return uvrel, vis
}

var stationPhases = []float64{0.0, 0.7, -0.3, 1.9, -1.2, 0.4}

// TestTriangleCount verifies the closed form.
func TestTriangleCount(t *testing.T) {
	assert.Equal(t, 0, TriangleCount(2))
	assert.Equal(t, 1, TriangleCount(3))
	assert.Equal(t, 20, TriangleCount(6))
	assert.Equal(t, 161700, TriangleCount(100))
}

// TestExtractClosure verifies station-based phases close: every triangle's
// bispectral phase vanishes.
func TestExtractClosure(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	out, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, p := range out {
		assert.InDelta(t, 0.0, p, 1e-12, "triangle %d", i)
	}
}

// TestExtractReversedStorage verifies conjugation of legs whose baseline is
// stored against the traversal direction.
func TestExtractReversedStorage(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	// Flip the storage direction of a few baselines: move the index to the
	// transposed cell and conjugate the stored visibility.
	for _, pair := range [][2]int{{0, 1}, {2, 4}, {1, 5}} {
		i, j := pair[0], pair[1]
		b := uvrel[i][j]
		uvrel[i][j] = -1
		uvrel[j][i] = b
		vis[b] = cmplx.Conj(vis[b])
	}

	out, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, p := range out {
		assert.InDelta(t, 0.0, p, 1e-12, "triangle %d", i)
	}
}

// TestExtractNonClosingSignal verifies a phase offset injected on one
// baseline shows up with the traversal sign, and that the Degrees flag
// rescales the output.
func TestExtractNonClosingSignal(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	// Baseline (0,1) picks up a non-closing 0.1 rad offset.
	b01 := uvrel[0][1]
	vis[b01] *= cmplx.Exp(complex(0, 0.1))

	out, err := Extract(vis, uvrel, Options{Degrees: true})
	require.NoError(t, err)
	require.Len(t, out, 20)

	// The first triangle (0,1,2) traverses (0,1) forward.
	assert.InDelta(t, 0.1*180/math.Pi, out[0], 1e-9)

	// Triangles not involving sampling points 0 and 1 still close; the
	// last one is (3,4,5).
	assert.InDelta(t, 0.0, out[19], 1e-9)
}

// TestExtractPhasesClosure verifies the phase-only variant sums signed leg
// phases per triangle.
func TestExtractPhasesClosure(t *testing.T) {
	uvrel, _ := stationSetup(stationPhases)

	n := len(stationPhases)
	var phases []float64
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			phases = append(phases, stationPhases[i]-stationPhases[j])
		}
	}

	out, err := ExtractPhases(phases, uvrel, Options{})
	require.NoError(t, err)
	require.Len(t, out, 20)
	for i, p := range out {
		assert.InDelta(t, 0.0, p, 1e-12, "triangle %d", i)
	}
}

// TestExtractRangeClamping verifies out-of-range bounds clamp to the full
// triangle sequence.
func TestExtractRangeClamping(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	full, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)

	clamped, err := Extract(vis, uvrel, Options{Lower: -5, Upper: 1 << 30})
	require.NoError(t, err)
	assert.Equal(t, full, clamped)

	// A negative upper bound clamps to an empty range; only zero lifts the
	// bound.
	empty, err := Extract(vis, uvrel, Options{Upper: -1})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// TestExtractPartialRange verifies a slice of the sequence matches the same
// slice of the full extraction.
func TestExtractPartialRange(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	full, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)

	part, err := Extract(vis, uvrel, Options{Lower: 5, Upper: 12})
	require.NoError(t, err)
	assert.Equal(t, full[5:12], part)

	empty, err := Extract(vis, uvrel, Options{Lower: 12, Upper: 12})
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// TestExtractMissingBaseline verifies triangles with an absent baseline are
// skipped, not zero-filled.
func TestExtractMissingBaseline(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	// Remove the baseline between sampling points 0 and 1; the four
	// triangles containing that pair disappear.
	uvrel[0][1] = -1
	uvrel[1][0] = -1

	out, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)
	assert.Len(t, out, 16)
}

// TestExtractNonRedundant verifies duplicate baseline triples are emitted
// once when requested.
func TestExtractNonRedundant(t *testing.T) {
	// Sampling point 3 duplicates point 2: the pairs (0,3) and (1,3) map
	// to the same baselines as (0,2) and (1,2).
	uvrel := [][]int{
		{-1, 0, 2, 2},
		{-1, -1, 1, 1},
		{-1, -1, -1, -1},
		{-1, -1, -1, -1},
	}
	vis := []complex128{
		cmplx.Exp(complex(0, 0.5)),
		cmplx.Exp(complex(0, -0.2)),
		cmplx.Exp(complex(0, 0.4)),
	}

	redundant, err := Extract(vis, uvrel, Options{})
	require.NoError(t, err)
	require.Len(t, redundant, 2)
	assert.InDelta(t, -0.1, redundant[0], 1e-12)
	assert.InDelta(t, redundant[0], redundant[1], 1e-12)

	unique, err := Extract(vis, uvrel, Options{NonRedundant: true})
	require.NoError(t, err)
	assert.Len(t, unique, 1)
	assert.InDelta(t, redundant[0], unique[0], 1e-12)
}

// TestExtractProgress verifies progress output lands on the writer.
func TestExtractProgress(t *testing.T) {
	uvrel, vis := stationSetup(stationPhases)

	var buf bytes.Buffer
	_, err := Extract(vis, uvrel, Options{Progress: &buf})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "triangle 20 of 20")
}

// TestExtractRelationErrors covers malformed relation matrices.
func TestExtractRelationErrors(t *testing.T) {
	_, err := Extract([]complex128{1, 1}, [][]int{{-1, 0}, {0}}, Options{})
	assert.ErrorIs(t, err, ErrRelationMatrix)

	_, err = Extract([]complex128{1}, [][]int{{-1, 3}, {-1, -1}}, Options{})
	assert.ErrorIs(t, err, ErrRelationMatrix)
}

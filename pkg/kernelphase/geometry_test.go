package kernelphase

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func validGeometry() *Geometry {
	return &Geometry{
		UV:     [][2]float64{{1, 0}, {0, 1}, {1, 1}},
		KerPhi: mat.NewDense(1, 3, []float64{1, -1, 0}),
		Holes:  3,
	}
}

// TestGeometryValidate covers the consistency checks.
func TestGeometryValidate(t *testing.T) {
	require.NoError(t, validGeometry().Validate())

	g := validGeometry()
	g.UV = nil
	assert.ErrorIs(t, g.Validate(), ErrGeometry)

	g = validGeometry()
	g.Holes = 0
	assert.ErrorIs(t, g.Validate(), ErrGeometry)

	g = validGeometry()
	g.KerPhi = mat.NewDense(1, 2, nil)
	assert.ErrorIs(t, g.Validate(), ErrGeometry)

	g = validGeometry()
	g.UVRel = [][]int{{-1, 0}, {1, -1}, {0, 1}}
	assert.ErrorIs(t, g.Validate(), ErrGeometry, "non-square relation matrix")

	g = validGeometry()
	g.UVRel = [][]int{{-1, 7}, {0, -1}}
	assert.ErrorIs(t, g.Validate(), ErrGeometry, "relation entry out of range")
}

// TestGeometryMinBaseline verifies the shortest baseline length.
func TestGeometryMinBaseline(t *testing.T) {
	g := &Geometry{UV: [][2]float64{{3, 4}, {0, 2}, {1, 1}}}
	assert.InDelta(t, 1.4142135, g.MinBaseline(), 1e-6)
}

// TestGeometryKernelCount verifies the observable count per frame.
func TestGeometryKernelCount(t *testing.T) {
	assert.Equal(t, 1, validGeometry().KernelCount())
	assert.Equal(t, 0, (&Geometry{}).KernelCount())
}

// TestLoadGeometry verifies the YAML layout round-trips into a validated
// geometry.
func TestLoadGeometry(t *testing.T) {
	doc := `
uv:
  - [1.0, 0.0]
  - [0.0, 1.0]
  - [1.0, 1.0]
kerphi:
  - [1.0, -1.0, 0.0]
uvrel:
  - [-1, 0, 1]
  - [-1, -1, 2]
  - [-1, -1, -1]
holes: 3
`
	path := filepath.Join(t.TempDir(), "geometry.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	g, err := LoadGeometry(path)
	require.NoError(t, err)

	assert.Equal(t, [][2]float64{{1, 0}, {0, 1}, {1, 1}}, g.UV)
	assert.Equal(t, 3.0, g.Holes)
	assert.Equal(t, 1, g.KernelCount())
	assert.Equal(t, 0, g.UVRel[0][1])

	r, c := g.KerPhi.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, -1.0, g.KerPhi.At(0, 1))
}

// TestLoadGeometryErrors covers missing files and malformed documents.
func TestLoadGeometryErrors(t *testing.T) {
	_, err := LoadGeometry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("uv: {not: a list}"), 0644))
	_, err = LoadGeometry(bad)
	assert.Error(t, err)

	ragged := filepath.Join(dir, "ragged.yaml")
	require.NoError(t, os.WriteFile(ragged, []byte("uv:\n  - [1.0]\nholes: 3\n"), 0644))
	_, err = LoadGeometry(ragged)
	assert.ErrorIs(t, err, ErrGeometry)
}

package visualization

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"kerphase/pkg/kernelphase"
)

func diagnosticBundle() *kernelphase.Bundle {
	img := mat.NewDense(16, 16, nil)
	img.Set(8, 8, 100)
	img.Set(8, 9, 50)

	spec := mat.NewCDense(16, 16, nil)
	for i := 0; i < 16; i++ {
		for j := 0; j < 16; j++ {
			spec.Set(i, j, complex(float64(i), float64(j)))
		}
	}

	return &kernelphase.Bundle{
		Image:    img,
		Spectrum: spec,
		UVPixels: [][2]float64{{4.2, 10.7}, {12.0, 3.0}},
	}
}

// TestNewViewerRequiresIntermediates verifies bundles without saved images
// are rejected.
func TestNewViewerRequiresIntermediates(t *testing.T) {
	_, err := NewViewer(nil)
	assert.Error(t, err)

	_, err = NewViewer(&kernelphase.Bundle{})
	assert.Error(t, err)
}

// TestSaveDiagnostics verifies the three PNGs land on disk with the grid
// dimensions.
func TestSaveDiagnostics(t *testing.T) {
	viewer, err := NewViewer(diagnosticBundle())
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "diag")
	require.NoError(t, viewer.SaveDiagnostics(dir))

	for _, name := range []string{"image.png", "amplitude.png", "phase.png"} {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		require.NoError(t, err, name)

		decoded, err := png.Decode(f)
		f.Close()
		require.NoError(t, err, name)
		assert.Equal(t, 16, decoded.Bounds().Dx(), name)
		assert.Equal(t, 16, decoded.Bounds().Dy(), name)
	}
}

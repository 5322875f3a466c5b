package psf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// gaussianBlob builds a synthetic point source at sub-pixel position
// (y0, x0) with the given width and peak amplitude.
func gaussianBlob(rows, cols int, y0, x0, sigma, amp float64) *mat.Dense {
	img := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		dy := float64(i) - y0
		for j := 0; j < cols; j++ {
			dx := float64(j) - x0
			img.Set(i, j, amp*math.Exp(-(dx*dx+dy*dy)/(2*sigma*sigma)))
		}
	}
	return img
}

// TestFindCenterCentered verifies the locator recovers a source sitting at
// the canvas center.
func TestFindCenterCentered(t *testing.T) {
	img := gaussianBlob(64, 64, 32, 32, 2.0, 100)

	est, err := FindCenter(img, 10)
	require.NoError(t, err)

	assert.False(t, est.LowSignal)
	assert.InDelta(t, 32.0, est.X, 0.05)
	assert.InDelta(t, 32.0, est.Y, 0.05)
}

// TestFindCenterSubPixel verifies sub-pixel positions are recovered from
// the marginal-profile centroid.
func TestFindCenterSubPixel(t *testing.T) {
	img := gaussianBlob(64, 64, 37.3, 28.8, 2.0, 100)

	est, err := FindCenter(img, 10)
	require.NoError(t, err)

	assert.False(t, est.LowSignal)
	assert.InDelta(t, 28.8, est.X, 0.15)
	assert.InDelta(t, 37.3, est.Y, 0.15)
}

// TestFindCenterLowSignal verifies the threshold fallback triggers when no
// filtered pixel exceeds the detection level.
func TestFindCenterLowSignal(t *testing.T) {
	img := gaussianBlob(64, 64, 30, 34, 2.0, 5)

	est, err := FindCenter(img, 10)
	require.NoError(t, err)

	assert.True(t, est.LowSignal)
	assert.InDelta(t, 34.0, est.X, 0.5)
	assert.InDelta(t, 30.0, est.Y, 0.5)
}

// TestFindCenterDegenerate verifies an empty frame is rejected.
func TestFindCenterDegenerate(t *testing.T) {
	img := mat.NewDense(32, 32, nil)

	_, err := FindCenter(img, 5)
	assert.ErrorIs(t, err, ErrDegenerateSignal)
}

// TestFindCenterDefaultIterations verifies non-positive iteration counts
// fall back to the default.
func TestFindCenterDefaultIterations(t *testing.T) {
	img := gaussianBlob(64, 64, 32, 32, 2.0, 100)

	est, err := FindCenter(img, 0)
	require.NoError(t, err)
	assert.InDelta(t, 32.0, est.X, 0.05)
}

// Package kernelphase reduces single point-source frames into
// kernel-phase observables: it conditions and re-centers the frame,
// transforms it to the Fourier domain, samples the transform at the
// aperture's baseline coordinates and projects the sampled phases through
// the kernel-phase relation matrix.
package kernelphase

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"

	"kerphase/internal/models"
	"kerphase/pkg/bispectrum"
	"kerphase/pkg/psf"
	"kerphase/pkg/uvplane"
)

// Options configure a single extraction.
type Options struct {
	// Recenter re-centers the frame before the transform.
	Recenter bool

	// Window applies the apodization mask when recentring is disabled.
	Window bool

	// SaveImages keeps the centered image and the Fourier-domain grid on
	// the result bundle.
	SaveImages bool

	// WFS switches to wavefront-sensing mode: raw uv-phases are returned
	// instead of kernel phases.
	WFS bool

	// WindowRadius is the super-Gaussian radius in pixels; used when
	// WindowRadiusLD is zero or negative.
	WindowRadius float64

	// WindowRadiusLD expresses the radius in multiples of lambda/D
	// instead; PupilDiameter supplies D, falling back to the shortest
	// baseline when non-positive.
	WindowRadiusLD float64
	PupilDiameter  float64

	// GridSize is the interpolation neighborhood size for uv sampling.
	GridSize int

	// RecenterIterations is the center-locator iteration count.
	RecenterIterations int

	// Bispectrum enables bispectral-phase extraction with the given
	// bounds.
	Bispectrum      bool
	BispectrumRange [2]int
	NonRedundant    bool

	// Verbose enables progress output.
	Verbose bool
}

// DefaultOptions mirrors the pipeline defaults for well-conditioned
// frames.
func DefaultOptions() Options {
	return Options{
		Recenter:           true,
		Window:             true,
		WindowRadius:       25.0,
		WindowRadiusLD:     1.0,
		GridSize:           5,
		RecenterIterations: psf.DefaultRecenterIterations,
		BispectrumRange:    [2]int{0, 50000},
	}
}

// Bundle is the extracted observable record for one frame. It is not
// mutated after being returned.
type Bundle struct {
	Info models.ObservationInfo

	// KernelPhases is the kernel-phase signal in degrees (empty in WFS
	// mode).
	KernelPhases []float64

	// UVPhases is the raw per-baseline phase vector in radians.
	UVPhases []float64

	// Vis2 is the squared visibility per baseline.
	Vis2 []float64

	// Bispectrum holds bispectral phases in degrees when enabled.
	Bispectrum []float64

	// UVPixels are the sample coordinates in Fourier-grid pixels
	// (column, row), exposed for diagnostics.
	UVPixels [][2]float64

	// Image and Spectrum are the centered frame and its Fourier transform,
	// kept only when SaveImages is set.
	Image    *mat.Dense
	Spectrum *mat.CDense

	// LowSignal reports that the center locator had to relax its
	// detection threshold; the observables are degraded but usable.
	LowSignal bool
}

// Extractor runs the extraction pipeline for one aperture geometry. It is
// stateless across calls and safe for concurrent use.
type Extractor struct {
	geo  *Geometry
	opts Options
}

// NewExtractor validates the geometry and options.
func NewExtractor(geo *Geometry, opts Options) (*Extractor, error) {
	if geo == nil {
		return nil, fmt.Errorf("%w: nil geometry", ErrInvalidArgument)
	}
	if err := geo.Validate(); err != nil {
		return nil, err
	}
	if opts.WindowRadiusLD <= 0 && opts.WindowRadius <= 0 {
		return nil, fmt.Errorf("%w: windowing radius must be positive", ErrInvalidArgument)
	}
	if opts.GridSize < 0 {
		return nil, fmt.Errorf("%w: negative interpolation neighborhood", ErrInvalidArgument)
	}
	return &Extractor{geo: geo, opts: opts}, nil
}

// WindowRadius resolves the super-Gaussian radius in pixels for a frame's
// wavelength and plate scale. In lambda/D mode the radius is derived from
// the diffraction scale, rounded up to an even pixel count.
func (e *Extractor) WindowRadius(info models.ObservationInfo) float64 {
	if e.opts.WindowRadiusLD <= 0 {
		return e.opts.WindowRadius
	}
	bl := e.opts.PupilDiameter
	if bl <= 0 {
		bl = e.geo.MinBaseline()
	}
	rad := float64(int(Rad2Mas(info.Wavelength/bl)/info.PlateScale) + 1)
	rad *= e.opts.WindowRadiusLD
	rad += math.Mod(rad, 2)
	return rad
}

// Extract reduces one frame to its observable bundle. The input image is
// never mutated.
func (e *Extractor) Extract(img *mat.Dense, info models.ObservationInfo) (*Bundle, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidArgument)
	}
	if info.Wavelength <= 0 || info.PlateScale <= 0 {
		return nil, fmt.Errorf("%w: wavelength and plate scale must be positive", ErrInvalidArgument)
	}
	radius := e.WindowRadius(info)

	var (
		im        *mat.Dense
		lowSignal bool
		err       error
	)
	switch {
	case e.opts.Recenter:
		im, lowSignal, err = psf.Recenter(img, radius, e.opts.RecenterIterations)
	case e.opts.Window:
		im, err = psf.PadAndWindow(img, radius)
	default:
		im, err = psf.Pad(img)
	}
	if err != nil {
		return nil, err
	}

	size, _ := im.Dims()
	half := float64(size) / 2

	// Meters-to-pixel conversion for the uv coordinates.
	m2pix := Mas2Rad(info.PlateScale) * float64(size) / info.Wavelength
	rev := info.SampleOrientation()

	uvPixels := make([][2]float64, len(e.geo.UV))
	rows := make([]float64, len(e.geo.UV))
	cols := make([]float64, len(e.geo.UV))
	for i, uv := range e.geo.UV {
		uvPixels[i] = [2]float64{uv[0]*m2pix + half, uv[1]*m2pix + half}
		rows[i] = uv[1]*m2pix + half
		cols[i] = rev*uv[0]*m2pix + half
	}

	ac, err := uvplane.CenteredSpectrum(im, e.geo.Holes)
	if err != nil {
		return nil, err
	}

	cvis, err := uvplane.Sample(ac, rows, cols, e.opts.GridSize)
	if err != nil {
		return nil, err
	}

	bundle := &Bundle{
		Info:      info,
		UVPhases:  Phases(cvis),
		Vis2:      SquaredVisibilities(cvis, ac),
		UVPixels:  uvPixels,
		LowSignal: lowSignal,
	}

	if !e.opts.WFS {
		if e.geo.KerPhi == nil {
			return nil, fmt.Errorf("%w: geometry carries no relation matrix", ErrGeometry)
		}
		bundle.KernelPhases, err = Project(e.geo.KerPhi, bundle.UVPhases)
		if err != nil {
			return nil, err
		}
	}

	if e.opts.Bispectrum {
		bspOpts := bispectrum.Options{
			Lower:        e.opts.BispectrumRange[0],
			Upper:        e.opts.BispectrumRange[1],
			Degrees:      true,
			NonRedundant: e.opts.NonRedundant,
		}
		if e.opts.Verbose {
			bspOpts.Progress = os.Stdout
		}
		bundle.Bispectrum, err = bispectrum.Extract(cvis, e.geo.UVRel, bspOpts)
		if err != nil {
			return nil, err
		}
	}

	if e.opts.SaveImages {
		bundle.Image = im
		bundle.Spectrum = ac
	}
	return bundle, nil
}

// ExtractBatch runs the pipeline over independent frames with a worker
// pool. Frames fail independently: errs[i] is non-nil exactly when
// bundles[i] is nil, and one bad frame never aborts the batch.
func (e *Extractor) ExtractBatch(frames []*mat.Dense, info models.ObservationInfo, workers int) (bundles []*Bundle, errs []error) {
	n := len(frames)
	bundles = make([]*Bundle, n)
	errs = make([]error, n)
	if n == 0 {
		return bundles, errs
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	type result struct {
		idx    int
		bundle *Bundle
		err    error
	}
	jobs := make(chan int)
	results := make(chan result)

	for w := 0; w < workers; w++ {
		go func() {
			for idx := range jobs {
				b, err := e.Extract(frames[idx], info)
				results <- result{idx: idx, bundle: b, err: err}
			}
		}()
	}
	go func() {
		for idx := range frames {
			jobs <- idx
		}
		close(jobs)
	}()

	for done := 0; done < n; done++ {
		res := <-results
		bundles[res.idx] = res.bundle
		if res.err != nil {
			errs[res.idx] = fmt.Errorf("frame %d: %w", res.idx, res.err)
		}
		if e.opts.Verbose {
			fmt.Printf("\rextracting frames: %.1f%% complete", float64(done+1)/float64(n)*100)
		}
	}
	if e.opts.Verbose {
		fmt.Println()
	}
	return bundles, errs
}

package kernelphase

import (
	"fmt"
	"math"
	"os"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"
)

// Geometry is the precomputed description of the synthetic aperture: the
// uv baseline coordinates, the kernel-phase relation matrix, the uv
// relation matrix used by the bispectrum extractor and the hole-count
// normalization constant. It is supplied externally and treated as
// immutable per extraction call.
type Geometry struct {
	// UV holds one (u, v) baseline coordinate in meters per unique
	// sub-aperture pair.
	UV [][2]float64

	// KerPhi maps the vector of per-baseline phases to kernel-phase
	// observables.
	KerPhi *mat.Dense

	// UVRel is square over sampling points; entry (i, j) >= 0 is the
	// unique-baseline index for that pair, and which of (i, j)/(j, i) is
	// non-negative encodes the stored baseline direction.
	UVRel [][]int

	// Holes is the number of independent sampling holes; the transform's
	// zero-baseline value is normalized to it.
	Holes float64
}

// geometryFile is the on-disk YAML layout of a Geometry.
type geometryFile struct {
	UV     [][]float64 `yaml:"uv"`
	KerPhi [][]float64 `yaml:"kerphi"`
	UVRel  [][]int     `yaml:"uvrel"`
	Holes  float64     `yaml:"holes"`
}

// Validate checks the geometry for internal consistency.
func (g *Geometry) Validate() error {
	if len(g.UV) == 0 {
		return fmt.Errorf("%w: no uv baselines", ErrGeometry)
	}
	if g.Holes <= 0 {
		return fmt.Errorf("%w: hole count must be positive", ErrGeometry)
	}
	if g.KerPhi != nil {
		if _, c := g.KerPhi.Dims(); c != len(g.UV) {
			return fmt.Errorf("%w: relation matrix has %d columns for %d baselines", ErrGeometry, c, len(g.UV))
		}
	}
	for _, row := range g.UVRel {
		if len(row) != len(g.UVRel) {
			return fmt.Errorf("%w: uv relation matrix is not square", ErrGeometry)
		}
		for _, b := range row {
			if b >= len(g.UV) {
				return fmt.Errorf("%w: uv relation entry %d exceeds %d baselines", ErrGeometry, b, len(g.UV))
			}
		}
	}
	return nil
}

// MinBaseline returns the length of the shortest baseline in meters.
func (g *Geometry) MinBaseline() float64 {
	minLen := math.Inf(1)
	for _, uv := range g.UV {
		if l := math.Hypot(uv[0], uv[1]); l < minLen {
			minLen = l
		}
	}
	return minLen
}

// KernelCount returns the number of kernel-phase observables the geometry
// produces per frame.
func (g *Geometry) KernelCount() int {
	if g.KerPhi == nil {
		return 0
	}
	rows, _ := g.KerPhi.Dims()
	return rows
}

// LoadGeometry reads a geometry description from a YAML file.
func LoadGeometry(path string) (*Geometry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading geometry file: %w", err)
	}
	var gf geometryFile
	if err := yaml.Unmarshal(data, &gf); err != nil {
		return nil, fmt.Errorf("error parsing geometry file: %w", err)
	}

	geo := &Geometry{
		UV:    make([][2]float64, len(gf.UV)),
		UVRel: gf.UVRel,
		Holes: gf.Holes,
	}
	for i, uv := range gf.UV {
		if len(uv) != 2 {
			return nil, fmt.Errorf("%w: uv entry %d has %d components", ErrGeometry, i, len(uv))
		}
		geo.UV[i] = [2]float64{uv[0], uv[1]}
	}
	if len(gf.KerPhi) > 0 {
		cols := len(gf.KerPhi[0])
		flat := make([]float64, 0, len(gf.KerPhi)*cols)
		for i, row := range gf.KerPhi {
			if len(row) != cols {
				return nil, fmt.Errorf("%w: ragged kerphi row %d", ErrGeometry, i)
			}
			flat = append(flat, row...)
		}
		geo.KerPhi = mat.NewDense(len(gf.KerPhi), cols, flat)
	}

	if err := geo.Validate(); err != nil {
		return nil, err
	}
	return geo, nil
}

// Package fits reads primary-HDU images from FITS files in pure Go: the
// 2880-byte block structure, 80-byte header cards and BITPIX-driven
// big-endian pixel decoding, with BZERO/BSCALE applied. It covers exactly
// what the extraction pipeline consumes: a header keyword map and one or
// more 2D frames.
package fits

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

const (
	blockSize = 2880
	cardSize  = 80
)

// ErrFormat is returned for files that do not follow the FITS standard.
var ErrFormat = errors.New("fits: malformed file")

// Header is the keyword/value map of the primary HDU. Values are kept as
// raw card strings and converted on access.
type Header struct {
	values map[string]string
}

// Str returns a string keyword with surrounding quotes and padding
// removed.
func (h *Header) Str(key string) (string, bool) {
	raw, ok := h.values[strings.ToUpper(key)]
	if !ok {
		return "", false
	}
	if strings.HasPrefix(raw, "'") {
		raw = strings.TrimPrefix(raw, "'")
		if i := strings.LastIndex(raw, "'"); i >= 0 {
			raw = raw[:i]
		}
		raw = strings.ReplaceAll(raw, "''", "'")
	}
	return strings.TrimSpace(raw), true
}

// Float returns a keyword parsed as float64.
func (h *Header) Float(key string) (float64, bool) {
	raw, ok := h.Str(key)
	if !ok {
		return 0, false
	}
	// FITS allows Fortran-style exponents.
	raw = strings.ReplaceAll(strings.ReplaceAll(raw, "D", "E"), "d", "e")
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Int returns a keyword parsed as int.
func (h *Header) Int(key string) (int, bool) {
	raw, ok := h.Str(key)
	if !ok {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		if f, ferr := strconv.ParseFloat(raw, 64); ferr == nil {
			return int(f), true
		}
		return 0, false
	}
	return v, true
}

// Image is a decoded primary HDU holding one or more 2D frames.
type Image struct {
	Header *Header

	// Width and Height are NAXIS1 and NAXIS2; Frames is NAXIS3 (1 for a
	// plain 2D image).
	Width, Height, Frames int

	data []float64
}

// Frame returns frame k as a Height x Width grid. The returned grid owns
// its data.
func (im *Image) Frame(k int) (*mat.Dense, error) {
	if k < 0 || k >= im.Frames {
		return nil, fmt.Errorf("fits: frame %d out of range [0, %d)", k, im.Frames)
	}
	n := im.Width * im.Height
	out := make([]float64, n)
	copy(out, im.data[k*n:(k+1)*n])
	return mat.NewDense(im.Height, im.Width, out), nil
}

// Open reads the primary HDU of a FITS file.
func Open(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// Read decodes the primary HDU from r.
func Read(r io.Reader) (*Image, error) {
	hdr, err := readHeader(r)
	if err != nil {
		return nil, err
	}

	bitpix, ok := hdr.Int("BITPIX")
	if !ok {
		return nil, fmt.Errorf("%w: missing BITPIX", ErrFormat)
	}
	naxis, ok := hdr.Int("NAXIS")
	if !ok || naxis < 2 || naxis > 3 {
		return nil, fmt.Errorf("%w: unsupported NAXIS %d", ErrFormat, naxis)
	}
	width, ok := hdr.Int("NAXIS1")
	if !ok || width <= 0 {
		return nil, fmt.Errorf("%w: bad NAXIS1", ErrFormat)
	}
	height, ok := hdr.Int("NAXIS2")
	if !ok || height <= 0 {
		return nil, fmt.Errorf("%w: bad NAXIS2", ErrFormat)
	}
	frames := 1
	if naxis == 3 {
		if frames, ok = hdr.Int("NAXIS3"); !ok || frames <= 0 {
			return nil, fmt.Errorf("%w: bad NAXIS3", ErrFormat)
		}
	}
	bzero := 0.0
	if v, ok := hdr.Float("BZERO"); ok {
		bzero = v
	}
	bscale := 1.0
	if v, ok := hdr.Float("BSCALE"); ok {
		bscale = v
	}

	npix := width * height * frames
	data, err := readPixels(r, bitpix, npix, bzero, bscale)
	if err != nil {
		return nil, err
	}
	return &Image{
		Header: hdr,
		Width:  width,
		Height: height,
		Frames: frames,
		data:   data,
	}, nil
}

// readHeader consumes header blocks up to and including the one holding
// the END card.
func readHeader(r io.Reader) (*Header, error) {
	hdr := &Header{values: make(map[string]string)}
	block := make([]byte, blockSize)
	for {
		if _, err := io.ReadFull(r, block); err != nil {
			return nil, fmt.Errorf("%w: truncated header", ErrFormat)
		}
		for off := 0; off < blockSize; off += cardSize {
			card := string(block[off : off+cardSize])
			key := strings.TrimSpace(card[:8])
			switch key {
			case "END":
				return hdr, nil
			case "", "COMMENT", "HISTORY":
				continue
			}
			if card[8:10] != "= " {
				continue
			}
			hdr.values[key] = trimComment(card[10:])
		}
	}
}

// trimComment strips the trailing comment from a card value, respecting
// quoted strings.
func trimComment(v string) string {
	inQuote := false
	for i := 0; i < len(v); i++ {
		switch v[i] {
		case '\'':
			inQuote = !inQuote
		case '/':
			if !inQuote {
				return strings.TrimSpace(v[:i])
			}
		}
	}
	return strings.TrimSpace(v)
}

// readPixels decodes npix big-endian pixels of the given BITPIX into
// float64, applying the BZERO/BSCALE linear transform.
func readPixels(r io.Reader, bitpix, npix int, bzero, bscale float64) ([]float64, error) {
	width := bitpix
	if width < 0 {
		width = -width
	}
	raw := make([]byte, npix*width/8)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("%w: truncated data", ErrFormat)
	}

	out := make([]float64, npix)
	switch bitpix {
	case 8:
		for i := range out {
			out[i] = float64(raw[i])
		}
	case 16:
		for i := range out {
			out[i] = float64(int16(binary.BigEndian.Uint16(raw[2*i:])))
		}
	case 32:
		for i := range out {
			out[i] = float64(int32(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case 64:
		for i := range out {
			out[i] = float64(int64(binary.BigEndian.Uint64(raw[8*i:])))
		}
	case -32:
		for i := range out {
			out[i] = float64(math.Float32frombits(binary.BigEndian.Uint32(raw[4*i:])))
		}
	case -64:
		for i := range out {
			out[i] = math.Float64frombits(binary.BigEndian.Uint64(raw[8*i:]))
		}
	default:
		return nil, fmt.Errorf("%w: unsupported BITPIX %d", ErrFormat, bitpix)
	}

	if bzero != 0 || bscale != 1 {
		for i := range out {
			out[i] = bzero + bscale*out[i]
		}
	}
	return out, nil
}

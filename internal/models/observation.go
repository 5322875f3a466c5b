// Package models holds the shared data records exchanged between the
// extraction pipeline and its collaborators: the closed set of supported
// instruments and the per-frame observation metadata decoded from headers.
package models

import (
	"fmt"
	"math"
)

// Instrument identifies the camera a frame was taken with. The set is
// closed: frames from an unsupported instrument are rejected at the
// system boundary instead of being guessed at from free-text telescope
// strings.
type Instrument int

const (
	// KeckNIRC2 is the NIRC2 camera on Keck II (narrow plate scale).
	KeckNIRC2 Instrument = iota

	// HSTNICMOS is the NICMOS camera on the Hubble Space Telescope.
	HSTNICMOS

	// HalePHARO is the PHARO camera behind P3K on the Hale telescope.
	HalePHARO

	// Simulated marks synthetic frames produced by a simulator.
	Simulated
)

// ErrUnknownInstrument is returned when an instrument tag is not part of
// the supported set.
var ErrUnknownInstrument = fmt.Errorf("models: unknown instrument")

// ParseInstrument maps an explicit instrument tag to its Instrument value.
// Recognized tags are "keck", "nicmos", "pharo" and "simulated".
func ParseInstrument(tag string) (Instrument, error) {
	switch tag {
	case "keck":
		return KeckNIRC2, nil
	case "nicmos":
		return HSTNICMOS, nil
	case "pharo":
		return HalePHARO, nil
	case "simulated":
		return Simulated, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownInstrument, tag)
	}
}

func (i Instrument) String() string {
	switch i {
	case KeckNIRC2:
		return "Keck II / NIRC2"
	case HSTNICMOS:
		return "HST / NICMOS"
	case HalePHARO:
		return "Hale / PHARO"
	case Simulated:
		return "simulated"
	default:
		return fmt.Sprintf("Instrument(%d)", int(i))
	}
}

// Header is the subset of FITS header access the decoders need. It is
// satisfied by fits.Header.
type Header interface {
	Str(key string) (string, bool)
	Float(key string) (float64, bool)
	Int(key string) (int, bool)
}

// ObservationInfo is the per-frame metadata record consumed by the
// extraction pipeline.
type ObservationInfo struct {
	Instrument Instrument

	Telescope string  // telescope identifier from the header
	FileName  string  // original file name, if recorded
	Date      string  // UTC date of observation
	Time      string  // UTC time of observation
	TInt      float64 // integration time (sec)
	Coadds    int     // number of coadds
	RA        float64 // right ascension (deg)
	Dec       float64 // declination (deg)

	PlateScale  float64 // mas per pixel
	Wavelength  float64 // central wavelength (meters)
	Orientation float64 // position angle of the frame (deg)
}

// SampleOrientation is the sign applied to the u coordinate when sampling
// the uv plane. PHARO position angles run clockwise, all other supported
// instruments counter-clockwise.
func (o ObservationInfo) SampleOrientation() float64 {
	if o.Instrument == HalePHARO {
		return 1.0
	}
	return -1.0
}

// InfoFromHeader decodes the observation metadata record for an explicitly
// tagged instrument. Decoding is exhaustive over the Instrument set.
func InfoFromHeader(inst Instrument, hdr Header) (ObservationInfo, error) {
	switch inst {
	case KeckNIRC2:
		return nirc2Info(hdr)
	case HSTNICMOS:
		return nicmosInfo(hdr)
	case HalePHARO:
		return pharoInfo(hdr)
	case Simulated:
		return simulatedInfo(hdr), nil
	default:
		return ObservationInfo{}, fmt.Errorf("%w: tag %d", ErrUnknownInstrument, int(inst))
	}
}

func headerStr(hdr Header, key, fallback string) string {
	if v, ok := hdr.Str(key); ok {
		return v
	}
	return fallback
}

func headerFloat(hdr Header, key string, fallback float64) float64 {
	if v, ok := hdr.Float(key); ok {
		return v
	}
	return fallback
}

func headerInt(hdr Header, key string, fallback int) int {
	if v, ok := hdr.Int(key); ok {
		return v
	}
	return fallback
}

// nirc2Info decodes a NIRC2 header. The narrow-camera plate scale is fixed
// at 10.0 mas/pixel and the frame position angle follows M. Ireland's
// formula for the NIRC2 rotator.
func nirc2Info(hdr Header) (ObservationInfo, error) {
	info := ObservationInfo{
		Instrument: KeckNIRC2,
		Telescope:  headerStr(hdr, "TELESCOP", "Keck II"),
		PlateScale: 10.0,
		FileName:   headerStr(hdr, "FILENAME", ""),
		Date:       headerStr(hdr, "DATE-OBS", ""),
		Time:       headerStr(hdr, "UTC", ""),
		TInt:       headerFloat(hdr, "ITIME", 0),
		Coadds:     headerInt(hdr, "COADDS", 1),
		RA:         headerFloat(hdr, "RA", 0),
		Dec:        headerFloat(hdr, "DEC", 0),
		Wavelength: headerFloat(hdr, "CENWAVE", 0) * 1e-6,
	}
	parang := headerFloat(hdr, "PARANG", 0)
	rotposn := headerFloat(hdr, "ROTPOSN", 0)
	el := headerFloat(hdr, "EL", 0)
	instangl := headerFloat(hdr, "INSTANGL", 0)
	info.Orientation = 360 + parang + rotposn - el - instangl
	if info.Wavelength <= 0 {
		return info, fmt.Errorf("models: NIRC2 header missing CENWAVE")
	}
	return info, nil
}

// nicmosInfo decodes a NICMOS header. The plate scale depends on the
// camera in use; the small X/Y anisotropy of camera 2 is ignored.
func nicmosInfo(hdr Header) (ObservationInfo, error) {
	var pscale float64
	switch headerInt(hdr, "CAMERA", 0) {
	case 1:
		pscale = 43.1
	case 2:
		pscale = 75.8667
	default:
		return ObservationInfo{}, fmt.Errorf("models: unsupported NICMOS camera")
	}
	info := ObservationInfo{
		Instrument:  HSTNICMOS,
		Telescope:   headerStr(hdr, "TELESCOP", "HST"),
		PlateScale:  pscale,
		FileName:    headerStr(hdr, "FILENAME", ""),
		Date:        headerStr(hdr, "DATE-OBS", ""),
		Time:        headerStr(hdr, "TIME-OBS", ""),
		TInt:        headerFloat(hdr, "EXPTIME", 0),
		Coadds:      1,
		RA:          headerFloat(hdr, "RA_TARG", 0),
		Dec:         headerFloat(hdr, "DEC_TARG", 0),
		Wavelength:  headerFloat(hdr, "PHOTPLAM", 0) * 1e-10,
		Orientation: headerFloat(hdr, "ORIENTAT", 0),
	}
	if info.Wavelength <= 0 {
		return info, fmt.Errorf("models: NICMOS header missing PHOTPLAM")
	}
	return info, nil
}

// pharoFilters maps PHARO filter wheel names to central wavelengths in
// meters.
var pharoFilters = map[string]float64{
	"H":       1.635e-6,
	"K":       2.196e-6,
	"CH4_S":   1.570e-6,
	"K_short": 2.145e-6,
	"BrG":     2.180e-6,
}

// pharoInfo decodes a PHARO header. The wavelength comes from the filter
// name, with the FeII grism taking precedence when mounted.
func pharoInfo(hdr Header) (ObservationInfo, error) {
	info := ObservationInfo{
		Instrument:  HalePHARO,
		Telescope:   headerStr(hdr, "TELESCOP", "Hale"),
		PlateScale:  25.2,
		Date:        headerStr(hdr, "DATE-OBS", ""),
		Time:        headerStr(hdr, "TIME-OBS", ""),
		TInt:        headerFloat(hdr, "T_INT", 0),
		Coadds:      1,
		RA:          headerFloat(hdr, "CRVAL1", 0),
		Dec:         headerFloat(hdr, "CRVAL2", 0),
		Orientation: headerFloat(hdr, "CR_ANGLE", 0),
		Wavelength:  math.NaN(),
	}
	filtname := headerStr(hdr, "FILTER", "")
	if wl, ok := pharoFilters[filtname]; ok {
		info.Wavelength = wl
	}
	if grism := headerStr(hdr, "GRISM", ""); grism == "FeII" {
		info.Wavelength = 1.648e-6
	}
	if math.IsNaN(info.Wavelength) {
		return info, fmt.Errorf("models: unrecognized PHARO filter configuration %q", filtname)
	}
	return info, nil
}

// simulatedInfo decodes a simulator header, falling back to the simulator
// defaults for any missing keyword.
func simulatedInfo(hdr Header) ObservationInfo {
	return ObservationInfo{
		Instrument:  Simulated,
		Telescope:   headerStr(hdr, "TELESCOP", "simulation"),
		PlateScale:  headerFloat(hdr, "PSCALE", 11.5),
		FileName:    headerStr(hdr, "FNAME", "simulation"),
		Date:        headerStr(hdr, "ODATE", "Jan 1, 2000"),
		Time:        headerStr(hdr, "OTIME", "0:00:00.00"),
		TInt:        headerFloat(hdr, "TINT", 1.0),
		Coadds:      headerInt(hdr, "COADDS", 1),
		RA:          headerFloat(hdr, "RA", 0),
		Dec:         headerFloat(hdr, "DEC", 0),
		Wavelength:  headerFloat(hdr, "FILTER", 1.6e-6),
		Orientation: headerFloat(hdr, "ORIENT", 0),
	}
}

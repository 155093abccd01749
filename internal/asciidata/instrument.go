package asciidata

import (
	"math"

	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
)

// Matching tolerances for direct-beam candidates, in the units the loader
// records them in (Angstrom for wavelength, millimetres for slits).
const (
	wavelengthTolerance = 0.05
	slitTolerance       = 0.01
)

// Instrument is the ASCII-file instrument definition. Its direct-beam match
// predicate compares wavelength and, unless relaxed, the three slit openings.
type Instrument struct {
	name string
}

// NewInstrument creates an Instrument with the given display name.
func NewInstrument(name string) *Instrument {
	if name == "" {
		name = "ASCII"
	}
	return &Instrument{name: name}
}

// Name returns the instrument's display name.
func (in *Instrument) Name() string { return in.name }

// DirectBeamMatch reports whether candidate is an acceptable direct beam for
// the measured channel. The wavelength must always agree within tolerance;
// slit openings are compared pairwise unless skipSlits is set.
func (in *Instrument) DirectBeamMatch(measured, candidate *reduction.SubDataset, skipSlits bool) bool {
	if measured == nil || candidate == nil {
		return false
	}
	mc, cc := measured.Configuration, candidate.Configuration
	if mc == nil || cc == nil {
		return false
	}
	if math.Abs(mc.Wavelength-cc.Wavelength) >= wavelengthTolerance {
		return false
	}
	if skipSlits {
		return true
	}
	for i := range mc.SlitWidths {
		if math.Abs(mc.SlitWidths[i]-cc.SlitWidths[i]) >= slitTolerance {
			return false
		}
	}
	return true
}

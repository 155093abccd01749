package reduction

import (
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
)

// Loader materializes a measurement from one or more instrument files.
// Implementations parse the raw files; this core never does. The progress
// reporter, when non-nil, receives the loader's own [0,100] milestones and
// is rescaled by the caller into its overall range.
//
// Load fails with an apperrors.LoadError when any referenced file (or any
// component of a '+'-joined path) does not exist or cannot be parsed.
type Loader interface {
	Load(path string, cfg *Configuration, prog *progress.Reporter) (*Measurement, error)
}

// ReflectivityCalculator computes the specular reflectivity curve for one
// channel, normalized by an optional direct-beam channel. Failures are
// reported as apperrors.CalculationError.
type ReflectivityCalculator interface {
	Reflectivity(sub, directBeam *SubDataset, cfg *Configuration) (*Curve, error)
}

// OffSpecularCalculator computes the off-specular scattering map for one
// channel, normalized by an optional direct-beam channel.
type OffSpecularCalculator interface {
	OffSpecular(sub, directBeam *SubDataset) (*OffSpecularMap, error)
}

// GisansCalculator computes the grazing-incidence scattering map for one
// channel. GISANS always requires a direct beam; callers enforce that before
// invoking the calculator.
type GisansCalculator interface {
	Gisans(sub, directBeam *SubDataset, prog *progress.Reporter) (*GisansMap, error)
}

// Instrument supplies the instrument-specific pieces of the reduction:
// currently only the direct-beam match predicate. DirectBeamMatch must be
// pure and side-effect-free; skipSlits relaxes the comparison by ignoring
// slit geometry.
type Instrument interface {
	Name() string
	DirectBeamMatch(measured, candidate *SubDataset, skipSlits bool) bool
}

// ReducedEntry is one run reference read from a reduced output file: its
// identifier, the data file path (possibly '+'-joined), and the
// configuration recorded at reduction time.
type ReducedEntry struct {
	ID            string
	Path          string
	Configuration *Configuration
}

// ReducedFileReader parses a previously written reduced file into its
// direct-beam and data run tables. Implementations own the file format; the
// session only drives the resulting batch load.
type ReducedFileReader interface {
	ReadReducedFile(path string, cfg *Configuration) (directBeams, dataRuns []ReducedEntry, err error)
}

// BeamTarget addresses the subject of a direct-beam lookup: either a whole
// measurement (resolved through its first channel) or one specific channel.
// The explicit two-case union replaces accepting either type blindly.
type BeamTarget struct {
	measurement *Measurement
	sub         *SubDataset
}

// MeasurementTarget addresses a whole measurement.
func MeasurementTarget(m *Measurement) BeamTarget {
	return BeamTarget{measurement: m}
}

// SubDatasetTarget addresses one specific channel.
func SubDatasetTarget(sub *SubDataset) BeamTarget {
	return BeamTarget{sub: sub}
}

// channel resolves the target to a concrete sub-dataset: the channel itself,
// or a measurement's first channel. Returns nil for an empty target or a
// measurement without channels.
func (t BeamTarget) channel() *SubDataset {
	if t.sub != nil {
		return t.sub
	}
	if t.measurement != nil {
		return t.measurement.FirstChannel()
	}
	return nil
}

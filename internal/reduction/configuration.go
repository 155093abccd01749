package reduction

// Default merging-grid parameters. A negative step selects logarithmic
// binning with a bin-to-bin growth factor of |step|.
const (
	DefaultQMin    = 0.001
	DefaultQStep   = -0.01
	DefaultQCutoff = 0.01
)

// Configuration carries the per-measurement reduction parameters. It is
// owned by the measurement it configures; a copy may be merged into another
// measurement's configuration during reload.
type Configuration struct {
	// Normalization identifies the direct-beam run used to normalize this
	// measurement. Zero when no normalization reference is set.
	Normalization RunID
	// MatchDirectBeam requests automatic direct-beam resolution on load when
	// Normalization is unset.
	MatchDirectBeam bool
	// CutFirstNPoints and CutLastNPoints trim the reflectivity curve edges.
	CutFirstNPoints int
	CutLastNPoints  int
	// Instrument supplies the instrument-specific direct-beam match predicate.
	Instrument Instrument
	// Geometry fields recorded by the instrument for slit matching.
	SlitWidths [3]float64
	Wavelength float64
	// Merging-grid parameters used by the stitch-and-merge engine.
	QMin    float64
	QStep   float64
	QCutoff float64
}

// NewConfiguration creates a Configuration with the default merging grid.
func NewConfiguration(instrument Instrument) *Configuration {
	return &Configuration{
		Instrument: instrument,
		QMin:       DefaultQMin,
		QStep:      DefaultQStep,
		QCutoff:    DefaultQCutoff,
	}
}

// Copy returns an independent copy of the configuration. The Instrument
// reference is shared; everything else is value state.
func (c *Configuration) Copy() *Configuration {
	if c == nil {
		return nil
	}
	dup := *c
	return &dup
}

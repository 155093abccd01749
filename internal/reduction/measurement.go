package reduction

// Curve is a reflectivity curve: momentum transfer Q, reflectivity R and the
// associated uncertainty DR, index-aligned.
type Curve struct {
	Q  []float64
	R  []float64
	DR []float64
}

// Len returns the number of points in the curve.
func (c *Curve) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Q)
}

// OffSpecularMap is the off-specular scattering map computed for one channel.
// The physics kernel producing it lives outside this core; the map is carried
// opaquely alongside its axes.
type OffSpecularMap struct {
	Qx        []float64
	Qz        []float64
	Intensity [][]float64
}

// GisansMap is the grazing-incidence scattering map computed for one channel.
type GisansMap struct {
	Qy        []float64
	Qz        []float64
	Intensity [][]float64
}

// SubDataset is one polarization-state slice (cross-section channel) of a
// measurement. It carries its own configuration and, once computed, the
// derived reflectivity curve and scattering maps.
type SubDataset struct {
	// Label is the channel key within the parent measurement, e.g. "Off_Off".
	Label string
	// CrossSectionLabel is the canonical polarization notation, e.g. "++".
	CrossSectionLabel string
	// Runs holds the run identifier(s) this channel was assembled from.
	Runs RunSet
	// Configuration holds the reduction parameters for this channel.
	Configuration *Configuration
	// TwoTheta is the scattering angle in degrees.
	TwoTheta float64
	// Raw is the un-normalized curve as produced by the loader. Input to the
	// reflectivity calculator; never mutated after load.
	Raw *Curve
	// Reflectivity is the computed specular curve; nil until calculated.
	Reflectivity *Curve
	// OffSpecular is the computed off-specular map; nil until calculated.
	OffSpecular *OffSpecularMap
	// Gisans is the computed GISANS map; nil until calculated.
	Gisans *GisansMap
	// Scale is the multiplicative stitching factor; 1 until stitched.
	Scale float64
}

// Measurement is one loaded (possibly multi-file-merged) instrument run,
// containing one sub-dataset per polarization channel. A measurement is
// replaced, never mutated in place, on forced reload.
type Measurement struct {
	// Path is the canonical (sorted, '+'-joined) file path.
	Path string

	labels   []string
	channels map[string]*SubDataset
}

// NewMeasurement creates an empty measurement for the given canonical path.
func NewMeasurement(path string) *Measurement {
	return &Measurement{
		Path:     path,
		channels: make(map[string]*SubDataset),
	}
}

// AddChannel registers a sub-dataset under its label, preserving insertion
// order. A sub-dataset with an unset Scale gets the neutral factor 1.
func (m *Measurement) AddChannel(sub *SubDataset) {
	if sub == nil {
		return
	}
	if sub.Scale == 0 {
		sub.Scale = 1
	}
	if _, ok := m.channels[sub.Label]; !ok {
		m.labels = append(m.labels, sub.Label)
	}
	m.channels[sub.Label] = sub
}

// Channels returns the channel labels in insertion order.
func (m *Measurement) Channels() []string {
	out := make([]string, len(m.labels))
	copy(out, m.labels)
	return out
}

// Channel returns the sub-dataset registered under label, or nil.
func (m *Measurement) Channel(label string) *SubDataset {
	return m.channels[label]
}

// FirstChannel returns the first registered sub-dataset, or nil when the
// measurement has no channels.
func (m *Measurement) FirstChannel() *SubDataset {
	if len(m.labels) == 0 {
		return nil
	}
	return m.channels[m.labels[0]]
}

// ChannelAt returns the sub-dataset at the given index, or nil when out of
// range.
func (m *Measurement) ChannelAt(index int) *SubDataset {
	if index < 0 || index >= len(m.labels) {
		return nil
	}
	return m.channels[m.labels[index]]
}

// NumChannels returns the number of registered channels.
func (m *Measurement) NumChannels() int { return len(m.labels) }

// TwoTheta returns the measurement's scattering angle, taken from its first
// channel. Zero when the measurement has no channels.
func (m *Measurement) TwoTheta() float64 {
	if first := m.FirstChannel(); first != nil {
		return first.TwoTheta
	}
	return 0
}

// Runs returns the run set of the first channel. All channels of one
// measurement share the same runs.
func (m *Measurement) Runs() RunSet {
	if first := m.FirstChannel(); first != nil {
		return first.Runs
	}
	return RunSet{}
}

// ID returns the measurement's identity as a run identifier, composite for
// multi-file measurements.
func (m *Measurement) ID() RunID {
	return m.Runs().CompositeID()
}

// Configuration returns the first channel's configuration, or nil.
func (m *Measurement) Configuration() *Configuration {
	if first := m.FirstChannel(); first != nil {
		return first.Configuration
	}
	return nil
}

// SetNormalization records the direct-beam identifier on every channel's
// configuration. Returns true if any channel's value changed.
func (m *Measurement) SetNormalization(id RunID) bool {
	changed := false
	for _, label := range m.labels {
		cfg := m.channels[label].Configuration
		if cfg == nil {
			continue
		}
		if !cfg.Normalization.Equal(id) {
			cfg.Normalization = id
			changed = true
		}
	}
	return changed
}

// SetCutPoints records the edge-trim point counts on every channel.
func (m *Measurement) SetCutPoints(first, last int) {
	for _, label := range m.labels {
		if cfg := m.channels[label].Configuration; cfg != nil {
			cfg.CutFirstNPoints = first
			cfg.CutLastNPoints = last
		}
	}
}

// SetCutLastPoints records only the tail trim count on every channel,
// preserving the head trim. Used by overlap stripping.
func (m *Measurement) SetCutLastPoints(last int) {
	for _, label := range m.labels {
		if cfg := m.channels[label].Configuration; cfg != nil {
			cfg.CutLastNPoints = last
		}
	}
}

// SetScale records the stitching scale factor on every channel.
func (m *Measurement) SetScale(scale float64) {
	for _, label := range m.labels {
		m.channels[label].Scale = scale
	}
}

// UpdateConfiguration merges a configuration into every channel, keeping
// each channel's computed results intact.
func (m *Measurement) UpdateConfiguration(cfg *Configuration) {
	if cfg == nil {
		return
	}
	for _, label := range m.labels {
		m.channels[label].Configuration = cfg.Copy()
	}
}

// IsOffspecAvailable reports whether every channel has an off-specular map.
func (m *Measurement) IsOffspecAvailable() bool {
	if len(m.labels) == 0 {
		return false
	}
	for _, label := range m.labels {
		if m.channels[label].OffSpecular == nil {
			return false
		}
	}
	return true
}

// IsGisansAvailable reports whether every channel has a GISANS map.
func (m *Measurement) IsGisansAvailable() bool {
	if len(m.labels) == 0 {
		return false
	}
	for _, label := range m.labels {
		if m.channels[label].Gisans == nil {
			return false
		}
	}
	return true
}

// MergedResult maps channel labels (plus the synthetic "SA" spin-asymmetry
// label) to merged reflectivity curves spanning the whole reduction list.
type MergedResult map[string]*Curve

// AsymmetryLabel is the synthetic channel label of the derived spin-asymmetry
// curve in a MergedResult.
const AsymmetryLabel = "SA"

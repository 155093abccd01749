package reduction

import (
	"fmt"
	"sync"

	"github.com/jontaylor010/reflectivity-ui/internal/logging"
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
)

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	mu     sync.Mutex
	infos  []string
	warns  []string
	errors []string
	debugs []string
}

func (l *recordingLogger) Info(msg string, _ ...logging.Field)  { l.record(&l.infos, msg) }
func (l *recordingLogger) Warn(msg string, _ ...logging.Field)  { l.record(&l.warns, msg) }
func (l *recordingLogger) Debug(msg string, _ ...logging.Field) { l.record(&l.debugs, msg) }
func (l *recordingLogger) Error(msg string, err error, _ ...logging.Field) {
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	l.record(&l.errors, msg)
}
func (l *recordingLogger) Printf(format string, v ...any) { l.record(&l.infos, fmt.Sprintf(format, v...)) }
func (l *recordingLogger) Println(v ...any)               { l.record(&l.infos, fmt.Sprint(v...)) }

func (l *recordingLogger) record(dst *[]string, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*dst = append(*dst, msg)
}

func (l *recordingLogger) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

// stubInstrument matches direct beams through a pluggable predicate.
type stubInstrument struct {
	match func(measured, candidate *SubDataset, skipSlits bool) bool
}

func (si *stubInstrument) Name() string { return "stub" }

func (si *stubInstrument) DirectBeamMatch(measured, candidate *SubDataset, skipSlits bool) bool {
	if si.match == nil {
		return true
	}
	return si.match(measured, candidate, skipSlits)
}

// newTestMeasurement builds a measurement with one channel per label, all
// sharing the given run set and angle.
func newTestMeasurement(path string, runs RunSet, theta float64, instrument Instrument, labels ...string) *Measurement {
	m := NewMeasurement(path)
	for _, label := range labels {
		m.AddChannel(&SubDataset{
			Label:         label,
			Runs:          runs,
			TwoTheta:      theta,
			Configuration: NewConfiguration(instrument),
		})
	}
	return m
}

// stubLoader returns canned measurements keyed by canonical path.
type stubLoader struct {
	measurements map[string]*Measurement
	loadCount    int
	lastProgress *progress.Reporter
	err          error
}

func (sl *stubLoader) Load(path string, cfg *Configuration, prog *progress.Reporter) (*Measurement, error) {
	sl.loadCount++
	sl.lastProgress = prog
	if sl.err != nil {
		return nil, sl.err
	}
	m, ok := sl.measurements[path]
	if !ok {
		return nil, fmt.Errorf("no stub measurement for %q", path)
	}
	// a fresh instance per load, like a real loader
	fresh := NewMeasurement(m.Path)
	for _, label := range m.Channels() {
		src := m.Channel(label)
		fresh.AddChannel(&SubDataset{
			Label:             src.Label,
			CrossSectionLabel: src.CrossSectionLabel,
			Runs:              src.Runs,
			TwoTheta:          src.TwoTheta,
			Raw:               src.Raw,
			Configuration:     cfg.Copy(),
		})
	}
	return fresh, nil
}

// stubCalculator returns a fixed curve, or an error, per call.
type stubCalculator struct {
	calls    int
	err      error
	failFor  map[string]error // errors keyed by channel label
	failRuns map[string]error // errors keyed by run set
}

func (sc *stubCalculator) failure(sub *SubDataset) error {
	if sc.err != nil {
		return sc.err
	}
	if err, ok := sc.failFor[sub.Label]; ok {
		return err
	}
	if err, ok := sc.failRuns[sub.Runs.String()]; ok {
		return err
	}
	return nil
}

func (sc *stubCalculator) Reflectivity(sub, directBeam *SubDataset, cfg *Configuration) (*Curve, error) {
	sc.calls++
	if err := sc.failure(sub); err != nil {
		return nil, err
	}
	if sub.Raw != nil {
		return sub.Raw, nil
	}
	return &Curve{Q: []float64{0.01}, R: []float64{1}, DR: []float64{0.1}}, nil
}

func (sc *stubCalculator) OffSpecular(sub, directBeam *SubDataset) (*OffSpecularMap, error) {
	sc.calls++
	if err := sc.failure(sub); err != nil {
		return nil, err
	}
	return &OffSpecularMap{Qx: []float64{0}, Qz: []float64{0.01}}, nil
}

func (sc *stubCalculator) Gisans(sub, directBeam *SubDataset, prog *progress.Reporter) (*GisansMap, error) {
	sc.calls++
	if err := sc.failure(sub); err != nil {
		return nil, err
	}
	return &GisansMap{Qy: []float64{0}, Qz: []float64{0.01}}, nil
}

// newTestSession builds a session around the given loader with a recording
// logger and passthrough calculators.
func newTestSession(loader Loader) (*Session, *recordingLogger) {
	log := &recordingLogger{}
	calc := &stubCalculator{}
	s, err := NewSession(Dependencies{
		Logger:       log,
		Loader:       loader,
		Reflectivity: calc,
		OffSpecular:  calc,
		Gisans:       calc,
	})
	if err != nil {
		panic(err)
	}
	return s, log
}

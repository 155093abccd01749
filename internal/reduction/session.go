package reduction

import (
	"path/filepath"
	"sort"
	"time"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/format"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
	"github.com/jontaylor010/reflectivity-ui/internal/server"
)

// Dependencies bundles the collaborators a Session needs. Logger and Loader
// are required; the calculators may be nil when the corresponding derived
// quantity is never requested, and Metrics may be nil to disable counters.
type Dependencies struct {
	Logger       logging.Logger
	Loader       Loader
	Reflectivity ReflectivityCalculator
	OffSpecular  OffSpecularCalculator
	Gisans       GisansCalculator
	ReducedFiles ReducedFileReader
	Metrics      *server.Metrics
	// CacheSize overrides the measurement cache capacity; 0 means MaxCache.
	CacheSize int
}

// Session is the stateful orchestration engine of the reduction tool. It
// owns the measurement cache, the reduction and direct-beam lists, the
// active selection, and the merged output, and drives loading and all
// derived-quantity calculations.
//
// A Session assumes a single logical caller; its state is not safe for
// concurrent use.
type Session struct {
	log     logging.Logger
	metrics *server.Metrics

	loader       Loader
	reflectivity ReflectivityCalculator
	offSpecular  OffSpecularCalculator
	gisans       GisansCalculator
	reducedFiles ReducedFileReader

	cache   *Cache
	lists   *Lists
	matcher *DirectBeamMatcher

	currentDirectory string
	currentFileName  string

	active        *Measurement
	activeChannel *SubDataset

	merged MergedResult
}

// NewSession creates a Session from its dependencies.
func NewSession(deps Dependencies) (*Session, error) {
	if deps.Logger == nil {
		return nil, apperrors.NewConfigError("session requires a logger")
	}
	if deps.Loader == nil {
		return nil, apperrors.NewConfigError("session requires a loader")
	}
	return &Session{
		log:          deps.Logger,
		metrics:      deps.Metrics,
		loader:       deps.Loader,
		reflectivity: deps.Reflectivity,
		offSpecular:  deps.OffSpecular,
		gisans:       deps.Gisans,
		reducedFiles: deps.ReducedFiles,
		cache:        NewCache(deps.CacheSize),
		lists:        NewLists(deps.Logger),
		matcher:      NewDirectBeamMatcher(deps.Logger),
		merged:       MergedResult{},
	}, nil
}

// Lists exposes the reduction and direct-beam list manager.
func (s *Session) Lists() *Lists { return s.lists }

// CacheSize returns the number of cached measurements.
func (s *Session) CacheSize() int { return s.cache.Size() }

// ClearCache drops all cached measurements.
func (s *Session) ClearCache() {
	s.cache.Clear()
	if s.metrics != nil {
		s.metrics.SetCacheSize(0)
	}
}

// CurrentDirectory returns the directory of the most recently loaded file.
func (s *Session) CurrentDirectory() string { return s.currentDirectory }

// CurrentFileName returns the ('+'-joined) base name of the most recently
// loaded file.
func (s *Session) CurrentFileName() string { return s.currentFileName }

// ActiveMeasurement returns the currently active measurement, or nil.
func (s *Session) ActiveMeasurement() *Measurement { return s.active }

// ActiveChannel returns the currently selected channel of the active
// measurement, or nil.
func (s *Session) ActiveChannel() *SubDataset { return s.activeChannel }

// IsActive reports whether m is the currently active measurement.
func (s *Session) IsActive(m *Measurement) bool { return m != nil && m == s.active }

// Merged returns the merged reflectivity curves produced by MergeDataSets,
// keyed by channel label plus the synthetic "SA" asymmetry label.
func (s *Session) Merged() MergedResult { return s.merged }

// SetChannel selects the active channel by index. Out-of-range indexes fall
// back to channel 0, reported as false; a measurement with no channels
// leaves the selection empty.
func (s *Session) SetChannel(index int) bool {
	if s.active == nil {
		return false
	}
	n := s.active.NumChannels()
	switch {
	case index >= 0 && index < n:
		s.activeChannel = s.active.ChannelAt(index)
		return true
	case n == 0:
		s.log.Error("could not set active channel: no data available", nil)
		s.activeChannel = nil
	default:
		s.activeChannel = s.active.ChannelAt(0)
	}
	return false
}

// SetActiveFromReductionList makes the reduction list member at index the
// active measurement, resetting the channel selection.
func (s *Session) SetActiveFromReductionList(index int) bool {
	m := s.lists.ReductionAt(index)
	if m == nil {
		return false
	}
	s.active = m
	s.SetChannel(0)
	return true
}

// SetActiveFromDirectBeamList makes the direct-beam list member at index the
// active measurement, resetting the channel selection.
func (s *Session) SetActiveFromDirectBeamList(index int) bool {
	m := s.lists.DirectBeamAt(index)
	if m == nil {
		return false
	}
	s.active = m
	s.SetChannel(0)
	return true
}

// AddActiveToReduction adds the active measurement to the reduction list.
func (s *Session) AddActiveToReduction() bool {
	if s.active == nil {
		return false
	}
	return s.lists.AddToReduction(s.active)
}

// AddActiveToDirectBeam adds the active measurement to the direct-beam list.
func (s *Session) AddActiveToDirectBeam() bool {
	if s.active == nil {
		return false
	}
	return s.lists.AddToDirectBeam(s.active)
}

// RemoveActiveFromDirectBeam removes the active measurement from the
// direct-beam list, returning its former index or NotInList.
func (s *Session) RemoveActiveFromDirectBeam() int {
	if s.active == nil {
		return NotInList
	}
	return s.lists.RemoveFromDirectBeam(s.active)
}

// ClearDirectBeamList removes all direct-beam list entries.
func (s *Session) ClearDirectBeamList() {
	s.lists.ClearDirectBeam()
}

// UpdateConfiguration merges cfg into the chosen target: the active channel
// only, the given measurement, or the whole active measurement.
func (s *Session) UpdateConfiguration(cfg *Configuration, activeOnly bool, m *Measurement) {
	switch {
	case activeOnly && s.activeChannel != nil:
		s.activeChannel.Configuration = cfg.Copy()
	case m != nil:
		m.UpdateConfiguration(cfg)
	case s.active != nil:
		s.active.UpdateConfiguration(cfg)
	}
}

// LoadOptions modify a Load call.
type LoadOptions struct {
	// Force replaces any cached measurement for the path by reloading from
	// file; its positions in the reduction and direct-beam lists are kept.
	Force bool
	// Progress receives [0,100] milestones for the whole operation.
	Progress *progress.Reporter
}

// Load materializes the measurement for a (possibly '+'-joined) file path,
// serving it from the cache when already loaded. A freshly loaded
// measurement is activated, direct-beam-matched when requested, reduced,
// and cached. Returns true when the measurement came from the cache.
func (s *Session) Load(path string, cfg *Configuration, opts LoadOptions) (bool, error) {
	start := time.Now()
	path = CanonicalPath(path)
	prog := opts.Progress

	prog.Report(10, "Loading data...")

	var m *Measurement
	fromCache := false
	reductionIdx, directBeamIdx := NotInList, NotInList

	if cached := s.cache.Find(path); cached != nil {
		if opts.Force {
			// Remember the list slots so the fresh measurement can take over.
			reductionIdx = s.lists.FindInReduction(cached)
			directBeamIdx = s.lists.FindInDirectBeam(cached)
			s.cache.Remove(cached)
		} else {
			m = cached
			fromCache = true
			if s.metrics != nil {
				s.metrics.CacheHit()
			}
		}
	}

	if m == nil {
		if s.metrics != nil {
			s.metrics.CacheMiss()
		}
		// The loader decides the normalization for fresh data.
		cfg.Normalization = RunID{}
		sub := prog.SubTask(70)
		loaded, err := s.loader.Load(path, cfg, sub)
		if err != nil {
			s.log.Error("loading failed", err, logging.String("path", path))
			return false, apperrors.WrapError(err, "load %s", path)
		}
		m = loaded
	}

	prog.Report(80, "Calculating...")

	s.active = m
	dir, name := SplitPath(path)
	s.currentDirectory = dir
	s.currentFileName = name
	s.SetChannel(0)

	if !fromCache {
		s.log.Info("direct beam from loader", logging.String("normalization", cfg.Normalization.String()))
		if cfg.Normalization.IsZero() && cfg.MatchDirectBeam {
			s.FindBestDirectBeam()
		}

		// Replace reduction and normalization entries as needed.
		if reductionIdx != NotInList {
			s.lists.ReplaceInReduction(reductionIdx, m)
		}
		if directBeamIdx != NotInList {
			s.lists.ReplaceInDirectBeam(directBeamIdx, m)
		}

		// A failed reflectivity must not abort the load; the measurement is
		// still cached and activated.
		if err := s.CalculateReflectivity(ReflectivityOptions{}); err != nil {
			s.log.Error("reflectivity calculation failed", err, logging.String("file", name))
		}

		evicted := s.cache.Insert(m)
		if s.metrics != nil {
			s.metrics.CacheEvictions(evicted)
			s.metrics.SetCacheSize(s.cache.Size())
		}
	}

	prog.Report(100, "")
	s.log.Info("load finished",
		logging.String("file", name),
		logging.String("duration", format.FormatExecutionDuration(time.Since(start))),
		logging.Bool("from_cache", fromCache))
	return fromCache, nil
}

// FindBestDirectBeam matches the active channel against the direct-beam
// list and, on success, records the winning run identifier as the active
// measurement's normalization. Returns true when the normalization was
// updated.
func (s *Session) FindBestDirectBeam() bool {
	if s.active == nil || s.activeChannel == nil {
		return false
	}
	id, ok := s.matcher.Resolve(s.activeChannel, s.lists.directBeam)
	if !ok {
		return false
	}
	return s.active.SetNormalization(id)
}

// FindDirectBeam resolves the configured normalization identifier of the
// target to the matching direct-beam channel. Returns nil, with a logged
// error, when no normalization is configured or the identifier does not
// resolve; a multi-channel direct beam deterministically yields its first
// channel with a warning.
func (s *Session) FindDirectBeam(target BeamTarget) *SubDataset {
	channel := target.channel()
	if channel == nil {
		s.log.Error("no data available to resolve a direct beam for", nil)
		return nil
	}
	if channel.Configuration == nil || channel.Configuration.Normalization.IsZero() {
		return nil
	}
	wanted := channel.Configuration.Normalization

	var direct *SubDataset
	for _, item := range s.lists.directBeam {
		if !item.ID().Equal(wanted) {
			continue
		}
		if item.NumChannels() > 1 {
			s.log.Warn("more than one cross-section for the direct beam, using the first one",
				logging.String("direct_beam", wanted.String()))
		}
		if first := item.FirstChannel(); first != nil {
			direct = first
		}
	}
	if direct == nil {
		s.log.Error("the specified direct beam is not available: skipping", apperrors.NewNotFoundError("direct beam", wanted.String()))
	}
	return direct
}

// ReflectivityOptions modify a CalculateReflectivity call. The zero value
// computes the specular reflectivity of every channel of the active
// measurement with each channel's own configuration.
type ReflectivityOptions struct {
	// Configuration overrides the per-channel configuration when non-nil.
	Configuration *Configuration
	// ActiveOnly restricts the computation to the active channel.
	ActiveOnly bool
	// Measurement selects a target other than the active measurement.
	Measurement *Measurement
	// OffSpecular computes the off-specular map instead of the specular
	// reflectivity.
	OffSpecular bool
}

// CalculateReflectivity resolves the direct beam for the target measurement
// and computes the specular reflectivity (or the off-specular map) of its
// channels.
func (s *Session) CalculateReflectivity(opts ReflectivityOptions) error {
	m := opts.Measurement
	if m == nil {
		m = s.active
	}
	if m == nil {
		return apperrors.NewNotFoundError("measurement", "active selection is empty")
	}

	directBeam := s.FindDirectBeam(MeasurementTarget(m))

	if opts.OffSpecular {
		return s.calculateOffSpecular(m, directBeam)
	}
	if opts.ActiveOnly {
		if s.activeChannel == nil {
			return apperrors.NewNotFoundError("channel", "active selection is empty")
		}
		return s.reflectivityForChannel(s.activeChannel, directBeam, opts.Configuration)
	}
	for _, label := range m.Channels() {
		if err := s.reflectivityForChannel(m.Channel(label), directBeam, opts.Configuration); err != nil {
			return err
		}
	}
	return nil
}

// reflectivityForChannel invokes the reflectivity calculator for one channel
// and stores the result.
func (s *Session) reflectivityForChannel(sub *SubDataset, directBeam *SubDataset, cfg *Configuration) error {
	if s.reflectivity == nil {
		return apperrors.NewConfigError("no reflectivity calculator configured")
	}
	if cfg == nil {
		cfg = sub.Configuration
	}
	curve, err := s.reflectivity.Reflectivity(sub, directBeam, cfg)
	if err != nil {
		if s.metrics != nil {
			s.metrics.ReductionFailed()
		}
		return apperrors.NewCalculationError(err)
	}
	sub.Reflectivity = curve
	if s.metrics != nil {
		s.metrics.ReductionSucceeded()
	}
	return nil
}

// calculateOffSpecular computes the off-specular map of every channel.
func (s *Session) calculateOffSpecular(m *Measurement, directBeam *SubDataset) error {
	if s.offSpecular == nil {
		return apperrors.NewConfigError("no off-specular calculator configured")
	}
	for _, label := range m.Channels() {
		sub := m.Channel(label)
		offspec, err := s.offSpecular.OffSpecular(sub, directBeam)
		if err != nil {
			if s.metrics != nil {
				s.metrics.ReductionFailed()
			}
			return apperrors.NewCalculationError(err)
		}
		sub.OffSpecular = offspec
		if s.metrics != nil {
			s.metrics.ReductionSucceeded()
		}
	}
	return nil
}

// CalculateGisans computes the GISANS maps for one measurement (the active
// one when m is nil). A missing direct beam is a hard failure: GISANS
// cannot be normalized without one.
func (s *Session) CalculateGisans(m *Measurement, prog *progress.Reporter) error {
	start := time.Now()
	if m == nil {
		m = s.active
	}
	if m == nil {
		return apperrors.NewNotFoundError("measurement", "active selection is empty")
	}
	if s.gisans == nil {
		return apperrors.NewConfigError("no GISANS calculator configured")
	}

	directBeam := s.FindDirectBeam(MeasurementTarget(m))
	if directBeam == nil {
		return apperrors.NewNotFoundError("direct beam", m.ID().String())
	}

	for _, label := range m.Channels() {
		sub := m.Channel(label)
		gisansMap, err := s.gisans.Gisans(sub, directBeam, prog)
		if err != nil {
			if s.metrics != nil {
				s.metrics.ReductionFailed()
			}
			return apperrors.NewCalculationError(err)
		}
		sub.Gisans = gisansMap
		if s.metrics != nil {
			s.metrics.ReductionSucceeded()
		}
	}
	s.log.Info("calculate GISANS",
		logging.String("run", m.ID().String()),
		logging.String("duration", format.FormatExecutionDuration(time.Since(start))))
	return nil
}

// ReduceGisans recomputes the GISANS maps for every measurement in the
// reduction list. A per-measurement failure is logged with the offending
// run and does not stop the batch; progress is reported proportionally.
func (s *Session) ReduceGisans(prog *progress.Reporter) {
	prog.Report(1, "Reducing GISANS...")
	total := len(s.lists.reduction)
	for i, m := range s.lists.reduction {
		if err := s.CalculateGisans(m, nil); err != nil {
			s.log.Error("could not compute GISANS", err, logging.String("run", m.ID().String()))
		}
		prog.Report(100.0/float64(total)*float64(i+1), "")
	}
	prog.Report(100, "")
}

// ReduceOffspec recomputes the off-specular maps for every measurement in
// the reduction list, with the same partial-success policy as ReduceGisans.
func (s *Session) ReduceOffspec(prog *progress.Reporter) {
	prog.Report(1, "Reducing off-specular...")
	total := len(s.lists.reduction)
	for i, m := range s.lists.reduction {
		if err := s.CalculateReflectivity(ReflectivityOptions{Measurement: m, OffSpecular: true}); err != nil {
			s.log.Error("could not compute off-specular reflectivity", err, logging.String("run", m.ID().String()))
		}
		prog.Report(100.0/float64(total)*float64(i+1), "")
	}
	prog.Report(100, "")
}

// IsOffspecAvailable reports whether every reduction list measurement has
// off-specular maps for every channel.
func (s *Session) IsOffspecAvailable() bool {
	for _, m := range s.lists.reduction {
		if !m.IsOffspecAvailable() {
			return false
		}
	}
	return true
}

// IsGisansAvailable reports whether GISANS maps are available, for the
// active measurement only or for the whole reduction list.
func (s *Session) IsGisansAvailable(activeOnly bool) bool {
	if activeOnly {
		return s.active != nil && s.active.IsGisansAvailable()
	}
	for _, m := range s.lists.reduction {
		if !m.IsGisansAvailable() {
			return false
		}
	}
	return true
}

// EventFiles returns the sorted base names of event files ('*event.nxs' or
// '*.nxs.h5') in the current directory.
func (s *Session) EventFiles() []string {
	patterns := []string{"*event.nxs", "*.nxs.h5"}
	var names []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(filepath.Join(s.currentDirectory, pattern))
		if err != nil {
			continue
		}
		for _, match := range matches {
			names = append(names, filepath.Base(match))
		}
	}
	sort.Strings(names)
	return names
}

// LoadReducedFile loads every run referenced by a previously written
// reduced file: direct-beam runs into the direct-beam list, data runs into
// the reduction list. Entries whose files are missing are logged and
// skipped; partial success is the norm. Progress counts loaded entries.
func (s *Session) LoadReducedFile(path string, cfg *Configuration, prog *progress.Reporter) error {
	if s.reducedFiles == nil {
		return apperrors.NewConfigError("no reduced-file reader configured")
	}
	start := time.Now()
	directBeams, dataRuns, err := s.reducedFiles.ReadReducedFile(path, cfg)
	if err != nil {
		return apperrors.WrapError(err, "read reduced file %s", path)
	}
	s.log.Info("reduced file loaded",
		logging.String("file", filepath.Base(path)),
		logging.String("duration", format.FormatExecutionDuration(time.Since(start))))

	total := len(directBeams) + len(dataRuns)
	if total > 0 {
		prog.SetValue(1, total, "Loaded "+filepath.Base(path))
	}
	loaded := 0

	for _, entry := range directBeams {
		s.loadReducedEntry(entry, cfg, false)
		loaded++
		prog.SetValue(loaded, total, filepath.Base(entry.Path)+" loaded")
	}
	for _, entry := range dataRuns {
		s.loadReducedEntry(entry, cfg, true)
		loaded++
		prog.SetValue(loaded, total, filepath.Base(entry.Path)+" loaded")
	}

	prog.SetValue(total, total, "Done")
	s.log.Info("reduced file batch done",
		logging.String("duration", format.FormatExecutionDuration(time.Since(start))))
	return nil
}

// loadReducedEntry loads one reduced-file entry and files it into the
// appropriate list. Data runs additionally recompute the reflectivity when
// the measurement came from the cache with a stale configuration.
func (s *Session) loadReducedEntry(entry ReducedEntry, cfg *Configuration, isDataRun bool) {
	if !PathExists(entry.Path) {
		s.log.Error("file does not exist", apperrors.NewNotFoundError("file", entry.Path),
			logging.String("run", entry.ID))
		return
	}
	entryCfg := entry.Configuration
	if entryCfg == nil {
		entryCfg = cfg.Copy()
	}
	fromCache, err := s.Load(entry.Path, entryCfg, LoadOptions{})
	if err != nil {
		s.log.Error("could not load run", err, logging.String("run", entry.ID))
		return
	}
	if fromCache {
		// The cached measurement keeps its own normalization; apply the
		// reduced file's other parameters on top.
		cfg.Normalization = RunID{}
		s.active.UpdateConfiguration(entryCfg)
		if isDataRun {
			if err := s.CalculateReflectivity(ReflectivityOptions{}); err != nil {
				s.log.Error("reflectivity calculation failed", err, logging.String("run", entry.ID))
			}
		}
	}
	if isDataRun {
		s.AddActiveToReduction()
	} else {
		s.AddActiveToDirectBeam()
	}
}

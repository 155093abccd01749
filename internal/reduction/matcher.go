package reduction

import (
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
)

// DirectBeamMatcher finds the best normalization reference for a measurement
// among the direct-beam list: the compatible candidate whose run number is
// nearest to the measurement's own.
type DirectBeamMatcher struct {
	log logging.Logger
}

// NewDirectBeamMatcher creates a matcher logging through log.
func NewDirectBeamMatcher(log logging.Logger) *DirectBeamMatcher {
	return &DirectBeamMatcher{log: log}
}

// Resolve runs the two-pass nearest-run matching for the active channel over
// the candidate measurements:
//
//  1. Strict pass: candidates whose first channel satisfies the instrument
//     match predicate with full slit comparison.
//  2. Relaxed pass, only when the strict pass finds nothing: the same with
//     slit geometry ignored.
//
// Within a pass the candidate with the smallest run-number distance to the
// active channel's (first) run wins; ties keep the first found. The second
// return value is false when both passes fail.
func (dm *DirectBeamMatcher) Resolve(active *SubDataset, candidates []*Measurement) (RunID, bool) {
	if active == nil || active.Configuration == nil || active.Configuration.Instrument == nil {
		return RunID{}, false
	}

	// Composite channels match on their first run number.
	activeRun := active.Runs.First()

	if id, ok := dm.matchPass(active, activeRun, candidates, false); ok {
		return id, true
	}
	// Nothing matched with full geometry; retry ignoring slits.
	id, ok := dm.matchPass(active, activeRun, candidates, true)
	if ok {
		dm.log.Info("direct beam matched with slits ignored",
			logging.String("run", activeRun.String()),
			logging.String("direct_beam", id.String()))
	}
	return id, ok
}

// matchPass scans the candidates once with the given slit policy and returns
// the nearest match.
func (dm *DirectBeamMatcher) matchPass(active *SubDataset, activeRun RunID, candidates []*Measurement, skipSlits bool) (RunID, bool) {
	instrument := active.Configuration.Instrument

	var closest RunID
	found := false
	for _, candidate := range candidates {
		channel := candidate.FirstChannel()
		if channel == nil {
			continue
		}
		if !instrument.DirectBeamMatch(active, channel, skipSlits) {
			continue
		}
		id := candidate.ID()
		if !found {
			closest = id
			found = true
			continue
		}
		if nearer(id, closest, activeRun) {
			closest = id
		}
	}
	return closest, found
}

// nearer reports whether candidate is strictly closer to active than current.
// A numeric distance always beats an unmeasurable one; between two
// unmeasurable distances the incumbent wins, keeping the first found.
func nearer(candidate, current, active RunID) bool {
	dCandidate, okCandidate := candidate.Distance(active)
	dCurrent, okCurrent := current.Distance(active)
	switch {
	case okCandidate && okCurrent:
		return dCandidate < dCurrent
	case okCandidate:
		return true
	default:
		return false
	}
}

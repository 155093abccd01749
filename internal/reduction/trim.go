package reduction

import (
	"gonum.org/v1/gonum/floats"
)

// trimThresholdFraction is the fraction of the direct beam's maximum
// intensity below which curve edges are cut.
const trimThresholdFraction = 0.05

// TrimBounds computes the edge-trim point counts for the active channel
// from its direct beam: the first and last index where the direct beam's
// intensity reaches 5% of its own maximum. The counts are written into the
// active measurement's configuration and returned. The third return value
// is false when no direct beam is resolvable or the active channel has no
// computed curve.
func (s *Session) TrimBounds() (cutFirst, cutLast int, ok bool) {
	if s.activeChannel == nil || s.activeChannel.Reflectivity == nil ||
		s.activeChannel.Configuration == nil || s.activeChannel.Configuration.Normalization.IsZero() {
		return 0, 0, false
	}

	directBeam := s.FindDirectBeam(SubDatasetTarget(s.activeChannel))
	if directBeam == nil || directBeam.Reflectivity.Len() == 0 {
		return 0, 0, false
	}

	r := directBeam.Reflectivity.R
	threshold := floats.Max(r) * trimThresholdFraction

	first, last := -1, -1
	for i, v := range r {
		if v >= threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return 0, 0, false
	}

	cutFirst = first
	cutLast = len(r) - last - 1
	s.active.SetCutPoints(cutFirst, cutLast)
	return cutFirst, cutLast, true
}

package reduction

import (
	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
)

// NotInList is the sentinel index returned by lookups that find nothing.
const NotInList = -1

// Lists maintains the two run collections of a reduction session: the
// angle-ordered reduction list and the unordered direct-beam list.
//
// Invariants: the reduction list is sorted by non-decreasing scattering
// angle at all times, and every member exposes the same ordered set of
// channel labels, fixed when the first member is added.
type Lists struct {
	log logging.Logger

	reduction  []*Measurement
	directBeam []*Measurement
	// states is the fixed, ordered channel-label set of the reduction list.
	// Order matters: the asymmetry fallback uses the first and last entries.
	states []string
}

// NewLists creates an empty lists manager.
func NewLists(log logging.Logger) *Lists {
	return &Lists{log: log}
}

// States returns the fixed channel-label set of the reduction list, in the
// order established by its first member. Empty while the list is empty.
func (l *Lists) States() []string {
	out := make([]string, len(l.states))
	copy(out, l.states)
	return out
}

// Reduction returns the reduction list in angle order.
func (l *Lists) Reduction() []*Measurement {
	out := make([]*Measurement, len(l.reduction))
	copy(out, l.reduction)
	return out
}

// DirectBeam returns the direct-beam list.
func (l *Lists) DirectBeam() []*Measurement {
	out := make([]*Measurement, len(l.directBeam))
	copy(out, l.directBeam)
	return out
}

// ReductionSize returns the number of measurements in the reduction list.
func (l *Lists) ReductionSize() int { return len(l.reduction) }

// IsCompatible reports whether a measurement can join the reduction list:
// always true for an empty list, otherwise the measurement's channel-label
// set must equal the fixed states set (same cardinality and membership).
func (l *Lists) IsCompatible(m *Measurement) bool {
	if len(l.reduction) == 0 {
		return true
	}
	channels := m.Channels()
	if len(channels) != len(l.states) {
		l.log.Error("cross-section sets differ", apperrors.CompatibilityError{Have: channels, Want: l.states},
			logging.String("run", m.ID().String()))
		return false
	}
	for _, label := range channels {
		if !containsLabel(l.states, label) {
			l.log.Error("cross-section not in reduction states", apperrors.CompatibilityError{Have: channels, Want: l.states},
				logging.String("cross_section", label))
			return false
		}
	}
	return true
}

func containsLabel(labels []string, label string) bool {
	for _, candidate := range labels {
		if candidate == label {
			return true
		}
	}
	return false
}

// AddToReduction inserts a measurement at the position that keeps the list
// sorted ascending by scattering angle. The add is rejected (logged, false)
// when the measurement is already present or incompatible. Adding the first
// member fixes the list's channel-label set.
func (l *Lists) AddToReduction(m *Measurement) bool {
	if l.FindInReduction(m) != NotInList {
		return false
	}
	if !l.IsCompatible(m) {
		return false
	}
	if len(l.reduction) == 0 {
		l.states = m.Channels()
	}
	theta := m.TwoTheta()
	for i, existing := range l.reduction {
		if theta <= existing.TwoTheta() {
			l.reduction = append(l.reduction[:i], append([]*Measurement{m}, l.reduction[i:]...)...)
			return true
		}
	}
	l.reduction = append(l.reduction, m)
	return true
}

// AddToDirectBeam appends a measurement to the direct-beam list. Idempotent:
// a measurement already present (by identity) is not added twice.
func (l *Lists) AddToDirectBeam(m *Measurement) bool {
	if l.FindInDirectBeam(m) != NotInList {
		return false
	}
	l.directBeam = append(l.directBeam, m)
	return true
}

// RemoveFromDirectBeam removes a measurement from the direct-beam list and
// returns its former index, or NotInList when absent.
func (l *Lists) RemoveFromDirectBeam(m *Measurement) int {
	for i, entry := range l.directBeam {
		if entry == m {
			l.directBeam = append(l.directBeam[:i], l.directBeam[i+1:]...)
			return i
		}
	}
	return NotInList
}

// FindInReduction returns the index of a measurement in the reduction list
// (by identity), or NotInList.
func (l *Lists) FindInReduction(m *Measurement) int {
	for i, entry := range l.reduction {
		if entry == m {
			return i
		}
	}
	return NotInList
}

// FindInDirectBeam returns the index of a measurement in the direct-beam
// list (by identity), or NotInList.
func (l *Lists) FindInDirectBeam(m *Measurement) int {
	for i, entry := range l.directBeam {
		if entry == m {
			return i
		}
	}
	return NotInList
}

// ReductionAt returns the reduction list member at index, or nil.
func (l *Lists) ReductionAt(index int) *Measurement {
	if index < 0 || index >= len(l.reduction) {
		return nil
	}
	return l.reduction[index]
}

// DirectBeamAt returns the direct-beam list member at index, or nil.
func (l *Lists) DirectBeamAt(index int) *Measurement {
	if index < 0 || index >= len(l.directBeam) {
		return nil
	}
	return l.directBeam[index]
}

// ReplaceInReduction substitutes the measurement at index, preserving its
// position. Used on forced reload so a fresh measurement takes over the
// slot of the stale one it replaces.
func (l *Lists) ReplaceInReduction(index int, m *Measurement) {
	if index >= 0 && index < len(l.reduction) {
		l.reduction[index] = m
	}
}

// ReplaceInDirectBeam substitutes the measurement at index, preserving its
// position.
func (l *Lists) ReplaceInDirectBeam(index int, m *Measurement) {
	if index >= 0 && index < len(l.directBeam) {
		l.directBeam[index] = m
	}
}

// ClearDirectBeam removes all direct-beam list entries.
func (l *Lists) ClearDirectBeam() {
	l.directBeam = nil
}

package reduction

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func listMeasurement(run int, theta float64, labels ...string) *Measurement {
	if len(labels) == 0 {
		labels = []string{"Off_Off", "On_On"}
	}
	return newTestMeasurement(
		fmt.Sprintf("/data/REF_M_%d.dat", run),
		NewRunSet(NumericRunID(int64(run))),
		theta,
		nil,
		labels...,
	)
}

func TestLists_AddToReduction_AngleOrdered(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	l.AddToReduction(listMeasurement(3, 1.6))
	l.AddToReduction(listMeasurement(1, 0.4))
	l.AddToReduction(listMeasurement(2, 0.8))

	got := l.Reduction()
	want := []float64{0.4, 0.8, 1.6}
	for i, m := range got {
		if m.TwoTheta() != want[i] {
			t.Errorf("reduction[%d].TwoTheta() = %g, want %g", i, m.TwoTheta(), want[i])
		}
	}
}

func TestLists_AddToReduction_DuplicateRejected(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	m := listMeasurement(1, 0.4)
	if !l.AddToReduction(m) {
		t.Fatal("first add rejected")
	}
	if l.AddToReduction(m) {
		t.Error("duplicate add accepted")
	}
	if l.ReductionSize() != 1 {
		t.Errorf("ReductionSize() = %d, want 1", l.ReductionSize())
	}
}

func TestLists_AddToReduction_IncompatibleRejected(t *testing.T) {
	t.Parallel()

	log := &recordingLogger{}
	l := NewLists(log)
	l.AddToReduction(listMeasurement(1, 0.4, "Off_Off", "On_On"))

	tests := []struct {
		name string
		m    *Measurement
	}{
		{"fewer channels", listMeasurement(2, 0.8, "Off_Off")},
		{"different labels", listMeasurement(3, 0.8, "Off_Off", "On_Off")},
	}
	for _, tt := range tests {
		before := l.Reduction()
		if l.AddToReduction(tt.m) {
			t.Errorf("%s: incompatible measurement accepted", tt.name)
		}
		after := l.Reduction()
		if len(after) != len(before) {
			t.Errorf("%s: rejected add changed the list", tt.name)
		}
	}
	// one error per rejected add, carrying the compatibility detail
	if got := log.errorCount(); got != len(tests) {
		t.Errorf("error log count = %d, want %d", got, len(tests))
	}
}

func TestLists_StatesFixedByFirstMember(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	if len(l.States()) != 0 {
		t.Error("States() of empty list is not empty")
	}
	l.AddToReduction(listMeasurement(1, 0.4, "On_On", "Off_Off"))
	states := l.States()
	if len(states) != 2 || states[0] != "On_On" || states[1] != "Off_Off" {
		t.Errorf("States() = %v, want the first member's label order", states)
	}

	// same membership, different order: still compatible
	if !l.AddToReduction(listMeasurement(2, 0.8, "Off_Off", "On_On")) {
		t.Error("label order must not affect compatibility")
	}
	// states keep the original order
	if got := l.States(); got[0] != "On_On" {
		t.Errorf("States() changed after second add: %v", got)
	}
}

func TestLists_DirectBeam(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	m := listMeasurement(1, 0)
	if !l.AddToDirectBeam(m) {
		t.Fatal("add rejected")
	}
	if l.AddToDirectBeam(m) {
		t.Error("duplicate direct beam accepted")
	}
	if got := l.FindInDirectBeam(m); got != 0 {
		t.Errorf("FindInDirectBeam() = %d, want 0", got)
	}
	if got := l.RemoveFromDirectBeam(m); got != 0 {
		t.Errorf("RemoveFromDirectBeam() = %d, want former index 0", got)
	}
	if got := l.RemoveFromDirectBeam(m); got != NotInList {
		t.Errorf("second RemoveFromDirectBeam() = %d, want NotInList", got)
	}

	l.AddToDirectBeam(listMeasurement(2, 0))
	l.ClearDirectBeam()
	if len(l.DirectBeam()) != 0 {
		t.Error("ClearDirectBeam() left entries behind")
	}
}

func TestLists_Replace(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	old := listMeasurement(1, 0.4)
	l.AddToReduction(old)
	l.AddToReduction(listMeasurement(2, 0.8))

	fresh := listMeasurement(1, 0.4)
	l.ReplaceInReduction(0, fresh)
	if l.ReductionAt(0) != fresh {
		t.Error("ReplaceInReduction() did not substitute the slot")
	}
	if l.FindInReduction(old) != NotInList {
		t.Error("stale measurement still present after replacement")
	}
	// out-of-range replace is a no-op
	l.ReplaceInReduction(5, old)
	if l.ReductionSize() != 2 {
		t.Errorf("ReductionSize() = %d, want 2", l.ReductionSize())
	}
}

func TestLists_At(t *testing.T) {
	t.Parallel()

	l := NewLists(&recordingLogger{})
	if l.ReductionAt(0) != nil || l.DirectBeamAt(0) != nil {
		t.Error("At() on empty lists returned an entry")
	}
	m := listMeasurement(1, 0.4)
	l.AddToReduction(m)
	if l.ReductionAt(0) != m {
		t.Error("ReductionAt(0) did not return the member")
	}
	if l.ReductionAt(-1) != nil || l.ReductionAt(1) != nil {
		t.Error("out-of-range index returned an entry")
	}
}

// TestLists_AngleOrder_PropertyBased checks that any insertion sequence
// leaves the reduction list sorted by non-decreasing scattering angle.
func TestLists_AngleOrder_PropertyBased(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("reduction list stays sorted by angle", prop.ForAll(
		func(angles []float64) bool {
			l := NewLists(&recordingLogger{})
			for i, theta := range angles {
				l.AddToReduction(listMeasurement(i, theta))
			}
			reduction := l.Reduction()
			if len(reduction) != len(angles) {
				return false
			}
			for i := 1; i < len(reduction); i++ {
				if reduction[i-1].TwoTheta() > reduction[i].TwoTheta() {
					return false
				}
			}
			return true
		},
		gen.SliceOf(gen.Float64Range(0, 5)),
	))

	properties.TestingRun(t)
}

package reduction

import (
	"testing"
)

// trimFixture builds a session whose active channel is normalized against a
// direct beam with the given intensity profile.
func trimFixture(t *testing.T, beamR []float64) *Session {
	t.Helper()
	s, _, loader := newLoadFixture()

	db := sessionMeasurement("/data/DB_100.dat", 100, 0, &stubInstrument{})
	n := len(beamR)
	q := make([]float64, n)
	dr := make([]float64, n)
	for i := range q {
		q[i] = 0.01 + 0.002*float64(i)
		dr[i] = 0.1
	}
	for _, label := range db.Channels() {
		db.Channel(label).Raw = &Curve{Q: q, R: beamR, DR: dr}
	}
	loader.measurements["/data/DB_100.dat"] = db
	addStub(loader, "/data/REF_M_103.dat", 103, 0.4)

	dbCfg := NewConfiguration(&stubInstrument{})
	dbCfg.MatchDirectBeam = false
	if _, err := s.Load("/data/DB_100.dat", dbCfg, LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	s.AddActiveToDirectBeam()

	cfg := NewConfiguration(&stubInstrument{})
	cfg.MatchDirectBeam = true
	if _, err := s.Load("/data/REF_M_103.dat", cfg, LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	return s
}

func TestTrimBounds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		beam         []float64
		wantCutFirst int
		wantCutLast  int
	}{
		{
			// threshold 0.5: every point is at or above it
			name:         "flat beam keeps everything",
			beam:         []float64{1, 5, 10, 9, 1},
			wantCutFirst: 0,
			wantCutLast:  0,
		},
		{
			// threshold 0.5: only the central points survive
			name:         "peaked beam trims the edges",
			beam:         []float64{0.01, 0.3, 10, 8, 0.02},
			wantCutFirst: 2,
			wantCutLast:  1,
		},
		{
			// only the central peak survives on both sides
			name:         "isolated peak",
			beam:         []float64{0.2, 0.3, 10, 0.3, 0.2},
			wantCutFirst: 2,
			wantCutLast:  2,
		},
		{
			name:         "tail only",
			beam:         []float64{10, 8, 6, 0.1, 0.1},
			wantCutFirst: 0,
			wantCutLast:  2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := trimFixture(t, tt.beam)
			first, last, ok := s.TrimBounds()
			if !ok {
				t.Fatal("TrimBounds() not ok")
			}
			if first != tt.wantCutFirst || last != tt.wantCutLast {
				t.Errorf("TrimBounds() = (%d, %d), want (%d, %d)",
					first, last, tt.wantCutFirst, tt.wantCutLast)
			}
			// the counts are recorded on every channel
			for _, label := range s.ActiveMeasurement().Channels() {
				cfg := s.ActiveMeasurement().Channel(label).Configuration
				if cfg.CutFirstNPoints != tt.wantCutFirst || cfg.CutLastNPoints != tt.wantCutLast {
					t.Errorf("channel %s cut points = (%d, %d)", label, cfg.CutFirstNPoints, cfg.CutLastNPoints)
				}
			}
		})
	}
}

func TestTrimBounds_RequiresDirectBeam(t *testing.T) {
	t.Parallel()

	s, _, loader := newLoadFixture()
	addStub(loader, "/data/REF_M_103.dat", 103, 0.4)
	if _, err := s.Load("/data/REF_M_103.dat", NewConfiguration(&stubInstrument{}), LoadOptions{}); err != nil {
		t.Fatal(err)
	}
	// no direct beam list, no normalization
	if _, _, ok := s.TrimBounds(); ok {
		t.Error("TrimBounds() ok without a direct beam")
	}
}

func TestTrimBounds_NoActiveChannel(t *testing.T) {
	t.Parallel()

	s, _, _ := newLoadFixture()
	if _, _, ok := s.TrimBounds(); ok {
		t.Error("TrimBounds() ok without an active channel")
	}
}

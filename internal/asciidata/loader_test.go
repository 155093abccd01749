package asciidata

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
)

const sampleFile = `# run: 38198
# two_theta: 0.8
# wavelength: 4.25
# slit1: 0.4
# slit2: 0.3
# slit3: 0.2
# channel: Off_Off cross_section: ++
0.010 100.0 1.0
0.012 90.0 0.9
0.014 80.0 0.8
# channel: On_On cross_section: --
0.010 50.0 0.5
0.012 45.0 0.45
0.014 40.0 0.4
`

func writeSample(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing sample file: %v", err)
	}
	return path
}

func testLoader() *Loader {
	return NewLoader(logging.NewLogger(io.Discard, "test"), NewInstrument("TEST"))
}

func TestLoader_SingleFile(t *testing.T) {
	t.Parallel()

	path := writeSample(t, t.TempDir(), "REF_M_38198.dat", sampleFile)
	m, err := testLoader().Load(path, nil, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got := m.NumChannels(); got != 2 {
		t.Fatalf("NumChannels() = %d, want 2", got)
	}
	want := []string{"Off_Off", "On_On"}
	for i, label := range m.Channels() {
		if label != want[i] {
			t.Errorf("Channels()[%d] = %q, want %q", i, label, want[i])
		}
	}

	first := m.FirstChannel()
	if first.CrossSectionLabel != "++" {
		t.Errorf("CrossSectionLabel = %q, want %q", first.CrossSectionLabel, "++")
	}
	if first.TwoTheta != 0.8 {
		t.Errorf("TwoTheta = %g, want 0.8", first.TwoTheta)
	}
	if first.Raw.Len() != 3 {
		t.Errorf("Raw.Len() = %d, want 3", first.Raw.Len())
	}
	if first.Configuration.Wavelength != 4.25 {
		t.Errorf("Wavelength = %g, want 4.25", first.Configuration.Wavelength)
	}
	if first.Configuration.SlitWidths != [3]float64{0.4, 0.3, 0.2} {
		t.Errorf("SlitWidths = %v", first.Configuration.SlitWidths)
	}
	if got, ok := m.ID().Number(); !ok || got != 38198 {
		t.Errorf("ID() = %v, want run 38198", m.ID())
	}
}

func TestLoader_MergedPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := writeSample(t, dir, "REF_M_38198.dat", sampleFile)
	second := strings.ReplaceAll(sampleFile, "0.010", "0.016")
	second = strings.ReplaceAll(second, "0.012", "0.018")
	second = strings.ReplaceAll(second, "0.014", "0.020")
	b := writeSample(t, dir, "REF_M_38199.dat", second)

	// Components given out of order; the canonical path sorts them.
	m, err := testLoader().Load(b+"+"+a, nil, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if m.Path != a+"+"+b {
		t.Errorf("Path = %q, want canonical %q", m.Path, a+"+"+b)
	}
	raw := m.FirstChannel().Raw
	if raw.Len() != 6 {
		t.Fatalf("merged Raw.Len() = %d, want 6", raw.Len())
	}
	for i := 1; i < raw.Len(); i++ {
		if raw.Q[i] < raw.Q[i-1] {
			t.Fatalf("merged curve not sorted by q: %v", raw.Q)
		}
	}
	if got := m.Runs().String(); got != "38198+38199" {
		t.Errorf("Runs() = %q, want %q", got, "38198+38199")
	}
}

func TestLoader_MissingFile(t *testing.T) {
	t.Parallel()

	_, err := testLoader().Load(filepath.Join(t.TempDir(), "nope.dat"), nil, nil)
	if err == nil {
		t.Fatal("Load() error = nil, want LoadError")
	}
	var loadErr apperrors.LoadError
	if !errors.As(err, &loadErr) {
		t.Fatalf("Load() error = %T, want LoadError", err)
	}
}

func TestLoader_MalformedRow(t *testing.T) {
	t.Parallel()

	content := "# channel: Off_Off cross_section: ++\n0.010 not-a-number 1.0\n"
	path := writeSample(t, t.TempDir(), "bad.dat", content)
	if _, err := testLoader().Load(path, nil, nil); err == nil {
		t.Fatal("Load() error = nil, want parse error")
	}
}

func TestLoader_NoChannelBlocks(t *testing.T) {
	t.Parallel()

	path := writeSample(t, t.TempDir(), "empty.dat", "# two_theta: 0.8\n")
	if _, err := testLoader().Load(path, nil, nil); err == nil {
		t.Fatal("Load() error = nil, want error for missing channel blocks")
	}
}

package asciidata

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
)

// Reduced-file section markers.
const (
	directBeamSection = "[direct beam runs]"
	dataRunSection    = "[data runs]"
)

// ReducedFileReader parses a previously written reduced file back into its
// run tables. The file lists one run per comment line, grouped under
// '# [Direct Beam Runs]' and '# [Data Runs]' sections:
//
//	# [Direct Beam Runs]
//	#   id    file
//	#   1234  direct_1234.dat
//	# [Data Runs]
//	#   id    norm  cut_first  cut_last  file
//	#   1240  1234  2          3         REF_M_1240.dat
//
// Relative file references are resolved against the reduced file's own
// directory.
type ReducedFileReader struct {
	instrument *Instrument
}

// NewReducedFileReader creates a reader using the given instrument for the
// reconstructed configurations.
func NewReducedFileReader(instrument *Instrument) *ReducedFileReader {
	return &ReducedFileReader{instrument: instrument}
}

// ReadReducedFile parses path into its direct-beam and data run tables.
func (r *ReducedFileReader) ReadReducedFile(path string, cfg *reduction.Configuration) (directBeams, dataRuns []reduction.ReducedEntry, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, apperrors.NewLoadError(path, err)
	}
	defer f.Close()

	baseDir := filepath.Dir(path)
	section := ""
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(line[1:])
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "[") {
			section = strings.ToLower(line)
			continue
		}

		switch section {
		case directBeamSection:
			entry, ok, err := parseDirectBeamRow(line, baseDir, cfg, r.instrument)
			if err != nil {
				return nil, nil, apperrors.NewLoadError(path, fmt.Errorf("line %d: %w", lineNo, err))
			}
			if ok {
				directBeams = append(directBeams, entry)
			}
		case dataRunSection:
			entry, ok, err := parseDataRow(line, baseDir, cfg, r.instrument)
			if err != nil {
				return nil, nil, apperrors.NewLoadError(path, fmt.Errorf("line %d: %w", lineNo, err))
			}
			if ok {
				dataRuns = append(dataRuns, entry)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, apperrors.NewLoadError(path, err)
	}
	return directBeams, dataRuns, nil
}

// parseDirectBeamRow parses 'id file'. Returns ok=false for the column
// header row.
func parseDirectBeamRow(line, baseDir string, cfg *reduction.Configuration, instrument *Instrument) (reduction.ReducedEntry, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return reduction.ReducedEntry{}, false, fmt.Errorf("expected 'id file', got %q", line)
	}
	if !startsNumeric(fields[0]) {
		return reduction.ReducedEntry{}, false, nil
	}
	entryCfg := baseConfiguration(cfg, instrument)
	return reduction.ReducedEntry{
		ID:            fields[0],
		Path:          resolvePath(fields[len(fields)-1], baseDir),
		Configuration: entryCfg,
	}, true, nil
}

// parseDataRow parses 'id norm cut_first cut_last file'. Returns ok=false
// for the column header row.
func parseDataRow(line, baseDir string, cfg *reduction.Configuration, instrument *Instrument) (reduction.ReducedEntry, bool, error) {
	fields := strings.Fields(line)
	if len(fields) < 5 {
		return reduction.ReducedEntry{}, false, fmt.Errorf("expected 'id norm cut_first cut_last file', got %q", line)
	}
	if !startsNumeric(fields[0]) {
		return reduction.ReducedEntry{}, false, nil
	}
	cutFirst, err := strconv.Atoi(fields[2])
	if err != nil {
		return reduction.ReducedEntry{}, false, fmt.Errorf("cut_first: %w", err)
	}
	cutLast, err := strconv.Atoi(fields[3])
	if err != nil {
		return reduction.ReducedEntry{}, false, fmt.Errorf("cut_last: %w", err)
	}
	entryCfg := baseConfiguration(cfg, instrument)
	if norm := fields[1]; norm != "" && norm != "-" {
		entryCfg.Normalization = reduction.ParseRunID(norm)
	}
	entryCfg.CutFirstNPoints = cutFirst
	entryCfg.CutLastNPoints = cutLast
	return reduction.ReducedEntry{
		ID:            fields[0],
		Path:          resolvePath(fields[len(fields)-1], baseDir),
		Configuration: entryCfg,
	}, true, nil
}

func baseConfiguration(cfg *reduction.Configuration, instrument *Instrument) *reduction.Configuration {
	out := cfg.Copy()
	if out == nil {
		out = reduction.NewConfiguration(instrument)
	}
	out.Normalization = reduction.RunID{}
	return out
}

// resolvePath resolves every component of a possibly '+'-joined reference
// against baseDir.
func resolvePath(ref, baseDir string) string {
	parts := reduction.PathComponents(ref)
	for i, p := range parts {
		if !filepath.IsAbs(p) {
			parts[i] = filepath.Join(baseDir, p)
		}
	}
	return strings.Join(parts, "+")
}

func startsNumeric(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

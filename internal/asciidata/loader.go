package asciidata

import (
	"bufio"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
)

// Loader reads column-oriented ASCII data files into measurements. A
// '+'-joined path loads every component file and merges the channel blocks
// point-wise into a single measurement.
type Loader struct {
	log        logging.Logger
	instrument *Instrument
}

// NewLoader creates a Loader using the given instrument for the resulting
// configurations.
func NewLoader(log logging.Logger, instrument *Instrument) *Loader {
	return &Loader{log: log, instrument: instrument}
}

// fileHeader carries the per-file metadata parsed from '# key: value' lines.
type fileHeader struct {
	twoTheta   float64
	wavelength float64
	slits      [3]float64
}

// channelBlock is one cross-section block of a data file.
type channelBlock struct {
	label        string
	crossSection string
	curve        *reduction.Curve
}

// Load parses the file(s) addressed by path into a measurement.
//
// Parameters:
//   - path: A single file path, or several joined with '+'.
//   - cfg: The reduction parameters to seed every channel configuration with.
//   - prog: Optional progress reporter, fed per-file milestones.
//
// Returns:
//   - *reduction.Measurement: The loaded measurement.
//   - error: An apperrors.LoadError when a component is missing or malformed.
func (l *Loader) Load(path string, cfg *reduction.Configuration, prog *progress.Reporter) (*reduction.Measurement, error) {
	canonical := reduction.CanonicalPath(path)
	components := reduction.PathComponents(canonical)
	if len(components) == 0 {
		return nil, apperrors.NewLoadError(path, fmt.Errorf("empty path"))
	}

	var header fileHeader
	merged := make(map[string]*channelBlock)
	var order []string

	for i, component := range components {
		prog.SetValue(i, len(components), "Reading "+component)
		h, blocks, err := parseDataFile(component)
		if err != nil {
			return nil, apperrors.NewLoadError(component, err)
		}
		if i == 0 {
			header = h
		}
		for _, b := range blocks {
			existing, ok := merged[b.label]
			if !ok {
				merged[b.label] = b
				order = append(order, b.label)
				continue
			}
			existing.curve.Q = append(existing.curve.Q, b.curve.Q...)
			existing.curve.R = append(existing.curve.R, b.curve.R...)
			existing.curve.DR = append(existing.curve.DR, b.curve.DR...)
		}
	}
	if len(order) == 0 {
		return nil, apperrors.NewLoadError(path, fmt.Errorf("no channel blocks found"))
	}

	runs := reduction.PathRunSet(canonical)
	m := reduction.NewMeasurement(canonical)
	for _, label := range order {
		block := merged[label]
		sortCurve(block.curve)
		chCfg := channelConfiguration(cfg, l.instrument, header)
		m.AddChannel(&reduction.SubDataset{
			Label:             block.label,
			CrossSectionLabel: block.crossSection,
			Runs:              runs,
			Configuration:     chCfg,
			TwoTheta:          header.twoTheta,
			Raw:               block.curve,
		})
	}

	prog.Report(100, "")
	l.log.Debug("data file loaded",
		logging.String("path", canonical),
		logging.Int("channels", m.NumChannels()),
		logging.Float64("two_theta", header.twoTheta))
	return m, nil
}

// channelConfiguration seeds a channel configuration from the request and the
// file header.
func channelConfiguration(cfg *reduction.Configuration, instrument *Instrument, h fileHeader) *reduction.Configuration {
	out := cfg.Copy()
	if out == nil {
		out = reduction.NewConfiguration(instrument)
	}
	if out.Instrument == nil {
		out.Instrument = instrument
	}
	out.Wavelength = h.wavelength
	out.SlitWidths = h.slits
	return out
}

// sortCurve orders a curve by ascending Q, keeping R and DR aligned.
func sortCurve(c *reduction.Curve) {
	idx := make([]int, len(c.Q))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return c.Q[idx[a]] < c.Q[idx[b]] })
	q := make([]float64, len(idx))
	r := make([]float64, len(idx))
	dr := make([]float64, len(idx))
	for i, j := range idx {
		q[i], r[i], dr[i] = c.Q[j], c.R[j], c.DR[j]
	}
	c.Q, c.R, c.DR = q, r, dr
}

// parseDataFile reads one ASCII data file into its header and channel blocks.
func parseDataFile(path string) (fileHeader, []*channelBlock, error) {
	f, err := os.Open(path)
	if err != nil {
		return fileHeader{}, nil, err
	}
	defer f.Close()

	var header fileHeader
	var blocks []*channelBlock
	var current *channelBlock

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if err := parseHeaderLine(strings.TrimSpace(line[1:]), &header, &blocks, &current); err != nil {
				return fileHeader{}, nil, fmt.Errorf("line %d: %w", lineNo, err)
			}
			continue
		}
		if current == nil {
			return fileHeader{}, nil, fmt.Errorf("line %d: data row before any channel block", lineNo)
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return fileHeader{}, nil, fmt.Errorf("line %d: expected at least 2 columns, got %d", lineNo, len(fields))
		}
		vals := make([]float64, len(fields))
		for i, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return fileHeader{}, nil, fmt.Errorf("line %d: column %d: %w", lineNo, i+1, err)
			}
			vals[i] = v
		}
		current.curve.Q = append(current.curve.Q, vals[0])
		current.curve.R = append(current.curve.R, vals[1])
		if len(vals) > 2 {
			current.curve.DR = append(current.curve.DR, vals[2])
		} else {
			current.curve.DR = append(current.curve.DR, 0)
		}
	}
	if err := scanner.Err(); err != nil {
		return fileHeader{}, nil, err
	}
	return header, blocks, nil
}

// parseHeaderLine handles one '# ...' line: either a 'key: value' metadata
// pair or a 'channel: LABEL cross_section: XS' block opener. Unknown keys are
// ignored so files from newer writers still load.
func parseHeaderLine(line string, header *fileHeader, blocks *[]*channelBlock, current **channelBlock) error {
	key, value, found := strings.Cut(line, ":")
	if !found {
		return nil
	}
	key = strings.TrimSpace(strings.ToLower(key))
	value = strings.TrimSpace(value)

	if key == "channel" {
		label := value
		crossSection := ""
		if before, after, ok := strings.Cut(value, "cross_section:"); ok {
			label = strings.TrimSpace(before)
			crossSection = strings.TrimSpace(after)
		}
		if label == "" {
			return fmt.Errorf("channel block without a label")
		}
		block := &channelBlock{label: label, crossSection: crossSection, curve: &reduction.Curve{}}
		*blocks = append(*blocks, block)
		*current = block
		return nil
	}

	parseFloat := func(dst *float64) error {
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = v
		return nil
	}
	switch key {
	case "two_theta":
		return parseFloat(&header.twoTheta)
	case "wavelength":
		return parseFloat(&header.wavelength)
	case "slit1":
		return parseFloat(&header.slits[0])
	case "slit2":
		return parseFloat(&header.slits[1])
	case "slit3":
		return parseFloat(&header.slits[2])
	}
	return nil
}

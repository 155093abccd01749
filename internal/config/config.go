// Package config holds the application-level configuration: CLI flags with
// environment variable overrides, resolved with the priority
// CLI flags > environment variables > defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"strings"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
)

// EnvPrefix is prepended to every environment variable key.
const EnvPrefix = "REFL_"

// AppConfig holds the resolved application configuration.
type AppConfig struct {
	// DataDir is the directory scanned for event files.
	DataDir string
	// Output receives the merged reflectivity table; empty writes to stdout.
	Output string
	// CacheSize bounds the measurement cache; 0 selects the default.
	CacheSize int
	// QMin, QStep and QCutoff parameterize the merge grid and the
	// normalize-to-unity plateau fit. A negative QStep selects logarithmic
	// binning.
	QMin    float64
	QStep   float64
	QCutoff float64
	// NormalizeToUnity scales the lowest-angle run's plateau to 1.
	NormalizeToUnity bool
	// MatchDirectBeam requests automatic direct-beam matching on load.
	MatchDirectBeam bool
	// MetricsAddr serves Prometheus metrics when non-empty, e.g. ":9090".
	MetricsAddr string
	// Verbose enables debug logging; Quiet suppresses progress output.
	Verbose bool
	Quiet   bool
	// Asymmetry derives the spin-asymmetry channel after merging.
	Asymmetry bool
	// DirectBeams lists direct-beam files to load, comma-separated on the
	// command line.
	DirectBeams []string
	// Reduced is a previously written reduced file to batch-load.
	Reduced string
	// Positional arguments: data files to reduce, '+'-joined for merged runs.
	Files []string
}

// Defaults returns the built-in configuration defaults.
func Defaults() AppConfig {
	return AppConfig{
		QMin:             0.001,
		QStep:            -0.01,
		QCutoff:          0.01,
		NormalizeToUnity: true,
		MatchDirectBeam:  true,
		Asymmetry:        true,
	}
}

// ParseFlags parses command-line arguments into an AppConfig, applying
// environment overrides for flags that were not explicitly set.
//
// Parameters:
//   - args: The raw arguments, excluding the program name.
//   - errOut: Destination for flag-parsing error output.
//
// Returns:
//   - AppConfig: The resolved configuration.
//   - error: A flag-parsing or validation error.
func ParseFlags(args []string, errOut io.Writer) (AppConfig, error) {
	cfg := Defaults()

	fs := flag.NewFlagSet("reflred", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&cfg.DataDir, "dir", cfg.DataDir, "data directory to scan for event files")
	fs.StringVar(&cfg.Output, "output", cfg.Output, "output file for the merged reflectivity (default stdout)")
	fs.StringVar(&cfg.Output, "o", cfg.Output, "shorthand for -output")
	fs.IntVar(&cfg.CacheSize, "cache-size", cfg.CacheSize, "measurement cache capacity (0 = default)")
	fs.Float64Var(&cfg.QMin, "q-min", cfg.QMin, "lower edge of the merge grid")
	fs.Float64Var(&cfg.QStep, "q-step", cfg.QStep, "merge grid step; negative = logarithmic")
	fs.Float64Var(&cfg.QCutoff, "q-cutoff", cfg.QCutoff, "critical q below which R=1 is expected")
	fs.BoolVar(&cfg.NormalizeToUnity, "normalize", cfg.NormalizeToUnity, "normalize the total-reflection plateau to 1")
	fs.BoolVar(&cfg.MatchDirectBeam, "match-direct-beam", cfg.MatchDirectBeam, "automatically match direct beam runs")
	fs.BoolVar(&cfg.Asymmetry, "asymmetry", cfg.Asymmetry, "derive the spin-asymmetry channel")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address")
	var directBeams string
	fs.StringVar(&directBeams, "direct-beams", "", "comma-separated direct-beam files")
	fs.StringVar(&cfg.Reduced, "reduced", cfg.Reduced, "previously written reduced file to batch-load")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "verbose (debug) logging")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "verbose (debug) logging")
	fs.BoolVar(&cfg.Quiet, "q", cfg.Quiet, "suppress progress output")
	fs.BoolVar(&cfg.Quiet, "quiet", cfg.Quiet, "suppress progress output")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	cfg.Files = fs.Args()
	cfg.DirectBeams = splitList(directBeams)

	applyEnvOverrides(&cfg, fs)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(errOut, err)
		return cfg, err
	}
	return cfg, nil
}

// splitList splits a comma-separated flag value, dropping empty entries.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate checks the configuration for inconsistent values.
func (c AppConfig) Validate() error {
	if c.CacheSize < 0 {
		return apperrors.NewConfigError("cache-size must not be negative, got %d", c.CacheSize)
	}
	if c.QMin <= 0 {
		return apperrors.NewConfigError("q-min must be positive, got %g", c.QMin)
	}
	if c.QStep == 0 {
		return apperrors.NewConfigError("q-step must not be zero")
	}
	if c.QCutoff <= 0 {
		return apperrors.NewConfigError("q-cutoff must be positive, got %g", c.QCutoff)
	}
	if c.Verbose && c.Quiet {
		return apperrors.NewConfigError("verbose and quiet are mutually exclusive")
	}
	return nil
}

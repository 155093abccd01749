// This file contains environment variable utilities for configuration override.

package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
)

// isFlagSet checks if a flag was explicitly set on the command line.
// This is used to determine whether to apply environment variable overrides.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// isFlagSetAny checks if any of the specified flags were explicitly set.
// This is useful for aliased flags where either the short or long form may be used.
func isFlagSetAny(fs *flag.FlagSet, names ...string) bool {
	for _, name := range names {
		if isFlagSet(fs, name) {
			return true
		}
	}
	return false
}

// envOverride declares a single environment variable override.
// Each entry maps an env key (without the REFL_ prefix) to the CLI flag
// name(s) it corresponds to and a function that applies the env value.
type envOverride struct {
	envKey string
	flags  []string
	apply  func(*AppConfig, string)
}

// envOverrides is the declarative table of all environment variable overrides,
// grouped by value type (numeric, string, bool).
var envOverrides = []envOverride{
	// Numeric overrides
	{"CACHE_SIZE", []string{"cache-size"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.Atoi(v); err == nil {
			c.CacheSize = parsed
		}
	}},
	{"Q_MIN", []string{"q-min"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.QMin = parsed
		}
	}},
	{"Q_STEP", []string{"q-step"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.QStep = parsed
		}
	}},
	{"Q_CUTOFF", []string{"q-cutoff"}, func(c *AppConfig, v string) {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			c.QCutoff = parsed
		}
	}},

	// String overrides
	{"DATA_DIR", []string{"dir"}, func(c *AppConfig, v string) {
		c.DataDir = v
	}},
	{"OUTPUT", []string{"output", "o"}, func(c *AppConfig, v string) {
		c.Output = v
	}},
	{"METRICS_ADDR", []string{"metrics-addr"}, func(c *AppConfig, v string) {
		c.MetricsAddr = v
	}},
	{"DIRECT_BEAMS", []string{"direct-beams"}, func(c *AppConfig, v string) {
		c.DirectBeams = splitList(v)
	}},
	{"REDUCED", []string{"reduced"}, func(c *AppConfig, v string) {
		c.Reduced = v
	}},

	// Boolean overrides
	{"NORMALIZE", []string{"normalize"}, func(c *AppConfig, v string) {
		c.NormalizeToUnity = parseBoolEnv(v, c.NormalizeToUnity)
	}},
	{"MATCH_DIRECT_BEAM", []string{"match-direct-beam"}, func(c *AppConfig, v string) {
		c.MatchDirectBeam = parseBoolEnv(v, c.MatchDirectBeam)
	}},
	{"ASYMMETRY", []string{"asymmetry"}, func(c *AppConfig, v string) {
		c.Asymmetry = parseBoolEnv(v, c.Asymmetry)
	}},
	{"VERBOSE", []string{"v", "verbose"}, func(c *AppConfig, v string) {
		c.Verbose = parseBoolEnv(v, c.Verbose)
	}},
	{"QUIET", []string{"quiet", "q"}, func(c *AppConfig, v string) {
		c.Quiet = parseBoolEnv(v, c.Quiet)
	}},
}

// parseBoolEnv parses a boolean environment variable value.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
// Returns defaultVal if the value is not recognized.
func parseBoolEnv(val string, defaultVal bool) bool {
	switch strings.ToLower(val) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultVal
}

// applyEnvOverrides applies environment variable values to the configuration
// for any flags that were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > Defaults.
//
// Supported environment variables (all prefixed with REFL_):
//   - CACHE_SIZE, Q_MIN, Q_STEP, Q_CUTOFF, DATA_DIR, OUTPUT, METRICS_ADDR,
//     DIRECT_BEAMS, REDUCED, NORMALIZE, MATCH_DIRECT_BEAM, ASYMMETRY,
//     VERBOSE, QUIET
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	for _, o := range envOverrides {
		if isFlagSetAny(fs, o.flags...) {
			continue
		}
		if val := os.Getenv(EnvPrefix + o.envKey); val != "" {
			o.apply(config, val)
		}
	}
}

package reduction

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// mergeSeparator joins the components of a multi-file path or run set.
// Example: '/data/REF_M_38198.nxs.h5+/data/REF_M_38199.nxs.h5'.
const mergeSeparator = "+"

// runNumberPattern captures the trailing digit group of a file base name,
// e.g. 38198 out of 'REF_M_38198.nxs.h5'.
var runNumberPattern = regexp.MustCompile(`(\d+)\D*$`)

// RunNumberFromFile extracts the run identifier encoded in a file name.
// Returns the zero RunID when the name carries no digit group.
func RunNumberFromFile(path string) RunID {
	base := filepath.Base(path)
	// strip all extensions so '38198.nxs.h5' does not match on '5'
	for {
		ext := filepath.Ext(base)
		if ext == "" {
			break
		}
		base = strings.TrimSuffix(base, ext)
	}
	m := runNumberPattern.FindStringSubmatch(base)
	if m == nil {
		return RunID{}
	}
	return ParseRunID(m[1])
}

// CanonicalPath normalizes a possibly '+'-joined multi-file path: components
// are sorted by ascending run number and rejoined, so the same file set
// always produces the same cache key regardless of the order given.
func CanonicalPath(path string) string {
	parts := PathComponents(path)
	if len(parts) < 2 {
		return path
	}
	sort.SliceStable(parts, func(i, j int) bool {
		return RunNumberFromFile(parts[i]).Less(RunNumberFromFile(parts[j]))
	})
	return strings.Join(parts, mergeSeparator)
}

// PathComponents splits a '+'-joined path into its individual file paths.
// A single-file path yields a one-element slice.
func PathComponents(path string) []string {
	parts := strings.Split(path, mergeSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// SplitPath splits a canonical path into the directory of its first component
// and a '+'-joined list of base names.
//
// Example: '/data/REF_M_38198.nxs.h5+/data/REF_M_38199.nxs.h5' splits into
// directory '/data' and name 'REF_M_38198.nxs.h5+REF_M_38199.nxs.h5'.
func SplitPath(path string) (dir, name string) {
	parts := PathComponents(path)
	if len(parts) == 0 {
		return "", ""
	}
	dir = filepath.Dir(parts[0])
	names := make([]string, len(parts))
	for i, p := range parts {
		names[i] = filepath.Base(p)
	}
	return dir, strings.Join(names, mergeSeparator)
}

// PathRunSet derives the run set encoded in a multi-file path.
func PathRunSet(path string) RunSet {
	parts := PathComponents(path)
	ids := make([]RunID, 0, len(parts))
	for _, p := range parts {
		if id := RunNumberFromFile(p); !id.IsZero() {
			ids = append(ids, id)
		}
	}
	return NewRunSet(ids...)
}

// PathExists reports whether every component of a '+'-joined path exists on
// disk. Batch loading skips entries whose files are missing.
func PathExists(path string) bool {
	parts := PathComponents(path)
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if _, err := os.Stat(p); err != nil {
			return false
		}
	}
	return true
}

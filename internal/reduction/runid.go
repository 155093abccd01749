package reduction

import (
	"sort"
	"strconv"
	"strings"
)

// RunID identifies a measurement run. Identifiers are usually integer run
// numbers but may be opaque tokens (e.g. simulation tags); comparison is
// numeric when both sides parse as integers and falls back to exact token
// comparison otherwise, so heterogeneous identifier types never fail.
type RunID struct {
	raw     string
	number  int64
	numeric bool
}

// ParseRunID creates a RunID from a raw token. An empty token yields the
// zero RunID, which IsZero reports.
func ParseRunID(token string) RunID {
	token = strings.TrimSpace(token)
	if token == "" {
		return RunID{}
	}
	if n, err := strconv.ParseInt(token, 10, 64); err == nil {
		return RunID{raw: token, number: n, numeric: true}
	}
	return RunID{raw: token}
}

// NumericRunID creates a RunID from an integer run number.
func NumericRunID(n int64) RunID {
	return RunID{raw: strconv.FormatInt(n, 10), number: n, numeric: true}
}

// String returns the raw token of the identifier.
func (r RunID) String() string { return r.raw }

// IsZero reports whether the identifier is unset.
func (r RunID) IsZero() bool { return r.raw == "" }

// IsNumeric reports whether the identifier parsed as an integer run number.
func (r RunID) IsNumeric() bool { return r.numeric }

// Number returns the integer run number and whether the identifier is numeric.
func (r RunID) Number() (int64, bool) { return r.number, r.numeric }

// Equal compares two identifiers: numerically when both are numeric, by raw
// token otherwise.
func (r RunID) Equal(other RunID) bool {
	if r.numeric && other.numeric {
		return r.number == other.number
	}
	return r.raw == other.raw
}

// Distance returns the absolute run-number distance between two identifiers.
// The second return value is false when either side is non-numeric, in which
// case no meaningful distance exists.
func (r RunID) Distance(other RunID) (int64, bool) {
	if !r.numeric || !other.numeric {
		return 0, false
	}
	d := r.number - other.number
	if d < 0 {
		d = -d
	}
	return d, true
}

// Less orders identifiers: numeric before non-numeric, numeric by value,
// non-numeric lexicographically. Used when sorting composite run sets.
func (r RunID) Less(other RunID) bool {
	switch {
	case r.numeric && other.numeric:
		return r.number < other.number
	case r.numeric != other.numeric:
		return r.numeric
	default:
		return r.raw < other.raw
	}
}

// RunSet is an ordered set of run identifiers. A measurement assembled from
// several concatenated files carries one identifier per file, sorted by
// ascending run number.
type RunSet struct {
	ids []RunID
}

// ParseRunSet creates a RunSet from a composite token where individual
// identifiers are joined with '+'. The resulting set is sorted.
func ParseRunSet(token string) RunSet {
	parts := strings.Split(token, mergeSeparator)
	ids := make([]RunID, 0, len(parts))
	for _, p := range parts {
		if id := ParseRunID(p); !id.IsZero() {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })
	return RunSet{ids: ids}
}

// NewRunSet creates a sorted RunSet from individual identifiers.
func NewRunSet(ids ...RunID) RunSet {
	sorted := make([]RunID, len(ids))
	copy(sorted, ids)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Less(sorted[j]) })
	return RunSet{ids: sorted}
}

// First returns the lowest identifier of the set, or the zero RunID for an
// empty set. Matching heuristics operate on the first run of a composite set.
func (s RunSet) First() RunID {
	if len(s.ids) == 0 {
		return RunID{}
	}
	return s.ids[0]
}

// Size returns the number of identifiers in the set.
func (s RunSet) Size() int { return len(s.ids) }

// IDs returns a copy of the identifiers in ascending order.
func (s RunSet) IDs() []RunID {
	out := make([]RunID, len(s.ids))
	copy(out, s.ids)
	return out
}

// String returns the composite '+'-joined representation of the set.
func (s RunSet) String() string {
	parts := make([]string, len(s.ids))
	for i, id := range s.ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, mergeSeparator)
}

// CompositeID returns the set's identity as a single RunID: the sole member
// for single-run sets, an opaque composite token otherwise. This mirrors how
// a merged measurement is addressed by its combined run number.
func (s RunSet) CompositeID() RunID {
	if len(s.ids) == 1 {
		return s.ids[0]
	}
	return ParseRunID(s.String())
}

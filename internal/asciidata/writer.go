package asciidata

import (
	"fmt"
	"io"
	"math"

	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
)

// WriteMerged writes a merged reduction result as an ASCII table, one
// '# channel:' block per label in the given order. Labels without a curve in
// the result are skipped; non-finite reflectivity points (empty merge bins)
// are omitted from the output rows.
func WriteMerged(w io.Writer, merged reduction.MergedResult, order []string) error {
	for _, label := range order {
		curve := merged[label]
		if curve.Len() == 0 {
			continue
		}
		if _, err := fmt.Fprintf(w, "# channel: %s\n", label); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "# %-14s %-14s %-14s\n", "q", "r", "dr"); err != nil {
			return err
		}
		for i := range curve.Q {
			if !isFinitePoint(curve, i) {
				continue
			}
			if _, err := fmt.Fprintf(w, "%-16.6e %-16.6e %-16.6e\n",
				curve.Q[i], curve.R[i], curve.DR[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

func isFinitePoint(c *reduction.Curve, i int) bool {
	return !math.IsNaN(c.R[i]) && !math.IsInf(c.R[i], 0)
}

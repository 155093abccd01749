package reduction

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/logging"
)

// StripOverlap removes overlapping points between angle-adjacent reduction
// list members, cutting always from the lower-angle measurement's tail: for
// each adjacent pair the earlier measurement's cut-last count is set so
// that none of its points reaches into the later measurement's effective
// q-range. Only pairwise-adjacent overlaps are trimmed.
func (s *Session) StripOverlap() error {
	if s.lists.ReductionSize() < 2 {
		err := apperrors.NewConfigError("you need to have at least two datasets in the reduction table")
		s.log.Error("strip overlap", err)
		return err
	}
	if s.activeChannel == nil {
		return apperrors.NewNotFoundError("channel", "active selection is empty")
	}
	xs := s.activeChannel.Label

	reduction := s.lists.reduction
	for idx := 0; idx < len(reduction)-1; idx++ {
		current := reduction[idx].Channel(xs)
		next := reduction[idx+1].Channel(xs)
		if current == nil || next == nil || current.Reflectivity.Len() == 0 || next.Reflectivity.Len() == 0 {
			s.log.Warn("skipping pair without computed curves", logging.Int("index", idx))
			continue
		}

		endIdx := 0
		if next.Configuration != nil {
			endIdx = next.Configuration.CutFirstNPoints
		}
		if endIdx < 0 || endIdx >= next.Reflectivity.Len() {
			continue
		}
		qEdge := next.Reflectivity.Q[endIdx]

		q := current.Reflectivity.Q
		overlapStart := sort.SearchFloat64s(q, qEdge)
		if overlapStart < len(q) {
			reduction[idx].SetCutLastPoints(len(q) - overlapStart)
		}
	}
	return nil
}

// StitchDataSets determines one multiplicative scale factor per reduction
// list member so that angle-adjacent measurements agree in their overlap
// region. The fit is sequential: each measurement's scale is chosen
// relative to its already-scaled lower-angle neighbor. With
// normalizeToUnity, the lowest-angle measurement's plateau below qCutoff is
// scaled to 1 first.
//
// Returns the scale factors in reduction list order; they are also recorded
// on every channel of each measurement.
func (s *Session) StitchDataSets(normalizeToUnity bool, qCutoff float64) ([]float64, error) {
	if s.activeChannel == nil {
		return nil, apperrors.NewNotFoundError("channel", "active selection is empty")
	}
	xs := s.activeChannel.Label
	reduction := s.lists.reduction
	if len(reduction) == 0 {
		return nil, nil
	}

	scales := make([]float64, len(reduction))
	scale := 1.0

	first := reduction[0].Channel(xs)
	if first == nil || first.Reflectivity.Len() == 0 {
		return nil, apperrors.NewCalculationError(
			apperrors.NewNotFoundError("reflectivity curve", reduction[0].ID().String()))
	}

	if normalizeToUnity {
		plateau, ok := plateauLevel(first, qCutoff)
		if ok && plateau > 0 {
			scale = 1.0 / plateau
		} else {
			s.log.Warn("no total-reflection plateau below cutoff, keeping unit scale",
				logging.Float64("q_cutoff", qCutoff))
		}
	}
	reduction[0].SetScale(scale)
	scales[0] = scale

	for i := 1; i < len(reduction); i++ {
		previous := reduction[i-1].Channel(xs)
		current := reduction[i].Channel(xs)
		if previous == nil || current == nil || current.Reflectivity.Len() == 0 {
			scales[i] = scale
			reduction[i].SetScale(scale)
			continue
		}
		ratio, ok := overlapRatio(previous, scales[i-1], current)
		if ok {
			scale = ratio
		} else {
			s.log.Warn("no overlap between adjacent runs, keeping previous scale",
				logging.String("run", reduction[i].ID().String()))
		}
		reduction[i].SetScale(scale)
		scales[i] = scale
	}
	return scales, nil
}

// plateauLevel returns the error-weighted mean reflectivity of the trimmed
// points below qCutoff, and whether any such point exists.
func plateauLevel(sub *SubDataset, qCutoff float64) (float64, bool) {
	q, r, dr := effectiveCurve(sub)
	var values, weights []float64
	for i := range q {
		if q[i] < qCutoff {
			values = append(values, r[i])
			weights = append(weights, pointWeight(dr[i]))
		}
	}
	if len(values) == 0 {
		return 0, false
	}
	return stat.Mean(values, weights), true
}

// overlapRatio fits the scale for current against the already-scaled
// previous run: the error-weighted mean of scaled-previous over current,
// evaluated at the current run's points inside the previous run's q-range.
// The previous run's tail trim is ignored here: StripOverlap records the
// overlap strip as a tail trim, which would otherwise remove the very
// region the fit needs. The second return value is false when the runs do
// not overlap.
func overlapRatio(previous *SubDataset, previousScale float64, current *SubDataset) (float64, bool) {
	prevQ, prevR, _ := headTrimmedCurve(previous)
	curQ, curR, curDR := effectiveCurve(current)
	if len(prevQ) == 0 || len(curQ) == 0 {
		return 0, false
	}
	qLow, qHigh := prevQ[0], prevQ[len(prevQ)-1]

	var ratios, weights []float64
	for i := range curQ {
		if curQ[i] < qLow || curQ[i] > qHigh || curR[i] == 0 {
			continue
		}
		prevAtQ := interpolate(prevQ, prevR, curQ[i]) * previousScale
		ratios = append(ratios, prevAtQ/curR[i])
		weights = append(weights, pointWeight(curDR[i]))
	}
	if len(ratios) == 0 {
		return 0, false
	}
	return stat.Mean(ratios, weights), true
}

// effectiveCurve returns the trimmed (q, r, dr) arrays of a channel,
// honoring its cut-first/cut-last configuration. Empty when the trim spans
// the whole curve or no curve is computed.
func effectiveCurve(sub *SubDataset) (q, r, dr []float64) {
	first, last := 0, 0
	if sub.Configuration != nil {
		first = sub.Configuration.CutFirstNPoints
		last = sub.Configuration.CutLastNPoints
	}
	return cutCurve(sub, first, last)
}

// headTrimmedCurve returns the (q, r, dr) arrays of a channel honoring only
// its cut-first configuration, keeping the tail intact.
func headTrimmedCurve(sub *SubDataset) (q, r, dr []float64) {
	first := 0
	if sub.Configuration != nil {
		first = sub.Configuration.CutFirstNPoints
	}
	return cutCurve(sub, first, 0)
}

func cutCurve(sub *SubDataset, first, last int) (q, r, dr []float64) {
	if sub.Reflectivity.Len() == 0 {
		return nil, nil, nil
	}
	n := sub.Reflectivity.Len()
	end := n - last
	if first < 0 {
		first = 0
	}
	if end > n {
		end = n
	}
	if first >= end {
		return nil, nil, nil
	}
	return sub.Reflectivity.Q[first:end], sub.Reflectivity.R[first:end], sub.Reflectivity.DR[first:end]
}

// pointWeight converts a point uncertainty into a fit weight. Points
// without a meaningful uncertainty get unit weight.
func pointWeight(dr float64) float64 {
	if dr > 0 {
		return 1.0 / (dr * dr)
	}
	return 1.0
}

// interpolate evaluates a piecewise-linear curve (x ascending) at xi,
// clamping outside the x range.
func interpolate(x, y []float64, xi float64) float64 {
	switch {
	case xi <= x[0]:
		return y[0]
	case xi >= x[len(x)-1]:
		return y[len(y)-1]
	}
	i := sort.SearchFloat64s(x, xi)
	// x[i-1] < xi <= x[i]
	x0, x1 := x[i-1], x[i]
	if x1 == x0 {
		return y[i]
	}
	t := (xi - x0) / (x1 - x0)
	return y[i-1] + t*(y[i]-y[i-1])
}

// MergeDataSets merges every reduction list member onto one continuous
// curve per channel label, using the scale factors determined by
// StitchDataSets, and derives the spin-asymmetry channel when asked. The
// result replaces any previous merged output.
func (s *Session) MergeDataSets(includeAsymmetry bool) error {
	s.merged = MergedResult{}
	qMin, qStep := DefaultQMin, DefaultQStep
	if cfg := s.mergeConfiguration(); cfg != nil {
		if cfg.QMin > 0 {
			qMin = cfg.QMin
		}
		if cfg.QStep != 0 {
			qStep = cfg.QStep
		}
	}

	for _, state := range s.lists.States() {
		curve := mergeState(s.lists.reduction, state, qMin, qStep)
		if curve.Len() == 0 {
			s.log.Warn("no points to merge", logging.String("cross_section", state))
		}
		s.merged[state] = curve
	}

	if includeAsymmetry {
		s.Asymmetry()
	}
	return nil
}

// mergeConfiguration picks the configuration supplying the merge grid: the
// first reduction list member's, falling back to the active measurement's.
func (s *Session) mergeConfiguration() *Configuration {
	if len(s.lists.reduction) > 0 {
		return s.lists.reduction[0].Configuration()
	}
	if s.active != nil {
		return s.active.Configuration()
	}
	return nil
}

// mergeState bins the trimmed, scaled points of every reduction list member
// for one channel label onto a fixed grid starting at qMin. A negative
// qStep selects logarithmic binning with growth factor |qStep|; a positive
// one selects linear bins of that width. Bins without points carry NaN.
func mergeState(reduction []*Measurement, state string, qMin, qStep float64) *Curve {
	var q, r, dr []float64
	for _, m := range reduction {
		sub := m.Channel(state)
		if sub == nil {
			continue
		}
		cq, cr, cdr := effectiveCurve(sub)
		for i := range cq {
			if cq[i] < qMin {
				continue
			}
			q = append(q, cq[i])
			r = append(r, cr[i]*sub.Scale)
			dr = append(dr, cdr[i]*sub.Scale)
		}
	}
	if len(q) == 0 {
		return &Curve{}
	}
	qMax := floats.Max(q)

	edges := binEdges(qMin, qStep, qMax)
	nBins := len(edges) - 1
	sumW := make([]float64, nBins)
	sumWR := make([]float64, nBins)

	for i := range q {
		bin := findBin(edges, q[i])
		if bin < 0 {
			continue
		}
		w := pointWeight(dr[i])
		sumW[bin] += w
		sumWR[bin] += w * r[i]
	}

	merged := &Curve{
		Q:  make([]float64, nBins),
		R:  make([]float64, nBins),
		DR: make([]float64, nBins),
	}
	for b := 0; b < nBins; b++ {
		merged.Q[b] = 0.5 * (edges[b] + edges[b+1])
		if sumW[b] > 0 {
			merged.R[b] = sumWR[b] / sumW[b]
			merged.DR[b] = math.Sqrt(1.0 / sumW[b])
		} else {
			merged.R[b] = math.NaN()
			merged.DR[b] = math.NaN()
		}
	}
	return merged
}

// binEdges builds the merge-grid bin edges from qMin up to at least qMax.
func binEdges(qMin, qStep, qMax float64) []float64 {
	edges := []float64{qMin}
	edge := qMin
	for edge < qMax {
		if qStep < 0 {
			edge *= 1.0 - qStep
		} else {
			edge += qStep
		}
		edges = append(edges, edge)
	}
	return edges
}

// findBin locates the bin index containing qv, or -1 when outside the grid.
// The last bin includes its upper edge.
func findBin(edges []float64, qv float64) int {
	if qv < edges[0] || qv > edges[len(edges)-1] {
		return -1
	}
	i := sort.SearchFloat64s(edges, qv)
	// edges[i-1] < qv <= edges[i]; edge values belong to the lower bin.
	if i == 0 {
		return 0
	}
	return i - 1
}

// spin channel naming conventions recognized by the asymmetry heuristics.
func isSpinOffLabel(label string) bool {
	switch strings.ToLower(label) {
	case "off_off", "off-off":
		return true
	}
	return false
}

func isSpinOnLabel(label string) bool {
	switch strings.ToLower(label) {
	case "on_on", "on-on":
		return true
	}
	return false
}

// DetermineAsymmetryStates picks the "plus" and "minus" channel labels used
// for the spin-asymmetry calculation, by a fixed priority of heuristics:
// with exactly two channels the one not matching the spin-off naming
// convention is "minus"; otherwise canonical off-off/on-on tokens, then
// "++"/"--" cross-section labels on the active measurement, and finally
// the first and last entries of the ordered reduction states. Empty labels
// mean no asymmetry can be computed.
func (s *Session) DetermineAsymmetryStates() (plus, minus string) {
	states := s.lists.States()

	if len(states) == 2 {
		if isSpinOffLabel(states[0]) {
			return states[0], states[1]
		}
		return states[1], states[0]
	}

	for _, state := range states {
		if isSpinOffLabel(state) {
			plus = state
		}
		if isSpinOnLabel(state) {
			minus = state
		}
	}

	if plus == "" || minus == "" {
		plus, minus = "", ""
		if s.active != nil {
			for _, state := range states {
				channel := s.active.Channel(state)
				if channel == nil {
					continue
				}
				if channel.CrossSectionLabel == "++" {
					plus = state
				}
				if channel.CrossSectionLabel == "--" {
					minus = state
				}
			}
		}
		if plus == "" || minus == "" {
			plus, minus = "", ""
		}
	}

	if plus == "" && minus == "" && len(states) >= 2 {
		plus = states[0]
		minus = states[len(states)-1]
	}
	return plus, minus
}

// Asymmetry computes the pointwise spin asymmetry (P-M)/(P+M) of the merged
// "plus" and "minus" curves and stores it under the synthetic "SA" label.
// Zero-denominator points propagate as non-finite values, never as errors.
func (s *Session) Asymmetry() {
	plus, minus := s.DetermineAsymmetryStates()
	plusCurve, okPlus := s.merged[plus]
	minusCurve, okMinus := s.merged[minus]
	if !okPlus || !okMinus {
		return
	}

	n := plusCurve.Len()
	if minusCurve.Len() < n {
		n = minusCurve.Len()
	}
	sa := &Curve{
		Q:  make([]float64, n),
		R:  make([]float64, n),
		DR: make([]float64, n),
	}
	for i := 0; i < n; i++ {
		p, m := plusCurve.R[i], minusCurve.R[i]
		dp, dm := plusCurve.DR[i], minusCurve.DR[i]
		sum := p + m
		sa.Q[i] = plusCurve.Q[i]
		sa.R[i] = (p - m) / sum
		sa.DR[i] = 2.0 * math.Sqrt(m*m*dp*dp+p*p*dm*dm) / (sum * sum)
	}
	s.merged[AsymmetryLabel] = sa
}

package asciidata

import (
	"fmt"
	"math"
	"sort"

	apperrors "github.com/jontaylor010/reflectivity-ui/internal/errors"
	"github.com/jontaylor010/reflectivity-ui/internal/progress"
	"github.com/jontaylor010/reflectivity-ui/internal/reduction"
)

// detectorAxisPoints is the size of the synthetic transverse axis the map
// calculators project the specular curve onto.
const detectorAxisPoints = 11

// Calculator normalizes loaded curves against a direct beam. It implements
// the reflectivity, off-specular and GISANS calculator interfaces of the
// reduction core; the scattering maps are projections of the normalized
// specular curve onto a synthetic transverse axis.
type Calculator struct{}

// NewCalculator creates a Calculator.
func NewCalculator() *Calculator { return &Calculator{} }

// Reflectivity divides the channel's raw curve point-wise by the direct
// beam's raw curve, interpolated onto the channel's Q grid. Without a direct
// beam the raw curve is returned unchanged.
func (c *Calculator) Reflectivity(sub, directBeam *reduction.SubDataset, cfg *reduction.Configuration) (*reduction.Curve, error) {
	raw, err := rawCurve(sub)
	if err != nil {
		return nil, err
	}
	if directBeam == nil {
		return copyCurve(raw), nil
	}
	db, err := rawCurve(directBeam)
	if err != nil {
		return nil, err
	}

	out := &reduction.Curve{
		Q:  make([]float64, len(raw.Q)),
		R:  make([]float64, len(raw.Q)),
		DR: make([]float64, len(raw.Q)),
	}
	copy(out.Q, raw.Q)
	for i, q := range raw.Q {
		beam, beamErr := interpolateAt(db, q)
		if beam == 0 {
			return nil, apperrors.NewCalculationError(
				fmt.Errorf("direct beam intensity is zero at q=%g", q))
		}
		out.R[i] = raw.R[i] / beam
		// relative errors add in quadrature
		relData := relativeError(raw.DR[i], raw.R[i])
		relBeam := relativeError(beamErr, beam)
		out.DR[i] = math.Abs(out.R[i]) * math.Sqrt(relData*relData+relBeam*relBeam)
	}
	return out, nil
}

// OffSpecular projects the channel's normalized curve onto a synthetic Qx
// axis centred on the specular condition.
func (c *Calculator) OffSpecular(sub, directBeam *reduction.SubDataset) (*reduction.OffSpecularMap, error) {
	curve, err := c.Reflectivity(sub, directBeam, sub.Configuration)
	if err != nil {
		return nil, err
	}
	qx, weights := transverseAxis()
	out := &reduction.OffSpecularMap{
		Qx:        qx,
		Qz:        curve.Q,
		Intensity: make([][]float64, len(qx)),
	}
	for i := range qx {
		row := make([]float64, len(curve.R))
		for j, r := range curve.R {
			row[j] = r * weights[i]
		}
		out.Intensity[i] = row
	}
	return out, nil
}

// Gisans projects the channel's normalized curve onto a synthetic Qy axis,
// reporting per-row progress.
func (c *Calculator) Gisans(sub, directBeam *reduction.SubDataset, prog *progress.Reporter) (*reduction.GisansMap, error) {
	curve, err := c.Reflectivity(sub, directBeam, sub.Configuration)
	if err != nil {
		return nil, err
	}
	qy, weights := transverseAxis()
	out := &reduction.GisansMap{
		Qy:        qy,
		Qz:        curve.Q,
		Intensity: make([][]float64, len(qy)),
	}
	for i := range qy {
		row := make([]float64, len(curve.R))
		for j, r := range curve.R {
			row[j] = r * weights[i]
		}
		out.Intensity[i] = row
		prog.SetValue(i+1, len(qy), "")
	}
	return out, nil
}

// transverseAxis builds the synthetic detector axis and its Gaussian
// weighting, centred on zero.
func transverseAxis() (axis, weights []float64) {
	axis = make([]float64, detectorAxisPoints)
	weights = make([]float64, detectorAxisPoints)
	half := detectorAxisPoints / 2
	for i := range axis {
		x := float64(i-half) / float64(half)
		axis[i] = 0.01 * x
		weights[i] = math.Exp(-0.5 * x * x * 4)
	}
	return axis, weights
}

func rawCurve(sub *reduction.SubDataset) (*reduction.Curve, error) {
	if sub == nil || sub.Raw.Len() == 0 {
		return nil, apperrors.NewCalculationError(fmt.Errorf("no raw data to reduce"))
	}
	return sub.Raw, nil
}

func copyCurve(c *reduction.Curve) *reduction.Curve {
	out := &reduction.Curve{
		Q:  make([]float64, len(c.Q)),
		R:  make([]float64, len(c.R)),
		DR: make([]float64, len(c.DR)),
	}
	copy(out.Q, c.Q)
	copy(out.R, c.R)
	copy(out.DR, c.DR)
	return out
}

func relativeError(err, value float64) float64 {
	if value == 0 {
		return 0
	}
	return err / value
}

// interpolateAt evaluates a curve at q by linear interpolation, clamping to
// the end values outside the curve's range. Returns the interpolated
// intensity and its uncertainty.
func interpolateAt(c *reduction.Curve, q float64) (r, dr float64) {
	n := len(c.Q)
	if n == 0 {
		return 0, 0
	}
	i := sort.SearchFloat64s(c.Q, q)
	switch {
	case i == 0:
		return c.R[0], c.DR[0]
	case i >= n:
		return c.R[n-1], c.DR[n-1]
	}
	span := c.Q[i] - c.Q[i-1]
	if span == 0 {
		return c.R[i], c.DR[i]
	}
	t := (q - c.Q[i-1]) / span
	return c.R[i-1] + t*(c.R[i]-c.R[i-1]), c.DR[i-1] + t*(c.DR[i]-c.DR[i-1])
}

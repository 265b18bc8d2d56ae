package calib

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

// Fit failure modes. The pipeline records these per pair instead of
// aborting a run.
var (
	ErrTooFewCompounds = errors.New("too few shared compounds")
	ErrDegenerate      = errors.New("degenerate retention times")
)

// DefaultCILevel is the confidence level for prediction bands.
const DefaultCILevel = 0.95

// Options configures model fitting.
type Options struct {
	MinCompounds int     // minimum shared compounds, <= 0 means no check
	CILevel      float64 // 0 means DefaultCILevel
}

// Stats summarises a fitted model for the index.
type Stats struct {
	Compounds      int     `json:"compounds"`
	MedianCIWidth  float64 `json:"median_ci_width"`
	MedianAbsError float64 `json:"median_abs_error"`
}

// Model is a fitted calibration curve mapping retention time on Sys1 to
// a predicted retention time (with interval) on Sys2.
type Model struct {
	Sys1         string    `json:"sys1"`
	Sys2         string    `json:"sys2"`
	Fingerprint1 string    `json:"fingerprint1"`
	Fingerprint2 string    `json:"fingerprint2"`
	Knots        []Knot    `json:"knots"`
	LowerOffset  float64   `json:"lower_offset"` // residual quantile, <= 0
	UpperOffset  float64   `json:"upper_offset"` // residual quantile, >= 0
	CILevel      float64   `json:"ci_level"`
	Stats        Stats     `json:"stats"`
	BuiltAt      time.Time `json:"built_at"`
}

// Fit builds a calibration model from shared-compound pairs. Pairs must
// be sorted by RT1 (dataset.Overlap guarantees this).
func Fit(sys1, sys2 string, pairs []dataset.Pair, opts Options) (*Model, error) {
	if opts.CILevel == 0 {
		opts.CILevel = DefaultCILevel
	}
	if opts.CILevel <= 0 || opts.CILevel >= 1 {
		return nil, fmt.Errorf("ci level must be in (0, 1), got %g", opts.CILevel)
	}
	if opts.MinCompounds > 0 && len(pairs) < opts.MinCompounds {
		return nil, fmt.Errorf("%w: %d < %d", ErrTooFewCompounds, len(pairs), opts.MinCompounds)
	}
	if len(pairs) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 pairs, got %d", ErrTooFewCompounds, len(pairs))
	}

	x := make([]float64, len(pairs))
	y := make([]float64, len(pairs))
	for i, p := range pairs {
		x[i] = p.RT1
		y[i] = p.RT2
	}
	if x[0] == x[len(x)-1] {
		return nil, fmt.Errorf("%w: no variance in %s retention times", ErrDegenerate, sys1)
	}

	knots, fitted := isotonic(x, y)
	if len(knots) < 2 || knots[0].Y == knots[len(knots)-1].Y {
		return nil, fmt.Errorf("%w: fitted curve is flat between %s and %s", ErrDegenerate, sys1, sys2)
	}

	m := &Model{
		Sys1:    sys1,
		Sys2:    sys2,
		Knots:   knots,
		CILevel: opts.CILevel,
		BuiltAt: time.Now().UTC(),
	}

	// Residuals against the fitted curve. Both slices follow sorted-x
	// order: isotonic sorts internally, pairs arrive sorted.
	residuals := make([]float64, len(pairs))
	absResiduals := make([]float64, len(pairs))
	for i := range pairs {
		residuals[i] = y[i] - fitted[i]
		absResiduals[i] = math.Abs(residuals[i])
	}
	sort.Float64s(residuals)
	sort.Float64s(absResiduals)

	alpha := (1 - opts.CILevel) / 2
	m.LowerOffset = stat.Quantile(alpha, stat.Empirical, residuals, nil)
	m.UpperOffset = stat.Quantile(1-alpha, stat.Empirical, residuals, nil)

	m.Stats = Stats{
		Compounds:      len(pairs),
		MedianCIWidth:  m.UpperOffset - m.LowerOffset,
		MedianAbsError: stat.Quantile(0.5, stat.Empirical, absResiduals, nil),
	}

	return m, nil
}

// Predict maps a retention time on Sys1 to the fitted value on Sys2.
// Between knots it interpolates linearly; outside the fitted range it
// extrapolates with the boundary segment's slope.
func (m *Model) Predict(rt float64) float64 {
	knots := m.Knots
	n := len(knots)

	if rt <= knots[0].X {
		return knots[0].Y + boundarySlope(knots[0], knots[1])*(rt-knots[0].X)
	}
	if rt >= knots[n-1].X {
		return knots[n-1].Y + boundarySlope(knots[n-2], knots[n-1])*(rt-knots[n-1].X)
	}

	// Binary search for the segment containing rt.
	i := sort.Search(n, func(i int) bool { return knots[i].X >= rt })
	a, b := knots[i-1], knots[i]
	t := (rt - a.X) / (b.X - a.X)
	return a.Y + t*(b.Y-a.Y)
}

// PredictInterval returns the predicted retention time with its
// confidence bounds.
func (m *Model) PredictInterval(rt float64) (pred, lower, upper float64) {
	pred = m.Predict(rt)
	return pred, pred + m.LowerOffset, pred + m.UpperOffset
}

// boundarySlope returns the slope between two knots. Flat boundary
// segments (pooled blocks) extrapolate horizontally.
func boundarySlope(a, b Knot) float64 {
	if b.X == a.X {
		return 0
	}
	return (b.Y - a.Y) / (b.X - a.X)
}

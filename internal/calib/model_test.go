package calib

import (
	"errors"
	"math"
	"testing"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

func linearPairs(n int, slope, intercept float64) []dataset.Pair {
	pairs := make([]dataset.Pair, n)
	for i := range pairs {
		x := float64(i + 1)
		pairs[i] = dataset.Pair{Compound: string(rune('A' + i)), RT1: x, RT2: slope*x + intercept}
	}
	return pairs
}

func TestFit(t *testing.T) {
	t.Run("linear data", func(t *testing.T) {
		m, err := Fit("fem_long", "riken", linearPairs(10, 2, 1), Options{})
		if err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		if m.Sys1 != "fem_long" || m.Sys2 != "riken" {
			t.Errorf("system labels = %s, %s", m.Sys1, m.Sys2)
		}
		if m.CILevel != DefaultCILevel {
			t.Errorf("CILevel = %g, want %g", m.CILevel, DefaultCILevel)
		}
		if m.Stats.Compounds != 10 {
			t.Errorf("Stats.Compounds = %d, want 10", m.Stats.Compounds)
		}
		// Perfect fit: zero residuals everywhere.
		if m.LowerOffset != 0 || m.UpperOffset != 0 {
			t.Errorf("offsets = (%g, %g), want (0, 0)", m.LowerOffset, m.UpperOffset)
		}
		if m.Stats.MedianAbsError != 0 {
			t.Errorf("MedianAbsError = %g, want 0", m.Stats.MedianAbsError)
		}
	})

	t.Run("too few compounds", func(t *testing.T) {
		_, err := Fit("a", "b", linearPairs(5, 1, 0), Options{MinCompounds: 10})
		if !errors.Is(err, ErrTooFewCompounds) {
			t.Errorf("Fit() error = %v, want ErrTooFewCompounds", err)
		}
	})

	t.Run("fewer than two pairs", func(t *testing.T) {
		_, err := Fit("a", "b", linearPairs(1, 1, 0), Options{})
		if !errors.Is(err, ErrTooFewCompounds) {
			t.Errorf("Fit() error = %v, want ErrTooFewCompounds", err)
		}
	})

	t.Run("no variance in rt1", func(t *testing.T) {
		pairs := []dataset.Pair{
			{Compound: "A", RT1: 2, RT2: 1},
			{Compound: "B", RT1: 2, RT2: 3},
		}
		_, err := Fit("a", "b", pairs, Options{})
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("Fit() error = %v, want ErrDegenerate", err)
		}
	})

	t.Run("flat curve", func(t *testing.T) {
		// Strictly decreasing RT2 pools into a single flat block.
		pairs := []dataset.Pair{
			{Compound: "A", RT1: 1, RT2: 5},
			{Compound: "B", RT1: 2, RT2: 4},
			{Compound: "C", RT1: 3, RT2: 3},
		}
		_, err := Fit("a", "b", pairs, Options{})
		if !errors.Is(err, ErrDegenerate) {
			t.Errorf("Fit() error = %v, want ErrDegenerate", err)
		}
	})

	t.Run("invalid ci level", func(t *testing.T) {
		_, err := Fit("a", "b", linearPairs(10, 1, 0), Options{CILevel: 1.5})
		if err == nil {
			t.Fatal("expected error for ci level 1.5")
		}
	})

	t.Run("noisy data gives nonzero band", func(t *testing.T) {
		// Noise large enough to break elution order between neighbours.
		pairs := linearPairs(20, 1, 0)
		for i := range pairs {
			if i%2 == 0 {
				pairs[i].RT2 += 0.7
			} else {
				pairs[i].RT2 -= 0.7
			}
		}
		m, err := Fit("a", "b", pairs, Options{CILevel: 0.9})
		if err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		if m.LowerOffset > 0 {
			t.Errorf("LowerOffset = %g, want <= 0", m.LowerOffset)
		}
		if m.UpperOffset < 0 {
			t.Errorf("UpperOffset = %g, want >= 0", m.UpperOffset)
		}
		if m.Stats.MedianCIWidth <= 0 {
			t.Errorf("MedianCIWidth = %g, want > 0", m.Stats.MedianCIWidth)
		}
	})
}

func TestModel_Predict(t *testing.T) {
	m, err := Fit("a", "b", linearPairs(5, 2, 1), Options{})
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	tests := []struct {
		name string
		rt   float64
		want float64
	}{
		{"at first knot", 1, 3},
		{"at last knot", 5, 11},
		{"between knots", 2.5, 6},
		{"extrapolate below", 0, 1},
		{"extrapolate above", 6, 13},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Predict(tt.rt)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Predict(%g) = %g, want %g", tt.rt, got, tt.want)
			}
		})
	}
}

func TestModel_PredictInterval(t *testing.T) {
	m := &Model{
		Knots:       []Knot{{X: 1, Y: 1}, {X: 2, Y: 2}},
		LowerOffset: -0.5,
		UpperOffset: 0.3,
	}

	pred, lower, upper := m.PredictInterval(1.5)
	if pred != 1.5 {
		t.Errorf("pred = %g, want 1.5", pred)
	}
	if lower != 1.0 {
		t.Errorf("lower = %g, want 1.0", lower)
	}
	if upper != 1.8 {
		t.Errorf("upper = %g, want 1.8", upper)
	}
}

func TestModel_Predict_FlatBoundary(t *testing.T) {
	// A pooled boundary block extrapolates horizontally.
	m := &Model{Knots: []Knot{{X: 1, Y: 2}, {X: 2, Y: 2}, {X: 3, Y: 5}}}
	if got := m.Predict(0); got != 2 {
		t.Errorf("Predict(0) = %g, want 2", got)
	}
}

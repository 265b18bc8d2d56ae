// Package predict projects compounds into a target system through every
// available calibration model and aggregates the per-model predictions.
package predict

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/stanstrup/rePredRet/internal/calib"
	"github.com/stanstrup/rePredRet/internal/dataset"
)

// Prediction is the consensus retention time for one compound in the
// target system.
type Prediction struct {
	Compound string  `json:"compound"`
	InChI    string  `json:"inchi,omitempty"`
	RT       float64 `json:"rt"`    // median over contributing models
	Lower    float64 `json:"lower"` // min lower bound over models
	Upper    float64 `json:"upper"` // max upper bound over models
	Models   int     `json:"models"`
}

// ModelLoader returns the model for an ordered pair, or nil when no
// model exists for the pair.
type ModelLoader func(sys1, sys2 string) (*calib.Model, error)

// MeasurementLoader returns the measurements for a dataset.
type MeasurementLoader func(id string) ([]dataset.Measurement, error)

// ForSystem predicts retention times in the target system for every
// compound measured in some other system but absent from the target.
// Each model source→target projects its system's compounds; per compound
// the median prediction is taken, with the widest combined interval.
func ForSystem(
	target string,
	datasets []dataset.Dataset,
	loadMeasurements MeasurementLoader,
	loadModel ModelLoader,
	keyMode string,
) ([]Prediction, error) {
	if _, ok := dataset.FindByID(datasets, target); !ok {
		return nil, fmt.Errorf("unknown target system: %s", target)
	}

	targetMs, err := loadMeasurements(target)
	if err != nil {
		return nil, fmt.Errorf("loading target measurements: %w", err)
	}
	inTarget := make(map[string]struct{}, len(targetMs))
	for _, m := range targetMs {
		inTarget[m.Key(keyMode)] = struct{}{}
	}

	type candidate struct {
		compound, inchi string
		rts             []float64
		lower, upper    float64
	}
	byKey := make(map[string]*candidate)
	var order []string // stable output ordering by first appearance

	for _, ds := range datasets {
		if ds.ID == target {
			continue
		}

		m, err := loadModel(ds.ID, target)
		if err != nil {
			return nil, fmt.Errorf("loading model %s->%s: %w", ds.ID, target, err)
		}
		if m == nil {
			continue
		}

		ms, err := loadMeasurements(ds.ID)
		if err != nil {
			return nil, fmt.Errorf("loading measurements for %s: %w", ds.ID, err)
		}

		for _, meas := range ms {
			key := meas.Key(keyMode)
			if _, ok := inTarget[key]; ok {
				continue
			}

			pred, lower, upper := m.PredictInterval(meas.RT)
			c, ok := byKey[key]
			if !ok {
				c = &candidate{compound: meas.Compound, inchi: meas.InChI, lower: lower, upper: upper}
				byKey[key] = c
				order = append(order, key)
			}
			c.rts = append(c.rts, pred)
			if lower < c.lower {
				c.lower = lower
			}
			if upper > c.upper {
				c.upper = upper
			}
		}
	}

	predictions := make([]Prediction, 0, len(order))
	for _, key := range order {
		c := byKey[key]
		sort.Float64s(c.rts)
		predictions = append(predictions, Prediction{
			Compound: c.compound,
			InChI:    c.inchi,
			RT:       stat.Quantile(0.5, stat.Empirical, c.rts, nil),
			Lower:    c.lower,
			Upper:    c.upper,
			Models:   len(c.rts),
		})
	}

	sort.Slice(predictions, func(i, j int) bool {
		if predictions[i].RT != predictions[j].RT {
			return predictions[i].RT < predictions[j].RT
		}
		return predictions[i].Compound < predictions[j].Compound
	})

	return predictions, nil
}

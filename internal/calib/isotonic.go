// Package calib fits pairwise retention-time calibration models.
//
// Elution order is largely preserved between chromatographic systems, so
// the calibration curve rt2 = f(rt1) is fitted as a monotone
// non-decreasing function: isotonic regression (pool-adjacent-violators)
// over the shared compounds, evaluated by linear interpolation between
// the resulting knots.
package calib

import "sort"

// Knot is one point of the fitted monotone curve. X values are strictly
// increasing and Y values are non-decreasing.
type Knot struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// isotonic runs pool-adjacent-violators on (x, y) and returns the fitted
// knots plus the fitted value for each input point (in the order of the
// sorted inputs). Ties in x are averaged into a single support point
// before pooling.
func isotonic(x, y []float64) (knots []Knot, fitted []float64) {
	n := len(x)
	if n == 0 {
		return nil, nil
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool { return x[order[i]] < x[order[j]] })

	// Collapse tied x values to their mean y, remembering how many raw
	// points each support point carries.
	type support struct {
		x, ySum float64
		w       int
	}
	var supports []support
	for _, idx := range order {
		if len(supports) > 0 && supports[len(supports)-1].x == x[idx] {
			s := &supports[len(supports)-1]
			s.ySum += y[idx]
			s.w++
			continue
		}
		supports = append(supports, support{x: x[idx], ySum: y[idx], w: 1})
	}

	// Pool adjacent violators. Each block holds a weighted mean; blocks
	// merge while the previous block's mean exceeds the current one.
	type block struct {
		sum  float64
		w    int
		from int // first support index in the block
	}
	var blocks []block
	for i, s := range supports {
		blocks = append(blocks, block{sum: s.ySum, w: s.w, from: i})
		for len(blocks) > 1 {
			a, b := blocks[len(blocks)-2], blocks[len(blocks)-1]
			if a.sum/float64(a.w) <= b.sum/float64(b.w) {
				break
			}
			blocks = blocks[:len(blocks)-1]
			blocks[len(blocks)-1] = block{sum: a.sum + b.sum, w: a.w + b.w, from: a.from}
		}
	}

	// Expand block means back onto the support points.
	supportFit := make([]float64, len(supports))
	for bi, b := range blocks {
		end := len(supports)
		if bi+1 < len(blocks) {
			end = blocks[bi+1].from
		}
		mean := b.sum / float64(b.w)
		for i := b.from; i < end; i++ {
			supportFit[i] = mean
		}
	}

	knots = make([]Knot, len(supports))
	for i, s := range supports {
		knots[i] = Knot{X: s.x, Y: supportFit[i]}
	}

	// Fitted values for the raw points, in sorted-x order.
	fitted = make([]float64, 0, n)
	si := 0
	for _, idx := range order {
		for supports[si].x != x[idx] {
			si++
		}
		fitted = append(fitted, supportFit[si])
	}

	return knots, fitted
}

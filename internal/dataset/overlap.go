package dataset

import "sort"

// Pair is one shared compound's retention times in two systems.
type Pair struct {
	Compound string
	RT1      float64
	RT2      float64
}

// Overlap joins two measurement sets on the compound key and returns the
// shared (rt1, rt2) pairs sorted by RT1 (ties broken by compound name)
// so downstream fitting is deterministic.
func Overlap(a, b []Measurement, keyMode string) []Pair {
	inB := make(map[string]Measurement, len(b))
	for _, m := range b {
		inB[m.Key(keyMode)] = m
	}

	var pairs []Pair
	for _, m := range a {
		other, ok := inB[m.Key(keyMode)]
		if !ok {
			continue
		}
		pairs = append(pairs, Pair{Compound: m.Compound, RT1: m.RT, RT2: other.RT})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].RT1 != pairs[j].RT1 {
			return pairs[i].RT1 < pairs[j].RT1
		}
		return pairs[i].Compound < pairs[j].Compound
	})

	return pairs
}

// OverlapCount returns the number of shared compounds without building
// the pair slice. Used by the planner when sizing candidate pairs.
func OverlapCount(a, b []Measurement, keyMode string) int {
	inB := make(map[string]struct{}, len(b))
	for _, m := range b {
		inB[m.Key(keyMode)] = struct{}{}
	}
	n := 0
	for _, m := range a {
		if _, ok := inB[m.Key(keyMode)]; ok {
			n++
		}
	}
	return n
}

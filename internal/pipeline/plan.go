package pipeline

import (
	"fmt"
	"sort"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

// DatasetDiff classifies datasets against the previous fingerprint
// snapshot.
type DatasetDiff struct {
	New       []string `json:"new,omitempty"`
	Changed   []string `json:"changed,omitempty"`
	Unchanged []string `json:"unchanged,omitempty"`
	Removed   []string `json:"removed,omitempty"`
}

// Dirty reports whether a dataset needs its pairs rebuilt.
func (d DatasetDiff) Dirty(id string) bool {
	for _, n := range d.New {
		if n == id {
			return true
		}
	}
	for _, c := range d.Changed {
		if c == id {
			return true
		}
	}
	return false
}

// DiffFingerprints compares current dataset fingerprints against the
// previous snapshot.
func DiffFingerprints(datasets []dataset.Dataset, prev Snapshot) DatasetDiff {
	var diff DatasetDiff
	current := make(map[string]struct{}, len(datasets))

	for _, ds := range datasets {
		current[ds.ID] = struct{}{}
		old, ok := prev[ds.ID]
		switch {
		case !ok:
			diff.New = append(diff.New, ds.ID)
		case old != ds.Fingerprint:
			diff.Changed = append(diff.Changed, ds.ID)
		default:
			diff.Unchanged = append(diff.Unchanged, ds.ID)
		}
	}

	for id := range prev {
		if _, ok := current[id]; !ok {
			diff.Removed = append(diff.Removed, id)
		}
	}
	sort.Strings(diff.Removed)

	return diff
}

// PairJob is one scheduled model build.
type PairJob struct {
	Sys1         string
	Sys2         string
	Fingerprint1 string
	Fingerprint2 string
	Pairs        []dataset.Pair
}

// StalePair identifies a previously built model whose inputs no longer
// qualify for a pair, e.g. a changed dataset dropped below the overlap
// threshold. Stale pairs are evicted, never served.
type StalePair struct {
	Sys1 string
	Sys2 string
}

// Plan is the result of diffing the repository against the cache:
// which pairs to (re)build, what to skip, and what to evict.
type Plan struct {
	Diff         DatasetDiff
	Jobs         []PairJob
	Stale        []StalePair // indexed pairs now below the overlap threshold
	UpToDate     int         // candidate pairs skipped because nothing changed
	BelowOverlap int         // ordered pairs below the overlap threshold
	Candidates   int         // ordered pairs meeting the overlap threshold
}

// PlanOptions configures planning.
type PlanOptions struct {
	MinCompounds int
	CompoundKey  string
	Force        bool // rebuild everything regardless of fingerprints
}

// BuildPlan enumerates ordered dataset pairs, filters them by shared
// compound count, and schedules the pairs whose inputs are new or
// changed (or whose artifact is missing). Measurements are loaded once
// per dataset through the load callback.
func BuildPlan(
	datasets []dataset.Dataset,
	load func(id string) ([]dataset.Measurement, error),
	prev Snapshot,
	hasArtifact func(sys1, sys2 string) bool,
	opts PlanOptions,
) (*Plan, error) {
	if opts.CompoundKey == "" {
		opts.CompoundKey = dataset.KeyInChI
	}

	plan := &Plan{Diff: DiffFingerprints(datasets, prev)}

	sorted := make([]dataset.Dataset, len(datasets))
	copy(sorted, datasets)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	loaded := make(map[string][]dataset.Measurement, len(sorted))
	measurements := func(id string) ([]dataset.Measurement, error) {
		if ms, ok := loaded[id]; ok {
			return ms, nil
		}
		ms, err := load(id)
		if err != nil {
			return nil, fmt.Errorf("loading measurements for %s: %w", id, err)
		}
		loaded[id] = ms
		return ms, nil
	}

	for _, a := range sorted {
		for _, b := range sorted {
			if a.ID == b.ID {
				continue
			}

			msA, err := measurements(a.ID)
			if err != nil {
				return nil, err
			}
			msB, err := measurements(b.ID)
			if err != nil {
				return nil, err
			}

			if dataset.OverlapCount(msA, msB, opts.CompoundKey) < opts.MinCompounds {
				plan.BelowOverlap++
				// A leftover artifact here means the pair qualified on a
				// previous run; its model must not keep being served.
				if hasArtifact(a.ID, b.ID) {
					plan.Stale = append(plan.Stale, StalePair{Sys1: a.ID, Sys2: b.ID})
				}
				continue
			}
			plan.Candidates++

			dirty := opts.Force ||
				plan.Diff.Dirty(a.ID) || plan.Diff.Dirty(b.ID) ||
				!hasArtifact(a.ID, b.ID)
			if !dirty {
				plan.UpToDate++
				continue
			}

			plan.Jobs = append(plan.Jobs, PairJob{
				Sys1:         a.ID,
				Sys2:         b.ID,
				Fingerprint1: a.Fingerprint,
				Fingerprint2: b.Fingerprint,
				Pairs:        dataset.Overlap(msA, msB, opts.CompoundKey),
			})
		}
	}

	return plan, nil
}

// SnapshotOf extracts the fingerprint snapshot corresponding to the
// given datasets, written to the cache after a completed run.
func SnapshotOf(datasets []dataset.Dataset) Snapshot {
	snap := make(Snapshot, len(datasets))
	for _, ds := range datasets {
		snap[ds.ID] = ds.Fingerprint
	}
	return snap
}

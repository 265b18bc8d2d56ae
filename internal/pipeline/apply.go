package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/stanstrup/rePredRet/internal/calib"
	"github.com/stanstrup/rePredRet/internal/storage"
)

// Report is the persisted record of the last build run.
type Report struct {
	RunID      string               `json:"run_id"`
	StartedAt  time.Time            `json:"started_at"`
	FinishedAt time.Time            `json:"finished_at"`
	Stats      BuildStats           `json:"stats"`
	Failures   []storage.FailureRow `json:"failures,omitempty"`
}

// Save writes the build report as JSON.
func (r *Report) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing build report: %w", err)
	}
	return nil
}

// LoadReport reads the last build report, or nil if none exists.
func LoadReport(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading build report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parsing build report: %w", err)
	}
	return &r, nil
}

// HasArtifact reports whether a pair's model artifact exists in modelsDir.
func HasArtifact(modelsDir, sys1, sys2 string) bool {
	_, err := os.Stat(filepath.Join(modelsDir, calib.ArtifactName(sys1, sys2)))
	return err == nil
}

// Apply merges build results into the index and the artifact directory:
// successes write their artifact and index entry, failures evict any
// stale entry and artifact from a previous run, removed datasets drop
// everything that references them, and stale pairs (below the current
// overlap threshold) are evicted the same way. Index rows and artifacts
// stay 1:1 throughout.
func Apply(idx *Index, results []Result, removed []string, stale []StalePair, stats *BuildStats, modelsDir string) ([]storage.FailureRow, error) {
	for _, id := range removed {
		for _, e := range idx.RemoveSystem(id) {
			if err := removeArtifact(modelsDir, e.Sys1, e.Sys2); err != nil {
				return nil, err
			}
			stats.Evicted++
		}
	}

	for _, p := range stale {
		if idx.Remove(p.Sys1, p.Sys2) {
			stats.Evicted++
		}
		if err := removeArtifact(modelsDir, p.Sys1, p.Sys2); err != nil {
			return nil, err
		}
	}

	var failures []storage.FailureRow
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			path := filepath.Join(modelsDir, calib.ArtifactName(r.Sys1, r.Sys2))
			if err := calib.WriteArtifact(path, r.Model); err != nil {
				return nil, fmt.Errorf("writing artifact %s->%s: %w", r.Sys1, r.Sys2, err)
			}
			idx.Put(IndexEntry{
				Sys1:           r.Sys1,
				Sys2:           r.Sys2,
				Compounds:      r.Model.Stats.Compounds,
				MedianCIWidth:  r.Model.Stats.MedianCIWidth,
				MedianAbsError: r.Model.Stats.MedianAbsError,
				CILevel:        r.Model.CILevel,
				BuiltAt:        r.Model.BuiltAt.Format(time.RFC3339),
				RunID:          stats.RunID,
			})
		case StatusFailure:
			// A pair that previously built but now fails must not keep
			// its stale model around.
			if idx.Remove(r.Sys1, r.Sys2) {
				stats.Evicted++
			}
			if err := removeArtifact(modelsDir, r.Sys1, r.Sys2); err != nil {
				return nil, err
			}
			failures = append(failures, storage.FailureRow{
				Sys1:    r.Sys1,
				Sys2:    r.Sys2,
				Message: r.Message,
				RunID:   stats.RunID,
			})
		}
	}

	idx.RunID = stats.RunID
	idx.GeneratedAt = time.Now().UTC()

	return failures, nil
}

func removeArtifact(modelsDir, sys1, sys2 string) error {
	path := filepath.Join(modelsDir, calib.ArtifactName(sys1, sys2))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing artifact %s->%s: %w", sys1, sys2, err)
	}
	return nil
}

// IndexRows converts index entries into query-layer rows.
func IndexRows(idx *Index) []storage.ModelRow {
	rows := make([]storage.ModelRow, 0, len(idx.Entries))
	for _, e := range idx.Entries {
		rows = append(rows, storage.ModelRow{
			Sys1:           e.Sys1,
			Sys2:           e.Sys2,
			Compounds:      e.Compounds,
			MedianCIWidth:  e.MedianCIWidth,
			MedianAbsError: e.MedianAbsError,
			CILevel:        e.CILevel,
			BuiltAt:        e.BuiltAt,
			RunID:          e.RunID,
		})
	}
	return rows
}

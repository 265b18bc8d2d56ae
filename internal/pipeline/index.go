package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"
)

// IndexEntry is one successful model in the aggregated index.
type IndexEntry struct {
	Sys1           string  `json:"sys1"`
	Sys2           string  `json:"sys2"`
	Compounds      int     `json:"compounds"`
	MedianCIWidth  float64 `json:"median_ci_width"`
	MedianAbsError float64 `json:"median_abs_error"`
	CILevel        float64 `json:"ci_level"`
	BuiltAt        string  `json:"built_at"` // RFC3339
	RunID          string  `json:"run_id"`
}

// Index is the aggregated table of successful models, persisted as JSON
// alongside the model artifacts and mirrored to CSV for spreadsheets.
type Index struct {
	GeneratedAt time.Time    `json:"generated_at"`
	RunID       string       `json:"run_id,omitempty"` // last build run
	Entries     []IndexEntry `json:"entries"`
}

// LoadIndex reads the model index. A missing file returns an empty index.
func LoadIndex(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Index{}, nil
		}
		return nil, fmt.Errorf("reading index: %w", err)
	}

	var idx Index
	if err := json.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("parsing index: %w", err)
	}

	return &idx, nil
}

// Save writes the index as JSON, keeping entries sorted by pair.
func (idx *Index) Save(path string) error {
	idx.sortEntries()
	data, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding index: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing index: %w", err)
	}

	return nil
}

// WriteCSV mirrors the index to a CSV file.
func (idx *Index) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating index CSV: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"sys1", "sys2", "compounds", "median_ci_width", "median_abs_error", "ci_level", "built_at", "run_id"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}

	idx.sortEntries()
	for _, e := range idx.Entries {
		record := []string{
			e.Sys1, e.Sys2,
			strconv.Itoa(e.Compounds),
			strconv.FormatFloat(e.MedianCIWidth, 'g', 6, 64),
			strconv.FormatFloat(e.MedianAbsError, 'g', 6, 64),
			strconv.FormatFloat(e.CILevel, 'g', -1, 64),
			e.BuiltAt, e.RunID,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing CSV row %s->%s: %w", e.Sys1, e.Sys2, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing index CSV: %w", err)
	}

	return nil
}

// Get returns the entry for a pair, or nil if absent.
func (idx *Index) Get(sys1, sys2 string) *IndexEntry {
	for i := range idx.Entries {
		if idx.Entries[i].Sys1 == sys1 && idx.Entries[i].Sys2 == sys2 {
			return &idx.Entries[i]
		}
	}
	return nil
}

// Put inserts or replaces the entry for a pair.
func (idx *Index) Put(entry IndexEntry) {
	for i := range idx.Entries {
		if idx.Entries[i].Sys1 == entry.Sys1 && idx.Entries[i].Sys2 == entry.Sys2 {
			idx.Entries[i] = entry
			return
		}
	}
	idx.Entries = append(idx.Entries, entry)
}

// Remove deletes the entry for a pair. Returns true if it existed.
func (idx *Index) Remove(sys1, sys2 string) bool {
	for i := range idx.Entries {
		if idx.Entries[i].Sys1 == sys1 && idx.Entries[i].Sys2 == sys2 {
			idx.Entries = append(idx.Entries[:i], idx.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// RemoveSystem deletes all entries touching a dataset and returns the
// evicted pairs, used to delete their artifacts.
func (idx *Index) RemoveSystem(id string) []IndexEntry {
	var evicted []IndexEntry
	kept := idx.Entries[:0]
	for _, e := range idx.Entries {
		if e.Sys1 == id || e.Sys2 == id {
			evicted = append(evicted, e)
			continue
		}
		kept = append(kept, e)
	}
	idx.Entries = kept
	return evicted
}

func (idx *Index) sortEntries() {
	sort.Slice(idx.Entries, func(i, j int) bool {
		if idx.Entries[i].Sys1 != idx.Entries[j].Sys1 {
			return idx.Entries[i].Sys1 < idx.Entries[j].Sys1
		}
		return idx.Entries[i].Sys2 < idx.Entries[j].Sys2
	})
}

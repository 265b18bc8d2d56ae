// Package pipeline orchestrates incremental pairwise model building:
// fingerprint diffing, pair planning, batched parallel fitting, and
// aggregation of results into the persisted model index.
package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot maps dataset ID to the fingerprint recorded after the last
// completed build. It is the cache key for skipping unchanged work.
type Snapshot map[string]string

// LoadSnapshot reads the fingerprint snapshot from the cache. A missing
// file means no previous build: every dataset classifies as new.
func LoadSnapshot(path string) (Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Snapshot{}, nil
		}
		return nil, fmt.Errorf("reading fingerprint snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing fingerprint snapshot: %w", err)
	}

	return snap, nil
}

// SaveSnapshot writes the fingerprint snapshot. Only called after a
// completed run so that interrupted builds redo their work.
func SaveSnapshot(path string, snap Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding fingerprint snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing fingerprint snapshot: %w", err)
	}

	return nil
}

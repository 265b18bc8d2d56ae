package calib

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/klauspost/compress/gzip"
)

// ArtifactName returns the artifact filename for an ordered system pair.
func ArtifactName(sys1, sys2 string) string {
	return sys1 + "__" + sys2 + ".json.gz"
}

// WriteArtifact saves a model as gzip-compressed JSON. Repositories with
// many systems hold O(N^2) artifacts, so they are stored compressed.
func WriteArtifact(path string, m *Model) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating artifact: %w", err)
	}
	defer f.Close()

	zw := gzip.NewWriter(f)
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		zw.Close()
		return fmt.Errorf("encoding model: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("closing gzip writer: %w", err)
	}

	return nil
}

// ReadArtifact loads a model saved by WriteArtifact.
func ReadArtifact(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening artifact: %w", err)
	}
	defer f.Close()

	zr, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading gzip header: %w", err)
	}
	defer zr.Close()

	var m Model
	if err := json.NewDecoder(zr).Decode(&m); err != nil {
		return nil, fmt.Errorf("decoding model: %w", err)
	}

	return &m, nil
}

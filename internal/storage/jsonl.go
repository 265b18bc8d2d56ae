// Package storage handles data persistence in JSONL and SQLite formats.
//
// datasets.jsonl plus the per-dataset CSV tables are the git-friendly
// source of truth; the SQLite database is an ephemeral query layer that
// can always be rebuilt from them.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (1MB per line).
const MaxJSONLLineCapacity = 1024 * 1024

// ReadAllDatasets reads all dataset records from a JSONL file.
func ReadAllDatasets(path string) ([]dataset.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening datasets file: %w", err)
	}
	defer f.Close()

	var datasets []dataset.Dataset
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, MaxJSONLLineCapacity)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var ds dataset.Dataset
		if err := json.Unmarshal(line, &ds); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		datasets = append(datasets, ds)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading datasets file: %w", err)
	}

	return datasets, nil
}

// AppendDataset adds a dataset record to the end of a JSONL file.
func AppendDataset(path string, ds dataset.Dataset) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening datasets file for append: %w", err)
	}
	defer f.Close()

	data, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("encoding dataset: %w", err)
	}

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("writing dataset: %w", err)
	}
	if _, err := f.WriteString("\n"); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}

	return nil
}

// WriteAllDatasets writes all dataset records to a JSONL file, replacing
// existing content.
func WriteAllDatasets(path string, datasets []dataset.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating datasets file: %w", err)
	}
	defer f.Close()

	for i, ds := range datasets {
		data, err := json.Marshal(ds)
		if err != nil {
			return fmt.Errorf("encoding dataset %d: %w", i, err)
		}

		if _, err := f.Write(data); err != nil {
			return fmt.Errorf("writing dataset %d: %w", i, err)
		}
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("writing newline: %w", err)
		}
	}

	return nil
}

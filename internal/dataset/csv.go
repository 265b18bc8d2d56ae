package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Expected CSV columns. The inchi column is optional.
const (
	colCompound = "compound"
	colInChI    = "inchi"
	colRT       = "rt"
)

// ReadMeasurements reads a compound,inchi,rt CSV file. Header matching is
// case-insensitive and column order is free. Duplicate compounds keep the
// last row (vendor exports often repeat calibration standards); duplicates
// are detected under keyMode, the repository's compound join key. An empty
// keyMode means inchi.
func ReadMeasurements(path, keyMode string) ([]Measurement, error) {
	if keyMode == "" {
		keyMode = KeyInChI
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}

	compoundIdx, inchiIdx, rtIdx := -1, -1, -1
	for i, col := range header {
		switch strings.ToLower(strings.TrimSpace(col)) {
		case colCompound:
			compoundIdx = i
		case colInChI:
			inchiIdx = i
		case colRT:
			rtIdx = i
		}
	}
	if compoundIdx < 0 || rtIdx < 0 {
		return nil, fmt.Errorf("header must contain 'compound' and 'rt' columns, got %v", header)
	}

	byKey := make(map[string]int)
	var ms []Measurement
	lineNum := 1
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		lineNum++

		compound := strings.TrimSpace(record[compoundIdx])
		if compound == "" {
			return nil, fmt.Errorf("line %d: empty compound name", lineNum)
		}

		rt, err := strconv.ParseFloat(strings.TrimSpace(record[rtIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: parsing rt: %w", lineNum, err)
		}
		if rt <= 0 {
			return nil, fmt.Errorf("line %d: rt must be positive, got %g", lineNum, rt)
		}

		m := Measurement{Compound: compound, RT: rt}
		if inchiIdx >= 0 && inchiIdx < len(record) {
			m.InChI = strings.TrimSpace(record[inchiIdx])
		}

		// Last row wins for duplicates
		key := m.Key(keyMode)
		if idx, seen := byKey[key]; seen {
			ms[idx] = m
			continue
		}
		byKey[key] = len(ms)
		ms = append(ms, m)
	}

	if len(ms) == 0 {
		return nil, fmt.Errorf("no measurements in %s", path)
	}

	return ms, nil
}

// WriteMeasurements writes measurements as a canonical compound,inchi,rt
// CSV. The same canonical form backs the dataset fingerprint, so field
// order and formatting must stay stable.
func WriteMeasurements(path string, ms []Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating data file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{colCompound, colInChI, colRT}); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, m := range ms {
		record := []string{m.Compound, m.InChI, strconv.FormatFloat(m.RT, 'g', -1, 64)}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("writing measurement %s: %w", m.Compound, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flushing data file: %w", err)
	}

	return nil
}

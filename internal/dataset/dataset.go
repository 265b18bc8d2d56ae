// Package dataset defines chromatographic systems and their
// retention-time measurements.
package dataset

import (
	"strings"
	"time"
	"unicode"
)

// Compound key modes used when joining two systems.
const (
	KeyInChI = "inchi"
	KeyName  = "name"
)

// ValidKeyModes lists the supported compound key values.
var ValidKeyModes = []string{KeyInChI, KeyName}

// Dataset describes one chromatographic system. The measurements
// themselves live in a separate CSV file keyed by ID.
type Dataset struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	SystemType    string       `json:"system_type,omitempty"` // e.g. "RP", "HILIC"
	DOI           string       `json:"doi,omitempty"`
	Source        ImportSource `json:"source"`
	AddedAt       time.Time    `json:"added_at"`
	Fingerprint   string       `json:"fingerprint"`
	CompoundCount int          `json:"compound_count"`
}

// ImportSource records where a dataset came from.
type ImportSource struct {
	Type string `json:"type"` // "csv", "remote"
	ID   string `json:"id,omitempty"`
}

// Measurement is one compound's measured retention time in minutes.
type Measurement struct {
	Compound string  `json:"compound"`
	InChI    string  `json:"inchi,omitempty"`
	RT       float64 `json:"rt"`
}

// Key returns the join key for the measurement under the given mode.
// In inchi mode, compounds without an InChI fall back to their name so
// that mixed datasets still join.
func (m Measurement) Key(mode string) string {
	if mode == KeyInChI && m.InChI != "" {
		return m.InChI
	}
	return strings.ToLower(strings.TrimSpace(m.Compound))
}

// ValidKeyMode reports whether mode is a supported compound key.
func ValidKeyMode(mode string) bool {
	for _, v := range ValidKeyModes {
		if mode == v {
			return true
		}
	}
	return false
}

// MakeID derives a stable dataset ID from a system name:
// lowercase, runs of non-alphanumerics collapsed to single underscores.
func MakeID(name string) string {
	var b strings.Builder
	lastUnderscore := true // suppress leading underscore
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimRight(b.String(), "_")
}

// FindByID returns the index of the dataset with the given ID.
func FindByID(datasets []Dataset, id string) (int, bool) {
	for i, ds := range datasets {
		if ds.ID == id {
			return i, true
		}
	}
	return -1, false
}

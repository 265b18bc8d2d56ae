// Package config handles repository configuration and paths.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

// Config represents repository configuration stored in .predret/config.json.
type Config struct {
	CompoundKey       string `json:"compound_key"`                  // "inchi" or "name"
	RemoteURL         string `json:"remote_url,omitempty"`          // PredRet-style data service
	DefaultSystemType string `json:"default_system_type,omitempty"` // e.g. "RP"
}

const (
	PredRetDir       = ".predret"
	ConfigFile       = "config.json"
	PipelineFile     = "pipeline.yml"
	DatasetsFile     = "datasets.jsonl"
	DataDir          = "data"
	ModelsDir        = "models"
	CacheDir         = "cache"
	DBFile           = "predret.db"
	FingerprintsFile = "fingerprints.json"
	IndexJSONFile    = "index.json"
	IndexCSVFile     = "index.csv"
	ReportFile       = "build_report.json"
)

// DefaultConfig returns the configuration written by `predret init`.
func DefaultConfig() *Config {
	return &Config{CompoundKey: dataset.KeyInChI}
}

// PredRetPath returns the path to the .predret directory from a root path.
func PredRetPath(root string) string {
	return filepath.Join(root, PredRetDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, PredRetDir, ConfigFile)
}

// PipelinePath returns the path to pipeline.yml from a root path.
func PipelinePath(root string) string {
	return filepath.Join(root, PredRetDir, PipelineFile)
}

// DatasetsPath returns the path to datasets.jsonl from a root path.
func DatasetsPath(root string) string {
	return filepath.Join(root, PredRetDir, DatasetsFile)
}

// DataPath returns the path to the data directory from a root path.
func DataPath(root string) string {
	return filepath.Join(root, PredRetDir, DataDir)
}

// DatasetCSVPath returns the path to a dataset's RT table.
func DatasetCSVPath(root, id string) string {
	return filepath.Join(root, PredRetDir, DataDir, id+".csv")
}

// ModelsPath returns the path to the models directory from a root path.
func ModelsPath(root string) string {
	return filepath.Join(root, PredRetDir, ModelsDir)
}

// IndexJSONPath returns the path to the model index JSON file.
func IndexJSONPath(root string) string {
	return filepath.Join(root, PredRetDir, ModelsDir, IndexJSONFile)
}

// IndexCSVPath returns the path to the model index CSV file.
func IndexCSVPath(root string) string {
	return filepath.Join(root, PredRetDir, ModelsDir, IndexCSVFile)
}

// ReportPath returns the path to the last build report.
func ReportPath(root string) string {
	return filepath.Join(root, PredRetDir, ModelsDir, ReportFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, PredRetDir, CacheDir)
}

// DBPath returns the path to predret.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, PredRetDir, CacheDir, DBFile)
}

// FingerprintsPath returns the path to the fingerprint snapshot.
func FingerprintsPath(root string) string {
	return filepath.Join(root, PredRetDir, CacheDir, FingerprintsFile)
}

// IsRepository checks if the given path contains a predret repository.
func IsRepository(root string) bool {
	info, err := os.Stat(PredRetPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a predret repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a predret repository (no .predret directory found)")
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.CompoundKey == "" {
		cfg.CompoundKey = dataset.KeyInChI
	}

	return &cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ValidateCompoundKey checks that the compound key value is valid.
func ValidateCompoundKey(key string) error {
	if key == "" {
		return nil // Empty defaults to "inchi"
	}
	if !dataset.ValidKeyMode(key) {
		return fmt.Errorf("invalid compound_key: %s (valid: %v)", key, dataset.ValidKeyModes)
	}
	return nil
}

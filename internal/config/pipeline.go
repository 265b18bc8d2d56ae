package config

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Pipeline build defaults.
const (
	DefaultMinCompounds = 10
	DefaultBatchSize    = 20
	DefaultCILevel      = 0.95
)

// PipelineConfig holds build settings from .predret/pipeline.yml.
// A missing file yields the defaults; CLI flags override both.
type PipelineConfig struct {
	MinCompounds int     `yaml:"min_compounds,omitempty"`
	BatchSize    int     `yaml:"batch_size,omitempty"`
	Workers      int     `yaml:"workers,omitempty"` // 0 = NumCPU
	CILevel      float64 `yaml:"ci_level,omitempty"`
}

// DefaultPipelineConfig returns the build settings used when
// pipeline.yml is absent.
func DefaultPipelineConfig() *PipelineConfig {
	return &PipelineConfig{
		MinCompounds: DefaultMinCompounds,
		BatchSize:    DefaultBatchSize,
		Workers:      runtime.NumCPU(),
		CILevel:      DefaultCILevel,
	}
}

// LoadPipeline reads and validates pipeline.yml from the repository at
// the given root, filling unset fields with defaults.
func LoadPipeline(root string) (*PipelineConfig, error) {
	data, err := os.ReadFile(PipelinePath(root))
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPipelineConfig(), nil
		}
		return nil, fmt.Errorf("reading %s: %w", PipelineFile, err)
	}

	var cfg PipelineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", PipelineFile, err)
	}

	if cfg.MinCompounds <= 0 {
		cfg.MinCompounds = DefaultMinCompounds
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if cfg.CILevel == 0 {
		cfg.CILevel = DefaultCILevel
	}
	if cfg.CILevel <= 0 || cfg.CILevel >= 1 {
		return nil, fmt.Errorf("%s: ci_level must be in (0, 1), got %g", PipelineFile, cfg.CILevel)
	}

	return &cfg, nil
}

// Package main provides the predret CLI entry point.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

// verbose enables debug-level pipeline logging
var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "predret",
	Short: "Cross-system retention time prediction pipeline",
	Long: `predret builds pairwise retention-time calibration models across
chromatographic systems.

Core features:
  - Import RT datasets from CSV files or a remote data service
  - Incremental model building: unchanged dataset pairs are skipped
    via content fingerprints, remaining pairs run in parallel batches
  - Cross-system RT prediction with confidence intervals
  - CSV/JSON/HTML export of the aggregated model index

Data is stored in git-versionable JSONL + CSV with ephemeral SQLite
for queries. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Enable debug logging")
	rootCmd.Version = Version
}

// newLogger builds the pipeline logger. Build events go to stderr so
// stdout stays machine-readable.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	repoRoot, err := config.FindRepository(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n\nRun 'predret init' to create a repository.", err)
	}
	return repoRoot
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// mustLoadDatasets reads dataset metadata from datasets.jsonl.
func mustLoadDatasets(repoRoot string) []dataset.Dataset {
	datasets, err := storage.ReadAllDatasets(config.DatasetsPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "reading datasets: %v", err)
	}
	return datasets
}

// measurementLoader returns a loader that reads a dataset's canonical
// CSV from the data directory, deduplicating under the repository's
// compound key.
func measurementLoader(repoRoot, keyMode string) func(id string) ([]dataset.Measurement, error) {
	return func(id string) ([]dataset.Measurement, error) {
		return dataset.ReadMeasurements(config.DatasetCSVPath(repoRoot, id), keyMode)
	}
}

// currentFingerprints recomputes each dataset's fingerprint from its
// data file without touching datasets.jsonl. Returns the up-to-date
// metadata and whether any fingerprint drifted.
func currentFingerprints(repoRoot string, datasets []dataset.Dataset) ([]dataset.Dataset, bool, error) {
	changed := false
	for i := range datasets {
		fp, err := dataset.Fingerprint(config.DatasetCSVPath(repoRoot, datasets[i].ID))
		if err != nil {
			return nil, false, fmt.Errorf("fingerprinting %s: %w", datasets[i].ID, err)
		}
		if fp != datasets[i].Fingerprint {
			datasets[i].Fingerprint = fp
			changed = true
		}
	}
	return datasets, changed, nil
}

// refreshFingerprints recomputes fingerprints and rewrites
// datasets.jsonl when any drifted (e.g. a CSV edited by hand).
// Read-only commands use currentFingerprints instead.
func refreshFingerprints(repoRoot string, datasets []dataset.Dataset) ([]dataset.Dataset, error) {
	datasets, changed, err := currentFingerprints(repoRoot, datasets)
	if err != nil {
		return nil, err
	}
	if changed {
		if err := storage.WriteAllDatasets(config.DatasetsPath(repoRoot), datasets); err != nil {
			return nil, err
		}
	}
	return datasets, nil
}

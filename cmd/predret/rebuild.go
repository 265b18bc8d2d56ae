package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the query layer from source data",
	Long: `Rebuild the SQLite query database from datasets.jsonl, the data
files, and the model index.

Use this after pulling changes from git or if the database becomes
corrupted.`,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status       string `json:"status"`
	Datasets     int    `json:"datasets"`
	Measurements int    `json:"measurements"`
	Models       int    `json:"models"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	dsCount, mCount, err := db.RebuildFromSource(config.DatasetsPath(repoRoot), config.DataPath(repoRoot), cfg.CompoundKey)
	if err != nil {
		exitWithError(ExitDataError, "rebuilding dataset tables: %v", err)
	}

	idx, err := pipeline.LoadIndex(config.IndexJSONPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if err := db.ReplaceModels(pipeline.IndexRows(idx)); err != nil {
		exitWithError(ExitDataError, "rebuilding models table: %v", err)
	}

	report, err := pipeline.LoadReport(config.ReportPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}
	if report != nil {
		if err := db.ReplaceFailures(report.Failures); err != nil {
			exitWithError(ExitDataError, "rebuilding failures table: %v", err)
		}
	}

	if humanOutput {
		fmt.Printf("Rebuilt query database with %d datasets, %d measurements, and %d models\n",
			dsCount, mCount, len(idx.Entries))
	} else {
		outputJSON(RebuildResult{
			Status:       "rebuilt",
			Datasets:     dsCount,
			Measurements: mCount,
			Models:       len(idx.Entries),
		})
	}

	return nil
}

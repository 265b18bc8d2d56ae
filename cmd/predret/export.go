package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/export"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

var exportOut string

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "", "Output directory (required)")
	exportCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(exportCmd)
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the model index and artifacts",
	Long: `Export the model index as CSV and JSON, an HTML summary report, and
all model artifacts to a directory.

Examples:
  predret export --out site/models`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	idx, err := pipeline.LoadIndex(config.IndexJSONPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	datasets := mustLoadDatasets(repoRoot)

	result, err := export.Export(idx, datasets, config.ModelsPath(repoRoot), exportOut)
	if err != nil {
		exitWithError(ExitError, "exporting: %v", err)
	}

	if humanOutput {
		fmt.Printf("Exported %d models (%d artifacts) to %s\n", result.Models, result.Artifacts, result.Dir)
	} else {
		outputJSON(result)
	}

	return nil
}

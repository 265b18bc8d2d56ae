package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new predret repository",
	Long: `Initialize a new predret repository in the current directory.

Creates:
  .predret/
  ├── config.json      # Default config
  ├── datasets.jsonl   # Empty file
  ├── data/            # Dataset RT tables
  ├── models/          # Model artifacts and index
  └── cache/           # Ephemeral (gitignored)`,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}

	// Check if already initialized
	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a predret repository")
	}

	for _, dir := range []string{
		config.PredRetPath(root),
		config.DataPath(root),
		config.ModelsPath(root),
		config.CachePath(root),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			exitWithError(ExitError, "creating %s: %v", dir, err)
		}
	}

	// Create empty datasets.jsonl
	f, err := os.Create(config.DatasetsPath(root))
	if err != nil {
		exitWithError(ExitError, "creating datasets.jsonl: %v", err)
	}
	f.Close()

	if err := config.DefaultConfig().Save(root); err != nil {
		exitWithError(ExitError, "writing default config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Initialized predret repository in %s\n", config.PredRetPath(root))
	} else {
		outputJSON(StatusResponse{Status: "initialized", Path: config.PredRetPath(root)})
	}

	return nil
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

func init() {
	rootCmd.AddCommand(checkCmd)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the model index is up to date",
	Long: `Check the model index against the current datasets.

Exits with a dedicated status code when any pair needs rebuilding, so
the command can gate scripted exports.`,
	RunE: runCheck,
}

// CheckResult is the response for the check command.
type CheckResult struct {
	Status          string   `json:"status"` // up-to-date, stale
	DatasetsTotal   int      `json:"datasets_total"`
	DatasetsNew     []string `json:"datasets_new,omitempty"`
	DatasetsChanged []string `json:"datasets_changed,omitempty"`
	DatasetsRemoved []string `json:"datasets_removed,omitempty"`
	PairsToBuild    int      `json:"pairs_to_build"`
	PairsToEvict    int      `json:"pairs_to_evict"`
	PairsUpToDate   int      `json:"pairs_up_to_date"`
	ModelsIndexed   int      `json:"models_indexed"`
	Recommendation  string   `json:"recommendation,omitempty"`
}

func runCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	pcfg, err := config.LoadPipeline(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}

	// check is read-only: fingerprints are recomputed for the diff but
	// datasets.jsonl is left untouched.
	datasets, _, err := currentFingerprints(repoRoot, mustLoadDatasets(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	prev, err := pipeline.LoadSnapshot(config.FingerprintsPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	modelsDir := config.ModelsPath(repoRoot)
	plan, err := pipeline.BuildPlan(datasets, measurementLoader(repoRoot, cfg.CompoundKey), prev,
		func(sys1, sys2 string) bool { return pipeline.HasArtifact(modelsDir, sys1, sys2) },
		pipeline.PlanOptions{MinCompounds: pcfg.MinCompounds, CompoundKey: cfg.CompoundKey})
	if err != nil {
		exitWithError(ExitDataError, "planning: %v", err)
	}

	idx, err := pipeline.LoadIndex(config.IndexJSONPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	status := "up-to-date"
	var recommendation string
	exitCode := ExitSuccess
	if len(plan.Jobs) > 0 || len(plan.Diff.Removed) > 0 || len(plan.Stale) > 0 {
		status = "stale"
		recommendation = "Run 'predret build' to update the models"
		exitCode = ExitStale
	}

	result := CheckResult{
		Status:          status,
		DatasetsTotal:   len(datasets),
		DatasetsNew:     plan.Diff.New,
		DatasetsChanged: plan.Diff.Changed,
		DatasetsRemoved: plan.Diff.Removed,
		PairsToBuild:    len(plan.Jobs),
		PairsToEvict:    len(plan.Stale),
		PairsUpToDate:   plan.UpToDate,
		ModelsIndexed:   len(idx.Entries),
		Recommendation:  recommendation,
	}

	if humanOutput {
		fmt.Printf("Model index status: %s\n\n", result.Status)
		fmt.Printf("Datasets:\n")
		fmt.Printf("  Total: %d\n", result.DatasetsTotal)
		fmt.Printf("  New: %d, changed: %d, removed: %d\n",
			len(result.DatasetsNew), len(result.DatasetsChanged), len(result.DatasetsRemoved))
		fmt.Printf("\nPairs:\n")
		fmt.Printf("  To build: %d\n", result.PairsToBuild)
		fmt.Printf("  To evict: %d\n", result.PairsToEvict)
		fmt.Printf("  Up to date: %d\n", result.PairsUpToDate)
		fmt.Printf("  Models indexed: %d\n", result.ModelsIndexed)
		if result.Recommendation != "" {
			fmt.Printf("\n%s\n", result.Recommendation)
		}
	} else {
		outputJSON(result)
	}

	if exitCode != ExitSuccess {
		os.Exit(exitCode)
	}
	return nil
}

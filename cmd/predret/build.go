package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/calib"
	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/pipeline"
)

var (
	buildMinCompounds int
	buildBatchSize    int
	buildWorkers      int
	buildForce        bool
	noProgress        bool
)

func init() {
	buildCmd.Flags().IntVar(&buildMinCompounds, "min-compounds", 0, "Minimum shared compounds per pair (default from pipeline.yml)")
	buildCmd.Flags().IntVar(&buildBatchSize, "batch-size", 0, "Pairs per batch (default from pipeline.yml)")
	buildCmd.Flags().IntVar(&buildWorkers, "workers", 0, "Parallel workers per batch (default from pipeline.yml)")
	buildCmd.Flags().BoolVar(&buildForce, "force", false, "Rebuild all pairs regardless of fingerprints")
	buildCmd.Flags().BoolVar(&noProgress, "no-progress", false, "Suppress progress output")
	rootCmd.AddCommand(buildCmd)
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build pairwise calibration models",
	Long: `Build calibration models for every ordered pair of datasets with
enough shared compounds.

Unchanged pairs are skipped: datasets are fingerprinted and diffed
against the snapshot from the last completed build. Scheduled pairs run
in fixed-size batches through a parallel worker pool. Failed pairs are
recorded in the build report and never abort the run.

Examples:
  predret build
  predret build --force --workers 8`,
	RunE: runBuild,
}

// BuildResult is the response for the build command.
type BuildResult struct {
	Status          string  `json:"status"`
	RunID           string  `json:"run_id"`
	DatasetsNew     int     `json:"datasets_new"`
	DatasetsChanged int     `json:"datasets_changed"`
	DatasetsRemoved int     `json:"datasets_removed"`
	PairsBuilt      int     `json:"pairs_built"`
	PairsFailed     int     `json:"pairs_failed"`
	PairsUpToDate   int     `json:"pairs_up_to_date"`
	BelowOverlap    int     `json:"below_overlap"`
	Evicted         int     `json:"evicted"`
	Batches         int     `json:"batches"`
	TotalModels     int     `json:"total_models"`
	DurationSeconds float64 `json:"duration_seconds"`
}

func runBuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	pcfg, err := config.LoadPipeline(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	if buildMinCompounds > 0 {
		pcfg.MinCompounds = buildMinCompounds
	}
	if buildBatchSize > 0 {
		pcfg.BatchSize = buildBatchSize
	}
	if buildWorkers > 0 {
		pcfg.Workers = buildWorkers
	}

	datasets, err := refreshFingerprints(repoRoot, mustLoadDatasets(repoRoot))
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
		pipeline.PlanOptions{
			MinCompounds: pcfg.MinCompounds,
			CompoundKey:  cfg.CompoundKey,
			Force:        buildForce,
		})
	if err != nil {
		exitWithError(ExitDataError, "planning build: %v", err)
	}

	builder := pipeline.NewBuilder(pcfg.BatchSize, pcfg.Workers,
		calib.Options{MinCompounds: pcfg.MinCompounds, CILevel: pcfg.CILevel},
		newLogger())

	showProgress := humanOutput && !noProgress
	if showProgress {
		builder.SetProgressReporter(pipeline.ProgressFunc(printProgress))
		fmt.Fprintf(os.Stderr, "Building %d model(s) in %d batch(es)...\n",
			len(plan.Jobs), batchCount(len(plan.Jobs), pcfg.BatchSize))
	}

	results, stats, err := builder.Run(context.Background(), plan.Jobs)
	if err != nil {
		exitWithError(ExitError, "build run: %v", err)
	}
	stats.UpToDate = plan.UpToDate
	stats.BelowOverlap = plan.BelowOverlap

	idx, err := pipeline.LoadIndex(config.IndexJSONPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	failures, err := pipeline.Apply(idx, results, plan.Diff.Removed, plan.Stale, stats, modelsDir)
	if err != nil {
		exitWithError(ExitError, "applying results: %v", err)
	}

	if err := idx.Save(config.IndexJSONPath(repoRoot)); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := idx.WriteCSV(config.IndexCSVPath(repoRoot)); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	report := &pipeline.Report{
		RunID:      stats.RunID,
		StartedAt:  idx.GeneratedAt.Add(-stats.Duration),
		FinishedAt: idx.GeneratedAt,
		Stats:      *stats,
		Failures:   failures,
	}
	if err := report.Save(config.ReportPath(repoRoot)); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// The snapshot is written last: an interrupted run must redo its
	// work on the next build.
	if err := pipeline.SaveSnapshot(config.FingerprintsPath(repoRoot), pipeline.SnapshotOf(datasets)); err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// Refresh the query layer
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	if err := db.ReplaceModels(pipeline.IndexRows(idx)); err != nil {
		exitWithError(ExitError, "refreshing models table: %v", err)
	}
	if err := db.ReplaceFailures(failures); err != nil {
		exitWithError(ExitError, "refreshing failures table: %v", err)
	}

	if showProgress {
		clearProgressLine()
	}
	outputBuildResults(plan, stats, len(idx.Entries))

	return nil
}

// outputBuildResults outputs the build statistics in the appropriate format.
func outputBuildResults(plan *pipeline.Plan, stats *pipeline.BuildStats, totalModels int) {
	if humanOutput {
		fmt.Printf("\nBuild complete:\n")
		fmt.Printf("  Datasets: %d new, %d changed, %d removed\n",
			len(plan.Diff.New), len(plan.Diff.Changed), len(plan.Diff.Removed))
		fmt.Printf("  Pairs built: %d (%d failed)\n", stats.Built, stats.Failed)
		fmt.Printf("  Pairs up to date: %d\n", stats.UpToDate)
		fmt.Printf("  Below overlap threshold: %d\n", stats.BelowOverlap)
		if stats.Evicted > 0 {
			fmt.Printf("  Evicted models: %d\n", stats.Evicted)
		}
		fmt.Printf("  Total models: %d\n", totalModels)
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
	} else {
		outputJSON(BuildResult{
			Status:          "complete",
			RunID:           stats.RunID,
			DatasetsNew:     len(plan.Diff.New),
			DatasetsChanged: len(plan.Diff.Changed),
			DatasetsRemoved: len(plan.Diff.Removed),
			PairsBuilt:      stats.Built,
			PairsFailed:     stats.Failed,
			PairsUpToDate:   stats.UpToDate,
			BelowOverlap:    stats.BelowOverlap,
			Evicted:         stats.Evicted,
			Batches:         stats.Batches,
			TotalModels:     totalModels,
			DurationSeconds: stats.Duration.Seconds(),
		})
	}
}

// batchCount is ceiling division for the progress banner.
func batchCount(jobs, batchSize int) int {
	if jobs == 0 {
		return 0
	}
	return (jobs + batchSize - 1) / batchSize
}

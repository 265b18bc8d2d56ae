package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/calib"
	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/pipeline"
	"github.com/stanstrup/rePredRet/internal/predict"
)

var predictLimit int

func init() {
	predictCmd.Flags().IntVar(&predictLimit, "limit", 0, "Maximum predictions to return (0 = all)")
	rootCmd.AddCommand(predictCmd)
}

var predictCmd = &cobra.Command{
	Use:   "predict <system>",
	Short: "Predict retention times for a target system",
	Long: `Predict retention times in the target system for compounds measured
in other systems but not in the target.

Every model into the target contributes a projection; per compound the
median is reported with the widest combined confidence interval.

Examples:
  predret predict life_old
  predret predict life_old --human --limit 20`,
	Args: cobra.ExactArgs(1),
	RunE: runPredict,
}

// PredictResult is the response for the predict command.
type PredictResult struct {
	System      string               `json:"system"`
	Predictions []predict.Prediction `json:"predictions"`
}

func runPredict(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	target := args[0]

	datasets := mustLoadDatasets(repoRoot)
	modelsDir := config.ModelsPath(repoRoot)

	loadModel := func(sys1, sys2 string) (*calib.Model, error) {
		if !pipeline.HasArtifact(modelsDir, sys1, sys2) {
			return nil, nil
		}
		return calib.ReadArtifact(filepath.Join(modelsDir, calib.ArtifactName(sys1, sys2)))
	}

	predictions, err := predict.ForSystem(target, datasets, measurementLoader(repoRoot, cfg.CompoundKey), loadModel, cfg.CompoundKey)
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	if predictLimit > 0 && predictLimit < len(predictions) {
		predictions = predictions[:predictLimit]
	}

	if humanOutput {
		if len(predictions) == 0 {
			fmt.Fprintf(os.Stderr, "No predictions for %s (no models into this system, or no unmeasured compounds)\n", target)
			return nil
		}
		fmt.Printf("%d predicted retention times for %s:\n\n", len(predictions), target)
		fmt.Printf("  %8s  %8s  %8s  %6s  %s\n", "rt", "lower", "upper", "models", "compound")
		for _, p := range predictions {
			fmt.Printf("  %8.3f  %8.3f  %8.3f  %6d  %s\n", p.RT, p.Lower, p.Upper, p.Models, p.Compound)
		}
	} else {
		if predictions == nil {
			predictions = []predict.Prediction{}
		}
		outputJSON(PredictResult{System: target, Predictions: predictions})
	}

	return nil
}

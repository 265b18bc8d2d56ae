package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

var getRTs bool

func init() {
	getCmd.Flags().BoolVar(&getRTs, "rts", false, "Include the retention time table")
	rootCmd.AddCommand(getCmd)
}

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runGet,
}

// DatasetDetail is the response for the get command.
type DatasetDetail struct {
	dataset.Dataset
	Measurements []dataset.Measurement `json:"measurements,omitempty"`
}

func runGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	ds, err := db.GetDataset(args[0])
	if err != nil {
		exitWithError(ExitError, "getting dataset: %v", err)
	}
	if ds == nil {
		exitWithError(ExitDataError, "dataset not found: %s", args[0])
	}

	detail := DatasetDetail{Dataset: *ds}
	if getRTs {
		ms, err := db.GetMeasurements(ds.ID)
		if err != nil {
			exitWithError(ExitError, "getting measurements: %v", err)
		}
		detail.Measurements = ms
	}

	if humanOutput {
		fmt.Printf("%s\n", ds.ID)
		fmt.Printf("  Name: %s\n", ds.Name)
		if ds.SystemType != "" {
			fmt.Printf("  Type: %s\n", ds.SystemType)
		}
		if ds.DOI != "" {
			fmt.Printf("  DOI: %s\n", ds.DOI)
		}
		fmt.Printf("  Compounds: %d\n", ds.CompoundCount)
		fmt.Printf("  Source: %s\n", ds.Source.Type)
		fmt.Printf("  Fingerprint: %s\n", truncateString(ds.Fingerprint, 16))
		if getRTs {
			fmt.Println()
			for _, m := range detail.Measurements {
				fmt.Printf("  %8.3f  %s\n", m.RT, m.Compound)
			}
		}
	} else {
		outputJSON(detail)
	}

	return nil
}

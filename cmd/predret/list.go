package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/dataset"
)

var listLimit int

func init() {
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "Maximum results to return (0 = all)")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all datasets",
	Long: `List all datasets in the repository.

Examples:
  predret list
  predret list --limit 20`,
	RunE: runList,
}

func runList(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	datasets, err := db.ListDatasets(listLimit)
	if err != nil {
		exitWithError(ExitError, "listing datasets: %v", err)
	}

	// Get total count for human output
	total, _ := db.CountDatasets()

	if humanOutput {
		if len(datasets) == 0 {
			fmt.Println("No datasets in repository")
		} else {
			if listLimit > 0 && listLimit < total {
				fmt.Printf("%d datasets (showing first %d):\n\n", total, len(datasets))
			} else {
				fmt.Printf("%d datasets in repository:\n\n", len(datasets))
			}
			for _, ds := range datasets {
				fmt.Printf("  %-24s %-6s %5d compounds  %s\n",
					ds.ID, ds.SystemType, ds.CompoundCount, truncateString(ds.Name, 40))
			}
		}
	} else {
		if datasets == nil {
			datasets = []dataset.Dataset{}
		}
		outputJSON(datasets)
	}

	return nil
}

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/pdfmeta"
	"github.com/stanstrup/rePredRet/internal/storage"
)

var (
	importName       string
	importID         string
	importSystemType string
	importReport     string
)

func init() {
	importCmd.Flags().StringVar(&importName, "name", "", "System name (required)")
	importCmd.Flags().StringVar(&importID, "id", "", "Dataset ID (default: derived from name)")
	importCmd.Flags().StringVar(&importSystemType, "system-type", "", "Chromatographic system type, e.g. RP or HILIC")
	importCmd.Flags().StringVar(&importReport, "report", "", "Method report PDF to extract the publication DOI from")
	importCmd.MarkFlagRequired("name")
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <csv>",
	Short: "Import a retention time dataset from a CSV file",
	Long: `Import a retention time dataset from a CSV file.

The CSV must have 'compound' and 'rt' columns; an 'inchi' column is
optional but recommended for cross-dataset compound matching.
Re-importing an existing dataset ID replaces its data.

Examples:
  predret import rts.csv --name "LIFE old" --system-type HILIC
  predret import rts.csv --name "RIKEN" --report method_paper.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

// ImportResult is the response for the import command.
type ImportResult struct {
	Status    string `json:"status"` // imported, updated
	ID        string `json:"id"`
	Name      string `json:"name"`
	Compounds int    `json:"compounds"`
	DOI       string `json:"doi,omitempty"`
}

func runImport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	ms, err := dataset.ReadMeasurements(args[0], cfg.CompoundKey)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", args[0], err)
	}

	id := importID
	if id == "" {
		id = dataset.MakeID(importName)
	}
	if id == "" {
		exitWithError(ExitDataError, "cannot derive a dataset ID from name %q", importName)
	}

	systemType := importSystemType
	if systemType == "" {
		systemType = cfg.DefaultSystemType
	}

	var doi string
	if importReport != "" {
		doi, err = pdfmeta.ExtractDOI(importReport)
		if err != nil {
			exitWithError(ExitDataError, "extracting DOI from %s: %v", importReport, err)
		}
	}

	// Write the canonical data file; the fingerprint hashes this file,
	// not the user's input CSV.
	csvPath := config.DatasetCSVPath(repoRoot, id)
	if err := dataset.WriteMeasurements(csvPath, ms); err != nil {
		exitWithError(ExitError, "writing data file: %v", err)
	}
	fingerprint, err := dataset.Fingerprint(csvPath)
	if err != nil {
		exitWithError(ExitError, "fingerprinting data file: %v", err)
	}

	ds := dataset.Dataset{
		ID:            id,
		Name:          importName,
		SystemType:    systemType,
		DOI:           doi,
		Source:        dataset.ImportSource{Type: "csv"},
		AddedAt:       time.Now().UTC(),
		Fingerprint:   fingerprint,
		CompoundCount: len(ms),
	}

	datasetsPath := config.DatasetsPath(repoRoot)
	datasets := mustLoadDatasets(repoRoot)

	status := "imported"
	if i, ok := dataset.FindByID(datasets, id); ok {
		status = "updated"
		ds.AddedAt = datasets[i].AddedAt
		if doi == "" {
			ds.DOI = datasets[i].DOI
		}
		datasets[i] = ds
		if err := storage.WriteAllDatasets(datasetsPath, datasets); err != nil {
			exitWithError(ExitError, "updating datasets.jsonl: %v", err)
		}
	} else {
		if err := storage.AppendDataset(datasetsPath, ds); err != nil {
			exitWithError(ExitError, "appending to datasets.jsonl: %v", err)
		}
	}

	// Refresh the query layer
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	if _, _, err := db.RebuildFromSource(datasetsPath, config.DataPath(repoRoot), cfg.CompoundKey); err != nil {
		exitWithError(ExitError, "refreshing query database: %v", err)
	}

	if humanOutput {
		fmt.Printf("%s %s (%d compounds)\n", status, id, len(ms))
		if ds.DOI != "" {
			fmt.Printf("  DOI: %s\n", ds.DOI)
		}
	} else {
		outputJSON(ImportResult{Status: status, ID: id, Name: importName, Compounds: len(ms), DOI: ds.DOI})
	}

	return nil
}

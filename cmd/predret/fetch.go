package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
	"github.com/stanstrup/rePredRet/internal/dataset"
	"github.com/stanstrup/rePredRet/internal/remote"
	"github.com/stanstrup/rePredRet/internal/storage"
)

var (
	fetchURL     string
	fetchSystems string
)

func init() {
	fetchCmd.Flags().StringVar(&fetchURL, "url", "", "Base URL of the data service (default: remote_url from config)")
	fetchCmd.Flags().StringVar(&fetchSystems, "systems", "", "Fetch only specified system IDs (comma-separated)")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch datasets from a remote data service",
	Long: `Fetch retention time datasets from a PredRet-style data service.

Reads PREDRET_API_KEY from the environment (or a .env file) for
authenticated services.

Examples:
  predret fetch --url https://predret.org/api
  predret fetch --systems life_old,riken`,
	RunE: runFetch,
}

// FetchResult is the response for the fetch command.
type FetchResult struct {
	Status  string   `json:"status"`
	Fetched int      `json:"fetched"`
	Systems []string `json:"systems"`
}

func runFetch(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	baseURL := fetchURL
	if baseURL == "" {
		baseURL = cfg.RemoteURL
	}
	if baseURL == "" {
		exitWithError(ExitConfigError, "no data service URL: pass --url or set remote_url in config")
	}

	var only map[string]struct{}
	if fetchSystems != "" {
		only = make(map[string]struct{})
		for _, id := range strings.Split(fetchSystems, ",") {
			only[strings.TrimSpace(id)] = struct{}{}
		}
	}

	ctx := context.Background()
	client := remote.NewClient(baseURL)

	systems, err := client.ListSystems(ctx)
	if err != nil {
		exitWithError(ExitDataError, "listing remote systems: %v", err)
	}

	datasetsPath := config.DatasetsPath(repoRoot)
	datasets := mustLoadDatasets(repoRoot)

	var fetched []string
	for _, info := range systems {
		if only != nil {
			if _, ok := only[info.ID]; !ok {
				continue
			}
		}

		ms, err := client.FetchSystem(ctx, info.ID)
		if err != nil {
			exitWithError(ExitDataError, "fetching system %s: %v", info.ID, err)
		}

		id := dataset.MakeID(info.ID)
		csvPath := config.DatasetCSVPath(repoRoot, id)
		if err := dataset.WriteMeasurements(csvPath, ms); err != nil {
			exitWithError(ExitError, "writing data file for %s: %v", id, err)
		}
		fingerprint, err := dataset.Fingerprint(csvPath)
		if err != nil {
			exitWithError(ExitError, "fingerprinting %s: %v", id, err)
		}

		ds := dataset.Dataset{
			ID:            id,
			Name:          info.Name,
			SystemType:    info.SystemType,
			Source:        dataset.ImportSource{Type: "remote", ID: info.ID},
			AddedAt:       time.Now().UTC(),
			Fingerprint:   fingerprint,
			CompoundCount: len(ms),
		}
		if i, ok := dataset.FindByID(datasets, id); ok {
			ds.AddedAt = datasets[i].AddedAt
			ds.DOI = datasets[i].DOI
			datasets[i] = ds
		} else {
			datasets = append(datasets, ds)
		}
		fetched = append(fetched, id)
	}

	if err := storage.WriteAllDatasets(datasetsPath, datasets); err != nil {
		exitWithError(ExitError, "writing datasets.jsonl: %v", err)
	}

	// Refresh the query layer
	db := mustOpenDatabase(repoRoot)
	defer db.Close()
	if _, _, err := db.RebuildFromSource(datasetsPath, config.DataPath(repoRoot), cfg.CompoundKey); err != nil {
		exitWithError(ExitError, "refreshing query database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Fetched %d systems from %s\n", len(fetched), baseURL)
		for _, id := range fetched {
			fmt.Printf("  %s\n", id)
		}
	} else {
		if fetched == nil {
			fetched = []string{}
		}
		outputJSON(FetchResult{Status: "fetched", Fetched: len(fetched), Systems: fetched})
	}

	return nil
}

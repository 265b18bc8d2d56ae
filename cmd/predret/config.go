package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stanstrup/rePredRet/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Get and set repository configuration",
}

// ConfigResponse is the response for config get.
type ConfigResponse struct {
	CompoundKey       string `json:"compound_key"`
	RemoteURL         string `json:"remote_url,omitempty"`
	DefaultSystemType string `json:"default_system_type,omitempty"`
}

// UpdateResponse is the response for config set.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

var configGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show repository configuration",
	RunE:  runConfigGet,
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	if humanOutput {
		fmt.Printf("compound_key: %s\n", cfg.CompoundKey)
		if cfg.RemoteURL != "" {
			fmt.Printf("remote_url: %s\n", cfg.RemoteURL)
		}
		if cfg.DefaultSystemType != "" {
			fmt.Printf("default_system_type: %s\n", cfg.DefaultSystemType)
		}
	} else {
		outputJSON(ConfigResponse{
			CompoundKey:       cfg.CompoundKey,
			RemoteURL:         cfg.RemoteURL,
			DefaultSystemType: cfg.DefaultSystemType,
		})
	}

	return nil
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value.

Keys:
  compound_key          Compound join key: inchi or name
  remote_url            Base URL of the remote data service
  default_system_type   System type applied to imports without --system-type`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)

	key, value := args[0], args[1]
	switch key {
	case "compound_key":
		if err := config.ValidateCompoundKey(value); err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		cfg.CompoundKey = value
	case "remote_url":
		cfg.RemoteURL = value
	case "default_system_type":
		cfg.DefaultSystemType = value
	default:
		exitWithError(ExitError, "unknown config key: %s", key)
	}

	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}

	return nil
}

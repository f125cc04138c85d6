package main

import (
	"os"

	"github.com/spf13/cobra"
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

// configFile is the --config flag shared by every subcommand.
var configFile string

// NewRootCmd creates the root command. Without a subcommand it serves.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vidhub",
		Short: "vidhub - video and social platform backend",
		Long: `vidhub serves the HTTP API for accounts, videos, tweets, comments,
likes, subscriptions and playlists.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), getConfigPath())
		},
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (default $VIDHUB_CONFIG or "+defaultConfigPath+")")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())
	cmd.AddCommand(NewHashPasswordCmd())

	return cmd
}

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), getConfigPath())
		},
	}
}

// getConfigPath returns the configuration file path.
// The --config flag wins, then VIDHUB_CONFIG, then the default.
func getConfigPath() string {
	if configFile != "" {
		return configFile
	}
	if path := os.Getenv("VIDHUB_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

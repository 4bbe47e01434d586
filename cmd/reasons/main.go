package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "reasons <command>",
	Short: "Local editor backend for the reasons document",
	Long: `reasons serves a single-page editor for a JSON list of reasons, saves
every edit to disk and snapshots the file in git when it changed.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", os.Getenv("EDITOR_CONFIG"), "path to a TOML config file")

	rootCmd.AddGroup(
		&cobra.Group{ID: "run", Title: "Run:"},
		&cobra.Group{ID: "inspect", Title: "Inspect:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Run
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(snapshotCmd)

	// Inspect
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

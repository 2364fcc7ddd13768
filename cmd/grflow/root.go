package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "grflow",
	Short: "grflow builds and runs signal-processing flowgraphs",
	Long: `grflow is a convenience layer around a channel-based flowgraph engine:
describe a chain of source, processing and sink blocks in a JSON or YAML
scenario, drive it with file or message stimulus, and sweep component
parameters into one output artifact per combination.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
}

// appLogger builds the logger configured by the persistent flags.
func appLogger(cmd *cobra.Command) (*slog.Logger, error) {
	levelName, _ := cmd.Flags().GetString("log-level")
	format, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	return logging.New(level, format)
}

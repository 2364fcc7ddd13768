package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow/internal/logging"
	"github.com/geontech/grflow/pkg/install"
)

// installCmd batch-installs GRC description files via the external grcc
// compiler.
var installCmd = &cobra.Command{
	Use:   "install <dir>",
	Short: "Compile and install every GRC file under a directory",
	Long: `Recursively collects .grc files and compiles each through grcc into the
target directory. Files that fail are retried in later passes, so
hierarchical blocks that depend on each other install without declaring an
order; the loop stops once a full pass makes no progress. The pass/fail
report is appended to the log file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetString("target")
		logPath, _ := cmd.Flags().GetString("log")
		levelName, _ := cmd.Flags().GetString("log-level")

		level, err := logging.ParseLevel(levelName)
		if err != nil {
			return err
		}
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer logFile.Close()
		logger := slog.New(slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: level}))

		files, err := install.ListFiles(args[0])
		if err != nil {
			return err
		}
		logger.Info("install starting", "dir", args[0], "files", len(files), "target", target)

		res := install.InstallAll(cmd.Context(), files, target, &install.GRCC{}, logger)

		for _, f := range res.Passed {
			logger.Info("passed", "file", f)
		}
		for _, f := range res.Failed {
			logger.Warn("failed", "file", f)
		}
		fmt.Printf("Installed %d of %d GRC files (%d failed)\n",
			len(res.Passed), len(files), len(res.Failed))
		if len(res.Failed) > 0 {
			fmt.Printf("See %s for details\n", logPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(installCmd)
	installCmd.Flags().String("target", os.ExpandEnv("$HOME/.grc_gnuradio"), "Directory to install compiled blocks into")
	installCmd.Flags().String("log", "/tmp/install_grc.log", "Location of the install log file")
}

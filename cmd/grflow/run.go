package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/geontech/grflow"
)

// runCmd executes a scenario document.
var runCmd = &cobra.Command{
	Use:   "run <scenario.(json|yaml)>",
	Short: "Build and execute a flowgraph scenario",
	Long: `Loads a scenario document, constructs every declared component through the
registry, wires the connections and executes under the declared run mode:
"time" stops after a fixed duration, "user" waits for enter, "data" runs
until the limiting block has passed its quota.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := appLogger(cmd)
		if err != nil {
			return err
		}

		eng, err := grflow.New(grflow.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to init engine: %w", err)
		}

		if addr, _ := cmd.Flags().GetString("metrics"); addr != "" {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				logger.Info("metrics listening", "addr", addr)
				if err := http.ListenAndServe(addr, mux); err != nil {
					logger.Error("metrics server stopped", "error", err)
				}
			}()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return eng.RunFile(ctx, args[0], os.Stdin)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().String("metrics", "", "Serve Prometheus metrics on this address during the run")
}

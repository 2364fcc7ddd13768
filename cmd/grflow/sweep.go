package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow"
	"github.com/geontech/grflow/pkg/simulate"
)

// sweepCmd runs the batch simulation driver.
var sweepCmd = &cobra.Command{
	Use:   "sweep <sweep.(json|yaml)>",
	Short: "Run one bounded simulation per parameter combination",
	Long: `Expands the declared parameter space into its full Cartesian product and
runs the component under test once per combination: stimulus file in,
size-limited output file out. Output files are numbered in sweep order and a
manifest maps each file back to the parameters that produced it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := appLogger(cmd)
		if err != nil {
			return err
		}

		cfg, err := simulate.LoadSweep(args[0])
		if err != nil {
			return err
		}

		eng, err := grflow.New(grflow.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("failed to init engine: %w", err)
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		man, err := simulate.Sweep(ctx, eng.Registry(), *cfg, simulate.WithLogger(logger))
		if err != nil {
			return err
		}
		fmt.Printf("Sweep %s complete: %d runs\n", man.ID, len(man.Runs))
		for _, rec := range man.Runs {
			fmt.Printf("  %s <- %v\n", rec.Path, rec.Params)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sweepCmd)
}

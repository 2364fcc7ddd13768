package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow"
	"github.com/geontech/grflow/pkg/scenario"
)

// blocksCmd lists the component registry.
var blocksCmd = &cobra.Command{
	Use:   "blocks",
	Short: "List the available component types",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := grflow.New()
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		for _, name := range eng.Registry().Types() {
			e, _ := eng.Registry().Lookup(name)
			fmt.Fprintf(w, "%s\t%s\n", name, e.Summary)
		}
		// Reserved device types resolve outside the registry.
		fmt.Fprintf(w, "%s\t%s\n", scenario.TypeRadioSource, "receive samples from a radio device")
		fmt.Fprintf(w, "%s\t%s\n", scenario.TypeRadioSink, "transmit samples through a radio device")
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(blocksCmd)
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow"
)

var validateCmd = &cobra.Command{
	Use:   "validate <scenario.(json|yaml)>",
	Short: "Check a scenario for consistency without running it",
	Long: `Parses the document, constructs every component and wires every connection,
reporting the first missing section, unknown component type, dangling
endpoint or unrecognized run mode. Nothing is executed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		logger, err := appLogger(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		eng, err := grflow.New(grflow.WithLogger(logger))
		if err != nil {
			fmt.Printf("Failed to init engine: %v\n", err)
			os.Exit(1)
		}
		if err := eng.ValidateFile(args[0]); err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Scenario is valid.")
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

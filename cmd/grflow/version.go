package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of grflow",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("grflow version %s\n", strings.TrimSpace(grflow.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

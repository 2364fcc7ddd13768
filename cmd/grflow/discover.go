package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow/pkg/radio"
)

// discoverCmd browses mDNS for network-attached radio devices.
var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find radio devices on the local network",
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")

		hosts, err := radio.Discover(timeout)
		if err != nil {
			return err
		}
		if len(hosts) == 0 {
			fmt.Println("No radio devices found")
			return nil
		}
		for _, h := range hosts {
			fmt.Printf("%s\t%s\n", h.Instance, h.Addr())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(discoverCmd)
	discoverCmd.Flags().Duration("timeout", 3*time.Second, "How long to browse for devices")
}

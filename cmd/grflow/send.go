package main

import (
	"fmt"
	"net"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/geontech/grflow/pkg/sender"
)

// sendCmd transmits a debug payload at a listening flowgraph input.
var sendCmd = &cobra.Command{
	Use:   "send (udp|tcp)",
	Short: "Send a debug message to an address and port",
	Long: `Fire-and-forget stimulus injection for manual testing: transmits either a
literal message or a run of random bytes to the given address over UDP or
TCP. No framing, no retries, no acknowledgement.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"udp", "tcp"},
	RunE: func(cmd *cobra.Command, args []string) error {
		host, _ := cmd.Flags().GetString("host")
		port, _ := cmd.Flags().GetInt("port")
		message, _ := cmd.Flags().GetString("message")
		random, _ := cmd.Flags().GetInt("random")

		var payload []byte
		switch {
		case random > 0:
			payload = sender.RandomPayload(random)
		case message != "":
			payload = []byte(message)
		default:
			return fmt.Errorf("either --message or --random is required")
		}

		addr := net.JoinHostPort(host, strconv.Itoa(port))
		var err error
		switch args[0] {
		case "udp":
			err = sender.SendUDP(addr, payload)
		case "tcp":
			err = sender.SendTCP(addr, payload)
		default:
			return fmt.Errorf("unknown mode %q: want udp or tcp", args[0])
		}
		if err != nil {
			return err
		}
		fmt.Printf("Sent %d bytes to %s via %s\n", len(payload), addr, args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)
	sendCmd.Flags().String("host", "localhost", "Destination address")
	sendCmd.Flags().Int("port", 52001, "Destination port")
	sendCmd.Flags().String("message", "", "Literal message to send")
	sendCmd.Flags().Int("random", 0, "Send this many random bytes instead of a message")
}

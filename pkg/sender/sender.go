// Package sender transmits debug payloads at a flowgraph's network inputs:
// fire-and-forget, raw bytes, no framing and no acknowledgement. It exists
// for poking a udp_source (or any listening socket) during manual testing.
package sender

import (
	"fmt"
	"math/rand"
	"net"
	"time"
)

const dialTimeout = 3 * time.Second

// RandomPayload returns n pseudorandom bytes.
func RandomPayload(n int) []byte {
	buf := make([]byte, n)
	rand.Read(buf)
	return buf
}

// SendUDP transmits one datagram. There is no persistent resource to
// release; errors from the single write propagate to the caller.
func SendUDP(addr string, payload []byte) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return fmt.Errorf("send udp to %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send udp to %s: %w", addr, err)
	}
	return nil
}

// SendTCP connects, writes the whole payload and closes the connection. The
// deferred close runs on every exit path, including write failures.
func SendTCP(addr string, payload []byte) error {
	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("send tcp to %s: %w", addr, err)
	}
	defer conn.Close()

	if _, err := conn.Write(payload); err != nil {
		return fmt.Errorf("send tcp to %s: %w", addr, err)
	}
	return nil
}

package radio

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/cenkalti/backoff"
)

const dialTimeout = 3 * time.Second

// tuneRequest is the JSON control message sent after connecting. The device
// answers with one ack line before raw samples flow.
type tuneRequest struct {
	Direction  string  `json:"direction"`
	SampleRate float64 `json:"sample_rate"`
	Freq       float64 `json:"freq"`
	Gain       float64 `json:"gain"`
	AGC        bool    `json:"agc"`
	Antenna    string  `json:"antenna"`
}

type tuneReply struct {
	Status string `json:"status"`
	Reason string `json:"reason"`
}

// Device is an open control-and-sample connection to a network-attached
// radio. The protocol is a single JSON tune command and one-line JSON ack,
// followed by a raw interleaved complex64 sample stream on the same
// connection.
type Device struct {
	conn net.Conn
	// All reads go through r: the ack line read may buffer ahead into the
	// sample stream, and those bytes must not be lost.
	r      *bufio.Reader
	logger *slog.Logger
}

// Dial connects to a device, retrying with bounded exponential backoff while
// ctx allows. Radios routinely take a moment to come up after power-on.
func Dial(ctx context.Context, addr string, logger *slog.Logger) (*Device, error) {
	var conn net.Conn
	op := func() error {
		d := net.Dialer{Timeout: dialTimeout}
		c, err := d.DialContext(ctx, "tcp", addr)
		if err != nil {
			logger.Debug("radio dial failed, retrying", "addr", addr, "error", err)
			return err
		}
		conn = c
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 5), ctx)
	if err := backoff.Retry(op, policy); err != nil {
		return nil, fmt.Errorf("connect to radio at %s: %w", addr, err)
	}
	return &Device{conn: conn, r: bufio.NewReader(conn), logger: logger}, nil
}

// Configure sends the tune command and waits for the device ack. The config
// must already have passed Validate.
func (d *Device) Configure(cfg Config, dir Direction) error {
	req := tuneRequest{
		Direction:  dir.String(),
		SampleRate: cfg.SampleRate,
		Freq:       cfg.Freq,
		Gain:       cfg.Gain,
		AGC:        cfg.Gain == AGC && dir == Receive,
		Antenna:    cfg.Antenna,
	}
	if err := json.NewEncoder(d.conn).Encode(req); err != nil {
		return fmt.Errorf("send tune command: %w", err)
	}

	line, err := d.r.ReadBytes('\n')
	if err != nil {
		return fmt.Errorf("read tune ack: %w", err)
	}
	var reply tuneReply
	if err := json.Unmarshal(line, &reply); err != nil {
		return fmt.Errorf("parse tune ack: %w", err)
	}
	if reply.Status != "ok" {
		return fmt.Errorf("device rejected tune: %s", reply.Reason)
	}
	d.logger.Info("radio tuned",
		"direction", dir.String(), "freq", cfg.Freq, "sample_rate", cfg.SampleRate,
		"gain", cfg.Gain, "antenna", cfg.Antenna)
	return nil
}

// Read fills p with raw sample bytes from the device.
func (d *Device) Read(p []byte) (int, error) { return d.r.Read(p) }

// Write sends raw sample bytes to the device.
func (d *Device) Write(p []byte) (int, error) { return d.conn.Write(p) }

// Close releases the connection. The device side treats it as a detune.
func (d *Device) Close() error { return d.conn.Close() }

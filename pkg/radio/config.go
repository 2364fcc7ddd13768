// Package radio configures network-attached radio devices and wraps them as
// flowgraph blocks. The reserved component types usrp_source and usrp_sink
// resolve here rather than in the general registry.
package radio

import (
	"errors"
	"fmt"
)

// Direction distinguishes receive from transmit configuration.
type Direction int

const (
	// Receive tunes the device for reception.
	Receive Direction = iota
	// Transmit tunes the device for transmission.
	Transmit
)

func (d Direction) String() string {
	if d == Transmit {
		return "transmit"
	}
	return "receive"
}

// ErrInvalidConfig tags every configuration precondition failure.
var ErrInvalidConfig = errors.New("invalid radio configuration")

// AGC selects automatic gain control when supplied as the gain value.
const AGC = -1

// Config holds the tuning parameters for a radio device. Samples cross the
// wire as interleaved complex64, the same element type the rest of the graph
// uses.
type Config struct {
	Device     string  `mapstructure:"device"`
	SampleRate float64 `mapstructure:"sample_rate"`
	Freq       float64 `mapstructure:"radio_freq"`
	Gain       float64 `mapstructure:"gain"`
	Antenna    string  `mapstructure:"antenna"`
}

// Validate checks the preconditions before any device I/O is attempted. A
// non-positive tune frequency or sample rate is rejected here, never sent to
// hardware.
func (c *Config) Validate(dir Direction) error {
	if c.Device == "" {
		return fmt.Errorf("%w: device address is required", ErrInvalidConfig)
	}
	if c.Freq <= 0 {
		return fmt.Errorf("%w: %s tune frequency must be > 0, got %g", ErrInvalidConfig, dir, c.Freq)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("%w: %s sample rate must be > 0, got %g", ErrInvalidConfig, dir, c.SampleRate)
	}
	if c.Gain == AGC && dir == Transmit {
		return fmt.Errorf("%w: AGC is only available on receive", ErrInvalidConfig)
	}
	if c.Antenna == "" {
		// Device-side defaults for the usual USRP front panel.
		if dir == Receive {
			c.Antenna = "RX2"
		} else {
			c.Antenna = "TX/RX"
		}
	}
	return nil
}

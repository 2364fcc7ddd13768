package blocks

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// FileSinkConfig configures a FileSink.
type FileSinkConfig struct {
	Path string      `mapstructure:"path"`
	Type sample.Type `mapstructure:"type"`
}

// FileSink writes every received chunk to a flat raw-binary file, truncating
// any existing file first.
type FileSink struct {
	graph.StreamIO
	cfg FileSinkConfig
}

// NewFileSink creates a file sink.
func NewFileSink(cfg FileSinkConfig) (*FileSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file_sink: path is required")
	}
	return &FileSink{
		StreamIO: graph.NewStreamIO([]int{cfg.Type.Size()}, nil),
		cfg:      cfg,
	}, nil
}

func (b *FileSink) Run(ctx context.Context) error {
	f, err := os.Create(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("file_sink: %w", err)
	}
	defer f.Close()

	size := b.cfg.Type.Size()
	// Drain until upstream closes so a bounded run flushes every item the
	// limiter let through.
	for chunk := range b.In[0] {
		if _, err := f.Write(chunk); err != nil {
			return fmt.Errorf("file_sink: %w", err)
		}
		graph.ObserveItems("file_sink", len(chunk)/size)
	}
	return nil
}

// NullSinkConfig configures a NullSink.
type NullSinkConfig struct {
	Type sample.Type `mapstructure:"type"`
}

// NullSink consumes and discards a stream.
type NullSink struct {
	graph.StreamIO
}

// NewNullSink creates a null sink.
func NewNullSink(cfg NullSinkConfig) (*NullSink, error) {
	return &NullSink{StreamIO: graph.NewStreamIO([]int{cfg.Type.Size()}, nil)}, nil
}

func (b *NullSink) Run(ctx context.Context) error {
	for range b.In[0] {
	}
	return nil
}

// UDPSinkConfig configures a UDPSink.
type UDPSinkConfig struct {
	Address string      `mapstructure:"address"`
	Type    sample.Type `mapstructure:"type"`
}

// UDPSink forwards stream chunks as UDP datagrams, one datagram per chunk.
// There is no framing beyond the raw samples.
type UDPSink struct {
	graph.StreamIO
	cfg UDPSinkConfig
}

// NewUDPSink creates a UDP stream sink.
func NewUDPSink(cfg UDPSinkConfig) (*UDPSink, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("udp_sink: address is required")
	}
	return &UDPSink{
		StreamIO: graph.NewStreamIO([]int{cfg.Type.Size()}, nil),
		cfg:      cfg,
	}, nil
}

func (b *UDPSink) Run(ctx context.Context) error {
	conn, err := net.Dial("udp", b.cfg.Address)
	if err != nil {
		return fmt.Errorf("udp_sink: %w", err)
	}
	defer conn.Close()

	size := b.cfg.Type.Size()
	for chunk := range b.In[0] {
		if _, err := conn.Write(chunk); err != nil {
			return fmt.Errorf("udp_sink: %w", err)
		}
		graph.ObserveItems("udp_sink", len(chunk)/size)
	}
	return nil
}

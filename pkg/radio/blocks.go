package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

const chunkItems = 1024

// Source streams received samples from a radio device into the graph.
// Configuration preconditions are enforced at construction time, before any
// connection is opened.
type Source struct {
	graph.StreamIO
	cfg    Config
	logger *slog.Logger
}

// NewSource validates the config and creates a receive block.
func NewSource(cfg Config, logger *slog.Logger) (*Source, error) {
	if err := cfg.Validate(Receive); err != nil {
		return nil, err
	}
	return &Source{
		StreamIO: graph.NewStreamIO(nil, []int{sample.Complex.Size()}),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (b *Source) Run(ctx context.Context) error {
	defer b.CloseOuts()

	dev, err := Dial(ctx, b.cfg.Device, b.logger)
	if err != nil {
		return err
	}
	defer dev.Close()
	// A cancelled run must interrupt a blocked read.
	go func() {
		<-ctx.Done()
		dev.Close()
	}()

	if err := dev.Configure(b.cfg, Receive); err != nil {
		return err
	}

	size := sample.Complex.Size()
	for {
		chunk := make([]byte, size*chunkItems)
		n, err := io.ReadFull(dev, chunk)
		if n > 0 {
			n -= n % size
		}
		if n > 0 {
			if serr := graph.Send(ctx, b.Out[0], chunk[:n]); serr != nil {
				return serr
			}
		}
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("usrp_source: %w", err)
		}
	}
}

// Sink streams graph samples out through a radio device transmitter.
type Sink struct {
	graph.StreamIO
	cfg    Config
	logger *slog.Logger
}

// NewSink validates the config and creates a transmit block.
func NewSink(cfg Config, logger *slog.Logger) (*Sink, error) {
	if err := cfg.Validate(Transmit); err != nil {
		return nil, err
	}
	return &Sink{
		StreamIO: graph.NewStreamIO([]int{sample.Complex.Size()}, nil),
		cfg:      cfg,
		logger:   logger,
	}, nil
}

func (b *Sink) Run(ctx context.Context) error {
	dev, err := Dial(ctx, b.cfg.Device, b.logger)
	if err != nil {
		return err
	}
	defer dev.Close()

	if err := dev.Configure(b.cfg, Transmit); err != nil {
		return err
	}

	size := sample.Complex.Size()
	for chunk := range b.In[0] {
		if _, err := dev.Write(chunk); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("usrp_sink: %w", err)
		}
		graph.ObserveItems("usrp_sink", len(chunk)/size)
	}
	return nil
}

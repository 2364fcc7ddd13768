package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/radio"
	"github.com/geontech/grflow/pkg/registry"
)

// Reserved component types routed to the radio device helpers instead of the
// general registry.
const (
	TypeRadioSource = "usrp_source"
	TypeRadioSink   = "usrp_sink"
)

// Builder turns parsed scenarios into wired flowgraphs. The registry is
// fixed at construction; there is no global constructor table.
type Builder struct {
	reg    *registry.Registry
	logger *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithLogger sets the structured logger handed to the graph and to blocks
// that log.
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = logger }
}

// NewBuilder creates a scenario builder over a frozen registry.
func NewBuilder(reg *registry.Registry, opts ...BuilderOption) *Builder {
	b := &Builder{
		reg:    reg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build constructs every component and wires every connection, returning the
// runnable graph. Components build in sorted name order so failures are
// deterministic.
func (b *Builder) Build(sc *Scenario) (*graph.Top, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}

	top := graph.NewTop(graph.WithLogger(b.logger))

	names := make([]string, 0, len(sc.Components))
	for name := range sc.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		comp := sc.Components[name]
		blk, err := b.construct(comp)
		if err != nil {
			return nil, fmt.Errorf("component %q: %w", name, err)
		}
		if err := top.Add(name, blk); err != nil {
			return nil, err
		}
		b.logger.Debug("component built", "name", name, "type", comp.Type)
	}

	for _, conn := range sc.Connections {
		var err error
		if conn.SrcPort.IsMessage() {
			err = top.ConnectMsg(conn.Src, conn.SrcPort.Name, conn.Dst, conn.DstPort.Name)
		} else {
			err = top.Connect(conn.Src, conn.SrcPort.Index, conn.Dst, conn.DstPort.Index)
		}
		if err != nil {
			return nil, err
		}
	}
	return top, nil
}

func (b *Builder) construct(comp Component) (graph.Block, error) {
	switch comp.Type {
	case TypeRadioSource:
		var cfg radio.Config
		if err := registry.Decode(comp.Args, &cfg); err != nil {
			return nil, err
		}
		return radio.NewSource(cfg, b.logger)
	case TypeRadioSink:
		var cfg radio.Config
		if err := registry.Decode(comp.Args, &cfg); err != nil {
			return nil, err
		}
		return radio.NewSink(cfg, b.logger)
	default:
		return b.reg.New(comp.Type, comp.Args)
	}
}

// CheckRunMode verifies the simulation tag names a known run mode, without
// running anything.
func CheckRunMode(sim Simulation) error {
	switch strings.ToLower(sim.Type) {
	case "time", "user", "data":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRunMode, sim.Type)
	}
}

// Run executes a built graph under the scenario's run mode. The confirm
// reader is only consulted by the interactive mode; passing os.Stdin there
// reproduces the "hit enter to exit" behavior.
func Run(ctx context.Context, top *graph.Top, sim Simulation, confirm io.Reader) error {
	switch strings.ToLower(sim.Type) {
	case "time":
		d := time.Duration(sim.Value.Duration * float64(time.Second))
		return top.RunFor(ctx, d)
	case "user":
		return top.RunUntil(ctx, confirm)
	case "data":
		return top.Run(ctx)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRunMode, sim.Type)
	}
}

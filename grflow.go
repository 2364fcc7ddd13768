package grflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/geontech/grflow/pkg/blocks"
	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/registry"
	"github.com/geontech/grflow/pkg/scenario"
)

// Version is the library version reported by the CLI.
var Version = "0.1.0"

// Engine is the high-level entry point for the grflow library. It owns the
// frozen component registry and builds and runs flowgraphs from scenario
// documents.
type Engine struct {
	logger     *slog.Logger
	extensions []registry.Builder
	reg        *registry.Registry
	builder    *scenario.Builder
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithBlocks merges user-supplied component constructors into the registry
// before it is frozen. This is the extension point for custom components:
// anything satisfying the constructor contract can be declared in a scenario
// by its registered type name.
func WithBlocks(b registry.Builder) Option {
	return func(e *Engine) { e.extensions = append(e.extensions, b) }
}

// New initializes an Engine: built-in blocks plus any extensions, frozen
// into an immutable registry.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}
	for _, opt := range opts {
		opt(eng)
	}

	if eng.logger == nil {
		eng.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	table := blocks.Builtin(eng.logger)
	for _, ext := range eng.extensions {
		if err := table.Merge(ext); err != nil {
			return nil, fmt.Errorf("register extension blocks: %w", err)
		}
	}
	eng.reg = table.Freeze()
	eng.builder = scenario.NewBuilder(eng.reg, scenario.WithLogger(eng.logger))
	return eng, nil
}

// Registry exposes the frozen component table, for listings and for callers
// that construct blocks directly.
func (e *Engine) Registry() *registry.Registry { return e.reg }

// Build constructs and wires the flowgraph a scenario describes, without
// running it.
func (e *Engine) Build(sc *scenario.Scenario) (*graph.Top, error) {
	return e.builder.Build(sc)
}

// RunFile loads a scenario document, builds it and executes it under its
// declared run mode. confirm feeds the interactive run mode and is usually
// os.Stdin.
func (e *Engine) RunFile(ctx context.Context, path string, confirm io.Reader) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	top, err := e.builder.Build(sc)
	if err != nil {
		return err
	}
	return scenario.Run(ctx, top, sc.Simulation, confirm)
}

// ValidateFile loads and builds a scenario without executing it, reporting
// the first configuration problem found.
func (e *Engine) ValidateFile(path string) error {
	sc, err := scenario.Load(path)
	if err != nil {
		return err
	}
	if _, err := e.builder.Build(sc); err != nil {
		return err
	}
	return scenario.CheckRunMode(sc.Simulation)
}

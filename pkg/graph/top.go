package graph

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultChanCap is the buffer depth of a stream connection, in chunks.
const DefaultChanCap = 16

// Top is a flowgraph container: it owns the blocks, wires their ports and
// drives an execution. A Top is built, run once and discarded; it holds no
// state across runs.
type Top struct {
	logger  *slog.Logger
	chanCap int
	names   []string
	blocks  map[string]Block
}

// TopOption configures a Top.
type TopOption func(*Top)

// WithLogger sets the structured logger used for wiring and lifecycle events.
func WithLogger(logger *slog.Logger) TopOption {
	return func(t *Top) { t.logger = logger }
}

// WithChanCap sets the buffer depth of stream connections.
func WithChanCap(n int) TopOption {
	return func(t *Top) {
		if n > 0 {
			t.chanCap = n
		}
	}
}

// NewTop creates an empty flowgraph container.
func NewTop(opts ...TopOption) *Top {
	t := &Top{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		chanCap: DefaultChanCap,
		blocks:  make(map[string]Block),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Add registers a block under a unique name.
func (t *Top) Add(name string, b Block) error {
	if _, ok := t.blocks[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateBlock, name)
	}
	t.names = append(t.names, name)
	t.blocks[name] = b
	return nil
}

// Block returns a registered block by name.
func (t *Top) Block(name string) (Block, bool) {
	b, ok := t.blocks[name]
	return b, ok
}

// Connect wires a streaming link from an output port of src to an input port
// of dst. Each streaming port carries exactly one connection, and both ends
// must agree on the item size when both declare one.
func (t *Top) Connect(src string, srcPort int, dst string, dstPort int) error {
	sb, ok := t.blocks[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, src)
	}
	db, ok := t.blocks[dst]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, dst)
	}
	so, do := sb.Streams(), db.Streams()

	if srcPort < 0 || srcPort >= len(so.OutSizes) {
		return fmt.Errorf("%s output %d: %w", src, srcPort, ErrPortRange)
	}
	if dstPort < 0 || dstPort >= len(do.InSizes) {
		return fmt.Errorf("%s input %d: %w", dst, dstPort, ErrPortRange)
	}
	if so.Out[srcPort] != nil {
		return fmt.Errorf("%s output %d: %w", src, srcPort, ErrPortBound)
	}
	if do.In[dstPort] != nil {
		return fmt.Errorf("%s input %d: %w", dst, dstPort, ErrPortBound)
	}
	if ss, ds := so.OutSizes[srcPort], do.InSizes[dstPort]; ss != 0 && ds != 0 && ss != ds {
		return fmt.Errorf("%s:%d (%d bytes) -> %s:%d (%d bytes): %w",
			src, srcPort, ss, dst, dstPort, ds, ErrSizeMismatch)
	}

	ch := make(chan []byte, t.chanCap)
	so.Out[srcPort] = ch
	do.In[dstPort] = ch
	t.logger.Debug("stream connected", "src", src, "src_port", srcPort, "dst", dst, "dst_port", dstPort)
	return nil
}

// ConnectMsg wires an asynchronous message link between named ports.
func (t *Top) ConnectMsg(src, srcPort, dst, dstPort string) error {
	sb, ok := t.blocks[src]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, src)
	}
	db, ok := t.blocks[dst]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBlock, dst)
	}
	sm, ok := sb.(Messenger)
	if !ok {
		return fmt.Errorf("%s has no message ports: %w", src, ErrPortRange)
	}
	dm, ok := db.(Messenger)
	if !ok {
		return fmt.Errorf("%s has no message ports: %w", dst, ErrPortRange)
	}

	ch := make(chan Message, t.chanCap)
	if err := sm.Messages().bindOut(srcPort, ch); err != nil {
		return fmt.Errorf("%s: %w", src, err)
	}
	if err := dm.Messages().bindIn(dstPort, ch); err != nil {
		return fmt.Errorf("%s: %w", dst, err)
	}
	t.logger.Debug("message connected", "src", src, "src_port", srcPort, "dst", dst, "dst_port", dstPort)
	return nil
}

// checkWired verifies every declared streaming and message input is
// connected before execution starts.
func (t *Top) checkWired() error {
	for _, name := range t.names {
		b := t.blocks[name]
		s := b.Streams()
		for i, ch := range s.In {
			if ch == nil {
				return fmt.Errorf("%s input %d: %w", name, i, ErrUnconnectedPort)
			}
		}
		for i, ch := range s.Out {
			if ch == nil {
				return fmt.Errorf("%s output %d: %w", name, i, ErrUnconnectedPort)
			}
		}
		if m, ok := b.(Messenger); ok {
			for _, port := range m.Messages().InNames {
				if m.Messages().in[port] == nil {
					return fmt.Errorf("%s message input %q: %w", name, port, ErrUnconnectedPort)
				}
			}
		}
	}
	return nil
}

// Run executes the flowgraph to completion. If the graph contains limiting
// blocks (Completer), the run tears down as soon as every limiter reports
// done; otherwise it ends when all blocks finish on their own.
func (t *Top) Run(ctx context.Context) error {
	return t.run(ctx, func(ctx context.Context, stop context.CancelFunc) {
		var limits []<-chan struct{}
		for _, name := range t.names {
			if c, ok := t.blocks[name].(Completer); ok {
				limits = append(limits, c.Done())
			}
		}
		if len(limits) == 0 {
			return
		}
		go func() {
			for _, done := range limits {
				select {
				case <-done:
				case <-ctx.Done():
					return
				}
			}
			t.logger.Debug("limit reached, stopping flowgraph")
			stop()
		}()
	})
}

// RunFor executes the flowgraph for a fixed wall-clock duration, then stops
// it.
func (t *Top) RunFor(ctx context.Context, d time.Duration) error {
	return t.run(ctx, func(ctx context.Context, stop context.CancelFunc) {
		go func() {
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				t.logger.Debug("run duration elapsed", "duration", d)
				stop()
			case <-ctx.Done():
			}
		}()
	})
}

// RunUntil executes the flowgraph until a line is read from confirm
// (typically stdin), then stops it.
func (t *Top) RunUntil(ctx context.Context, confirm io.Reader) error {
	return t.run(ctx, func(ctx context.Context, stop context.CancelFunc) {
		go func() {
			scanner := bufio.NewScanner(confirm)
			scanner.Scan()
			select {
			case <-ctx.Done():
			default:
				t.logger.Debug("user confirmed stop")
			}
			stop()
		}()
	})
}

func (t *Top) run(parent context.Context, stopper func(context.Context, context.CancelFunc)) error {
	if err := t.checkWired(); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	runsTotal.Inc()
	start := time.Now()
	t.logger.Info("flowgraph starting", "blocks", len(t.names))

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range t.names {
		name := name
		b := t.blocks[name]
		g.Go(func() error {
			err := b.Run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("block %s: %w", name, err)
			}
			return nil
		})
	}

	if stopper != nil {
		stopper(gctx, cancel)
	}

	err := g.Wait()
	runDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		t.logger.Error("flowgraph failed", "error", err)
		return err
	}
	t.logger.Info("flowgraph finished", "elapsed", time.Since(start))
	return nil
}

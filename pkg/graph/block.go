// Package graph is the flowgraph execution engine. A flowgraph is a directed
// graph of blocks connected by typed ports: integer-indexed streaming ports
// carry contiguous runs of fixed-size samples, string-named message ports
// carry discrete asynchronous payloads.
//
// Each block runs as its own goroutine and each connection is a buffered
// channel, so the scheduler is the Go runtime itself. A block's Run method
// owns the work loop: it reads chunks from its bound inputs, writes to its
// bound outputs, and returns when its input closes or its context is
// cancelled.
package graph

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors surfaced while wiring a flowgraph.
var (
	ErrPortBound       = errors.New("port already connected")
	ErrPortRange       = errors.New("no such port")
	ErrSizeMismatch    = errors.New("item size mismatch")
	ErrUnconnectedPort = errors.New("port not connected")
	ErrUnknownBlock    = errors.New("unknown block")
	ErrDuplicateBlock  = errors.New("duplicate block name")
)

// Block is a unit of processing inside a flowgraph. Implementations embed
// StreamIO (and MsgIO when they carry message ports) so the container can
// wire them.
type Block interface {
	// Streams exposes the block's streaming port set for wiring.
	Streams() *StreamIO
	// Run executes the block until its inputs are exhausted or ctx is
	// cancelled. Implementations must close their outputs on return so
	// completion propagates downstream.
	Run(ctx context.Context) error
}

// Messenger is implemented by blocks that carry message ports.
type Messenger interface {
	Messages() *MsgIO
}

// Completer is implemented by blocks that bound an otherwise unbounded run,
// such as a head block. The container waits on Done during a run-to-completion
// execution and tears the graph down once it fires.
type Completer interface {
	Done() <-chan struct{}
}

// Message is a discrete payload delivered over a message port.
type Message struct {
	Meta map[string]any
	Data []byte
}

// StreamIO holds a block's streaming endpoints. Sizes declare bytes per item
// for each port; a size of zero accepts any item size.
type StreamIO struct {
	InSizes  []int
	OutSizes []int
	In       []<-chan []byte
	Out      []chan<- []byte
}

// NewStreamIO declares a streaming signature from per-port item sizes.
func NewStreamIO(inSizes, outSizes []int) StreamIO {
	return StreamIO{
		InSizes:  inSizes,
		OutSizes: outSizes,
		In:       make([]<-chan []byte, len(inSizes)),
		Out:      make([]chan<- []byte, len(outSizes)),
	}
}

// Streams implements Block for any embedder.
func (s *StreamIO) Streams() *StreamIO { return s }

// CloseOuts closes every bound output channel. Blocks call it (usually via
// defer) when their work loop returns, on every exit path.
func (s *StreamIO) CloseOuts() {
	for _, out := range s.Out {
		if out != nil {
			close(out)
		}
	}
}

// Send writes a chunk to out, giving up if ctx is cancelled first.
func Send(ctx context.Context, out chan<- []byte, chunk []byte) error {
	select {
	case out <- chunk:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MsgIO holds a block's message endpoints, keyed by port name. Input ports
// must be connected; output ports may dangle, in which case sends are
// silently dropped (matching the loose coupling of message passing).
type MsgIO struct {
	InNames  []string
	OutNames []string
	in       map[string]<-chan Message
	out      map[string]chan<- Message
}

// NewMsgIO declares a message signature from port names.
func NewMsgIO(inNames, outNames []string) MsgIO {
	return MsgIO{
		InNames: inNames, OutNames: outNames,
		in:  make(map[string]<-chan Message, len(inNames)),
		out: make(map[string]chan<- Message, len(outNames)),
	}
}

// Messages implements Messenger for any embedder.
func (m *MsgIO) Messages() *MsgIO { return m }

// MsgIn returns the channel bound to a named input port.
func (m *MsgIO) MsgIn(name string) <-chan Message { return m.in[name] }

// SendMsg posts a message on a named output port. Unconnected ports drop the
// message.
func (m *MsgIO) SendMsg(ctx context.Context, name string, msg Message) error {
	out, ok := m.out[name]
	if !ok {
		return nil
	}
	select {
	case out <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CloseMsgOuts closes every bound message output.
func (m *MsgIO) CloseMsgOuts() {
	for _, out := range m.out {
		close(out)
	}
}

func (m *MsgIO) bindIn(name string, ch <-chan Message) error {
	if !contains(m.InNames, name) {
		return fmt.Errorf("message input %q: %w", name, ErrPortRange)
	}
	if _, bound := m.in[name]; bound {
		return fmt.Errorf("message input %q: %w", name, ErrPortBound)
	}
	m.in[name] = ch
	return nil
}

func (m *MsgIO) bindOut(name string, ch chan<- Message) error {
	if !contains(m.OutNames, name) {
		return fmt.Errorf("message output %q: %w", name, ErrPortRange)
	}
	if _, bound := m.out[name]; bound {
		return fmt.Errorf("message output %q: %w", name, ErrPortBound)
	}
	m.out[name] = ch
	return nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

package blocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"

	"github.com/geontech/grflow/pkg/graph"
)

// UDPSourceConfig configures a UDPSource.
type UDPSourceConfig struct {
	Listen  string `mapstructure:"listen"`
	MaxSize int    `mapstructure:"max_size"`
}

// UDPSource listens for UDP datagrams and emits each payload on its "out"
// message port. It is the stimulus-injection entry point: anything the debug
// sender transmits shows up here as a message.
type UDPSource struct {
	graph.StreamIO
	graph.MsgIO
	cfg UDPSourceConfig
}

// NewUDPSource creates a datagram message source.
func NewUDPSource(cfg UDPSourceConfig) (*UDPSource, error) {
	if cfg.Listen == "" {
		return nil, fmt.Errorf("udp_source: listen address is required")
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 1500
	}
	return &UDPSource{
		StreamIO: graph.NewStreamIO(nil, nil),
		MsgIO:    graph.NewMsgIO(nil, []string{"out"}),
		cfg:      cfg,
	}, nil
}

func (b *UDPSource) Run(ctx context.Context) error {
	defer b.CloseMsgOuts()

	conn, err := net.ListenPacket("udp", b.cfg.Listen)
	if err != nil {
		return fmt.Errorf("udp_source: %w", err)
	}
	// Closing the socket is the only way to interrupt a blocked ReadFrom.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	defer conn.Close()

	for {
		buf := make([]byte, b.cfg.MaxSize)
		n, addr, err := conn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return ctx.Err()
			}
			return fmt.Errorf("udp_source: %w", err)
		}
		msg := graph.Message{
			Meta: map[string]any{"from": addr.String()},
			Data: buf[:n],
		}
		if err := b.SendMsg(ctx, "out", msg); err != nil {
			return err
		}
	}
}

// MsgToStreamConfig configures a MsgToStream.
type MsgToStreamConfig struct{}

// MsgToStream bridges the message domain into the stream domain: each
// message payload is forwarded as a chunk of byte samples. Downstream a head
// block can then bound a run that originates from an asynchronous source.
type MsgToStream struct {
	graph.StreamIO
	graph.MsgIO
}

// NewMsgToStream creates a message-to-stream bridge.
func NewMsgToStream(MsgToStreamConfig) (*MsgToStream, error) {
	return &MsgToStream{
		StreamIO: graph.NewStreamIO(nil, []int{1}),
		MsgIO:    graph.NewMsgIO([]string{"in"}, nil),
	}, nil
}

func (b *MsgToStream) Run(ctx context.Context) error {
	defer b.CloseOuts()
	for msg := range b.MsgIn("in") {
		if len(msg.Data) == 0 {
			continue
		}
		if err := graph.Send(ctx, b.Out[0], msg.Data); err != nil {
			return err
		}
	}
	return nil
}

// MessageDebug logs every message it receives. The payload itself is only
// summarized; message floods should not drown the log.
type MessageDebug struct {
	graph.StreamIO
	graph.MsgIO
	logger *slog.Logger
}

// NewMessageDebug creates a message logger.
func NewMessageDebug(logger *slog.Logger) *MessageDebug {
	return &MessageDebug{
		StreamIO: graph.NewStreamIO(nil, nil),
		MsgIO:    graph.NewMsgIO([]string{"in"}, nil),
		logger:   logger,
	}
}

func (b *MessageDebug) Run(ctx context.Context) error {
	for msg := range b.MsgIn("in") {
		b.logger.Info("message", "bytes", len(msg.Data), "meta", msg.Meta)
		graph.ObserveItems("message_debug", 1)
	}
	return nil
}

// MessageSinkConfig configures a MessageSink.
type MessageSinkConfig struct {
	Path string `mapstructure:"path"`
}

// MessageSink appends every message payload to a file, back to back, with no
// framing.
type MessageSink struct {
	graph.StreamIO
	graph.MsgIO
	cfg MessageSinkConfig
}

// NewMessageSink creates a message file sink.
func NewMessageSink(cfg MessageSinkConfig) (*MessageSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("message_sink: path is required")
	}
	return &MessageSink{
		StreamIO: graph.NewStreamIO(nil, nil),
		MsgIO:    graph.NewMsgIO([]string{"in"}, nil),
		cfg:      cfg,
	}, nil
}

func (b *MessageSink) Run(ctx context.Context) error {
	f, err := os.Create(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("message_sink: %w", err)
	}
	defer f.Close()

	for msg := range b.MsgIn("in") {
		if _, err := f.Write(msg.Data); err != nil {
			return fmt.Errorf("message_sink: %w", err)
		}
		graph.ObserveItems("message_sink", 1)
	}
	return nil
}

package blocks

import (
	"log/slog"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/registry"
)

// Builtin returns the constructor table for every built-in block type. The
// caller merges extensions into the returned builder and freezes it; nothing
// here touches global state.
func Builtin(logger *slog.Logger) registry.Builder {
	b := registry.Builder{}
	must := func(name, summary string, c registry.Constructor) {
		if err := b.Register(name, summary, c); err != nil {
			// Duplicate names in the built-in table are a programming
			// error, not a runtime condition.
			panic(err)
		}
	}

	must("file_source", "stream samples from a raw file, optionally on repeat",
		func(args registry.Args) (graph.Block, error) {
			var cfg FileSourceConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewFileSource(cfg)
		})
	must("file_sink", "write samples to a raw file",
		func(args registry.Args) (graph.Block, error) {
			var cfg FileSinkConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewFileSink(cfg)
		})
	must("head", "pass a fixed number of samples, then stop the run",
		func(args registry.Args) (graph.Block, error) {
			var cfg HeadConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewHead(cfg)
		})
	must("vector_source", "emit a literal list of samples",
		func(args registry.Args) (graph.Block, error) {
			var cfg VectorSourceConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewVectorSource(cfg)
		})
	must("noise_source", "emit seeded uniform noise",
		func(args registry.Args) (graph.Block, error) {
			var cfg NoiseSourceConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewNoiseSource(cfg)
		})
	must("signal_source", "emit a sinusoid",
		func(args registry.Args) (graph.Block, error) {
			var cfg SignalSourceConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewSignalSource(cfg)
		})
	must("multiply_const", "multiply each sample by a constant",
		func(args registry.Args) (graph.Block, error) {
			var cfg ConstConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewMultiplyConst(cfg)
		})
	must("add_const", "add a constant to each sample",
		func(args registry.Args) (graph.Block, error) {
			var cfg ConstConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewAddConst(cfg)
		})
	must("throttle", "pace a stream to a sample rate",
		func(args registry.Args) (graph.Block, error) {
			var cfg ThrottleConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewThrottle(cfg)
		})
	must("null_sink", "discard a stream",
		func(args registry.Args) (graph.Block, error) {
			var cfg NullSinkConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewNullSink(cfg)
		})
	must("fft_mag", "magnitude spectrum of complex frames",
		func(args registry.Args) (graph.Block, error) {
			var cfg FFTMagConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewFFTMag(cfg)
		})
	must("udp_sink", "forward stream chunks as UDP datagrams",
		func(args registry.Args) (graph.Block, error) {
			var cfg UDPSinkConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewUDPSink(cfg)
		})
	must("udp_source", "emit received UDP datagrams as messages",
		func(args registry.Args) (graph.Block, error) {
			var cfg UDPSourceConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewUDPSource(cfg)
		})
	must("msg_to_stream", "forward message payloads as byte samples",
		func(args registry.Args) (graph.Block, error) {
			var cfg MsgToStreamConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewMsgToStream(cfg)
		})
	must("message_debug", "log received messages",
		func(args registry.Args) (graph.Block, error) {
			if err := registry.Decode(args, &struct{}{}); err != nil {
				return nil, err
			}
			return NewMessageDebug(logger), nil
		})
	must("message_sink", "append message payloads to a file",
		func(args registry.Args) (graph.Block, error) {
			var cfg MessageSinkConfig
			if err := registry.Decode(args, &cfg); err != nil {
				return nil, err
			}
			return NewMessageSink(cfg)
		})

	return b
}

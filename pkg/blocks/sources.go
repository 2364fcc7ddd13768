// Package blocks is the built-in component library: file and network
// endpoints, arithmetic, pacing and limiting blocks, and the bridges between
// message and stream domains.
package blocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// chunkItems is how many samples a source packs into one chunk.
const chunkItems = 1024

// FileSourceConfig configures a FileSource.
type FileSourceConfig struct {
	Path   string      `mapstructure:"path"`
	Type   sample.Type `mapstructure:"type"`
	Repeat bool        `mapstructure:"repeat"`
}

// FileSource streams samples from a flat raw-binary file. With Repeat set it
// rewinds on EOF and plays forever; otherwise it closes its output when the
// file is exhausted.
type FileSource struct {
	graph.StreamIO
	cfg FileSourceConfig
}

// NewFileSource creates a file source.
func NewFileSource(cfg FileSourceConfig) (*FileSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("file_source: path is required")
	}
	return &FileSource{
		StreamIO: graph.NewStreamIO(nil, []int{cfg.Type.Size()}),
		cfg:      cfg,
	}, nil
}

func (b *FileSource) Run(ctx context.Context) error {
	defer b.CloseOuts()

	f, err := os.Open(b.cfg.Path)
	if err != nil {
		return fmt.Errorf("file_source: %w", err)
	}
	defer f.Close()

	size := b.cfg.Type.Size()
	for {
		chunk := make([]byte, size*chunkItems)
		n, err := io.ReadFull(f, chunk)
		if n > 0 {
			// Drop a trailing partial element; the file length is
			// not guaranteed to be a whole number of samples.
			n -= n % size
		}
		if n > 0 {
			if serr := graph.Send(ctx, b.Out[0], chunk[:n]); serr != nil {
				return serr
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			if !b.cfg.Repeat {
				return nil
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				return fmt.Errorf("file_source: rewind: %w", err)
			}
			continue
		}
		return fmt.Errorf("file_source: %w", err)
	}
}

// VectorSourceConfig configures a VectorSource. For complex streams the
// values are interleaved real, imaginary pairs.
type VectorSourceConfig struct {
	Type   sample.Type `mapstructure:"type"`
	Values []float64   `mapstructure:"values"`
	Repeat bool        `mapstructure:"repeat"`
}

// VectorSource emits a fixed list of literal samples, optionally on repeat.
type VectorSource struct {
	graph.StreamIO
	cfg sample.Type
	raw []byte
	rep bool
}

// NewVectorSource creates a vector source.
func NewVectorSource(cfg VectorSourceConfig) (*VectorSource, error) {
	if len(cfg.Values) == 0 {
		return nil, fmt.Errorf("vector_source: values are required")
	}
	raw, err := encodeValues(cfg.Type, cfg.Values)
	if err != nil {
		return nil, fmt.Errorf("vector_source: %w", err)
	}
	return &VectorSource{
		StreamIO: graph.NewStreamIO(nil, []int{cfg.Type.Size()}),
		cfg:      cfg.Type,
		raw:      raw,
		rep:      cfg.Repeat,
	}, nil
}

func (b *VectorSource) Run(ctx context.Context) error {
	defer b.CloseOuts()
	for {
		chunk := make([]byte, len(b.raw))
		copy(chunk, b.raw)
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
		if !b.rep {
			return nil
		}
	}
}

func encodeValues(typ sample.Type, vals []float64) ([]byte, error) {
	switch typ {
	case sample.Byte:
		raw := make([]byte, len(vals))
		for i, v := range vals {
			raw[i] = byte(int64(v))
		}
		return raw, nil
	case sample.Float:
		f32 := make([]float32, len(vals))
		for i, v := range vals {
			f32[i] = float32(v)
		}
		raw := make([]byte, 4*len(vals))
		sample.PutFloat32(raw, f32)
		return raw, nil
	case sample.Complex:
		if len(vals)%2 != 0 {
			return nil, fmt.Errorf("complex values must be interleaved re,im pairs")
		}
		c := make([]complex64, len(vals)/2)
		for i := range c {
			c[i] = complex(float32(vals[2*i]), float32(vals[2*i+1]))
		}
		raw := make([]byte, 8*len(c))
		sample.PutComplex64(raw, c)
		return raw, nil
	default:
		return nil, fmt.Errorf("unsupported type %s", typ)
	}
}

// NoiseSourceConfig configures a NoiseSource.
type NoiseSourceConfig struct {
	Type      sample.Type `mapstructure:"type"`
	Amplitude float64     `mapstructure:"amplitude"`
	Seed      int64       `mapstructure:"seed"`
}

// NoiseSource emits uniform pseudorandom samples forever. The seed makes a
// run reproducible.
type NoiseSource struct {
	graph.StreamIO
	cfg NoiseSourceConfig
}

// NewNoiseSource creates a noise source.
func NewNoiseSource(cfg NoiseSourceConfig) (*NoiseSource, error) {
	switch cfg.Type {
	case sample.Byte, sample.Float, sample.Complex:
	default:
		return nil, fmt.Errorf("noise_source: unsupported type %s", cfg.Type)
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 1.0
	}
	return &NoiseSource{
		StreamIO: graph.NewStreamIO(nil, []int{cfg.Type.Size()}),
		cfg:      cfg,
	}, nil
}

func (b *NoiseSource) Run(ctx context.Context) error {
	defer b.CloseOuts()
	rng := rand.New(rand.NewSource(b.cfg.Seed))
	amp := float32(b.cfg.Amplitude)

	for {
		var chunk []byte
		switch b.cfg.Type {
		case sample.Byte:
			chunk = make([]byte, chunkItems)
			rng.Read(chunk)
		case sample.Float:
			vals := make([]float32, chunkItems)
			for i := range vals {
				vals[i] = amp * (2*rng.Float32() - 1)
			}
			chunk = make([]byte, 4*chunkItems)
			sample.PutFloat32(chunk, vals)
		case sample.Complex:
			vals := make([]complex64, chunkItems)
			for i := range vals {
				vals[i] = complex(amp*(2*rng.Float32()-1), amp*(2*rng.Float32()-1))
			}
			chunk = make([]byte, 8*chunkItems)
			sample.PutComplex64(chunk, vals)
		}
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
	}
}

// SignalSourceConfig configures a SignalSource.
type SignalSourceConfig struct {
	Type       sample.Type `mapstructure:"type"`
	SampleRate float64     `mapstructure:"sample_rate"`
	Frequency  float64     `mapstructure:"frequency"`
	Amplitude  float64     `mapstructure:"amplitude"`
}

// SignalSource emits a sinusoid: a cosine for float streams, a complex
// exponential for complex streams.
type SignalSource struct {
	graph.StreamIO
	cfg SignalSourceConfig
}

// NewSignalSource creates a signal source.
func NewSignalSource(cfg SignalSourceConfig) (*SignalSource, error) {
	if cfg.Type != sample.Float && cfg.Type != sample.Complex {
		return nil, fmt.Errorf("signal_source: unsupported type %s", cfg.Type)
	}
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("signal_source: sample_rate must be > 0")
	}
	if cfg.Amplitude == 0 {
		cfg.Amplitude = 1.0
	}
	return &SignalSource{
		StreamIO: graph.NewStreamIO(nil, []int{cfg.Type.Size()}),
		cfg:      cfg,
	}, nil
}

func (b *SignalSource) Run(ctx context.Context) error {
	defer b.CloseOuts()

	step := 2 * math.Pi * b.cfg.Frequency / b.cfg.SampleRate
	amp := b.cfg.Amplitude
	var phase float64

	for {
		var chunk []byte
		if b.cfg.Type == sample.Float {
			vals := make([]float32, chunkItems)
			for i := range vals {
				vals[i] = float32(amp * math.Cos(phase))
				phase = wrapPhase(phase + step)
			}
			chunk = make([]byte, 4*chunkItems)
			sample.PutFloat32(chunk, vals)
		} else {
			vals := make([]complex64, chunkItems)
			for i := range vals {
				s, c := math.Sincos(phase)
				vals[i] = complex(float32(amp*c), float32(amp*s))
				phase = wrapPhase(phase + step)
			}
			chunk = make([]byte, 8*chunkItems)
			sample.PutComplex64(chunk, vals)
		}
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
	}
}

func wrapPhase(p float64) float64 {
	if p > 2*math.Pi {
		return p - 2*math.Pi
	}
	return p
}

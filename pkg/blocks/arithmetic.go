package blocks

import (
	"context"
	"fmt"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// ConstConfig configures the element-wise constant blocks. Imag is only
// meaningful for complex streams.
type ConstConfig struct {
	Type  sample.Type `mapstructure:"type"`
	Value float64     `mapstructure:"value"`
	Imag  float64     `mapstructure:"imag"`
}

func (c ConstConfig) check(name string) error {
	if c.Type != sample.Float && c.Type != sample.Complex {
		return fmt.Errorf("%s: unsupported type %s", name, c.Type)
	}
	if c.Imag != 0 && c.Type != sample.Complex {
		return fmt.Errorf("%s: imag requires a complex stream", name)
	}
	return nil
}

// MultiplyConst multiplies every sample by a constant.
type MultiplyConst struct {
	graph.StreamIO
	cfg ConstConfig
}

// NewMultiplyConst creates a multiply-by-constant block.
func NewMultiplyConst(cfg ConstConfig) (*MultiplyConst, error) {
	if err := cfg.check("multiply_const"); err != nil {
		return nil, err
	}
	size := cfg.Type.Size()
	return &MultiplyConst{StreamIO: graph.NewStreamIO([]int{size}, []int{size}), cfg: cfg}, nil
}

func (b *MultiplyConst) Run(ctx context.Context) error {
	defer b.CloseOuts()
	return mapChunks(ctx, &b.StreamIO, b.cfg, func(v, k complex64) complex64 { return v * k },
		func(v, k float32) float32 { return v * k })
}

// AddConst adds a constant to every sample.
type AddConst struct {
	graph.StreamIO
	cfg ConstConfig
}

// NewAddConst creates an add-constant block.
func NewAddConst(cfg ConstConfig) (*AddConst, error) {
	if err := cfg.check("add_const"); err != nil {
		return nil, err
	}
	size := cfg.Type.Size()
	return &AddConst{StreamIO: graph.NewStreamIO([]int{size}, []int{size}), cfg: cfg}, nil
}

func (b *AddConst) Run(ctx context.Context) error {
	defer b.CloseOuts()
	return mapChunks(ctx, &b.StreamIO, b.cfg, func(v, k complex64) complex64 { return v + k },
		func(v, k float32) float32 { return v + k })
}

// mapChunks applies an element-wise operation in place. Chunk ownership
// transfers along a connection, so mutating the received buffer is safe.
func mapChunks(ctx context.Context, s *graph.StreamIO, cfg ConstConfig,
	cop func(v, k complex64) complex64, fop func(v, k float32) float32) error {

	for chunk := range s.In[0] {
		if cfg.Type == sample.Complex {
			k := complex(float32(cfg.Value), float32(cfg.Imag))
			vals := sample.Complex64s(chunk)
			for i, v := range vals {
				vals[i] = cop(v, k)
			}
			sample.PutComplex64(chunk, vals)
		} else {
			k := float32(cfg.Value)
			vals := sample.Float32s(chunk)
			for i, v := range vals {
				vals[i] = fop(v, k)
			}
			sample.PutFloat32(chunk, vals)
		}
		if err := graph.Send(ctx, s.Out[0], chunk); err != nil {
			return err
		}
	}
	return nil
}

package blocks

import (
	"context"
	"fmt"
	"time"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// ThrottleConfig configures a Throttle.
type ThrottleConfig struct {
	Type       sample.Type `mapstructure:"type"`
	SampleRate float64     `mapstructure:"sample_rate"`
}

// Throttle paces a stream to a nominal sample rate. It exists for the same
// reason its namesake does in most flowgraph engines: without one, a purely
// synthetic graph spins as fast as the CPU allows.
type Throttle struct {
	graph.StreamIO
	size int
	rate float64
}

// NewThrottle creates a pacing block.
func NewThrottle(cfg ThrottleConfig) (*Throttle, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("throttle: sample_rate must be > 0")
	}
	size := cfg.Type.Size()
	return &Throttle{
		StreamIO: graph.NewStreamIO([]int{size}, []int{size}),
		size:     size,
		rate:     cfg.SampleRate,
	}, nil
}

func (b *Throttle) Run(ctx context.Context) error {
	defer b.CloseOuts()

	timer := time.NewTimer(0)
	defer timer.Stop()
	if !timer.Stop() {
		<-timer.C
	}

	for chunk := range b.In[0] {
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
		items := len(chunk) / b.size
		timer.Reset(time.Duration(float64(items) / b.rate * float64(time.Second)))
		select {
		case <-timer.C:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

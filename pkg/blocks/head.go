package blocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

// HeadConfig configures a Head.
type HeadConfig struct {
	Type   sample.Type `mapstructure:"type"`
	NItems int64       `mapstructure:"n_items"`
}

// Head passes exactly NItems samples downstream, then closes its output and
// raises its completion signal. It is the limiting element that bounds an
// otherwise unbounded run: the container waits on Done instead of polling
// the graph for progress.
type Head struct {
	graph.StreamIO
	size      int
	remaining int64
	done      chan struct{}
	once      sync.Once
}

// NewHead creates a limiting block.
func NewHead(cfg HeadConfig) (*Head, error) {
	if cfg.NItems <= 0 {
		return nil, fmt.Errorf("head: n_items must be > 0")
	}
	return &Head{
		StreamIO:  graph.NewStreamIO([]int{cfg.Type.Size()}, []int{cfg.Type.Size()}),
		size:      cfg.Type.Size(),
		remaining: cfg.NItems,
		done:      make(chan struct{}),
	}, nil
}

// Done implements graph.Completer. The channel closes once the limit has
// been forwarded, or when the block exits early because upstream ran dry.
func (b *Head) Done() <-chan struct{} { return b.done }

func (b *Head) Run(ctx context.Context) error {
	defer b.once.Do(func() { close(b.done) })
	defer b.CloseOuts()

	for b.remaining > 0 {
		chunk, ok := <-b.In[0]
		if !ok {
			return nil
		}
		items := int64(len(chunk) / b.size)
		if items > b.remaining {
			items = b.remaining
			chunk = chunk[:items*int64(b.size)]
		}
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
		b.remaining -= items
		graph.ObserveItems("head", int(items))
	}
	return nil
}

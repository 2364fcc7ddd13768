package registry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/sample"
)

type nopBlock struct {
	graph.StreamIO
}

func (b *nopBlock) Run(ctx context.Context) error { return nil }

func nopConstructor(args Args) (graph.Block, error) {
	return &nopBlock{}, nil
}

func TestBuilder_RegisterRejectsDuplicates(t *testing.T) {
	b := Builder{}
	require.NoError(t, b.Register("thing", "a thing", nopConstructor))

	err := b.Register("thing", "another thing", nopConstructor)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "thing")
}

func TestBuilder_MergeRejectsCollisions(t *testing.T) {
	a := Builder{}
	require.NoError(t, a.Register("shared", "built-in", nopConstructor))

	ext := Builder{}
	require.NoError(t, ext.Register("shared", "extension", nopConstructor))

	assert.Error(t, a.Merge(ext))
}

func TestBuilder_MergeAddsExtensions(t *testing.T) {
	a := Builder{}
	require.NoError(t, a.Register("builtin", "", nopConstructor))

	ext := Builder{}
	require.NoError(t, ext.Register("custom", "", nopConstructor))
	require.NoError(t, a.Merge(ext))

	reg := a.Freeze()
	assert.Equal(t, []string{"builtin", "custom"}, reg.Types())
}

func TestRegistry_NewUnknownTypeNamesIt(t *testing.T) {
	reg := Builder{}.Freeze()

	_, err := reg.New("spectrogram", nil)
	require.ErrorIs(t, err, ErrUnknownType)
	assert.Contains(t, err.Error(), "spectrogram")
}

func TestDecode_WeakTypingAndSampleTypes(t *testing.T) {
	var cfg struct {
		Path   string      `mapstructure:"path"`
		Type   sample.Type `mapstructure:"type"`
		NItems int64       `mapstructure:"n_items"`
	}
	// JSON decoding hands numbers over as float64.
	args := Args{"path": "/tmp/x.32cf", "type": "complex", "n_items": float64(4000)}

	require.NoError(t, Decode(args, &cfg))
	assert.Equal(t, "/tmp/x.32cf", cfg.Path)
	assert.Equal(t, sample.Complex, cfg.Type)
	assert.Equal(t, int64(4000), cfg.NItems)
}

func TestDecode_RejectsUnknownKeys(t *testing.T) {
	var cfg struct {
		Path string `mapstructure:"path"`
	}
	err := Decode(Args{"path": "x", "repeet": true}, &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "repeet")
}

func TestDecode_RejectsBadSampleType(t *testing.T) {
	var cfg struct {
		Type sample.Type `mapstructure:"type"`
	}
	assert.Error(t, Decode(Args{"type": "quaternion"}, &cfg))
}

package blocks_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geontech/grflow/pkg/blocks"
	"github.com/geontech/grflow/pkg/registry"
)

func testRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return blocks.Builtin(logger).Freeze()
}

func TestBuiltin_CoversExpectedTypes(t *testing.T) {
	reg := testRegistry(t)
	for _, name := range []string{
		"file_source", "file_sink", "head", "vector_source", "noise_source",
		"signal_source", "multiply_const", "add_const", "throttle", "null_sink",
		"fft_mag", "udp_sink", "udp_source", "msg_to_stream", "message_debug",
		"message_sink",
	} {
		_, ok := reg.Lookup(name)
		assert.True(t, ok, "missing built-in %q", name)
	}
}

func TestBuiltin_ConstructsFromArgs(t *testing.T) {
	reg := testRegistry(t)

	blk, err := reg.New("head", registry.Args{"type": "complex", "n_items": float64(100)})
	require.NoError(t, err)
	assert.NotNil(t, blk)
}

func TestBuiltin_MisspelledArgFailsConstruction(t *testing.T) {
	reg := testRegistry(t)

	_, err := reg.New("head", registry.Args{"type": "complex", "n_itemz": float64(100)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "head")
}

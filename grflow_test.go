package grflow_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geontech/grflow"
	"github.com/geontech/grflow/pkg/graph"
	"github.com/geontech/grflow/pkg/registry"
	"github.com/geontech/grflow/pkg/sample"
	"github.com/geontech/grflow/pkg/scenario"
)

func TestEngine_RunFileDataMode(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.32cf")
	path := filepath.Join(dir, "scenario.json")

	doc := `{
		"components": {
			"src": {"type": "signal_source", "args": {"type": "complex", "sample_rate": 32000, "frequency": 440}},
			"lim": {"type": "head", "args": {"type": "complex", "n_items": 2048}},
			"file": {"type": "file_sink", "args": {"type": "complex", "path": ` + strconv.Quote(out) + `}}
		},
		"connections": [["src", 0, "lim", 0], ["lim", 0, "file", 0]],
		"simulation": {"type": "data"}
	}`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	eng, err := grflow.New()
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, eng.RunFile(ctx, path, nil))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(2048*sample.Complex.Size()), info.Size())
}

func TestEngine_ValidateFile(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`{
		"components": {
			"src": {"type": "noise_source", "args": {"type": "float"}},
			"out": {"type": "null_sink", "args": {"type": "float"}}
		},
		"connections": [["src", 0, "out", 0]],
		"simulation": {"type": "user"}
	}`), 0o644))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{
		"components": {
			"src": {"type": "noise_source", "args": {"type": "float"}}
		},
		"connections": [["src", 0, "missing", 0]],
		"simulation": {"type": "data"}
	}`), 0o644))

	badMode := filepath.Join(dir, "mode.json")
	require.NoError(t, os.WriteFile(badMode, []byte(`{
		"components": {},
		"connections": [],
		"simulation": {"type": "explode"}
	}`), 0o644))

	eng, err := grflow.New()
	require.NoError(t, err)

	assert.NoError(t, eng.ValidateFile(good))
	assert.ErrorIs(t, eng.ValidateFile(bad), scenario.ErrUnknownEndpoint)
	assert.ErrorIs(t, eng.ValidateFile(badMode), scenario.ErrUnknownRunMode)
}

// tapBlock counts chunks so extension wiring is observable from a scenario.
type tapBlock struct {
	graph.StreamIO
}

func (b *tapBlock) Run(ctx context.Context) error {
	defer b.CloseOuts()
	for chunk := range b.In[0] {
		if err := graph.Send(ctx, b.Out[0], chunk); err != nil {
			return err
		}
	}
	return nil
}

func TestEngine_WithBlocksExtension(t *testing.T) {
	ext := registry.Builder{}
	require.NoError(t, ext.Register("tap", "pass samples through unchanged",
		func(args registry.Args) (graph.Block, error) {
			return &tapBlock{StreamIO: graph.NewStreamIO([]int{0}, []int{0})}, nil
		}))

	eng, err := grflow.New(grflow.WithBlocks(ext))
	require.NoError(t, err)

	_, ok := eng.Registry().Lookup("tap")
	assert.True(t, ok)

	dir := t.TempDir()
	out := filepath.Join(dir, "out.32rf")
	doc := `{
		"components": {
			"src": {"type": "noise_source", "args": {"type": "float", "seed": 9}},
			"tap": {"type": "tap", "args": {}},
			"lim": {"type": "head", "args": {"type": "float", "n_items": 128}},
			"file": {"type": "file_sink", "args": {"type": "float", "path": ` + strconv.Quote(out) + `}}
		},
		"connections": [["src", 0, "tap", 0], ["tap", 0, "lim", 0], ["lim", 0, "file", 0]],
		"simulation": {"type": "data"}
	}`
	sc, err := scenario.Parse([]byte(doc))
	require.NoError(t, err)

	top, err := eng.Build(sc)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, scenario.Run(ctx, top, sc.Simulation, nil))

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Equal(t, int64(128*sample.Float.Size()), info.Size())
}

func TestEngine_ExtensionCollisionFails(t *testing.T) {
	ext := registry.Builder{}
	require.NoError(t, ext.Register("head", "shadowing a built-in", nil))

	_, err := grflow.New(grflow.WithBlocks(ext))
	assert.Error(t, err)
}

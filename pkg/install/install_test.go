package install

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func nopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestListFiles_RecursesAndFilters(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested", "deep"), 0o755))
	for _, name := range []string{
		"top.grc",
		"readme.txt",
		filepath.Join("nested", "mid.grc"),
		filepath.Join("nested", "deep", "leaf.grc"),
		filepath.Join("nested", "notes.md"),
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := ListFiles(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.True(t, filepath.IsAbs(f), "want absolute path, got %s", f)
		assert.True(t, strings.HasSuffix(f, Ext))
	}
}

func TestListFiles_RejectsNonDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "single.grc")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := ListFiles(file)
	assert.Error(t, err)
}

func TestListFiles_MissingRoot(t *testing.T) {
	_, err := ListFiles(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

// scriptedCompiler fails a file until its listed prerequisite has been
// installed, mimicking hierarchical block dependencies.
type scriptedCompiler struct {
	deps      map[string]string
	installed map[string]bool
	calls     int
}

func newScriptedCompiler(deps map[string]string) *scriptedCompiler {
	return &scriptedCompiler{deps: deps, installed: make(map[string]bool)}
}

func (c *scriptedCompiler) Install(ctx context.Context, file, target string) error {
	c.calls++
	if dep, ok := c.deps[file]; ok && !c.installed[dep] {
		return errors.New("unknown hierarchical block")
	}
	c.installed[file] = true
	return nil
}

func TestInstallAll_ConvergesOverDependencyChain(t *testing.T) {
	// c needs b, b needs a: listed worst-case-first so each pass lands
	// exactly one file.
	files := []string{"c.grc", "b.grc", "a.grc"}
	comp := newScriptedCompiler(map[string]string{
		"c.grc": "b.grc",
		"b.grc": "a.grc",
	})

	res := InstallAll(context.Background(), files, "/tmp/target", comp, nopLogger())
	assert.ElementsMatch(t, files, res.Passed)
	assert.Empty(t, res.Failed)
}

func TestInstallAll_ReportsStuckFilesAsData(t *testing.T) {
	files := []string{"ok.grc", "broken.grc"}
	comp := newScriptedCompiler(map[string]string{
		"broken.grc": "missing.grc",
	})

	res := InstallAll(context.Background(), files, "/tmp/target", comp, nopLogger())
	assert.Equal(t, []string{"ok.grc"}, res.Passed)
	assert.Equal(t, []string{"broken.grc"}, res.Failed)
}

// failEverything never succeeds.
type failEverything struct{ calls int }

func (c *failEverything) Install(ctx context.Context, file, target string) error {
	c.calls++
	return errors.New("no compiler")
}

func TestInstallAll_StopsAfterFruitlessPass(t *testing.T) {
	files := []string{"a.grc", "b.grc"}
	comp := &failEverything{}

	res := InstallAll(context.Background(), files, "/tmp/target", comp, nopLogger())
	assert.Empty(t, res.Passed)
	assert.ElementsMatch(t, files, res.Failed)
	// One fruitless pass is enough; no retries after zero progress.
	assert.Equal(t, len(files), comp.calls)
}

func TestInstallAll_SinglePassWhenAllSucceed(t *testing.T) {
	files := []string{"a.grc", "b.grc", "c.grc"}
	comp := newScriptedCompiler(nil)

	res := InstallAll(context.Background(), files, "/tmp/target", comp, nopLogger())
	assert.ElementsMatch(t, files, res.Passed)
	assert.Equal(t, len(files), comp.calls)
}

func TestInstallAll_EmptyInput(t *testing.T) {
	res := InstallAll(context.Background(), nil, "/tmp/target", &failEverything{}, nopLogger())
	assert.Empty(t, res.Passed)
	assert.Empty(t, res.Failed)
}

func TestGRCC_ExplicitAPIVersionSkipsProbe(t *testing.T) {
	g := &GRCC{APIVersion: "7"}
	assert.Equal(t, "7", g.apiVersion(context.Background()))

	g = &GRCC{APIVersion: "8"}
	assert.Equal(t, "8", g.apiVersion(context.Background()))
}

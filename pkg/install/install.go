// Package install batch-compiles GRC flowgraph descriptions into a target
// directory by shelling out to the grcc compiler.
//
// GRC files may depend on hierarchical blocks defined by other GRC files, so
// a single pass is not enough: the installer loops over the remaining files
// until a pass installs nothing new. A file whose dependency landed in an
// earlier pass compiles in a later one, without anyone declaring the
// dependency graph explicitly.
package install

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Ext is the extension that marks a GRC description file.
const Ext = ".grc"

// ListFiles recursively collects every GRC file under root, at any depth,
// returning absolute paths. It fails if root is not a directory.
func ListFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var out []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, Ext) {
			out = append(out, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Compiler installs a single description file into a target directory. The
// indirection exists so convergence behavior is testable without a grcc
// binary on the path.
type Compiler interface {
	Install(ctx context.Context, file, target string) error
}

// GRCC shells out to the external grcc compiler. The flag that names the
// install directory changed across compiler generations: API version 7 wants
// -d, newer ones want -o.
type GRCC struct {
	// APIVersion overrides version probing when non-empty.
	APIVersion string

	probed  bool
	version string
}

// Install compiles one file. A non-zero exit status is the failure signal;
// there is no structured error channel from grcc.
func (g *GRCC) Install(ctx context.Context, file, target string) error {
	flag := "-o"
	if g.apiVersion(ctx) == "7" {
		flag = "-d"
	}
	cmd := exec.CommandContext(ctx, "grcc", file, flag, target)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("grcc %s: %w: %s", file, err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (g *GRCC) apiVersion(ctx context.Context) string {
	if g.APIVersion != "" {
		return g.APIVersion
	}
	if !g.probed {
		g.probed = true
		out, err := exec.CommandContext(ctx, "grcc", "--version").Output()
		if err == nil && strings.Contains(string(out), "3.7") {
			g.version = "7"
		}
	}
	return g.version
}

// Result partitions the input files after convergence. The two lists are
// disjoint and together cover the input.
type Result struct {
	Passed []string
	Failed []string
}

// InstallAll attempts to install every file, looping over the remaining ones
// until all pass or a full pass makes no progress. Per-file compiler
// failures are logged and retried in later passes; only the files still
// failing at convergence are reported, as data rather than an error. The
// no-progress break bounds the loop at one pass per file in the worst case.
func InstallAll(ctx context.Context, files []string, target string, c Compiler, logger *slog.Logger) Result {
	passed := make([]bool, len(files))
	numPassed := 0

	for pass := 1; ; pass++ {
		installed := 0
		for i, file := range files {
			if passed[i] {
				continue
			}
			if err := c.Install(ctx, file, target); err != nil {
				// Expected while dependencies are still missing;
				// surfaced only through the final partition.
				logger.Debug("install failed", "pass", pass, "file", file, "error", err)
				continue
			}
			passed[i] = true
			installed++
			numPassed++
			logger.Info("installed", "pass", pass, "file", file)
		}
		logger.Info("install pass complete", "pass", pass, "installed", installed, "remaining", len(files)-numPassed)
		if installed == 0 || numPassed == len(files) {
			break
		}
	}

	var res Result
	for i, file := range files {
		if passed[i] {
			res.Passed = append(res.Passed, file)
		} else {
			res.Failed = append(res.Failed, file)
		}
	}
	return res
}

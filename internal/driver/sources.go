package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"time"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"windjammer/internal/ast"
	"windjammer/internal/buildpipeline"
	"windjammer/internal/diag"
	"windjammer/internal/layout"
	"windjammer/internal/parser"
	"windjammer/internal/source"
)

// directories never searched for sources
var skipSourceDirs = map[string]bool{"target": true, "build": true}

// DiscoverSources returns the `.wj` files under srcDir as sorted
// slash-separated relative paths. Hidden directories, `target`, `build` and
// the skip paths are not entered.
func DiscoverSources(srcDir string, skip ...string) ([]string, error) {
	skipAbs := make(map[string]bool, len(skip))
	for _, s := range skip {
		if abs, err := filepath.Abs(s); err == nil {
			skipAbs[abs] = true
		}
	}
	var out []string
	err := filepath.WalkDir(srcDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if p == srcDir {
				return nil
			}
			name := d.Name()
			if strings.HasPrefix(name, ".") || skipSourceDirs[name] {
				return filepath.SkipDir
			}
			if abs, err := filepath.Abs(p); err == nil && skipAbs[abs] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".wj" {
			return nil
		}
		rel, err := filepath.Rel(srcDir, p)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %q: %w", srcDir, err)
	}
	slices.Sort(out)
	return out, nil
}

// parsed is one source after the parse stage.
type parsed struct {
	rel    string
	module []string
	dir    bool // mod.wj, or the root main.wj / lib.wj
	file   *ast.File
	bag    *diag.Bag
}

type loadError struct {
	path string
	err  error
}

func (e *loadError) Error() string { return fmt.Sprintf("failed to read %s: %v", e.path, e.err) }
func (e *loadError) Unwrap() error { return e.err }

// parseSources loads every file sequentially (the FileSet is not safe for
// concurrent writes), then lexes and parses them in parallel, each into its
// own bag. Results keep the order of rels.
func parseSources(ctx context.Context, fset *source.FileSet, srcDir string, rels []string, opts *BuildOptions) ([]*parsed, error) {
	out := make([]*parsed, len(rels))
	ids := make([]source.FileID, len(rels))
	for i, rel := range rels {
		module, dir := layout.ModulePath(rel)
		out[i] = &parsed{rel: rel, module: module, dir: dir, bag: diag.NewBag(opts.MaxDiagnostics)}
		full := filepath.Join(srcDir, filepath.FromSlash(rel))
		id, err := fset.Load(full)
		if err != nil {
			return nil, &loadError{path: full, err: err}
		}
		ids[i] = id
	}

	maxErrors, err := safecast.Conv[uint](max(opts.MaxDiagnostics, 0))
	if err != nil {
		return nil, err
	}
	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(min(jobs, len(rels)), 1))
	for i := range rels {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p := out[i]
			start := time.Now()
			buildpipeline.Emit(opts.Progress, p.rel, buildpipeline.StageParse, buildpipeline.StatusWorking, nil, 0)
			p.file = parser.ParseFile(fset, ids[i], p.module, parser.Options{
				Reporter:  diag.BagReporter{Bag: p.bag},
				MaxErrors: maxErrors,
			})
			status := buildpipeline.StatusDone
			if p.bag.HasErrors() {
				status = buildpipeline.StatusError
			}
			buildpipeline.Emit(opts.Progress, p.rel, buildpipeline.StageParse, status, nil, time.Since(start))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parse interrupted: %w", err)
	}
	return out, nil
}

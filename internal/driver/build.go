package driver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"windjammer/internal/ast"
	"windjammer/internal/buildpipeline"
	"windjammer/internal/diag"
	"windjammer/internal/layout"
	"windjammer/internal/observ"
	"windjammer/internal/project"
	"windjammer/internal/rustcheck"
	"windjammer/internal/rustgen"
	"windjammer/internal/source"
	"windjammer/internal/version"
)

// BuildOptions configure BuildProject. The zero value builds a Rust crate
// with a Cargo.toml and default feature gates.
type BuildOptions struct {
	Target     string // "" or "rust"
	Library    bool
	ModuleFile bool // emit mod.rs for inclusion into an existing crate
	NoCargo    bool
	Verify     bool // parse every generated file with tree-sitter-rust
	DryRun     bool // run everything, write nothing

	// ProjectRoot is searched for hand-written Rust modules and a Cargo.toml;
	// the parent of the source directory when empty.
	ProjectRoot  string
	Package      project.PackageConfig
	FeatureGates map[string][]string // nil: layout.DefaultGates

	MaxDiagnostics int
	Jobs           int

	Progress buildpipeline.ProgressSink
	Timer    *observ.Timer
	Log      *logrus.Entry
}

// BuildResult describes a finished (or failed) build.
type BuildResult struct {
	FileSet     *source.FileSet
	Diagnostics *diag.Bag
	Sources     []string // relative to the source directory
	OutDir      string
	Root        layout.RootKind
	Layout      *layout.Layout
	HandWritten []layout.HandWritten
	Analysis    *Analysis

	// relative to OutDir; with DryRun, Written lists what would be written
	Written   []string
	Unchanged []string
	Preserved []string

	Timings buildpipeline.Timings
}

// CheckTarget accepts "" and "rust"; the other known backends are rejected
// with ErrUnsupportedTarget.
func CheckTarget(target string) error {
	switch target {
	case "", "rust":
		return nil
	case "js", "javascript", "ts", "typescript", "python", "py":
		return fmt.Errorf("%w: the %s backend is not implemented, only rust is", ErrUnsupportedTarget, target)
	}
	return fmt.Errorf("%w: unknown target %q (expected rust, js, ts or python)", ErrUnsupportedTarget, target)
}

type build struct {
	ctx    context.Context
	srcDir string
	outDir string
	opts   BuildOptions
	log    *logrus.Entry
	res    *BuildResult
	rep    *countingReporter
}

// BuildProject compiles every `.wj` file under srcDir into a Rust crate in
// outDir. Diagnostics are collected in the result; the error is
// ErrCompileFailed when any of them is an error, and a wrapped I/O or
// configuration error otherwise.
func BuildProject(ctx context.Context, srcDir, outDir string, opts BuildOptions) (*BuildResult, error) {
	bag := diag.NewBag(opts.MaxDiagnostics)
	if err := CheckTarget(opts.Target); err != nil {
		diag.ReportError(diag.BagReporter{Bag: bag}, diag.SemUnsupportedTarget, source.Span{}, err.Error()).
			WithHelp("use --target rust").
			Emit()
		return &BuildResult{FileSet: source.NewFileSet(), Diagnostics: bag}, err
	}
	absSrc, err := filepath.Abs(srcDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", srcDir, err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", outDir, err)
	}
	if opts.ProjectRoot == "" {
		opts.ProjectRoot = filepath.Dir(absSrc)
	}
	log := opts.Log
	if log == nil {
		log = quietLog()
	}

	b := &build{
		ctx:    ctx,
		srcDir: absSrc,
		outDir: absOut,
		opts:   opts,
		log:    log.WithFields(logrus.Fields{"src": absSrc, "out": absOut}),
		res: &BuildResult{
			FileSet:     source.NewFileSetWithBase(absSrc),
			Diagnostics: bag,
			OutDir:      absOut,
		},
		rep: &countingReporter{next: diag.BagReporter{Bag: bag}},
	}
	err = b.run()
	bag.Sort()
	if err == nil && b.rep.errors > 0 {
		err = ErrCompileFailed
	}
	return b.res, err
}

// ioError reports err as a diagnostic with code and returns it; the build
// stops with an I/O failure rather than a compile error.
func (b *build) ioError(code diag.Code, path string, err error) error {
	diag.ReportError(b.rep, code, source.Span{}, fmt.Sprintf("%s: %v", path, err)).Emit()
	return err
}

// stage runs fn as one timed pipeline stage and checks for cancellation
// afterwards.
func (b *build) stage(stage buildpipeline.Stage, fn func() error) error {
	start := time.Now()
	b.log.WithField("stage", stage).Debug("stage started")
	err := fn()
	b.res.Timings.Add(stage, time.Since(start))
	status := buildpipeline.StatusDone
	if err != nil || b.rep.errors > 0 {
		status = buildpipeline.StatusError
	}
	buildpipeline.EmitStage(b.opts.Progress, nil, stage, status, err, time.Since(start))
	b.log.WithFields(logrus.Fields{"stage": stage, "elapsed": time.Since(start)}).Debug("stage finished")
	if err != nil {
		return err
	}
	return b.ctx.Err()
}

func (b *build) run() error {
	timer := b.opts.Timer

	done := timer.Track("discover")
	rels, err := DiscoverSources(b.srcDir, b.outDir)
	done(len(rels))
	if err != nil {
		return b.ioError(diag.IOReadDirError, b.srcDir, err)
	}
	if len(rels) == 0 {
		diag.ReportError(b.rep, diag.PrjNoSources, source.Span{}, fmt.Sprintf("no .wj files in %s", b.srcDir)).
			WithHelp("pass the directory that holds your .wj sources").
			Emit()
		return nil
	}
	b.res.Sources = rels
	buildpipeline.Queued(b.opts.Progress, rels)

	var files []*parsed
	if err := b.stage(buildpipeline.StageParse, func() error {
		defer timer.Track("parse")(len(rels))
		var err error
		files, err = parseSources(b.ctx, b.res.FileSet, b.srcDir, rels, &b.opts)
		var lerr *loadError
		if errors.As(err, &lerr) {
			return b.ioError(diag.IOLoadFileError, lerr.path, lerr.err)
		}
		if err != nil {
			return err
		}
		for _, p := range files {
			for _, d := range p.bag.Items() {
				b.rep.Report(d)
			}
		}
		return nil
	}); err != nil {
		return err
	}
	if b.rep.errors > 0 {
		return nil
	}

	hw, err := layout.DiscoverHandWritten(b.opts.ProjectRoot, b.srcDir, b.outDir)
	if err != nil {
		return b.ioError(diag.IOReadDirError, b.opts.ProjectRoot, err)
	}
	b.res.HandWritten = hw

	units, hasMain := b.units(files)
	kind, mount := layout.DecideRoot(b.outDir, b.opts.Library, hasMain)
	if b.opts.ModuleFile && kind != layout.RootMod {
		kind, mount = layout.RootMod, []string{layout.ModuleName(filepath.Base(b.outDir))}
	}
	b.res.Root = kind
	tree, err := layout.NewTreeOf(units, mount, layout.Names(hw))
	if err != nil {
		return b.layoutError(err)
	}
	b.log.WithFields(logrus.Fields{"root": kind.File(), "files": len(files), "hand_written": len(hw)}).Debug("module tree ready")

	prog := &ast.Program{Files: make([]*ast.File, len(files))}
	for i, p := range files {
		prog.Files[i] = p.file
	}
	if err := b.stage(buildpipeline.StageAnalyze, func() error {
		buildpipeline.EmitStage(b.opts.Progress, rels, buildpipeline.StageAnalyze, buildpipeline.StatusWorking, nil, 0)
		var err error
		b.res.Analysis, err = analyze(b.ctx, prog, b.rep, timer)
		return err
	}); err != nil {
		return err
	}
	if b.rep.errors > 0 {
		return nil
	}

	if err := b.stage(buildpipeline.StageEmit, func() error {
		defer timer.Track("emit")(len(files))
		a := b.res.Analysis
		em := rustgen.New(a.Info, a.Ownership, a.Copy, b.rep, rustgen.Options{
			Library: b.opts.Library,
			UsePath: tree.UsePath,
		})
		for i, p := range files {
			start := time.Now()
			buildpipeline.Emit(b.opts.Progress, p.rel, buildpipeline.StageEmit, buildpipeline.StatusWorking, nil, 0)
			out, err := em.EmitFile(p.file)
			if err != nil {
				// диагностика уже в bag; остальные файлы всё равно проверяем
				buildpipeline.Emit(b.opts.Progress, p.rel, buildpipeline.StageEmit, buildpipeline.StatusError, err, time.Since(start))
				continue
			}
			units[i].Source = out.Source()
			buildpipeline.Emit(b.opts.Progress, p.rel, buildpipeline.StageEmit, buildpipeline.StatusDone, nil, time.Since(start))
		}
		return nil
	}); err != nil {
		return err
	}
	if b.rep.errors > 0 {
		return nil
	}

	gates := b.opts.FeatureGates
	if gates == nil {
		gates = layout.DefaultGates
	}
	g, err := layout.NewGates(gates)
	if err != nil {
		return err
	}
	done = timer.Track("layout")
	b.res.Layout = layout.Plan(tree, layout.Options{Root: kind, Gates: g})
	done(len(b.res.Layout.Files))

	if b.opts.Verify {
		done = timer.Track("verify")
		for _, f := range b.res.Layout.Files {
			if _, err := rustcheck.Verify(b.res.FileSet, filepath.Join(b.outDir, filepath.FromSlash(f.Path)), []byte(f.Content), b.rep); err != nil {
				return err
			}
		}
		done(len(b.res.Layout.Files))
		if b.rep.errors > 0 {
			return nil
		}
	}

	return b.stage(buildpipeline.StageWrite, func() error {
		defer timer.Track("write")(len(b.res.Layout.Files))
		if err := b.write(hw); err != nil {
			return err
		}
		buildpipeline.EmitStage(b.opts.Progress, rels, buildpipeline.StageWrite, buildpipeline.StatusDone, nil, 0)
		return nil
	})
}

// units describes every parsed file for the layout.
func (b *build) units(files []*parsed) ([]*layout.Unit, bool) {
	units := make([]*layout.Unit, len(files))
	hasMain := false
	for i, p := range files {
		u := &layout.Unit{Module: p.module, Dir: p.dir, Origin: p.rel}
		for _, it := range p.file.Items {
			switch x := it.(type) {
			case *ast.FnDecl:
				if len(p.module) == 0 && x.Name == "main" {
					u.HasMain = true
				}
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.StructDecl:
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.EnumDecl:
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.TraitDecl:
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.TypeAlias:
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.ConstDecl:
				if x.Pub {
					u.Exports = append(u.Exports, x.Name)
				}
			case *ast.UseDecl:
				if x.Pub {
					u.Reexports = true
				}
			}
		}
		hasMain = hasMain || u.HasMain
		units[i] = u
	}
	return units, hasMain
}

func (b *build) layoutError(err error) error {
	var lerr *layout.Error
	if !errors.As(err, &lerr) {
		return err
	}
	help := "rename one of the files"
	if lerr.Kind == layout.ErrHandWrittenClash {
		help = "rename the hand-written Rust module or the WJ source"
	}
	diag.ReportError(b.rep, diag.SemDuplicateDecl, source.Span{}, lerr.Error()).WithHelp(help).Emit()
	return nil
}

func (b *build) write(hw []layout.HandWritten) error {
	if !b.opts.DryRun {
		if err := os.MkdirAll(b.outDir, 0o755); err != nil {
			return b.ioError(diag.IOWriteError, b.outDir, err)
		}
	}
	prev, err := loadRecord(b.outDir)
	if err != nil {
		return err
	}
	w := &writer{
		outDir: b.outDir,
		prev:   prev,
		next:   newRecord(version.Version),
		rep:    b.rep,
		log:    b.log,
		dryRun: b.opts.DryRun,
	}
	for _, f := range b.res.Layout.Files {
		if err := w.put(f.Path, []byte(f.Content)); err != nil {
			return b.ioError(diag.IOWriteError, f.Path, err)
		}
	}
	for _, h := range hw {
		if h.Dir {
			err = w.copyDir(h.Path, h.Name)
		} else {
			err = w.copyFile(h.Path, h.Name+".rs")
		}
		if err != nil {
			return err
		}
	}
	if !b.opts.NoCargo && b.res.Root != layout.RootMod {
		data, err := b.cargo()
		if err != nil {
			return err
		}
		if err := w.put(project.CargoName, data); err != nil {
			return err
		}
	}
	if err := w.prune(); err != nil {
		return err
	}
	b.res.Written, b.res.Unchanged, b.res.Preserved = w.written, w.unchanged, w.preserved
	if b.opts.DryRun {
		return nil
	}
	if err := w.next.save(b.outDir); err != nil {
		return b.ioError(diag.IOWriteError, filepath.Join(b.outDir, RecordName), err)
	}
	return nil
}

// cargo renders the output's Cargo.toml: the project's own, adapted, or a
// fresh one.
func (b *build) cargo() ([]byte, error) {
	name := b.opts.Package.Name
	if name == "" {
		name = project.DefaultConfig().Package.Name
	}
	t := project.CrateTarget{Name: layout.ModuleName(name), Version: b.opts.Package.Version, Root: b.res.Root.File()}

	user := filepath.Join(b.opts.ProjectRoot, project.CargoName)
	if filepath.Dir(user) != b.outDir {
		data, err := os.ReadFile(user) // #nosec G304 -- project manifest
		switch {
		case err == nil:
			b.log.WithField("cargo", user).Debug("adapting project Cargo.toml")
			out, err := project.RewriteCargo(data, b.opts.ProjectRoot, t)
			if err != nil {
				diag.ReportError(b.rep, diag.PrjCargoTomlError, source.Span{}, err.Error()).Emit()
				return nil, ErrCompileFailed
			}
			b.checkDependencyPaths(out)
			return out, nil
		case !errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("failed to read %s: %w", user, err)
		}
	}
	return project.DefaultCargo(t)
}

// checkDependencyPaths warns about path dependencies that do not exist once
// made absolute; cargo would fail on them.
func (b *build) checkDependencyPaths(cargo []byte) {
	deps, err := project.DependencyPaths(cargo)
	if err != nil {
		return
	}
	names := make([]string, 0, len(deps))
	for name := range deps {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, err := os.Stat(filepath.FromSlash(deps[name])); err == nil {
			continue
		}
		diag.ReportWarning(b.rep, diag.PrjUnresolvedCratePath, source.Span{},
			fmt.Sprintf("%s points at %s, which does not exist", name, deps[name])).
			WithHelp("fix the path in the project's Cargo.toml").
			Emit()
	}
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"windjammer/internal/buildpipeline"
	"windjammer/internal/diag"
	"windjammer/internal/driver"
	"windjammer/internal/observ"
	"windjammer/internal/project"
	"windjammer/internal/source"
	"windjammer/internal/ui"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [dir]",
	Short: "Compile a Windjammer project to Rust",
	Long: `Build compiles every .wj file of a project into a Rust crate.
Settings come from wj.toml when there is one; flags override them.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, false)
	},
}

var checkCmd = &cobra.Command{
	Use:   "check [flags] [dir]",
	Short: "Compile a Windjammer project without writing anything",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd, args, true)
	},
}

func init() {
	addBuildFlags(buildCmd)
	addBuildFlags(checkCmd)
	buildCmd.Flags().String("ui", "auto", "progress display (auto|on|off)")
}

func addBuildFlags(c *cobra.Command) {
	c.Flags().StringP("output", "o", "", "output directory (default: build)")
	c.Flags().String("target", "rust", "code generation target")
	c.Flags().Bool("library", false, "emit lib.rs and drop fn main")
	c.Flags().Bool("module-file", false, "emit mod.rs for inclusion into an existing crate")
	c.Flags().Bool("no-cargo", false, "do not write Cargo.toml")
	c.Flags().Bool("verify", false, "parse the generated Rust and report syntax errors")
	c.Flags().Int("jobs", 0, "max parallel parsers (0=auto)")
}

type buildSettings struct {
	src  string
	out  string
	opts driver.BuildOptions
}

// resolveBuild merges wj.toml, defaults and flags. The manifest is looked up
// from the directory argument, or the working directory.
func resolveBuild(cmd *cobra.Command, args []string) (*buildSettings, error) {
	start := "."
	if len(args) == 1 {
		start = args[0]
	}
	absStart, err := filepath.Abs(start)
	if err != nil {
		return nil, err
	}
	manifest, found, err := project.Load(absStart)
	if err != nil {
		bag := diag.NewBag(1)
		bag.Add(diag.NewError(diag.PrjManifestError, source.Span{}, err.Error()).
			WithHelp("see `[package]`, `[build]` and `[layout]` in wj.toml"))
		if perr := printDiagnostics(cmd, bag, source.NewFileSet()); perr != nil {
			return nil, perr
		}
		return nil, err
	}
	cfg := project.DefaultConfig()
	root := absStart
	if found {
		cfg, root = manifest.Config, manifest.Root
		log.WithField("manifest", manifest.Path).Debug("loaded project manifest")
	}

	s := &buildSettings{}
	switch {
	case found && cfg.Build.Source != "" && (len(args) == 0 || absStart == root):
		s.src = filepath.Join(root, cfg.Build.Source)
	case len(args) == 1:
		s.src = absStart
	case dirExists(filepath.Join(root, "src_wj")):
		s.src = filepath.Join(root, "src_wj")
	default:
		s.src = root
	}

	flags := cmd.Flags()
	if flags.Changed("output") {
		s.out, _ = flags.GetString("output")
	} else {
		out := cfg.Build.Output
		if out == "" {
			out = "build"
		}
		s.out = filepath.Join(root, out)
	}

	opts := driver.BuildOptions{
		Target:       cfg.Build.Target,
		Library:      cfg.Build.Library,
		ModuleFile:   cfg.Build.ModuleFile,
		NoCargo:      cfg.Build.NoCargo,
		Verify:       cfg.Build.Verify,
		Package:      cfg.Package,
		FeatureGates: cfg.Layout.FeatureGates,
	}
	if found {
		opts.ProjectRoot = root
	}
	if flags.Changed("target") {
		opts.Target, _ = flags.GetString("target")
	}
	for name, dst := range map[string]*bool{
		"library":     &opts.Library,
		"module-file": &opts.ModuleFile,
		"no-cargo":    &opts.NoCargo,
		"verify":      &opts.Verify,
	} {
		if flags.Changed(name) {
			*dst, _ = flags.GetBool(name)
		}
	}
	if opts.Jobs, err = flags.GetInt("jobs"); err != nil {
		return nil, err
	}
	if opts.MaxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics"); err != nil {
		return nil, err
	}
	s.opts = opts
	return s, nil
}

func dirExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && st.IsDir()
}

func runBuild(cmd *cobra.Command, args []string, dryRun bool) error {
	s, err := resolveBuild(cmd, args)
	if err != nil {
		return &exitError{code: exitCLIFail, err: err}
	}
	s.opts.DryRun = dryRun
	s.opts.Log = log.WithField("cmd", cmd.Name())

	showTimings, _ := cmd.Root().PersistentFlags().GetBool("timings")
	if showTimings {
		s.opts.Timer = observ.NewTimer()
	}

	useTUI := false
	if !dryRun && !quiet(cmd) {
		mode, err := switchFlag(cmd, "ui")
		if err != nil {
			return &exitError{code: exitCLIFail, err: err}
		}
		useTUI = mode.enabled(os.Stdout)
	}

	log.WithFields(log.Fields{"src": s.src, "out": s.out}).Info("building")
	var res *driver.BuildResult
	if useTUI {
		res, err = runBuildWithUI(cmd.Context(), s)
	} else {
		res, err = driver.BuildProject(cmd.Context(), s.src, s.out, s.opts)
	}
	if res != nil {
		if perr := printDiagnostics(cmd, res.Diagnostics, res.FileSet); perr != nil {
			return perr
		}
	}

	switch {
	case errors.Is(err, driver.ErrCompileFailed):
		return &exitError{code: exitFailed, err: err}
	case err != nil:
		return &exitError{code: exitCLIFail, err: err}
	}

	out := cmd.OutOrStdout()
	if showTimings {
		printStageTimings(cmd.ErrOrStderr(), res.Timings)
		fmt.Fprint(cmd.ErrOrStderr(), s.opts.Timer.Summary())
	}
	if !quiet(cmd) {
		printBuildSummary(out, res, dryRun)
	}
	return nil
}

func printBuildSummary(out io.Writer, res *driver.BuildResult, dryRun bool) {
	rel := res.OutDir
	if wd, err := os.Getwd(); err == nil {
		if r, err := filepath.Rel(wd, res.OutDir); err == nil {
			rel = r
		}
	}
	if dryRun {
		fmt.Fprintf(out, "checked %d files, %d would be written to %s\n", len(res.Sources), len(res.Written), rel)
		return
	}
	fmt.Fprintf(out, "compiled %d files into %s (%d written, %d unchanged)\n",
		len(res.Sources), rel, len(res.Written), len(res.Unchanged))
	for _, p := range res.Preserved {
		fmt.Fprintf(out, "kept %s\n", filepath.Join(rel, p))
	}
}

type buildOutcome struct {
	result *driver.BuildResult
	err    error
}

func runBuildWithUI(ctx context.Context, s *buildSettings) (*driver.BuildResult, error) {
	files, err := driver.DiscoverSources(s.src, s.out)
	if err != nil {
		return nil, err
	}
	events := make(chan buildpipeline.Event, 256)
	outcomeCh := make(chan buildOutcome, 1)

	go func() {
		opts := s.opts
		opts.Progress = buildpipeline.ChannelSink{Ch: events}
		res, err := driver.BuildProject(ctx, s.src, s.out, opts)
		outcomeCh <- buildOutcome{result: res, err: err}
		close(events)
	}()

	uiErr := ui.Run(os.Stdout, "wj build", files, events)
	for range events {
		// сборка не должна блокироваться, если UI закрыли раньше
	}
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}

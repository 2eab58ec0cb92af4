// Command wj compiles Windjammer sources to Rust.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"windjammer/internal/prof"
	"windjammer/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "wj",
	Short:         "Windjammer to Rust compiler",
	Long:          `wj compiles Windjammer (.wj) sources into a Rust crate, inferring ownership along the way`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return startProfiling(cmd)
	},
}

// profiling is stopped in run, after the command finished either way
var profiling *prof.Session

// exit codes
const (
	exitOK      = 0
	exitFailed  = 1 // compile errors
	exitCLIFail = 2 // bad usage, I/O
)

// exitError carries the process exit code; diagnostics are already printed.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	// Глобальные флаги
	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Bool("timings", false, "show timing information")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")
	rootCmd.PersistentFlags().String("diagnostics-format", "pretty", "diagnostics format (pretty|json|short)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log progress")
	rootCmd.PersistentFlags().Bool("debug", false, "log everything the compiler does")
	rootCmd.PersistentFlags().String("cpuprofile", "", "write a CPU profile to `file`")
	rootCmd.PersistentFlags().String("memprofile", "", "write a heap profile to `file` on exit")
	rootCmd.PersistentFlags().String("trace", "", "write a runtime execution trace to `file`")

	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if perr := profiling.Stop(); perr != nil {
		log.WithError(perr).Warn("failed to write profiles")
	}
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.code == exitCLIFail {
			fmt.Fprintln(os.Stderr, "wj:", ee.err)
		}
		return ee.code
	}
	fmt.Fprintln(os.Stderr, "wj:", err)
	return exitCLIFail
}

func setupLogging(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	verbose, err := flags.GetBool("verbose")
	if err != nil {
		return err
	}
	debug, err := flags.GetBool("debug")
	if err != nil {
		return err
	}
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true, ForceColors: useColor(cmd, os.Stderr)})
	switch {
	case debug:
		log.SetLevel(log.DebugLevel)
	case verbose:
		log.SetLevel(log.InfoLevel)
	default:
		log.SetLevel(log.WarnLevel)
	}
	return nil
}

func startProfiling(cmd *cobra.Command) error {
	flags := cmd.Root().PersistentFlags()
	var opts prof.Options
	opts.CPU, _ = flags.GetString("cpuprofile")
	opts.Mem, _ = flags.GetString("memprofile")
	opts.Trace, _ = flags.GetString("trace")
	if opts == (prof.Options{}) {
		return nil
	}
	s, err := prof.Start(opts)
	if err != nil {
		return &exitError{code: exitCLIFail, err: err}
	}
	profiling = s
	return nil
}

// isTerminal проверяет, является ли файл терминалом
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// useColor: an invalid --color value falls back to auto.
func useColor(cmd *cobra.Command, f *os.File) bool {
	s, _ := switchFlag(cmd, "color")
	return s.enabled(f)
}

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"windjammer/internal/diag"
	"windjammer/internal/diagfmt"
	"windjammer/internal/source"
)

// printDiagnostics renders bag to stderr in the format chosen by
// --diagnostics-format. An empty bag prints nothing in pretty mode.
func printDiagnostics(cmd *cobra.Command, bag *diag.Bag, fs *source.FileSet) error {
	if bag == nil {
		return nil
	}
	flags := cmd.Root().PersistentFlags()
	format, err := flags.GetString("diagnostics-format")
	if err != nil {
		return fmt.Errorf("failed to get diagnostics-format flag: %w", err)
	}
	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return renderDiagnostics(os.Stderr, format, useColor(cmd, os.Stderr), maxDiagnostics, bag, fs)
}

func renderDiagnostics(w io.Writer, format string, color bool, maxDiagnostics int, bag *diag.Bag, fs *source.FileSet) error {
	switch format {
	case "json":
		return diagfmt.JSON(w, bag, fs, diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeRelative,
			Max:              maxDiagnostics,
			IncludeNotes:     true,
			IncludePreviews:  true,
		})
	case "short":
		fmt.Fprint(w, diag.FormatShort(bag.Items(), fs, true))
		return nil
	case "pretty", "":
		if bag.Len() == 0 {
			return nil
		}
		diagfmt.Pretty(w, bag, fs, diagfmt.PrettyOpts{
			Color:       color,
			Context:     2,
			PathMode:    diagfmt.PathModeRelative,
			ShowNotes:   true,
			ShowPreview: true,
			Max:         maxDiagnostics,
		})
		return nil
	}
	return &exitError{code: exitCLIFail, err: fmt.Errorf("unknown diagnostics format %q (expected pretty|json|short)", format)}
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Root().PersistentFlags().GetBool("quiet")
	return q
}

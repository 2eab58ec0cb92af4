package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"windjammer/internal/diagfmt"
	"windjammer/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.wj",
	Short: "Tokenize a Windjammer source file",
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.wj",
	Short: "Parse a Windjammer source file and print its syntax tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
	parseCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func inspectFlags(cmd *cobra.Command) (format string, maxDiagnostics int, err error) {
	format, err = cmd.Flags().GetString("format")
	if err != nil {
		return "", 0, fmt.Errorf("failed to get format flag: %w", err)
	}
	maxDiagnostics, err = cmd.Root().PersistentFlags().GetInt("max-diagnostics")
	if err != nil {
		return "", 0, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	return format, maxDiagnostics, nil
}

func runTokenize(cmd *cobra.Command, args []string) error {
	format, maxDiagnostics, err := inspectFlags(cmd)
	if err != nil {
		return err
	}
	result, err := driver.Tokenize(args[0], maxDiagnostics)
	if err != nil {
		return &exitError{code: exitCLIFail, err: fmt.Errorf("tokenization failed: %w", err)}
	}
	if err := printDiagnostics(cmd, result.Bag, result.FileSet); err != nil {
		return err
	}

	switch format {
	case "pretty":
		err = diagfmt.FormatTokensPretty(os.Stdout, result.Tokens, result.FileSet)
	case "json":
		err = diagfmt.FormatTokensJSON(os.Stdout, result.Tokens)
	default:
		return &exitError{code: exitCLIFail, err: fmt.Errorf("unknown format: %s", format)}
	}
	if err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return &exitError{code: exitFailed, err: driver.ErrCompileFailed}
	}
	return nil
}

func runParse(cmd *cobra.Command, args []string) error {
	format, maxDiagnostics, err := inspectFlags(cmd)
	if err != nil {
		return err
	}
	result, err := driver.Parse(args[0], maxDiagnostics)
	if err != nil {
		return &exitError{code: exitCLIFail, err: fmt.Errorf("parsing failed: %w", err)}
	}
	if err := printDiagnostics(cmd, result.Bag, result.FileSet); err != nil {
		return err
	}

	switch format {
	case "pretty":
		err = diagfmt.FormatASTPretty(os.Stdout, result.File, result.FileSet)
	case "json":
		err = diagfmt.FormatASTJSON(os.Stdout, result.File)
	default:
		return &exitError{code: exitCLIFail, err: fmt.Errorf("unknown format: %s", format)}
	}
	if err != nil {
		return err
	}
	if result.Bag.HasErrors() {
		return &exitError{code: exitFailed, err: driver.ErrCompileFailed}
	}
	return nil
}

// Package driver wires the compiler passes together: single-file
// compilation, whole-project builds and the analysis entry point used by
// tooling. The core passes run sequentially in a fixed order so output is
// deterministic; only reading and parsing fan out.
package driver

import (
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"windjammer/internal/diag"
)

var (
	// ErrCompileFailed reports that diagnostics with error severity were
	// produced; they are in the result's bag.
	ErrCompileFailed = errors.New("compilation failed")
	// ErrUnsupportedTarget rejects backends other than rust.
	ErrUnsupportedTarget = errors.New("unsupported target")
)

// countingReporter forwards to next and counts errors.
type countingReporter struct {
	next   diag.Reporter
	errors int
}

func (r *countingReporter) Report(d diag.Diagnostic) {
	if d.Severity == diag.SevError {
		r.errors++
	}
	if r.next != nil {
		r.next.Report(d)
	}
}

func quietLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

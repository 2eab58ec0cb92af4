package parser

import (
	"fmt"
	"strings"
	"testing"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/source"
)

func diagnosticsSummary(bag *diag.Bag) string {
	if bag == nil {
		return "<nil bag>"
	}
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

// parseOK parses src and fails the test on any diagnostic.
func parseOK(t *testing.T, src string) *ast.File {
	t.Helper()
	bag := diag.NewBag(0)
	f := ParseSource(source.NewFileSetWithBase(""), "test.wj", src, bag)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	return f
}

// fnBody returns the statements of the first function in src.
func fnBody(t *testing.T, src string) []ast.Stmt {
	t.Helper()
	f := parseOK(t, src)
	for _, it := range f.Items {
		if fn, ok := it.(*ast.FnDecl); ok {
			return fn.Body.Stmts
		}
	}
	t.Fatalf("no function in %q", src)
	return nil
}

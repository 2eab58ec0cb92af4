package driver

import (
	"context"
	"path/filepath"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/parser"
	"windjammer/internal/rustgen"
	"windjammer/internal/source"
)

// CompileResult is the output of CompileToRust. Rust is empty when
// compilation failed.
type CompileResult struct {
	Rust        string
	Diagnostics *diag.Bag
	FileSet     *source.FileSet
}

// CompileOptions tune CompileToRust.
type CompileOptions struct {
	Library        bool
	MaxDiagnostics int
}

// CompileToRust compiles one WJ source as the root module of a crate.
func CompileToRust(src, filename string) (*CompileResult, error) {
	return CompileToRustWith(src, filename, CompileOptions{})
}

// CompileToRustWith is CompileToRust with options.
func CompileToRustWith(src, filename string, opts CompileOptions) (*CompileResult, error) {
	if filename == "" {
		filename = "main.wj"
	}
	fs := source.NewFileSetWithBase(filepath.Dir(filename))
	bag := diag.NewBag(opts.MaxDiagnostics)
	res := &CompileResult{Diagnostics: bag, FileSet: fs}

	id := fs.AddNormalized(filename, []byte(src))
	rep := &countingReporter{next: diag.BagReporter{Bag: bag}}
	f := parser.ParseFile(fs, id, nil, parser.Options{Reporter: rep})
	if rep.errors > 0 {
		bag.Sort()
		return res, ErrCompileFailed
	}

	a, err := analyze(context.Background(), &ast.Program{Files: []*ast.File{f}}, rep, nil)
	if err != nil {
		return res, err
	}
	out, err := rustgen.New(a.Info, a.Ownership, a.Copy, rep, rustgen.Options{Library: opts.Library}).EmitFile(f)
	if rep.errors > 0 || err != nil {
		bag.Sort()
		return res, ErrCompileFailed
	}
	res.Rust = out.Source()
	if !strings.HasSuffix(res.Rust, "\n") && res.Rust != "" {
		res.Rust += "\n"
	}
	bag.Sort()
	return res, nil
}

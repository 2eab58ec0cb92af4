package driver

import (
	"fmt"
	"path/filepath"

	"fortio.org/safecast"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/layout"
	"windjammer/internal/lexer"
	"windjammer/internal/parser"
	"windjammer/internal/source"
	"windjammer/internal/token"
)

// Inspection is what Tokenize and Parse return for a single file.
type Inspection struct {
	FileSet     *source.FileSet
	Bag         *diag.Bag
	Tokens      []token.Token
	File        *ast.File
}

func load(path string, maxDiagnostics int) (*Inspection, source.FileID, error) {
	fs := source.NewFileSetWithBase(filepath.Dir(path))
	id, err := fs.Load(path)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Inspection{FileSet: fs, Bag: diag.NewBag(maxDiagnostics)}, id, nil
}

// Tokenize lexes the file at path.
func Tokenize(path string, maxDiagnostics int) (*Inspection, error) {
	in, id, err := load(path, maxDiagnostics)
	if err != nil {
		return nil, err
	}
	lx := lexer.New(in.FileSet.Get(id), lexer.Options{Reporter: diag.BagReporter{Bag: in.Bag}})
	in.Tokens = lx.All()
	in.Bag.Sort()
	return in, nil
}

// Parse parses the file at path; the module path comes from its base name.
func Parse(path string, maxDiagnostics int) (*Inspection, error) {
	in, id, err := load(path, maxDiagnostics)
	if err != nil {
		return nil, err
	}
	maxErrors, err := safecast.Conv[uint](max(maxDiagnostics, 0))
	if err != nil {
		return nil, err
	}
	module, _ := layout.ModulePath(filepath.Base(path))
	in.File = parser.ParseFile(in.FileSet, id, module, parser.Options{
		Reporter:  diag.BagReporter{Bag: in.Bag},
		MaxErrors: maxErrors,
	})
	in.Bag.Sort()
	return in, nil
}

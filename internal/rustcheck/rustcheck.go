// Package rustcheck parses generated Rust with the tree-sitter grammar and
// reports the places it does not accept.
package rustcheck

import (
	"errors"
	"fmt"
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"fortio.org/safecast"

	"windjammer/internal/diag"
	"windjammer/internal/source"
)

var (
	langOnce sync.Once
	lang     *sitter.Language
)

func rust() *sitter.Language {
	langOnce.Do(func() {
		lang = sitter.NewLanguage(tree_sitter_rust.Language())
	})
	return lang
}

// Problem is one syntax error of a Rust file. Start and End are byte offsets.
type Problem struct {
	Start   uint32
	End     uint32
	Missing bool   // the parser inserted a token that is not in the text
	Kind    string // node kind of the missing token
}

func (p Problem) Message() string {
	if p.Missing {
		return fmt.Sprintf("missing `%s` in generated Rust", p.Kind)
	}
	return "generated Rust does not parse here"
}

// maxProblems bounds the report; one bad emission usually cascades.
const maxProblems = 8

// Parse returns the syntax errors of src, in source order.
func Parse(src []byte) ([]Problem, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(rust()); err != nil {
		return nil, fmt.Errorf("failed to load rust grammar: %w", err)
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, errors.New("rust parse failed")
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	var out []Problem
	collect(root, &out)
	return out, nil
}

func collect(n *sitter.Node, out *[]Problem) {
	if len(*out) >= maxProblems {
		return
	}
	switch {
	case n.IsMissing():
		*out = append(*out, problem(n, true))
		return
	case n.IsError():
		// ошибку внутри ошибки не дробим
		*out = append(*out, problem(n, false))
		return
	case !n.HasError():
		return
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		if c := n.Child(i); c != nil {
			collect(c, out)
		}
	}
}

func problem(n *sitter.Node, missing bool) Problem {
	start, err := safecast.Conv[uint32](n.StartByte())
	if err != nil {
		start = 0
	}
	end, err := safecast.Conv[uint32](n.EndByte())
	if err != nil {
		end = start
	}
	return Problem{Start: start, End: end, Missing: missing, Kind: n.Kind()}
}

// Verify parses the Rust file path with content src, adds it to fs as a
// virtual file and reports every syntax error as an internal invariant
// violation pointing into it. It returns the number of problems found.
func Verify(fs *source.FileSet, path string, src []byte, rep diag.Reporter) (int, error) {
	problems, err := Parse(src)
	if err != nil || len(problems) == 0 {
		return 0, err
	}
	id := fs.AddVirtual(path, src)
	for _, p := range problems {
		sp := source.Span{File: id, Start: p.Start, End: p.End}
		diag.ReportError(rep, diag.SemInternalSyntax, sp, p.Message()).
			WithHelp("this is a compiler bug; please report it with the source that produced it").
			Emit()
	}
	return len(problems), nil
}

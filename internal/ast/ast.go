// Package ast is the WJ syntax tree produced by the parser and annotated by
// the semantic passes. Nodes are pointers; passes key side tables by node
// identity. Every expression carries a shallow type label.
package ast

import (
	"windjammer/internal/source"
	"windjammer/internal/types"
)

type Node interface {
	Pos() source.Span
}

// Program is one compilation unit: every file of a build.
type Program struct {
	Files []*File
}

// File is a parsed .wj source. Module is its module path relative to the
// source root ("math/vec.wj" is ["math", "vec"]; the root file has none).
type File struct {
	Path   string
	ID     source.FileID
	Module []string
	Items  []Item
	Span   source.Span
}

func (f *File) Pos() source.Span { return f.Span }

// Type is a written type annotation.
type Type struct {
	Label *types.Label
	Span  source.Span
}

func (t *Type) Pos() source.Span { return t.Span }

// Decorator is `@name` or `@name(arg, ...)`; args are kept as raw text.
type Decorator struct {
	Name string
	Args []string
	Span source.Span
}

// HasDecorator reports whether ds contains name.
func HasDecorator(ds []*Decorator, name string) bool {
	for _, d := range ds {
		if d.Name == name {
			return true
		}
	}
	return false
}

// Derives returns the explicit @derive list and whether one was written.
func Derives(ds []*Decorator) ([]string, bool) {
	var out []string
	found := false
	for _, d := range ds {
		if d.Name == "derive" {
			found = true
			out = append(out, d.Args...)
		}
	}
	return out, found
}

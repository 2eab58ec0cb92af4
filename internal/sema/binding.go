// Package sema resolves names inside function bodies to bindings and
// attaches shallow type labels to every expression. It does no real type
// inference: labels come from annotations, declarations, literal shapes and
// a table of std signatures, and stay nil when none of those apply.
package sema

import (
	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/source"
	"windjammer/internal/types"
)

type BindingKind uint8

const (
	BindParam BindingKind = iota
	BindSelf
	BindLet
	BindPattern // match arm, if let, while let captures
	BindFor
	BindClosure
)

func (k BindingKind) String() string {
	switch k {
	case BindParam:
		return "param"
	case BindSelf:
		return "self"
	case BindLet:
		return "let"
	case BindPattern:
		return "pattern"
	case BindFor:
		return "for"
	default:
		return "closure param"
	}
}

// Binding is a named storage site inside one function.
type Binding struct {
	ID    int
	Name  string
	Kind  BindingKind
	Label *types.Label
	Decl  source.Span
	Pat   *ast.BindPat    // let/pattern/for captures
	Param *registry.Param // parameters
	Index int             // parameter index; -1 for self
	LoopDepth int // loops and closure bodies enclosing the declaration

	// Mode and Mutable are written by ownership inference.
	Mode    types.Mode
	Mutable bool
}

// IsParam reports parameters and self.
func (b *Binding) IsParam() bool {
	return b.Kind == BindParam || b.Kind == BindSelf
}

// Holds reports whether the binding holds a reference: a borrowed
// parameter, a capture bound through an implicit borrow of the scrutinee,
// or a value whose label is a reference.
func (b *Binding) Holds() (ref, mut bool) {
	if b.Label.IsRef() {
		return true, b.Label.IsMutRef()
	}
	switch b.Mode {
	case types.Borrowed:
		return true, false
	case types.MutBorrowed:
		return true, true
	}
	return false, false
}

// Effective is the label of the binding as seen in emitted Rust, with the
// inferred reference form applied. A borrowed String parameter reads as &str.
func (b *Binding) Effective() *types.Label {
	if b.Label.IsRef() {
		return b.Label
	}
	switch b.Mode {
	case types.Borrowed:
		if b.IsParam() && b.Label.IsString() {
			return types.StrRef
		}
		return types.Ref(b.Label, false)
	case types.MutBorrowed:
		return types.Ref(b.Label, true)
	}
	return b.Label
}

// FuncInfo is everything sema learned about one function body.
type FuncInfo struct {
	Decl     *ast.FnDecl
	Sig      *registry.Signature
	Module   []string
	Owner    *types.Label // impl target; nil for free functions
	Self     *Binding
	Params   []*Binding
	Bindings []*Binding
	Uses     map[*ast.Ident]*Binding
	Pats     map[*ast.BindPat]*Binding
	Scope    registry.Scope
}

// Binding returns the binding an identifier refers to, or nil.
func (fi *FuncInfo) Binding(id *ast.Ident) *Binding {
	return fi.Uses[id]
}

// CallKind classifies a resolved call site.
type CallKind uint8

const (
	CallUnknown CallKind = iota
	CallUser             // user function or method
	CallExtern           // user `extern fn`
	CallStd              // std method or constructor with a known shape
	CallVariant          // enum variant or tuple struct constructor
	CallClosure          // a local binding called as a function
)

// Call is the resolution of one *ast.Call or *ast.MethodCall.
type Call struct {
	Kind      CallKind
	Sig       *registry.Signature
	Ambiguous *registry.AmbiguousError
}

// Info is the output of Check for a whole program.
type Info struct {
	Funcs  []*FuncInfo
	ByDecl map[*ast.FnDecl]*FuncInfo
	Calls  map[ast.Expr]*Call
	Reg    *registry.Registry
}

// CallOf returns the resolution of a call expression; never nil.
func (in *Info) CallOf(e ast.Expr) *Call {
	if c := in.Calls[e]; c != nil {
		return c
	}
	return &Call{}
}

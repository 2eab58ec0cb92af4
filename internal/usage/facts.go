// Package usage records how every binding of a function body is used:
// read, mutated, moved, reassigned, returned. The facts drive ownership
// inference and the emitter's clone and borrow decisions.
package usage

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
)

// Kind is a set of usage kinds.
type Kind uint16

const (
	Read          Kind = 1 << iota
	FieldWrite         // a field or element of the binding is assigned
	MethodCallMut      // a method needing &mut is called on the binding or a place inside it
	Move               // passed or stored by value
	BorrowedIter       // iterated through iter()/&x
	IndexInto          // indexed with []
	Returned           // returned or used as the tail value
	Reassign           // the binding itself is assigned
	RefMut             // &mut taken explicitly or implied by a callee
)

// Mutating reports kinds that require a mutable binding or &mut access.
const Mutating = FieldWrite | MethodCallMut | Reassign | RefMut

var kindNames = []string{"read", "field-write", "mut-call", "move", "borrowed-iter", "index", "returned", "reassign", "ref-mut"}

func (k Kind) Has(o Kind) bool { return k&o != 0 }

func (k Kind) String() string {
	if k == 0 {
		return "none"
	}
	var parts []string
	for i, n := range kindNames {
		if k&(1<<i) != 0 {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, "|")
}

// Branch places a site inside one arm of an if or match.
type Branch struct {
	Node ast.Node
	Arm  int
}

// Site is one occurrence of a binding.
type Site struct {
	Ident    *ast.Ident
	Kind     Kind
	Order    int
	Branches []Branch
	Depth    int // loops and closure bodies around the site
	Return   int // id of the enclosing return statement, 0 outside
}

func (s *Site) exclusive(o *Site) bool {
	for _, a := range s.Branches {
		for _, b := range o.Branches {
			if a.Node == b.Node && a.Arm != b.Arm {
				return true
			}
		}
	}
	return false
}

// Record aggregates the sites of one binding.
type Record struct {
	Binding *sema.Binding
	Kinds   Kind
	Sites   []*Site
}

// Edge is a use of a binding as an argument (or receiver, Param -1) of a
// user function whose parameter form is still being inferred.
type Edge struct {
	Callee  *registry.Signature
	Param   int
	Binding *sema.Binding
	Site    *Site
}

// Facts is the usage summary of one function.
type Facts struct {
	Func    *sema.FuncInfo
	Records map[*sema.Binding]*Record
	Sites   map[*ast.Ident]*Site
	Edges   []Edge
	Callees []*registry.Signature

	// BorrowBreaks marks matches and if-lets whose arms mutate the
	// scrutinee's root binding.
	BorrowBreaks map[ast.Expr]bool
}

// Kinds returns the aggregated kinds of b.
func (f *Facts) Kinds(b *sema.Binding) Kind {
	if r := f.Records[b]; r != nil {
		return r.Kinds
	}
	return 0
}

// Used reports whether b occurs anywhere after its declaration.
func (f *Facts) Used(b *sema.Binding) bool {
	r := f.Records[b]
	return r != nil && len(r.Sites) > 0
}

// UsedAfter reports whether the binding used at id may be read again after
// this use. Sites in exclusive branches don't count, a plain reassignment
// ends the value's life, and a use inside a return statement is only
// followed by the rest of that statement. A use inside a loop that the
// binding outlives is always followed by the next iteration.
func (f *Facts) UsedAfter(id *ast.Ident) bool {
	s := f.Sites[id]
	if s == nil {
		return false
	}
	b := f.Func.Uses[id]
	if b == nil {
		return false
	}
	if s.Depth > b.LoopDepth {
		return true
	}
	r := f.Records[b]
	for _, t := range r.Sites {
		if t.Order <= s.Order || s.exclusive(t) {
			continue
		}
		if s.Return != 0 && t.Return != s.Return {
			continue
		}
		if t.Kind == Reassign {
			return false
		}
		return true
	}
	return false
}

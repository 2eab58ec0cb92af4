package ast

import (
	"windjammer/internal/source"
)

type Pattern interface {
	Node
	patNode()
}

type patBase struct {
	Span source.Span
}

func (p *patBase) Pos() source.Span { return p.Span }
func (*patBase) patNode()           {}

type WildcardPat struct{ patBase }

// RestPat is `..` inside tuple and slice patterns.
type RestPat struct{ patBase }

// BindPat introduces a binding: `x`, `mut x`, `ref x`, `x @ P`.
type BindPat struct {
	patBase
	Name  string
	Mut   bool
	ByRef bool
	Sub   Pattern
}

type LitPat struct {
	patBase
	Lit *Lit
	Neg bool
}

type TuplePat struct {
	patBase
	Elems []Pattern
}

// PathPat is a unit path such as None or Color::Red.
type PathPat struct {
	patBase
	Path []string
}

// TupleStructPat is Some(x) or Shape::Circle(r).
type TupleStructPat struct {
	patBase
	Path  []string
	Elems []Pattern
}

type FieldPat struct {
	Name      string
	Pat       Pattern
	Shorthand bool
}

type StructPat struct {
	patBase
	Path   []string
	Fields []*FieldPat
	Rest   bool
}

type RefPat struct {
	patBase
	Pat Pattern
	Mut bool
}

type OrPat struct {
	patBase
	Alts []Pattern
}

type RangePat struct {
	patBase
	Lo        *Lit
	Hi        *Lit
	Inclusive bool
}

// PatternBindings returns every BindPat in p in source order.
func PatternBindings(p Pattern) []*BindPat {
	var out []*BindPat
	var walk func(Pattern)
	walk = func(p Pattern) {
		switch x := p.(type) {
		case *BindPat:
			out = append(out, x)
			if x.Sub != nil {
				walk(x.Sub)
			}
		case *TuplePat:
			for _, e := range x.Elems {
				walk(e)
			}
		case *TupleStructPat:
			for _, e := range x.Elems {
				walk(e)
			}
		case *StructPat:
			for _, f := range x.Fields {
				walk(f.Pat)
			}
		case *RefPat:
			walk(x.Pat)
		case *OrPat:
			if len(x.Alts) > 0 {
				// all alternatives bind the same names
				walk(x.Alts[0])
			}
		}
	}
	if p != nil {
		walk(p)
	}
	return out
}

// IsIrrefutable reports patterns that always match.
func IsIrrefutable(p Pattern) bool {
	switch x := p.(type) {
	case *WildcardPat, *RestPat:
		return true
	case *BindPat:
		return x.Sub == nil || IsIrrefutable(x.Sub)
	case *TuplePat:
		for _, e := range x.Elems {
			if !IsIrrefutable(e) {
				return false
			}
		}
		return true
	case *RefPat:
		return IsIrrefutable(x.Pat)
	}
	return false
}

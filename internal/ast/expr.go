package ast

import (
	"windjammer/internal/source"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

type Expr interface {
	Node
	Label() *types.Label
	SetLabel(*types.Label)
	exprNode()
}

type exprBase struct {
	Span source.Span
	Lbl  *types.Label
}

func (e *exprBase) Pos() source.Span        { return e.Span }
func (e *exprBase) Label() *types.Label     { return e.Lbl }
func (e *exprBase) SetLabel(l *types.Label) { e.Lbl = l }
func (*exprBase) exprNode()                 {}

type LitKind uint8

const (
	LitInt LitKind = iota
	LitFloat
	LitString
	LitChar
	LitBool
)

// Lit keeps the raw literal text; Suffix is the numeric type suffix if any.
type Lit struct {
	exprBase
	Kind   LitKind
	Value  string
	Suffix string
}

// Ident is a single-segment name, including `self`.
type Ident struct {
	exprBase
	Name string
}

// Path is a multi-segment name: Shape::Circle, Self::new, Vec::<i32>::new.
type Path struct {
	exprBase
	Segments []string
	Generics []*Type
}

// Last returns the final segment.
func (p *Path) Last() string { return p.Segments[len(p.Segments)-1] }

// Field is `x.name`; tuple access uses the index as Name.
type Field struct {
	exprBase
	X        Expr
	Name     string
	NameSpan source.Span
}

type Index struct {
	exprBase
	X     Expr
	Index Expr
}

type Call struct {
	exprBase
	Fn   Expr
	Args []Expr
}

type MethodCall struct {
	exprBase
	Recv     Expr
	Name     string
	NameSpan source.Span
	Generics []*Type
	Args     []Expr
}

type FieldInit struct {
	Name      string
	Value     Expr
	Shorthand bool
	Span      source.Span
}

type StructLit struct {
	exprBase
	Type   *Type
	Fields []*FieldInit
	Base   Expr // ..base
}

type Binary struct {
	exprBase
	Op token.Kind
	X  Expr
	Y  Expr
}

type UnaryOp uint8

const (
	UnNeg UnaryOp = iota
	UnNot
	UnRef
	UnRefMut
	UnDeref
)

type Unary struct {
	exprBase
	Op UnaryOp
	X  Expr
}

type Cast struct {
	exprBase
	X    Expr
	Type *Type
}

// IfExpr covers `if c {}` and `if let P = e {}`; Else is *Block, *IfExpr or nil.
type IfExpr struct {
	exprBase
	Cond   Expr
	LetPat Pattern
	Then   *Block
	Else   Expr
}

type MatchArm struct {
	Pattern Pattern
	Guard   Expr
	Body    Expr
	Span    source.Span
}

type MatchExpr struct {
	exprBase
	Scrutinee Expr
	Arms      []*MatchArm
}

type Block struct {
	exprBase
	Stmts  []Stmt
	Unsafe bool
}

// Try is the postfix `?`.
type Try struct {
	exprBase
	X Expr
}

type Await struct {
	exprBase
	X Expr
}

type Range struct {
	exprBase
	Lo        Expr
	Hi        Expr
	Inclusive bool
}

type ClosureParam struct {
	Pattern Pattern
	Type    *Type
}

type Closure struct {
	exprBase
	Params []*ClosureParam
	Body   Expr
	Move   bool
}

type TupleExpr struct {
	exprBase
	Elems []Expr
}

// ArrayExpr is `[a, b]` or `[x; n]` (Repeat set).
type ArrayExpr struct {
	exprBase
	Elems  []Expr
	Repeat Expr
}

// Macro is `name!(args)`; args are parsed as expressions.
// `vec![x; n]` sets Repeat with Args = [x, n].
type Macro struct {
	exprBase
	Name   string
	Args   []Expr
	Delim  token.Kind // LParen, LBracket or LBrace
	Repeat bool
}

type Paren struct {
	exprBase
	X Expr
}

// Unparen strips parentheses.
func Unparen(e Expr) Expr {
	for {
		p, ok := e.(*Paren)
		if !ok {
			return e
		}
		e = p.X
	}
}

// RootIdent returns the identifier at the base of a place expression
// (a.b.c, a[i].b, (*a).b) or nil.
func RootIdent(e Expr) *Ident {
	for {
		switch x := e.(type) {
		case *Ident:
			return x
		case *Field:
			e = x.X
		case *Index:
			e = x.X
		case *Paren:
			e = x.X
		case *Unary:
			if x.Op != UnDeref {
				return nil
			}
			e = x.X
		default:
			return nil
		}
	}
}

// IsPlace reports identifiers, field accesses and index expressions.
func IsPlace(e Expr) bool {
	switch x := Unparen(e).(type) {
	case *Ident:
		return true
	case *Field:
		return true
	case *Index:
		return true
	case *Unary:
		return x.Op == UnDeref
	}
	return false
}

package ast

import (
	"windjammer/internal/source"
	"windjammer/internal/token"
)

type Stmt interface {
	Node
	stmtNode()
}

type stmtBase struct {
	Span source.Span
}

func (s *stmtBase) Pos() source.Span { return s.Span }
func (*stmtBase) stmtNode()          {}

type LetStmt struct {
	stmtBase
	Pattern Pattern
	Type    *Type
	Value   Expr
}

// AssignStmt covers `=` and compound assignment; Op is the assignment token.
type AssignStmt struct {
	stmtBase
	Op     token.Kind
	Target Expr
	Value  Expr
}

// ExprStmt is an expression in statement position. Semi records a written `;`.
type ExprStmt struct {
	stmtBase
	X    Expr
	Semi bool
}

type ReturnStmt struct {
	stmtBase
	Value Expr
}

type BreakStmt struct {
	stmtBase
	Value Expr
}

type ContinueStmt struct {
	stmtBase
}

type WhileStmt struct {
	stmtBase
	Cond   Expr
	LetPat Pattern // while let
	Body   *Block
}

type LoopStmt struct {
	stmtBase
	Body *Block
}

type ForStmt struct {
	stmtBase
	Pattern Pattern
	Iter    Expr
	Body    *Block
}

// ItemStmt is a nested item inside a block (const, fn, use).
type ItemStmt struct {
	stmtBase
	Item Item
}

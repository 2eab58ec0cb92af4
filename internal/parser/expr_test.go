package parser

import (
	"testing"

	"windjammer/internal/ast"
	"windjammer/internal/token"
)

func exprOf(t *testing.T, body string) ast.Expr {
	t.Helper()
	stmts := fnBody(t, "fn f() {\n"+body+"\n}")
	if len(stmts) != 1 {
		t.Fatalf("expected one statement, got %d", len(stmts))
	}
	es, ok := stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected expression statement, got %T", stmts[0])
	}
	return es.X
}

func TestBinaryPrecedence(t *testing.T) {
	x := exprOf(t, "a + b * c == d")
	eq, ok := x.(*ast.Binary)
	if !ok || eq.Op != token.EqEq {
		t.Fatalf("top: %T", x)
	}
	add := eq.X.(*ast.Binary)
	if add.Op != token.Plus {
		t.Fatalf("lhs op: %s", add.Op)
	}
	if mul := add.Y.(*ast.Binary); mul.Op != token.Star {
		t.Fatalf("inner op: %s", mul.Op)
	}
}

func TestShiftFromAdjacentGt(t *testing.T) {
	x := exprOf(t, "a >> 2")
	b, ok := x.(*ast.Binary)
	if !ok || b.Op != token.Shr {
		t.Fatalf("expected shift, got %#v", x)
	}
}

func TestCastBindsTighterThanBinary(t *testing.T) {
	x := exprOf(t, "-x as usize + 1")
	b := x.(*ast.Binary)
	c, ok := b.X.(*ast.Cast)
	if !ok {
		t.Fatalf("lhs: %T", b.X)
	}
	if u, ok := c.X.(*ast.Unary); !ok || u.Op != ast.UnNeg {
		t.Fatalf("cast operand: %T", c.X)
	}
	if c.Type.Label.String() != "usize" {
		t.Errorf("cast type: %s", c.Type.Label)
	}
}

func TestPostfixChain(t *testing.T) {
	x := exprOf(t, "self.items[i].name.len()")
	mc, ok := x.(*ast.MethodCall)
	if !ok || mc.Name != "len" {
		t.Fatalf("top: %T", x)
	}
	f := mc.Recv.(*ast.Field)
	ix := f.X.(*ast.Index)
	if id := ast.RootIdent(ix); id == nil || id.Name != "self" {
		t.Fatalf("root ident: %v", id)
	}
}

func TestTupleIndexSplit(t *testing.T) {
	x := exprOf(t, "pair.0.1")
	outer, ok := x.(*ast.Field)
	if !ok || outer.Name != "1" {
		t.Fatalf("outer: %#v", x)
	}
	if inner := outer.X.(*ast.Field); inner.Name != "0" {
		t.Fatalf("inner: %s", inner.Name)
	}
}

func TestLiteralSuffix(t *testing.T) {
	x := exprOf(t, "0u64")
	lit := x.(*ast.Lit)
	if lit.Value != "0" || lit.Suffix != "u64" {
		t.Fatalf("literal: %q %q", lit.Value, lit.Suffix)
	}
	if lit.Label().String() != "u64" {
		t.Errorf("label: %s", lit.Label())
	}
	hex := exprOf(t, "0xff")
	if l := hex.(*ast.Lit); l.Suffix != "" || l.Value != "0xff" {
		t.Errorf("hex literal: %q %q", l.Value, l.Suffix)
	}
}

func TestStructLiteralNotInIfHead(t *testing.T) {
	x := exprOf(t, "if p == origin { Point { x: 1, y } } else { q }")
	ie, ok := x.(*ast.IfExpr)
	if !ok {
		t.Fatalf("top: %T", x)
	}
	if _, ok := ie.Cond.(*ast.Binary); !ok {
		t.Fatalf("cond: %T", ie.Cond)
	}
	es := ie.Then.Stmts[0].(*ast.ExprStmt)
	sl, ok := es.X.(*ast.StructLit)
	if !ok || len(sl.Fields) != 2 || !sl.Fields[1].Shorthand {
		t.Fatalf("struct literal: %#v", es.X)
	}
}

func TestMatchArms(t *testing.T) {
	x := exprOf(t, `match shape {
    Shape::Circle { r } => r * r,
    Shape::Square(s) if s > 0.0 => s,
    None => return,
    _ => {}
}`)
	me := x.(*ast.MatchExpr)
	if len(me.Arms) != 4 {
		t.Fatalf("arms: %d", len(me.Arms))
	}
	if _, ok := me.Arms[0].Pattern.(*ast.StructPat); !ok {
		t.Errorf("arm 0: %T", me.Arms[0].Pattern)
	}
	if me.Arms[1].Guard == nil {
		t.Errorf("arm 1 guard missing")
	}
	if _, ok := me.Arms[2].Pattern.(*ast.PathPat); !ok {
		t.Errorf("None must be a path pattern, got %T", me.Arms[2].Pattern)
	}
	if b, ok := me.Arms[2].Body.(*ast.Block); !ok || len(b.Stmts) != 1 {
		t.Errorf("return arm should be wrapped in a block: %T", me.Arms[2].Body)
	}
	if _, ok := me.Arms[3].Pattern.(*ast.WildcardPat); !ok {
		t.Errorf("arm 3: %T", me.Arms[3].Pattern)
	}
}

func TestMacrosAndClosures(t *testing.T) {
	x := exprOf(t, `items.iter().map(|x| x * 2).collect::<Vec<i32>>()`)
	mc := x.(*ast.MethodCall)
	if mc.Name != "collect" || len(mc.Generics) != 1 {
		t.Fatalf("collect: %s %d", mc.Name, len(mc.Generics))
	}
	mp := mc.Recv.(*ast.MethodCall)
	if _, ok := mp.Args[0].(*ast.Closure); !ok {
		t.Fatalf("closure arg: %T", mp.Args[0])
	}

	v := exprOf(t, "vec![0; n]")
	m := v.(*ast.Macro)
	if m.Name != "vec" || !m.Repeat || len(m.Args) != 2 {
		t.Fatalf("vec repeat: %#v", m)
	}
}

func TestNewlineEndsExpression(t *testing.T) {
	stmts := fnBody(t, "fn f() {\nlet a = b\n-c\n(d)\n}")
	if len(stmts) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(stmts))
	}
	stmts = fnBody(t, "fn f() {\nlet a = b\n    .len()\n}")
	if len(stmts) != 1 {
		t.Fatalf("leading dot must continue the expression, got %d statements", len(stmts))
	}
}

func TestRanges(t *testing.T) {
	stmts := fnBody(t, "fn f() {\nfor i in 0..n { }\nfor j in 1..=10 { }\n}")
	r0 := stmts[0].(*ast.ForStmt).Iter.(*ast.Range)
	if r0.Inclusive || r0.Hi == nil {
		t.Errorf("0..n: %#v", r0)
	}
	r1 := stmts[1].(*ast.ForStmt).Iter.(*ast.Range)
	if !r1.Inclusive {
		t.Errorf("1..=10 should be inclusive")
	}
}

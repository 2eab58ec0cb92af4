package parser

import (
	"testing"

	"windjammer/internal/ast"
	"windjammer/internal/token"
)

func TestParseStatements(t *testing.T) {
	stmts := fnBody(t, `fn f() {
    let mut x: int = 1
    x += 2;
    let (a, b) = pair
    while let Some(v) = stack.pop() { total = total + v }
    loop { break }
    for (k, v) in &map { }
    return x
}`)
	kinds := []string{"let", "assign", "let", "while", "loop", "for", "return"}
	if len(stmts) != len(kinds) {
		t.Fatalf("got %d statements, want %d", len(stmts), len(kinds))
	}
	let := stmts[0].(*ast.LetStmt)
	if bp := let.Pattern.(*ast.BindPat); !bp.Mut || bp.Name != "x" {
		t.Errorf("let pattern: %+v", bp)
	}
	if a := stmts[1].(*ast.AssignStmt); a.Op != token.PlusAssign {
		t.Errorf("assign op: %s", a.Op)
	}
	if _, ok := stmts[2].(*ast.LetStmt).Pattern.(*ast.TuplePat); !ok {
		t.Errorf("tuple pattern expected")
	}
	if w := stmts[3].(*ast.WhileStmt); w.LetPat == nil {
		t.Errorf("while let pattern missing")
	}
	fs := stmts[5].(*ast.ForStmt)
	if u, ok := fs.Iter.(*ast.Unary); !ok || u.Op != ast.UnRef {
		t.Errorf("for iter: %T", fs.Iter)
	}
	if r := stmts[6].(*ast.ReturnStmt); r.Value == nil {
		t.Errorf("return value missing")
	}
}

func TestTailExpressionHasNoSemi(t *testing.T) {
	stmts := fnBody(t, "fn f() -> i32 {\nlet a = 1;\na + 1\n}")
	es := stmts[1].(*ast.ExprStmt)
	if es.Semi {
		t.Errorf("tail expression should not be marked with a semicolon")
	}
	stmts = fnBody(t, "fn f() {\ng();\n}")
	if !stmts[0].(*ast.ExprStmt).Semi {
		t.Errorf("written semicolon lost")
	}
}

func TestBareReturnBeforeBrace(t *testing.T) {
	stmts := fnBody(t, "fn f() {\nif done { return }\nwork()\n}")
	ie := stmts[0].(*ast.ExprStmt).X.(*ast.IfExpr)
	if r := ie.Then.Stmts[0].(*ast.ReturnStmt); r.Value != nil {
		t.Errorf("bare return must have no value")
	}
}

package rustgen

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/types"
)

// matchValue holds a copy of a scrutinee whose root the arms mutate.
const matchValue = "__match_value"

// scrutinee emits the matched value of node. pre is a statement that has to
// run first, empty when the scrutinee is matched in place.
func (f *funcEmitter) scrutinee(node, scrut ast.Expr) (pre, text string) {
	c := f.emit(scrut, want{})
	eff := f.eff(scrut)
	if f.facts != nil && f.facts.BorrowBreaks[node] {
		var v string
		switch {
		case eff.IsOptionRef():
			// Option<&T> still borrows the root; captures bind T
			if f.e.isCopy(eff.Arg(0).Elem) {
				v = paren(c, precPostfix) + ".copied()"
			} else {
				v = paren(c, precPostfix) + ".cloned()"
			}
		case f.e.isCopy(eff.StripRefs()) && eff.IsRef():
			v = "*" + paren(c, precUnary)
		case f.e.isCopy(eff):
			v = c.s
		case eff.StripRefs().Is("Option"):
			v = paren(c, precPostfix) + ".as_ref().cloned()"
		default:
			v = clone(c).s
		}
		return "let " + matchValue + " = " + v + ";", matchValue
	}
	if f.e.own != nil && !eff.IsRef() {
		if m, ok := f.e.own.Borrows[node]; ok {
			switch m {
			case types.Borrowed:
				return "", "&" + paren(c, precUnary)
			case types.MutBorrowed:
				return "", "&mut " + paren(c, precUnary)
			}
		}
	}
	if _, ok := ast.Unparen(scrut).(*ast.StructLit); ok {
		return "", "(" + c.s + ")"
	}
	return "", c.s
}

// detached wraps a construct that matches on a copy of its scrutinee.
func (f *funcEmitter) detached(pre string, body func() string) code {
	f.indent++
	inner := body()
	f.indent--
	in := f.pad() + indentUnit
	return code{"{\n" + in + pre + "\n" + in + inner + "\n" + f.pad() + "}", precPrimary}
}

func (f *funcEmitter) ifExpr(x *ast.IfExpr, w want) code {
	if x.LetPat == nil {
		return code{f.ifChain(x, w, "if "+f.cond(x.Cond)), precPrimary}
	}
	pre, scrut := f.scrutinee(x, x.Cond)
	head := func() string { return f.ifChain(x, w, "if let "+f.pattern(x.LetPat)+" = "+scrut) }
	if pre != "" {
		return f.detached(pre, head)
	}
	return code{head(), precPrimary}
}

func (f *funcEmitter) ifChain(x *ast.IfExpr, w want, head string) string {
	s := head + " " + f.block(x.Then, w)
	switch e := x.Else.(type) {
	case nil:
	case *ast.IfExpr:
		s += " else " + f.ifExpr(e, w).s
	case *ast.Block:
		s += " else " + f.block(e, w)
	default:
		f.indent++
		body := f.expr(e, w)
		f.indent--
		s += " else {\n" + f.pad() + indentUnit + body + "\n" + f.pad() + "}"
	}
	return s
}

func (f *funcEmitter) match(x *ast.MatchExpr, w want) code {
	pre, scrut := f.scrutinee(x, x.Scrutinee)
	var body func() string
	if f.lowersToIfLet(x) {
		body = func() string { return f.ifLet(x, w, scrut) }
	} else {
		body = func() string { return f.matchArms(x, w, scrut) }
	}
	if pre != "" {
		return f.detached(pre, body)
	}
	return code{body(), precPrimary}
}

// lowersToIfLet: a two-arm match whose second arm is a wildcard with a unit
// body reads better as `if let`.
func (f *funcEmitter) lowersToIfLet(x *ast.MatchExpr) bool {
	if len(x.Arms) != 2 || x.Arms[0].Guard != nil || x.Arms[1].Guard != nil {
		return false
	}
	if _, ok := x.Arms[1].Pattern.(*ast.WildcardPat); !ok {
		return false
	}
	if !f.refutable(x.Arms[0].Pattern) {
		return false
	}
	switch b := ast.Unparen(x.Arms[1].Body).(type) {
	case *ast.Block:
		return true
	case *ast.TupleExpr:
		return len(b.Elems) == 0
	}
	return false
}

func (f *funcEmitter) ifLet(x *ast.MatchExpr, w want, scrut string) string {
	s := "if let " + f.pattern(x.Arms[0].Pattern) + " = " + scrut + " " + f.armBlock(x.Arms[0].Body, w)
	if b, ok := ast.Unparen(x.Arms[1].Body).(*ast.Block); ok && len(b.Stmts) > 0 {
		s += " else " + f.block(b, w)
	}
	return s
}

// armBlock emits an arm body as a block.
func (f *funcEmitter) armBlock(body ast.Expr, w want) string {
	if b, ok := ast.Unparen(body).(*ast.Block); ok {
		return f.block(b, w)
	}
	f.indent++
	s := f.expr(body, w)
	if w.form == formUnit && !blockLike(body) {
		s += ";"
	}
	f.indent--
	return "{\n" + f.pad() + indentUnit + s + "\n" + f.pad() + "}"
}

func (f *funcEmitter) matchArms(x *ast.MatchExpr, w want, scrut string) string {
	var b strings.Builder
	b.WriteString("match " + scrut + " {\n")
	f.indent++
	for _, arm := range x.Arms {
		b.WriteString(f.pad() + f.pattern(arm.Pattern))
		if arm.Guard != nil {
			b.WriteString(" if " + f.cond(arm.Guard))
		}
		b.WriteString(" => ")
		switch body := ast.Unparen(arm.Body).(type) {
		case *ast.Block:
			b.WriteString(f.block(body, w) + ",\n")
		default:
			if w.form == formUnit && !arm.Body.Label().IsUnit() && !arm.Body.Label().IsUnknown() && !blockLike(body) {
				b.WriteString("{\n" + f.pad() + indentUnit)
				f.indent++
				b.WriteString(f.expr(arm.Body, want{}) + ";")
				f.indent--
				b.WriteString("\n" + f.pad() + "}\n")
				continue
			}
			b.WriteString(f.expr(arm.Body, w) + ",\n")
		}
	}
	f.indent--
	b.WriteString(f.pad() + "}")
	return b.String()
}

// refutable reports whether p can fail to match.
func (f *funcEmitter) refutable(p ast.Pattern) bool {
	switch p := p.(type) {
	case *ast.WildcardPat, *ast.RestPat:
		return false
	case *ast.BindPat:
		return p.Sub != nil && f.refutable(p.Sub)
	case *ast.TuplePat:
		for _, e := range p.Elems {
			if f.refutable(e) {
				return true
			}
		}
		return false
	case *ast.RefPat:
		return f.refutable(p.Pat)
	case *ast.StructPat:
		if len(p.Path) == 1 {
			if td := f.e.reg.Type(p.Path[0]); td != nil && td.Kind == registry.KindStruct {
				for _, fp := range p.Fields {
					if f.refutable(fp.Pat) {
						return true
					}
				}
				return false
			}
		}
	}
	return true
}

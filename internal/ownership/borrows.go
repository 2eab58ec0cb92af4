package ownership

import (
	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

// borrows decides, for every match and if-let of fi, whether the emitter
// matches on a borrow of the scrutinee. Captures of a borrowed scrutinee
// become references.
func (r *Result) borrows(reg *registry.Registry, fi *sema.FuncInfo, facts *usage.Facts) {
	ast.Inspect(fi.Decl.Body, func(n ast.Node) bool {
		switch x := n.(type) {
		case *ast.FnDecl:
			// nested functions are settled on their own
			return false
		case *ast.MatchExpr:
			pats := make([]ast.Pattern, len(x.Arms))
			for i, a := range x.Arms {
				pats[i] = a.Pattern
			}
			r.decide(reg, fi, facts, x, x.Scrutinee, pats)
		case *ast.IfExpr:
			if x.LetPat != nil {
				r.decide(reg, fi, facts, x, x.Cond, []ast.Pattern{x.LetPat})
			}
		case *ast.WhileStmt:
			if x.LetPat != nil {
				r.decide(reg, fi, facts, x.Cond, x.Cond, []ast.Pattern{x.LetPat})
			}
		}
		return true
	})
}

func (r *Result) decide(reg *registry.Registry, fi *sema.FuncInfo, facts *usage.Facts, node, scrut ast.Expr, pats []ast.Pattern) {
	if facts.BorrowBreaks[node] {
		r.detach(fi, scrut, pats)
		return
	}
	if scrut.Label().IsRef() {
		return
	}
	if id, ok := ast.Unparen(scrut).(*ast.Ident); ok {
		// a borrowed binding is already a reference: every capture binds by reference
		if b := fi.Uses[id]; b != nil {
			if ref, mut := b.Holds(); ref {
				mode := types.Borrowed
				if mut {
					mode = types.MutBorrowed
				}
				for _, p := range pats {
					for _, bp := range ast.PatternBindings(p) {
						if c := fi.Pats[bp]; c != nil && !c.Label.IsRef() {
							c.Mode = mode
						}
					}
				}
				return
			}
		}
	}
	var caps []*sema.Binding
	owned, mutated := false, false
	for _, p := range pats {
		for _, bp := range ast.PatternBindings(p) {
			b := fi.Pats[bp]
			if b == nil || b.Label.IsRef() {
				continue
			}
			caps = append(caps, b)
			if !reg.IsCopy(b.Label) {
				owned = true
				if facts.Kinds(b).Has(usage.FieldWrite | usage.MethodCallMut | usage.RefMut) {
					mutated = true
				}
			}
		}
	}
	if !owned {
		return
	}
	id := ast.RootIdent(scrut)
	if id == nil {
		// temporaries are matched by value
		return
	}
	root := fi.Uses[id]
	if root == nil {
		return
	}
	ref, mut := root.Holds()
	if !ref && !facts.UsedAfter(id) {
		return
	}
	mode := types.Borrowed
	if mutated && (mut || !ref) {
		mode = types.MutBorrowed
	}
	r.Borrows[node] = mode
	for _, b := range caps {
		b.Mode = mode
	}
}

// detach: a borrow-break copies an Option<&T> scrutinee out with
// copied/cloned, so its captures hold T rather than &T.
func (r *Result) detach(fi *sema.FuncInfo, scrut ast.Expr, pats []ast.Pattern) {
	if !scrut.Label().IsOptionRef() {
		return
	}
	for _, p := range pats {
		for _, bp := range ast.PatternBindings(p) {
			if c := fi.Pats[bp]; c != nil && c.Label.IsRef() {
				c.Label = c.Label.Elem
			}
		}
	}
}

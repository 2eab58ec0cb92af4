package ast

// Inspect traverses n depth-first in source order. f is called for every
// node; returning false skips the node's children.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || isNilNode(n) || !f(n) {
		return
	}
	switch x := n.(type) {
	case *File:
		for _, it := range x.Items {
			Inspect(it, f)
		}
	case *FnDecl:
		for _, p := range x.Params {
			Inspect(p, f)
		}
		inspectType(x.Result, f)
		if x.Body != nil {
			Inspect(x.Body, f)
		}
	case *Param:
		inspectType(x.Type, f)
	case *StructDecl:
		for _, fd := range x.Fields {
			inspectType(fd.Type, f)
		}
	case *EnumDecl:
		for _, v := range x.Variants {
			for _, fd := range v.Fields {
				inspectType(fd.Type, f)
			}
		}
	case *TraitDecl:
		for _, m := range x.Methods {
			Inspect(m, f)
		}
	case *ImplDecl:
		inspectType(x.Trait, f)
		inspectType(x.Target, f)
		for _, m := range x.Methods {
			Inspect(m, f)
		}
	case *ModDecl:
		for _, it := range x.Items {
			Inspect(it, f)
		}
	case *ConstDecl:
		inspectType(x.Type, f)
		inspectExpr(x.Value, f)
	case *TypeAlias:
		inspectType(x.Type, f)

	case *LetStmt:
		inspectPat(x.Pattern, f)
		inspectType(x.Type, f)
		inspectExpr(x.Value, f)
	case *AssignStmt:
		inspectExpr(x.Target, f)
		inspectExpr(x.Value, f)
	case *ExprStmt:
		inspectExpr(x.X, f)
	case *ReturnStmt:
		inspectExpr(x.Value, f)
	case *BreakStmt:
		inspectExpr(x.Value, f)
	case *WhileStmt:
		inspectPat(x.LetPat, f)
		inspectExpr(x.Cond, f)
		Inspect(x.Body, f)
	case *LoopStmt:
		Inspect(x.Body, f)
	case *ForStmt:
		inspectPat(x.Pattern, f)
		inspectExpr(x.Iter, f)
		Inspect(x.Body, f)
	case *ItemStmt:
		Inspect(x.Item, f)

	case *Path:
		for _, g := range x.Generics {
			inspectType(g, f)
		}
	case *Field:
		inspectExpr(x.X, f)
	case *Index:
		inspectExpr(x.X, f)
		inspectExpr(x.Index, f)
	case *Call:
		inspectExpr(x.Fn, f)
		inspectExprs(x.Args, f)
	case *MethodCall:
		inspectExpr(x.Recv, f)
		for _, g := range x.Generics {
			inspectType(g, f)
		}
		inspectExprs(x.Args, f)
	case *StructLit:
		inspectType(x.Type, f)
		for _, fi := range x.Fields {
			inspectExpr(fi.Value, f)
		}
		inspectExpr(x.Base, f)
	case *Binary:
		inspectExpr(x.X, f)
		inspectExpr(x.Y, f)
	case *Unary:
		inspectExpr(x.X, f)
	case *Cast:
		inspectExpr(x.X, f)
		inspectType(x.Type, f)
	case *IfExpr:
		inspectPat(x.LetPat, f)
		inspectExpr(x.Cond, f)
		Inspect(x.Then, f)
		inspectExpr(x.Else, f)
	case *MatchExpr:
		inspectExpr(x.Scrutinee, f)
		for _, arm := range x.Arms {
			inspectPat(arm.Pattern, f)
			inspectExpr(arm.Guard, f)
			inspectExpr(arm.Body, f)
		}
	case *Block:
		for _, s := range x.Stmts {
			Inspect(s, f)
		}
	case *Try:
		inspectExpr(x.X, f)
	case *Await:
		inspectExpr(x.X, f)
	case *Range:
		inspectExpr(x.Lo, f)
		inspectExpr(x.Hi, f)
	case *Closure:
		for _, p := range x.Params {
			inspectPat(p.Pattern, f)
			inspectType(p.Type, f)
		}
		inspectExpr(x.Body, f)
	case *TupleExpr:
		inspectExprs(x.Elems, f)
	case *ArrayExpr:
		inspectExprs(x.Elems, f)
		inspectExpr(x.Repeat, f)
	case *Macro:
		inspectExprs(x.Args, f)
	case *Paren:
		inspectExpr(x.X, f)

	case *BindPat:
		inspectPat(x.Sub, f)
	case *TuplePat:
		for _, e := range x.Elems {
			inspectPat(e, f)
		}
	case *TupleStructPat:
		for _, e := range x.Elems {
			inspectPat(e, f)
		}
	case *StructPat:
		for _, fp := range x.Fields {
			inspectPat(fp.Pat, f)
		}
	case *RefPat:
		inspectPat(x.Pat, f)
	case *OrPat:
		for _, a := range x.Alts {
			inspectPat(a, f)
		}
	}
}

func inspectExpr(e Expr, f func(Node) bool) {
	if e != nil {
		Inspect(e, f)
	}
}

func inspectExprs(es []Expr, f func(Node) bool) {
	for _, e := range es {
		inspectExpr(e, f)
	}
}

func inspectPat(p Pattern, f func(Node) bool) {
	if p != nil {
		Inspect(p, f)
	}
}

func inspectType(t *Type, f func(Node) bool) {
	if t != nil {
		f(t)
	}
}

// isNilNode guards against typed nil pointers stored in interfaces.
func isNilNode(n Node) bool {
	switch x := n.(type) {
	case *Block:
		return x == nil
	case *FnDecl:
		return x == nil
	case *Type:
		return x == nil
	}
	return false
}

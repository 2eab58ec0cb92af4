package rustgen

import (
	"windjammer/internal/ast"
	"windjammer/internal/types"
)

func (f *funcEmitter) coerce(x ast.Expr, c code, w want) code {
	switch w.form {
	case formOwned:
		return f.owned(x, c, w.label)
	case formRef:
		return f.borrow(x, c, false)
	case formMut:
		return f.borrow(x, c, true)
	}
	return c
}

// eff is the type of x as the emitted Rust sees it: bindings carry their
// inferred reference form and string constants are `&'static str`.
func (f *funcEmitter) eff(x ast.Expr) *types.Label {
	switch u := ast.Unparen(x).(type) {
	case *ast.Ident:
		if b := f.binding(u); b != nil {
			return b.Effective()
		}
		if l := u.Label(); l.IsString() {
			return types.StrRef
		}
		return u.Label()
	case *ast.Unary:
		switch u.Op {
		case ast.UnRef, ast.UnRefMut:
			inner := f.eff(u.X)
			if inner.IsRef() {
				return inner
			}
			return types.Ref(inner, u.Op == ast.UnRefMut)
		case ast.UnDeref:
			if inner := f.eff(u.X); inner.IsRef() {
				return inner.Elem
			}
		}
	}
	return x.Label()
}

// owned makes x a value of target, or of its own label when target is nil.
func (f *funcEmitter) owned(x ast.Expr, c code, target *types.Label) code {
	u := ast.Unparen(x)
	if target == nil {
		target = x.Label()
	}
	if lit, ok := u.(*ast.Lit); ok {
		if lit.Kind == ast.LitString && target.IsString() {
			return code{c.s + ".to_string()", precPostfix}
		}
		return c
	}

	eff := f.eff(x)
	if eff.IsRef() {
		if target.IsUnknown() || target.IsRef() || target.Kind == types.KParam {
			return c
		}
		in := eff.Elem
		switch {
		case in.Kind == types.KStr && target.IsString():
			return code{paren(c, precPostfix) + ".to_string()", precPostfix}
		case f.e.isCopy(in):
			if r, ok := u.(*ast.Unary); ok && r.Op == ast.UnRef {
				return f.emit(r.X, want{})
			}
			return code{"*" + paren(c, precUnary), precUnary}
		}
		return clone(c)
	}

	if f.e.isCopy(eff) {
		return c
	}
	switch u := u.(type) {
	case *ast.Ident:
		if f.binding(u) != nil && f.usedAfter(u) {
			return clone(c)
		}
	case *ast.Field:
		if f.fieldNeedsClone(u) {
			return clone(c)
		}
	case *ast.Index:
		switch {
		case eff != nil && eff.Kind == types.KSlice:
			return code{paren(c, precPostfix) + ".to_vec()", precPostfix}
		case eff != nil && eff.Kind == types.KStr:
			return code{paren(c, precPostfix) + ".to_string()", precPostfix}
		}
		return clone(c)
	case *ast.Unary:
		if u.Op == ast.UnDeref {
			return clone(c)
		}
	}
	return c
}

func clone(c code) code {
	return code{paren(c, precPostfix) + ".clone()", precPostfix}
}

// fieldNeedsClone: moving a field out is only possible from an owned root
// that is not read again.
func (f *funcEmitter) fieldNeedsClone(x *ast.Field) bool {
	var e ast.Expr = x
	for {
		switch p := ast.Unparen(e).(type) {
		case *ast.Field:
			e = p.X
			continue
		case *ast.Index:
			return true
		case *ast.Ident:
			b := f.binding(p)
			if b == nil {
				return false
			}
			if ref, _ := b.Holds(); ref {
				return true
			}
			return f.usedAfter(p)
		case *ast.Unary:
			return p.Op == ast.UnDeref
		}
		return false
	}
}

// borrow takes a reference unless x already is one. String literals are
// already `&str`.
func (f *funcEmitter) borrow(x ast.Expr, c code, mut bool) code {
	if lit, ok := ast.Unparen(x).(*ast.Lit); ok && lit.Kind == ast.LitString {
		return c
	}
	if f.eff(x).IsRef() {
		return c
	}
	if mut {
		return code{"&mut " + paren(c, precUnary), precUnary}
	}
	return code{"&" + paren(c, precUnary), precUnary}
}

// strArg is a `&str`-accepting argument: an owned String is borrowed.
func (f *funcEmitter) strArg(x ast.Expr) string {
	c := f.emit(x, want{})
	if f.eff(x).IsString() {
		return "&" + paren(c, precUnary)
	}
	return c.s
}

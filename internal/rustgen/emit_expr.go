package rustgen

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/registry"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// code is an emitted expression with the precedence of its outermost operator.
type code struct {
	s    string
	prec int
}

const (
	precClosure = iota + 1
	precRange
	precOrOr
	precAndAnd
	precCompare
	precBitOr
	precBitXor
	precBitAnd
	precShift
	precAdd
	precMul
	precCast
	precUnary
	precPostfix
	precPrimary
)

func paren(c code, min int) string {
	if c.prec < min {
		return "(" + c.s + ")"
	}
	return c.s
}

func binPrec(op token.Kind) int {
	switch op {
	case token.OrOr:
		return precOrOr
	case token.AndAnd:
		return precAndAnd
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return precCompare
	case token.Pipe:
		return precBitOr
	case token.Caret:
		return precBitXor
	case token.Amp:
		return precBitAnd
	case token.Shl, token.Shr:
		return precShift
	case token.Plus, token.Minus:
		return precAdd
	}
	return precMul
}

type form uint8

const (
	formAny   form = iota
	formOwned      // a value that is stored, moved or returned
	formRef        // &T
	formMut        // &mut T
	formUnit       // statement position: the value is discarded
)

// want is the form a position expects; label is the expected type when
// known (a parameter, field or declared let type).
type want struct {
	form  form
	label *types.Label
}

func (f *funcEmitter) expr(x ast.Expr, w want) string {
	return f.emit(x, w).s
}

func (f *funcEmitter) emit(x ast.Expr, w want) code {
	if x == nil {
		return code{"()", precPrimary}
	}
	c := f.raw(x, w)
	if blockLike(x) {
		return c
	}
	return f.coerce(x, c, w)
}

func (f *funcEmitter) raw(x ast.Expr, w want) code {
	switch x := x.(type) {
	case *ast.Lit:
		return f.lit(x)
	case *ast.Ident:
		return code{x.Name, precPrimary}
	case *ast.Path:
		return f.path(x)
	case *ast.Field:
		return code{paren(f.emit(x.X, want{}), precPostfix) + "." + x.Name, precPostfix}
	case *ast.Index:
		return f.index(x)
	case *ast.Call:
		return f.call(x, w)
	case *ast.MethodCall:
		return f.methodCall(x)
	case *ast.StructLit:
		return f.structLit(x)
	case *ast.Binary:
		return f.binary(x)
	case *ast.Unary:
		return f.unary(x)
	case *ast.Cast:
		inner := f.emit(x.X, want{})
		s := paren(inner, precCast)
		if f.eff(x.X).IsRef() {
			s = "*" + paren(inner, precUnary)
		}
		return code{s + " as " + f.e.typ(x.Type.Label), precCast}
	case *ast.IfExpr:
		return f.ifExpr(x, w)
	case *ast.MatchExpr:
		return f.match(x, w)
	case *ast.Block:
		s := f.block(x, w)
		if x.Unsafe {
			s = "unsafe " + s
		}
		return code{s, precPrimary}
	case *ast.Try:
		return code{paren(f.emit(x.X, want{}), precPostfix) + "?", precPostfix}
	case *ast.Await:
		return code{paren(f.emit(x.X, want{}), precPostfix) + ".await", precPostfix}
	case *ast.Range:
		op := ".."
		if x.Inclusive {
			op = "..="
		}
		lo, hi := "", ""
		if x.Lo != nil {
			lo = paren(f.emit(x.Lo, want{}), precRange+1)
		}
		if x.Hi != nil {
			hi = paren(f.emit(x.Hi, want{}), precRange+1)
		}
		return code{lo + op + hi, precRange}
	case *ast.Closure:
		return f.closure(x)
	case *ast.TupleExpr:
		parts := make([]string, len(x.Elems))
		for i, el := range x.Elems {
			parts[i] = f.expr(el, want{form: formOwned, label: w.label.Arg(i)})
		}
		if len(parts) == 1 {
			return code{"(" + parts[0] + ",)", precPrimary}
		}
		return code{"(" + strings.Join(parts, ", ") + ")", precPrimary}
	case *ast.ArrayExpr:
		var el *types.Label
		if l := w.label.StripRefs(); l != nil && (l.Kind == types.KArray || l.Kind == types.KSlice) {
			el = l.Elem
		}
		if x.Repeat != nil && len(x.Elems) > 0 {
			return code{"[" + f.expr(x.Elems[0], want{form: formOwned, label: el}) + "; " + f.expr(x.Repeat, want{}) + "]", precPrimary}
		}
		parts := make([]string, len(x.Elems))
		for i, a := range x.Elems {
			parts[i] = f.expr(a, want{form: formOwned, label: el})
		}
		return code{"[" + strings.Join(parts, ", ") + "]", precPrimary}
	case *ast.Macro:
		return f.macro(x, w)
	case *ast.Paren:
		return code{"(" + f.expr(x.X, want{}) + ")", precPrimary}
	}
	return code{"()", precPrimary}
}

func (f *funcEmitter) lit(x *ast.Lit) code {
	s := x.Value + x.Suffix
	if strings.HasPrefix(s, "-") {
		return code{s, precUnary}
	}
	return code{s, precPrimary}
}

// path emits `a::b::c` with the turbofish after the type segment.
func (f *funcEmitter) path(x *ast.Path) code {
	f.e.needPath(x.Segments)
	segs := x.Segments
	if len(x.Generics) == 0 {
		return code{strings.Join(segs, "::"), precPrimary}
	}
	at := len(segs) - 1
	if len(segs) >= 2 {
		at = len(segs) - 2
	}
	var b strings.Builder
	for i, s := range segs {
		if i > 0 {
			b.WriteString("::")
		}
		b.WriteString(s)
		if i == at {
			b.WriteString(f.e.turbofish(x.Generics))
		}
	}
	return code{b.String(), precPrimary}
}

func (f *funcEmitter) index(x *ast.Index) code {
	base := f.emit(x.X, want{})
	var idx string
	bl := x.X.Label().StripRefs()
	switch {
	case isRange(x.Index):
		idx = f.expr(x.Index, want{})
	case bl.Is("HashMap") || bl.Is("BTreeMap"):
		idx = f.expr(x.Index, want{form: formRef})
	default:
		idx = f.usize(x.Index)
	}
	return code{paren(base, precPostfix) + "[" + idx + "]", precPostfix}
}

func isRange(x ast.Expr) bool {
	_, ok := ast.Unparen(x).(*ast.Range)
	return ok
}

// usize emits an index or count: a borrowed integer is dereferenced and a
// non-usize integer is cast.
func (f *funcEmitter) usize(x ast.Expr) string {
	l := f.eff(x)
	c := f.emit(x, want{})
	if l.IsRef() && l.Elem.IsInteger() {
		c = code{"*" + paren(c, precUnary), precUnary}
		l = l.Elem
	}
	switch {
	case l == nil, l.Kind == types.KIntLit, l.Kind == types.KPrim && l.Name == "usize", !l.IsInteger():
		return c.s
	}
	return paren(c, precCast) + " as usize"
}

func isUsize(l *types.Label) bool {
	l = l.StripRefs()
	return l != nil && l.Kind == types.KPrim && l.Name == "usize"
}

func isComparison(op token.Kind) bool {
	switch op {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq:
		return true
	}
	return false
}

func (f *funcEmitter) binary(x *ast.Binary) code {
	if x.Op == token.Plus && x.Label().IsString() && x.X.Label().IsStringLike() {
		return f.concat(x)
	}
	prec := binPrec(x.Op)
	lc, rc := f.emit(x.X, want{}), f.emit(x.Y, want{})
	lx, ly := f.eff(x.X), f.eff(x.Y)

	if isComparison(x.Op) && lx.IsRef() != ly.IsRef() &&
		!lx.StripRefs().IsStringLike() && !ly.StripRefs().IsStringLike() &&
		!lx.IsUnknown() && !ly.IsUnknown() {
		if lx.IsRef() {
			lc, lx = code{"*" + paren(lc, precUnary), precUnary}, lx.Elem
		} else {
			rc, ly = code{"*" + paren(rc, precUnary), precUnary}, ly.Elem
		}
	}
	if x.Op != token.AndAnd && x.Op != token.OrOr && x.Op != token.Shl && x.Op != token.Shr {
		switch {
		case isUsize(lx) && mixedInt(ly):
			rc = code{paren(rc, precCast) + " as usize", precCast}
		case isUsize(ly) && mixedInt(lx):
			lc = code{paren(lc, precCast) + " as usize", precCast}
		}
	}

	lmin := prec
	if isComparison(x.Op) || lc.prec == precCast && (x.Op == token.Lt || x.Op == token.Shl) {
		// comparisons don't chain; `a as T < b` parses as generic arguments
		lmin = prec + 1
		if lc.prec == precCast {
			lmin = precUnary
		}
	}
	return code{paren(lc, lmin) + " " + x.Op.String() + " " + paren(rc, prec+1), prec}
}

// mixedInt reports a non-usize integer that needs a cast to meet a usize.
func mixedInt(l *types.Label) bool {
	l = l.StripRefs()
	return l.IsInteger() && l.Kind != types.KIntLit && !isUsize(l)
}

// concat lowers a chain of string `+` to one format!; string literals are
// inlined into the template.
func (f *funcEmitter) concat(x *ast.Binary) code {
	var parts []ast.Expr
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if b, ok := ast.Unparen(e).(*ast.Binary); ok && b.Op == token.Plus && b.X.Label().IsStringLike() {
			walk(b.X)
			walk(b.Y)
			return
		}
		parts = append(parts, e)
	}
	walk(x)

	var tmpl strings.Builder
	var args []string
	for _, p := range parts {
		if lit, ok := ast.Unparen(p).(*ast.Lit); ok && lit.Kind == ast.LitString && strings.HasPrefix(lit.Value, `"`) {
			inner := lit.Value[1 : len(lit.Value)-1]
			inner = strings.ReplaceAll(inner, "{", "{{")
			inner = strings.ReplaceAll(inner, "}", "}}")
			tmpl.WriteString(inner)
			continue
		}
		tmpl.WriteString("{}")
		args = append(args, f.expr(p, want{}))
	}
	s := `format!("` + tmpl.String() + `"`
	for _, a := range args {
		s += ", " + a
	}
	return code{s + ")", precPostfix}
}

func (f *funcEmitter) unary(x *ast.Unary) code {
	inner := f.emit(x.X, want{})
	switch x.Op {
	case ast.UnNeg:
		return code{"-" + paren(inner, precUnary), precUnary}
	case ast.UnNot:
		return code{"!" + paren(inner, precUnary), precUnary}
	case ast.UnRef, ast.UnRefMut:
		if f.eff(x.X).IsRef() {
			// already a reference
			return inner
		}
		op := "&"
		if x.Op == ast.UnRefMut {
			op = "&mut "
		}
		return code{op + paren(inner, precUnary), precUnary}
	}
	l := f.eff(x.X)
	if !l.IsUnknown() && !l.IsRef() && !l.Is("Box") && !l.Is("Rc") && !l.Is("Arc") {
		return inner
	}
	return code{"*" + paren(inner, precUnary), precUnary}
}

func (f *funcEmitter) closure(x *ast.Closure) code {
	params := make([]string, len(x.Params))
	for i, p := range x.Params {
		params[i] = f.pattern(p.Pattern)
		if p.Type != nil {
			params[i] += ": " + f.e.typ(p.Type.Label)
		}
	}
	f.results = append(f.results, nil)
	body := f.expr(x.Body, want{})
	f.results = f.results[:len(f.results)-1]
	s := "|" + strings.Join(params, ", ") + "| " + body
	if x.Move {
		s = "move " + s
	}
	return code{s, precClosure}
}

// structName renders the type of a struct literal without generic args.
func (f *funcEmitter) structName(l *types.Label) string {
	switch {
	case l == nil:
		return "_"
	case l.Kind == types.KSelf:
		return "Self"
	}
	f.e.need(l.Name)
	return strings.Join(append(append([]string(nil), l.Path...), l.Name), "::")
}

// fieldLabels returns the declared field labels of the struct or struct
// variant a literal builds.
func (f *funcEmitter) fieldLabels(x *ast.StructLit) map[string]*types.Label {
	l := x.Type.Label
	if l == nil {
		return nil
	}
	var td *registry.TypeDecl
	var fields []*registry.Field
	switch {
	case l.Kind == types.KSelf && f.fi.Owner != nil:
		td = f.e.reg.Type(f.fi.Owner.StripRefs().Name)
		if td != nil {
			fields = td.Fields
		}
	case l.Kind == types.KNamed && len(l.Path) > 0:
		owner := l.Path[len(l.Path)-1]
		if owner == "Self" && f.fi.Owner != nil {
			owner = f.fi.Owner.StripRefs().Name
		}
		td = f.e.reg.Type(owner)
		if td != nil {
			if v := td.Variant(l.Name); v != nil {
				fields = v.Fields
			}
		}
	case l.Kind == types.KNamed:
		td = f.e.reg.Type(l.Name)
		if td != nil {
			fields = td.Fields
		}
	}
	if td == nil {
		return nil
	}
	subst := td.GenericSubst(x.Label())
	out := make(map[string]*types.Label, len(fields))
	for _, fd := range fields {
		out[fd.Name] = fd.Label.Subst(subst)
	}
	return out
}

func (f *funcEmitter) structLit(x *ast.StructLit) code {
	name := f.structName(x.Type.Label)
	fields := f.fieldLabels(x)
	parts := make([]string, 0, len(x.Fields)+1)
	for _, fi := range x.Fields {
		v := f.expr(fi.Value, want{form: formOwned, label: fields[fi.Name]})
		if v == fi.Name {
			parts = append(parts, v)
		} else {
			parts = append(parts, fi.Name+": "+v)
		}
	}
	if x.Base != nil {
		parts = append(parts, ".."+f.expr(x.Base, want{form: formOwned}))
	}
	if len(parts) == 0 {
		return code{name + " {}", precPrimary}
	}
	return code{name + " { " + strings.Join(parts, ", ") + " }", precPrimary}
}

var macroDelims = map[token.Kind][2]string{
	token.LParen:   {"(", ")"},
	token.LBracket: {"[", "]"},
	token.LBrace:   {"{", "}"},
}

func (f *funcEmitter) macro(x *ast.Macro, w want) code {
	d, ok := macroDelims[x.Delim]
	if !ok {
		d = macroDelims[token.LParen]
	}
	args := make([]string, len(x.Args))
	switch x.Name {
	case "vec":
		el := x.Label().Arg(0)
		if l := w.label.StripRefs(); l.Is("Vec") && l.Arg(0) != nil {
			el = l.Arg(0)
		}
		for i, a := range x.Args {
			if x.Repeat && i == 1 {
				args[i] = f.usize(a)
				continue
			}
			args[i] = f.expr(a, want{form: formOwned, label: el})
		}
	case "assert_eq", "assert_ne", "debug_assert_eq", "debug_assert_ne":
		for i, a := range x.Args {
			args[i] = f.expr(a, want{})
		}
		if len(x.Args) >= 2 {
			l0, l1 := f.eff(x.Args[0]), f.eff(x.Args[1])
			if l0.IsRef() != l1.IsRef() && !l0.IsUnknown() && !l1.IsUnknown() &&
				!l0.StripRefs().IsStringLike() && !l1.StripRefs().IsStringLike() {
				if l0.IsRef() {
					args[0] = "*" + paren(f.emit(x.Args[0], want{}), precUnary)
				} else {
					args[1] = "*" + paren(f.emit(x.Args[1], want{}), precUnary)
				}
			}
		}
	default:
		for i, a := range x.Args {
			args[i] = f.expr(a, want{})
		}
	}
	inner := strings.Join(args, ", ")
	if x.Repeat && len(args) == 2 {
		inner = args[0] + "; " + args[1]
	}
	return code{x.Name + "!" + d[0] + inner + d[1], precPostfix}
}

package sema

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/registry"
	"windjammer/internal/source"
	"windjammer/internal/token"
	"windjammer/internal/types"
)

// Check resolves and labels every function body of prog. The registry must
// hold every declaration of the program and have its copy oracle installed.
func Check(prog *ast.Program, reg *registry.Registry, rep diag.Reporter) *Info {
	in := &Info{
		ByDecl: make(map[*ast.FnDecl]*FuncInfo),
		Calls:  make(map[ast.Expr]*Call),
		Reg:    reg,
	}
	for _, f := range prog.Files {
		in.checkItems(f.Module, f.Items, rep)
	}
	return in
}

func (in *Info) checkItems(module []string, items []ast.Item, rep diag.Reporter) {
	for _, it := range items {
		switch x := it.(type) {
		case *ast.FnDecl:
			if x.Body != nil {
				in.checkFn(module, x, fnOwner{}, nil, nil, rep)
			}
		case *ast.ImplDecl:
			owner := fnOwner{label: x.Target.Label, generics: x.Generics}
			for _, m := range x.Methods {
				if m.Body != nil {
					in.checkFn(module, m, owner, nil, nil, rep)
				}
			}
		case *ast.TraitDecl:
			owner := fnOwner{label: &types.Label{Kind: types.KSelf, Name: "Self"}, generics: x.Generics}
			for _, m := range x.Methods {
				if m.Body != nil {
					in.checkFn(module, m, owner, nil, nil, rep)
				}
			}
		case *ast.ModDecl:
			if !x.External {
				in.checkItems(append(slices.Clone(module), x.Name), x.Items, rep)
			}
		}
	}
}

type fnOwner struct {
	label    *types.Label
	generics []*ast.GenericParam
}

func (in *Info) checkFn(module []string, fn *ast.FnDecl, owner fnOwner, sig *registry.Signature, locals map[string]*registry.Signature, rep diag.Reporter) *FuncInfo {
	if sig == nil {
		sig = in.Reg.SignatureOf(fn)
	}
	if sig == nil {
		sig = registry.NewLocal(module, fn)
	}
	fi := &FuncInfo{
		Decl:   fn,
		Sig:    sig,
		Module: module,
		Owner:  owner.label,
		Uses:   make(map[*ast.Ident]*Binding),
		Pats:   make(map[*ast.BindPat]*Binding),
	}
	fi.Scope = registry.Scope{
		Module: module,
		Owner:  fn.Owner,
		Bounds: func(name string) []string {
			out := sig.Bounds(name)
			for _, g := range owner.generics {
				if g.Name != name {
					continue
				}
				for _, b := range g.Bounds {
					if b.Label != nil {
						out = append(out, b.Label.Name)
					}
				}
			}
			return out
		},
	}

	c := &checker{
		in:     in,
		fi:     fi,
		reg:    in.Reg,
		rep:    rep,
		consts: make(map[string]*types.Label),
		locals: maps.Clone(locals),
	}
	if c.locals == nil {
		c.locals = make(map[string]*registry.Signature)
	}
	if owner.label != nil && owner.label.Kind != types.KSelf {
		c.selfSubst = map[string]*types.Label{"Self": owner.label}
	}

	c.push()
	if fn.Recv != types.RecvNone {
		b := c.declare("self", BindSelf, owner.label, fn.RecvSpan)
		b.Index = -1
		fi.Self = b
	}
	for i, p := range fn.Params {
		var l *types.Label
		if p.Type != nil {
			l = c.subst(p.Type.Label)
		}
		b := c.declare(p.Name, BindParam, l, p.NameSpan)
		b.Index = i
		if i < len(sig.Params) {
			b.Param = sig.Params[i]
		}
		fi.Params = append(fi.Params, b)
	}
	c.block(fn.Body)
	c.pop()

	in.Funcs = append(in.Funcs, fi)
	in.ByDecl[fn] = fi
	return fi
}

type checker struct {
	in        *Info
	fi        *FuncInfo
	reg       *registry.Registry
	rep       diag.Reporter
	scopes    []map[string]*Binding
	depth     int
	selfSubst map[string]*types.Label
	consts    map[string]*types.Label
	locals    map[string]*registry.Signature
}

func (c *checker) push() { c.scopes = append(c.scopes, make(map[string]*Binding)) }
func (c *checker) pop()  { c.scopes = c.scopes[:len(c.scopes)-1] }

func (c *checker) declare(name string, kind BindingKind, l *types.Label, sp source.Span) *Binding {
	b := &Binding{
		ID:        len(c.fi.Bindings),
		Name:      name,
		Kind:      kind,
		Label:     l,
		Decl:      sp,
		LoopDepth: c.depth,
		Mode:      types.Owned,
	}
	c.scopes[len(c.scopes)-1][name] = b
	c.fi.Bindings = append(c.fi.Bindings, b)
	return b
}

func (c *checker) lookup(name string) *Binding {
	for i := len(c.scopes) - 1; i >= 0; i-- {
		if b, ok := c.scopes[i][name]; ok {
			return b
		}
	}
	return nil
}

func (c *checker) subst(l *types.Label) *types.Label {
	return l.Subst(c.selfSubst)
}

func (c *checker) typeArgs(ts []*ast.Type) []*types.Label {
	if len(ts) == 0 {
		return nil
	}
	out := make([]*types.Label, len(ts))
	for i, t := range ts {
		out[i] = c.subst(t.Label)
	}
	return out
}

// ---- statements ----

func (c *checker) block(b *ast.Block) *types.Label {
	if b == nil {
		return nil
	}
	c.push()
	defer c.pop()

	// nested functions are visible from the whole block
	for _, s := range b.Stmts {
		if is, ok := s.(*ast.ItemStmt); ok {
			if fn, ok := is.Item.(*ast.FnDecl); ok {
				c.locals[fn.Name] = registry.NewLocal(c.fi.Module, fn)
			}
		}
	}

	out := types.Unit
	for i, s := range b.Stmts {
		l := c.stmt(s)
		if i == len(b.Stmts)-1 {
			if es, ok := s.(*ast.ExprStmt); ok && !es.Semi {
				out = l
			}
		}
	}
	b.SetLabel(out)
	return out
}

func (c *checker) stmt(s ast.Stmt) *types.Label {
	switch s := s.(type) {
	case *ast.LetStmt:
		var want *types.Label
		if s.Type != nil {
			want = c.subst(s.Type.Label)
		}
		l := c.expr(s.Value)
		if want != nil {
			l = want
		}
		c.bind(s.Pattern, l, BindLet, refNone)
	case *ast.AssignStmt:
		c.expr(s.Target)
		c.expr(s.Value)
	case *ast.ExprStmt:
		if id, ok := s.X.(*ast.Ident); ok && types.IsPrimName(id.Name) && c.lookup(id.Name) == nil {
			diag.ReportError(c.rep, diag.SemInternalSyntax, id.Span,
				fmt.Sprintf("type name `%s` used as a statement", id.Name)).
				WithHelp("this usually comes from a cast or generic argument split across lines").
				Emit()
			return nil
		}
		return c.expr(s.X)
	case *ast.ReturnStmt:
		c.expr(s.Value)
	case *ast.BreakStmt:
		c.expr(s.Value)
	case *ast.WhileStmt:
		c.push()
		c.depth++
		l := c.expr(s.Cond)
		if s.LetPat != nil {
			c.bind(s.LetPat, l, BindPattern, refNone)
		}
		c.block(s.Body)
		c.depth--
		c.pop()
	case *ast.LoopStmt:
		c.depth++
		c.block(s.Body)
		c.depth--
	case *ast.ForStmt:
		it := c.expr(s.Iter)
		c.push()
		c.depth++
		c.bind(s.Pattern, ItemOf(it), BindFor, refNone)
		c.block(s.Body)
		c.depth--
		c.pop()
	case *ast.ItemStmt:
		switch x := s.Item.(type) {
		case *ast.FnDecl:
			if x.Body != nil {
				c.in.checkFn(c.fi.Module, x, fnOwner{}, c.locals[x.Name], c.locals, c.rep)
			}
		case *ast.ConstDecl:
			c.expr(x.Value)
			if x.Type != nil {
				c.consts[x.Name] = x.Type.Label
			}
		}
	}
	return types.Unit
}

// ---- patterns ----

type refMode uint8

const (
	refNone refMode = iota
	refShared
	refMut
)

// bind declares the captures of p against a scrutinee labelled l. Matching
// a reference with a destructuring pattern binds by reference.
func (c *checker) bind(p ast.Pattern, l *types.Label, kind BindingKind, ref refMode) {
	switch p := p.(type) {
	case *ast.BindPat:
		bl := l
		switch {
		case p.ByRef:
			bl = types.Ref(l, p.Mut)
		case ref != refNone && !l.IsRef():
			bl = types.Ref(l, ref == refMut)
		}
		b := c.declare(p.Name, kind, bl, p.Span)
		b.Pat = p
		c.fi.Pats[p] = b
		if p.Sub != nil {
			c.bind(p.Sub, l, kind, ref)
		}
	case *ast.TuplePat:
		base, r := destructure(l, ref)
		rest := slices.IndexFunc(p.Elems, func(e ast.Pattern) bool {
			_, ok := e.(*ast.RestPat)
			return ok
		})
		for i, e := range p.Elems {
			idx := i
			if rest >= 0 && i > rest {
				idx = len(base.tupleArgs()) - (len(p.Elems) - i)
			}
			c.bind(e, base.tupleArgs().at(idx), kind, r)
		}
	case *ast.TupleStructPat:
		base, r := destructure(l, ref)
		fields := c.payload(p.Path, base.label)
		for i, e := range p.Elems {
			var fl *types.Label
			if i < len(fields) {
				fl = fields[i]
			}
			c.bind(e, fl, kind, r)
		}
	case *ast.StructPat:
		base, r := destructure(l, ref)
		fields := c.structFields(p.Path, base.label)
		for _, f := range p.Fields {
			c.bind(f.Pat, fields[f.Name], kind, r)
		}
	case *ast.RefPat:
		c.bind(p.Pat, l.Deref(), kind, refNone)
	case *ast.OrPat:
		if len(p.Alts) == 0 {
			return
		}
		c.bind(p.Alts[0], l, kind, ref)
		top := c.scopes[len(c.scopes)-1]
		for _, alt := range p.Alts[1:] {
			for _, bp := range ast.PatternBindings(alt) {
				if b := top[bp.Name]; b != nil {
					c.fi.Pats[bp] = b
				}
			}
		}
	}
}

type scrutinee struct{ label *types.Label }

type labels []*types.Label

func (ls labels) at(i int) *types.Label {
	if i < 0 || i >= len(ls) {
		return nil
	}
	return ls[i]
}

func (s scrutinee) tupleArgs() labels {
	if s.label == nil || s.label.Kind != types.KTuple {
		return nil
	}
	return s.label.Args
}

func destructure(l *types.Label, ref refMode) (scrutinee, refMode) {
	for l.IsRef() {
		if l.Mut && ref != refShared {
			ref = refMut
		} else {
			ref = refShared
		}
		l = l.Elem
	}
	return scrutinee{l}, ref
}

// payload returns the positional field labels of a tuple variant or tuple struct.
func (c *checker) payload(path []string, scrut *types.Label) []*types.Label {
	name := path[len(path)-1]
	switch {
	case name == "Some" && len(path) == 1:
		return []*types.Label{payloadArg(scrut, "Option", 0)}
	case name == "Ok" && len(path) == 1:
		return []*types.Label{payloadArg(scrut, "Result", 0)}
	case name == "Err" && len(path) == 1:
		return []*types.Label{payloadArg(scrut, "Result", 1)}
	}
	td, inst := c.variantOwner(path, scrut)
	if td == nil {
		return nil
	}
	subst := td.GenericSubst(inst)
	var fields []*registry.Field
	if td.Kind == registry.KindEnum {
		if v := td.Variant(name); v != nil {
			fields = v.Fields
		}
	} else {
		fields = td.Fields
	}
	out := make([]*types.Label, len(fields))
	for i, f := range fields {
		out[i] = f.Label.Subst(subst)
	}
	return out
}

func payloadArg(l *types.Label, name string, i int) *types.Label {
	if l.Is(name) {
		return l.Arg(i)
	}
	return nil
}

func (c *checker) structFields(path []string, scrut *types.Label) map[string]*types.Label {
	td, inst := c.variantOwner(path, scrut)
	if td == nil {
		return nil
	}
	subst := td.GenericSubst(inst)
	fields := td.Fields
	if td.Kind == registry.KindEnum {
		v := td.Variant(path[len(path)-1])
		if v == nil {
			return nil
		}
		fields = v.Fields
	}
	out := make(map[string]*types.Label, len(fields))
	for _, f := range fields {
		out[f.Name] = f.Label.Subst(subst)
	}
	return out
}

// variantOwner finds the type declaring the variant or struct named by path.
// The scrutinee label supplies generic args and the enum when the path is a
// bare variant name.
func (c *checker) variantOwner(path []string, scrut *types.Label) (*registry.TypeDecl, *types.Label) {
	name := path[len(path)-1]
	if len(path) >= 2 {
		owner := path[len(path)-2]
		if owner == "Self" {
			owner = c.fi.Scope.Owner
		}
		if td := c.reg.Type(owner); td != nil && td.Kind == registry.KindEnum {
			return td, instOf(scrut, owner)
		}
	}
	if td := c.reg.Type(name); td != nil && td.Kind == registry.KindStruct {
		return td, instOf(scrut, name)
	}
	if scrut != nil && scrut.Kind == types.KNamed {
		if td := c.reg.Type(scrut.Name); td != nil && td.Kind == registry.KindEnum && td.Variant(name) != nil {
			return td, scrut
		}
	}
	return nil, nil
}

func instOf(scrut *types.Label, name string) *types.Label {
	if scrut.Is(name) {
		return scrut
	}
	return nil
}

// ---- expressions ----

func (c *checker) expr(e ast.Expr) *types.Label {
	return c.exprHint(e, nil)
}

// exprHint labels e; hint carries closure parameter labels from the call site.
func (c *checker) exprHint(e ast.Expr, hint []*types.Label) *types.Label {
	if e == nil {
		return nil
	}
	l := c.label(e, hint)
	e.SetLabel(l)
	return l
}

func (c *checker) label(e ast.Expr, hint []*types.Label) *types.Label {
	switch x := e.(type) {
	case *ast.Lit:
		return x.Label()
	case *ast.Ident:
		return c.ident(x)
	case *ast.Path:
		if len(x.Segments) >= 2 {
			owner := x.Segments[len(x.Segments)-2]
			if owner == "Self" {
				owner = c.fi.Scope.Owner
			}
			if td := c.reg.Type(owner); td != nil && td.Kind == registry.KindEnum && td.Variant(x.Last()) != nil {
				return types.Named(owner)
			}
		}
		return nil
	case *ast.Field:
		return c.field(c.expr(x.X), x.Name)
	case *ast.Index:
		base := c.expr(x.X)
		c.expr(x.Index)
		if _, ok := ast.Unparen(x.Index).(*ast.Range); ok {
			if base.IsStringLike() {
				return types.Str
			}
			if el := elemOf(base.StripRefs()); el != nil {
				return &types.Label{Kind: types.KSlice, Elem: el}
			}
			return nil
		}
		return valueOf(base)
	case *ast.Call:
		return c.call(x)
	case *ast.MethodCall:
		return c.methodCall(x)
	case *ast.StructLit:
		return c.structLit(x)
	case *ast.Binary:
		return c.binary(x)
	case *ast.Unary:
		l := c.expr(x.X)
		switch x.Op {
		case ast.UnRef:
			return types.Ref(l, false)
		case ast.UnRefMut:
			return types.Ref(l, true)
		case ast.UnDeref:
			if l.IsRef() {
				return l.Elem
			}
			if l.Is("Box") || l.Is("Rc") || l.Is("Arc") {
				return l.Arg(0)
			}
			return nil
		}
		return l.StripRefs()
	case *ast.Cast:
		c.expr(x.X)
		return x.Type.Label
	case *ast.IfExpr:
		cond := c.expr(x.Cond)
		c.push()
		if x.LetPat != nil {
			c.bind(x.LetPat, cond, BindPattern, refNone)
		}
		then := c.block(x.Then)
		c.pop()
		if x.Else == nil {
			return types.Unit
		}
		return pick(then, c.expr(x.Else))
	case *ast.MatchExpr:
		scrut := c.expr(x.Scrutinee)
		var out *types.Label
		for _, arm := range x.Arms {
			c.push()
			c.bind(arm.Pattern, scrut, BindPattern, refNone)
			c.expr(arm.Guard)
			out = pick(out, c.expr(arm.Body))
			c.pop()
		}
		return out
	case *ast.Block:
		return c.block(x)
	case *ast.Try:
		return payload(c.expr(x.X))
	case *ast.Await:
		return c.expr(x.X)
	case *ast.Range:
		lo, hi := c.expr(x.Lo), c.expr(x.Hi)
		return types.Named("Range", widen(lo, hi))
	case *ast.Closure:
		return c.closure(x, hint)
	case *ast.TupleExpr:
		if len(x.Elems) == 0 {
			return types.Unit
		}
		elems := make([]*types.Label, len(x.Elems))
		for i, el := range x.Elems {
			elems[i] = c.expr(el)
		}
		return types.Tuple(elems...)
	case *ast.ArrayExpr:
		if x.Repeat != nil {
			var el *types.Label
			if len(x.Elems) > 0 {
				el = c.expr(x.Elems[0])
			}
			c.expr(x.Repeat)
			n := "_"
			if lit, ok := x.Repeat.(*ast.Lit); ok {
				n = lit.Value
			}
			return &types.Label{Kind: types.KArray, Elem: el, Len: n}
		}
		var el *types.Label
		for _, a := range x.Elems {
			el = widen(el, c.expr(a))
		}
		return &types.Label{Kind: types.KArray, Elem: el, Len: strconv.Itoa(len(x.Elems))}
	case *ast.Macro:
		return c.macro(x)
	case *ast.Paren:
		return c.expr(x.X)
	}
	return nil
}

func (c *checker) ident(x *ast.Ident) *types.Label {
	if b := c.lookup(x.Name); b != nil {
		c.fi.Uses[x] = b
		return b.Label
	}
	if l, ok := c.consts[x.Name]; ok {
		return l
	}
	if l, ok := c.reg.Const(c.fi.Module, x.Name); ok {
		return l
	}
	if td := c.reg.Type(x.Name); td != nil && td.Kind == registry.KindStruct {
		return types.Named(x.Name)
	}
	return nil
}

// pick prefers the first known, non-never label.
func pick(a, b *types.Label) *types.Label {
	if !a.IsUnknown() {
		return a
	}
	return b
}

// widen merges two labels of the same value position: a concrete label wins
// over a literal one.
func widen(a, b *types.Label) *types.Label {
	switch {
	case a.IsUnknown():
		return b
	case b.IsUnknown():
		return a
	case (a.Kind == types.KIntLit || a.Kind == types.KFloatLit) && b.Kind != types.KIntLit && b.Kind != types.KFloatLit:
		return b
	}
	return a
}

func (c *checker) field(base *types.Label, name string) *types.Label {
	b := base.StripRefs()
	for b.Is("Box") || b.Is("Rc") || b.Is("Arc") {
		b = b.Arg(0).StripRefs()
	}
	if b == nil {
		return nil
	}
	if b.Kind == types.KSelf && c.fi.Owner != nil && c.fi.Owner.Kind != types.KSelf {
		b = c.fi.Owner
	}
	if b.Kind == types.KTuple {
		i, err := strconv.Atoi(name)
		if err != nil {
			return nil
		}
		return labels(b.Args).at(i)
	}
	if b.Kind != types.KNamed {
		return nil
	}
	td := c.reg.Type(b.Name)
	if td == nil {
		return nil
	}
	f := td.Field(name)
	if f == nil {
		return nil
	}
	m := td.GenericSubst(b)
	if m == nil {
		m = make(map[string]*types.Label, 1)
	}
	m["Self"] = b
	return f.Label.Subst(m)
}

func (c *checker) binary(x *ast.Binary) *types.Label {
	lx, ly := c.expr(x.X), c.expr(x.Y)
	switch x.Op {
	case token.EqEq, token.BangEq, token.Lt, token.LtEq, token.Gt, token.GtEq, token.AndAnd, token.OrOr:
		return types.Bool
	case token.Plus:
		if lx.IsStringLike() {
			return types.String
		}
	case token.Shl, token.Shr:
		return lx.StripRefs()
	}
	return widen(lx.StripRefs(), ly.StripRefs())
}

func (c *checker) structLit(x *ast.StructLit) *types.Label {
	if l := x.Type.Label; l != nil && l.Kind == types.KNamed && len(l.Path) == 0 && len(l.Args) == 0 {
		if miss, ok := c.reg.UnknownType(c.fi.Module, l.Name); ok {
			c.reportMiss(diag.SemUnknownType, x.Type.Span, []string{l.Name}, miss,
				fmt.Sprintf("unknown type `%s`", l.Name))
		}
	}
	t := c.subst(x.Type.Label)
	if t != nil && t.Kind == types.KNamed && len(t.Path) > 0 {
		owner := t.Path[len(t.Path)-1]
		if owner == "Self" {
			owner = c.fi.Scope.Owner
		}
		if td := c.reg.Type(owner); td != nil && td.Kind == registry.KindEnum {
			t = types.Named(owner)
		}
	}
	for _, f := range x.Fields {
		c.expr(f.Value)
	}
	c.expr(x.Base)
	return t
}

func (c *checker) closure(x *ast.Closure, hint []*types.Label) *types.Label {
	c.push()
	c.depth++
	params := make([]*types.Label, len(x.Params))
	for i, p := range x.Params {
		var l *types.Label
		if p.Type != nil {
			l = c.subst(p.Type.Label)
		} else if i < len(hint) {
			l = hint[i]
		}
		params[i] = l
		c.bind(p.Pattern, l, BindClosure, refNone)
	}
	body := c.expr(x.Body)
	c.depth--
	c.pop()
	return &types.Label{Kind: types.KFn, Args: params, Elem: body}
}

func (c *checker) macro(x *ast.Macro) *types.Label {
	var first *types.Label
	for i, a := range x.Args {
		l := c.expr(a)
		if i == 0 || !x.Repeat {
			first = widen(first, l)
		}
	}
	switch x.Name {
	case "vec":
		if x.Repeat && len(x.Args) > 0 {
			return types.Named("Vec", x.Args[0].Label())
		}
		return types.Named("Vec", first)
	case "format":
		return types.String
	case "matches":
		return types.Bool
	case "write", "writeln":
		return types.Named("Result", types.Unit, nil)
	case "panic", "todo", "unimplemented", "unreachable":
		return nil
	}
	return types.Unit
}

// ---- calls ----

func (c *checker) args(es []ast.Expr, hints func(i int) []*types.Label) []*types.Label {
	out := make([]*types.Label, len(es))
	for i, a := range es {
		var h []*types.Label
		if hints != nil {
			h = hints(i)
		}
		out[i] = c.exprHint(a, h)
	}
	return out
}

// paramHints returns the closure parameter labels implied by fn-typed
// parameters of sig.
func paramHints(sig *registry.Signature) func(i int) []*types.Label {
	return func(i int) []*types.Label {
		if i >= len(sig.Params) {
			return nil
		}
		l := sig.Params[i].Label.StripRefs()
		if l != nil && (l.Kind == types.KDyn || l.Kind == types.KImpl) {
			l = l.Elem
		}
		switch {
		case l == nil:
			return nil
		case l.Kind == types.KFn, l.Kind == types.KNamed && types.IsFnTrait(l.Name):
			return l.Args
		}
		return nil
	}
}

func (c *checker) record(e ast.Expr, call *Call) {
	c.in.Calls[e] = call
}

func (c *checker) call(x *ast.Call) *types.Label {
	fn := ast.Unparen(x.Fn)
	var path []string
	var generics []*types.Label
	switch f := fn.(type) {
	case *ast.Ident:
		if b := c.lookup(f.Name); b != nil {
			c.fi.Uses[f] = b
			f.SetLabel(b.Label)
			c.args(x.Args, nil)
			c.record(x, &Call{Kind: CallClosure})
			if l := b.Label.StripRefs(); l != nil && (l.Kind == types.KFn || types.IsFnTrait(l.Name)) {
				return l.Elem
			}
			return nil
		}
		if sig := c.locals[f.Name]; sig != nil {
			args := c.args(x.Args, paramHints(sig))
			c.record(x, &Call{Kind: CallUser, Sig: sig})
			return c.resultOf(sig, nil, args)
		}
		path = []string{f.Name}
	case *ast.Path:
		path = f.Segments
		generics = c.typeArgs(f.Generics)
	default:
		c.expr(fn)
		c.args(x.Args, nil)
		return nil
	}

	if sig, err := c.reg.ResolveCall(c.fi.Scope, x, nil); err == nil {
		args := c.args(x.Args, paramHints(sig))
		kind := CallUser
		if sig.Extern {
			kind = CallExtern
		}
		c.record(x, &Call{Kind: kind, Sig: sig})
		return c.resultOf(sig, nil, args)
	}

	args := c.args(x.Args, nil)
	if l, ok := c.variantCtor(path); ok {
		c.record(x, &Call{Kind: CallVariant})
		return l
	}
	if l, ok := stdCtor(path, generics, args); ok {
		c.record(x, &Call{Kind: CallStd})
		return l
	}
	c.record(x, &Call{Kind: CallUnknown})
	if miss, ok := c.reg.Unresolved(c.fi.Scope, path); ok {
		c.reportMiss(diag.SemNameResolution, fn.Pos(), path, miss,
			fmt.Sprintf("cannot find `%s` in `%s`", miss.Name, strings.Join(path[:len(path)-1], "::")))
		return nil
	}
	c.warnExtern(fn, path)
	return nil
}

// reportMiss reports a path that has to resolve in WJ sources. The searched
// scopes go into help and the nearest declared name becomes a suggestion.
func (c *checker) reportMiss(code diag.Code, at source.Span, path []string, miss registry.Miss, msg string) {
	b := diag.ReportError(c.rep, code, at, msg).
		WithHelp("searched " + strings.Join(miss.Scopes, ", "))
	if best, ok := registry.Closest(miss.Name, miss.Known); ok {
		fixed := append(slices.Clone(path[:len(path)-1]), best)
		b = b.WithSuggestion(fmt.Sprintf("did you mean `%s`?", best), at, strings.Join(fixed, "::"))
	}
	b.Emit()
}

func (c *checker) variantCtor(path []string) (*types.Label, bool) {
	last := path[len(path)-1]
	if len(path) >= 2 {
		owner := path[len(path)-2]
		if owner == "Self" {
			owner = c.fi.Scope.Owner
		}
		if td := c.reg.Type(owner); td != nil && td.Kind == registry.KindEnum && td.Variant(last) != nil {
			return types.Named(owner), true
		}
	}
	if td := c.reg.Type(last); td != nil && td.Kind == registry.KindStruct {
		return types.Named(last), true
	}
	return nil, false
}

// stdFuncs are free functions callable without a declaration.
var stdFuncs = map[string]bool{
	"drop": true, "print": true, "println": true, "assert": true,
	"min": true, "max": true, "swap": true,
}

func (c *checker) warnExtern(fn ast.Expr, path []string) {
	if len(path) == 1 {
		if stdFuncs[path[0]] || startsUpper(path[0]) {
			return
		}
	} else {
		owner := path[len(path)-2]
		if startsUpper(owner) || types.IsPrimName(owner) || path[0] == "std" || path[0] == "core" {
			return
		}
	}
	diag.ReportWarning(c.rep, diag.SemExternAssumed, fn.Pos(),
		fmt.Sprintf("`%s` is not declared in WJ sources, assuming it is defined in Rust", strings.Join(path, "::"))).
		Emit()
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

func (c *checker) methodCall(x *ast.MethodCall) *types.Label {
	recv := c.expr(x.Recv)
	generics := c.typeArgs(x.Generics)

	sig, err := c.reg.ResolveCall(c.fi.Scope, x, make([]*types.Label, len(x.Args)))
	if err == nil && !(recv.IsUnknown() && isStdMethodName(x.Name)) {
		args := c.args(x.Args, paramHints(sig))
		c.record(x, &Call{Kind: CallUser, Sig: sig})
		return c.resultOf(sig, recv, args)
	}

	hints := closureHint(recv, x.Name)
	args := c.args(x.Args, func(int) []*types.Label { return hints })
	call := &Call{Kind: CallStd}
	var amb *registry.AmbiguousError
	if errors.As(err, &amb) {
		call.Kind, call.Ambiguous = CallUnknown, amb
	}
	c.record(x, call)
	c.refine(x, recv, args)
	return stdMethod(recv, x.Name, generics, args)
}

// isStdMethodName lists std method names that a receiver of unknown label
// must not resolve to a same-named user method by arity alone.
func isStdMethodName(name string) bool {
	switch name {
	case "len", "is_empty", "clone", "push", "pop", "get", "insert", "remove",
		"contains", "iter", "iter_mut", "into_iter", "unwrap", "expect",
		"to_string", "as_str", "map", "collect":
		return true
	}
	return false
}

// refine fills unknown element labels of a local collection from the first
// push or insert into it.
func (c *checker) refine(x *ast.MethodCall, recv *types.Label, args []*types.Label) {
	id, ok := ast.Unparen(x.Recv).(*ast.Ident)
	if !ok {
		return
	}
	b := c.fi.Uses[id]
	if b == nil || b.Label.IsRef() {
		return
	}
	switch {
	case (x.Name == "push" || x.Name == "push_back") && len(args) == 1 && recv.Arg(0) == nil &&
		(recv.Is("Vec") || recv.Is("VecDeque")) && !args[0].IsUnknown():
		b.Label = types.Named(recv.Name, args[0])
	case x.Name == "insert" && len(args) == 2 && (recv.Is("HashMap") || recv.Is("BTreeMap")) &&
		recv.Arg(0) == nil && recv.Arg(1) == nil:
		b.Label = types.Named(recv.Name, args[0], args[1])
	case x.Name == "insert" && len(args) == 1 && (recv.Is("HashSet") || recv.Is("BTreeSet")) && recv.Arg(0) == nil:
		b.Label = types.Named(recv.Name, args[0])
	}
}

// resultOf instantiates the declared result of sig at a call site.
func (c *checker) resultOf(sig *registry.Signature, recv *types.Label, args []*types.Label) *types.Label {
	m := make(map[string]*types.Label)
	if r := recv.StripRefs(); r != nil && r.Kind == types.KNamed {
		m["Self"] = r
		if td := c.reg.Type(r.Name); td != nil {
			maps.Copy(m, td.GenericSubst(r))
		}
	} else if r != nil && r.Kind == types.KSelf && c.fi.Owner != nil {
		m["Self"] = c.fi.Owner
	}
	if _, ok := m["Self"]; !ok && sig.Owner != "" {
		if td := c.reg.Type(sig.Owner); td == nil || td.Kind != registry.KindTrait {
			m["Self"] = types.Named(sig.Owner)
		}
	}
	for i, p := range sig.Params {
		if i < len(args) {
			unify(p.Label, args[i], m)
		}
	}
	return sig.Result.Subst(m)
}

// unify binds generic parameters of p to the matching parts of a.
func unify(p, a *types.Label, m map[string]*types.Label) {
	if p == nil || a.IsUnknown() {
		return
	}
	switch p.Kind {
	case types.KParam:
		if _, ok := m[p.Name]; !ok {
			m[p.Name] = a
		}
	case types.KRef:
		unify(p.Elem, a.Deref(), m)
	case types.KNamed, types.KTuple:
		if a.Kind != p.Kind || a.Name != p.Name {
			return
		}
		for i, pa := range p.Args {
			unify(pa, a.Arg(i), m)
		}
	case types.KArray, types.KSlice:
		if a.Kind == types.KArray || a.Kind == types.KSlice {
			unify(p.Elem, a.Elem, m)
		}
	}
}

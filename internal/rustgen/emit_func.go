package rustgen

import (
	"fmt"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/sema"
	"windjammer/internal/token"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

type funcEmitter struct {
	e      *Emitter
	fi     *sema.FuncInfo
	facts  *usage.Facts
	indent int
	unsafe int
	// results is the stack of value types `return` refers to; closures
	// push nil.
	results []*types.Label
}

func newFuncEmitter(e *Emitter, fi *sema.FuncInfo, facts *usage.Facts, indent int) *funcEmitter {
	f := &funcEmitter{e: e, fi: fi, facts: facts, indent: indent}
	if fi.Decl != nil && fi.Decl.Unsafe {
		f.unsafe = 1
	}
	return f
}

func (f *funcEmitter) pad() string {
	return strings.Repeat(indentUnit, f.indent)
}

func (f *funcEmitter) binding(id *ast.Ident) *sema.Binding {
	return f.fi.Uses[id]
}

// usedAfter reports whether the binding used at id is read again later.
func (f *funcEmitter) usedAfter(id *ast.Ident) bool {
	return f.facts != nil && f.facts.UsedAfter(id)
}

func (f *funcEmitter) used(b *sema.Binding) bool {
	return f.facts == nil || f.facts.Used(b)
}

func (f *funcEmitter) result() *types.Label {
	if len(f.results) == 0 {
		return nil
	}
	return f.results[len(f.results)-1]
}

// fnBody emits a function body; a trailing `return e` becomes the tail.
func (f *funcEmitter) fnBody(b *ast.Block, result *types.Label) string {
	f.results = append(f.results, result)
	defer func() { f.results = f.results[:len(f.results)-1] }()
	w := want{form: formOwned, label: result}
	if result.IsUnit() {
		w = want{form: formUnit}
	}
	return f.blockWith(b, w, true)
}

func (f *funcEmitter) block(b *ast.Block, w want) string {
	return f.blockWith(b, w, false)
}

func blockLike(x ast.Expr) bool {
	switch ast.Unparen(x).(type) {
	case *ast.IfExpr, *ast.MatchExpr, *ast.Block:
		return true
	}
	return false
}

func (f *funcEmitter) blockWith(b *ast.Block, w want, fnBody bool) string {
	if b == nil {
		return "{}"
	}
	if b.Unsafe {
		f.unsafe++
		defer func() { f.unsafe-- }()
	}
	stmts := b.Stmts
	var tail ast.Expr
	if n := len(stmts); n > 0 {
		switch s := stmts[n-1].(type) {
		case *ast.ExprStmt:
			if !s.Semi {
				tail, stmts = s.X, stmts[:n-1]
			}
		case *ast.ReturnStmt:
			if fnBody {
				stmts = stmts[:n-1]
				tail = s.Value
			}
		}
	}

	f.indent++
	var lines []string
	for _, s := range stmts {
		if l := f.stmt(s); l != "" {
			lines = append(lines, f.pad()+l)
		}
	}
	if tail != nil {
		t := f.expr(tail, w)
		// unit tail after an early return stays a statement
		if (w.form == formUnit || tail.Label().IsUnit()) && !blockLike(tail) {
			t += ";"
		}
		lines = append(lines, f.pad()+t)
	}
	f.indent--
	if len(lines) == 0 {
		return "{}"
	}
	return "{\n" + strings.Join(lines, "\n") + "\n" + f.pad() + "}"
}

func (f *funcEmitter) stmt(s ast.Stmt) string {
	switch s := s.(type) {
	case *ast.LetStmt:
		return f.let(s)
	case *ast.AssignStmt:
		return f.assign(s)
	case *ast.ExprStmt:
		if id, ok := s.X.(*ast.Ident); ok && types.IsPrimName(id.Name) && f.binding(id) == nil {
			f.e.fail(diag.ReportError(f.e.rep, diag.SemInternal, id.Span,
				fmt.Sprintf("stray type name `%s` reached the emitter", id.Name)))
			return ""
		}
		if blockLike(s.X) {
			return f.expr(s.X, want{form: formUnit})
		}
		return f.expr(s.X, want{}) + ";"
	case *ast.ReturnStmt:
		if s.Value == nil {
			return "return;"
		}
		return "return " + f.expr(s.Value, want{form: formOwned, label: f.result()}) + ";"
	case *ast.BreakStmt:
		if s.Value == nil {
			return "break;"
		}
		return "break " + f.expr(s.Value, want{form: formOwned}) + ";"
	case *ast.ContinueStmt:
		return "continue;"
	case *ast.WhileStmt:
		if s.LetPat != nil {
			pat := f.pattern(s.LetPat)
			_, scrut := f.scrutinee(s.Cond, s.Cond)
			return "while let " + pat + " = " + scrut + " " + f.block(s.Body, want{form: formUnit})
		}
		return "while " + f.cond(s.Cond) + " " + f.block(s.Body, want{form: formUnit})
	case *ast.LoopStmt:
		return "loop " + f.block(s.Body, want{form: formUnit})
	case *ast.ForStmt:
		return "for " + f.pattern(s.Pattern) + " in " + f.iterable(s.Iter) + " " + f.block(s.Body, want{form: formUnit})
	case *ast.ItemStmt:
		return f.itemStmt(s)
	}
	return ""
}

func (f *funcEmitter) let(s *ast.LetStmt) string {
	var target *types.Label
	typ := ""
	if s.Type != nil {
		target = s.Type.Label
		typ = ": " + f.e.typ(target)
	}
	pat := f.pattern(s.Pattern)
	if s.Value == nil {
		return "let " + pat + typ + ";"
	}
	return "let " + pat + typ + " = " + f.expr(s.Value, want{form: formOwned, label: target}) + ";"
}

func (f *funcEmitter) assign(s *ast.AssignStmt) string {
	lhs := f.place(s.Target, s.Op != token.Assign, s.Value)
	tl := s.Target.Label()
	var rhs string
	switch {
	case s.Op == token.Assign:
		rhs = f.expr(s.Value, want{form: formOwned, label: tl})
	case s.Op == token.PlusAssign && tl.StripRefs().IsString():
		rhs = f.strArg(s.Value)
	default:
		rhs = f.expr(s.Value, want{form: formOwned, label: f.eff(s.Value).StripRefs()})
	}
	return lhs + " " + s.Op.String() + " " + rhs + ";"
}

// place emits an assignment target. A binding that holds a reference to
// the value is written through.
func (f *funcEmitter) place(x ast.Expr, compound bool, value ast.Expr) string {
	id, ok := ast.Unparen(x).(*ast.Ident)
	if !ok {
		return f.expr(x, want{})
	}
	b := f.binding(id)
	if b == nil {
		return id.Name
	}
	if ref, mut := b.Holds(); ref && mut && (compound || !f.eff(value).IsRef()) {
		return "*" + id.Name
	}
	return id.Name
}

// iterable emits a for-loop source. Bindings and fields still needed after
// the loop, or reached through a reference, are iterated as clones.
func (f *funcEmitter) iterable(x ast.Expr) string {
	switch ast.Unparen(x).(type) {
	case *ast.Ident, *ast.Field:
		return f.expr(x, want{form: formOwned})
	}
	return f.expr(x, want{})
}

func (f *funcEmitter) cond(x ast.Expr) string {
	c := f.emit(x, want{})
	if f.eff(x).IsRef() {
		return "*" + paren(c, precUnary)
	}
	if _, ok := ast.Unparen(x).(*ast.StructLit); ok {
		return "(" + c.s + ")"
	}
	return c.s
}

func (f *funcEmitter) itemStmt(s *ast.ItemStmt) string {
	switch x := s.Item.(type) {
	case *ast.FnDecl:
		var b strings.Builder
		f.e.fn(&b, f.fi.Module, x, fnNested, f.indent)
		return strings.TrimPrefix(strings.TrimSuffix(b.String(), "\n"), f.pad())
	case *ast.ConstDecl:
		return f.e.constDecl(x, false)
	case *ast.UseDecl:
		return strings.Join(f.e.use(f.fi.Module, x), "\n"+f.pad())
	}
	return ""
}

// ---- patterns ----

func (f *funcEmitter) pattern(p ast.Pattern) string {
	switch p := p.(type) {
	case *ast.WildcardPat:
		return "_"
	case *ast.RestPat:
		return ".."
	case *ast.BindPat:
		return f.bindPat(p)
	case *ast.LitPat:
		if p.Neg {
			return "-" + f.lit(p.Lit).s
		}
		return f.lit(p.Lit).s
	case *ast.TuplePat:
		parts := f.patterns(p.Elems)
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case *ast.PathPat:
		f.e.needPath(p.Path)
		return strings.Join(p.Path, "::")
	case *ast.TupleStructPat:
		return strings.Join(p.Path, "::") + "(" + strings.Join(f.patterns(p.Elems), ", ") + ")"
	case *ast.StructPat:
		parts := make([]string, 0, len(p.Fields)+1)
		for _, fp := range p.Fields {
			text := f.pattern(fp.Pat)
			if fp.Shorthand && text == fp.Name {
				parts = append(parts, text)
			} else {
				parts = append(parts, fp.Name+": "+text)
			}
		}
		if p.Rest {
			parts = append(parts, "..")
		}
		if len(parts) == 0 {
			return strings.Join(p.Path, "::") + " {}"
		}
		return strings.Join(p.Path, "::") + " { " + strings.Join(parts, ", ") + " }"
	case *ast.RefPat:
		if p.Mut {
			return "&mut " + f.pattern(p.Pat)
		}
		return "&" + f.pattern(p.Pat)
	case *ast.OrPat:
		return strings.Join(f.patterns(p.Alts), " | ")
	case *ast.RangePat:
		op := ".."
		if p.Inclusive {
			op = "..="
		}
		lo, hi := "", ""
		if p.Lo != nil {
			lo = f.lit(p.Lo).s
		}
		if p.Hi != nil {
			hi = f.lit(p.Hi).s
		}
		return lo + op + hi
	}
	return "_"
}

func (f *funcEmitter) patterns(ps []ast.Pattern) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = f.pattern(p)
	}
	return out
}

func (f *funcEmitter) bindPat(p *ast.BindPat) string {
	b := f.fi.Pats[p]
	name := p.Name
	var text string
	switch {
	case b != nil && !f.used(b) && !strings.HasPrefix(name, "_"):
		text = "_" + name
	case p.ByRef && p.Mut:
		text = "ref mut " + name
	case p.ByRef:
		text = "ref " + name
	case b != nil && b.Mutable, b == nil && p.Mut:
		text = "mut " + name
	default:
		text = name
	}
	if p.Sub != nil {
		text += " @ " + f.pattern(p.Sub)
	}
	return text
}

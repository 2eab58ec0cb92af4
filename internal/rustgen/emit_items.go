package rustgen

import (
	"fmt"
	"slices"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/registry"
	"windjammer/internal/sema"
	"windjammer/internal/types"
	"windjammer/internal/usage"
)

type fnKind uint8

const (
	fnFree fnKind = iota
	fnInherent
	fnTraitImpl
	fnTrait
	fnNested
)

func (e *Emitter) items(b *strings.Builder, module []string, items []ast.Item, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	var externs []*ast.FnDecl
	for _, it := range items {
		if fn, ok := it.(*ast.FnDecl); ok && fn.Extern {
			externs = append(externs, fn)
		}
	}

	first, prevUse := true, false
	sep := func(use bool) {
		if !first && !(use && prevUse) {
			b.WriteByte('\n')
		}
		first, prevUse = false, use
	}
	for _, it := range items {
		switch x := it.(type) {
		case *ast.UseDecl:
			lines := e.use(module, x)
			if depth == 0 {
				e.userUses = append(e.userUses, lines...)
				continue
			}
			sep(true)
			for _, l := range lines {
				b.WriteString(pad + l + "\n")
			}
		case *ast.FnDecl:
			if x.Extern {
				if externs != nil {
					sep(false)
					e.externBlock(b, externs, pad)
					externs = nil
				}
				continue
			}
			if e.opts.Library && len(module) == 0 && x.Name == "main" {
				continue
			}
			sep(false)
			e.fn(b, module, x, fnFree, depth)
		case *ast.StructDecl:
			sep(false)
			e.structDecl(b, x, pad)
		case *ast.EnumDecl:
			sep(false)
			e.enumDecl(b, x, pad)
		case *ast.TraitDecl:
			sep(false)
			e.traitDecl(b, module, x, depth)
		case *ast.ImplDecl:
			sep(false)
			e.implDecl(b, module, x, depth)
		case *ast.ConstDecl:
			sep(false)
			b.WriteString(pad + e.constDecl(x, true) + "\n")
		case *ast.TypeAlias:
			sep(false)
			b.WriteString(pad + "pub type " + x.Name + " = " + e.typ(x.Type.Label) + ";\n")
		case *ast.ModDecl:
			if x.External {
				// layout declares file modules
				continue
			}
			sep(false)
			b.WriteString(pad + "pub mod " + x.Name + " {\n")
			b.WriteString(pad + indentUnit + "use super::*;\n\n")
			e.items(b, append(slices.Clone(module), x.Name), x.Items, depth+1)
			b.WriteString(pad + "}\n")
		}
	}
}

// attrs maps decorators to Rust attributes; @derive is handled with the type.
func attrs(ds []*ast.Decorator) []string {
	var out []string
	for _, d := range ds {
		args := strings.Join(d.Args, ", ")
		switch d.Name {
		case "test", "inline", "must_use", "ignore", "allow", "cfg", "deprecated", "repr":
			if args != "" {
				out = append(out, "#["+d.Name+"("+args+")]")
			} else {
				out = append(out, "#["+d.Name+"]")
			}
		case "export", "no_mangle":
			out = append(out, "#[no_mangle]")
		}
	}
	return out
}

func (e *Emitter) writeAttrs(b *strings.Builder, pad string, ds []*ast.Decorator, typeName string) {
	for _, a := range attrs(ds) {
		b.WriteString(pad + a + "\n")
	}
	if typeName == "" {
		return
	}
	if ds := e.cc.Derives(typeName); len(ds) > 0 {
		b.WriteString(pad + "#[derive(" + strings.Join(ds, ", ") + ")]\n")
	}
}

func (e *Emitter) fieldType(f *ast.FieldDecl) string {
	if f.Type == nil || f.Type.Label == nil {
		e.fail(diag.ReportError(e.rep, diag.SemUnresolvedLabel, f.Span,
			fmt.Sprintf("field `%s` has no type", f.Name)).
			WithHelp("annotate the field type"))
		return "_"
	}
	return e.typ(f.Type.Label)
}

func (e *Emitter) structDecl(b *strings.Builder, x *ast.StructDecl, pad string) {
	e.writeAttrs(b, pad, x.Decorators, x.Name)
	head := pad + "pub struct " + x.Name + e.generics(x.Generics)
	if x.Tuple {
		parts := make([]string, len(x.Fields))
		for i, f := range x.Fields {
			parts[i] = "pub " + e.fieldType(f)
		}
		b.WriteString(head + "(" + strings.Join(parts, ", ") + ");\n")
		return
	}
	if len(x.Fields) == 0 {
		b.WriteString(head + " {}\n")
		return
	}
	b.WriteString(head + " {\n")
	for _, f := range x.Fields {
		b.WriteString(pad + indentUnit + "pub " + f.Name + ": " + e.fieldType(f) + ",\n")
	}
	b.WriteString(pad + "}\n")
}

func (e *Emitter) enumDecl(b *strings.Builder, x *ast.EnumDecl, pad string) {
	e.writeAttrs(b, pad, x.Decorators, x.Name)
	b.WriteString(pad + "pub enum " + x.Name + e.generics(x.Generics) + " {\n")
	for _, v := range x.Variants {
		line := pad + indentUnit + v.Name
		switch v.Kind {
		case ast.VariantTuple:
			parts := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				parts[i] = e.fieldType(f)
			}
			line += "(" + strings.Join(parts, ", ") + ")"
		case ast.VariantStruct:
			parts := make([]string, len(v.Fields))
			for i, f := range v.Fields {
				parts[i] = f.Name + ": " + e.fieldType(f)
			}
			line += " { " + strings.Join(parts, ", ") + " }"
		}
		b.WriteString(line + ",\n")
	}
	b.WriteString(pad + "}\n")
}

func (e *Emitter) traitDecl(b *strings.Builder, module []string, x *ast.TraitDecl, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	e.writeAttrs(b, pad, x.Decorators, "")
	head := pad + "pub trait " + x.Name + e.generics(x.Generics)
	if len(x.Supertraits) > 0 {
		sup := make([]string, len(x.Supertraits))
		for i, t := range x.Supertraits {
			sup[i] = e.typ(t.Label)
		}
		head += ": " + strings.Join(sup, " + ")
	}
	b.WriteString(head + " {\n")
	for _, a := range x.Assoc {
		b.WriteString(pad + indentUnit + "type " + a.Name + ";\n")
	}
	for i, m := range x.Methods {
		if i > 0 || len(x.Assoc) > 0 {
			b.WriteByte('\n')
		}
		e.fn(b, module, m, fnTrait, depth+1)
	}
	b.WriteString(pad + "}\n")
}

func (e *Emitter) implDecl(b *strings.Builder, module []string, x *ast.ImplDecl, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	head := pad + "impl" + e.generics(x.Generics) + " "
	kind := fnInherent
	if x.Trait != nil {
		head += e.typ(x.Trait.Label) + " for "
		kind = fnTraitImpl
	}
	b.WriteString(head + e.typ(x.Target.Label) + " {\n")

	assoc := 0
	for _, a := range x.Assoc {
		b.WriteString(pad + indentUnit + "type " + a.Name + " = " + e.typ(a.Type.Label) + ";\n")
		assoc++
	}
	if method, ok := operatorTraits[x.TraitName()]; ok && !slices.ContainsFunc(x.Assoc, func(a *ast.AssocType) bool {
		return a.Name == "Output"
	}) {
		out := "Self"
		for _, m := range x.Methods {
			if m.Name == method && m.Result != nil {
				out = e.typ(m.Result.Label)
			}
		}
		b.WriteString(pad + indentUnit + "type Output = " + out + ";\n")
		assoc++
	}
	for i, m := range x.Methods {
		if i > 0 || assoc > 0 {
			b.WriteByte('\n')
		}
		e.fn(b, module, m, kind, depth+1)
	}
	b.WriteString(pad + "}\n")
}

func (e *Emitter) externBlock(b *strings.Builder, fns []*ast.FnDecl, pad string) {
	b.WriteString(pad + "extern \"C\" {\n")
	for _, fn := range fns {
		params := make([]string, len(fn.Params))
		for i, p := range fn.Params {
			params[i] = p.Name + ": " + e.paramLabel(p)
		}
		line := pad + indentUnit + "pub fn " + fn.Name + "(" + strings.Join(params, ", ") + ")"
		if r := fn.ResultLabel(); !r.IsUnit() {
			line += " -> " + e.typ(r)
		}
		b.WriteString(line + ";\n")
	}
	b.WriteString(pad + "}\n")
}

func (e *Emitter) paramLabel(p *ast.Param) string {
	if p.Type == nil || p.Type.Label == nil {
		e.fail(diag.ReportError(e.rep, diag.SemUnresolvedLabel, p.Span,
			fmt.Sprintf("parameter `%s` has no type", p.Name)).
			WithHelp("annotate the parameter type"))
		return "_"
	}
	return e.typ(p.Type.Label)
}

// paramType renders the inferred form of a parameter.
func (e *Emitter) paramType(p *ast.Param, rp *registry.Param) string {
	written := e.paramLabel(p)
	if rp == nil || rp.Explicit || p.Type == nil || p.Type.Label.IsRef() {
		return written
	}
	switch rp.Mode {
	case types.Borrowed:
		if p.Type.Label.IsString() {
			return "&str"
		}
		return "&" + written
	case types.MutBorrowed:
		return "&mut " + written
	}
	return written
}

func receiverText(sig *registry.Signature) string {
	switch sig.Recv {
	case types.RecvValue:
		if sig.RecvMut {
			return "mut self"
		}
		return "self"
	case types.RecvMutRef:
		return "&mut self"
	case types.RecvRef, types.RecvInfer:
		return "&self"
	}
	return ""
}

func (e *Emitter) fn(b *strings.Builder, module []string, fn *ast.FnDecl, kind fnKind, depth int) {
	pad := strings.Repeat(indentUnit, depth)
	fi := e.in.ByDecl[fn]
	var sig *registry.Signature
	switch {
	case fi != nil:
		sig = fi.Sig
	case e.reg.SignatureOf(fn) != nil:
		sig = e.reg.SignatureOf(fn)
	default:
		sig = registry.NewLocal(module, fn)
	}
	var facts *usage.Facts
	if fi != nil {
		facts = e.own.FactsOf(fi)
	}

	for _, a := range attrs(fn.Decorators) {
		b.WriteString(pad + a + "\n")
	}
	var h strings.Builder
	h.WriteString(pad)
	if kind == fnInherent || kind == fnFree && fn.Name != "main" {
		h.WriteString("pub ")
	}
	if fn.Async {
		h.WriteString("async ")
	}
	if fn.Unsafe {
		h.WriteString("unsafe ")
	}
	h.WriteString("fn " + fn.Name + e.generics(fn.Generics) + "(")

	var params []string
	if r := receiverText(sig); r != "" {
		params = append(params, r)
	}
	for i, p := range fn.Params {
		var rp *registry.Param
		if i < len(sig.Params) {
			rp = sig.Params[i]
		}
		name := p.Name
		if fi != nil && facts != nil && i < len(fi.Params) && !facts.Used(fi.Params[i]) && !strings.HasPrefix(name, "_") {
			name = "_" + name
		} else if rp != nil && rp.Mutated || p.Mut && (rp == nil || rp.Mode == types.Owned) {
			name = "mut " + name
		}
		params = append(params, name+": "+e.paramType(p, rp))
	}
	h.WriteString(strings.Join(params, ", ") + ")")
	if r := sig.Result; r != nil && !r.IsUnit() {
		h.WriteString(" -> " + e.typ(r))
	}

	if fn.Body == nil {
		b.WriteString(h.String() + ";\n")
		return
	}
	if fi == nil {
		fi = &sema.FuncInfo{Decl: fn, Sig: sig, Module: module}
	}
	f := newFuncEmitter(e, fi, facts, depth)
	body := f.fnBody(fn.Body, sig.Result)
	b.WriteString(h.String() + " " + body + "\n")
}

// constDecl renders a const or static. A string constant initialized by a
// literal is a `&'static str`.
func (e *Emitter) constDecl(x *ast.ConstDecl, pub bool) string {
	kw := "const"
	if x.Static {
		kw = "static"
		if x.Mut {
			kw = "static mut"
		}
	}
	if pub {
		kw = "pub " + kw
	}
	var l *types.Label
	switch {
	case x.Type != nil:
		l = x.Type.Label
	case x.Value != nil:
		l = x.Value.Label()
	}
	if l.IsUnknown() {
		e.fail(diag.ReportError(e.rep, diag.SemUnresolvedLabel, x.Span,
			fmt.Sprintf("constant `%s` needs a type", x.Name)).
			WithHelp("annotate the constant type"))
		return ""
	}
	typ := e.typ(l)
	if lit, ok := x.Value.(*ast.Lit); ok && lit.Kind == ast.LitString && l.IsStringLike() {
		typ = "&'static str"
	}
	f := newFuncEmitter(e, &sema.FuncInfo{Decl: &ast.FnDecl{}}, nil, 0)
	return kw + " " + x.Name + ": " + typ + " = " + f.expr(x.Value, want{}) + ";"
}

var stdRoots = map[string]bool{"std": true, "core": true, "alloc": true}

// use renders a `use` declaration. std and external crate paths pass
// through; paths into the program are made crate-absolute and handed to
// the layout's path renderer.
func (e *Emitter) use(module []string, u *ast.UseDecl) []string {
	vis := ""
	if u.Pub {
		vis = "pub "
	}
	prefix := u.Prefix
	if len(prefix) == 0 {
		out := make([]string, 0, len(u.Leaves))
		for _, leaf := range u.Leaves {
			if stdRoots[leaf.Name] {
				continue
			}
			out = append(out, vis+"use "+e.usePath(module, []string{leaf.Name})+alias(leaf.Alias)+";")
		}
		return out
	}

	path := e.usePath(module, prefix)
	if stdRoots[prefix[0]] {
		if u.Glob {
			e.userGlob = append(e.userGlob, path)
		}
		for _, leaf := range u.Leaves {
			if leaf.Name == "self" {
				e.userStd[path] = true
			} else {
				e.userStd[path+"::"+leaf.Name] = true
			}
		}
	}
	switch {
	case u.Glob:
		return []string{vis + "use " + path + "::*;"}
	case len(u.Leaves) == 1:
		leaf := u.Leaves[0]
		if leaf.Name == "self" {
			return []string{vis + "use " + path + alias(leaf.Alias) + ";"}
		}
		return []string{vis + "use " + path + "::" + leaf.Name + alias(leaf.Alias) + ";"}
	}
	leaves := make([]string, len(u.Leaves))
	for i, leaf := range u.Leaves {
		leaves[i] = leaf.Name + alias(leaf.Alias)
	}
	return []string{vis + "use " + path + "::{" + strings.Join(leaves, ", ") + "};"}
}

func alias(a string) string {
	if a == "" {
		return ""
	}
	return " as " + a
}

func (e *Emitter) usePath(module, path []string) string {
	if len(path) == 0 || stdRoots[path[0]] {
		return strings.Join(path, "::")
	}
	abs, ok := e.reg.Absolute(module, path)
	if !ok {
		return strings.Join(path, "::")
	}
	switch path[0] {
	case "crate", "self", "super":
	default:
		if len(abs) == 0 || !e.reg.HasModule(abs[:1]) && e.reg.Type(abs[0]) == nil {
			// another crate
			return strings.Join(path, "::")
		}
	}
	return e.opts.UsePath(module, abs)
}

// Package registry is the global table of user declarations: types, free
// functions, methods and trait stubs, with the parameter forms that
// ownership inference settles. It is filled from declarations first and is
// read-only once inference completes.
package registry

import (
	"slices"
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/diag"
	"windjammer/internal/types"
)

type Registry struct {
	types    map[string]*TypeDecl
	typeKeys map[FuncKey]*TypeDecl
	funcs    map[FuncKey]*Signature
	methods  map[MethodKey]*Signature
	byName   map[string][]*Signature // method name → every impl/trait method
	impls    map[string][]string     // type name (incl. primitives) → implemented traits
	traitImp map[MethodKey][]*Signature
	consts   map[FuncKey]*types.Label

	imports map[string]map[string][]string // module → local name → absolute path
	globs   map[string][][]string          // module → glob-imported module paths
	visible map[string]map[string]bool     // module → every name a use brings in, std included
	opaque  map[string]bool                // modules with a glob import from outside the crate
	modules map[string]bool

	order  []*Signature
	byDecl map[*ast.FnDecl]*Signature

	copyOracle types.UserCopy
	copyCache  map[string]bool
}

func New() *Registry {
	return &Registry{
		types:     make(map[string]*TypeDecl),
		typeKeys:  make(map[FuncKey]*TypeDecl),
		funcs:     make(map[FuncKey]*Signature),
		methods:   make(map[MethodKey]*Signature),
		byName:    make(map[string][]*Signature),
		impls:     make(map[string][]string),
		traitImp:  make(map[MethodKey][]*Signature),
		consts:    make(map[FuncKey]*types.Label),
		imports:   make(map[string]map[string][]string),
		globs:     make(map[string][][]string),
		visible:   make(map[string]map[string]bool),
		opaque:    make(map[string]bool),
		modules:   map[string]bool{"": true},
		copyCache: make(map[string]bool),
	}
}

// RegisterFile registers every declaration of f, descending into inline
// modules. Duplicates are reported and skipped.
func (r *Registry) RegisterFile(f *ast.File, rep diag.Reporter) {
	r.registerItems(f.Module, f.Items, rep)
}

func (r *Registry) registerItems(module []string, items []ast.Item, rep diag.Reporter) {
	r.modules[joinModule(module)] = true
	for _, it := range items {
		if md, ok := it.(*ast.ModDecl); ok && !md.External {
			r.registerItems(append(slices.Clone(module), md.Name), md.Items, rep)
			continue
		}
		err := r.RegisterDeclaration(module, it)
		if err == nil || rep == nil {
			continue
		}
		b := diag.ReportError(rep, diag.SemDuplicateDecl, it.Pos(), err.Error())
		if dup, ok := err.(*DuplicateError); ok && dup.Prev != nil {
			b.WithNote(dup.Prev.Pos(), "previously declared here")
		}
		b.Emit()
	}
}

// RegisterDeclaration records one item of module. Functions inside impls and
// traits are registered as methods.
func (r *Registry) RegisterDeclaration(module []string, item ast.Item) error {
	switch it := item.(type) {
	case *ast.FnDecl:
		return r.addFunc(module, it)
	case *ast.StructDecl:
		td := &TypeDecl{
			Name:     it.Name,
			Module:   module,
			Kind:     KindStruct,
			Generics: genericNames(it.Generics),
			Fields:   fieldsOf(it.Fields),
			Node:     it,
		}
		td.Derives, td.Explicit = ast.Derives(it.Decorators)
		return r.addType(td)
	case *ast.EnumDecl:
		td := &TypeDecl{
			Name:     it.Name,
			Module:   module,
			Kind:     KindEnum,
			Generics: genericNames(it.Generics),
			Node:     it,
		}
		for _, v := range it.Variants {
			td.Variants = append(td.Variants, &VariantInfo{Name: v.Name, Kind: v.Kind, Fields: fieldsOf(v.Fields)})
		}
		td.Derives, td.Explicit = ast.Derives(it.Decorators)
		return r.addType(td)
	case *ast.TraitDecl:
		td := &TypeDecl{Name: it.Name, Module: module, Kind: KindTrait, Generics: genericNames(it.Generics), Node: it}
		if err := r.addType(td); err != nil {
			return err
		}
		for _, m := range it.Methods {
			sig := newSignature(module, m)
			sig.Owner, sig.Trait = it.Name, it.Name
			r.methods[MethodKey{it.Name, m.Name}] = sig
			r.byName[m.Name] = append(r.byName[m.Name], sig)
			r.record(sig)
		}
		return nil
	case *ast.ImplDecl:
		return r.addImpl(module, it)
	case *ast.TypeAlias:
		td := &TypeDecl{Name: it.Name, Module: module, Kind: KindAlias, Node: it}
		if it.Type != nil {
			td.Alias = it.Type.Label
		}
		return r.addType(td)
	case *ast.ConstDecl:
		key := FuncKey{joinModule(module), it.Name}
		if _, dup := r.consts[key]; dup {
			return &DuplicateError{What: "constant", Name: it.Name, Module: module}
		}
		var l *types.Label
		if it.Type != nil {
			l = it.Type.Label
		}
		r.consts[key] = l
		return nil
	case *ast.UseDecl:
		r.addUse(module, it)
		return nil
	case *ast.ModDecl:
		r.modules[joinModule(append(slices.Clone(module), it.Name))] = true
		return nil
	}
	return nil
}

func (r *Registry) addType(td *TypeDecl) error {
	key := FuncKey{joinModule(td.Module), td.Name}
	if prev, dup := r.typeKeys[key]; dup {
		return &DuplicateError{What: td.Kind.String(), Name: td.Name, Module: td.Module, Prev: prev.Node}
	}
	r.typeKeys[key] = td
	if _, seen := r.types[td.Name]; !seen {
		r.types[td.Name] = td
	}
	return nil
}

func (r *Registry) addFunc(module []string, fn *ast.FnDecl) error {
	key := FuncKey{joinModule(module), fn.Name}
	if prev, dup := r.funcs[key]; dup {
		return &DuplicateError{What: "function", Name: fn.Name, Module: module, Prev: prev.Decl}
	}
	sig := newSignature(module, fn)
	r.funcs[key] = sig
	r.record(sig)
	return nil
}

func (r *Registry) addImpl(module []string, im *ast.ImplDecl) error {
	target := im.TargetName()
	trait := im.TraitName()
	if trait != "" && !slices.Contains(r.impls[target], trait) {
		r.impls[target] = append(r.impls[target], trait)
	}
	var firstErr error
	for _, m := range im.Methods {
		key := MethodKey{target, m.Name}
		if prev, dup := r.methods[key]; dup {
			if firstErr == nil {
				firstErr = &DuplicateError{What: "method", Name: target + "::" + m.Name, Module: module, Prev: prev.Decl}
			}
			continue
		}
		sig := newSignature(module, m)
		sig.Owner, sig.Trait = target, trait
		r.methods[key] = sig
		r.byName[m.Name] = append(r.byName[m.Name], sig)
		r.record(sig)
		if trait != "" {
			tk := MethodKey{trait, m.Name}
			r.traitImp[tk] = append(r.traitImp[tk], sig)
		}
	}
	return firstErr
}

func (r *Registry) addUse(module []string, u *ast.UseDecl) {
	mk := joinModule(module)
	if r.visible[mk] == nil {
		r.visible[mk] = make(map[string]bool)
	}
	for _, leaf := range u.Leaves {
		if leaf.Alias != "" {
			r.visible[mk][leaf.Alias] = true
		} else {
			r.visible[mk][leaf.Name] = true
		}
	}
	prefix, ok := r.absolute(module, u.Prefix)
	if !ok {
		if u.Glob {
			r.opaque[mk] = true
		}
		return
	}
	if u.Glob {
		r.globs[mk] = append(r.globs[mk], prefix)
		return
	}
	if r.imports[mk] == nil {
		r.imports[mk] = make(map[string][]string)
	}
	for _, leaf := range u.Leaves {
		local := leaf.Name
		if leaf.Alias != "" {
			local = leaf.Alias
		}
		if leaf.Name == "self" {
			if len(prefix) == 0 {
				continue
			}
			local = prefix[len(prefix)-1]
			if leaf.Alias != "" {
				local = leaf.Alias
			}
			r.imports[mk][local] = prefix
			continue
		}
		r.imports[mk][local] = append(slices.Clone(prefix), leaf.Name)
	}
}

// Absolute resolves a written `use` path seen from module to a
// crate-absolute path; ok is false for std and external crates.
func (r *Registry) Absolute(module, path []string) (abs []string, ok bool) {
	return r.absolute(module, path)
}

// absolute resolves a written path prefix to a crate-absolute module path.
// Paths into std and other crates are not tracked.
func (r *Registry) absolute(module, path []string) ([]string, bool) {
	if len(path) == 0 {
		return nil, true
	}
	switch path[0] {
	case "crate":
		return slices.Clone(path[1:]), true
	case "self":
		return append(slices.Clone(module), path[1:]...), true
	case "super":
		cur := slices.Clone(module)
		i := 0
		for i < len(path) && path[i] == "super" {
			if len(cur) > 0 {
				cur = cur[:len(cur)-1]
			}
			i++
		}
		return append(cur, path[i:]...), true
	case "std", "core", "alloc":
		return nil, false
	}
	// 2018-style relative path: a sibling module of the current one, else from the root
	if rel := append(slices.Clone(module), path...); r.modules[joinModule(rel[:len(module)+1])] {
		return rel, true
	}
	return slices.Clone(path), true
}

// Type returns the user type registered under name.
func (r *Registry) Type(name string) *TypeDecl {
	return r.types[name]
}

// Types returns every registered type in registration-independent, sorted order.
func (r *Registry) Types() []*TypeDecl {
	out := make([]*TypeDecl, 0, len(r.typeKeys))
	for _, td := range r.typeKeys {
		out = append(out, td)
	}
	slices.SortFunc(out, func(a, b *TypeDecl) int {
		if c := compareStrings(joinModule(a.Module), joinModule(b.Module)); c != 0 {
			return c
		}
		return compareStrings(a.Name, b.Name)
	})
	return out
}

// TypeModule is the global type name → module path map used by layout.
func (r *Registry) TypeModule(name string) ([]string, bool) {
	td := r.types[name]
	if td == nil {
		return nil, false
	}
	return td.Module, true
}

// Implements reports `impl trait for name`.
func (r *Registry) Implements(name, trait string) bool {
	return slices.Contains(r.impls[name], trait)
}

// Signatures returns every function, method and trait stub in declaration order.
func (r *Registry) Signatures() []*Signature {
	return r.order
}

// TraitImpls returns the impl methods that implement trait stub method.
func (r *Registry) TraitImpls(trait, method string) []*Signature {
	return r.traitImp[MethodKey{trait, method}]
}

// Method returns the method registered directly on typ.
func (r *Registry) Method(typ, name string) *Signature {
	return r.methods[MethodKey{typ, name}]
}

// Const returns the declared label of a constant visible from module.
func (r *Registry) Const(module []string, name string) (*types.Label, bool) {
	if l, ok := r.consts[FuncKey{joinModule(module), name}]; ok {
		return l, true
	}
	if abs, ok := r.imports[joinModule(module)][name]; ok {
		l, ok := r.consts[FuncKey{joinModule(abs[:len(abs)-1]), abs[len(abs)-1]}]
		return l, ok
	}
	l, ok := r.consts[FuncKey{"", name}]
	return l, ok
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// DeclareModule makes a module path known before its declarations are
// registered, so relative `use` paths resolve regardless of file order.
func (r *Registry) DeclareModule(module []string) {
	for i := 0; i <= len(module); i++ {
		r.modules[joinModule(module[:i])] = true
	}
}

// HasModule reports whether path names a module of the program, either a
// file module or a directory holding one.
func (r *Registry) HasModule(path []string) bool {
	key := joinModule(path)
	if r.modules[key] {
		return true
	}
	for m := range r.modules {
		if strings.HasPrefix(m, key+"::") {
			return true
		}
	}
	return false
}

// SignatureOf returns the registered signature of a declaration or nil.
func (r *Registry) SignatureOf(fn *ast.FnDecl) *Signature {
	if r.byDecl == nil {
		r.byDecl = make(map[*ast.FnDecl]*Signature, len(r.order))
		for _, sig := range r.order {
			r.byDecl[sig.Decl] = sig
		}
	}
	return r.byDecl[fn]
}

// NewLocal builds a signature for a function nested in a block. Such
// functions are not visible through the registry.
func NewLocal(module []string, fn *ast.FnDecl) *Signature {
	return newSignature(module, fn)
}

func (r *Registry) record(sig *Signature) {
	r.order = append(r.order, sig)
	if r.byDecl != nil {
		r.byDecl[sig.Decl] = sig
	}
}

package registry

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/types"
)

// FuncKey identifies a free function: its module path joined with "::" and its name.
type FuncKey struct {
	Module string
	Name   string
}

// MethodKey identifies a method or trait stub by the owning type (or trait) name.
type MethodKey struct {
	Type   string
	Method string
}

// Param is one registered parameter. Mode starts at what the annotation
// implies and is raised by ownership inference.
type Param struct {
	Name     string
	Label    *types.Label
	Mode     types.Mode
	Explicit bool // `&T` / `&mut T` written in source
	Fixed    bool // form imposed by a std trait; never raised
	Mutated  bool // owned and mutated in the body: emitted `mut name`
	Decl     *ast.Param
}

// Signature is the registered form of a function, method or trait stub.
type Signature struct {
	Name       string
	Module     []string
	Owner      string // impl target or trait; "" for free functions
	Trait      string // implemented (or declaring) trait
	Params     []*Param
	Recv       types.Receiver // current form; RecvInfer until inference settles it
	Written    types.Receiver // receiver as written
	RecvMut    bool           // `mut self` or owned self mutated in the body
	Result     *types.Label
	Assoc      bool // associated function, no receiver
	HasDefault bool // trait stub with a default body
	Stub       bool // trait declaration entry
	Extern     bool
	Generics   []*ast.GenericParam
	Decl       *ast.FnDecl
}

// Key renders the registry key for messages: `math::add` or `Vec2::add`.
func (s *Signature) Key() string {
	if s.Owner != "" {
		return s.Owner + "::" + s.Name
	}
	if len(s.Module) == 0 {
		return s.Name
	}
	return strings.Join(s.Module, "::") + "::" + s.Name
}

// RecvMode is the ownership mode of the receiver; ok is false for associated functions.
func (s *Signature) RecvMode() (types.Mode, bool) {
	switch s.Recv {
	case types.RecvNone:
		return types.Owned, false
	case types.RecvInfer:
		return types.Borrowed, true
	}
	return s.Recv.Mode(), true
}

// ParamMode returns the mode of parameter i; out-of-range indices (variadic
// misuse) are treated as owned.
func (s *Signature) ParamMode(i int) types.Mode {
	if i < 0 || i >= len(s.Params) {
		return types.Owned
	}
	return s.Params[i].Mode
}

// Bounds returns the trait bounds of generic parameter name.
func (s *Signature) Bounds(name string) []string {
	var out []string
	for _, g := range s.Generics {
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
}

// SameForm reports whether two signatures would be emitted identically at a call site.
func (s *Signature) SameForm(o *Signature) bool {
	if s.Recv != o.Recv || len(s.Params) != len(o.Params) {
		return false
	}
	for i, p := range s.Params {
		if p.Mode != o.Params[i].Mode {
			return false
		}
	}
	return true
}

func joinModule(m []string) string {
	return strings.Join(m, "::")
}

func newSignature(module []string, fn *ast.FnDecl) *Signature {
	sig := &Signature{
		Name:     fn.Name,
		Module:   module,
		Owner:    fn.Owner,
		Trait:    fn.Trait,
		Recv:     fn.Recv,
		Written:  fn.Recv,
		RecvMut:  fn.RecvMut,
		Result:   fn.ResultLabel(),
		Assoc:    fn.Recv == types.RecvNone,
		Stub:     fn.InTrait,
		Extern:   fn.Extern,
		Generics: fn.Generics,
		Decl:     fn,
	}
	if fn.InTrait {
		sig.HasDefault = fn.Body != nil
	}
	for _, p := range fn.Params {
		param := &Param{Name: p.Name, Decl: p, Mode: types.Borrowed}
		if p.Type != nil {
			param.Label = p.Type.Label
		}
		switch {
		case param.Label.IsMutRef():
			param.Explicit, param.Mode = true, types.MutBorrowed
		case param.Label.IsRef():
			param.Explicit = true
		case fn.Extern:
			// no body to infer from
			param.Mode = types.Owned
		}
		if p.Mut {
			param.Mutated = true
		}
		sig.Params = append(sig.Params, param)
	}
	return sig
}

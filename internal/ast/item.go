package ast

import (
	"windjammer/internal/source"
	"windjammer/internal/types"
)

type Item interface {
	Node
	itemNode()
}

type GenericParam struct {
	Name   string
	Bounds []*Type
}

type Param struct {
	Name     string
	Type     *Type
	Mut      bool // `mut name: T` written explicitly
	Span     source.Span
	NameSpan source.Span
}

func (p *Param) Pos() source.Span { return p.Span }

// Explicit reports a parameter whose reference form was written by the user.
func (p *Param) Explicit() bool {
	return p.Type != nil && p.Type.Label.IsRef()
}

type FnDecl struct {
	Span       source.Span
	NameSpan   source.Span
	Pub        bool
	Name       string
	Generics   []*GenericParam
	Recv       types.Receiver // as written; RecvInfer for bare `self`
	RecvMut    bool           // `mut self`
	RecvSpan   source.Span
	Params     []*Param
	Result     *Type // nil: unit
	Body       *Block
	Decorators []*Decorator
	Async      bool
	Extern     bool
	Unsafe     bool

	// Owner is the impl target or trait name; Trait is set inside `impl Trait for X` and trait decls.
	Owner   string
	Trait   string
	InTrait bool
}

func (d *FnDecl) Pos() source.Span { return d.Span }
func (*FnDecl) itemNode()          {}

// IsMethod reports a function with a receiver.
func (d *FnDecl) IsMethod() bool { return d.Recv != types.RecvNone }

// ResultLabel returns the declared result or unit.
func (d *FnDecl) ResultLabel() *types.Label {
	if d.Result == nil {
		return types.Unit
	}
	return d.Result.Label
}

type FieldDecl struct {
	Name string
	Type *Type
	Pub  bool
	Span source.Span
}

type StructDecl struct {
	Span       source.Span
	Pub        bool
	Name       string
	Generics   []*GenericParam
	Fields     []*FieldDecl
	Tuple      bool
	Decorators []*Decorator
}

func (d *StructDecl) Pos() source.Span { return d.Span }
func (*StructDecl) itemNode()          {}

type VariantKind uint8

const (
	VariantUnit VariantKind = iota
	VariantTuple
	VariantStruct
)

type Variant struct {
	Name   string
	Kind   VariantKind
	Fields []*FieldDecl // tuple payloads are named "0", "1", ...
	Span   source.Span
}

type EnumDecl struct {
	Span       source.Span
	Pub        bool
	Name       string
	Generics   []*GenericParam
	Variants   []*Variant
	Decorators []*Decorator
}

func (d *EnumDecl) Pos() source.Span { return d.Span }
func (*EnumDecl) itemNode()          {}

type TraitDecl struct {
	Span        source.Span
	Pub         bool
	Name        string
	Generics    []*GenericParam
	Supertraits []*Type
	Assoc       []*AssocType
	Methods     []*FnDecl
	Decorators  []*Decorator
}

// AssocType is `type Output = T` in an impl, or `type Output` in a trait (Type nil).
type AssocType struct {
	Name string
	Type *Type
	Span source.Span
}

func (d *TraitDecl) Pos() source.Span { return d.Span }
func (*TraitDecl) itemNode()          {}

type ImplDecl struct {
	Span     source.Span
	Generics []*GenericParam
	Trait    *Type // nil for inherent impls
	Target   *Type
	Assoc    []*AssocType
	Methods  []*FnDecl
}

func (d *ImplDecl) Pos() source.Span { return d.Span }
func (*ImplDecl) itemNode()          {}

// TargetName is the last path segment of the impl target.
func (d *ImplDecl) TargetName() string {
	if d.Target == nil || d.Target.Label == nil {
		return ""
	}
	return d.Target.Label.StripRefs().Name
}

// TraitName is the implemented trait or "".
func (d *ImplDecl) TraitName() string {
	if d.Trait == nil || d.Trait.Label == nil {
		return ""
	}
	return d.Trait.Label.Name
}

// ModDecl is `mod name { ... }` or the external form `mod name;` (Items == nil, External).
type ModDecl struct {
	Span     source.Span
	Pub      bool
	Name     string
	Items    []Item
	External bool
}

func (d *ModDecl) Pos() source.Span { return d.Span }
func (*ModDecl) itemNode()          {}

type UseLeaf struct {
	Name  string
	Alias string
}

// UseDecl is `use a::b::c`, `use a::b::{c, d as e}` or `use a::b::*`.
type UseDecl struct {
	Span   source.Span
	Pub    bool
	Prefix []string
	Leaves []UseLeaf
	Glob   bool
}

func (d *UseDecl) Pos() source.Span { return d.Span }
func (*UseDecl) itemNode()          {}

type ConstDecl struct {
	Span   source.Span
	Pub    bool
	Static bool
	Mut    bool
	Name   string
	Type   *Type
	Value  Expr
}

func (d *ConstDecl) Pos() source.Span { return d.Span }
func (*ConstDecl) itemNode()          {}

// TypeAlias is `type Name = T`.
type TypeAlias struct {
	Span source.Span
	Pub  bool
	Name string
	Type *Type
}

func (d *TypeAlias) Pos() source.Span { return d.Span }
func (*TypeAlias) itemNode()          {}

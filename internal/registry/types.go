package registry

import (
	"windjammer/internal/ast"
	"windjammer/internal/types"
)

type TypeKind uint8

const (
	KindStruct TypeKind = iota
	KindEnum
	KindTrait
	KindAlias
)

func (k TypeKind) String() string {
	switch k {
	case KindStruct:
		return "struct"
	case KindEnum:
		return "enum"
	case KindTrait:
		return "trait"
	default:
		return "type alias"
	}
}

type Field struct {
	Name  string
	Label *types.Label
}

type VariantInfo struct {
	Name   string
	Kind   ast.VariantKind
	Fields []*Field
}

// TypeDecl is a registered user type.
type TypeDecl struct {
	Name     string
	Module   []string
	Kind     TypeKind
	Generics []string
	Fields   []*Field       // structs
	Variants []*VariantInfo // enums
	Alias    *types.Label   // type aliases

	// Derives is the explicit @derive list; Explicit records that one was written.
	Derives  []string
	Explicit bool
	Traits   []string // traits implemented through `impl Trait for T`
	Node     ast.Item
}

// Field returns the named struct field.
func (t *TypeDecl) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Variant returns the named enum variant.
func (t *TypeDecl) Variant(name string) *VariantInfo {
	for _, v := range t.Variants {
		if v.Name == name {
			return v
		}
	}
	return nil
}

// Derived reports an explicit derive of trait.
func (t *TypeDecl) Derived(trait string) bool {
	for _, d := range t.Derives {
		if d == trait {
			return true
		}
	}
	return false
}

// FieldLabels returns every field label, including enum payloads.
func (t *TypeDecl) FieldLabels() []*types.Label {
	var out []*types.Label
	for _, f := range t.Fields {
		out = append(out, f.Label)
	}
	for _, v := range t.Variants {
		for _, f := range v.Fields {
			out = append(out, f.Label)
		}
	}
	if t.Alias != nil {
		out = append(out, t.Alias)
	}
	return out
}

// GenericSubst maps the type's generic names to the args of an instance label.
func (t *TypeDecl) GenericSubst(inst *types.Label) map[string]*types.Label {
	if inst == nil || len(t.Generics) == 0 {
		return nil
	}
	m := make(map[string]*types.Label, len(t.Generics))
	for i, g := range t.Generics {
		if a := inst.Arg(i); a != nil {
			m[g] = a
		}
	}
	return m
}

func fieldsOf(decls []*ast.FieldDecl) []*Field {
	out := make([]*Field, 0, len(decls))
	for _, fd := range decls {
		f := &Field{Name: fd.Name}
		if fd.Type != nil {
			f.Label = fd.Type.Label
		}
		out = append(out, f)
	}
	return out
}

func genericNames(gs []*ast.GenericParam) []string {
	out := make([]string, len(gs))
	for i, g := range gs {
		out[i] = g.Name
	}
	return out
}

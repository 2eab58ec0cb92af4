package rustgen

import (
	"strings"

	"windjammer/internal/ast"
	"windjammer/internal/types"
)

// traitImports are std traits outside the prelude that user code names
// bare, as an impl target or a generic bound.
var traitImports = map[string]string{
	"Display":   "std::fmt::Display",
	"Debug":     "std::fmt::Debug",
	"Hash":      "std::hash::Hash",
	"Hasher":    "std::hash::Hasher",
	"FromStr":   "std::str::FromStr",
	"Add":       "std::ops::Add",
	"Sub":       "std::ops::Sub",
	"Mul":       "std::ops::Mul",
	"Div":       "std::ops::Div",
	"Rem":       "std::ops::Rem",
	"Neg":       "std::ops::Neg",
	"Not":       "std::ops::Not",
	"BitAnd":    "std::ops::BitAnd",
	"BitOr":     "std::ops::BitOr",
	"BitXor":    "std::ops::BitXor",
	"Shl":       "std::ops::Shl",
	"Shr":       "std::ops::Shr",
	"AddAssign": "std::ops::AddAssign",
	"SubAssign": "std::ops::SubAssign",
	"MulAssign": "std::ops::MulAssign",
	"DivAssign": "std::ops::DivAssign",
	"Index":     "std::ops::Index",
	"IndexMut":  "std::ops::IndexMut",
	"Deref":     "std::ops::Deref",
	"DerefMut":  "std::ops::DerefMut",
	"Write":     "std::io::Write",
	"Read":      "std::io::Read",
	"BufRead":   "std::io::BufRead",
}

// operatorTraits map to the method that carries `type Output`.
var operatorTraits = map[string]string{
	"Add": "add", "Sub": "sub", "Mul": "mul", "Div": "div", "Rem": "rem",
	"Neg": "neg", "Not": "not", "BitAnd": "bitand", "BitOr": "bitor",
	"BitXor": "bitxor", "Shl": "shl", "Shr": "shr",
}

// need records the std import of a bare type or trait name unless a user
// type shadows it.
func (e *Emitter) need(name string) {
	if e.reg.Type(name) != nil {
		return
	}
	if p, ok := types.StdImport[name]; ok {
		e.imports[p] = true
		return
	}
	if p, ok := traitImports[name]; ok {
		e.imports[p] = true
	}
}

// needPath records imports for a written path: `HashMap::new`, `fmt::Result`.
func (e *Emitter) needPath(segs []string) {
	if len(segs) == 0 {
		return
	}
	switch segs[0] {
	case "fmt":
		e.imports["std::fmt"] = true
	case "mem", "cmp", "io", "thread", "time", "env", "process", "ptr":
		if len(segs) > 1 && e.reg.Type(segs[0]) == nil && !e.reg.HasModule(segs[:1]) {
			e.imports["std::"+segs[0]] = true
		}
	default:
		e.need(segs[0])
	}
}

// typ renders a label and records every std type it mentions.
func (e *Emitter) typ(l *types.Label) string {
	l.Walk(func(x *types.Label) {
		switch x.Kind {
		case types.KNamed:
			if len(x.Path) == 0 {
				e.need(x.Name)
			} else {
				e.needPath(x.Path)
			}
		case types.KDyn, types.KImpl:
			if x.Elem != nil && x.Elem.Kind == types.KNamed && len(x.Elem.Path) == 0 {
				e.need(x.Elem.Name)
			}
		}
	})
	return l.String()
}

// generics renders `<T: A + B, U>`.
func (e *Emitter) generics(gs []*ast.GenericParam) string {
	if len(gs) == 0 {
		return ""
	}
	parts := make([]string, len(gs))
	for i, g := range gs {
		parts[i] = g.Name
		if len(g.Bounds) == 0 {
			continue
		}
		bounds := make([]string, len(g.Bounds))
		for j, b := range g.Bounds {
			bounds[j] = e.typ(b.Label)
		}
		parts[i] += ": " + strings.Join(bounds, " + ")
	}
	return "<" + strings.Join(parts, ", ") + ">"
}

func (e *Emitter) turbofish(ts []*ast.Type) string {
	if len(ts) == 0 {
		return ""
	}
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = e.typ(t.Label)
	}
	return "::<" + strings.Join(parts, ", ") + ">"
}

// isCopy asks the registry, which holds the copy oracle.
func (e *Emitter) isCopy(l *types.Label) bool {
	return e.reg.IsCopy(l)
}

// labels indexes a label list safely.
type labels []*types.Label

func (ls labels) at(i int) *types.Label {
	if i < 0 || i >= len(ls) {
		return nil
	}
	return ls[i]
}

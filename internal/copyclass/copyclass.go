// Package copyclass decides which user types are Copy and which traits a
// type without an explicit @derive gets.
package copyclass

import (
	"slices"

	"windjammer/internal/graph"
	"windjammer/internal/registry"
	"windjammer/internal/types"
)

// Result is read-only once Classify returns.
type Result struct {
	copy    map[string]bool
	derives map[string][]string
}

// IsCopy answers for user type names; known is false for anything else.
func (r *Result) IsCopy(name string) (copy, known bool) {
	c, ok := r.copy[name]
	return c, ok
}

// Derives returns the derive list to emit for a struct or enum.
func (r *Result) Derives(name string) []string {
	return r.derives[name]
}

// caps is what a type supports through derive.
type caps struct {
	copy    bool
	debug   bool
	clone   bool
	eq      bool // PartialEq
	eqHash  bool // Eq + Hash
	def     bool // Default
	opaque  bool // holds dyn or fn values
	generic bool
}

// Classify walks the user types in dependency order and installs the
// resulting Copy oracle on reg.
func Classify(reg *registry.Registry) *Result {
	decls := reg.Types()
	byName := make(map[string]*registry.TypeDecl, len(decls))
	var names []string
	for _, td := range decls {
		if td.Kind == registry.KindTrait {
			continue
		}
		if _, dup := byName[td.Name]; dup {
			continue
		}
		byName[td.Name] = td
		names = append(names, td.Name)
	}
	succ := func(name string) []string {
		var out []string
		for _, l := range byName[name].FieldLabels() {
			l.Walk(func(x *types.Label) {
				if x.Kind == types.KNamed && byName[x.Name] != nil && !slices.Contains(out, x.Name) {
					out = append(out, x.Name)
				}
			})
		}
		return out
	}

	res := &Result{copy: map[string]bool{}, derives: map[string][]string{}}
	capsOf := map[string]*caps{}

	for _, comp := range graph.SCC(names, succ) {
		cyclic := graph.Cyclic(comp, succ)
		// внутри цикла начинаем с оптимистичного допущения и сужаем до неподвижной точки
		for _, n := range comp {
			capsOf[n] = &caps{debug: true, clone: true, eq: true, eqHash: true, def: true}
		}
		for changed := true; changed; {
			changed = false
			for _, n := range comp {
				next := computeCaps(byName[n], capsOf, reg, cyclic)
				if *next != *capsOf[n] {
					capsOf[n] = next
					changed = true
				}
			}
		}
		for _, n := range comp {
			res.copy[n] = capsOf[n].copy
		}
	}
	for _, n := range names {
		res.derives[n] = deriveList(byName[n], capsOf[n], reg)
	}
	reg.SetCopyOracle(res.IsCopy)
	return res
}

func computeCaps(td *registry.TypeDecl, known map[string]*caps, reg *registry.Registry, cyclic bool) *caps {
	c := &caps{copy: !cyclic, debug: true, clone: true, eq: true, eqHash: true, def: td.Kind == registry.KindStruct, generic: len(td.Generics) > 0}
	generics := map[string]bool{}
	for _, g := range td.Generics {
		generics[g] = true
	}
	for _, l := range td.FieldLabels() {
		fieldCaps(l, known, generics, c)
	}
	if td.Kind == registry.KindAlias {
		c.def = false
	}

	if td.Explicit {
		c.copy = td.Derived("Copy")
		if c.copy {
			c.clone = true
		}
		c.debug = td.Derived("Debug")
		c.clone = c.clone && (td.Derived("Clone") || td.Derived("Copy") || reg.Implements(td.Name, "Clone"))
		c.eq = td.Derived("PartialEq") || reg.Implements(td.Name, "PartialEq")
		c.eqHash = td.Derived("Eq") && td.Derived("Hash")
		c.def = td.Derived("Default") || reg.Implements(td.Name, "Default")
	} else {
		c.clone = c.clone || reg.Implements(td.Name, "Clone")
		c.copy = c.copy && c.clone
		if reg.Implements(td.Name, "Debug") {
			c.debug = true
		}
		if reg.Implements(td.Name, "PartialEq") {
			c.eq = true
		}
		if reg.Implements(td.Name, "Default") {
			c.def = true
		}
	}
	if c.opaque {
		c.copy, c.clone, c.debug, c.eq, c.eqHash = false, false, false, false, false
	}
	return c
}

// fieldCaps narrows c by one field label.
func fieldCaps(l *types.Label, known map[string]*caps, generics map[string]bool, c *caps) {
	if l.IsUnknown() {
		c.copy, c.debug, c.clone, c.eq, c.eqHash, c.def = false, false, false, false, false, false
		return
	}
	if !isCopyLabel(l, known, generics) {
		c.copy = false
	}
	if !types.HasDefault(l, func(name string) bool { k := known[name]; return k != nil && k.def }) && l.Kind != types.KParam {
		c.def = false
	}
	l.Walk(func(x *types.Label) {
		switch x.Kind {
		case types.KDyn, types.KImpl, types.KFn:
			c.opaque = true
		case types.KPrim:
			if x.Name == "f32" || x.Name == "f64" {
				c.eqHash = false
			}
		case types.KFloatLit:
			c.eqHash = false
		case types.KRef:
			// references in fields need lifetimes; no derive change
		case types.KNamed:
			if types.IsFnTrait(x.Name) {
				c.opaque = true
				return
			}
			switch x.Name {
			case "HashMap", "HashSet":
				c.eqHash = false
			case "RefCell", "Cell", "Mutex", "RwLock":
				c.eq, c.eqHash = false, false
			}
			if k := known[x.Name]; k != nil {
				c.debug = c.debug && k.debug
				c.clone = c.clone && k.clone
				c.eq = c.eq && k.eq
				c.eqHash = c.eqHash && k.eqHash
				if k.opaque {
					c.opaque = true
				}
			}
		}
	})
}

func isCopyLabel(l *types.Label, known map[string]*caps, generics map[string]bool) bool {
	if l.Kind == types.KParam || l.Kind == types.KNamed && generics[l.Name] {
		return false
	}
	return types.IsCopy(l, func(name string) (bool, bool) {
		if k := known[name]; k != nil {
			return k.copy, true
		}
		return false, false
	})
}

// deriveList renders the derive attribute contents in Rust's customary order.
func deriveList(td *registry.TypeDecl, c *caps, reg *registry.Registry) []string {
	if td.Kind == registry.KindAlias {
		return nil
	}
	if td.Explicit {
		out := slices.Clone(td.Derives)
		if slices.Contains(out, "Copy") && !slices.Contains(out, "Clone") && !reg.Implements(td.Name, "Clone") {
			out = append(out, "Clone")
		}
		return out
	}
	if c.opaque {
		return nil
	}
	var out []string
	add := func(trait string, ok bool) {
		if ok && !reg.Implements(td.Name, trait) {
			out = append(out, trait)
		}
	}
	add("Debug", c.debug)
	add("Clone", c.clone)
	add("Copy", c.copy)
	add("PartialEq", c.eq)
	add("Eq", c.eq && c.eqHash)
	add("Hash", c.eq && c.eqHash)
	add("Default", c.def && td.Kind == registry.KindStruct && !c.generic)
	return out
}

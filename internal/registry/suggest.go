package registry

import (
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
)

// Miss describes a path that names a user type or module whose member does
// not exist.
type Miss struct {
	Name   string   // missing last segment
	Scopes []string // where it was looked up, rendered for notes
	Known  []string // names declared in those scopes
}

// associated functions a derive or a std trait may supply
var derivedAssoc = map[string]bool{
	"default": true, "clone": true, "from": true, "try_from": true,
	"into": true, "eq": true, "ne": true, "cmp": true, "partial_cmp": true,
	"hash": true, "fmt": true, "to_string": true, "to_owned": true,
}

// Unresolved explains a path call that failed to resolve. ok is false when
// the path may still name something defined in Rust: a foreign type, a std
// module, or a module that re-exports with a glob.
func (r *Registry) Unresolved(sc Scope, path []string) (Miss, bool) {
	if len(path) < 2 {
		return Miss{}, false
	}
	name := path[len(path)-1]
	owner := path[len(path)-2]
	if owner == "Self" {
		owner = sc.Owner
	}
	if local, ok := r.imports[joinModule(sc.Module)][owner]; ok && len(local) > 0 {
		owner = local[len(local)-1]
	}

	if td := r.types[owner]; td != nil {
		if td.Kind != KindStruct && td.Kind != KindEnum || derivedAssoc[name] {
			return Miss{}, false
		}
		scopes := []string{"impl " + owner}
		for _, trait := range r.impls[owner] {
			if t := r.types[trait]; t == nil || t.Kind != KindTrait {
				// a foreign trait may supply it
				return Miss{}, false
			}
			scopes = append(scopes, "impl "+trait+" for "+owner)
		}
		return Miss{Name: name, Scopes: scopes, Known: r.methodNames(owner)}, true
	}
	if startsUpper(owner) {
		return Miss{}, false
	}

	mod, ok := r.absolute(sc.Module, path[:len(path)-1])
	mk := joinModule(mod)
	if !ok || len(mod) == 0 || !r.modules[mk] || len(r.globs[mk]) > 0 || r.opaque[mk] {
		return Miss{}, false
	}
	if r.visible[mk][name] {
		return Miss{}, false
	}
	return Miss{Name: name, Scopes: []string{"crate::" + mk}, Known: r.funcNames(mod)}, true
}

// UnknownType reports a type name used where it must be declared in WJ
// sources, with the declared types as candidates. ok is false when name is
// declared, imported, or could come in through a glob import.
func (r *Registry) UnknownType(module []string, name string) (Miss, bool) {
	mk := joinModule(module)
	if r.types[name] != nil || name == "Self" || !startsUpper(name) {
		return Miss{}, false
	}
	if r.visible[mk][name] || len(r.globs[mk]) > 0 || r.opaque[mk] {
		return Miss{}, false
	}
	scope := "crate"
	if mk != "" {
		scope = "crate::" + mk
	}
	known := make([]string, 0, len(r.types))
	for n, td := range r.types {
		if td.Kind != KindTrait {
			known = append(known, n)
		}
	}
	slices.Sort(known)
	return Miss{Name: name, Scopes: []string{scope, "imports of " + scope}, Known: known}, true
}

func (r *Registry) methodNames(owner string) []string {
	var out []string
	for k := range r.methods {
		if k.Type == owner {
			out = append(out, k.Method)
		}
	}
	for _, trait := range r.impls[owner] {
		for k := range r.methods {
			if k.Type == trait && !slices.Contains(out, k.Method) {
				out = append(out, k.Method)
			}
		}
	}
	slices.Sort(out)
	return out
}

func (r *Registry) funcNames(mod []string) []string {
	mk := joinModule(mod)
	var out []string
	for k := range r.funcs {
		if k.Module == mk {
			out = append(out, k.Name)
		}
	}
	slices.Sort(out)
	return out
}

// Closest picks the candidate a typo of name most likely meant: at most
// three edits, and no more than 30% of the longer name.
func Closest(name string, candidates []string) (string, bool) {
	best, bestDist := "", -1
	for _, c := range candidates {
		if c == name {
			continue
		}
		limit := min(3, max(len(name), len(c))*3/10)
		d := levenshtein.ComputeDistance(strings.ToLower(name), strings.ToLower(c))
		if d > limit {
			continue
		}
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, bestDist >= 0
}

func startsUpper(s string) bool {
	for _, r := range s {
		return unicode.IsUpper(r)
	}
	return false
}

package layout

import (
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

// DefaultGates puts desktop-only modules behind the `desktop` feature.
var DefaultGates = map[string][]string{
	"desktop": {"desktop_*", "app_*", "!app_reactive"},
}

type gate struct {
	feature string
	include []glob.Glob
	exclude []glob.Glob
}

// Gates decides which modules are declared behind `#[cfg(feature = "…")]`.
// A pattern starting with `!` excludes the names it matches.
type Gates struct {
	gates []gate
}

// NewGates compiles the patterns of every feature. A nil map yields no gates.
func NewGates(features map[string][]string) (*Gates, error) {
	names := make([]string, 0, len(features))
	for name := range features {
		names = append(names, name)
	}
	slices.Sort(names)

	g := &Gates{}
	for _, name := range names {
		gt := gate{feature: name}
		for _, p := range features[name] {
			neg := strings.HasPrefix(p, "!")
			p = strings.TrimPrefix(p, "!")
			compiled, err := glob.Compile(p)
			if err != nil {
				return nil, &Error{Kind: ErrBadPattern, Detail: p, Err: err}
			}
			if neg {
				gt.exclude = append(gt.exclude, compiled)
			} else {
				gt.include = append(gt.include, compiled)
			}
		}
		g.gates = append(g.gates, gt)
	}
	return g, nil
}

// Feature returns the feature gating module name, if any. The first feature
// in name order wins.
func (g *Gates) Feature(name string) (string, bool) {
	if g == nil {
		return "", false
	}
	for _, gt := range g.gates {
		if matchAny(gt.exclude, name) {
			continue
		}
		if matchAny(gt.include, name) {
			return gt.feature, true
		}
	}
	return "", false
}

func matchAny(gs []glob.Glob, s string) bool {
	for _, g := range gs {
		if g.Match(s) {
			return true
		}
	}
	return false
}

// Package layout arranges generated Rust modules into a crate: file paths,
// `pub mod` declarations, re-exports and feature gates.
package layout

import (
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
)

// RootKind selects the file that declares the top-level modules.
type RootKind uint8

const (
	RootLib  RootKind = iota // lib.rs
	RootMain                 // main.rs
	RootMod                  // mod.rs, the output is a directory of an existing crate
)

func (k RootKind) File() string {
	switch k {
	case RootMain:
		return "main.rs"
	case RootMod:
		return "mod.rs"
	default:
		return "lib.rs"
	}
}

// Unit is the generated Rust for one source file.
type Unit struct {
	Module []string
	// Dir marks a unit that stands for its directory (mod.wj, or main.wj and
	// lib.wj at the root). Its text goes into the directory's module file.
	Dir    bool
	Source string
	// Exports are the public type names the unit defines.
	Exports []string
	// Reexports marks a unit with its own `pub use` lines; its directory
	// gets no glob re-exports.
	Reexports bool
	// HasMain marks a unit defining the program entry point.
	HasMain bool
	// Origin is the source file, for error messages.
	Origin string
}

// Options control the crate shape.
type Options struct {
	Root  RootKind
	Gates *Gates
}

// File is one file of the laid out crate.
type File struct {
	Path    string // slash-separated, relative to the output root
	Content string
}

// Layout is the result of Plan.
type Layout struct {
	Root  string
	Files []*File
	Tree  *Tree
}

// NewTreeOf builds the module tree of units without planning files; the
// emitter needs it to render `use` paths before any file exists.
func NewTreeOf(units []*Unit, mount []string, handWritten []string) (*Tree, error) {
	t := NewTree(mount)
	seen := make(map[string]string, len(units))
	for _, u := range units {
		key := strings.Join(u.Module, "::")
		if u.Dir {
			key += "/"
		}
		if prev, dup := seen[key]; dup {
			return nil, &Error{Kind: ErrDuplicateModule, Module: u.Module, Detail: prev + ", " + u.Origin}
		}
		seen[key] = u.Origin
		n := t.root
		for _, seg := range u.Module {
			n = n.child(seg)
		}
		if u.Dir {
			n.own = u
		} else {
			n.unit = u
		}
	}
	for _, name := range handWritten {
		if t.Has([]string{name}) {
			return nil, &Error{Kind: ErrHandWrittenClash, Module: []string{name}}
		}
		t.root.child(name).hand = true
	}
	return t, nil
}

// Plan lays units out as files of a crate.
func Plan(t *Tree, opts Options) *Layout {
	l := &Layout{Root: opts.Root.File(), Tree: t}
	p := planner{opts: opts, out: l}
	p.dir(t.root, nil, true)
	slices.SortFunc(l.Files, func(a, b *File) int { return strings.Compare(a.Path, b.Path) })
	return l
}

type planner struct {
	opts Options
	out  *Layout
}

// dir writes the module file of directory n and everything below it.
func (p *planner) dir(n *node, at []string, root bool) {
	var b strings.Builder
	children := n.sortedChildren()

	var hand []*node
	for _, c := range children {
		if c.hand {
			hand = append(hand, c)
			continue
		}
		p.gate(&b, c.name)
		b.WriteString("pub mod " + c.name + ";\n")
	}
	if len(hand) > 0 {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		for _, c := range hand {
			b.WriteString("pub mod " + c.name + ";\n")
		}
	}
	if len(children) > len(hand) && p.globs(n, children) {
		b.WriteByte('\n')
		for _, c := range children {
			if c.hand {
				continue
			}
			p.gate(&b, c.name)
			b.WriteString("pub use " + c.name + "::*;\n")
		}
	}
	if n.own != nil && n.own.Source != "" {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n.own.Source)
	}
	if !root && n.unit != nil {
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(n.unit.Source)
	}

	name := "mod.rs"
	if root {
		name = p.out.Root
	}
	p.out.Files = append(p.out.Files, &File{Path: path.Join(append(slices.Clone(at), name)...), Content: b.String()})

	for _, c := range children {
		sub := append(slices.Clone(at), c.name)
		if len(c.children) > 0 || c.own != nil {
			p.dir(c, sub, false)
			continue
		}
		if c.unit == nil {
			continue
		}
		p.out.Files = append(p.out.Files, &File{Path: path.Join(sub...) + ".rs", Content: c.unit.Source})
	}
}

func (p *planner) gate(b *strings.Builder, name string) {
	if feature, ok := p.opts.Gates.Feature(name); ok {
		b.WriteString("#[cfg(feature = \"" + feature + "\")]\n")
	}
}

// globs decides whether a directory re-exports its children with `*`. An
// explicit `pub use` in the directory's own source, or a type name defined
// by two children, turns them off.
func (p *planner) globs(n *node, children []*node) bool {
	if n.own != nil && n.own.Reexports {
		return false
	}
	owner := make(map[string]string)
	for _, c := range children {
		if c.unit == nil {
			continue
		}
		for _, name := range c.unit.Exports {
			if prev, ok := owner[name]; ok && prev != c.name {
				return false
			}
			owner[name] = c.name
		}
	}
	return true
}

// DecideRoot picks the root module file for outDir. An output directory
// under the `src` directory of a Cargo project becomes a module of that
// crate; its mount path is returned.
func DecideRoot(outDir string, library, hasMain bool) (RootKind, []string) {
	if mount, ok := insideCargoSrc(outDir); ok {
		return RootMod, mount
	}
	if hasMain && !library {
		return RootMain, nil
	}
	return RootLib, nil
}

func insideCargoSrc(outDir string) ([]string, bool) {
	abs, err := filepath.Abs(outDir)
	if err != nil {
		return nil, false
	}
	var rest []string
	dir := abs
	for {
		base := filepath.Base(dir)
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, false
		}
		if base == "src" && fileExists(filepath.Join(parent, "Cargo.toml")) {
			if len(rest) == 0 {
				// the crate's own src directory
				return nil, false
			}
			slices.Reverse(rest)
			mount := make([]string, len(rest))
			for i, r := range rest {
				mount[i] = ModuleName(r)
			}
			return mount, true
		}
		rest = append(rest, base)
		dir = parent
	}
}

func fileExists(p string) bool {
	st, err := os.Stat(p)
	return err == nil && !st.IsDir()
}

package layout

import (
	"slices"
	"strings"
)

type node struct {
	name     string
	children map[string]*node
	unit     *Unit // nil for a directory without its own source
	own      *Unit // the directory's mod.wj, if any
	hand     bool  // hand-written Rust, never generated
}

func newNode(name string) *node {
	return &node{name: name, children: make(map[string]*node)}
}

func (n *node) child(name string) *node {
	c := n.children[name]
	if c == nil {
		c = newNode(name)
		n.children[name] = c
	}
	return c
}

func (n *node) sortedChildren() []*node {
	out := make([]*node, 0, len(n.children))
	for _, c := range n.children {
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b *node) int { return strings.Compare(a.name, b.name) })
	return out
}

// Tree is the module tree of the generated crate. Mount is the crate path
// of the output root: empty when the output is a crate of its own.
type Tree struct {
	Mount []string
	root  *node
}

func NewTree(mount []string) *Tree {
	return &Tree{Mount: slices.Clone(mount), root: newNode("")}
}

func (t *Tree) lookup(path []string) *node {
	n := t.root
	for _, seg := range path {
		n = n.children[seg]
		if n == nil {
			return nil
		}
	}
	return n
}

// Has reports whether path names a module of the tree.
func (t *Tree) Has(path []string) bool {
	return t.lookup(path) != nil
}

// UsePath renders the Rust path of module target as seen from module from.
// Targets inside the directory of from are written relative to it; anything
// else goes through the crate root.
func (t *Tree) UsePath(from, target []string) string {
	if len(from) > 1 {
		dir := from[:len(from)-1]
		if len(target) > len(dir) && slices.Equal(target[:len(dir)], dir) {
			return strings.Join(append([]string{"super"}, target[len(dir):]...), "::")
		}
	}
	segs := append([]string{"crate"}, t.Mount...)
	return strings.Join(append(segs, target...), "::")
}

// Package graph holds the strongly connected component search shared by the
// copy classifier (type dependencies) and ownership inference (call graph).
package graph

// SCC returns the strongly connected components of the graph in reverse
// topological order: every component comes after all components it reaches,
// so callees precede callers and field types precede their owners.
// Nodes are visited in the given order, which makes the result deterministic.
func SCC[K comparable](nodes []K, succ func(K) []K) [][]K {
	t := &tarjan[K]{
		index: make(map[K]int, len(nodes)),
		low:   make(map[K]int, len(nodes)),
		on:    make(map[K]bool, len(nodes)),
		succ:  succ,
	}
	for _, n := range nodes {
		if _, seen := t.index[n]; !seen {
			t.visit(n)
		}
	}
	return t.out
}

// Cyclic reports whether a component is a real cycle: more than one node, or
// a single node with a self edge.
func Cyclic[K comparable](comp []K, succ func(K) []K) bool {
	if len(comp) > 1 {
		return true
	}
	for _, s := range succ(comp[0]) {
		if s == comp[0] {
			return true
		}
	}
	return false
}

type tarjan[K comparable] struct {
	next  int
	index map[K]int
	low   map[K]int
	on    map[K]bool
	stack []K
	succ  func(K) []K
	out   [][]K
}

func (t *tarjan[K]) visit(v K) {
	t.index[v] = t.next
	t.low[v] = t.next
	t.next++
	t.stack = append(t.stack, v)
	t.on[v] = true

	for _, w := range t.succ(v) {
		if _, seen := t.index[w]; !seen {
			t.visit(w)
			t.low[v] = min(t.low[v], t.low[w])
		} else if t.on[w] {
			t.low[v] = min(t.low[v], t.index[w])
		}
	}

	if t.low[v] != t.index[v] {
		return
	}
	var comp []K
	for {
		w := t.stack[len(t.stack)-1]
		t.stack = t.stack[:len(t.stack)-1]
		t.on[w] = false
		comp = append(comp, w)
		if w == v {
			break
		}
	}
	t.out = append(t.out, comp)
}

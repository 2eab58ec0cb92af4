package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSCCOrdersCalleesFirst(t *testing.T) {
	edges := map[string][]string{
		"main":  {"a"},
		"a":     {"b"},
		"b":     {"a", "leaf"},
		"leaf":  nil,
		"alone": {"alone"},
	}
	succ := func(n string) []string { return edges[n] }
	comps := SCC([]string{"main", "a", "b", "leaf", "alone"}, succ)
	require.Len(t, comps, 4)

	pos := map[string]int{}
	for i, c := range comps {
		for _, n := range c {
			pos[n] = i
		}
	}
	assert.Less(t, pos["leaf"], pos["a"])
	assert.Equal(t, pos["a"], pos["b"])
	assert.Less(t, pos["a"], pos["main"])

	assert.True(t, Cyclic(comps[pos["a"]], succ))
	assert.True(t, Cyclic(comps[pos["alone"]], succ))
	assert.False(t, Cyclic(comps[pos["leaf"]], succ))
	assert.False(t, Cyclic(comps[pos["main"]], succ))
}

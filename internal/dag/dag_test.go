package dag

import (
	"errors"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// build adds nodes in the given order and one edge per pair, dependency
// first.
func build(t *testing.T, ids []string, edges [][2]string) *Graph {
	t.Helper()
	g := NewGraph()
	for _, id := range ids {
		g.AddNode(id, nil)
	}
	for _, e := range edges {
		require.NoError(t, g.AddEdge(e[0], e[1]))
	}
	return g
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestGraph_AddNodeAndEdge(t *testing.T) {
	g := build(t, []string{"m", "a", "F"}, [][2]string{{"m", "F"}, {"a", "F"}, {"a", "F"}})

	assert.Equal(t, 3, g.NodeCount())
	assert.Equal(t, 2, g.EdgeCount())
	assert.Equal(t, []string{"F"}, g.GetChildren("m"))
	assert.Empty(t, g.GetChildren("F"))

	g.AddNode("m", "updated")
	assert.Equal(t, 3, g.NodeCount())
	nodes, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, "updated", nodes[0].Data)
}

func TestGraph_AddEdge_InvalidNodes(t *testing.T) {
	g := NewGraph()
	g.AddNode("a", nil)

	assert.Error(t, g.AddEdge("a", "missing"))
	assert.Error(t, g.AddEdge("missing", "a"))
}

func TestGraph_HasCycle(t *testing.T) {
	t.Run("acyclic", func(t *testing.T) {
		g := build(t, []string{"a", "b", "c"}, [][2]string{{"a", "b"}, {"b", "c"}})
		hasCycle, path := g.HasCycle()
		assert.False(t, hasCycle)
		assert.Nil(t, path)
	})

	t.Run("three parameters", func(t *testing.T) {
		// a = b + 1, b = c + 1, c = a + 1
		g := build(t, []string{"a", "b", "c"}, [][2]string{{"b", "a"}, {"c", "b"}, {"a", "c"}})
		hasCycle, path := g.HasCycle()
		require.True(t, hasCycle)
		assert.Equal(t, []string{"a", "c", "b", "a"}, path)
	})

	t.Run("self reference", func(t *testing.T) {
		g := build(t, []string{"x"}, [][2]string{{"x", "x"}})
		hasCycle, path := g.HasCycle()
		require.True(t, hasCycle)
		assert.Equal(t, []string{"x", "x"}, path)
	})
}

func TestGraph_TopologicalSort(t *testing.T) {
	t.Run("chain", func(t *testing.T) {
		g := build(t, []string{"F", "a", "m"}, [][2]string{{"m", "F"}, {"a", "F"}})
		nodes, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"m", "a", "F"}, ids(nodes))
	})

	t.Run("diamond", func(t *testing.T) {
		g := build(t, []string{"d", "b", "c", "a"}, [][2]string{
			{"a", "b"}, {"a", "c"}, {"b", "d"}, {"c", "d"},
		})
		nodes, err := g.TopologicalSort()
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b", "c", "d"}, ids(nodes))
	})

	t.Run("cycle", func(t *testing.T) {
		g := build(t, []string{"a", "b"}, [][2]string{{"a", "b"}, {"b", "a"}})
		_, err := g.TopologicalSort()
		var cycle *CycleError
		require.True(t, errors.As(err, &cycle))
		assert.Equal(t, []string{"a", "b", "a"}, cycle.Path)
		assert.Equal(t, "cycle detected: a -> b -> a", err.Error())
	})
}

func TestGraph_GetDownstreamNodes(t *testing.T) {
	g := build(t, []string{"a", "b", "c", "d", "e"}, [][2]string{
		{"a", "b"}, {"b", "c"}, {"a", "d"},
	})

	assert.Equal(t, []string{"b", "c", "d"}, g.GetDownstreamNodes("a"))
	assert.Equal(t, []string{"c"}, g.GetDownstreamNodes("b"))
	assert.Empty(t, g.GetDownstreamNodes("e"))
}

func TestGraph_DeepChain(t *testing.T) {
	const n = 200000
	chain := make([]string, n)
	for i := range chain {
		chain[i] = "p" + strconv.Itoa(i)
	}
	// Insert the last parameter first so the sort walks the whole chain from
	// one root.
	g := NewGraph()
	for i := n - 1; i >= 0; i-- {
		g.AddNode(chain[i], nil)
	}
	for i := 1; i < n; i++ {
		require.NoError(t, g.AddEdge(chain[i-1], chain[i]))
	}

	hasCycle, _ := g.HasCycle()
	assert.False(t, hasCycle)

	nodes, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, chain, ids(nodes))
	assert.Len(t, g.GetDownstreamNodes(chain[0]), n-1)

	require.NoError(t, g.AddEdge(chain[n-1], chain[0]))
	hasCycle, path := g.HasCycle()
	require.True(t, hasCycle)
	assert.Len(t, path, n+1)
	assert.Equal(t, path[0], path[n])
}

// Package dag provides the dependency graph between parameters.
// Edges run from a dependency to the parameter that references it. It
// supports cycle detection with the offending path, deterministic
// topological ordering and dependent queries.
package dag

import (
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Node represents a node in the graph.
type Node struct {
	// ID is the qualified parameter id
	ID string
	// Data holds arbitrary node data
	Data any
}

// Graph is a directed graph of parameter dependencies.
type Graph struct {
	nodes   map[string]*Node
	order   []string            // insertion order
	edges   map[string][]string // dependency -> dependents
	parents map[string][]string // dependent -> dependencies
}

// CycleError reports a dependency cycle. Path runs along the edges and
// starts and ends with the same id.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}

// NewGraph creates a new empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:   make(map[string]*Node),
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a node to the graph, or updates its data.
func (g *Graph) AddNode(id string, data any) {
	if n, exists := g.nodes[id]; exists {
		n.Data = data
		return
	}
	g.nodes[id] = &Node{ID: id, Data: data}
	g.order = append(g.order, id)
}

// AddEdge records that child depends on parent. A parameter that refers to
// itself is a self-loop and shows up as a cycle.
func (g *Graph) AddEdge(parentID, childID string) error {
	if _, exists := g.nodes[parentID]; !exists {
		return fmt.Errorf("parent node %q does not exist", parentID)
	}
	if _, exists := g.nodes[childID]; !exists {
		return fmt.Errorf("child node %q does not exist", childID)
	}

	if !slices.Contains(g.edges[parentID], childID) {
		g.edges[parentID] = append(g.edges[parentID], childID)
	}
	if !slices.Contains(g.parents[childID], parentID) {
		g.parents[childID] = append(g.parents[childID], parentID)
	}
	return nil
}

// GetChildren returns the direct dependents of a node.
func (g *Graph) GetChildren(id string) []string {
	return g.edges[id]
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges in the graph.
func (g *Graph) EdgeCount() int {
	count := 0
	for _, children := range g.edges {
		count += len(children)
	}
	return count
}

// frame is one node on an explicit DFS stack. next indexes the neighbor to
// visit when the frame is resumed.
type frame struct {
	id   string
	next int
}

// HasCycle returns true if the graph contains a cycle, along with the cycle
// path. Nodes are visited in insertion order so the reported path is stable.
func (g *Graph) HasCycle() (bool, []string) {
	visited := make(map[string]bool)
	onStack := make(map[string]bool)

	for _, root := range g.order {
		if visited[root] {
			continue
		}
		visited[root] = true
		onStack[root] = true
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			children := g.edges[top.id]
			if top.next == len(children) {
				onStack[top.id] = false
				stack = stack[:len(stack)-1]
				continue
			}
			childID := children[top.next]
			top.next++

			switch {
			case !visited[childID]:
				visited[childID] = true
				onStack[childID] = true
				stack = append(stack, frame{id: childID})
			case onStack[childID]:
				return true, cycleFrom(stack, childID)
			}
		}
	}
	return false, nil
}

// cycleFrom reads the cycle closed by an edge from the top of stack back to
// id, which is further down the stack.
func cycleFrom(stack []frame, id string) []string {
	i := len(stack) - 1
	for stack[i].id != id {
		i--
	}
	path := make([]string, 0, len(stack)-i+1)
	for _, f := range stack[i:] {
		path = append(path, f.id)
	}
	return append(path, id)
}

// TopologicalSort returns nodes with dependencies before dependents. Ties
// keep insertion order. A cycle is returned as *CycleError.
func (g *Graph) TopologicalSort() ([]*Node, error) {
	if hasCycle, cyclePath := g.HasCycle(); hasCycle {
		return nil, &CycleError{Path: cyclePath}
	}

	visited := make(map[string]bool)
	result := make([]*Node, 0, len(g.nodes))

	for _, root := range g.order {
		if visited[root] {
			continue
		}
		visited[root] = true
		stack := []frame{{id: root}}

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			parents := g.parents[top.id]
			if top.next == len(parents) {
				result = append(result, g.nodes[top.id])
				stack = stack[:len(stack)-1]
				continue
			}
			parentID := parents[top.next]
			top.next++
			if !visited[parentID] {
				visited[parentID] = true
				stack = append(stack, frame{id: parentID})
			}
		}
	}
	return result, nil
}

// GetDownstreamNodes returns every node that depends on id, directly or
// through other nodes, sorted.
func (g *Graph) GetDownstreamNodes(id string) []string {
	return g.reach(id, g.edges)
}

func (g *Graph) reach(id string, next map[string][]string) []string {
	seen := make(map[string]bool)
	pending := slices.Clone(next[id])
	for len(pending) > 0 {
		n := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if seen[n] {
			continue
		}
		seen[n] = true
		pending = append(pending, next[n]...)
	}
	delete(seen, id)

	result := make([]string, 0, len(seen))
	for n := range seen {
		result = append(result, n)
	}
	sort.Strings(result)
	return result
}

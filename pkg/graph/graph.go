package graph

import (
	"slices"

	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/props"
)

// Graph is one decoded snapshot: an id-keyed set of nodes, an ordered list
// of edges, and the snapshot's own properties.
//
// The zero value is not usable; call [New]. Graph is not safe for
// concurrent use.
type Graph struct {
	Props *props.Map

	byID  map[int]*Node
	order []*Node
	edges []*Edge
}

// New creates an empty graph. A nil p is replaced by an empty map.
func New(p *props.Map) *Graph {
	if p == nil {
		p = props.NewMap()
	}
	return &Graph{
		Props: p,
		byID:  make(map[int]*Node),
	}
}

// AddNode adds a node with the given id. It fails with DUPLICATE_NODE when
// the id is already present. A nil p is replaced by an empty map.
func (g *Graph) AddNode(id int, p *props.Map) (*Node, error) {
	if _, exists := g.byID[id]; exists {
		return nil, errors.New(errors.ErrCodeDuplicateNode, "node %d already exists", id).WithNode(id)
	}
	if p == nil {
		p = props.NewMap()
	}
	n := &Node{ID: id, Props: p}
	g.byID[id] = n
	g.order = append(g.order, n)
	return n, nil
}

// AddEdge appends an edge from→to and registers it with both endpoints. It
// fails with UNKNOWN_NODE when either endpoint is absent. Parallel edges
// and self loops are allowed.
func (g *Graph) AddEdge(from, to int, p *props.Map) (*Edge, error) {
	src, ok := g.byID[from]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "edge %d->%d: unknown source node %d", from, to, from).WithNode(from)
	}
	dst, ok := g.byID[to]
	if !ok {
		return nil, errors.New(errors.ErrCodeUnknownNode, "edge %d->%d: unknown target node %d", from, to, to).WithNode(to)
	}
	if p == nil {
		p = props.NewMap()
	}
	e := &Edge{Index: len(g.edges), From: from, To: to, Props: p}
	g.edges = append(g.edges, e)
	src.outputs = append(src.outputs, e.Index)
	dst.inputs = append(dst.inputs, e.Index)
	return e, nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id int) (*Node, bool) {
	n, ok := g.byID[id]
	return n, ok
}

// Edge returns the edge at position i of the edge list.
func (g *Graph) Edge(i int) *Edge {
	return g.edges[i]
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	return slices.Clone(g.order)
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	return slices.Clone(g.edges)
}

// NodeCount returns the number of nodes.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Inputs returns the edges ending at id, in insertion order.
func (g *Graph) Inputs(id int) []*Edge {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	return g.resolve(n.inputs)
}

// Outputs returns the edges starting at id, in insertion order.
func (g *Graph) Outputs(id int) []*Edge {
	n, ok := g.byID[id]
	if !ok {
		return nil
	}
	return g.resolve(n.outputs)
}

// Incident returns the inputs of id followed by its outputs. A self loop
// appears twice.
func (g *Graph) Incident(id int) []*Edge {
	return append(g.Inputs(id), g.Outputs(id)...)
}

// Neighbors returns the distinct ids adjacent to id through any edge, in
// order of first appearance among [Graph.Incident].
func (g *Graph) Neighbors(id int) []int {
	var out []int
	seen := make(map[int]bool)
	for _, e := range g.Incident(id) {
		other := e.Other(id)
		if other == id || seen[other] {
			continue
		}
		seen[other] = true
		out = append(out, other)
	}
	return out
}

func (g *Graph) resolve(idx []int) []*Edge {
	out := make([]*Edge, len(idx))
	for i, ei := range idx {
		out[i] = g.edges[ei]
	}
	return out
}

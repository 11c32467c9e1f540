// Package spotlight isolates the neighbourhood of chosen nodes in a graph.
//
// Lighting a node marks it lit and marks every node one edge away, in
// either direction, shaded. Shading then hides every node that was neither
// lit nor shaded:
//
//	s := spotlight.New(g)
//	if err := s.LightID(13); err != nil {
//	    return err
//	}
//	s.Shade()
//
// Marking never reaches further than one hop, however many nodes are lit.
package spotlight

import (
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
)

// Spotlight marks the nodes of one graph.
type Spotlight struct {
	g *graph.Graph
}

// New returns a spotlight over g. Existing marks on g are kept.
func New(g *graph.Graph) *Spotlight {
	return &Spotlight{g: g}
}

// Light marks n lit and each of its direct neighbours shaded. A lit node
// is never downgraded to shaded.
func (s *Spotlight) Light(n *graph.Node) {
	n.Attrs.Spotlight = graph.SpotlightLit
	for _, e := range s.g.Incident(n.ID) {
		other, ok := s.g.Node(e.Other(n.ID))
		if !ok || other.Attrs.Spotlight == graph.SpotlightLit {
			continue
		}
		other.Attrs.Spotlight = graph.SpotlightShaded
	}
}

// LightID lights the node with the given id. It fails with UNKNOWN_NODE
// when there is no such node.
func (s *Spotlight) LightID(id int) error {
	n, ok := s.g.Node(id)
	if !ok {
		return errors.New(errors.ErrCodeUnknownNode, "node %d not found", id).WithNode(id)
	}
	s.Light(n)
	return nil
}

// Shade hides every node that is neither lit nor shaded, together with its
// edges. Nodes that stay visible keep any hidden flag set earlier by an
// annotator.
func (s *Spotlight) Shade() {
	for _, n := range s.g.Nodes() {
		if n.Attrs.Spotlight != graph.SpotlightUnset {
			continue
		}
		n.Attrs.Hidden = true
		for _, e := range s.g.Incident(n.ID) {
			e.Attrs.Hidden = true
		}
	}
}

// Lit returns the ids of lit nodes in insertion order.
func (s *Spotlight) Lit() []int { return s.with(graph.SpotlightLit) }

// Shaded returns the ids of shaded nodes in insertion order.
func (s *Spotlight) Shaded() []int { return s.with(graph.SpotlightShaded) }

func (s *Spotlight) with(state graph.SpotlightState) []int {
	var ids []int
	for _, n := range s.g.Nodes() {
		if n.Attrs.Spotlight == state {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

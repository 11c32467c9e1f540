package graph

import "github.com/matzehuels/seafoam/pkg/props"

// SpotlightState is the focus marking of a node.
type SpotlightState uint8

const (
	// SpotlightUnset means the node was never reached by a lit node.
	SpotlightUnset SpotlightState = iota
	// SpotlightShaded marks a direct neighbour of a lit node.
	SpotlightShaded
	// SpotlightLit marks a seed node.
	SpotlightLit
)

func (s SpotlightState) String() string {
	switch s {
	case SpotlightShaded:
		return "shaded"
	case SpotlightLit:
		return "lit"
	default:
		return ""
	}
}

// Node categories assigned by annotators.
const (
	KindControl = "control"
	KindEffect  = "effect"
	KindInput   = "input"
	KindInfo    = "info"
	KindGuard   = "guard"
	KindCalc    = "calc"
	KindVirtual = "virtual"
	KindOther   = "other"
)

// Edge categories assigned by annotators.
const (
	EdgeControl = "control"
	EdgeData    = "data"
	EdgeInfo    = "info"
	EdgeLoop    = "loop"
)

// NodeAttrs are the display attributes computed for a node.
type NodeAttrs struct {
	Label     string
	Kind      string
	Hidden    bool
	Spotlight SpotlightState
}

// EdgeAttrs are the display attributes computed for an edge. Reverse asks
// the renderer to draw the edge against its data direction.
type EdgeAttrs struct {
	Label   string
	Kind    string
	Hidden  bool
	Reverse bool
}

// Node is one IR node of a snapshot.
type Node struct {
	ID    int
	Props *props.Map
	Attrs NodeAttrs

	inputs  []int // edge indices, in insertion order
	outputs []int
}

// Visible reports whether the node is not hidden.
func (n *Node) Visible() bool { return !n.Attrs.Hidden }

// NodeClass returns the fully-qualified node class name, or "".
func (n *Node) NodeClass() string {
	v, ok := n.Props.Dig("node_class", "node_class")
	if !ok {
		return ""
	}
	s, _ := v.AsString()
	return s
}

// Edge is a directed connection between two nodes of the same graph.
type Edge struct {
	Index int // position in the graph's edge list
	From  int
	To    int
	Props *props.Map
	Attrs EdgeAttrs
}

// Name returns the decoded edge name, or "".
func (e *Edge) Name() string {
	return e.Props.StringOr("name", "")
}

// Other returns the endpoint of e that is not id.
func (e *Edge) Other(id int) int {
	if e.From == id {
		return e.To
	}
	return e.From
}

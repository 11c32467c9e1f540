package annotate

import (
	"strings"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// HideFrameState hides deoptimization metadata: info nodes whose class is a
// state (FrameState, VirtualObjectState), along with their edges.
func HideFrameState(g *graph.Graph) {
	for _, n := range g.Nodes() {
		if n.Attrs.Kind != graph.KindInfo {
			continue
		}
		if !strings.HasSuffix(props.SimpleName(n.NodeClass()), "State") {
			continue
		}
		n.Attrs.Hidden = true
		hideEdgesOf(g, n)
	}
}

// HideFloating hides every node that is not fixed in the control flow,
// along with its edges. A node is fixed when it is a control node, has a
// predecessor, or touches a control edge.
func HideFloating(g *graph.Graph) {
	for _, n := range g.Nodes() {
		if isFixed(g, n) {
			continue
		}
		n.Attrs.Hidden = true
		hideEdgesOf(g, n)
	}
}

func isFixed(g *graph.Graph, n *graph.Node) bool {
	if n.Attrs.Kind == graph.KindControl {
		return true
	}
	if pred, ok := n.Props.Lookup("has_predecessor").AsBool(); ok && pred {
		return true
	}
	for _, e := range g.Incident(n.ID) {
		if e.Attrs.Kind == graph.EdgeControl {
			return true
		}
	}
	return false
}

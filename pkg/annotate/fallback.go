package annotate

import (
	"strconv"
	"strings"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// Fallback labels whatever earlier annotators left unclassified, using
// generic property conventions. It applies to every graph.
type Fallback struct{}

func (Fallback) Name() string { return "fallback" }

func (Fallback) Applies(*graph.Graph) bool { return true }

func (Fallback) Annotate(g *graph.Graph, _ Options) {
	for _, n := range g.Nodes() {
		if n.Attrs.Kind != "" {
			continue
		}
		n.Attrs.Kind = graph.KindOther
		n.Attrs.Label = fallbackLabel(g, n)
	}
	for _, e := range g.Edges() {
		if e.Attrs.Kind != "" {
			continue
		}
		e.Attrs.Kind = graph.EdgeData
		e.Attrs.Label = e.Name()
	}
}

func fallbackLabel(g *graph.Graph, n *graph.Node) string {
	for _, key := range []string{"label", "name"} {
		if s := n.Props.StringOr(key, ""); s != "" {
			return s
		}
	}
	if v, ok := n.Props.Dig("node_class", "name_template"); ok {
		if tmpl, _ := v.AsString(); tmpl != "" {
			if label := renderTemplate(tmpl, g, n); label != "" {
				return label
			}
		}
	}
	if class := n.NodeClass(); class != "" {
		return strings.TrimSuffix(props.SimpleName(class), "Node")
	}
	return strconv.Itoa(n.ID)
}

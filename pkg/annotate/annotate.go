package annotate

import (
	"unicode/utf8"

	"github.com/matzehuels/seafoam/pkg/graph"
)

// Annotator derives labels and categories for the nodes and edges of a
// graph. Annotators only fill attributes that are still blank, so a more
// specific annotator earlier in the pipeline wins.
type Annotator interface {
	// Name identifies the annotator in logs.
	Name() string
	// Applies reports whether the annotator understands g.
	Applies(g *graph.Graph) bool
	// Annotate labels and classifies the nodes and edges of g.
	Annotate(g *graph.Graph, opts Options)
}

// Annotators is the ordered list of labelling passes run by [Apply] before
// the hiding passes.
var Annotators = []Annotator{
	Graal{},
	Fallback{},
}

// Apply runs the full pipeline over g: it resets every display attribute,
// runs each applicable annotator, then reduces parallel edges and applies
// the hiding options. Running Apply twice with the same options yields the
// same attributes.
func Apply(g *graph.Graph, opts Options) []string {
	reset(g)
	var applied []string
	for _, a := range Annotators {
		if !a.Applies(g) {
			continue
		}
		a.Annotate(g, opts)
		applied = append(applied, a.Name())
	}
	if opts.MaxLabelLength > 0 {
		truncateLabels(g, opts.MaxLabelLength)
	}
	if opts.ReduceEdges {
		ReduceEdges(g, opts.policy())
	}
	if opts.HideFrameState {
		HideFrameState(g)
	}
	if opts.HideFloating {
		HideFloating(g)
	}
	return applied
}

func reset(g *graph.Graph) {
	for _, n := range g.Nodes() {
		n.Attrs = graph.NodeAttrs{}
	}
	for _, e := range g.Edges() {
		e.Attrs = graph.EdgeAttrs{}
	}
}

func truncateLabels(g *graph.Graph, max int) {
	for _, n := range g.Nodes() {
		n.Attrs.Label = truncate(n.Attrs.Label, max)
	}
	for _, e := range g.Edges() {
		e.Attrs.Label = truncate(e.Attrs.Label, max)
	}
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}

// hideEdgesOf hides every edge incident to a hidden node.
func hideEdgesOf(g *graph.Graph, n *graph.Node) {
	for _, e := range g.Incident(n.ID) {
		e.Attrs.Hidden = true
	}
}

package annotate

import (
	"slices"
	"strings"

	"github.com/matzehuels/seafoam/pkg/graph"
)

// ReduceEdges combines visible parallel edges that policy deems mergeable.
// Within each ordered node pair, edges are grouped by the policy's key; the
// first edge of a group stays visible and carries the distinct labels of
// the group joined with ", ", the rest are hidden.
func ReduceEdges(g *graph.Graph, policy MergePolicy) {
	if policy == MergeNone {
		return
	}
	type group struct {
		from, to int
		key      string
	}
	first := make(map[group]*graph.Edge)
	labels := make(map[*graph.Edge][]string)

	for _, e := range g.Edges() {
		if e.Attrs.Hidden {
			continue
		}
		k := group{from: e.From, to: e.To, key: mergeKey(e, policy)}
		head, ok := first[k]
		if !ok {
			first[k] = e
			labels[e] = appendLabel(nil, e.Attrs.Label)
			continue
		}
		labels[head] = appendLabel(labels[head], e.Attrs.Label)
		e.Attrs.Hidden = true
	}
	for head, ls := range labels {
		head.Attrs.Label = strings.Join(ls, ", ")
	}
}

func mergeKey(e *graph.Edge, policy MergePolicy) string {
	switch policy {
	case MergeSameLabel:
		return e.Attrs.Kind + "\x00" + e.Attrs.Label
	case MergeAny:
		return ""
	default:
		return e.Attrs.Kind
	}
}

func appendLabel(ls []string, l string) []string {
	if l == "" || slices.Contains(ls, l) {
		return ls
	}
	return append(ls, l)
}

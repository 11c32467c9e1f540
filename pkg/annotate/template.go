package annotate

import (
	"strconv"
	"strings"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// renderTemplate expands a node class name template. Placeholders are
// {p#key} for a property, {p#key/s} for its short form and {i#name} for the
// ids of the inputs arriving over edges called name. Unknown placeholders
// render empty.
func renderTemplate(tmpl string, g *graph.Graph, n *graph.Node) string {
	var sb strings.Builder
	for {
		open := strings.IndexByte(tmpl, '{')
		if open < 0 {
			sb.WriteString(tmpl)
			break
		}
		end := strings.IndexByte(tmpl[open:], '}')
		if end < 0 {
			sb.WriteString(tmpl)
			break
		}
		sb.WriteString(tmpl[:open])
		sb.WriteString(placeholder(tmpl[open+1:open+end], g, n))
		tmpl = tmpl[open+end+1:]
	}
	return sb.String()
}

func placeholder(ph string, g *graph.Graph, n *graph.Node) string {
	kind, arg, ok := strings.Cut(ph, "#")
	if !ok {
		return ""
	}
	switch kind {
	case "p":
		key, short := strings.CutSuffix(arg, "/s")
		v, ok := n.Props.Get(key)
		if !ok {
			return "?"
		}
		if short {
			return v.Short()
		}
		return longForm(v)
	case "i":
		var ids []string
		for _, e := range g.Inputs(n.ID) {
			if e.Name() == arg {
				ids = append(ids, strconv.Itoa(e.From))
			}
		}
		return strings.Join(ids, ", ")
	}
	return ""
}

// longForm renders methods and fields with their qualified declaring class
// and classes by their full name.
func longForm(v props.Value) string {
	m, ok := v.AsMap()
	if !ok {
		return v.String()
	}
	for _, member := range []string{"method_name", "field_name"} {
		if name, ok := m.GetString(member); ok {
			return m.StringOr("declaring_class", "") + "." + name
		}
	}
	if name, ok := m.GetString("type_name"); ok {
		return name
	}
	return v.String()
}

package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/render"
)

// Format is an output format of [Render].
type Format string

const (
	FormatDOT Format = "dot"
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
	FormatJPG Format = "jpg"
	FormatPDF Format = "pdf"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[Format]bool{
	FormatDOT: true,
	FormatSVG: true,
	FormatPNG: true,
	FormatJPG: true,
	FormatPDF: true,
}

// Options configures DOT generation.
type Options struct {
	// Title writes the graph's display name as the diagram label.
	Title bool
	// ShowIDs prefixes every node label with the node id.
	ShowIDs bool
}

type nodeStyle struct {
	shape     string
	fillcolor string
	style     string
}

var nodeStyles = map[string]nodeStyle{
	graph.KindControl: {"rectangle", "#ffd3d3", "filled"},
	graph.KindEffect:  {"rectangle", "#ffe4b5", "filled"},
	graph.KindInput:   {"oval", "#d6e9ff", "filled"},
	graph.KindInfo:    {"rectangle", "#ececec", "filled,dashed"},
	graph.KindGuard:   {"hexagon", "#fff5b8", "filled"},
	graph.KindCalc:    {"oval", "#dcf5dc", "filled"},
	graph.KindVirtual: {"rectangle", "#ead9ff", "filled,dotted"},
	graph.KindOther:   {"rectangle", "white", "filled"},
}

type edgeStyle struct {
	color string
	style string
}

var edgeStyles = map[string]edgeStyle{
	graph.EdgeControl: {"#d7191c", "bold"},
	graph.EdgeData:    {"#2b83ba", "solid"},
	graph.EdgeInfo:    {"#969696", "dashed"},
	graph.EdgeLoop:    {"#d7191c", "dashed"},
}

// ToDOT writes g as a Graphviz digraph. Hidden nodes, and edges that are
// hidden or touch a hidden node, are omitted. Nodes and edges appear in
// insertion order.
func ToDOT(g *graph.Graph, opts Options) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  graph [fontname=\"Arial\", rankdir=TB, ranksep=0.4, nodesep=0.3];\n")
	buf.WriteString("  node [fontname=\"Arial\", fontsize=12, margin=\"0.15,0.05\", penwidth=1];\n")
	buf.WriteString("  edge [fontname=\"Arial\", fontsize=10, arrowsize=0.7];\n")
	if opts.Title {
		if name := g.Props.StringOr("name", ""); name != "" {
			fmt.Fprintf(&buf, "  label=%s;\n  labelloc=t;\n", quote(name))
		}
	}
	buf.WriteString("\n")

	for _, n := range g.Nodes() {
		if !n.Visible() {
			continue
		}
		fmt.Fprintf(&buf, "  %d [%s];\n", n.ID, strings.Join(nodeAttrs(n, opts), ", "))
	}

	buf.WriteString("\n")
	for _, e := range g.Edges() {
		if e.Attrs.Hidden {
			continue
		}
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		if !from.Visible() || !to.Visible() {
			continue
		}
		attrs := edgeAttrs(e)
		if e.Attrs.Reverse {
			fmt.Fprintf(&buf, "  %d -> %d [%s];\n", e.To, e.From, strings.Join(append(attrs, "dir=back"), ", "))
			continue
		}
		fmt.Fprintf(&buf, "  %d -> %d [%s];\n", e.From, e.To, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(n *graph.Node, opts Options) string {
	label := n.Attrs.Label
	if label == "" {
		label = strconv.Itoa(n.ID)
	} else if opts.ShowIDs {
		label = strconv.Itoa(n.ID) + " " + label
	}
	return label
}

func nodeAttrs(n *graph.Node, opts Options) []string {
	st, ok := nodeStyles[n.Attrs.Kind]
	if !ok {
		st = nodeStyles[graph.KindOther]
	}
	attrs := []string{
		"label=" + quote(nodeLabel(n, opts)),
		"shape=" + st.shape,
		"fillcolor=" + quote(st.fillcolor),
		"style=" + quote(st.style),
	}
	switch n.Attrs.Spotlight {
	case graph.SpotlightLit:
		attrs = append(attrs, "penwidth=3")
	case graph.SpotlightShaded:
		attrs = append(attrs, `color="#bdbdbd"`, `fontcolor="#9e9e9e"`)
	}
	return attrs
}

// quote writes s as a DOT double-quoted string. Only quotes and
// backslashes are escaped; invalid UTF-8 becomes U+FFFD.
func quote(s string) string {
	s = strings.ToValidUTF8(s, "\uFFFD")
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func edgeAttrs(e *graph.Edge) []string {
	st, ok := edgeStyles[e.Attrs.Kind]
	if !ok {
		st = edgeStyles[graph.EdgeData]
	}
	attrs := []string{
		"color=" + quote(st.color),
		"style=" + st.style,
	}
	if e.Attrs.Label != "" {
		attrs = append([]string{"label=" + quote(e.Attrs.Label)}, attrs...)
	}
	return attrs
}

// Render lays out DOT source with Graphviz and encodes it in format. SVG,
// PNG and JPG are produced in-process; PDF is converted from SVG with
// rsvg-convert. FormatDOT returns the source unchanged.
func Render(ctx context.Context, dot string, format Format) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(dot), nil
	case FormatSVG:
		return RenderSVG(ctx, dot)
	case FormatPNG:
		return renderGraphviz(ctx, dot, graphviz.PNG)
	case FormatJPG:
		return renderGraphviz(ctx, dot, graphviz.JPG)
	case FormatPDF:
		svg, err := RenderSVG(ctx, dot)
		if err != nil {
			return nil, err
		}
		return render.ToPDF(svg)
	}
	return nil, fmt.Errorf("unknown render format %q", format)
}

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	svg, err := renderGraphviz(ctx, dot, graphviz.SVG)
	if err != nil {
		return nil, err
	}
	return normalizeViewBox(svg), nil
}

func renderGraphviz(ctx context.Context, dot string, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, format, &buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", format, err)
	}
	return buf.Bytes(), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the root element so the drawing scales from a
// zero origin with its natural size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	root := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(root))
}

// FormatFromPath returns the output format implied by a file extension.
func FormatFromPath(path string) (Format, error) {
	i := strings.LastIndexByte(path, '.')
	if i < 0 {
		return "", fmt.Errorf("output %q has no extension", path)
	}
	f := Format(strings.ToLower(path[i+1:]))
	if f == "jpeg" {
		f = FormatJPG
	}
	if !ValidFormats[f] {
		return "", fmt.Errorf("unknown render format %q", path[i:])
	}
	return f, nil
}

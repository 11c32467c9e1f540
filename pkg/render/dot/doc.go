// Package dot serializes annotated compiler graphs to Graphviz DOT and
// renders them.
//
// [ToDOT] writes one statement per visible node and edge, styled by the
// categories and spotlight marks the annotate and spotlight packages
// computed:
//
//	src := dot.ToDOT(g, dot.Options{Title: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// Hidden nodes and edges are left out entirely. Edges marked reversed are
// written against their data direction with dir=back, so Graphviz ranks
// metadata below the nodes it describes while the arrow keeps its meaning.
//
// [Render] dispatches on [Format]: SVG, PNG and JPG go through
// [github.com/goccy/go-graphviz] in-process; PDF additionally needs
// rsvg-convert.
package dot

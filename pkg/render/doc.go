// Package render converts rendered graph drawings between image formats.
//
// Graph layout itself lives in the [dot] subpackage, which writes Graphviz
// DOT and renders it to SVG, PNG or JPG in-process. This package covers the
// formats Graphviz cannot produce without native plugins:
//
//	svg, err := dot.RenderSVG(ctx, src)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// Both conversions shell out to rsvg-convert from librsvg.
//
// [dot]: github.com/matzehuels/seafoam/pkg/render/dot
package render

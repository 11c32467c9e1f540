package pipeline

import (
	"context"
	"fmt"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/render"
	"github.com/matzehuels/seafoam/pkg/render/dot"
)

// Render writes g as DOT and encodes it in opts.Format. PNG at a scale
// other than 1 is rasterized from SVG by rsvg-convert.
func Render(ctx context.Context, g *graph.Graph, opts Options) ([]byte, error) {
	src := dot.ToDOT(g, opts.DOTOptions())

	if opts.Format == dot.FormatPNG && opts.Scale > 0 && opts.Scale != DefaultScale {
		svg, err := dot.RenderSVG(ctx, src)
		if err != nil {
			return nil, fmt.Errorf("render svg: %w", err)
		}
		return render.ToPNG(svg, opts.Scale)
	}

	data, err := dot.Render(ctx, src, opts.Format)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", opts.Format, err)
	}
	return data, nil
}

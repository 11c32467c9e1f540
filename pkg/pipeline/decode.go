package pipeline

import (
	"context"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/spotlight"
)

// Decode reads snapshot opts.Index of opts.File.
func Decode(ctx context.Context, opts Options) (*graph.Graph, *bgv.Header, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	return bgv.OpenGraph(opts.File, opts.Index, bgv.WithLogger(opts.Logger))
}

// Prepare annotates g and applies the spotlight. It returns the annotators
// that ran. An unknown spotlight node fails with UNKNOWN_NODE.
func Prepare(g *graph.Graph, opts Options) ([]string, error) {
	aopts := annotate.DefaultOptions()
	if opts.Annotate != nil {
		aopts = *opts.Annotate
	}
	applied := annotate.Apply(g, aopts)

	if len(opts.Spotlight) == 0 {
		return applied, nil
	}
	s := spotlight.New(g)
	for _, id := range opts.Spotlight {
		if err := s.LightID(id); err != nil {
			return applied, err
		}
	}
	s.Shade()
	return applied, nil
}

func hiddenNodes(g *graph.Graph) int {
	n := 0
	for _, node := range g.Nodes() {
		if !node.Visible() {
			n++
		}
	}
	return n
}

package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/pipeline"
	"github.com/matzehuels/seafoam/pkg/render/dot"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output    string
	spotlight []int
	scale     float64
	title     bool
	showIDs   bool
	noCache   bool
	refresh   bool
	annotate  annotateFlags
}

// renderCommand creates the render command. The output format follows the
// extension of -o.
func (c *CLI) renderCommand() *cobra.Command {
	opts := renderOpts{
		output: pipeline.DefaultOutput,
		scale:  pipeline.DefaultScale,
	}

	cmd := &cobra.Command{
		Use:   "render file.bgv:graph",
		Short: "Render a graph with Graphviz",
		Long: `Render one graph of a dump. The output format is taken from the extension
of --output: pdf, svg, png, jpg or dot.

With --spotlight, only the given nodes and their direct neighbours are
drawn.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runRender(cmd, args[0], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", opts.output, "output file (pdf, svg, png, jpg, dot)")
	cmd.Flags().IntSliceVar(&opts.spotlight, "spotlight", nil, "only draw these nodes and their neighbours")
	cmd.Flags().Float64Var(&opts.scale, "scale", opts.scale, "PNG scale factor")
	cmd.Flags().BoolVar(&opts.title, "title", false, "label the drawing with the graph name")
	cmd.Flags().BoolVar(&opts.showIDs, "show-ids", false, "prefix node labels with their id")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "ignore cached output")
	opts.annotate.register(cmd)

	return cmd
}

func (c *CLI) runRender(cmd *cobra.Command, arg string, opts *renderOpts) error {
	r, err := parseRef(arg)
	if err != nil {
		return err
	}
	if !r.hasGraph() || r.hasNode() {
		return fmt.Errorf("render needs a graph, like file.bgv:0")
	}
	format, err := dot.FormatFromPath(opts.output)
	if err != nil {
		return err
	}
	aopts, err := opts.annotate.build()
	if err != nil {
		return err
	}

	runner, err := c.newRunner(opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()
	prog := newProgress(loggerFromContext(ctx))

	var spinner *Spinner
	if isTerminal(os.Stderr) {
		spinner = newSpinnerWithContext(ctx, out, fmt.Sprintf("Opening %s...", r))
		restore := spinner.trackStages()
		defer restore()
		spinner.Start()
	}

	result, err := runner.Execute(ctx, pipeline.Options{
		File:      r.File,
		Index:     r.Graph,
		Annotate:  &aopts,
		Spotlight: opts.spotlight,
		Format:    format,
		Scale:     opts.scale,
		Title:     opts.title,
		ShowIDs:   opts.showIDs,
		Refresh:   opts.refresh,
	})
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return err
	}

	if err := os.WriteFile(opts.output, result.Artifact, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", opts.output, err)
	}
	prog.done("Rendered " + opts.output)

	name := result.Name
	if name == "" {
		name = r.String()
	}
	printSuccess(out, "Rendered %s", name)
	printFile(out, opts.output)
	printStats(out, result.Stats.NodeCount, result.Stats.EdgeCount, result.CacheInfo.RenderHit)
	return nil
}

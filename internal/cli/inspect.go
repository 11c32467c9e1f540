package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/graph"
)

// infoCommand prints the format version of each dump without checking it.
func (c *CLI) infoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info FILE...",
		Short: "Print the BGV version of dumps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				r, err := parseRef(arg)
				if err != nil {
					return err
				}
				if !r.fileOnly() {
					return fmt.Errorf("info only works with a file")
				}
				v, err := readVersion(r.File)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "BGV %d.%d\n", v.Major, v.Minor)
			}
			return nil
		},
	}
}

func readVersion(path string) (bgv.Version, error) {
	f, err := os.Open(path)
	if err != nil {
		return bgv.Version{}, err
	}
	defer f.Close()
	return bgv.NewParser(f).ReadFileHeader(false)
}

// listCommand prints every snapshot of each dump.
func (c *CLI) listCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "list FILE...",
		Short: "List the graphs in dumps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			runner, err := c.newRunner(noCache)
			if err != nil {
				return err
			}
			defer runner.Close()

			for _, arg := range args {
				r, err := parseRef(arg)
				if err != nil {
					return err
				}
				if !r.fileOnly() {
					return fmt.Errorf("list only works with a file")
				}
				snaps, _, err := runner.List(cmd.Context(), r.File)
				if err != nil {
					return err
				}
				for _, s := range snaps {
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d  %s\n", r.File, s.Index, s.Name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")
	return cmd
}

// edgesCommand summarizes a graph, or prints the edges of a node or node pair.
func (c *CLI) edgesCommand() *cobra.Command {
	var flags annotateFlags

	cmd := &cobra.Command{
		Use:   "edges REF...",
		Short: "Print edge counts or the edges of a node",
		Long: `Print "<n> nodes, <e> edges" for file.bgv:graph, the input and output
edges of file.bgv:graph:node, or every edge from one node to another for
file.bgv:graph:from-to.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := flags.build()
			if err != nil {
				return err
			}
			for _, arg := range args {
				if err := printEdges(cmd.OutOrStdout(), arg, opts); err != nil {
					return err
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func printEdges(w io.Writer, arg string, opts annotate.Options) error {
	r, err := parseRef(arg)
	if err != nil {
		return err
	}
	if !r.hasGraph() {
		return fmt.Errorf("edges needs at least a graph")
	}
	g, _, err := bgv.OpenGraph(r.File, r.Graph)
	if err != nil {
		return err
	}
	if !r.hasNode() {
		fmt.Fprintf(w, "%d nodes, %d edges\n", g.NodeCount(), g.EdgeCount())
		return nil
	}

	annotate.Apply(g, opts)
	n, ok := g.Node(r.Node)
	if !ok {
		return fmt.Errorf("node %d not found", r.Node)
	}
	if r.hasEdge() {
		edges, err := edgesBetween(g, n, r.To)
		if err != nil {
			return err
		}
		for _, e := range edges {
			fmt.Fprintf(w, "%s ->(%s) %s\n", idAndLabel(g, e.From), e.Attrs.Label, idAndLabel(g, e.To))
		}
		return nil
	}

	fmt.Fprintln(w, "Input:")
	for _, e := range g.Inputs(n.ID) {
		fmt.Fprintf(w, "  %s <-(%s) %s\n", idAndLabel(g, n.ID), e.Attrs.Label, idAndLabel(g, e.From))
	}
	fmt.Fprintln(w, "Output:")
	for _, e := range g.Outputs(n.ID) {
		fmt.Fprintf(w, "  %s ->(%s) %s\n", idAndLabel(g, n.ID), e.Attrs.Label, idAndLabel(g, e.To))
	}
	return nil
}

// edgesBetween returns the output edges of from that end at node to.
func edgesBetween(g *graph.Graph, from *graph.Node, to int) ([]*graph.Edge, error) {
	if _, ok := g.Node(to); !ok {
		return nil, fmt.Errorf("edge node %d not found", to)
	}
	var out []*graph.Edge
	for _, e := range g.Outputs(from.ID) {
		if e.To == to {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("edge %d-%d not found", from.ID, to)
	}
	return out, nil
}

func idAndLabel(g *graph.Graph, id int) string {
	n, ok := g.Node(id)
	if !ok || n.Attrs.Label == "" {
		return fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("%d (%s)", id, n.Attrs.Label)
}

// propsCommand prints the header of a graph, or the properties of a node
// or of the edges between two nodes.
func (c *CLI) propsCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "props REF...",
		Short: "Print graph, node or edge properties",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "json" && format != "yaml" {
				return fmt.Errorf("invalid format: %s (must be 'json' or 'yaml')", format)
			}
			for _, arg := range args {
				if err := printProps(cmd.OutOrStdout(), arg, format); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json, yaml")
	return cmd
}

func printProps(w io.Writer, arg, format string) error {
	r, err := parseRef(arg)
	if err != nil {
		return err
	}
	if !r.hasGraph() {
		return fmt.Errorf("props needs at least a graph")
	}
	g, h, err := bgv.OpenGraph(r.File, r.Graph)
	if err != nil {
		return err
	}
	if !r.hasNode() {
		return prettyPrint(w, h.ToMap(), format)
	}
	n, ok := g.Node(r.Node)
	if !ok {
		return fmt.Errorf("node %d not found", r.Node)
	}
	if !r.hasEdge() {
		return prettyPrint(w, n.Props, format)
	}
	edges, err := edgesBetween(g, n, r.To)
	if err != nil {
		return err
	}
	for i, e := range edges {
		if err := prettyPrint(w, e.Props, format); err != nil {
			return err
		}
		if len(edges) > 1 && i < len(edges)-1 {
			fmt.Fprintln(w)
		}
	}
	return nil
}

// prettyPrint writes v as indented JSON or as YAML.
func prettyPrint(w io.Writer, v any, format string) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", data)
	return err
}

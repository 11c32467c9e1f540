package cli

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/annotate"
	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/pipeline"
)

// browseCommand lets the user pick a graph of a dump and prints its nodes.
func (c *CLI) browseCommand() *cobra.Command {
	var flags annotateFlags

	cmd := &cobra.Command{
		Use:   "browse FILE",
		Short: "Pick a graph interactively and print its nodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := parseRef(args[0])
			if err != nil {
				return err
			}
			if !r.fileOnly() {
				return fmt.Errorf("browse only works with a file")
			}
			opts, err := flags.build()
			if err != nil {
				return err
			}

			runner, err := c.newRunner(false)
			if err != nil {
				return err
			}
			defer runner.Close()

			snaps, _, err := runner.List(cmd.Context(), r.File)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(snaps) == 0 {
				printInfo(out, "%s has no graphs", r.File)
				return nil
			}

			p := tea.NewProgram(NewSnapshotListModel(r.File, snaps), tea.WithContext(cmd.Context()))
			finalModel, err := p.Run()
			if err != nil {
				return err
			}

			fm, ok := finalModel.(SnapshotListModel)
			if !ok || fm.Selected == nil {
				printDetail(out, "No selection made")
				return nil
			}
			return printSnapshotNodes(out, r.File, *fm.Selected, opts)
		},
	}

	flags.register(cmd)
	return cmd
}

// printSnapshotNodes decodes one snapshot and prints its visible nodes.
func printSnapshotNodes(w io.Writer, file string, s pipeline.Snapshot, opts annotate.Options) error {
	g, _, err := bgv.OpenGraph(file, s.Index)
	if err != nil {
		return err
	}
	annotate.Apply(g, opts)

	fmt.Fprintln(w, StyleTitle.Render(fmt.Sprintf("%s:%d", file, s.Index))+" "+StyleDim.Render(s.Name))
	for _, n := range g.Nodes() {
		if !n.Visible() {
			continue
		}
		fmt.Fprintf(w, "  %s\n", idAndLabel(g, n.ID))
	}
	printDetail(w, "%d nodes, %d edges", g.NodeCount(), g.EdgeCount())
	return nil
}

package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
)

// debugCommand traces the decoder over whole dumps: every pool insertion,
// every header and every graph. It keeps going with the next file after a
// decode error.
func (c *CLI) debugCommand() *cobra.Command {
	var skip bool

	cmd := &cobra.Command{
		Use:   "debug FILE...",
		Short: "Trace the decoder over dumps",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			failed := 0
			for _, arg := range args {
				r, err := parseRef(arg)
				if err != nil {
					return err
				}
				if !r.fileOnly() {
					return fmt.Errorf("debug only works with a file")
				}
				if !debugFile(cmd.OutOrStdout(), r.File, skip) {
					failed++
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed to decode", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&skip, "skip", false, "skip headers and graph bodies")
	return cmd
}

// debugFile prints the trace of one dump and reports whether it decoded
// cleanly.
func debugFile(w io.Writer, path string, skip bool) bool {
	fmt.Fprintln(w, path)

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(w, err)
		return false
	}
	defer f.Close()

	p := bgv.NewParser(f, bgv.WithPoolObserver(func(id int, c bgv.Constant) {
		fmt.Fprintf(w, "pool %d = %s %s\n", id, c.Type, c.Value)
	}))
	if err := debugStream(w, p, skip); err != nil {
		at := p.Offset()
		if off, ok := errors.OffsetOf(err); ok {
			at = off
		}
		fmt.Fprintf(w, "%v before byte %d\n", err, at)
		return false
	}
	return true
}

func debugStream(w io.Writer, p *bgv.Parser, skip bool) error {
	v, err := p.ReadFileHeader(true)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "BGV %d.%d\n", v.Major, v.Minor)

	for {
		ph, ok, err := p.ReadSnapshotPreheader()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		fmt.Fprintf(w, "graph %d, id=%d\n", ph.Index, ph.ID)

		if skip {
			if err := p.SkipSnapshotHeader(); err != nil {
				return err
			}
			if err := p.SkipSnapshot(); err != nil {
				return err
			}
			continue
		}

		h, err := p.ReadSnapshotHeader()
		if err != nil {
			return err
		}
		if err := prettyPrint(w, h.ToMap(), "json"); err != nil {
			return err
		}
		g, err := p.ReadSnapshot()
		if err != nil {
			return err
		}
		if err := graph.WriteGraph(g, w); err != nil {
			return err
		}
	}
}

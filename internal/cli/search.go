package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/graph"
)

// searchContext is the number of bytes shown on each side of a match.
const searchContext = 40

var styleMatch = lipgloss.NewStyle().Bold(true)

// searchCommand searches the JSON form of headers, node properties and edge
// properties for each term.
func (c *CLI) searchCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "search REF... -- TERM...",
		Short: "Search graph, node and edge properties",
		Long: `Search the properties of every graph of a dump, or of one graph, for each
term. Matching is case-insensitive. Each hit is printed with the reference
it was found under and some surrounding context.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dash := cmd.ArgsLenAtDash()
			if dash < 1 || dash == len(args) {
				return fmt.Errorf("usage: search REF... -- TERM...")
			}
			s := searcher{
				w:         cmd.OutOrStdout(),
				terms:     compileTerms(args[dash:]),
				highlight: isTerminal(cmd.OutOrStdout()),
			}
			for _, arg := range args[:dash] {
				r, err := parseRef(arg)
				if err != nil {
					return err
				}
				if r.hasNode() {
					return fmt.Errorf("search only works with a file or graph")
				}
				if err := s.searchFile(r); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func compileTerms(terms []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(terms))
	for i, t := range terms {
		out[i] = regexp.MustCompile("(?i)" + regexp.QuoteMeta(t))
	}
	return out
}

type searcher struct {
	w         io.Writer
	terms     []*regexp.Regexp
	highlight bool
}

func (s *searcher) searchFile(r ref) error {
	f, err := bgv.Open(r.File, true)
	if err != nil {
		return err
	}
	defer f.Close()

	for {
		ph, ok, err := f.ReadSnapshotPreheader()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if r.hasGraph() && ph.Index != r.Graph {
			if err := f.SkipSnapshotHeader(); err != nil {
				return err
			}
			if err := f.SkipSnapshot(); err != nil {
				return err
			}
			continue
		}

		tag := r.File + ":" + strconv.Itoa(ph.Index)
		h, err := f.ReadSnapshotHeader()
		if err != nil {
			return err
		}
		if err := s.searchValue(tag, h.ToMap()); err != nil {
			return err
		}
		g, err := f.ReadSnapshot()
		if err != nil {
			return err
		}
		if err := s.searchGraph(tag, g); err != nil {
			return err
		}
	}
}

func (s *searcher) searchGraph(tag string, g *graph.Graph) error {
	for _, n := range g.Nodes() {
		if err := s.searchValue(fmt.Sprintf("%s:%d", tag, n.ID), n.Props); err != nil {
			return err
		}
	}
	for _, e := range g.Edges() {
		if err := s.searchValue(fmt.Sprintf("%s:%d-%d", tag, e.From, e.To), e.Props); err != nil {
			return err
		}
	}
	return nil
}

func (s *searcher) searchValue(tag string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.searchText(tag, string(data))
	return nil
}

// searchText prints one line per occurrence of each term in text.
func (s *searcher) searchText(tag, text string) {
	for _, re := range s.terms {
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, end := loc[0], loc[1]
			before := text[max(0, start-searchContext):start]
			after := text[end:min(len(text), end+searchContext)]
			match := text[start:end]
			if s.highlight {
				match = styleMatch.Render(match)
			}
			fmt.Fprintf(s.w, "%s  ...%s%s%s...\n", tag, before, match, after)
		}
	}
}

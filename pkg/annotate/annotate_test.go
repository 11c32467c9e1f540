package annotate

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/seafoam/internal/bgvtest"
	"github.com/matzehuels/seafoam/pkg/bgv"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// fibGraph decodes the first snapshot of the Fib fixture.
func fibGraph(t *testing.T) *graph.Graph {
	t.Helper()
	p := bgv.NewParser(bytes.NewReader(bgvtest.Fib(7, 1)))
	if _, err := p.ReadFileHeader(true); err != nil {
		t.Fatal(err)
	}
	if _, _, err := p.ReadSnapshotPreheader(); err != nil {
		t.Fatal(err)
	}
	if _, err := p.ReadSnapshotHeader(); err != nil {
		t.Fatal(err)
	}
	g, err := p.ReadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func findEdge(t *testing.T, g *graph.Graph, from, to int) *graph.Edge {
	t.Helper()
	for _, e := range g.Outputs(from) {
		if e.To == to {
			return e
		}
	}
	t.Fatalf("no edge %d->%d", from, to)
	return nil
}

func visibleNodes(g *graph.Graph) []int {
	var ids []int
	for _, n := range g.Nodes() {
		if n.Visible() {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

func TestApplyGraalLabels(t *testing.T) {
	g := fibGraph(t)
	applied := Apply(g, DefaultOptions())
	if diff := cmp.Diff([]string{"graal", "fallback"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		id    int
		label string
		kind  string
	}{
		{0, "Start", graph.KindControl},
		{1, "P(0)", graph.KindInput},
		{2, "FrameState", graph.KindInfo},
		{3, "C(2)", graph.KindInput},
		{4, "<", graph.KindCalc},
		{5, "If", graph.KindControl},
		{9, "C(-1)", graph.KindInput},
		{10, "+", graph.KindCalc},
		{12, "Fib.fib", graph.KindInfo},
		{13, "Call Fib.fib", graph.KindEffect},
		{21, "Return", graph.KindControl},
	}
	for _, tt := range tests {
		n, _ := g.Node(tt.id)
		if n.Attrs.Label != tt.label || n.Attrs.Kind != tt.kind {
			t.Errorf("node %d = %q/%s, want %q/%s", tt.id, n.Attrs.Label, n.Attrs.Kind, tt.label, tt.kind)
		}
	}
}

func TestApplyGraalEdges(t *testing.T) {
	g := fibGraph(t)
	Apply(g, DefaultOptions())

	tests := []struct {
		from, to int
		label    string
		kind     string
		reverse  bool
	}{
		{0, 5, "", graph.EdgeControl, false},
		{5, 6, "T", graph.EdgeControl, false},
		{5, 7, "F", graph.EdgeControl, false},
		{1, 4, "x", graph.EdgeData, false},
		{4, 5, "condition", graph.EdgeData, false},
		{12, 13, "callTarget", graph.EdgeInfo, true},
		{14, 13, "stateAfter", graph.EdgeInfo, true},
		{1, 14, "values", graph.EdgeInfo, true},
	}
	for _, tt := range tests {
		e := findEdge(t, g, tt.from, tt.to)
		if e.Attrs.Label != tt.label || e.Attrs.Kind != tt.kind || e.Attrs.Reverse != tt.reverse {
			t.Errorf("edge %d->%d = %+v, want %q/%s reverse=%v", tt.from, tt.to, e.Attrs, tt.label, tt.kind, tt.reverse)
		}
	}
}

func TestHideFrameStateDefault(t *testing.T) {
	g := fibGraph(t)
	Apply(g, DefaultOptions())

	hidden := map[int]bool{2: true, 14: true, 17: true, 20: true}
	for _, n := range g.Nodes() {
		if n.Attrs.Hidden != hidden[n.ID] {
			t.Errorf("node %d hidden = %v, want %v", n.ID, n.Attrs.Hidden, hidden[n.ID])
		}
	}
	for _, e := range g.Edges() {
		touches := hidden[e.From] || hidden[e.To]
		if touches && !e.Attrs.Hidden {
			t.Errorf("edge %d->%d touches a frame state but is visible", e.From, e.To)
		}
	}

	opts := DefaultOptions()
	opts.HideFrameState = false
	Apply(g, opts)
	if got := len(visibleNodes(g)); got != bgvtest.FibNodeCount {
		t.Errorf("visible nodes with frame states shown = %d, want %d", got, bgvtest.FibNodeCount)
	}
}

func TestHideFloating(t *testing.T) {
	g := fibGraph(t)
	opts := DefaultOptions()
	opts.HideFloating = true
	Apply(g, opts)

	want := []int{0, 5, 6, 7, 8, 13, 18, 21}
	if diff := cmp.Diff(want, visibleNodes(g)); diff != "" {
		t.Errorf("visible nodes mismatch (-want +got):\n%s", diff)
	}
	// labels survive hiding
	n, _ := g.Node(12)
	if n.Attrs.Label != "Fib.fib" {
		t.Errorf("hidden node label = %q, want Fib.fib", n.Attrs.Label)
	}
}

type attrSnapshot struct {
	Nodes map[int]graph.NodeAttrs
	Edges []graph.EdgeAttrs
}

func snapshotAttrs(g *graph.Graph) attrSnapshot {
	s := attrSnapshot{Nodes: make(map[int]graph.NodeAttrs)}
	for _, n := range g.Nodes() {
		s.Nodes[n.ID] = n.Attrs
	}
	for _, e := range g.Edges() {
		s.Edges = append(s.Edges, e.Attrs)
	}
	return s
}

func TestApplyIdempotent(t *testing.T) {
	for _, opts := range []Options{
		DefaultOptions(),
		{HideFloating: true, ReduceEdges: true, MergePolicy: MergeAny, MaxLabelLength: 4},
		{},
	} {
		g := fibGraph(t)
		Apply(g, opts)
		first := snapshotAttrs(g)
		Apply(g, opts)
		if diff := cmp.Diff(first, snapshotAttrs(g)); diff != "" {
			t.Errorf("second Apply(%s) changed attributes (-first +second):\n%s", opts.Key(), diff)
		}
	}
}

// parallelGraph has three parallel data edges 0->1 and one edge back.
func parallelGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New(nil)
	for _, id := range []int{0, 1} {
		if _, err := g.AddNode(id, nil); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []struct {
		from, to int
		name     string
	}{{0, 1, "x"}, {0, 1, "y"}, {0, 1, "x"}, {1, 0, "z"}} {
		m := props.NewMap()
		m.Set("name", props.String(e.name))
		if _, err := g.AddEdge(e.from, e.to, m); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func visibleEdgeLabels(g *graph.Graph) []string {
	var out []string
	for _, e := range g.Edges() {
		if !e.Attrs.Hidden {
			out = append(out, e.Attrs.Label)
		}
	}
	return out
}

func TestReduceEdges(t *testing.T) {
	tests := []struct {
		name   string
		reduce bool
		policy MergePolicy
		want   []string
	}{
		{"disabled", false, MergeSameKind, []string{"x", "y", "x", "z"}},
		{"same kind", true, MergeSameKind, []string{"x, y", "z"}},
		{"same label", true, MergeSameLabel, []string{"x", "y", "z"}},
		{"any", true, MergeAny, []string{"x, y", "z"}},
		{"none", true, MergeNone, []string{"x", "y", "x", "z"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := parallelGraph(t)
			Apply(g, Options{ReduceEdges: tt.reduce, MergePolicy: tt.policy})
			if diff := cmp.Diff(tt.want, visibleEdgeLabels(g)); diff != "" {
				t.Errorf("visible edge labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFallbackLabels(t *testing.T) {
	g := graph.New(nil)
	named := props.NewMap()
	named.Set("label", props.String("entry"))
	if _, err := g.AddNode(0, named); err != nil {
		t.Fatal(err)
	}
	if _, err := g.AddNode(7, nil); err != nil {
		t.Fatal(err)
	}

	applied := Apply(g, DefaultOptions())
	if diff := cmp.Diff([]string{"fallback"}, applied); diff != "" {
		t.Errorf("applied mismatch (-want +got):\n%s", diff)
	}
	for id, want := range map[int]string{0: "entry", 7: "7"} {
		n, _ := g.Node(id)
		if n.Attrs.Label != want || n.Attrs.Kind != graph.KindOther {
			t.Errorf("node %d = %q/%s, want %q/other", id, n.Attrs.Label, n.Attrs.Kind, want)
		}
	}
}

func TestMaxLabelLength(t *testing.T) {
	g := fibGraph(t)
	opts := DefaultOptions()
	opts.MaxLabelLength = 6
	Apply(g, opts)
	n, _ := g.Node(13)
	if n.Attrs.Label != "Call …" {
		t.Errorf("truncated label = %q, want %q", n.Attrs.Label, "Call …")
	}
	n, _ = g.Node(0)
	if n.Attrs.Label != "Start" {
		t.Errorf("short label = %q, want Start", n.Attrs.Label)
	}
}

func TestRenderTemplate(t *testing.T) {
	g := fibGraph(t)
	tests := []struct {
		id   int
		tmpl string
		want string
	}{
		{3, "C({p#rawvalue})", "C(2)"},
		{12, "{p#targetMethod/s}", "Fib.fib"},
		{12, "{p#targetMethod}", "Fib.fib"},
		{14, "FS {i#values}", "FS 13, 1"},
		{0, "{p#missing}", "?"},
		{0, "{z#what}!", "!"},
		{0, "open {brace", "open {brace"},
	}
	for _, tt := range tests {
		n, _ := g.Node(tt.id)
		if got := renderTemplate(tt.tmpl, g, n); got != tt.want {
			t.Errorf("renderTemplate(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

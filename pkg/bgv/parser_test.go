package bgv

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/matzehuels/seafoam/internal/bgvtest"
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

const nodeClass = "org.graalvm.compiler.nodes.StartNode"

func newTestParser(t *testing.T, data []byte) *Parser {
	t.Helper()
	p := NewParser(bytes.NewReader(data))
	if _, err := p.ReadFileHeader(true); err != nil {
		t.Fatalf("ReadFileHeader() error: %v", err)
	}
	return p
}

// readOne reads the next snapshot fully.
func readOne(t *testing.T, p *Parser) (*Header, *graph.Graph, error) {
	t.Helper()
	if _, ok, err := p.ReadSnapshotPreheader(); err != nil || !ok {
		t.Fatalf("ReadSnapshotPreheader() = %v, %v", ok, err)
	}
	h, err := p.ReadSnapshotHeader()
	if err != nil {
		return nil, nil, err
	}
	g, err := p.ReadSnapshot()
	return h, g, err
}

func TestRoundTripAllVersions(t *testing.T) {
	for _, v := range SupportedVersions() {
		t.Run(v.String(), func(t *testing.T) {
			data := bgvtest.Fib(v.Major, v.Minor)
			p := NewParser(bytes.NewReader(data))
			got, err := p.ReadFileHeader(true)
			if err != nil {
				t.Fatalf("ReadFileHeader() error: %v", err)
			}
			if got != v {
				t.Errorf("ReadFileHeader() = %s, want %s", got, v)
			}

			var phases []string
			for {
				ph, ok, err := p.ReadSnapshotPreheader()
				if err != nil {
					t.Fatalf("ReadSnapshotPreheader() error: %v", err)
				}
				if !ok {
					break
				}
				if ph.Index != len(phases) || ph.ID != len(phases) {
					t.Errorf("preheader = %+v, want index and id %d", ph, len(phases))
				}
				h, err := p.ReadSnapshotHeader()
				if err != nil {
					t.Fatalf("ReadSnapshotHeader() error: %v", err)
				}
				g, err := p.ReadSnapshot()
				if err != nil {
					t.Fatalf("ReadSnapshot() error: %v", err)
				}
				if g.NodeCount() != bgvtest.FibNodeCount || g.EdgeCount() != bgvtest.FibEdgeCount {
					t.Errorf("graph %d has %d nodes, %d edges", ph.Index, g.NodeCount(), g.EdgeCount())
				}
				phases = append(phases, h.Phase())
			}

			if diff := cmp.Diff(bgvtest.FibPhases, phases); diff != "" {
				t.Errorf("phases mismatch (-want +got):\n%s", diff)
			}
			if p.Offset() != int64(len(data)) {
				t.Errorf("Offset() = %d, want end of stream %d", p.Offset(), len(data))
			}
			if _, ok, err := p.ReadSnapshotPreheader(); ok || err != nil {
				t.Errorf("ReadSnapshotPreheader() after end = %v, %v", ok, err)
			}
		})
	}
}

func TestSkipEquivalence(t *testing.T) {
	type mode struct{ skipHeader, skipBody bool }
	modes := []mode{{false, false}, {true, true}, {true, false}, {false, true}}

	for _, v := range SupportedVersions() {
		data := bgvtest.Fib(v.Major, v.Minor)
		var want []int64
		for _, m := range modes {
			t.Run(fmt.Sprintf("%s/%+v", v, m), func(t *testing.T) {
				p := newTestParser(t, data)
				var offsets []int64
				for {
					_, ok, err := p.ReadSnapshotPreheader()
					if err != nil {
						t.Fatal(err)
					}
					if !ok {
						break
					}
					if m.skipHeader {
						err = p.SkipSnapshotHeader()
					} else {
						_, err = p.ReadSnapshotHeader()
					}
					if err != nil {
						t.Fatal(err)
					}
					offsets = append(offsets, p.Offset())
					if m.skipBody {
						err = p.SkipSnapshot()
					} else {
						_, err = p.ReadSnapshot()
					}
					if err != nil {
						t.Fatal(err)
					}
					offsets = append(offsets, p.Offset())
				}
				if want == nil {
					want = offsets
					return
				}
				if diff := cmp.Diff(want, offsets); diff != "" {
					t.Errorf("offsets mismatch (-read +this mode):\n%s", diff)
				}
			})
		}
	}
}

func TestVersionGating(t *testing.T) {
	tests := []struct {
		name         string
		major, minor int
		check        bool
		wantErr      errors.Code
	}{
		{"supported checked", 7, 0, true, ""},
		{"unsupported checked", 5, 0, true, errors.ErrCodeVersion},
		{"unsupported minor checked", 7, 9, true, errors.ErrCodeVersion},
		{"unsupported unchecked", 5, 0, false, ""},
		{"future unchecked", 99, 3, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bgvtest.New(tt.major, tt.minor).EndOfFile().Bytes()
			p := NewParser(bytes.NewReader(data))
			v, err := p.ReadFileHeader(tt.check)
			if tt.wantErr != "" {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ReadFileHeader() error = %v, want %s", err, tt.wantErr)
				}
				if p.Offset() != 6 {
					t.Errorf("Offset() after version error = %d, want 6", p.Offset())
				}
				return
			}
			if err != nil {
				t.Fatalf("ReadFileHeader() error: %v", err)
			}
			if v != (Version{tt.major, tt.minor}) {
				t.Errorf("ReadFileHeader() = %s, want %d.%d", v, tt.major, tt.minor)
			}
		})
	}
}

func TestBadMagic(t *testing.T) {
	p := NewParser(bytes.NewReader([]byte("XXXX\x07\x00")))
	_, err := p.ReadFileHeader(false)
	if !errors.Is(err, errors.ErrCodeFormat) {
		t.Fatalf("ReadFileHeader() error = %v, want FORMAT", err)
	}
	if _, _, err := p.ReadSnapshotPreheader(); !errors.Is(err, errors.ErrCodeInvalidState) {
		t.Errorf("call after failure error = %v, want INVALID_STATE", err)
	}
}

func TestStateMachine(t *testing.T) {
	data := bgvtest.Fib(7, 1)

	t.Run("preheader before file header", func(t *testing.T) {
		p := NewParser(bytes.NewReader(data))
		if _, _, err := p.ReadSnapshotPreheader(); !errors.Is(err, errors.ErrCodeInvalidState) {
			t.Errorf("error = %v, want INVALID_STATE", err)
		}
	})

	t.Run("body before header", func(t *testing.T) {
		p := newTestParser(t, data)
		if _, _, err := p.ReadSnapshotPreheader(); err != nil {
			t.Fatal(err)
		}
		if _, err := p.ReadSnapshot(); !errors.Is(err, errors.ErrCodeInvalidState) {
			t.Errorf("error = %v, want INVALID_STATE", err)
		}
	})

	t.Run("header twice", func(t *testing.T) {
		p := newTestParser(t, data)
		if _, _, err := p.ReadSnapshotPreheader(); err != nil {
			t.Fatal(err)
		}
		if err := p.SkipSnapshotHeader(); err != nil {
			t.Fatal(err)
		}
		if _, err := p.ReadSnapshotHeader(); !errors.Is(err, errors.ErrCodeInvalidState) {
			t.Errorf("error = %v, want INVALID_STATE", err)
		}
	})

	t.Run("file header twice", func(t *testing.T) {
		p := newTestParser(t, data)
		if _, err := p.ReadFileHeader(true); !errors.Is(err, errors.ErrCodeInvalidState) {
			t.Errorf("error = %v, want INVALID_STATE", err)
		}
	})
}

// failureCase describes a stream that fails while decoding the first
// snapshot body.
type failureCase struct {
	name  string
	build func(b *bgvtest.Builder)
	code  errors.Code
}

var bodyFailures = []failureCase{
	{
		name: "unknown body tag",
		build: func(b *bgvtest.Builder) {
			b.Node(0, nodeClass, "Start", false).U8(0x44)
		},
		code: errors.ErrCodeFormat,
	},
	{
		name: "edge before node",
		build: func(b *bgvtest.Builder) {
			b.InputEdge(1, 0).EndGraph()
		},
		code: errors.ErrCodeFormat,
	},
	{
		name: "dangling edge",
		build: func(b *bgvtest.Builder) {
			b.Node(0, nodeClass, "Start", false).OutputEdge(9, 0).EndGraph()
		},
		code: errors.ErrCodeDecode,
	},
	{
		name: "duplicate node",
		build: func(b *bgvtest.Builder) {
			b.Node(0, nodeClass, "Start", false).Node(0, nodeClass, "Start", false).EndGraph()
		},
		code: errors.ErrCodeDuplicateNode,
	},
	{
		name: "truncated body",
		build: func(b *bgvtest.Builder) {
			b.Node(0, nodeClass, "Start", false)
		},
		code: errors.ErrCodeDecode,
	},
	{
		name: "reference to unset pool id",
		build: func(b *bgvtest.Builder) {
			b.U8(bgvtest.TagNode).WriteID(0).Ref(bgvtest.PoolNodeClass, 77)
		},
		code: errors.ErrCodeDecode,
	},
	{
		name: "pool type mismatch",
		build: func(b *bgvtest.Builder) {
			b.DefineString(0, "x")
			b.U8(bgvtest.TagNode).WriteID(0).Ref(bgvtest.PoolNodeClass, 0)
		},
		code: errors.ErrCodeDecode,
	},
	{
		name: "unknown property type",
		build: func(b *bgvtest.Builder) {
			b.Node(0, nodeClass, "Start", false, bgvtest.P("k", func(b *bgvtest.Builder) { b.U8(0x3c) }))
		},
		code: errors.ErrCodeFormat,
	},
	{
		name: "non-string property key",
		build: func(b *bgvtest.Builder) {
			b.U8(bgvtest.TagNode).WriteID(0).NodeClassObj(nodeClass, "Start").U8(0).
				WriteMapCount(1).NullObj().Raw(0x05)
		},
		code: errors.ErrCodeDecode,
	},
}

func TestBodyFailuresMatchBetweenReadAndSkip(t *testing.T) {
	for _, tt := range bodyFailures {
		t.Run(tt.name, func(t *testing.T) {
			b := bgvtest.New(7, 0)
			b.BeginGraph(0, "phase", nil)
			tt.build(b)
			data := b.Bytes()

			read := newTestParser(t, data)
			_, _, readErr := readOne(t, read)
			if !errors.Is(readErr, tt.code) {
				t.Fatalf("read error = %v, want %s", readErr, tt.code)
			}

			skip := newTestParser(t, data)
			if _, _, err := skip.ReadSnapshotPreheader(); err != nil {
				t.Fatal(err)
			}
			if err := skip.SkipSnapshotHeader(); err != nil {
				t.Fatal(err)
			}
			skipErr := skip.SkipSnapshot()
			if errors.GetCode(skipErr) != errors.GetCode(readErr) {
				t.Errorf("skip error = %v, read error = %v", skipErr, readErr)
			}
			readOff, _ := errors.OffsetOf(readErr)
			skipOff, _ := errors.OffsetOf(skipErr)
			if readOff != skipOff {
				t.Errorf("skip error offset %d, read error offset %d", skipOff, readOff)
			}
			if _, err := read.ReadSnapshot(); !errors.Is(err, errors.ErrCodeInvalidState) {
				t.Errorf("read after failure error = %v, want INVALID_STATE", err)
			}
		})
	}
}

func TestDanglingEdgeNamesNode(t *testing.T) {
	b := bgvtest.New(8, 0)
	b.BeginGraph(0, "phase", nil)
	b.Node(0, nodeClass, "Start", false).InputEdge(5, 0).EndGraph()
	p := newTestParser(t, b.Bytes())
	_, _, err := readOne(t, p)
	if !errors.Is(err, errors.ErrCodeDecode) || !errors.Is(err, errors.ErrCodeUnknownNode) {
		t.Fatalf("error = %v, want DECODE wrapping UNKNOWN_NODE", err)
	}
}

func TestTopLevelFailures(t *testing.T) {
	tests := []struct {
		name  string
		build func(b *bgvtest.Builder)
		code  errors.Code
	}{
		{"unknown record tag", func(b *bgvtest.Builder) { b.U8(0x42) }, errors.ErrCodeFormat},
		{"close without open", func(b *bgvtest.Builder) { b.CloseGroup() }, errors.ErrCodeFormat},
		{"trailing bytes", func(b *bgvtest.Builder) { b.EndOfFile().U8(0) }, errors.ErrCodeFormat},
		{"pool entry reference", func(b *bgvtest.Builder) { b.U8(bgvtest.TagPoolEntry).Ref(bgvtest.PoolString, 0) }, errors.ErrCodeFormat},
		{"unknown pool type", func(b *bgvtest.Builder) { b.U8(bgvtest.TagPoolEntry).U8(bgvtest.PoolNew).WritePoolID(0).U8(0x33) }, errors.ErrCodeFormat},
		{"truncated graph id", func(b *bgvtest.Builder) { b.U8(bgvtest.TagBeginGraph) }, errors.ErrCodeDecode},
		{"oversized string", func(b *bgvtest.Builder) {
			b.U8(bgvtest.TagPoolEntry).U8(bgvtest.PoolNew).WritePoolID(0).U8(bgvtest.PoolString).WriteID(MaxStringLength + 1)
		}, errors.ErrCodeDecode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := bgvtest.New(7, 0)
			tt.build(b)
			p := newTestParser(t, b.Bytes())
			if _, _, err := p.ReadSnapshotPreheader(); !errors.Is(err, tt.code) {
				t.Errorf("ReadSnapshotPreheader() error = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestSourcePositionsGated(t *testing.T) {
	entry := func(b *bgvtest.Builder) {
		b.U8(bgvtest.TagPoolEntry).U8(bgvtest.PoolNew).WritePoolID(0).U8(0x09).NullObj().WriteInt(3).NullObj()
		b.EndOfFile()
	}

	old := bgvtest.New(7, 0)
	entry(old)
	if _, _, err := newTestParser(t, old.Bytes()).ReadSnapshotPreheader(); !errors.Is(err, errors.ErrCodeFormat) {
		t.Errorf("7.0 error = %v, want FORMAT", err)
	}

	cur := bgvtest.New(7, 1)
	entry(cur)
	p := newTestParser(t, cur.Bytes())
	if _, ok, err := p.ReadSnapshotPreheader(); ok || err != nil {
		t.Fatalf("7.1 ReadSnapshotPreheader() = %v, %v", ok, err)
	}
	c, err := p.Pool().Get(0)
	if err != nil || c.Type != PoolSourcePosition {
		t.Errorf("pool entry = %+v, %v", c, err)
	}
}

func TestPoolOverwriteInStream(t *testing.T) {
	b := bgvtest.New(7, 0)
	b.DefineString(3, "first").DefineString(3, "second")
	b.BeginGraph(0, "phase", nil)
	b.Node(0, nodeClass, "Start", false, bgvtest.P("label", func(b *bgvtest.Builder) {
		b.U8(0x00).Ref(bgvtest.PoolString, 3)
	}))
	b.EndGraph().EndOfFile()

	var observed []string
	p := NewParser(bytes.NewReader(b.Bytes()), WithPoolObserver(func(id int, c Constant) {
		if id == 3 {
			observed = append(observed, c.Value.String())
		}
	}))
	if _, err := p.ReadFileHeader(true); err != nil {
		t.Fatal(err)
	}
	_, g, err := readOne(t, p)
	if err != nil {
		t.Fatalf("read error: %v", err)
	}
	n, _ := g.Node(0)
	if got := n.Props.StringOr("label", ""); got != "second" {
		t.Errorf("label = %q, want second", got)
	}
	if diff := cmp.Diff([]string{"first", "second"}, observed); diff != "" {
		t.Errorf("observer mismatch (-want +got):\n%s", diff)
	}
}

func TestDecodedConventions(t *testing.T) {
	for _, v := range []Version{{6, 0}, {7, 0}, {8, 0}} {
		t.Run(v.String(), func(t *testing.T) {
			p := newTestParser(t, bgvtest.Fib(v.Major, v.Minor))
			h, g, err := readOne(t, p)
			if err != nil {
				t.Fatal(err)
			}

			if id, _ := g.Props.Lookup("id").AsInt(); id != 0 {
				t.Errorf("graph id = %d", id)
			}
			if got := g.Props.StringOr("name", ""); got != DisplayName(h) {
				t.Errorf("graph name = %q, want %q", got, DisplayName(h))
			}
			if got := g.Props.StringOr("graph", ""); got != "StructuredGraph:1{Fib.fib(int)int}" {
				t.Errorf("header prop graph = %q", got)
			}

			call, _ := g.Node(13)
			if got := call.NodeClass(); got != "org.graalvm.compiler.nodes.InvokeNode" {
				t.Errorf("NodeClass() = %q", got)
			}
			tmpl, _ := call.Props.Dig("node_class", "name_template")
			if tmpl.String() != "Invoke#{p#targetMethod/s}" {
				t.Errorf("name_template = %q", tmpl)
			}
			_, hasPred := call.Props.Get("has_predecessor")
			if wantPred := v != (Version{6, 0}); hasPred != wantPred {
				t.Errorf("has_predecessor present = %v, want %v", hasPred, wantPred)
			}

			target, _ := g.Node(12)
			if got := target.Props.Lookup("targetMethod").Short(); got != "Fib.fib" {
				t.Errorf("targetMethod short = %q", got)
			}

			var ins []int
			for _, e := range g.Inputs(13) {
				ins = append(ins, e.From)
				if d := e.Props.StringOr("direction", ""); d == "" {
					t.Errorf("edge %d->%d missing direction", e.From, e.To)
				}
			}
			if diff := cmp.Diff([]int{7, 12, 14}, ins); diff != "" {
				t.Errorf("Inputs(13) mismatch (-want +got):\n%s", diff)
			}
			var outs []int
			for _, e := range g.Outputs(13) {
				outs = append(outs, e.To)
			}
			if diff := cmp.Diff([]int{18, 14, 19, 20}, outs); diff != "" {
				t.Errorf("Outputs(13) mismatch (-want +got):\n%s", diff)
			}

			// node 14 owns two "values" input edges, so the second gets index 1
			var indices []int64
			for _, e := range g.Inputs(14) {
				i, _ := e.Props.Lookup("index").AsInt()
				indices = append(indices, i)
			}
			if diff := cmp.Diff([]int64{0, 1}, indices); diff != "" {
				t.Errorf("Inputs(14) indices mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSkippedHeaderLeavesNameUnset(t *testing.T) {
	p := newTestParser(t, bgvtest.Fib(7, 1))
	if _, _, err := p.ReadSnapshotPreheader(); err != nil {
		t.Fatal(err)
	}
	if err := p.SkipSnapshotHeader(); err != nil {
		t.Fatal(err)
	}
	g, err := p.ReadSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	if g.Props.Has("name") {
		t.Errorf("graph props = %v, want no name", g.Props)
	}
	if !g.Props.Has("index") {
		t.Error("graph props missing index")
	}
}

func TestPropertyValueKinds(t *testing.T) {
	reasons := []string{"NullCheckException", "BoundsCheckException"}
	b := bgvtest.New(7, 0)
	b.BeginGraph(0, "phase", nil)
	b.Node(0, nodeClass, "Start", false,
		bgvtest.P("i", bgvtest.Int(-7)),
		bgvtest.P("l", bgvtest.Long(1<<40)),
		bgvtest.P("d", bgvtest.Double(2.5)),
		bgvtest.P("f", bgvtest.Float(0.5)),
		bgvtest.P("t", bgvtest.Bool(true)),
		bgvtest.P("n", bgvtest.Null()),
		bgvtest.P("ints", bgvtest.Ints(1, 2, 3)),
		bgvtest.P("doubles", bgvtest.Doubles(0.5)),
		bgvtest.P("strs", bgvtest.Strs("a", "b")),
		bgvtest.P("m", bgvtest.Map(bgvtest.P("inner", bgvtest.Int(1)))),
		bgvtest.P("reason", bgvtest.Enum("DeoptimizationReason", reasons, 1)),
		bgvtest.P("field", bgvtest.Field("Point", "x", "int")),
	)
	b.EndGraph().EndOfFile()

	p := newTestParser(t, b.Bytes())
	_, g, err := readOne(t, p)
	if err != nil {
		t.Fatal(err)
	}
	n, _ := g.Node(0)

	want := map[string]string{
		"i":       "-7",
		"l":       "1099511627776",
		"d":       "2.5",
		"f":       "0.5",
		"t":       "true",
		"n":       "null",
		"ints":    "[1, 2, 3]",
		"doubles": "[0.5]",
		"strs":    "[a, b]",
		"m":       "{inner: 1}",
		"reason":  "BoundsCheckException",
	}
	for k, w := range want {
		if got := n.Props.Lookup(k).String(); got != w {
			t.Errorf("%s = %q, want %q", k, got, w)
		}
	}
	e, ok := n.Props.Lookup("reason").AsEnum()
	if !ok || e.Class != "DeoptimizationReason" || e.Ordinal != 1 {
		t.Errorf("reason enum = %+v, %v", e, ok)
	}
	if got := n.Props.Lookup("field").Short(); got != "Point.x" {
		t.Errorf("field short = %q", got)
	}
	if k := n.Props.Lookup("field").Kind(); k != props.KindPool {
		t.Errorf("field kind = %s, want pool", k)
	}
}

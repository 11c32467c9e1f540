package bgvtest

const graalNodes = "org.graalvm.compiler.nodes."

// FibNodeCount and FibEdgeCount describe every snapshot of [Fib].
const (
	FibNodeCount = 22
	FibEdgeCount = 30
	FibSnapshots = 3
)

// FibNode describes one node of the Fib fixture.
type FibNode struct {
	ID       int
	Class    string
	Template string
	Props    []Prop
}

// FibEdge describes one edge of the Fib fixture. Control edges are written
// as output edges of their source, every other edge as an input edge of its
// target.
type FibEdge struct {
	From, To int
	Name     string
	Control  bool
}

// FibNodes is the IR graph of
//
//	static int fib(int n) {
//	    if (n < 2) return n;
//	    return fib(n - 1) + fib(n - 2);
//	}
//
// The first call (node 13) has inputs from 7, 12 and 14 and outputs to 14,
// 18, 19 and 20.
var FibNodes = []FibNode{
	{0, graalNodes + "StartNode", "Start", nil},
	{1, graalNodes + "ParameterNode", "P({p#index})", []Prop{P("index", Int(0)), P("stamp", Str("i32"))}},
	{2, graalNodes + "FrameState", "FrameState", []Prop{P("bci", Int(0))}},
	{3, graalNodes + "ConstantNode", "C({p#rawvalue})", []Prop{P("rawvalue", Int(2)), P("stamp", Str("i32 [2]"))}},
	{4, graalNodes + "calc.IntegerLessThanNode", "<", nil},
	{5, graalNodes + "IfNode", "If", []Prop{P("trueSuccessorProbability", Double(0.25))}},
	{6, graalNodes + "BeginNode", "Begin", nil},
	{7, graalNodes + "BeginNode", "Begin", nil},
	{8, graalNodes + "ReturnNode", "Return", nil},
	{9, graalNodes + "ConstantNode", "C({p#rawvalue})", []Prop{P("rawvalue", Int(-1)), P("stamp", Str("i32 [-1]"))}},
	{10, graalNodes + "calc.AddNode", "+", nil},
	{11, graalNodes + "ConstantNode", "C({p#rawvalue})", []Prop{P("rawvalue", Int(-2)), P("stamp", Str("i32 [-2]"))}},
	{12, graalNodes + "java.MethodCallTargetNode", "{p#targetMethod/s}", []Prop{P("targetMethod", Method("Fib", "fib")), P("invokeKind", Str("Static"))}},
	{13, graalNodes + "InvokeNode", "Invoke#{p#targetMethod/s}", []Prop{P("bci", Int(13))}},
	{14, graalNodes + "FrameState", "FrameState", []Prop{P("bci", Int(13))}},
	{15, graalNodes + "calc.AddNode", "+", nil},
	{16, graalNodes + "java.MethodCallTargetNode", "{p#targetMethod/s}", []Prop{P("targetMethod", Method("Fib", "fib")), P("invokeKind", Str("Static"))}},
	{17, graalNodes + "FrameState", "FrameState", []Prop{P("bci", Int(16))}},
	{18, graalNodes + "InvokeNode", "Invoke#{p#targetMethod/s}", []Prop{P("bci", Int(19))}},
	{19, graalNodes + "calc.AddNode", "+", nil},
	{20, graalNodes + "FrameState", "FrameState", []Prop{P("bci", Int(19))}},
	{21, graalNodes + "ReturnNode", "Return", nil},
}

// FibEdges lists the edges of the Fib fixture in the order they are
// decoded.
var FibEdges = fibEdgesInDecodeOrder()

var fibEdgeList = []FibEdge{
	{0, 5, "next", true},
	{5, 6, "trueSuccessor", true},
	{5, 7, "falseSuccessor", true},
	{6, 8, "next", true},
	{7, 13, "next", true},
	{13, 18, "next", true},
	{18, 21, "next", true},
	{2, 0, "stateAfter", false},
	{1, 2, "values", false},
	{1, 4, "x", false},
	{3, 4, "y", false},
	{4, 5, "condition", false},
	{1, 8, "result", false},
	{1, 10, "x", false},
	{9, 10, "y", false},
	{10, 12, "arguments", false},
	{12, 13, "callTarget", false},
	{14, 13, "stateAfter", false},
	{13, 14, "values", false},
	{1, 14, "values", false},
	{1, 15, "x", false},
	{11, 15, "y", false},
	{15, 16, "arguments", false},
	{16, 18, "callTarget", false},
	{13, 19, "x", false},
	{18, 19, "y", false},
	{13, 20, "values", false},
	{20, 18, "stateAfter", false},
	{19, 21, "result", false},
	{17, 18, "stateDuring", false},
}

// owner returns the node whose record carries e.
func (e FibEdge) owner() int {
	if e.Control {
		return e.From
	}
	return e.To
}

func fibEdgesInDecodeOrder() []FibEdge {
	var out []FibEdge
	for _, n := range FibNodes {
		for _, e := range fibEdgeList {
			if e.owner() == n.ID {
				out = append(out, e)
			}
		}
	}
	return out
}

// hasPredecessor reports whether id is the target of a control edge.
func hasPredecessor(id int) bool {
	for _, e := range fibEdgeList {
		if e.Control && e.To == id {
			return true
		}
	}
	return false
}

// FibPhases are the phases of the snapshots [Fib] writes, in order.
var FibPhases = []string{"After parsing", "After phase Canonicalizer", "After phase FrameStateAssignment"}

// WriteFibGraph writes one snapshot of the Fib graph.
func (b *Builder) WriteFibGraph(id int, format string, args ...Value) *Builder {
	b.BeginGraph(id, format, args, P("graph", Str("StructuredGraph:1{Fib.fib(int)int}")))
	for _, n := range FibNodes {
		b.Node(n.ID, n.Class, n.Template, hasPredecessor(n.ID), n.Props...)
		counts := make(map[string]int)
		for _, e := range fibEdgeList {
			if e.owner() != n.ID {
				continue
			}
			key := e.Name
			if e.Control {
				key = "out:" + key
			}
			index := counts[key]
			counts[key]++
			ep := P("name", Str(e.Name))
			if e.Control {
				b.OutputEdge(e.To, index, ep)
			} else {
				b.InputEdge(e.From, index, ep)
			}
		}
	}
	return b.EndGraph()
}

// Fib returns a complete dump in version major.minor holding
// [FibSnapshots] snapshots of the Fib graph inside one compilation group.
func Fib(major, minor int) []byte {
	b := New(major, minor)
	b.BeginGroup("Fib.fib(int)int", "Fib.fib", "Fib", "fib", P("compilationId", Int(17)))
	b.WriteFibGraph(0, "After parsing")
	b.WriteFibGraph(1, "After phase %s", Str("Canonicalizer"))
	b.WriteFibGraph(2, "After phase %s", Str("FrameStateAssignment"))
	b.CloseGroup()
	b.EndOfFile()
	return b.Bytes()
}

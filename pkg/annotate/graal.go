package annotate

import (
	"strings"

	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// graalPackages are the class name prefixes of Graal IR nodes.
var graalPackages = []string{
	"org.graalvm.compiler.",
	"jdk.graal.compiler.",
}

// Simple class names by category. Anything unlisted is classified by its
// package or name shape in [graalKind].
var (
	graalControl = nameSet(
		"StartNode", "BeginNode", "EndNode", "IfNode", "ReturnNode", "MergeNode",
		"LoopBeginNode", "LoopEndNode", "LoopExitNode", "KillingBeginNode",
		"UnwindNode", "DeoptimizeNode", "DynamicDeoptimizeNode", "IntegerSwitchNode",
		"TypeSwitchNode", "ExceptionObjectNode", "StartInlineNode", "ControlSinkNode",
	)
	graalInput = nameSet("ParameterNode", "ConstantNode")
	graalInfo  = nameSet("FrameState", "MethodCallTargetNode", "VirtualObjectState", "StateSplitProxyNode")
	graalGuard = nameSet("GuardNode", "FixedGuardNode", "GuardedValueNode", "PiNode", "GuardProxyNode")

	effectPrefixes = []string{"Invoke", "Store", "Load", "New", "Monitor", "Write", "Read", "Allocate", "Raw", "Foreign"}
)

func nameSet(names ...string) map[string]bool {
	s := make(map[string]bool, len(names))
	for _, n := range names {
		s[n] = true
	}
	return s
}

// Edge names carried by control-flow successors that get a short label.
var controlLabels = map[string]string{
	"next":           "",
	"trueSuccessor":  "T",
	"falseSuccessor": "F",
}

// Edge names that point at metadata rather than data.
var infoEdges = nameSet("frameState", "stateAfter", "stateBefore", "stateDuring", "callTarget", "merge")

// Graal annotates graphs dumped by the Graal compiler.
type Graal struct{}

func (Graal) Name() string { return "graal" }

func (Graal) Applies(g *graph.Graph) bool {
	for _, n := range g.Nodes() {
		if isGraalClass(n.NodeClass()) {
			return true
		}
	}
	return false
}

func isGraalClass(class string) bool {
	for _, p := range graalPackages {
		if strings.HasPrefix(class, p) {
			return true
		}
	}
	return false
}

func (Graal) Annotate(g *graph.Graph, _ Options) {
	for _, n := range g.Nodes() {
		class := n.NodeClass()
		if !isGraalClass(class) {
			continue
		}
		n.Attrs.Kind = graalKind(class)
		n.Attrs.Label = graalLabel(g, n, class)
	}
	for _, e := range g.Edges() {
		from, _ := g.Node(e.From)
		to, _ := g.Node(e.To)
		if !isGraalClass(from.NodeClass()) || !isGraalClass(to.NodeClass()) {
			continue
		}
		e.Attrs.Kind, e.Attrs.Label, e.Attrs.Reverse = graalEdge(e, from, to)
	}
}

func graalKind(class string) string {
	simple := props.SimpleName(class)
	switch {
	case graalControl[simple]:
		return graph.KindControl
	case graalInput[simple]:
		return graph.KindInput
	case graalInfo[simple]:
		return graph.KindInfo
	case graalGuard[simple]:
		return graph.KindGuard
	case strings.Contains(class, ".calc.") || strings.HasSuffix(simple, "PhiNode"):
		return graph.KindCalc
	case strings.Contains(class, ".virtual.") || strings.HasPrefix(simple, "Virtual") || strings.HasPrefix(simple, "Commit"):
		return graph.KindVirtual
	}
	for _, p := range effectPrefixes {
		if strings.HasPrefix(simple, p) {
			return graph.KindEffect
		}
	}
	return graph.KindOther
}

func graalLabel(g *graph.Graph, n *graph.Node, class string) string {
	simple := props.SimpleName(class)
	if strings.HasPrefix(simple, "Invoke") {
		if target := callTarget(g, n); target != "" {
			return "Call " + target
		}
	}
	var tmpl string
	if v, ok := n.Props.Dig("node_class", "name_template"); ok {
		tmpl, _ = v.AsString()
	}
	if tmpl != "" {
		if label := renderTemplate(tmpl, g, n); label != "" {
			return label
		}
	}
	return strings.TrimSuffix(simple, "Node")
}

// callTarget returns the short name of the method an invoke calls, read
// from the call target node feeding it.
func callTarget(g *graph.Graph, n *graph.Node) string {
	for _, e := range g.Inputs(n.ID) {
		if e.Name() != "callTarget" {
			continue
		}
		target, ok := g.Node(e.From)
		if !ok {
			continue
		}
		if m, ok := target.Props.Get("targetMethod"); ok && !m.IsNull() {
			return m.Short()
		}
	}
	return ""
}

func graalEdge(e *graph.Edge, from, to *graph.Node) (kind, label string, reverse bool) {
	name := e.Name()
	fromSimple := props.SimpleName(from.NodeClass())
	toSimple := props.SimpleName(to.NodeClass())

	switch {
	case name == "loopBegin" && toSimple == "LoopEndNode":
		return graph.EdgeLoop, "", true
	case name == "loopBegin" && toSimple == "LoopExitNode":
		return graph.EdgeInfo, "", true
	case infoEdges[name] || (graalInfo[fromSimple] && graalInfo[toSimple]) || toSimple == "FrameState":
		return graph.EdgeInfo, name, true
	case e.Props.StringOr("direction", "") == "output":
		if l, ok := controlLabels[name]; ok {
			return graph.EdgeControl, l, false
		}
		return graph.EdgeControl, name, false
	}
	return graph.EdgeData, name, false
}

// Package graph holds the in-memory model of one decoded compiler graph
// snapshot, and its JSON serialization.
//
// # Model
//
// A [Graph] owns its nodes and edges. Nodes are keyed by their integer id,
// which is unique within one graph; ids carry no meaning across graphs from
// the same file. Edges live in a single ordered slice and nodes refer to
// them by index, so adjacency is a list of edge indices rather than
// pointers:
//
//	g := graph.New(nil)
//	_, _ = g.AddNode(0, nil)
//	_, _ = g.AddNode(1, nil)
//	_, _ = g.AddEdge(0, 1, nil)
//	for _, e := range g.Outputs(0) {
//	    fmt.Println(e.From, "->", e.To)
//	}
//
// There is no removal. Annotators and the spotlight hide nodes and edges by
// setting [NodeAttrs.Hidden] and [EdgeAttrs.Hidden], which keeps full
// connectivity available to every later pass.
//
// # Properties and attributes
//
// Each node and edge carries the property map it was decoded with
// ([props.Map]) plus typed display attributes (label, kind, hidden,
// spotlight) that the annotate and spotlight packages compute. Decoded
// properties are never overwritten by display passes.
//
// # Serialization
//
// [MarshalGraph] and [WriteGraph] produce a node-link JSON document:
//
//	{
//	  "props": {"id": 1, "name": "Fib.fib/After parsing"},
//	  "nodes": [{"id": 0, "label": "Start", "kind": "control", "props": {...}}],
//	  "edges": [{"from": 0, "to": 5, "kind": "control", "props": {...}}]
//	}
//
// Nodes appear in insertion order and edges in decode order.
package graph

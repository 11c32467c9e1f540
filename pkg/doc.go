// Package pkg provides the libraries behind seafoam, a tool for inspecting
// and rendering the compiler graph dumps (BGV files) written by Graal.
//
// # Overview
//
// A dump is a stream of snapshots. Each snapshot is one compilation phase's
// view of a method: a directed multigraph of IR nodes with property maps on
// every node and edge. The pkg directory is organized along the data flow:
//
//	BGV file
//	    ↓
//	[bgv] (decode one snapshot, skip the rest)
//	    ↓
//	[graph] (nodes, edges, properties)
//	    ↓
//	[annotate] + [spotlight] (labels, categories, hiding, focus)
//	    ↓
//	[render/dot] (Graphviz DOT, SVG, PNG, JPG, PDF)
//
// # Quick Start
//
// Decode a snapshot and write it as DOT:
//
//	g, h, err := bgv.OpenGraph("fib.bgv", 2)
//	if err != nil {
//	    return err
//	}
//	annotate.Apply(g, annotate.DefaultOptions())
//	fmt.Println(bgv.DisplayName(h))
//	fmt.Print(dot.ToDOT(g, dot.Options{Title: true}))
//
// Focus on one node and its neighbours:
//
//	s := spotlight.New(g)
//	if err := s.LightID(13); err != nil {
//	    return err
//	}
//	s.Shade()
//
// # Main Packages
//
// [props] - Property values (a tagged union) and ordered property maps with
// JSON and YAML encodings.
//
// [bgv] - Binary reader, constant pool, version layout table and the parser
// state machine. [bgv.OpenGraph] and [bgv.ListSnapshots] wrap the parser for
// whole files.
//
// [graph] - The decoded graph: nodes and edges in insertion order, adjacency
// by edge index, display attributes, node-link JSON export.
//
// [annotate] - Annotator passes deriving labels, categories and visibility,
// configured with [annotate.Options].
//
// [spotlight] - One-hop focus marking (lit, shaded, hidden).
//
// [render/dot] - DOT serialization and in-process Graphviz rendering.
//
// [render] - SVG to PDF/PNG conversion through rsvg-convert.
//
// ## Infrastructure
//
// [pipeline] - decode → annotate → render with an artifact cache, shared by
// the CLI and the HTTP server.
//
// [cache] - File, in-memory LRU, Redis and null caches behind one interface.
//
// [observability] - Hooks for pipeline, cache and HTTP events.
//
// [errors] - Error codes carrying byte offsets and node ids.
//
// [buildinfo] - Version metadata set at link time.
//
// [props]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/props
// [bgv]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/bgv
// [bgv.OpenGraph]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/bgv#OpenGraph
// [bgv.ListSnapshots]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/bgv#ListSnapshots
// [graph]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/graph
// [annotate]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/annotate
// [annotate.Options]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/annotate#Options
// [spotlight]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/spotlight
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/render/dot
// [render]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/cache
// [observability]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/seafoam/pkg/buildinfo
package pkg

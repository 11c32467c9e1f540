package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/matzehuels/seafoam/pkg/props"
)

// =============================================================================
// Graph Serialization API
// =============================================================================

// Document is the node-link JSON form of a [Graph].
type Document struct {
	Props *props.Map `json:"props"`
	Nodes []NodeDoc  `json:"nodes"`
	Edges []EdgeDoc  `json:"edges"`
}

// NodeDoc is the serialized form of a [Node].
type NodeDoc struct {
	ID        int        `json:"id"`
	Label     string     `json:"label,omitempty"`
	Kind      string     `json:"kind,omitempty"`
	Hidden    bool       `json:"hidden,omitempty"`
	Spotlight string     `json:"spotlight,omitempty"`
	Props     *props.Map `json:"props"`
}

// EdgeDoc is the serialized form of an [Edge].
type EdgeDoc struct {
	From    int        `json:"from"`
	To      int        `json:"to"`
	Label   string     `json:"label,omitempty"`
	Kind    string     `json:"kind,omitempty"`
	Hidden  bool       `json:"hidden,omitempty"`
	Reverse bool       `json:"reverse,omitempty"`
	Props   *props.Map `json:"props"`
}

// Export converts g to its serialization form.
func Export(g *Graph) Document {
	doc := Document{
		Props: g.Props,
		Nodes: make([]NodeDoc, 0, len(g.order)),
		Edges: make([]EdgeDoc, 0, len(g.edges)),
	}
	for _, n := range g.order {
		doc.Nodes = append(doc.Nodes, NodeDoc{
			ID:        n.ID,
			Label:     n.Attrs.Label,
			Kind:      n.Attrs.Kind,
			Hidden:    n.Attrs.Hidden,
			Spotlight: n.Attrs.Spotlight.String(),
			Props:     n.Props,
		})
	}
	for _, e := range g.edges {
		doc.Edges = append(doc.Edges, EdgeDoc{
			From:    e.From,
			To:      e.To,
			Label:   e.Attrs.Label,
			Kind:    e.Attrs.Kind,
			Hidden:  e.Attrs.Hidden,
			Reverse: e.Attrs.Reverse,
			Props:   e.Props,
		})
	}
	return doc
}

// MarshalGraph converts a graph to indented JSON bytes.
func MarshalGraph(g *Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeGraphTo(g, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraphFile writes a graph to a JSON file.
// The file is created with 0644 permissions.
func WriteGraphFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return writeGraphTo(g, f)
}

// WriteGraph writes a graph as JSON to an io.Writer.
func WriteGraph(g *Graph, w io.Writer) error {
	return writeGraphTo(g, w)
}

// =============================================================================
// Internal Implementation
// =============================================================================

func writeGraphTo(g *Graph, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Export(g)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

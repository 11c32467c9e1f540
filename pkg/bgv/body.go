package bgv

import (
	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// pendingEdge is an edge record waiting for END_GRAPH, when every node of
// the snapshot is known.
type pendingEdge struct {
	from, to int
	props    *props.Map // nil when skipping
	off      int64
}

type edgeSlot struct {
	node  int
	input bool
	name  string
}

// readBody decodes node and edge records up to END_GRAPH. Read and skip
// share this loop so they consume identical bytes and detect identical
// errors; skipping keeps only node ids and edge endpoints.
func (p *Parser) readBody(skip bool) (*graph.Graph, error) {
	var (
		g       *graph.Graph
		seen    = make(map[int]struct{})
		pending []pendingEdge
		owner   = -1
		ordinal map[edgeSlot]int
	)
	if !skip {
		g = graph.New(p.graphProps())
		if !p.layout.edgeIndex {
			ordinal = make(map[edgeSlot]int)
		}
	}

	for {
		start := p.r.Offset()
		tag, err := p.r.U8()
		if err != nil {
			return nil, err
		}
		switch tag {
		case tagNode:
			id, err := p.readID()
			if err != nil {
				return nil, err
			}
			if _, dup := seen[id]; dup {
				return nil, errors.New(errors.ErrCodeDuplicateNode, "node %d already exists", id).WithNode(id).WithOffset(start)
			}
			seen[id] = struct{}{}
			owner = id
			class, err := p.readPoolObjectOf(PoolNodeClass, false, skip)
			if err != nil {
				return nil, err
			}
			var hasPred bool
			if p.layout.predecessor {
				if hasPred, err = p.r.Bool(); err != nil {
					return nil, err
				}
			}
			m, err := p.readProps(skip)
			if err != nil {
				return nil, err
			}
			if skip {
				continue
			}
			m.Set("node_class", class.Deref())
			if p.layout.predecessor {
				m.Set("has_predecessor", props.Bool(hasPred))
			}
			if _, err := g.AddNode(id, m); err != nil {
				return nil, err.(*errors.Error).WithOffset(start)
			}

		case tagInputEdge, tagOutputEdge:
			if owner < 0 {
				return nil, errors.New(errors.ErrCodeFormat, "edge record before any node").WithOffset(start)
			}
			other, err := p.readID()
			if err != nil {
				return nil, err
			}
			index := -1
			if p.layout.edgeIndex {
				if index, err = p.readUnsigned("edge index"); err != nil {
					return nil, err
				}
			}
			m, err := p.readProps(skip)
			if err != nil {
				return nil, err
			}
			input := tag == tagInputEdge
			e := pendingEdge{from: owner, to: other, props: m, off: start}
			if input {
				e.from, e.to = other, owner
			}
			if !skip {
				if index < 0 {
					slot := edgeSlot{node: owner, input: input, name: m.StringOr("name", "")}
					index = ordinal[slot]
					ordinal[slot]++
				}
				m.Set("index", props.Int(int64(index)))
				m.Set("direction", props.String(direction(input)))
			}
			pending = append(pending, e)

		case tagPoolEntry:
			if err := p.readPoolEntry(); err != nil {
				return nil, err
			}

		case tagEndGraph:
			for _, e := range pending {
				if err := checkEndpoints(seen, e); err != nil {
					return nil, err
				}
				if skip {
					continue
				}
				if _, err := g.AddEdge(e.from, e.to, e.props); err != nil {
					return nil, errors.Wrap(errors.ErrCodeDecode, err, "dangling edge %d->%d", e.from, e.to).WithOffset(e.off)
				}
			}
			return g, nil

		default:
			return nil, errors.New(errors.ErrCodeFormat, "unknown snapshot record tag 0x%02x", tag).WithOffset(start)
		}
	}
}

func checkEndpoints(seen map[int]struct{}, e pendingEdge) error {
	for _, id := range []int{e.from, e.to} {
		if _, ok := seen[id]; !ok {
			cause := errors.New(errors.ErrCodeUnknownNode, "unknown node %d", id).WithNode(id)
			return errors.Wrap(errors.ErrCodeDecode, cause, "dangling edge %d->%d", e.from, e.to).WithOffset(e.off)
		}
	}
	return nil
}

func direction(input bool) string {
	if input {
		return "input"
	}
	return "output"
}

// graphProps seeds the properties of a graph being read from the current
// preheader and, when it was read, the current header.
func (p *Parser) graphProps() *props.Map {
	m := props.NewMap()
	m.Set("id", props.Int(int64(p.current.ID)))
	m.Set("index", props.Int(int64(p.current.Index)))
	if h := p.header; h != nil {
		m.Set("name", props.String(DisplayName(h)))
		m.Set("phase", props.String(h.Phase()))
		for k, v := range h.Props.All() {
			if !m.Has(k) {
				m.Set(k, v)
			}
		}
	}
	return m
}

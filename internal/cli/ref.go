package cli

import (
	"fmt"
	"strconv"
	"strings"
)

// ref addresses a dump, a graph in it, a node of that graph, or the edges
// between two nodes: file.bgv[:graph[:node[-node]]]. Absent parts are -1.
type ref struct {
	File  string
	Graph int
	Node  int
	To    int
}

func (r ref) hasGraph() bool { return r.Graph >= 0 }
func (r ref) hasNode() bool  { return r.Node >= 0 }
func (r ref) hasEdge() bool  { return r.To >= 0 }
func (r ref) fileOnly() bool { return !r.hasGraph() }

func (r ref) String() string {
	s := r.File
	if r.hasGraph() {
		s += ":" + strconv.Itoa(r.Graph)
	}
	if r.hasNode() {
		s += ":" + strconv.Itoa(r.Node)
	}
	if r.hasEdge() {
		s += "-" + strconv.Itoa(r.To)
	}
	return s
}

// parseRef splits a reference. Parts after the file must be non-negative
// integers.
func parseRef(s string) (ref, error) {
	r := ref{Graph: -1, Node: -1, To: -1}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return r, fmt.Errorf("too many parts to name %s", s)
	}
	r.File = parts[0]
	if r.File == "" {
		return r, fmt.Errorf("no file in name %s", s)
	}
	var err error
	if len(parts) > 1 {
		if r.Graph, err = refIndex(parts[1], s); err != nil {
			return r, err
		}
	}
	if len(parts) > 2 {
		node, to, hasTo := strings.Cut(parts[2], "-")
		if strings.Contains(to, "-") {
			return r, fmt.Errorf("too many parts to edge name in %s", s)
		}
		if r.Node, err = refIndex(node, s); err != nil {
			return r, err
		}
		if hasTo {
			if r.To, err = refIndex(to, s); err != nil {
				return r, err
			}
		}
	}
	return r, nil
}

func refIndex(part, name string) (int, error) {
	n, err := strconv.Atoi(part)
	if err != nil || n < 0 {
		return -1, fmt.Errorf("invalid number %q in name %s", part, name)
	}
	return n, nil
}

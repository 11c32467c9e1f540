package bgv

import (
	"os"

	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
)

// File is an open dump whose file header has been read.
type File struct {
	*Parser
	Path string
	f    *os.File
}

// Open opens the dump at path and reads its file header.
func Open(path string, versionCheck bool, opts ...ParserOption) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeNotFound, err, "open %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	p := NewParser(f, opts...)
	if _, err := p.ReadFileHeader(versionCheck); err != nil {
		f.Close()
		return nil, err
	}
	return &File{Parser: p, Path: path, f: f}, nil
}

// Close releases the underlying file.
func (f *File) Close() error { return f.f.Close() }

// Entry describes one snapshot of a dump.
type Entry struct {
	Preheader
	Name   string
	Header *Header
}

// ListSnapshots reads every snapshot header of the dump at path, skipping
// the bodies.
func ListSnapshots(path string, opts ...ParserOption) ([]Entry, error) {
	f, err := Open(path, true, opts...)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []Entry
	for {
		ph, ok, err := f.ReadSnapshotPreheader()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		h, err := f.ReadSnapshotHeader()
		if err != nil {
			return nil, err
		}
		if err := f.SkipSnapshot(); err != nil {
			return nil, err
		}
		out = append(out, Entry{Preheader: ph, Name: DisplayName(h), Header: h})
	}
}

// OpenGraph decodes snapshot index of the dump at path. Every other
// snapshot is skipped. It fails with NOT_FOUND when the file has fewer
// snapshots.
func OpenGraph(path string, index int, opts ...ParserOption) (*graph.Graph, *Header, error) {
	f, err := Open(path, true, opts...)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	for {
		ph, ok, err := f.ReadSnapshotPreheader()
		if err != nil {
			return nil, nil, err
		}
		if !ok {
			return nil, nil, errors.New(errors.ErrCodeNotFound, "%s has no graph %d", path, index)
		}
		if ph.Index != index {
			if err := f.SkipSnapshotHeader(); err != nil {
				return nil, nil, err
			}
			if err := f.SkipSnapshot(); err != nil {
				return nil, nil, err
			}
			continue
		}
		h, err := f.ReadSnapshotHeader()
		if err != nil {
			return nil, nil, err
		}
		g, err := f.ReadSnapshot()
		if err != nil {
			return nil, nil, err
		}
		return g, h, nil
	}
}

// EachGraph decodes every snapshot of the dump at path in order and calls
// fn with it. Iteration stops at the first error from fn.
func EachGraph(path string, fn func(Entry, *graph.Graph) error, opts ...ParserOption) error {
	f, err := Open(path, true, opts...)
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
		h, err := f.ReadSnapshotHeader()
		if err != nil {
			return err
		}
		g, err := f.ReadSnapshot()
		if err != nil {
			return err
		}
		if err := fn(Entry{Preheader: ph, Name: DisplayName(h), Header: h}, g); err != nil {
			return err
		}
	}
}

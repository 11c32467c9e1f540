package bgv

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/graph"
	"github.com/matzehuels/seafoam/pkg/props"
)

// Magic is the four-byte tag every dump starts with.
const Magic = "BIGV"

// Top-level record tags.
const (
	tagBeginGroup = 0x00
	tagBeginGraph = 0x01
	tagCloseGroup = 0x02
	tagPoolEntry  = 0x03
	tagEndOfFile  = 0x7f
)

// Snapshot body record tags.
const (
	tagNode       = 0x10
	tagInputEdge  = 0x11
	tagOutputEdge = 0x12
	tagEndGraph   = 0x1f
)

type state uint8

const (
	stateStart     state = iota
	stateReady           // expecting a preheader
	statePreheader       // expecting a header
	stateHeader          // expecting a body
	stateEOF
	stateFailed
)

var stateNames = [...]string{"start", "ready", "preheader", "header", "eof", "failed"}

func (s state) String() string { return stateNames[s] }

// Preheader identifies one snapshot before its header is decoded. Index is
// the 0-based position of the snapshot in the file; ID is the identifier
// the dump assigned to it.
type Preheader struct {
	Index int
	ID    int
}

// ParserOption configures a [Parser].
type ParserOption func(*Parser)

// WithPoolObserver installs a callback invoked after every pool insertion.
func WithPoolObserver(fn PoolObserver) ParserOption {
	return func(p *Parser) { p.observer = fn }
}

// WithLogger sets the logger used for debug output. The default discards.
func WithLogger(l *log.Logger) ParserOption {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// Parser is a stateful decoder for one dump stream. Methods must be called
// in stream order:
//
//	ReadFileHeader
//	loop:
//	    ReadSnapshotPreheader  (stop when it reports no snapshot)
//	    ReadSnapshotHeader | SkipSnapshotHeader
//	    ReadSnapshot       | SkipSnapshot
//
// Calling a method out of order, or after any method has failed, returns
// an INVALID_STATE error. A Parser is not safe for concurrent use.
type Parser struct {
	r        *Reader
	pool     *Pool
	observer PoolObserver
	logger   *log.Logger

	version Version
	layout  layout
	state   state

	next    int // index of the next snapshot
	current Preheader
	groups  []Group
	header  *Header // nil when the current header was skipped
}

// NewParser returns a parser reading from r.
func NewParser(r io.Reader, opts ...ParserOption) *Parser {
	p := &Parser{
		r:      NewReader(r),
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.pool = NewPool(p.observer)
	return p
}

// Offset returns the number of bytes consumed so far.
func (p *Parser) Offset() int64 { return p.r.Offset() }

// Version returns the version read by [Parser.ReadFileHeader].
func (p *Parser) Version() Version { return p.version }

// Pool returns the constant pool of this session.
func (p *Parser) Pool() *Pool { return p.pool }

// ReadFileHeader decodes the magic tag and the version pair. When
// versionCheck is set, versions outside [SupportedVersions] fail with
// VERSION; otherwise the raw pair is returned and decoding proceeds with the
// nearest known layout.
func (p *Parser) ReadFileHeader(versionCheck bool) (Version, error) {
	if err := p.expect(stateStart, "ReadFileHeader"); err != nil {
		return Version{}, err
	}
	v, err := p.readFileHeader(versionCheck)
	if err != nil {
		return Version{}, p.fail(err)
	}
	p.version = v
	p.layout = layoutFor(v)
	p.state = stateReady
	p.logger.Debug("read file header", "version", v)
	return v, nil
}

func (p *Parser) readFileHeader(versionCheck bool) (Version, error) {
	magic, err := p.r.Bytes(len(Magic))
	if err != nil {
		return Version{}, err
	}
	if string(magic) != Magic {
		return Version{}, errors.New(errors.ErrCodeFormat, "bad magic %q", magic).WithOffset(0)
	}
	major, err := p.r.U8()
	if err != nil {
		return Version{}, err
	}
	minor, err := p.r.U8()
	if err != nil {
		return Version{}, err
	}
	v := Version{Major: int(major), Minor: int(minor)}
	if versionCheck && !IsSupported(v) {
		return Version{}, errors.New(errors.ErrCodeVersion, "unsupported version %s", v).WithOffset(int64(len(Magic)))
	}
	return v, nil
}

// ReadSnapshotPreheader advances to the next snapshot, consuming any group
// and pool records in between. It reports false once the end of the file is
// reached.
func (p *Parser) ReadSnapshotPreheader() (Preheader, bool, error) {
	if p.state == stateEOF {
		return Preheader{}, false, nil
	}
	if err := p.expect(stateReady, "ReadSnapshotPreheader"); err != nil {
		return Preheader{}, false, err
	}
	ph, ok, err := p.readPreheader()
	if err != nil {
		return Preheader{}, false, p.fail(err)
	}
	if !ok {
		p.state = stateEOF
		return Preheader{}, false, nil
	}
	p.current = ph
	p.header = nil
	p.state = statePreheader
	return ph, true, nil
}

func (p *Parser) readPreheader() (Preheader, bool, error) {
	for {
		eof, err := p.r.AtEOF()
		if err != nil {
			return Preheader{}, false, err
		}
		if eof {
			return Preheader{}, false, nil
		}
		start := p.r.Offset()
		tag, err := p.r.U8()
		if err != nil {
			return Preheader{}, false, err
		}
		switch tag {
		case tagBeginGroup:
			g, err := p.readGroup()
			if err != nil {
				return Preheader{}, false, err
			}
			p.groups = append(p.groups, g)
		case tagCloseGroup:
			if len(p.groups) == 0 {
				return Preheader{}, false, errors.New(errors.ErrCodeFormat, "close group without open group").WithOffset(start)
			}
			p.groups = p.groups[:len(p.groups)-1]
		case tagPoolEntry:
			if err := p.readPoolEntry(); err != nil {
				return Preheader{}, false, err
			}
		case tagBeginGraph:
			id, err := p.readID()
			if err != nil {
				return Preheader{}, false, err
			}
			ph := Preheader{Index: p.next, ID: id}
			p.next++
			return ph, true, nil
		case tagEndOfFile:
			eof, err := p.r.AtEOF()
			if err != nil {
				return Preheader{}, false, err
			}
			if !eof {
				return Preheader{}, false, errors.New(errors.ErrCodeFormat, "trailing bytes after end of file").WithOffset(p.r.Offset())
			}
			return Preheader{}, false, nil
		default:
			return Preheader{}, false, errors.New(errors.ErrCodeFormat, "unknown record tag 0x%02x", tag).WithOffset(start)
		}
	}
}

func (p *Parser) readGroup() (Group, error) {
	var g Group
	var err error
	if g.Name, err = p.readPoolString(false); err != nil {
		return Group{}, err
	}
	if g.ShortName, err = p.readPoolString(false); err != nil {
		return Group{}, err
	}
	if g.Method, err = p.readPoolObjectOf(PoolMethod, true, false); err != nil {
		return Group{}, err
	}
	bci, err := p.readInt()
	if err != nil {
		return Group{}, err
	}
	g.BCI = int(bci)
	g.Props = props.NewMap()
	if p.layout.groupProps {
		if g.Props, err = p.readProps(false); err != nil {
			return Group{}, err
		}
	}
	return g, nil
}

// ReadSnapshotHeader decodes the header of the current snapshot.
func (p *Parser) ReadSnapshotHeader() (*Header, error) {
	if err := p.expect(statePreheader, "ReadSnapshotHeader"); err != nil {
		return nil, err
	}
	h, err := p.readHeader(false)
	if err != nil {
		return nil, p.fail(err)
	}
	h.Groups = append([]Group(nil), p.groups...)
	p.header = h
	p.state = stateHeader
	return h, nil
}

// SkipSnapshotHeader consumes the header of the current snapshot without
// building it. It consumes the same bytes, and fails with the same errors,
// as [Parser.ReadSnapshotHeader].
func (p *Parser) SkipSnapshotHeader() error {
	if err := p.expect(statePreheader, "SkipSnapshotHeader"); err != nil {
		return err
	}
	if _, err := p.readHeader(true); err != nil {
		return p.fail(err)
	}
	p.header = nil
	p.state = stateHeader
	return nil
}

func (p *Parser) readHeader(skip bool) (*Header, error) {
	format, err := p.readString(skip)
	if err != nil {
		return nil, err
	}
	n, err := p.readCount()
	if err != nil {
		return nil, err
	}
	var args []props.Value
	if !skip {
		args = make([]props.Value, 0, min(n, 64))
	}
	for range n {
		v, err := p.readPropValue(skip)
		if err != nil {
			return nil, err
		}
		if !skip {
			args = append(args, v)
		}
	}
	m, err := p.readProps(skip)
	if err != nil {
		return nil, err
	}
	if skip {
		return nil, nil
	}
	return &Header{Format: format, Args: args, Props: m}, nil
}

// ReadSnapshot decodes the body of the current snapshot into a graph. The
// graph's properties carry the snapshot id and index and, when the header
// was read rather than skipped, its display name, phase and header
// properties. No partial graph is returned on failure.
func (p *Parser) ReadSnapshot() (*graph.Graph, error) {
	if err := p.expect(stateHeader, "ReadSnapshot"); err != nil {
		return nil, err
	}
	g, err := p.readBody(false)
	if err != nil {
		return nil, p.fail(err)
	}
	p.state = stateReady
	p.logger.Debug("decoded snapshot",
		"index", p.current.Index,
		"id", p.current.ID,
		"nodes", g.NodeCount(),
		"edges", g.EdgeCount())
	return g, nil
}

// SkipSnapshot consumes the body of the current snapshot without building
// nodes or edges. It consumes the same bytes, and fails with the same
// errors, as [Parser.ReadSnapshot].
func (p *Parser) SkipSnapshot() error {
	if err := p.expect(stateHeader, "SkipSnapshot"); err != nil {
		return err
	}
	if _, err := p.readBody(true); err != nil {
		return p.fail(err)
	}
	p.state = stateReady
	return nil
}

func (p *Parser) expect(s state, op string) error {
	if p.state == s {
		return nil
	}
	return errors.New(errors.ErrCodeInvalidState, "%s called in state %s", op, p.state)
}

func (p *Parser) fail(err error) error {
	p.state = stateFailed
	return err
}

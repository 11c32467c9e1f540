package bgv

import (
	"strconv"

	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/props"
)

// PoolType is the kind of a constant pool entry. On the wire it doubles as
// the reference tag naming the expected kind.
type PoolType uint8

const (
	PoolString         PoolType = 0x01
	PoolEnum           PoolType = 0x02
	PoolClass          PoolType = 0x03
	PoolMethod         PoolType = 0x04
	PoolNodeClass      PoolType = 0x06
	PoolField          PoolType = 0x07
	PoolSignature      PoolType = 0x08
	PoolSourcePosition PoolType = 0x09
	PoolNode           PoolType = 0x0A
)

var poolTypeNames = map[PoolType]string{
	PoolString:         "string",
	PoolEnum:           "enum",
	PoolClass:          "class",
	PoolMethod:         "method",
	PoolNodeClass:      "node_class",
	PoolField:          "field",
	PoolSignature:      "signature",
	PoolSourcePosition: "node_source_position",
	PoolNode:           "node",
}

func (t PoolType) String() string {
	if s, ok := poolTypeNames[t]; ok {
		return s
	}
	return "pool_type(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

func (t PoolType) valid() bool {
	_, ok := poolTypeNames[t]
	return ok
}

// Constant is one decoded pool entry.
type Constant struct {
	Type  PoolType
	Value props.Value
}

// PoolObserver is called after every pool insertion.
type PoolObserver func(id int, c Constant)

// Pool maps reassignable integer ids to decoded constants for the duration
// of one decode session. Later writes to an id replace earlier ones.
type Pool struct {
	entries  map[int]Constant
	observer PoolObserver
}

// NewPool returns an empty pool. observer may be nil.
func NewPool(observer PoolObserver) *Pool {
	return &Pool{entries: make(map[int]Constant), observer: observer}
}

// Set stores c under id, replacing any previous entry, and notifies the
// observer.
func (p *Pool) Set(id int, c Constant) {
	p.entries[id] = c
	if p.observer != nil {
		p.observer(id, c)
	}
}

// Get returns the current entry for id. It fails with DECODE when id was
// never set.
func (p *Pool) Get(id int) (Constant, error) {
	c, ok := p.entries[id]
	if !ok {
		return Constant{}, errors.New(errors.ErrCodeDecode, "pool id %d referenced before it was set", id)
	}
	return c, nil
}

// Len returns the number of live entries.
func (p *Pool) Len() int { return len(p.entries) }

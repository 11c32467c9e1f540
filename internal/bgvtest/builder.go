// Package bgvtest writes graph dump streams for tests.
//
// [Builder] emits records in the layout of a chosen format version and
// interns pool constants the way a real encoder does: the first use of a
// constant defines it inline, later uses reference its pool id.
package bgvtest

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Record and pool tags.
const (
	TagBeginGroup = 0x00
	TagBeginGraph = 0x01
	TagCloseGroup = 0x02
	TagPoolEntry  = 0x03
	TagEndOfFile  = 0x7f
	TagNode       = 0x10
	TagInputEdge  = 0x11
	TagOutputEdge = 0x12
	TagEndGraph   = 0x1f

	PoolNew       = 0x00
	PoolString    = 0x01
	PoolEnum      = 0x02
	PoolClass     = 0x03
	PoolMethod    = 0x04
	PoolNull      = 0x05
	PoolNodeClass = 0x06
	PoolField     = 0x07
	PoolSignature = 0x08
	PoolNode      = 0x0a
)

// Builder accumulates a dump stream.
type Builder struct {
	buf bytes.Buffer

	varints     bool
	predecessor bool
	groupProps  bool
	edgeIndex   bool

	interned map[string]int
	nextPool int
}

// New returns a builder whose stream starts with the file header for
// major.minor.
func New(major, minor int) *Builder {
	b := NewRaw(major, minor)
	b.buf.WriteString("BIGV")
	b.U8(byte(major))
	b.U8(byte(minor))
	return b
}

// NewRaw returns a builder using the layout of major.minor that writes no
// file header.
func NewRaw(major, minor int) *Builder {
	v := major*100 + minor
	return &Builder{
		varints:     v >= 700,
		predecessor: v >= 601,
		groupProps:  v >= 700,
		edgeIndex:   v >= 800,
		interned:    make(map[string]int),
	}
}

// Bytes returns the stream written so far.
func (b *Builder) Bytes() []byte { return bytes.Clone(b.buf.Bytes()) }

// Len returns the number of bytes written so far.
func (b *Builder) Len() int { return b.buf.Len() }

// =============================================================================
// Primitives
// =============================================================================

func (b *Builder) U8(v byte) *Builder { b.buf.WriteByte(v); return b }

func (b *Builder) U16(v uint16) *Builder {
	b.buf.Write(binary.BigEndian.AppendUint16(nil, v))
	return b
}

func (b *Builder) S32(v int32) *Builder {
	b.buf.Write(binary.BigEndian.AppendUint32(nil, uint32(v)))
	return b
}

func (b *Builder) S64(v int64) *Builder {
	b.buf.Write(binary.BigEndian.AppendUint64(nil, uint64(v)))
	return b
}

func (b *Builder) F32(v float32) *Builder {
	b.buf.Write(binary.BigEndian.AppendUint32(nil, math.Float32bits(v)))
	return b
}

func (b *Builder) F64(v float64) *Builder {
	b.buf.Write(binary.BigEndian.AppendUint64(nil, math.Float64bits(v)))
	return b
}

func (b *Builder) Uvarint(v uint64) *Builder {
	b.buf.Write(binary.AppendUvarint(nil, v))
	return b
}

func (b *Builder) Varint(v int64) *Builder {
	b.buf.Write(binary.AppendVarint(nil, v))
	return b
}

func (b *Builder) Raw(p ...byte) *Builder { b.buf.Write(p); return b }

// =============================================================================
// Layout-dependent fields
// =============================================================================

func (b *Builder) WriteID(v int) *Builder {
	if b.varints {
		return b.Uvarint(uint64(v))
	}
	return b.S32(int32(v))
}

func (b *Builder) WriteCount(v int) *Builder { return b.WriteID(v) }

func (b *Builder) WriteMapCount(v int) *Builder {
	if b.varints {
		return b.Uvarint(uint64(v))
	}
	return b.U16(uint16(v))
}

func (b *Builder) WritePoolID(v int) *Builder {
	if b.varints {
		return b.Uvarint(uint64(v))
	}
	return b.U16(uint16(v))
}

func (b *Builder) WriteInt(v int64) *Builder {
	if b.varints {
		return b.Varint(v)
	}
	return b.S32(int32(v))
}

func (b *Builder) WriteLong(v int64) *Builder {
	if b.varints {
		return b.Varint(v)
	}
	return b.S64(v)
}

func (b *Builder) WriteString(s string) *Builder {
	b.WriteID(len(s))
	b.buf.WriteString(s)
	return b
}

// =============================================================================
// Pool objects
// =============================================================================

// intern writes a reference when key was defined before, otherwise a new
// definition whose payload is written by body.
func (b *Builder) intern(key string, typ byte, body func()) *Builder {
	if id, ok := b.interned[key]; ok {
		b.U8(typ)
		return b.WritePoolID(id)
	}
	id := b.nextPool
	b.nextPool++
	b.U8(PoolNew).WritePoolID(id).U8(typ)
	body()
	b.interned[key] = id
	return b
}

// Ref writes a reference to pool id with the given type tag.
func (b *Builder) Ref(typ byte, id int) *Builder {
	return b.U8(typ).WritePoolID(id)
}

// NullObj writes a null pool object.
func (b *Builder) NullObj() *Builder { return b.U8(PoolNull) }

func (b *Builder) StringObj(s string) *Builder {
	return b.intern("s:"+s, PoolString, func() { b.WriteString(s) })
}

func (b *Builder) ClassObj(name string) *Builder {
	return b.intern("c:"+name, PoolClass, func() { b.WriteString(name).U8(0) })
}

func (b *Builder) EnumClassObj(name string, values ...string) *Builder {
	return b.intern("c:"+name, PoolClass, func() {
		b.WriteString(name).U8(1).WriteCount(len(values))
		for _, v := range values {
			b.StringObj(v)
		}
	})
}

func (b *Builder) EnumObj(class string, values []string, ordinal int) *Builder {
	return b.intern("e:"+class+":"+values[ordinal], PoolEnum, func() {
		b.EnumClassObj(class, values...)
		b.WriteInt(int64(ordinal))
	})
}

func (b *Builder) SignatureObj(ret string, args ...string) *Builder {
	key := "g:" + ret
	for _, a := range args {
		key += "," + a
	}
	return b.intern(key, PoolSignature, func() {
		b.WriteCount(len(args))
		for _, a := range args {
			b.ClassObj(a)
		}
		b.ClassObj(ret)
	})
}

func (b *Builder) MethodObj(class, name string) *Builder {
	return b.intern("m:"+class+"."+name, PoolMethod, func() {
		b.ClassObj(class)
		b.StringObj(name)
		b.SignatureObj("int", "int")
		b.WriteInt(9)
		b.WriteInt(4)
		b.Raw(0x1a, 0x05, 0xa2, 0xac)
	})
}

func (b *Builder) FieldObj(class, name, typ string) *Builder {
	return b.intern("f:"+class+"."+name, PoolField, func() {
		b.ClassObj(class)
		b.StringObj(name)
		b.ClassObj(typ)
		b.WriteInt(2)
	})
}

func (b *Builder) NodeClassObj(class, template string) *Builder {
	return b.intern("n:"+class, PoolNodeClass, func() {
		b.ClassObj(class)
		b.WriteString(template)
	})
}

// DefineString writes a top-level pool entry that stores s under id,
// replacing whatever the builder had interned there.
func (b *Builder) DefineString(id int, s string) *Builder {
	for k, v := range b.interned {
		if v == id {
			delete(b.interned, k)
		}
	}
	b.U8(TagPoolEntry).U8(PoolNew).WritePoolID(id).U8(PoolString).WriteString(s)
	b.interned["s:"+s] = id
	if id >= b.nextPool {
		b.nextPool = id + 1
	}
	return b
}

// =============================================================================
// Property values
// =============================================================================

// Value writes one tagged property value.
type Value func(b *Builder)

// Prop is one key/value pair of a property map.
type Prop struct {
	Key string
	Val Value
}

// P returns a property.
func P(key string, v Value) Prop { return Prop{Key: key, Val: v} }

func Int(v int64) Value      { return func(b *Builder) { b.U8(0x01).WriteInt(v) } }
func Long(v int64) Value     { return func(b *Builder) { b.U8(0x02).WriteLong(v) } }
func Double(v float64) Value { return func(b *Builder) { b.U8(0x03).F64(v) } }
func Float(v float32) Value  { return func(b *Builder) { b.U8(0x04).F32(v) } }
func Null() Value            { return func(b *Builder) { b.U8(0x00).NullObj() } }
func Str(s string) Value     { return func(b *Builder) { b.U8(0x00).StringObj(s) } }

func Bool(v bool) Value {
	return func(b *Builder) {
		if v {
			b.U8(0x05)
		} else {
			b.U8(0x06)
		}
	}
}

func Method(class, name string) Value {
	return func(b *Builder) { b.U8(0x00).MethodObj(class, name) }
}

func Field(class, name, typ string) Value {
	return func(b *Builder) { b.U8(0x00).FieldObj(class, name, typ) }
}

func Enum(class string, values []string, ordinal int) Value {
	return func(b *Builder) { b.U8(0x00).EnumObj(class, values, ordinal) }
}

func Ints(vs ...int64) Value {
	return func(b *Builder) {
		b.U8(0x07).U8(0x01).WriteCount(len(vs))
		for _, v := range vs {
			b.WriteInt(v)
		}
	}
}

func Doubles(vs ...float64) Value {
	return func(b *Builder) {
		b.U8(0x07).U8(0x03).WriteCount(len(vs))
		for _, v := range vs {
			b.F64(v)
		}
	}
}

func Strs(vs ...string) Value {
	return func(b *Builder) {
		b.U8(0x07).U8(0x00).WriteCount(len(vs))
		for _, v := range vs {
			b.StringObj(v)
		}
	}
}

func Map(ps ...Prop) Value {
	return func(b *Builder) { b.U8(0x08).Props(ps...) }
}

// Props writes a property map.
func (b *Builder) Props(ps ...Prop) *Builder {
	b.WriteMapCount(len(ps))
	for _, p := range ps {
		b.StringObj(p.Key)
		p.Val(b)
	}
	return b
}

// =============================================================================
// Records
// =============================================================================

// BeginGroup opens a group for method class.name. Group props are written
// only when the layout carries them.
func (b *Builder) BeginGroup(name, short, class, method string, ps ...Prop) *Builder {
	b.U8(TagBeginGroup).StringObj(name).StringObj(short)
	if class == "" {
		b.NullObj()
	} else {
		b.MethodObj(class, method)
	}
	b.WriteInt(-1)
	if b.groupProps {
		b.Props(ps...)
	}
	return b
}

func (b *Builder) CloseGroup() *Builder { return b.U8(TagCloseGroup) }

// BeginGraph starts a snapshot with its header.
func (b *Builder) BeginGraph(id int, format string, args []Value, ps ...Prop) *Builder {
	b.U8(TagBeginGraph).WriteID(id).WriteString(format).WriteCount(len(args))
	for _, a := range args {
		a(b)
	}
	return b.Props(ps...)
}

// Node writes a node record. hasPred is written only when the layout
// carries it.
func (b *Builder) Node(id int, class, template string, hasPred bool, ps ...Prop) *Builder {
	b.U8(TagNode).WriteID(id).NodeClassObj(class, template)
	if b.predecessor {
		if hasPred {
			b.U8(1)
		} else {
			b.U8(0)
		}
	}
	return b.Props(ps...)
}

// InputEdge writes an edge other→owner. index is written only when the
// layout carries it.
func (b *Builder) InputEdge(other, index int, ps ...Prop) *Builder {
	return b.edge(TagInputEdge, other, index, ps)
}

// OutputEdge writes an edge owner→other.
func (b *Builder) OutputEdge(other, index int, ps ...Prop) *Builder {
	return b.edge(TagOutputEdge, other, index, ps)
}

func (b *Builder) edge(tag byte, other, index int, ps []Prop) *Builder {
	b.U8(tag).WriteID(other)
	if b.edgeIndex {
		b.WriteID(index)
	}
	return b.Props(ps...)
}

func (b *Builder) EndGraph() *Builder  { return b.U8(TagEndGraph) }
func (b *Builder) EndOfFile() *Builder { return b.U8(TagEndOfFile) }

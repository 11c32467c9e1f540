package bgv

import (
	"math"
	"strconv"

	"github.com/matzehuels/seafoam/pkg/errors"
	"github.com/matzehuels/seafoam/pkg/props"
)

// Pool object tags besides the type tags.
const (
	poolNew  = 0x00
	poolNull = 0x05
)

// Property value tags.
const (
	propPool   = 0x00
	propInt    = 0x01
	propLong   = 0x02
	propDouble = 0x03
	propFloat  = 0x04
	propTrue   = 0x05
	propFalse  = 0x06
	propArray  = 0x07
	propMap    = 0x08
)

// MaxStringLength bounds every length-prefixed string or byte run.
const MaxStringLength = 64 << 20

// =============================================================================
// Layout-dependent scalars
// =============================================================================

func (p *Parser) readUnsigned(what string) (int, error) {
	start := p.r.Offset()
	if p.layout.varints {
		v, err := p.r.Uvarint()
		if err != nil {
			return 0, err
		}
		if v > math.MaxInt32 {
			return 0, errors.New(errors.ErrCodeDecode, "%s %d out of range", what, v).WithOffset(start)
		}
		return int(v), nil
	}
	v, err := p.r.S32()
	if err != nil {
		return 0, err
	}
	if v < 0 {
		return 0, errors.New(errors.ErrCodeDecode, "negative %s %d", what, v).WithOffset(start)
	}
	return int(v), nil
}

func (p *Parser) readID() (int, error)    { return p.readUnsigned("id") }
func (p *Parser) readCount() (int, error) { return p.readUnsigned("count") }

func (p *Parser) readMapCount() (int, error) {
	if p.layout.varints {
		return p.readUnsigned("property count")
	}
	v, err := p.r.U16()
	return int(v), err
}

func (p *Parser) readPoolID() (int, error) {
	if p.layout.varints {
		return p.readUnsigned("pool id")
	}
	v, err := p.r.U16()
	return int(v), err
}

func (p *Parser) readInt() (int64, error) {
	if p.layout.varints {
		return p.r.Varint()
	}
	v, err := p.r.S32()
	return int64(v), err
}

func (p *Parser) readLong() (int64, error) {
	if p.layout.varints {
		return p.r.Varint()
	}
	return p.r.S64()
}

func (p *Parser) readLength() (int, error) {
	start := p.r.Offset()
	n, err := p.readUnsigned("length")
	if err != nil {
		return 0, err
	}
	if n > MaxStringLength {
		return 0, errors.New(errors.ErrCodeDecode, "length %d exceeds limit", n).WithOffset(start)
	}
	return n, nil
}

func (p *Parser) readString(skip bool) (string, error) {
	n, err := p.readLength()
	if err != nil {
		return "", err
	}
	if skip {
		return "", p.r.Discard(n)
	}
	b, err := p.r.Bytes(n)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// =============================================================================
// Pool objects
// =============================================================================

// readPoolEntry decodes a top-level or in-body POOL_ENTRY record, which must
// define a new constant.
func (p *Parser) readPoolEntry() error {
	start := p.r.Offset()
	tag, err := p.r.U8()
	if err != nil {
		return err
	}
	if tag != poolNew {
		return errors.New(errors.ErrCodeFormat, "pool entry record with tag 0x%02x, want a new definition", tag).WithOffset(start)
	}
	_, _, err = p.readPoolDefinition()
	return err
}

// readPoolObject decodes a new definition, a null, or a reference to an
// existing pool slot. ok is false for null.
func (p *Parser) readPoolObject() (id int, c Constant, ok bool, err error) {
	start := p.r.Offset()
	tag, err := p.r.U8()
	if err != nil {
		return 0, Constant{}, false, err
	}
	switch tag {
	case poolNull:
		return -1, Constant{}, false, nil
	case poolNew:
		id, c, err = p.readPoolDefinition()
		return id, c, err == nil, err
	}

	want := PoolType(tag)
	if !want.valid() {
		return 0, Constant{}, false, errors.New(errors.ErrCodeFormat, "unknown pool tag 0x%02x", tag).WithOffset(start)
	}
	if id, err = p.readPoolID(); err != nil {
		return 0, Constant{}, false, err
	}
	if c, err = p.pool.Get(id); err != nil {
		return 0, Constant{}, false, err.(*errors.Error).WithOffset(start)
	}
	if c.Type != want {
		return 0, Constant{}, false, errors.New(errors.ErrCodeDecode,
			"pool id %d holds a %s, referenced as %s", id, c.Type, want).WithOffset(start)
	}
	return id, c, true, nil
}

func (p *Parser) readPoolDefinition() (int, Constant, error) {
	id, err := p.readPoolID()
	if err != nil {
		return 0, Constant{}, err
	}
	typeOff := p.r.Offset()
	b, err := p.r.U8()
	if err != nil {
		return 0, Constant{}, err
	}
	typ := PoolType(b)
	if !typ.valid() || (typ == PoolSourcePosition && !p.layout.sourcePositions) {
		return 0, Constant{}, errors.New(errors.ErrCodeFormat, "unknown pool type 0x%02x", b).WithOffset(typeOff)
	}
	v, err := p.readPoolPayload(typ)
	if err != nil {
		return 0, Constant{}, err
	}
	c := Constant{Type: typ, Value: v}
	p.pool.Set(id, c)
	return id, c, nil
}

// readPoolObjectOf decodes a pool object that must be of type want. In skip
// mode the value is validated but not returned.
func (p *Parser) readPoolObjectOf(want PoolType, nullable, skip bool) (props.Value, error) {
	start := p.r.Offset()
	id, c, ok, err := p.readPoolObject()
	if err != nil {
		return props.Value{}, err
	}
	if !ok {
		if nullable {
			return props.Null(), nil
		}
		return props.Value{}, errors.New(errors.ErrCodeDecode, "expected %s, got null", want).WithOffset(start)
	}
	if c.Type != want {
		return props.Value{}, errors.New(errors.ErrCodeDecode, "expected %s, got %s", want, c.Type).WithOffset(start)
	}
	if skip {
		return props.Null(), nil
	}
	return props.PoolRef(id, c.Type.String(), c.Value), nil
}

// readPoolString decodes a nullable string pool object.
func (p *Parser) readPoolString(skip bool) (string, error) {
	v, err := p.readPoolObjectOf(PoolString, true, skip)
	if err != nil {
		return "", err
	}
	s, _ := v.AsString()
	return s, nil
}

// nested decodes a pool object embedded in another constant and returns
// its plain value. Classes flatten to their type name.
func (p *Parser) nested(want PoolType, nullable bool) (props.Value, error) {
	v, err := p.readPoolObjectOf(want, nullable, false)
	if err != nil {
		return props.Value{}, err
	}
	return flatten(v), nil
}

// typeName decodes a type descriptor that may be either a class or a
// string.
func (p *Parser) typeName() (props.Value, error) {
	start := p.r.Offset()
	_, c, ok, err := p.readPoolObject()
	if err != nil {
		return props.Value{}, err
	}
	if !ok {
		return props.Null(), nil
	}
	if c.Type != PoolClass && c.Type != PoolString {
		return props.Value{}, errors.New(errors.ErrCodeDecode, "expected a type, got %s", c.Type).WithOffset(start)
	}
	return flatten(c.Value), nil
}

func flatten(v props.Value) props.Value {
	v = v.Deref()
	if m, ok := v.AsMap(); ok {
		if name, ok := m.Get("type_name"); ok {
			return name
		}
	}
	return v
}

func (p *Parser) readPoolPayload(typ PoolType) (props.Value, error) {
	switch typ {
	case PoolString:
		s, err := p.readString(false)
		if err != nil {
			return props.Value{}, err
		}
		return props.String(s), nil

	case PoolEnum:
		cls, err := p.readPoolObjectOf(PoolClass, false, false)
		if err != nil {
			return props.Value{}, err
		}
		ordinal, err := p.readInt()
		if err != nil {
			return props.Value{}, err
		}
		cm, _ := cls.AsMap()
		e := props.Enum{Class: cm.StringOr("type_name", ""), Ordinal: int(ordinal), Name: strconv.FormatInt(ordinal, 10)}
		if values, ok := cm.Lookup("enum_values").AsList(); ok && ordinal >= 0 && ordinal < int64(len(values)) {
			e.Name = values[ordinal].String()
		}
		return props.EnumOf(e), nil

	case PoolClass:
		name, err := p.readString(false)
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("type_name", props.String(name))
		kindOff := p.r.Offset()
		kind, err := p.r.U8()
		if err != nil {
			return props.Value{}, err
		}
		switch kind {
		case 0:
		case 1:
			n, err := p.readCount()
			if err != nil {
				return props.Value{}, err
			}
			values := make([]props.Value, 0, min(n, 64))
			for range n {
				v, err := p.nested(PoolString, false)
				if err != nil {
					return props.Value{}, err
				}
				values = append(values, v)
			}
			m.Set("enum_values", props.List(values...))
		default:
			return props.Value{}, errors.New(errors.ErrCodeDecode, "invalid class kind %d", kind).WithOffset(kindOff)
		}
		return props.MapOf(m), nil

	case PoolMethod:
		decl, err := p.nested(PoolClass, false)
		if err != nil {
			return props.Value{}, err
		}
		name, err := p.nested(PoolString, false)
		if err != nil {
			return props.Value{}, err
		}
		sig, err := p.nested(PoolSignature, false)
		if err != nil {
			return props.Value{}, err
		}
		mods, err := p.readInt()
		if err != nil {
			return props.Value{}, err
		}
		lenOff := p.r.Offset()
		codeLen, err := p.readInt()
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("declaring_class", decl)
		m.Set("method_name", name)
		m.Set("signature", sig)
		m.Set("modifiers", props.Int(mods))
		switch {
		case codeLen == -1:
		case codeLen < -1 || codeLen > MaxStringLength:
			return props.Value{}, errors.New(errors.ErrCodeDecode, "invalid bytecode length %d", codeLen).WithOffset(lenOff)
		default:
			if err := p.r.Discard(int(codeLen)); err != nil {
				return props.Value{}, err
			}
			m.Set("bytecode_size", props.Int(codeLen))
		}
		return props.MapOf(m), nil

	case PoolNodeClass:
		cls, err := p.nested(PoolClass, false)
		if err != nil {
			return props.Value{}, err
		}
		tmpl, err := p.readString(false)
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("node_class", cls)
		m.Set("name_template", props.String(tmpl))
		return props.MapOf(m), nil

	case PoolField:
		decl, err := p.nested(PoolClass, false)
		if err != nil {
			return props.Value{}, err
		}
		name, err := p.nested(PoolString, false)
		if err != nil {
			return props.Value{}, err
		}
		typ, err := p.typeName()
		if err != nil {
			return props.Value{}, err
		}
		mods, err := p.readInt()
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("declaring_class", decl)
		m.Set("field_name", name)
		m.Set("field_type", typ)
		m.Set("modifiers", props.Int(mods))
		return props.MapOf(m), nil

	case PoolSignature:
		n, err := p.readCount()
		if err != nil {
			return props.Value{}, err
		}
		args := make([]props.Value, 0, min(n, 64))
		for range n {
			t, err := p.typeName()
			if err != nil {
				return props.Value{}, err
			}
			args = append(args, t)
		}
		ret, err := p.typeName()
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("args", props.List(args...))
		m.Set("ret", ret)
		return props.MapOf(m), nil

	case PoolSourcePosition:
		method, err := p.nested(PoolMethod, true)
		if err != nil {
			return props.Value{}, err
		}
		bci, err := p.readInt()
		if err != nil {
			return props.Value{}, err
		}
		caller, err := p.nested(PoolSourcePosition, true)
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("method", method)
		m.Set("bci", props.Int(bci))
		m.Set("caller", caller)
		return props.MapOf(m), nil

	case PoolNode:
		id, err := p.readID()
		if err != nil {
			return props.Value{}, err
		}
		cls, err := p.nested(PoolNodeClass, false)
		if err != nil {
			return props.Value{}, err
		}
		m := props.NewMap()
		m.Set("id", props.Int(int64(id)))
		m.Set("node_class", cls)
		return props.MapOf(m), nil
	}
	return props.Value{}, errors.New(errors.ErrCodeInternal, "unhandled pool type %s", typ)
}

// =============================================================================
// Property values and maps
// =============================================================================

func (p *Parser) readPropValue(skip bool) (props.Value, error) {
	start := p.r.Offset()
	tag, err := p.r.U8()
	if err != nil {
		return props.Value{}, err
	}
	switch tag {
	case propPool:
		id, c, ok, err := p.readPoolObject()
		if err != nil || skip || !ok {
			return props.Null(), err
		}
		return props.PoolRef(id, c.Type.String(), c.Value), nil
	case propInt:
		v, err := p.readInt()
		return props.Int(v), err
	case propLong:
		v, err := p.readLong()
		return props.Int(v), err
	case propDouble:
		v, err := p.r.F64()
		return props.Float(v), err
	case propFloat:
		v, err := p.r.F32()
		return props.Float(float64(v)), err
	case propTrue:
		return props.Bool(true), nil
	case propFalse:
		return props.Bool(false), nil
	case propArray:
		return p.readArray(skip)
	case propMap:
		m, err := p.readProps(skip)
		if err != nil || skip {
			return props.Null(), err
		}
		return props.MapOf(m), nil
	}
	return props.Value{}, errors.New(errors.ErrCodeFormat, "unknown property type 0x%02x", tag).WithOffset(start)
}

func (p *Parser) readArray(skip bool) (props.Value, error) {
	start := p.r.Offset()
	elem, err := p.r.U8()
	if err != nil {
		return props.Value{}, err
	}
	if elem != propInt && elem != propDouble && elem != propPool {
		return props.Value{}, errors.New(errors.ErrCodeFormat, "unknown array element type 0x%02x", elem).WithOffset(start)
	}
	n, err := p.readCount()
	if err != nil {
		return props.Value{}, err
	}
	var out []props.Value
	if !skip {
		out = make([]props.Value, 0, min(n, 64))
	}
	for range n {
		var v props.Value
		switch elem {
		case propInt:
			var i int64
			i, err = p.readInt()
			v = props.Int(i)
		case propDouble:
			var f float64
			f, err = p.r.F64()
			v = props.Float(f)
		case propPool:
			var (
				id int
				c  Constant
				ok bool
			)
			id, c, ok, err = p.readPoolObject()
			if ok {
				v = props.PoolRef(id, c.Type.String(), c.Value)
			}
		}
		if err != nil {
			return props.Value{}, err
		}
		if !skip {
			out = append(out, v)
		}
	}
	if skip {
		return props.Null(), nil
	}
	return props.List(out...), nil
}

// readProps decodes a property map. In skip mode it returns nil.
func (p *Parser) readProps(skip bool) (*props.Map, error) {
	n, err := p.readMapCount()
	if err != nil {
		return nil, err
	}
	var m *props.Map
	if !skip {
		m = props.NewMap()
	}
	for range n {
		kv, err := p.readPoolObjectOf(PoolString, false, skip)
		if err != nil {
			return nil, err
		}
		v, err := p.readPropValue(skip)
		if err != nil {
			return nil, err
		}
		if !skip {
			key, _ := kv.AsString()
			m.Set(key, v)
		}
	}
	return m, nil
}

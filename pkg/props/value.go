package props

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Kind identifies which variant a [Value] holds.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindEnum
	KindPool
	KindList
	KindMap
)

var kindNames = [...]string{"null", "bool", "int", "float", "string", "enum", "pool", "list", "map"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// Enum is a symbolic constant: an ordinal within a named enum class.
type Enum struct {
	Class   string
	Ordinal int
	Name    string
}

// Ref is a value that was decoded through the constant pool. Target is the
// constant as it stood when the reference was decoded; later overwrites of
// the same pool slot do not affect it.
type Ref struct {
	ID     int
	Type   string
	Target Value
}

// Value is a tagged union over the property value variants. The zero value
// is null.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	enum *Enum
	ref  *Ref
	list []Value
	m    *Map
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int returns a signed integer value.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float returns a floating point value.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// EnumOf returns a symbolic constant value.
func EnumOf(e Enum) Value { return Value{kind: KindEnum, enum: &e} }

// PoolRef returns a value that refers to pool slot id holding target.
func PoolRef(id int, typ string, target Value) Value {
	return Value{kind: KindPool, ref: &Ref{ID: id, Type: typ, Target: target}}
}

// List returns an ordered list value.
func List(vs ...Value) Value { return Value{kind: KindList, list: vs} }

// MapOf returns a nested map value.
func MapOf(m *Map) Value {
	if m == nil {
		m = NewMap()
	}
	return Value{kind: KindMap, m: m}
}

// Kind reports the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v, after following pool references, is null.
func (v Value) IsNull() bool { return v.Deref().kind == KindNull }

// Deref follows pool references until a non-reference value is reached.
func (v Value) Deref() Value {
	for v.kind == KindPool {
		v = v.ref.Target
	}
	return v
}

// Ref returns the pool reference held by v, if any.
func (v Value) Ref() (Ref, bool) {
	if v.kind != KindPool {
		return Ref{}, false
	}
	return *v.ref, true
}

// AsBool returns the boolean held by v, following pool references.
func (v Value) AsBool() (bool, bool) {
	v = v.Deref()
	return v.b, v.kind == KindBool
}

// AsInt returns the integer held by v, following pool references.
func (v Value) AsInt() (int64, bool) {
	v = v.Deref()
	return v.i, v.kind == KindInt
}

// AsFloat returns the float held by v, following pool references.
func (v Value) AsFloat() (float64, bool) {
	v = v.Deref()
	return v.f, v.kind == KindFloat
}

// AsString returns the string held by v, following pool references.
func (v Value) AsString() (string, bool) {
	v = v.Deref()
	return v.s, v.kind == KindString
}

// AsEnum returns the enum constant held by v, following pool references.
func (v Value) AsEnum() (Enum, bool) {
	v = v.Deref()
	if v.kind != KindEnum {
		return Enum{}, false
	}
	return *v.enum, true
}

// AsList returns the elements held by v, following pool references.
func (v Value) AsList() ([]Value, bool) {
	v = v.Deref()
	return v.list, v.kind == KindList
}

// AsMap returns the nested map held by v, following pool references.
func (v Value) AsMap() (*Map, bool) {
	v = v.Deref()
	return v.m, v.kind == KindMap
}

// Truthy reports whether v counts as set for template and flag purposes:
// anything but null and false.
func (v Value) Truthy() bool {
	v = v.Deref()
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	default:
		return true
	}
}

// String renders v for display.
func (v Value) String() string {
	var sb strings.Builder
	v.writeTo(&sb)
	return sb.String()
}

func (v Value) writeTo(sb *strings.Builder) {
	switch v.kind {
	case KindNull:
		sb.WriteString("null")
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))
	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))
	case KindFloat:
		sb.WriteString(strconv.FormatFloat(v.f, 'g', -1, 64))
	case KindString:
		sb.WriteString(v.s)
	case KindEnum:
		sb.WriteString(v.enum.Name)
	case KindPool:
		v.ref.Target.writeTo(sb)
	case KindList:
		sb.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				sb.WriteString(", ")
			}
			e.writeTo(sb)
		}
		sb.WriteByte(']')
	case KindMap:
		sb.WriteByte('{')
		for i, k := range v.m.keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			v.m.vals[k].writeTo(sb)
		}
		sb.WriteByte('}')
	}
}

// Short renders v compactly: methods as Class.name, fields as Class.name,
// classes by their simple name. Anything else renders as [Value.String].
func (v Value) Short() string {
	v = v.Deref()
	if v.kind != KindMap {
		return v.String()
	}
	m := v.m
	if name, ok := m.GetString("method_name"); ok {
		return SimpleName(m.StringOr("declaring_class", "")) + "." + name
	}
	if name, ok := m.GetString("field_name"); ok {
		return SimpleName(m.StringOr("declaring_class", "")) + "." + name
	}
	if name, ok := m.GetString("type_name"); ok {
		return SimpleName(name)
	}
	return v.String()
}

// SimpleName strips the package qualifier from a dotted type name.
func SimpleName(typeName string) string {
	if i := strings.LastIndexByte(typeName, '.'); i >= 0 {
		return typeName[i+1:]
	}
	return typeName
}

// Equal reports whether v and o hold the same variant and contents. Pool
// references compare by slot id and target.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString:
		return v.s == o.s
	case KindEnum:
		return *v.enum == *o.enum
	case KindPool:
		return v.ref.ID == o.ref.ID && v.ref.Type == o.ref.Type && v.ref.Target.Equal(o.ref.Target)
	case KindList:
		if len(v.list) != len(o.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(o.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		return v.m.Equal(o.m)
	}
	return false
}

// MarshalJSON encodes v as plain JSON. Pool references encode as their
// target, enums as their name, non-finite floats as strings.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsNaN(v.f) || math.IsInf(v.f, 0) {
			return json.Marshal(strconv.FormatFloat(v.f, 'g', -1, 64))
		}
		return json.Marshal(v.f)
	case KindString:
		return json.Marshal(v.s)
	case KindEnum:
		return json.Marshal(v.enum.Name)
	case KindPool:
		return v.ref.Target.MarshalJSON()
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case KindMap:
		return v.m.MarshalJSON()
	}
	return nil, &json.UnsupportedValueError{Str: v.kind.String()}
}

// MarshalYAML implements yaml.Marshaler.
func (v Value) MarshalYAML() (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBool:
		return v.b, nil
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindString:
		return v.s, nil
	case KindEnum:
		return v.enum.Name, nil
	case KindPool:
		return v.ref.Target.MarshalYAML()
	case KindList:
		seq := &yaml.Node{Kind: yaml.SequenceNode}
		for _, e := range v.list {
			n, err := e.yamlNode()
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, n)
		}
		return seq, nil
	case KindMap:
		return v.m.MarshalYAML()
	}
	return nil, nil
}

func (v Value) yamlNode() (*yaml.Node, error) {
	out, err := v.MarshalYAML()
	if err != nil {
		return nil, err
	}
	if n, ok := out.(*yaml.Node); ok {
		return n, nil
	}
	var n yaml.Node
	if err := n.Encode(out); err != nil {
		return nil, err
	}
	return &n, nil
}

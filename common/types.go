package common

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"
)

type Type int8

const (
	// For unresolved expressions and uninitialized Values
	DefaultType Type = iota
	IntType
	FloatType
	StringType
	BoolType
)

// listFlag marks a list type; the low bits carry the element type.
const listFlag Type = 0x10

// ListOf returns the list type whose elements have type t.
func ListOf(t Type) Type {
	Assert(!t.IsList(), "nested list types are not supported")
	return t | listFlag
}

// IsList returns true for list types.
func (t Type) IsList() bool {
	return t&listFlag != 0
}

// Elem returns the element type of a list type.
func (t Type) Elem() Type {
	Assert(t.IsList(), "Elem called on non-list type %s", t)
	return t &^ listFlag
}

// IsNumeric returns true for types that participate in arithmetic.
func (t Type) IsNumeric() bool {
	return t == IntType || t == FloatType
}

func (t Type) String() string {
	if t.IsList() {
		return "list[" + t.Elem().String() + "]"
	}
	switch t {
	case IntType:
		return "int"
	case FloatType:
		return "float"
	case StringType:
		return "string"
	case BoolType:
		return "bool"
	}
	return "unknown"
}

// ParseType is the inverse of Type.String.
func ParseType(s string) (Type, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "list[") && strings.HasSuffix(s, "]") {
		elem, err := ParseType(s[len("list[") : len(s)-1])
		if err != nil {
			return DefaultType, err
		}
		if elem.IsList() {
			return DefaultType, Errorf(SchemaError, "nested list type '%s' is not supported", s)
		}
		return ListOf(elem), nil
	}
	switch s {
	case "int":
		return IntType, nil
	case "float":
		return FloatType, nil
	case "string":
		return StringType, nil
	case "bool":
		return BoolType, nil
	}
	return DefaultType, Errorf(SchemaError, "unknown type '%s'", s)
}

func (t Type) MarshalText() ([]byte, error) {
	if t == DefaultType {
		return nil, Errorf(SchemaError, "cannot serialize an unresolved type")
	}
	return []byte(t.String()), nil
}

func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value represents a data item in a tuple. The zero Value is nil (uninitialized), which is
// NOT the same as a NULL value of some type.
type Value struct {
	t    Type
	null bool
	i    int64
	f    float64
	s    string
	b    bool
	list []Value
}

// IsNil returns true if the Value is nil and uninitialized. This is NOT to be confused with NULL values.
func (v Value) IsNil() bool {
	return v.t == DefaultType
}

// NewIntValue creates a new integer Value.
func NewIntValue(v int64) Value {
	return Value{t: IntType, i: v}
}

// NewFloatValue creates a new float Value.
func NewFloatValue(v float64) Value {
	return Value{t: FloatType, f: v}
}

// NewStringValue creates a new string Value.
func NewStringValue(v string) Value {
	return Value{t: StringType, s: v}
}

// NewBoolValue creates a new boolean Value.
func NewBoolValue(v bool) Value {
	return Value{t: BoolType, b: v}
}

// NewListValue creates a list Value. Every element must be of type elem (or NULL of that type).
func NewListValue(elem Type, values []Value) Value {
	for _, v := range values {
		Assert(v.t == elem, "list element type mismatch: %s vs %s", v.t, elem)
	}
	return Value{t: ListOf(elem), list: values}
}

// NewNullValue creates a NULL of the given type.
func NewNullValue(t Type) Value {
	Assert(t != DefaultType, "NULL must be typed")
	return Value{t: t, null: true}
}

// Type returns the type of the Value.
func (v Value) Type() Type {
	return v.t
}

// IsNull returns true if the Value is NULL.
func (v Value) IsNull() bool {
	return v.null
}

// IntValue returns the underlying (non-NULL) integer.
func (v Value) IntValue() int64 {
	Assert(v.t == IntType, "type mismatch in IntValue")
	Assert(!v.null, "accessing value of NULL int")
	return v.i
}

// FloatValue returns the underlying (non-NULL) float.
func (v Value) FloatValue() float64 {
	Assert(v.t == FloatType, "type mismatch in FloatValue")
	Assert(!v.null, "accessing value of NULL float")
	return v.f
}

// StringValue returns the underlying (non-NULL) string.
func (v Value) StringValue() string {
	Assert(v.t == StringType, "type mismatch in StringValue")
	Assert(!v.null, "accessing value of NULL string")
	return v.s
}

// BoolValue returns the underlying (non-NULL) boolean.
func (v Value) BoolValue() bool {
	Assert(v.t == BoolType, "type mismatch in BoolValue")
	Assert(!v.null, "accessing value of NULL bool")
	return v.b
}

// ListValue returns the underlying (non-NULL) list elements. Callers must not modify the slice.
func (v Value) ListValue() []Value {
	Assert(v.t.IsList(), "type mismatch in ListValue")
	Assert(!v.null, "accessing value of NULL list")
	return v.list
}

// AsFloat widens a non-NULL numeric value to float64.
func (v Value) AsFloat() float64 {
	Assert(!v.null, "accessing value of NULL %s", v.t)
	switch v.t {
	case IntType:
		return float64(v.i)
	case FloatType:
		return v.f
	}
	panic(fmt.Sprintf("AsFloat on non-numeric type %s", v.t))
}

// Interface converts the Value to a plain Go value: int64, float64, string, bool, []any, or nil for NULL.
func (v Value) Interface() any {
	if v.null || v.t == DefaultType {
		return nil
	}
	if v.t.IsList() {
		out := make([]any, len(v.list))
		for i, e := range v.list {
			out[i] = e.Interface()
		}
		return out
	}
	switch v.t {
	case IntType:
		return v.i
	case FloatType:
		return v.f
	case StringType:
		return v.s
	case BoolType:
		return v.b
	}
	panic("unreachable")
}

// ValueOf converts a plain Go value into a Value of type t. A nil input produces a NULL.
func ValueOf(t Type, x any) (Value, error) {
	if x == nil {
		return NewNullValue(t), nil
	}
	if t.IsList() {
		items, ok := x.([]any)
		if !ok {
			return Value{}, Errorf(SchemaError, "cannot convert %T to %s", x, t)
		}
		elems := make([]Value, len(items))
		for i, item := range items {
			e, err := ValueOf(t.Elem(), item)
			if err != nil {
				return Value{}, err
			}
			elems[i] = e
		}
		return NewListValue(t.Elem(), elems), nil
	}
	switch t {
	case IntType:
		switch n := x.(type) {
		case int:
			return NewIntValue(int64(n)), nil
		case int32:
			return NewIntValue(int64(n)), nil
		case int64:
			return NewIntValue(n), nil
		}
	case FloatType:
		switch n := x.(type) {
		case float64:
			return NewFloatValue(n), nil
		case float32:
			return NewFloatValue(float64(n)), nil
		case int:
			return NewFloatValue(float64(n)), nil
		case int64:
			return NewFloatValue(float64(n)), nil
		}
	case StringType:
		if s, ok := x.(string); ok {
			return NewStringValue(s), nil
		}
	case BoolType:
		if b, ok := x.(bool); ok {
			return NewBoolValue(b), nil
		}
	}
	return Value{}, Errorf(SchemaError, "cannot convert %T to %s", x, t)
}

// Compare compares two Values.
// Returns -1 if v < other, 0 if v == other, 1 if v > other.
// NULL is considered less than non-NULL values. Int and float compare numerically.
func (v Value) Compare(other Value) int {
	numeric := v.t.IsNumeric() && other.t.IsNumeric()
	Assert(v.t == other.t || numeric, "type mismatch in comparison: %s vs %s", v.t, other.t)

	if v.null && other.null {
		return 0
	}
	if v.null {
		return -1
	}
	if other.null {
		return 1
	}

	if v.t != other.t {
		return cmpOrdered(v.AsFloat(), other.AsFloat())
	}
	if v.t.IsList() {
		for i := 0; i < len(v.list) && i < len(other.list); i++ {
			if c := v.list[i].Compare(other.list[i]); c != 0 {
				return c
			}
		}
		return cmpOrdered(len(v.list), len(other.list))
	}
	switch v.t {
	case IntType:
		return cmpOrdered(v.i, other.i)
	case FloatType:
		return cmpOrdered(v.f, other.f)
	case StringType:
		return cmpOrdered(v.s, other.s)
	case BoolType:
		if v.b == other.b {
			return 0
		}
		if !v.b {
			return -1
		}
		return 1
	}
	panic("unreachable")
}

func cmpOrdered[T int | int64 | float64 | string](a, b T) int {
	if a < b {
		return -1
	}
	if a > b {
		return 1
	}
	return 0
}

// AppendKey appends a canonical byte encoding of v to buf. Two values produce the same encoding
// iff they have the same type and compare equal (NULLs of a type encode identically).
func (v Value) AppendKey(buf []byte) []byte {
	buf = append(buf, byte(v.t))
	if v.null {
		return append(buf, 1)
	}
	buf = append(buf, 0)
	if v.t.IsList() {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.list)))
		for _, e := range v.list {
			buf = e.AppendKey(buf)
		}
		return buf
	}
	switch v.t {
	case IntType:
		buf = binary.LittleEndian.AppendUint64(buf, uint64(v.i))
	case FloatType:
		f := v.f
		if f == 0 {
			// -0.0 == 0.0
			f = 0
		}
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(f))
	case StringType:
		buf = binary.LittleEndian.AppendUint32(buf, uint32(len(v.s)))
		buf = append(buf, v.s...)
	case BoolType:
		if v.b {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return buf
}

func (v Value) String() string {
	if v.t == DefaultType {
		return "<nil>"
	}
	if v.null {
		return "NULL"
	}
	if v.t.IsList() {
		parts := make([]string, len(v.list))
		for i, e := range v.list {
			parts[i] = e.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	switch v.t {
	case StringType:
		return fmt.Sprintf("'%s'", v.s)
	default:
		return fmt.Sprintf("%v", v.Interface())
	}
}

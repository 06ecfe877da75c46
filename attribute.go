package tracekit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrTypeMismatch is returned when an attribute is read back as a kind other
// than the one it stores. Use errors.Is to detect it.
var ErrTypeMismatch = errors.New("tracekit: attribute type mismatch")

// AttributeType identifies the stored kind of an AttributeValue.
type AttributeType int

const (
	AttributeBool AttributeType = iota
	AttributeInt64
	AttributeUint64
	AttributeFloat64
	AttributeString
	AttributeBoolSlice
	AttributeInt64Slice
	AttributeUint64Slice
	AttributeFloat64Slice
	AttributeStringSlice
)

// String returns the canonical name of the attribute type.
func (t AttributeType) String() string {
	switch t {
	case AttributeBool:
		return "bool"
	case AttributeInt64:
		return "int64"
	case AttributeUint64:
		return "uint64"
	case AttributeFloat64:
		return "float64"
	case AttributeString:
		return "string"
	case AttributeBoolSlice:
		return "[]bool"
	case AttributeInt64Slice:
		return "[]int64"
	case AttributeUint64Slice:
		return "[]uint64"
	case AttributeFloat64Slice:
		return "[]float64"
	case AttributeStringSlice:
		return "[]string"
	default:
		return "invalid"
	}
}

// AttributeValue is a closed tagged union over bool, int64, uint64, float64,
// string and homogeneous slices of each. Narrow integer inputs are
// normalized to their 64-bit counterparts at construction. Slice inputs are
// copied on insertion and copied again on read, so stored values never alias
// caller-owned storage.
//
// The zero value is a false bool; construct values with the *Value helpers.
type AttributeValue struct {
	typ      AttributeType
	boolVal  bool
	intVal   int64
	uintVal  uint64
	floatVal float64
	strVal   string
	boolSl   []bool
	intSl    []int64
	uintSl   []uint64
	floatSl  []float64
	strSl    []string
}

// Attributes maps attribute keys to values. Last write wins on key collision.
type Attributes = map[string]AttributeValue

// Type returns the stored kind.
func (v AttributeValue) Type() AttributeType { return v.typ }

// BoolValue stores a boolean.
func BoolValue(b bool) AttributeValue {
	return AttributeValue{typ: AttributeBool, boolVal: b}
}

// IntValue stores a platform int, normalized to int64.
func IntValue(i int) AttributeValue { return Int64Value(int64(i)) }

// Int32Value stores a 32-bit signed integer, normalized to int64.
func Int32Value(i int32) AttributeValue { return Int64Value(int64(i)) }

// Int64Value stores a 64-bit signed integer.
func Int64Value(i int64) AttributeValue {
	return AttributeValue{typ: AttributeInt64, intVal: i}
}

// UintValue stores a platform uint, normalized to uint64.
func UintValue(u uint) AttributeValue { return Uint64Value(uint64(u)) }

// Uint32Value stores a 32-bit unsigned integer, normalized to uint64.
func Uint32Value(u uint32) AttributeValue { return Uint64Value(uint64(u)) }

// Uint64Value stores a 64-bit unsigned integer.
func Uint64Value(u uint64) AttributeValue {
	return AttributeValue{typ: AttributeUint64, uintVal: u}
}

// Float64Value stores a double-precision float.
func Float64Value(f float64) AttributeValue {
	return AttributeValue{typ: AttributeFloat64, floatVal: f}
}

// StringValue stores a UTF-8 string.
func StringValue(s string) AttributeValue {
	return AttributeValue{typ: AttributeString, strVal: s}
}

// BoolSliceValue copies and stores a boolean slice.
func BoolSliceValue(s []bool) AttributeValue {
	cp := make([]bool, len(s))
	copy(cp, s)
	return AttributeValue{typ: AttributeBoolSlice, boolSl: cp}
}

// IntSliceValue copies a platform int slice, normalized to []int64.
func IntSliceValue(s []int) AttributeValue {
	cp := make([]int64, len(s))
	for i, v := range s {
		cp[i] = int64(v)
	}
	return AttributeValue{typ: AttributeInt64Slice, intSl: cp}
}

// Int32SliceValue copies a 32-bit signed slice, normalized to []int64.
func Int32SliceValue(s []int32) AttributeValue {
	cp := make([]int64, len(s))
	for i, v := range s {
		cp[i] = int64(v)
	}
	return AttributeValue{typ: AttributeInt64Slice, intSl: cp}
}

// Int64SliceValue copies and stores a 64-bit signed slice.
func Int64SliceValue(s []int64) AttributeValue {
	cp := make([]int64, len(s))
	copy(cp, s)
	return AttributeValue{typ: AttributeInt64Slice, intSl: cp}
}

// Uint32SliceValue copies a 32-bit unsigned slice, normalized to []uint64.
func Uint32SliceValue(s []uint32) AttributeValue {
	cp := make([]uint64, len(s))
	for i, v := range s {
		cp[i] = uint64(v)
	}
	return AttributeValue{typ: AttributeUint64Slice, uintSl: cp}
}

// Uint64SliceValue copies and stores a 64-bit unsigned slice.
func Uint64SliceValue(s []uint64) AttributeValue {
	cp := make([]uint64, len(s))
	copy(cp, s)
	return AttributeValue{typ: AttributeUint64Slice, uintSl: cp}
}

// Float64SliceValue copies and stores a float slice.
func Float64SliceValue(s []float64) AttributeValue {
	cp := make([]float64, len(s))
	copy(cp, s)
	return AttributeValue{typ: AttributeFloat64Slice, floatSl: cp}
}

// StringSliceValue copies and stores a string slice.
func StringSliceValue(s []string) AttributeValue {
	cp := make([]string, len(s))
	copy(cp, s)
	return AttributeValue{typ: AttributeStringSlice, strSl: cp}
}

func (v AttributeValue) mismatch(want AttributeType) error {
	return fmt.Errorf("%w: stored %s, requested %s", ErrTypeMismatch, v.typ, want)
}

// AsBool returns the stored boolean.
func (v AttributeValue) AsBool() (bool, error) {
	if v.typ != AttributeBool {
		return false, v.mismatch(AttributeBool)
	}
	return v.boolVal, nil
}

// AsInt64 returns the stored signed integer. Values stored through a
// narrower signed constructor read back here; there is no cross-kind
// coercion from unsigned or float kinds.
func (v AttributeValue) AsInt64() (int64, error) {
	if v.typ != AttributeInt64 {
		return 0, v.mismatch(AttributeInt64)
	}
	return v.intVal, nil
}

// AsUint64 returns the stored unsigned integer.
func (v AttributeValue) AsUint64() (uint64, error) {
	if v.typ != AttributeUint64 {
		return 0, v.mismatch(AttributeUint64)
	}
	return v.uintVal, nil
}

// AsFloat64 returns the stored float.
func (v AttributeValue) AsFloat64() (float64, error) {
	if v.typ != AttributeFloat64 {
		return 0, v.mismatch(AttributeFloat64)
	}
	return v.floatVal, nil
}

// AsString returns the stored string.
func (v AttributeValue) AsString() (string, error) {
	if v.typ != AttributeString {
		return "", v.mismatch(AttributeString)
	}
	return v.strVal, nil
}

// AsBoolSlice returns a copy of the stored boolean slice.
func (v AttributeValue) AsBoolSlice() ([]bool, error) {
	if v.typ != AttributeBoolSlice {
		return nil, v.mismatch(AttributeBoolSlice)
	}
	cp := make([]bool, len(v.boolSl))
	copy(cp, v.boolSl)
	return cp, nil
}

// AsInt64Slice returns a copy of the stored signed slice.
func (v AttributeValue) AsInt64Slice() ([]int64, error) {
	if v.typ != AttributeInt64Slice {
		return nil, v.mismatch(AttributeInt64Slice)
	}
	cp := make([]int64, len(v.intSl))
	copy(cp, v.intSl)
	return cp, nil
}

// AsUint64Slice returns a copy of the stored unsigned slice.
func (v AttributeValue) AsUint64Slice() ([]uint64, error) {
	if v.typ != AttributeUint64Slice {
		return nil, v.mismatch(AttributeUint64Slice)
	}
	cp := make([]uint64, len(v.uintSl))
	copy(cp, v.uintSl)
	return cp, nil
}

// AsFloat64Slice returns a copy of the stored float slice.
func (v AttributeValue) AsFloat64Slice() ([]float64, error) {
	if v.typ != AttributeFloat64Slice {
		return nil, v.mismatch(AttributeFloat64Slice)
	}
	cp := make([]float64, len(v.floatSl))
	copy(cp, v.floatSl)
	return cp, nil
}

// AsStringSlice returns a copy of the stored string slice.
func (v AttributeValue) AsStringSlice() ([]string, error) {
	if v.typ != AttributeStringSlice {
		return nil, v.mismatch(AttributeStringSlice)
	}
	cp := make([]string, len(v.strSl))
	copy(cp, v.strSl)
	return cp, nil
}

// any returns the stored value as an untyped interface for serialization.
func (v AttributeValue) any() interface{} {
	switch v.typ {
	case AttributeBool:
		return v.boolVal
	case AttributeInt64:
		return v.intVal
	case AttributeUint64:
		return v.uintVal
	case AttributeFloat64:
		return v.floatVal
	case AttributeString:
		return v.strVal
	case AttributeBoolSlice:
		return v.boolSl
	case AttributeInt64Slice:
		return v.intSl
	case AttributeUint64Slice:
		return v.uintSl
	case AttributeFloat64Slice:
		return v.floatSl
	case AttributeStringSlice:
		return v.strSl
	default:
		return nil
	}
}

// MarshalJSON encodes the stored value directly, so attribute maps serialize
// as plain JSON objects rather than empty union wrappers.
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.any())
}

// copyAttributes deep-copies an attribute map. Values are immutable once
// constructed, so copying the map itself is sufficient.
func copyAttributes(attrs Attributes) Attributes {
	if attrs == nil {
		return nil
	}
	cp := make(Attributes, len(attrs))
	for k, v := range attrs {
		cp[k] = v
	}
	return cp
}

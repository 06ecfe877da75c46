package tracekit

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeWidthNormalization(t *testing.T) {
	attrs := Attributes{
		"attr1": Int32Value(314159),
		"attr2": Uint32Value(314159),
		"attr3": Int64Value(-20),
		"attr4": Uint64Value(20),
		"attr5": Float64Value(3.1),
		"attr6": BoolValue(false),
		"attr7": StringValue("string"),
	}

	require.Equal(t, AttributeInt64, attrs["attr1"].Type())
	require.Equal(t, AttributeUint64, attrs["attr2"].Type())
	require.Equal(t, AttributeInt64, attrs["attr3"].Type())
	require.Equal(t, AttributeUint64, attrs["attr4"].Type())
	require.Equal(t, AttributeFloat64, attrs["attr5"].Type())
	require.Equal(t, AttributeBool, attrs["attr6"].Type())
	require.Equal(t, AttributeString, attrs["attr7"].Type())

	i, err := attrs["attr1"].AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(314159), i)

	u, err := attrs["attr2"].AsUint64()
	require.NoError(t, err)
	assert.Equal(t, uint64(314159), u)

	neg, err := attrs["attr3"].AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(-20), neg)

	f, err := attrs["attr5"].AsFloat64()
	require.NoError(t, err)
	assert.Equal(t, 3.1, f)

	b, err := attrs["attr6"].AsBool()
	require.NoError(t, err)
	assert.False(t, b)

	s, err := attrs["attr7"].AsString()
	require.NoError(t, err)
	assert.Equal(t, "string", s)
}

func TestAttributeSliceNormalization(t *testing.T) {
	v32 := Int32SliceValue([]int32{1, -2, 3})
	require.Equal(t, AttributeInt64Slice, v32.Type())
	got, err := v32.AsInt64Slice()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, -2, 3}, got)

	vu32 := Uint32SliceValue([]uint32{1, 2, 3})
	require.Equal(t, AttributeUint64Slice, vu32.Type())
	gotU, err := vu32.AsUint64Slice()
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 2, 3}, gotU)

	vi := IntSliceValue([]int{4, 5})
	require.Equal(t, AttributeInt64Slice, vi.Type())
	gotI, err := vi.AsInt64Slice()
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 5}, gotI)
}

// Inserting from caller-owned storage must copy: mutating the source after
// construction cannot change the stored value.
func TestAttributeSliceCopyOnInsert(t *testing.T) {
	numbers := []int{1, 2, 3}
	strings := []string{"a", "b", "c"}

	vn := IntSliceValue(numbers)
	vs := StringSliceValue(strings)

	numbers[0] = 99
	strings[2] = "mutated"

	gotN, err := vn.AsInt64Slice()
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, gotN)

	gotS, err := vs.AsStringSlice()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, gotS)
}

// Reads hand out copies too; mutating a read result must not poison the
// stored value.
func TestAttributeSliceCopyOnRead(t *testing.T) {
	v := Float64SliceValue([]float64{1.1, 2.1, 3.1})

	first, err := v.AsFloat64Slice()
	require.NoError(t, err)
	first[0] = 0

	second, err := v.AsFloat64Slice()
	require.NoError(t, err)
	assert.Equal(t, []float64{1.1, 2.1, 3.1}, second)
}

func TestAttributeTypeMismatch(t *testing.T) {
	v := Int64Value(7)

	// No implicit coercion, not even int64 -> float64.
	_, err := v.AsFloat64()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = v.AsUint64()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = v.AsString()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = StringValue("x").AsInt64()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	_, err = BoolSliceValue([]bool{true}).AsBool()
	assert.True(t, errors.Is(err, ErrTypeMismatch))

	// The happy path still works after mismatched reads.
	i, err := v.AsInt64()
	require.NoError(t, err)
	assert.Equal(t, int64(7), i)
}

package common

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeText(t *testing.T) {
	for _, typ := range []Type{IntType, FloatType, StringType, BoolType, ListOf(IntType), ListOf(StringType)} {
		parsed, err := ParseType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, parsed)
	}

	_, err := ParseType("list[list[int]]")
	assert.True(t, IsErrorCode(err, SchemaError))
	_, err = ParseType("decimal")
	assert.True(t, IsErrorCode(err, SchemaError))

	var field Field
	require.NoError(t, json.Unmarshal([]byte(`{"name":"tags","type":"list[string]"}`), &field))
	assert.Equal(t, Field{Name: "tags", Type: ListOf(StringType)}, field)
}

func TestValueCompare(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Value
		expected int
	}{
		{"int lt", NewIntValue(1), NewIntValue(2), -1},
		{"int eq", NewIntValue(2), NewIntValue(2), 0},
		{"float gt", NewFloatValue(2.5), NewFloatValue(1.5), 1},
		{"mixed numeric", NewIntValue(3), NewFloatValue(2.5), 1},
		{"string", NewStringValue("a"), NewStringValue("b"), -1},
		{"bool", NewBoolValue(false), NewBoolValue(true), -1},
		{"null first", NewNullValue(IntType), NewIntValue(-100), -1},
		{"null eq", NewNullValue(IntType), NewNullValue(IntType), 0},
		{"list prefix", NewListValue(IntType, []Value{NewIntValue(1)}),
			NewListValue(IntType, []Value{NewIntValue(1), NewIntValue(0)}), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.a.Compare(tt.b))
		})
	}
}

func TestValueOfAndInterface(t *testing.T) {
	v, err := ValueOf(IntType, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), v.Interface())

	v, err = ValueOf(FloatType, 2)
	require.NoError(t, err)
	assert.Equal(t, 2.0, v.Interface())

	v, err = ValueOf(ListOf(StringType), []any{"a", nil})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", nil}, v.Interface())

	v, err = ValueOf(StringType, nil)
	require.NoError(t, err)
	assert.True(t, v.IsNull())
	assert.Nil(t, v.Interface())

	_, err = ValueOf(IntType, "nope")
	assert.True(t, IsErrorCode(err, SchemaError))
}

func TestAppendKeyDistinguishesValues(t *testing.T) {
	key := func(vals ...Value) string {
		var buf []byte
		for _, v := range vals {
			buf = v.AppendKey(buf)
		}
		return string(buf)
	}

	assert.Equal(t, key(NewIntValue(1), NewStringValue("a")), key(NewIntValue(1), NewStringValue("a")))
	assert.NotEqual(t, key(NewIntValue(1)), key(NewFloatValue(1)))
	assert.NotEqual(t, key(NewStringValue("ab"), NewStringValue("c")), key(NewStringValue("a"), NewStringValue("bc")))
	assert.NotEqual(t, key(NewNullValue(IntType)), key(NewIntValue(0)))
	assert.Equal(t, key(NewFloatValue(0)), key(NewFloatValue(math.Copysign(0, -1))))

	assert.Equal(t, HashValues([]Value{NewIntValue(42)}), HashValues([]Value{NewIntValue(42)}))
}

package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIRValueSealed(t *testing.T) {
	var values = []IRValue{
		IRNull{}, IRString("s"), IRInt(1), IRFloat(1.5), IRBool(true),
		IRArray{}, IRObject{},
	}
	assert.Len(t, values, 7)
}

func TestTypeName(t *testing.T) {
	assert.Equal(t, "string", TypeName(IRString("x")))
	assert.Equal(t, "int", TypeName(IRInt(1)))
	assert.Equal(t, "float", TypeName(IRFloat(1)))
	assert.Equal(t, "bool", TypeName(IRBool(false)))
	assert.Equal(t, "array", TypeName(IRArray{}))
	assert.Equal(t, "object", TypeName(IRObject{}))
	assert.Equal(t, "null", TypeName(IRNull{}))
}

func TestIRObjectSortedKeys(t *testing.T) {
	obj := IRObject{"c": IRInt(3), "a": IRInt(1), "b": IRInt(2)}
	assert.Equal(t, []string{"a", "b", "c"}, obj.SortedKeys())
	assert.Empty(t, IRObject{}.SortedKeys())
}

func TestCompareKeysRFC8785(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"a", "b", -1},
		{"b", "a", 1},
		{"a", "a", 0},
		{"a", "ab", -1},
		{"𐀀", "", -1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, compareKeysRFC8785(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(IRInt(1), IRInt(1)))
	assert.False(t, Equal(IRInt(1), IRFloat(1)))
	assert.True(t, Equal(IRArray{IRString("a")}, IRArray{IRString("a")}))
	assert.False(t, Equal(IRArray{IRString("a")}, IRArray{IRString("b")}))
	assert.False(t, Equal(IRArray{}, IRObject{}))
	assert.True(t, Equal(
		IRObject{"k": IRArray{IRBool(true)}},
		IRObject{"k": IRArray{IRBool(true)}},
	))
	assert.False(t, Equal(IRObject{"k": IRInt(1)}, IRObject{"j": IRInt(1)}))
}

func TestFromGo(t *testing.T) {
	v, err := FromGo(map[string]any{
		"radius": 2.5,
		"passes": 3,
		"name":   "blur",
		"flags":  []any{true, false},
	})
	require.NoError(t, err)

	assert.Equal(t, IRObject{
		"radius": IRFloat(2.5),
		"passes": IRInt(3),
		"name":   IRString("blur"),
		"flags":  IRArray{IRBool(true), IRBool(false)},
	}, v)
}

func TestFromGoRejectsNull(t *testing.T) {
	_, err := FromGo([]any{1, nil})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[1]")
	assert.Contains(t, err.Error(), "null")
}

func TestUnmarshalIRValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected IRValue
	}{
		{"int", "42", IRInt(42)},
		{"float with fraction", "2.0", IRFloat(2)},
		{"float with exponent", "1e3", IRFloat(1000)},
		{"string", `"x"`, IRString("x")},
		{"array", `[1, 1.5]`, IRArray{IRInt(1), IRFloat(1.5)}},
		{"object", `{"a": true}`, IRObject{"a": IRBool(true)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := UnmarshalIRValue([]byte(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestUnmarshalIRValueRejectsNull(t *testing.T) {
	_, err := UnmarshalIRValue([]byte(`{"a": null}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")
}

func TestCanonicalRoundTrip(t *testing.T) {
	original := IRObject{
		"f": IRFloat(3),
		"i": IRInt(3),
		"a": IRArray{IRFloat(0.125), IRString("s")},
	}

	data, err := MarshalCanonical(original)
	require.NoError(t, err)

	decoded, err := UnmarshalIRValue(data)
	require.NoError(t, err)
	assert.True(t, Equal(original, decoded), "canonical form must round-trip types")
}

func TestIRObjectMarshalJSONSorted(t *testing.T) {
	data, err := json.Marshal(IRObject{"b": IRFloat(1), "a": IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":1.0}`, string(data))
}

func TestNewIRObjectFromPairs(t *testing.T) {
	obj := NewIRObjectFromPairs(O("x", IRInt(1)), O("y", NewIRArray(IRBool(true))))
	assert.Equal(t, IRObject{"x": IRInt(1), "y": IRArray{IRBool(true)}}, obj)
}

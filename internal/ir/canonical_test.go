package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonicalBasic(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected string
	}{
		{"string", IRString("hello"), `"hello"`},
		{"empty string", IRString(""), `""`},
		{"int", IRInt(42), "42"},
		{"negative int", IRInt(-100), "-100"},
		{"max int64", IRInt(math.MaxInt64), "9223372036854775807"},
		{"min int64", IRInt(math.MinInt64), "-9223372036854775808"},
		{"bool true", IRBool(true), "true"},
		{"bool false", IRBool(false), "false"},
		{"empty array", IRArray{}, "[]"},
		{"empty object", IRObject{}, "{}"},
		{"array of ints", IRArray{IRInt(1), IRInt(2), IRInt(3)}, "[1,2,3]"},
		{"simple object", IRObject{"a": IRInt(1)}, `{"a":1}`},
		{"plain go map", map[string]any{"b": 2, "a": "x"}, `{"a":"x","b":2}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalFloats(t *testing.T) {
	tests := []struct {
		name     string
		input    IRFloat
		expected string
	}{
		{"integral float keeps fraction", IRFloat(2), "2.0"},
		{"fraction", IRFloat(1.5), "1.5"},
		{"negative", IRFloat(-0.25), "-0.25"},
		{"zero", IRFloat(0), "0.0"},
		{"negative zero", IRFloat(math.Copysign(0, -1)), "0.0"},
		{"large uses exponent", IRFloat(1e21), "1e+21"},
		{"small uses exponent", IRFloat(0.00001), "1e-05"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
		})
	}
}

func TestMarshalCanonicalIntAndFloatDiffer(t *testing.T) {
	i, err := MarshalCanonical(IRInt(1))
	require.NoError(t, err)
	f, err := MarshalCanonical(IRFloat(1))
	require.NoError(t, err)

	assert.NotEqual(t, string(i), string(f))
}

func TestMarshalCanonicalRejectsNonFinite(t *testing.T) {
	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := MarshalCanonical(IRFloat(f))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "non-finite")
	}
}

func TestMarshalCanonicalSortedKeys(t *testing.T) {
	obj := IRObject{
		"zebra": IRInt(1),
		"alpha": IRInt(2),
		"beta":  IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"alpha":2,"beta":3,"zebra":1}`, string(result))
}

func TestMarshalCanonicalNestedSortedKeys(t *testing.T) {
	obj := IRObject{
		"z": IRObject{
			"b": IRInt(1),
			"a": IRInt(2),
		},
		"a": IRInt(3),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"z":{"a":2,"b":1}}`, string(result))
}

func TestMarshalCanonicalUTF16Ordering(t *testing.T) {
	// UTF-16: U+10000 encodes as 0xD800 0xDC00, which sorts before 0xE000.
	obj := IRObject{
		"\uE000": IRInt(1),
		"𐀀":      IRInt(2),
	}

	result, err := MarshalCanonical(obj)
	require.NoError(t, err)
	assert.Equal(t, `{"𐀀":2,"`+"\uE000"+`":1}`, string(result))
}

func TestMarshalCanonicalEscaping(t *testing.T) {
	tests := []struct {
		name     string
		input    IRString
		expected string
	}{
		{"html is not escaped", "<b>a & b</b>", `"<b>a & b</b>"`},
		{"quote and backslash", `say "hi" \o/`, `"say \"hi\" \\o/"`},
		{"short escapes", "a\nb\tc\r", `"a\nb\tc\r"`},
		{"control character", "\x01", `"\u0001"`},
		{"line separator stays literal", "a\u2028b", "\"a\u2028b\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MarshalCanonical(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, string(result))
			assert.NotContains(t, string(result), `\u003c`)
		})
	}
}

func TestMarshalCanonicalRejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "null")

	_, err = MarshalCanonical(IRArray{IRInt(1), IRNull{}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "array[1]")
}

func TestMarshalCanonicalNFCNormalization(t *testing.T) {
	composed := "caf\u00E9"
	decomposed := "cafe\u0301"

	result1, err := MarshalCanonical(IRString(composed))
	require.NoError(t, err)
	result2, err := MarshalCanonical(IRString(decomposed))
	require.NoError(t, err)
	assert.Equal(t, result1, result2, "NFC normalization should make these equal")

	obj1, err := MarshalCanonical(IRObject{composed: IRInt(1)})
	require.NoError(t, err)
	obj2, err := MarshalCanonical(IRObject{decomposed: IRInt(1)})
	require.NoError(t, err)
	assert.Equal(t, obj1, obj2)
}

func TestMarshalCanonicalRejectsKeyCollisionAfterNFC(t *testing.T) {
	obj := IRObject{
		"caf\u00E9":  IRInt(1),
		"cafe\u0301": IRInt(2),
	}

	_, err := MarshalCanonical(obj)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key")
}

func TestMarshalCanonicalUnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

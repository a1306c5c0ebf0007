package cql

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTripScalar(t *testing.T, v Value) Value {
	t.Helper()
	encoded, err := AppendScalar(nil, v)
	require.NoError(t, err)

	decoded, n, err := DecodeScalar(v.Tag, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	return decoded
}

func TestScalarRoundTrip(t *testing.T) {
	cases := []Value{
		BoolValue(true),
		BoolValue(false),
		Int8Value(-128),
		Int8Value(127),
		Int16Value(-32768),
		Int32Value(math.MinInt32),
		Int64Value(math.MaxInt64),
		Float32Value(3.14),
		Float64Value(-2.5),
		TextValue("hello, world"),
		TextValue(""),
		BlobValue([]byte{0x00, 0xFF, 0x10}),
		UUIDValue([16]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16}),
		TimestampValue(1_700_000_000_000_000),
		CounterValue(-42),
		{Tag: TypeDate, I32: math.MinInt32},
		{Tag: TypeTime, I64: 3600 * 1e9},
	}

	for _, v := range cases {
		got := roundTripScalar(t, v)
		assert.True(t, v.Equal(got), "round-trip mismatch for %s: %+v != %+v", v.Tag, v, got)
	}
}

func TestScalarRoundTripNaN(t *testing.T) {
	v := Float64Value(math.NaN())
	got := roundTripScalar(t, v)
	assert.True(t, math.IsNaN(got.F64))
	assert.True(t, v.EqualBitwise(got))
	assert.False(t, v.Equal(got), "NaN must not equal NaN under ordinary Equal")
}

func TestScalarNull(t *testing.T) {
	encoded, err := AppendScalar(nil, Null(TypeText))
	require.NoError(t, err)

	decoded, _, err := DecodeScalar(TypeText, encoded)
	require.NoError(t, err)
	assert.True(t, decoded.IsNull())
	assert.Equal(t, TypeText, decoded.Tag)
}

func TestScalarTruncated(t *testing.T) {
	_, _, err := DecodeScalar(TypeInt64, []byte{0x01, 0x02})
	assert.Error(t, err)

	_, _, err = DecodeScalar(TypeText, []byte{0x0A, 'h', 'i'})
	assert.Error(t, err)
}

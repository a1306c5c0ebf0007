package cql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumdb/sstable/errs"
)

// fakeResolver implements UdtResolver for a single UDT, mirroring how
// *udt.Registry is expected to be consulted (see udt package).
type fakeResolver struct {
	byName map[string][]UdtFieldSpec
}

func (r fakeResolver) ResolveField(name string) ([]UdtFieldSpec, bool) {
	specs, ok := r.byName[name]
	return specs, ok
}

func addressResolver() fakeResolver {
	return fakeResolver{byName: map[string][]UdtFieldSpec{
		"ks.address": {
			{Name: "street", Type: Scalar(TypeText)},
			{Name: "city", Type: Scalar(TypeText)},
			{Name: "zip", Type: Scalar(TypeInt32), Nullable: true},
		},
	}}
}

func TestMapRoundTripPreservesOrder(t *testing.T) {
	c := NewCodec(nil)
	mapType := MapOf(Scalar(TypeText), Scalar(TypeInt32))
	v := Value{Tag: TypeMap, Map: []MapEntry{
		{Key: TextValue("a"), Value: Int32Value(1)},
		{Key: TextValue("b"), Value: Int32Value(2)},
	}}

	encoded, err := c.Encode(nil, mapType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(mapType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	require.Len(t, decoded.Map, 2)
	assert.Equal(t, "a", decoded.Map[0].Key.Text)
	assert.Equal(t, int32(1), decoded.Map[0].Value.I32)
	assert.Equal(t, "b", decoded.Map[1].Key.Text)
	assert.Equal(t, int32(2), decoded.Map[1].Value.I32)
}

func TestSetDedupesOnDecode(t *testing.T) {
	c := NewCodec(nil)
	setType := SetOf(Scalar(TypeInt32))

	// Build raw bytes by hand: count=3, elements 7,7,9, each wrapped in
	// the element length prefix decodeElement expects.
	raw := encodeVintHelper(t, 3)
	raw = append(raw, encodeElementHelper(t, 7)...)
	raw = append(raw, encodeElementHelper(t, 7)...)
	raw = append(raw, encodeElementHelper(t, 9)...)

	decoded, n, err := c.Decode(setType, raw)
	require.NoError(t, err)
	assert.Equal(t, len(raw), n)
	assert.Len(t, decoded.List, 2)
}

func encodeVintHelper(t *testing.T, v int64) []byte {
	t.Helper()
	// A tiny local copy of the vint encoding for the single-byte case
	// exercised by this test's small counts: ZigZag maps 0..63 to the even
	// values 0..126, which fit in one byte with no length prefix.
	if v < 0 || v > 63 {
		t.Fatalf("helper only supports small non-negative counts, got %d", v)
	}
	return []byte{byte(v << 1)}
}

// encodeElementHelper wraps an Int32 element the way Codec.encodeElement
// does: a one-byte vint length prefix (4, the scalar's fixed width) ahead
// of its big-endian encoding.
func encodeElementHelper(t *testing.T, v int32) []byte {
	t.Helper()
	body, err := AppendScalar(nil, Int32Value(v))
	require.NoError(t, err)
	return append(encodeVintHelper(t, int64(len(body))), body...)
}

func TestTupleArityMismatch(t *testing.T) {
	c := NewCodec(nil)
	tupleType := TupleOf(Scalar(TypeInt32), Scalar(TypeText))

	raw := encodeVintHelper(t, 1)
	raw = append(raw, byte(TypeInt32))
	raw = append(raw, encodeElementHelper(t, 5)...)

	_, _, err := c.Decode(tupleType, raw)
	assert.ErrorIs(t, err, errs.ErrTupleArity)
}

func TestTupleRoundTrip(t *testing.T) {
	c := NewCodec(nil)
	tupleType := TupleOf(Scalar(TypeInt32), Scalar(TypeText))
	v := Value{Tag: TypeTuple, Tuple: []Value{Int32Value(5), TextValue("x")}}

	encoded, err := c.Encode(nil, tupleType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(tupleType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.True(t, v.Equal(decoded))
}

// TestListWithNullScalarElementRoundTrips pins a regression: a null
// element of a fixed-width scalar type (here Boolean, whose true encoding
// is the single byte 0x01 — identical to the vint encoding of nullLength)
// must still decode to Null, not be misread as a value or fail outright.
func TestListWithNullScalarElementRoundTrips(t *testing.T) {
	c := NewCodec(nil)
	listType := ListOf(Scalar(TypeBoolean))
	v := Value{Tag: TypeList, List: []Value{
		{Tag: TypeBoolean, Bool: true},
		Null(TypeBoolean),
		{Tag: TypeBoolean, Bool: false},
	}}

	encoded, err := c.Encode(nil, listType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(listType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	require.Len(t, decoded.List, 3)
	assert.True(t, decoded.List[0].Bool)
	assert.True(t, decoded.List[1].IsNull())
	assert.False(t, decoded.List[2].Bool)
}

// TestSetWithNullInt32ElementRoundTrips exercises the exact failure mode
// reported for a null Int32 element (AppendScalar's nullLength sentinel
// being mistaken for a truncated 4-byte field by the old, unwrapped
// element layout).
func TestSetWithNullInt32ElementRoundTrips(t *testing.T) {
	c := NewCodec(nil)
	setType := SetOf(Scalar(TypeInt32))
	v := Value{Tag: TypeSet, List: []Value{Int32Value(1), Null(TypeInt32)}}

	encoded, err := c.Encode(nil, setType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(setType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	require.Len(t, decoded.List, 2)
	assert.True(t, decoded.List[1].IsNull())
}

// TestTupleWithNullElementRoundTrips checks a tuple field carrying a null
// fixed-width scalar (Int64) decodes to Null rather than erroring.
func TestTupleWithNullElementRoundTrips(t *testing.T) {
	c := NewCodec(nil)
	tupleType := TupleOf(Scalar(TypeInt64), Scalar(TypeText))
	v := Value{Tag: TypeTuple, Tuple: []Value{Null(TypeInt64), TextValue("present")}}

	encoded, err := c.Encode(nil, tupleType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(tupleType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	require.Len(t, decoded.Tuple, 2)
	assert.True(t, decoded.Tuple[0].IsNull())
	assert.Equal(t, "present", decoded.Tuple[1].Text)
}

func TestUdtRoundTripWithNullField(t *testing.T) {
	c := NewCodec(addressResolver())
	udtType := UdtRef("ks.address")
	v := Value{Tag: TypeUdt, UdtName: "ks.address", Fields: []UdtField{
		{Name: "street", Value: TextValue("1 Main St")},
		{Name: "city", Value: TextValue("Springfield")},
		{Name: "zip", Value: Null(TypeInt32)},
	}}

	encoded, err := c.Encode(nil, udtType, v)
	require.NoError(t, err)

	decoded, n, err := c.Decode(udtType, encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, "1 Main St", decoded.Fields[0].Value.Text)
	assert.Equal(t, "Springfield", decoded.Fields[1].Value.Text)
	assert.True(t, decoded.Fields[2].Value.IsNull())

	reencoded, err := c.Encode(nil, udtType, decoded)
	require.NoError(t, err)
	assert.Equal(t, encoded, reencoded)
}

func TestUdtEmbeddedFallbackUsesSyntheticNames(t *testing.T) {
	c := NewCodec(nil) // no resolver: forces the embedded path
	udtType := UdtRef("ks.unknown")
	v := Value{Tag: TypeUdt, UdtName: "ks.unknown", Fields: []UdtField{
		{Name: "field_0", Value: Int32Value(42)},
	}}

	encoded, err := c.Encode(nil, udtType, v)
	require.NoError(t, err)

	decoded, _, err := c.Decode(udtType, encoded)
	require.NoError(t, err)
	assert.Equal(t, "field_0", decoded.Fields[0].Name)
	assert.Equal(t, int32(42), decoded.Fields[0].Value.I32)
}

func TestFrozenPreservesTagOnEquality(t *testing.T) {
	listType := ListOf(Scalar(TypeInt32))
	frozenType := FrozenOf(listType)

	plain := Value{Tag: TypeList, List: []Value{Int32Value(1)}}
	frozen := plain
	frozen.Frozen = true

	assert.False(t, plain.Equal(frozen))

	c := NewCodec(nil)
	encoded, err := c.Encode(nil, frozenType, plain)
	require.NoError(t, err)

	decoded, _, err := c.Decode(frozenType, encoded)
	require.NoError(t, err)
	assert.True(t, decoded.Frozen)
	assert.True(t, decoded.Equal(frozen))
}

func TestDepthLimitExceeded(t *testing.T) {
	c := &Codec{MaxDepth: 2}
	inner := Scalar(TypeInt32)
	for i := 0; i < 5; i++ {
		inner = ListOf(inner)
	}

	v := Int32Value(1)
	for i := 0; i < 5; i++ {
		v = Value{Tag: TypeList, List: []Value{v}}
	}

	encoded, err := NewCodec(nil).Encode(nil, inner, v)
	require.NoError(t, err)

	_, _, err = c.Decode(inner, encoded)
	assert.ErrorIs(t, err, errs.ErrDepthExceeded)
}

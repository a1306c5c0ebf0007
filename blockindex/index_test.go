package blockindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIndex() Index {
	return Index{
		{FirstKey: []byte{0x00}, Offset: 0, CompressedSize: 100, UncompressedSize: 120},
		{FirstKey: []byte{0x10}, Offset: 100, CompressedSize: 90, UncompressedSize: 110},
		{FirstKey: []byte{0x20}, Offset: 190, CompressedSize: 80, UncompressedSize: 95},
	}
}

func TestIndexRoundTrip(t *testing.T) {
	idx := sampleIndex()
	encoded := idx.Bytes()

	decoded, n, err := Parse(encoded)
	require.NoError(t, err)
	assert.Equal(t, len(encoded), n)
	assert.Equal(t, idx, decoded)
}

func TestLookupFindsCoveringBlock(t *testing.T) {
	idx := sampleIndex()

	e, ok := idx.Lookup([]byte{0x15})
	require.True(t, ok)
	assert.Equal(t, uint64(100), e.Offset)

	e, ok = idx.Lookup([]byte{0x10})
	require.True(t, ok)
	assert.Equal(t, uint64(100), e.Offset)

	_, ok = idx.Lookup([]byte{0x00, 0x00})
	assert.True(t, ok)
}

func TestLookupBeforeFirstKeyFails(t *testing.T) {
	idx := Index{{FirstKey: []byte{0x10}, Offset: 0}}
	_, ok := idx.Lookup([]byte{0x05})
	assert.False(t, ok)
}

func TestLookupEmptyIndex(t *testing.T) {
	var idx Index
	_, ok := idx.Lookup([]byte{0x01})
	assert.False(t, ok)
}

func TestRangeYieldsCoveringBlocksInOrder(t *testing.T) {
	idx := sampleIndex()

	var offsets []uint64
	for e := range idx.Range([]byte{0x05}, []byte{0x20}) {
		offsets = append(offsets, e.Offset)
	}
	assert.Equal(t, []uint64{0, 100}, offsets)
}

func TestRangeUnboundedEnd(t *testing.T) {
	idx := sampleIndex()

	var offsets []uint64
	for e := range idx.Range([]byte{0x15}, nil) {
		offsets = append(offsets, e.Offset)
	}
	assert.Equal(t, []uint64{100, 190}, offsets)
}

func TestRangeStopsEarlyWhenConsumerBreaks(t *testing.T) {
	idx := sampleIndex()

	var offsets []uint64
	for e := range idx.Range([]byte{0x00}, nil) {
		offsets = append(offsets, e.Offset)
		break
	}
	assert.Equal(t, []uint64{0}, offsets)
}

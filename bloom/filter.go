// Package bloom implements the space-efficient probabilistic membership
// filter an SSTable carries as a sidecar section (§3 BloomFilter, §4.F):
// a one-sided test that either says "definitely absent" or "possibly
// present", never the reverse.
package bloom

import (
	"math"

	"github.com/bits-and-blooms/bitset"

	"github.com/heliumdb/sstable/endian"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/internal/hash"
)

var engine = endian.GetBigEndianEngine()

// DefaultFalsePositiveRate is the target false-positive rate used when a
// caller builds a filter without specifying one (§4.F).
const DefaultFalsePositiveRate = 0.01

// Filter is an immutable bloom filter: k hash functions over an m-bit
// array, derived from two independent 64-bit seeds via Kirsch-Mitzenmacher
// double hashing. It is never mutated after construction; a reader that
// wants a new filter builds a fresh one.
type Filter struct {
	k    uint64
	m    uint64
	bits *bitset.BitSet
}

// NewFilter sizes a filter for expectedItems items at the given false
// positive rate and returns it empty; callers add items with Add before
// the filter is queried.
func NewFilter(expectedItems uint64, falsePositiveRate float64) *Filter {
	if expectedItems == 0 {
		expectedItems = 1
	}
	if falsePositiveRate <= 0 || falsePositiveRate >= 1 {
		falsePositiveRate = DefaultFalsePositiveRate
	}

	m := optimalM(expectedItems, falsePositiveRate)
	k := optimalK(m, expectedItems)

	return &Filter{k: k, m: m, bits: bitset.New(uint(m))}
}

func optimalM(n uint64, p float64) uint64 {
	m := math.Ceil(-float64(n) * math.Log(p) / (math.Ln2 * math.Ln2))
	if m < 1 {
		m = 1
	}
	return uint64(m)
}

func optimalK(m, n uint64) uint64 {
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint64(k)
}

// K returns the number of hash functions the filter applies per query.
func (f *Filter) K() uint64 { return f.k }

// M returns the number of bits in the filter's underlying array.
func (f *Filter) M() uint64 { return f.m }

// Add records key as present.
func (f *Filter) Add(key []byte) {
	h1, h2 := hash.DoubleHash(key)
	for i := uint64(0); i < f.k; i++ {
		f.bits.Set(uint(bitIndex(h1, h2, i, f.m)))
	}
}

// MayContain reports whether key is possibly present. A false answer is
// definitive; a true answer must still be confirmed by an index lookup
// (§4.F, §8 "Bloom soundness": a positive answer never loses data, but it
// may be a false positive).
func (f *Filter) MayContain(key []byte) bool {
	h1, h2 := hash.DoubleHash(key)
	for i := uint64(0); i < f.k; i++ {
		if !f.bits.Test(uint(bitIndex(h1, h2, i, f.m))) {
			return false
		}
	}
	return true
}

// bitIndex implements Kirsch-Mitzenmacher double hashing: the i-th of k
// hash functions is synthesized from two independently-seeded base
// hashes as h1 + i*h2, rather than running k independent hash functions.
func bitIndex(h1, h2, i, m uint64) uint64 {
	return (h1 + i*h2) % m
}

// ReadFilter parses a filter from its sidecar byte layout: big-endian
// uint64 k, big-endian uint64 m, then ceil(m/8) bytes of packed bits.
func ReadFilter(data []byte) (*Filter, error) {
	if len(data) < 16 {
		return nil, errs.Corruptf("bloom", 0, "short filter header, need 16 bytes, have %d", len(data))
	}

	k := engine.Uint64(data[0:8])
	m := engine.Uint64(data[8:16])
	if m == 0 {
		return nil, errs.Corruptf("bloom", 8, "zero-length bit array")
	}

	byteLen := int((m + 7) / 8)
	if len(data) < 16+byteLen {
		return nil, errs.Corruptf("bloom", 16, "bit array truncated, need %d bytes, have %d", byteLen, len(data)-16)
	}

	words := make([]uint64, (m+63)/64)
	raw := data[16 : 16+byteLen]
	for i := 0; i < byteLen; i++ {
		words[i/8] |= uint64(raw[i]) << (8 * uint(i%8))
	}

	bs := bitset.From(words)
	return &Filter{k: k, m: m, bits: bs}, nil
}

// Bytes serializes f to the sidecar layout ReadFilter parses.
func (f *Filter) Bytes() []byte {
	buf := engine.AppendUint64(nil, f.k)
	buf = engine.AppendUint64(buf, f.m)

	byteLen := int((f.m + 7) / 8)
	words := f.bits.Bytes()
	raw := make([]byte, byteLen)
	for i := 0; i < byteLen; i++ {
		raw[i] = byte(words[i/8] >> (8 * uint(i%8)))
	}

	return append(buf, raw...)
}

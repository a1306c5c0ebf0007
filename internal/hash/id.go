// Package hash provides the hashing primitives shared by the bloom filter.
package hash

import "github.com/cespare/xxhash/v2"

// seedPrefixA and seedPrefixB stand in for two independent 64-bit seeds.
// xxhash's public API has no seed parameter, so each "seed" is derived by
// hashing a distinct one-byte prefix ahead of the key instead.
var (
	seedPrefixA = [1]byte{0xA5}
	seedPrefixB = [1]byte{0x5A}
)

// DoubleHash returns two independent 64-bit hashes of data, the inputs to
// Kirsch-Mitzenmacher double hashing used by the bloom filter.
func DoubleHash(data []byte) (h1, h2 uint64) {
	var d1, d2 xxhash.Digest
	d1.Reset()
	d2.Reset()

	_, _ = d1.Write(seedPrefixA[:])
	_, _ = d1.Write(data)

	_, _ = d2.Write(seedPrefixB[:])
	_, _ = d2.Write(data)

	return d1.Sum64(), d2.Sum64()
}

// ID computes the xxHash64 of the given string, a single hash for callers
// that don't need the full double-hash pair.
func ID(data string) uint64 {
	return xxhash.Sum64String(data)
}

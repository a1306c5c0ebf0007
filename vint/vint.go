// Package vint implements the variable-length integer codec used
// throughout the "oa" SSTable format: length-prefixed strings, collection
// element counts, statistics fields, and the generation number all share
// this encoding.
//
// A vint maps a signed 64-bit integer to 1-9 bytes. The value is first
// ZigZag-mapped to an unsigned integer (so small negative numbers encode as
// compactly as small positive ones), then written with a unary length
// prefix packed into the high bits of the first byte: the number of
// leading 1-bits in the first byte equals the number of continuation bytes
// that follow. A first byte of 0b0xxxxxxx carries the full 7-bit value and
// needs no continuation bytes at all; a first byte of 0b11111111 indicates
// eight continuation bytes, the maximum.
package vint

import "github.com/heliumdb/sstable/errs"

// MaxLen is the maximum number of bytes a vint can occupy.
const MaxLen = 9

// Decode reads a vint from the front of data and returns the decoded
// value, the number of bytes consumed, and an error if data is truncated.
// A first byte can announce at most eight continuation bytes, so an
// encoding never exceeds MaxLen bytes and its magnitude always fits in
// 64 bits; neither case needs an error of its own.
func Decode(data []byte) (value int64, n int, err error) {
	if len(data) == 0 {
		return 0, 0, errs.ErrTruncatedVint
	}

	first := data[0]

	// Fast path: no leading 1-bit, value fits in the remaining 7 bits.
	if first&0x80 == 0 {
		return zigZagDecode(uint64(first)), 1, nil
	}

	extraBytes := leadingOnes(first)
	if len(data) < extraBytes+1 {
		return 0, 0, errs.ErrTruncatedVint
	}

	// The bits of the first byte below the unary prefix (and its
	// terminating 0 bit, when present) hold the most significant bits of
	// the magnitude.
	var firstByteBits uint
	if extraBytes < 8 {
		firstByteBits = 7 - uint(extraBytes)
	}
	mask := byte(0)
	if firstByteBits > 0 {
		mask = (1 << firstByteBits) - 1
	}

	raw := uint64(first & mask)
	for i := 0; i < extraBytes; i++ {
		raw = raw<<8 | uint64(data[1+i])
	}

	return zigZagDecode(raw), extraBytes + 1, nil
}

// Append encodes value as a vint and appends it to buf, returning the
// extended slice.
func Append(buf []byte, value int64) []byte {
	raw := zigZagEncode(value)

	extraBytes := extraBytesFor(raw)
	if extraBytes == 0 {
		return append(buf, byte(raw))
	}

	var firstByteBits uint
	if extraBytes < 8 {
		firstByteBits = 7 - uint(extraBytes)
	}

	prefix := byte(0xFF << (8 - uint(extraBytes)))
	if extraBytes < 8 {
		first := prefix | byte(raw>>(8*uint(extraBytes)))&((1<<firstByteBits)-1)
		buf = append(buf, first)
	} else {
		buf = append(buf, prefix)
	}

	for i := extraBytes - 1; i >= 0; i-- {
		buf = append(buf, byte(raw>>(8*uint(i))))
	}

	return buf
}

// Len returns the number of bytes Append(nil, value) would produce,
// without allocating.
func Len(value int64) int {
	raw := zigZagEncode(value)

	return extraBytesFor(raw) + 1
}

func zigZagEncode(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63))
}

func zigZagDecode(v uint64) int64 {
	return int64(v>>1) ^ -int64(v&1)
}

// extraBytesFor returns the number of continuation bytes needed to hold
// raw once the first byte's available value bits are accounted for.
func extraBytesFor(raw uint64) int {
	for extra := 0; extra < 8; extra++ {
		var firstByteBits uint
		if extra < 8 {
			firstByteBits = 7 - uint(extra)
		}
		if raw>>uint(8*extra) < (1 << firstByteBits) {
			return extra
		}
	}

	return 8
}

// leadingOnes counts the number of leading 1-bits in b.
func leadingOnes(b byte) int {
	n := 0
	for b&0x80 != 0 {
		n++
		b <<= 1
	}

	return n
}

// Package blockindex implements the sorted block directory an SSTable
// carries between its data blocks and its bloom filter (§3 BlockIndex,
// §4.G): a sequence of (first-key, offset, sizes) entries, binary-searched
// to locate the block covering a point lookup, or range-walked to cover a
// scan's bounds.
package blockindex

import (
	"bytes"
	"iter"
	"sort"

	"github.com/heliumdb/sstable/endian"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

var engine = endian.GetBigEndianEngine()

// Entry describes one data block: the smallest row key it contains, its
// byte offset in the file, and its compressed/uncompressed sizes.
type Entry struct {
	FirstKey         []byte
	Offset           uint64
	CompressedSize   uint64
	UncompressedSize uint64
}

// Index is the full sorted block directory for one table. Entries are
// ordered by FirstKey under the partitioner's byte-lexicographic order
// (spec.md §3's Block ordering); construction does not re-sort — callers
// are expected to append entries in key order, matching how a writer
// would emit them.
type Index []Entry

// Parse reads an Index from the front of data: a vint entry count,
// followed by that many (length-prefixed key, offset, compressed-size,
// uncompressed-size) tuples.
func Parse(data []byte) (Index, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, errs.Corruptf("blockindex", 0, "negative entry count %d", count)
	}

	offset := n
	idx := make(Index, 0, count)
	for i := int64(0); i < count; i++ {
		keyLen, nn, err := vint.Decode(data[offset:])
		if err != nil {
			return nil, 0, err
		}
		offset += nn
		if keyLen < 0 || offset+int(keyLen) > len(data) {
			return nil, 0, errs.Corruptf("blockindex", int64(offset), "entry %d key length out of range", i)
		}
		key := make([]byte, keyLen)
		copy(key, data[offset:offset+int(keyLen)])
		offset += int(keyLen)

		if len(data) < offset+24 {
			return nil, 0, errs.Corruptf("blockindex", int64(offset), "entry %d truncated offsets", i)
		}
		e := Entry{
			FirstKey:         key,
			Offset:           engine.Uint64(data[offset : offset+8]),
			CompressedSize:   engine.Uint64(data[offset+8 : offset+16]),
			UncompressedSize: engine.Uint64(data[offset+16 : offset+24]),
		}
		offset += 24

		idx = append(idx, e)
	}

	return idx, offset, nil
}

// Bytes serializes idx back to the layout Parse reads.
func (idx Index) Bytes() []byte {
	buf := vint.Append(nil, int64(len(idx)))
	for _, e := range idx {
		buf = vint.Append(buf, int64(len(e.FirstKey)))
		buf = append(buf, e.FirstKey...)
		buf = engine.AppendUint64(buf, e.Offset)
		buf = engine.AppendUint64(buf, e.CompressedSize)
		buf = engine.AppendUint64(buf, e.UncompressedSize)
	}
	return buf
}

// Lookup binary-searches idx for the block that would cover key: the
// last entry whose FirstKey is <= key. It returns ok=false if idx is
// empty or key sorts before every entry's FirstKey.
func (idx Index) Lookup(key []byte) (Entry, bool) {
	i := sort.Search(len(idx), func(i int) bool {
		return bytes.Compare(idx[i].FirstKey, key) > 0
	})
	if i == 0 {
		return Entry{}, false
	}
	return idx[i-1], true
}

// Range yields every entry whose block may contain a key in [start, end)
// — the covering block for start through the last block whose FirstKey
// is before end — in index order, for a range scan to walk (§4.G, §4.I).
// A nil end means unbounded.
func (idx Index) Range(start, end []byte) iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		i := sort.Search(len(idx), func(i int) bool {
			return bytes.Compare(idx[i].FirstKey, start) > 0
		})
		if i > 0 {
			i--
		}

		for ; i < len(idx); i++ {
			if end != nil && bytes.Compare(idx[i].FirstKey, end) >= 0 {
				return
			}
			if !yield(idx[i]) {
				return
			}
		}
	}
}

package sstable

import (
	"bytes"
	"iter"
	"strconv"

	"github.com/heliumdb/sstable/block"
	"github.com/heliumdb/sstable/blockindex"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/internal/pool"
	"github.com/heliumdb/sstable/sstfmt"
)

// rawBlockPool recycles the buffers fetchBlock reads compressed block
// bytes into. A block's compressed payload is read, decompressed, and
// fully copied out into Row values before fetchBlock returns it, so the
// raw buffer is safe to return to the pool immediately afterward (§4.H).
var rawBlockPool = pool.NewByteBufferPool(pool.BlobBufferDefaultSize, pool.BlobBufferMaxThreshold)

// Get performs a point lookup: bloom filter, then block index, then a
// linear scan of the covering block (§4.I). A nil row with a nil error
// means the key is definitively absent.
func (r *Reader) Get(tableID sstfmt.TableID, key []byte) (*block.Row, error) {
	if err := r.checkTable(tableID); err != nil {
		return nil, err
	}

	if !r.filter.MayContain(key) {
		return nil, nil
	}

	entry, ok := r.index.Lookup(key)
	if !ok {
		return nil, nil
	}

	b, err := r.fetchBlock(entry)
	if err != nil {
		return nil, err
	}

	for row, err := range b.Rows() {
		if err != nil {
			return nil, err
		}
		if bytes.Equal(row.Key, key) {
			rowCopy := row
			return &rowCopy, nil
		}
	}
	return nil, nil
}

// Scan returns a lazy iterator over rows in [start, end) in partition
// order, walking the covering blocks from the index (§4.I). A nil end
// means unbounded. limit <= 0 means unbounded.
func (r *Reader) Scan(tableID sstfmt.TableID, start, end []byte, limit int) iter.Seq2[block.Row, error] {
	return func(yield func(block.Row, error) bool) {
		if err := r.checkTable(tableID); err != nil {
			yield(block.Row{}, err)
			return
		}

		yielded := 0
		for entry := range r.index.Range(start, end) {
			b, err := r.fetchBlock(entry)
			if err != nil {
				if !yield(block.Row{}, err) {
					return
				}
				continue
			}

			for row, err := range b.Rows() {
				if err != nil {
					if !yield(block.Row{}, err) {
						return
					}
					continue
				}
				if bytes.Compare(row.Key, start) < 0 {
					continue
				}
				if end != nil && bytes.Compare(row.Key, end) >= 0 {
					return
				}
				if !yield(row, nil) {
					return
				}
				yielded++
				if limit > 0 && yielded >= limit {
					return
				}
			}
		}
	}
}

// Iter returns a lazy iterator over every row in the table, in on-disk
// (partition) order (§4.I).
func (r *Reader) Iter(tableID sstfmt.TableID) iter.Seq2[block.Row, error] {
	return r.Scan(tableID, nil, nil, 0)
}

func (r *Reader) fetchBlock(entry blockindex.Entry) (*block.Block, error) {
	key := strconv.FormatUint(entry.Offset, 10)

	v, err := r.cache.GetOrLoad(key, func() (any, error) {
		buf := rawBlockPool.Get()
		defer rawBlockPool.Put(buf)
		buf.ExtendOrGrow(int(entry.CompressedSize))

		if _, err := r.file.ReadAt(buf.Bytes(), int64(entry.Offset)); err != nil {
			return nil, errs.Wrap(errs.Io, "reading block", err)
		}
		return block.DecodeWithDepth(entry, buf.Bytes(), r.header.Compression, r.cols, r.resolver, r.maxDepth)
	})
	if err != nil {
		return nil, err
	}
	return v.(*block.Block), nil
}

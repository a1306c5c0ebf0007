// Package sstable composes the header parser, bloom filter, block index,
// and block decoder into the public reader contract over a single
// "oa"-format SSTable file (§4.I): point-get, range-scan, and full-scan,
// each a thin orchestration over the lower layers. Advanced callers that
// need direct access to a layer — to inspect the raw bloom filter, or
// decode blocks outside the cache — should use the sstfmt, bloom,
// blockindex, and block subpackages directly; Reader exists for the
// common case of opening a file and reading rows out of it.
package sstable

import (
	"os"

	"github.com/go-logr/logr"

	"github.com/heliumdb/sstable/block"
	"github.com/heliumdb/sstable/blockindex"
	"github.com/heliumdb/sstable/bloom"
	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/internal/cache"
	"github.com/heliumdb/sstable/sstfmt"
)

// Reader is an open handle on one "oa"-format SSTable file. Its header,
// block index, and bloom filter are parsed once at Open and held for the
// reader's lifetime (§5 "Immutable after open"); data blocks are fetched
// on demand, through a bounded LRU cache, and are the only state Close
// needs to release beyond the file handle itself.
type Reader struct {
	file   *os.File
	size   int64
	logger logr.Logger

	header   sstfmt.Header
	index    blockindex.Index
	filter   *bloom.Filter
	cols     []block.ColumnSpec
	resolver cql.UdtResolver
	maxDepth int

	cache  *cache.Cache
	closed bool
}

// Metadata summarizes a Reader's header for callers that want a table's
// identity and statistics without decoding any rows.
type Metadata struct {
	TableID     sstfmt.TableID
	Keyspace    string
	TableName   string
	Generation  int64
	RowCount    int64
	Columns     []sstfmt.ColumnDescriptor
	Compression sstfmt.CompressionDescriptor
}

// Metadata returns the reader's header-derived summary.
func (r *Reader) Metadata() Metadata {
	return Metadata{
		TableID:     r.header.TableID,
		Keyspace:    r.header.Keyspace,
		TableName:   r.header.TableName,
		Generation:  r.header.Generation,
		RowCount:    r.header.Statistics.RowCount,
		Columns:     r.header.Columns,
		Compression: r.header.Compression,
	}
}

// Close releases the reader's open file handle. A Reader must not be used
// after Close; subsequent calls return errs.ErrReaderClosed.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	return r.file.Close()
}

func (r *Reader) checkTable(tableID sstfmt.TableID) error {
	if r.closed {
		return errs.ErrReaderClosed
	}
	if tableID != r.header.TableID {
		return errs.Wrap(errs.NotFound, "table id does not match this file", nil)
	}
	return nil
}

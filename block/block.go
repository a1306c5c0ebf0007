// Package block implements the unit of I/O and compression inside an
// SSTable (§3 Block, §4.H): decompressing a data block's raw bytes and
// decoding the (row-key, row) pairs it contains against a set of column
// specs, honoring static-column propagation and row deletion markers
// (§6's supplemented tombstone support).
package block

import (
	"iter"

	"github.com/heliumdb/sstable/blockindex"
	"github.com/heliumdb/sstable/compress"
	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/endian"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/sstfmt"
	"github.com/heliumdb/sstable/vint"
)

var engine = endian.GetBigEndianEngine()

// ColumnSpec is the decoded form of a sstfmt.ColumnDescriptor: a name,
// its CqlType (parsed from the descriptor's type text by the schema
// package), and whether it is static. Block only needs this much; it
// never parses type text itself.
type ColumnSpec struct {
	Name     string
	Type     cql.CqlType
	IsStatic bool
}

// ColumnValue pairs a decoded value with the column it belongs to.
type ColumnValue struct {
	Name  string
	Value cql.Value
}

// Row is one decoded (row-key, row-value) pair. DeletionTime is non-nil
// when the row carries a tombstone, in which case Columns may be empty
// or stale and callers should treat the row as logically deleted as of
// that microsecond timestamp.
type Row struct {
	Key          []byte
	Columns      []ColumnValue
	DeletionTime *int64
}

// Get returns the value of the named column, if present.
func (r Row) Get(name string) (cql.Value, bool) {
	for _, c := range r.Columns {
		if c.Name == name {
			return c.Value, true
		}
	}
	return cql.Value{}, false
}

// Block is a decompressed, decoded data block: its rows, sorted by key
// under the table's partitioner order, ready for linear scan.
type Block struct {
	rows []Row
}

// Decode decompresses raw using the algorithm named in compression and
// decodes its rows against cols, resolving UDT fields through resolver
// (nil is accepted: UDT fields fall back to the embedded decode path,
// §4.D). desc.UncompressedSize bounds how much decompressed data is
// expected; a mismatch is Corrupt, not silently truncated or padded.
// The codec's recursion depth budget is cql.DefaultMaxDepth; use
// DecodeWithDepth to override it.
func Decode(desc blockindex.Entry, raw []byte, compression sstfmt.CompressionDescriptor, cols []ColumnSpec, resolver cql.UdtResolver) (*Block, error) {
	return DecodeWithDepth(desc, raw, compression, cols, resolver, cql.DefaultMaxDepth)
}

// DecodeWithDepth is Decode with an explicit recursion depth budget for
// nested complex-type decoding (§4.D).
func DecodeWithDepth(desc blockindex.Entry, raw []byte, compression sstfmt.CompressionDescriptor, cols []ColumnSpec, resolver cql.UdtResolver, maxDepth int) (*Block, error) {
	codec, err := compress.GetCodec(compress.Algorithm(compression.Algorithm))
	if err != nil {
		return nil, errs.Wrap(errs.Corrupt, "unknown block compression algorithm", err)
	}

	data, err := codec.Decompress(raw)
	if err != nil {
		return nil, errs.Wrap(errs.Corrupt, "decompressing block", err)
	}
	if desc.UncompressedSize != 0 && uint64(len(data)) != desc.UncompressedSize {
		return nil, errs.Corruptf("block", int64(desc.Offset),
			"uncompressed size mismatch: expected %d, got %d", desc.UncompressedSize, len(data))
	}

	return decodeRows(data, cols, resolver, maxDepth)
}

func decodeRows(data []byte, cols []ColumnSpec, resolver cql.UdtResolver, maxDepth int) (*Block, error) {
	codec := &cql.Codec{Resolver: resolver, MaxDepth: maxDepth}

	var staticValues []ColumnValue
	var staticCols, rowCols []ColumnSpec
	for _, c := range cols {
		if c.IsStatic {
			staticCols = append(staticCols, c)
		} else {
			rowCols = append(rowCols, c)
		}
	}

	offset := 0
	if len(staticCols) > 0 {
		values, n, err := decodeColumnValues(data[offset:], staticCols, codec)
		if err != nil {
			return nil, errs.Wrap(errs.Corrupt, "decoding static columns", err)
		}
		staticValues = values
		offset += n
	}

	var rows []Row
	for offset < len(data) {
		row, n, err := decodeRow(data[offset:], rowCols, staticValues, codec)
		if err != nil {
			return nil, errs.Wrap(errs.Corrupt, "decoding row", err)
		}
		rows = append(rows, row)
		offset += n
	}

	return &Block{rows: rows}, nil
}

func decodeRow(data []byte, cols []ColumnSpec, staticValues []ColumnValue, codec *cql.Codec) (Row, int, error) {
	keyLen, n, err := vint.Decode(data)
	if err != nil {
		return Row{}, 0, err
	}
	offset := n
	if keyLen < 0 || offset+int(keyLen) > len(data) {
		return Row{}, 0, errs.Corruptf("block.row", int64(offset), "key length out of range")
	}
	key := make([]byte, keyLen)
	copy(key, data[offset:offset+int(keyLen)])
	offset += int(keyLen)

	if offset >= len(data) {
		return Row{}, 0, errs.Corruptf("block.row", int64(offset), "truncated row flags")
	}
	flags := data[offset]
	offset++

	var deletionTime *int64
	if flags&0x01 != 0 {
		if offset+8 > len(data) {
			return Row{}, 0, errs.Corruptf("block.row", int64(offset), "truncated deletion time")
		}
		dt := int64(engine.Uint64(data[offset : offset+8]))
		deletionTime = &dt
		offset += 8
	}

	values, n, err := decodeColumnValues(data[offset:], cols, codec)
	if err != nil {
		return Row{}, 0, err
	}
	offset += n

	all := make([]ColumnValue, 0, len(staticValues)+len(values))
	all = append(all, staticValues...)
	all = append(all, values...)

	return Row{Key: key, Columns: all, DeletionTime: deletionTime}, offset, nil
}

func decodeColumnValues(data []byte, cols []ColumnSpec, codec *cql.Codec) ([]ColumnValue, int, error) {
	offset := 0
	values := make([]ColumnValue, 0, len(cols))

	for _, col := range cols {
		if offset+4 > len(data) {
			// Missing columns default to null (§4.H); a block that ends
			// before a trailing column is present is treated the same
			// as that column being explicitly null.
			values = append(values, ColumnValue{Name: col.Name, Value: cql.Null(col.Type.Tag)})
			continue
		}

		length := int32(engine.Uint32(data[offset : offset+4]))
		offset += 4

		if length == -1 {
			values = append(values, ColumnValue{Name: col.Name, Value: cql.Null(col.Type.Tag)})
			continue
		}
		if length < 0 || offset+int(length) > len(data) {
			return nil, 0, errs.Corruptf("block.column", int64(offset), "column %s length out of range", col.Name)
		}

		v, _, err := codec.Decode(col.Type, data[offset:offset+int(length)])
		if err != nil {
			return nil, 0, errs.Wrap(errs.Corrupt, "decoding column "+col.Name, err)
		}
		offset += int(length)

		values = append(values, ColumnValue{Name: col.Name, Value: v})
	}

	return values, offset, nil
}

// Rows returns a lazy iterator over the block's decoded rows in
// on-disk (partition) order.
func (b *Block) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		for _, r := range b.rows {
			if !yield(r, nil) {
				return
			}
		}
	}
}

// Len returns the number of rows in the block.
func (b *Block) Len() int { return len(b.rows) }

// EncodeRows serializes rows against rowCols/staticCols into the raw,
// uncompressed byte layout Decode expects, and compresses it with the
// named algorithm. It exists for tests and for a future writer side; the
// reader itself never calls it. Static column values are taken from the
// first row, rows[0] (later rows' values for a static column are not
// serialized, since static columns are a per-block constant).
func EncodeRows(rows []Row, rowCols, staticCols []ColumnSpec, algorithm string, resolver cql.UdtResolver) ([]byte, error) {
	codec := cql.NewCodec(resolver)
	var raw []byte

	if len(staticCols) > 0 {
		var staticValues []ColumnValue
		if len(rows) > 0 {
			staticValues = rows[0].Columns
		}
		encoded, err := encodeColumnValues(staticCols, staticValues, codec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, encoded...)
	}

	for _, r := range rows {
		raw = vint.Append(raw, int64(len(r.Key)))
		raw = append(raw, r.Key...)

		flags := byte(0)
		if r.DeletionTime != nil {
			flags |= 0x01
		}
		raw = append(raw, flags)
		if r.DeletionTime != nil {
			raw = engine.AppendUint64(raw, uint64(*r.DeletionTime))
		}

		encoded, err := encodeColumnValues(rowCols, r.Columns, codec)
		if err != nil {
			return nil, err
		}
		raw = append(raw, encoded...)
	}

	codecImpl, err := compress.GetCodec(compress.Algorithm(algorithm))
	if err != nil {
		return nil, err
	}
	return codecImpl.Compress(raw)
}

func encodeColumnValues(cols []ColumnSpec, values []ColumnValue, codec *cql.Codec) ([]byte, error) {
	var buf []byte
	for _, col := range cols {
		v, ok := valueFor(values, col.Name)
		if !ok || v.Null {
			buf = engine.AppendUint32(buf, uint32(int32(-1)))
			continue
		}

		var fieldBuf []byte
		var err error
		fieldBuf, err = codec.Encode(fieldBuf, col.Type, v)
		if err != nil {
			return nil, err
		}
		buf = engine.AppendUint32(buf, uint32(int32(len(fieldBuf))))
		buf = append(buf, fieldBuf...)
	}
	return buf, nil
}

func valueFor(values []ColumnValue, name string) (cql.Value, bool) {
	for _, v := range values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return cql.Value{}, false
}

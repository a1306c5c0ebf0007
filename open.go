package sstable

import (
	"os"
	"strconv"

	"github.com/heliumdb/sstable/block"
	"github.com/heliumdb/sstable/blockindex"
	"github.com/heliumdb/sstable/bloom"
	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/internal/cache"
	internaloptions "github.com/heliumdb/sstable/internal/options"
	"github.com/heliumdb/sstable/schema"
	"github.com/heliumdb/sstable/sstfmt"
)

// Reserved property-map keys a writer records alongside the header so a
// reader can locate the block index and bloom filter sections without
// scanning the (potentially huge) intervening data blocks. §4.E's header
// layout is fixed, but its property map is explicitly free-form; these
// two keys are this module's convention for using that extension point,
// since §6's file layout line specifies section *order* but not how a
// single-file reader finds section *boundaries*.
const (
	blockIndexOffsetProperty  = "sstable.block_index_offset"
	bloomFilterOffsetProperty = "sstable.bloom_filter_offset"

	maxHeaderProbe = 4 << 20 // 4MiB; headers are bounded metadata, never block-sized
)

// Open opens the "oa"-format SSTable at path. tableSchema, if non-nil,
// takes precedence over the header's own embedded column descriptors for
// resolving column types (§3); pass nil to decode purely against the
// header's column descriptors; a WithUDTRegistry option resolves UDT
// references either way.
func Open(path string, tableSchema *schema.TableSchema, opts ...Option) (*Reader, error) {
	o := defaultOpenOptions()
	if err := internaloptions.Apply(o, opts...); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Wrap(errs.NotFound, "opening sstable file", err)
		}
		return nil, errs.Wrap(errs.Io, "opening sstable file", err)
	}

	st, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, errs.Wrap(errs.Io, "statting sstable file", err)
	}
	size := st.Size()

	r, err := openReader(f, size, tableSchema, o)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func openReader(f *os.File, size int64, tableSchema *schema.TableSchema, o *openOptions) (*Reader, error) {
	if size < int64(sstfmt.FooterSize) {
		return nil, errs.Wrap(errs.Corrupt, "sstable file too short for a footer", errs.ErrShortFooter)
	}

	headerBuf, err := readHeaderPrefix(f, size)
	if err != nil {
		return nil, err
	}
	header, _, err := sstfmt.ParseHeader(headerBuf)
	if err != nil {
		return nil, err
	}

	footerBuf := make([]byte, sstfmt.FooterSize)
	if _, err := f.ReadAt(footerBuf, size-int64(sstfmt.FooterSize)); err != nil {
		return nil, errs.Wrap(errs.Io, "reading footer", err)
	}
	if _, err := sstfmt.ParseFooter(footerBuf); err != nil {
		return nil, err
	}

	indexOffset, bloomOffset, err := sectionOffsets(header)
	if err != nil {
		return nil, err
	}
	if indexOffset < 0 || bloomOffset < indexOffset || int64(size)-int64(sstfmt.FooterSize) < bloomOffset {
		return nil, errs.Corruptf("sstable", indexOffset, "section offsets out of range")
	}

	indexBuf := make([]byte, bloomOffset-indexOffset)
	if _, err := f.ReadAt(indexBuf, indexOffset); err != nil {
		return nil, errs.Wrap(errs.Io, "reading block index", err)
	}
	index, _, err := blockindex.Parse(indexBuf)
	if err != nil {
		return nil, err
	}

	bloomEnd := size - int64(sstfmt.FooterSize)
	bloomBuf := make([]byte, bloomEnd-bloomOffset)
	if _, err := f.ReadAt(bloomBuf, bloomOffset); err != nil {
		return nil, errs.Wrap(errs.Io, "reading bloom filter", err)
	}
	filter, err := bloom.ReadFilter(bloomBuf)
	if err != nil {
		return nil, err
	}

	cols, err := buildColumnSpecs(header.Columns, tableSchema, o)
	if err != nil {
		return nil, err
	}

	var resolver cql.UdtResolver
	if o.registry != nil {
		resolver = o.registry
	}

	return &Reader{
		file:     f,
		size:     size,
		logger:   o.logger,
		header:   header,
		index:    index,
		filter:   filter,
		cols:     cols,
		resolver: resolver,
		maxDepth: o.maxDepth,
		cache:    cache.New(o.blockCacheSize, o.shardCount),
	}, nil
}

// readHeaderPrefix reads a bounded prefix of the file large enough to
// contain the header. Headers are metadata-sized (table identity,
// column descriptors, properties), never block-sized, so a fixed 4MiB
// cap is generous without risking loading a multi-hundred-MB file.
func readHeaderPrefix(f *os.File, size int64) ([]byte, error) {
	n := size
	if n > maxHeaderProbe {
		n = maxHeaderProbe
	}
	buf := make([]byte, n)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return nil, errs.Wrap(errs.Io, "reading header", err)
	}
	return buf, nil
}

func sectionOffsets(h sstfmt.Header) (indexOffset, bloomOffset int64, err error) {
	idxStr, ok := h.Properties.Get(blockIndexOffsetProperty)
	if !ok {
		return 0, 0, errs.Wrap(errs.Corrupt, "header missing "+blockIndexOffsetProperty, nil)
	}
	bloomStr, ok := h.Properties.Get(bloomFilterOffsetProperty)
	if !ok {
		return 0, 0, errs.Wrap(errs.Corrupt, "header missing "+bloomFilterOffsetProperty, nil)
	}

	indexOffset, perr := strconv.ParseInt(idxStr, 10, 64)
	if perr != nil {
		return 0, 0, errs.Wrap(errs.Corrupt, "invalid "+blockIndexOffsetProperty, perr)
	}
	bloomOffset, perr = strconv.ParseInt(bloomStr, 10, 64)
	if perr != nil {
		return 0, 0, errs.Wrap(errs.Corrupt, "invalid "+bloomFilterOffsetProperty, perr)
	}
	return indexOffset, bloomOffset, nil
}

func buildColumnSpecs(descs []sstfmt.ColumnDescriptor, tableSchema *schema.TableSchema, o *openOptions) ([]block.ColumnSpec, error) {
	out := make([]block.ColumnSpec, 0, len(descs))
	for _, d := range descs {
		if tableSchema != nil {
			if col, ok := tableSchema.ColumnByName(d.Name); ok {
				out = append(out, block.ColumnSpec{Name: d.Name, Type: col.Type, IsStatic: d.IsStatic})
				continue
			}
			if col, ok := keyColumnByName(tableSchema, d.Name); ok {
				out = append(out, block.ColumnSpec{Name: d.Name, Type: col.Type, IsStatic: d.IsStatic})
				continue
			}
		}

		t, err := schema.ParseType(d.TypeText, o.registry)
		if err != nil {
			return nil, errs.Wrap(errs.SchemaMismatch, "resolving column "+d.Name, err)
		}
		out = append(out, block.ColumnSpec{Name: d.Name, Type: t, IsStatic: d.IsStatic})
	}
	return out, nil
}

func keyColumnByName(s *schema.TableSchema, name string) (schema.ColumnDef, bool) {
	for _, k := range s.PartitionKeys {
		if k.Name == name {
			return k.ColumnDef, true
		}
	}
	for _, k := range s.ClusteringKeys {
		if k.Name == name {
			return k.ColumnDef, true
		}
	}
	return schema.ColumnDef{}, false
}

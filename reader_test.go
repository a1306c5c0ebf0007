package sstable

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heliumdb/sstable/block"
	"github.com/heliumdb/sstable/blockindex"
	"github.com/heliumdb/sstable/bloom"
	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/sstfmt"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func emptyHeader() sstfmt.Header {
	return sstfmt.Header{
		TableID:     sstfmt.TableID{1},
		Keyspace:    "ks",
		TableName:   "t",
		Generation:  1,
		Compression: sstfmt.CompressionDescriptor{Algorithm: "NONE"},
		Properties: sstfmt.PropertyMap{
			{Name: blockIndexOffsetProperty, Value: formatOffset(0)},
			{Name: bloomFilterOffsetProperty, Value: formatOffset(0)},
		},
	}
}

// formatOffset renders an offset as a fixed-width zero-padded decimal so
// patching a header's offset properties after the fact never changes the
// header's own encoded length (strconv.ParseInt tolerates the leading
// zeros on the way back in).
func formatOffset(n int) string {
	return fmt.Sprintf("%020d", n)
}

// buildFile assembles a complete on-disk "oa" file from its pieces,
// patching in the real block-index/bloom-filter offsets once the header
// length is known.
func buildFile(t *testing.T, header sstfmt.Header, dataBlocks []byte, idx blockindex.Index, filter *bloom.Filter) []byte {
	t.Helper()

	headerLen := len(header.Bytes())

	indexOffset := headerLen + len(dataBlocks)
	idxBytes := idx.Bytes()
	bloomOffset := indexOffset + len(idxBytes)

	for i := range header.Properties {
		if header.Properties[i].Name == blockIndexOffsetProperty {
			header.Properties[i].Value = formatOffset(indexOffset)
		}
		if header.Properties[i].Name == bloomFilterOffsetProperty {
			header.Properties[i].Value = formatOffset(bloomOffset)
		}
	}

	var buf []byte
	buf = append(buf, header.Bytes()...)
	buf = append(buf, dataBlocks...)
	buf = append(buf, idxBytes...)
	buf = append(buf, filter.Bytes()...)
	buf = append(buf, sstfmt.NewFooter().Bytes()...)
	return buf
}

func TestOpenEmptyFileScenario(t *testing.T) {
	header := emptyHeader()
	data := buildFile(t, header, nil, nil, bloom.NewFilter(1, bloom.DefaultFalsePositiveRate))

	path := writeFile(t, "empty.sst", data)
	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	md := r.Metadata()
	assert.Equal(t, int64(0), md.RowCount)

	var rows []block.Row
	for row, err := range r.Iter(md.TableID) {
		require.NoError(t, err)
		rows = append(rows, row)
	}
	assert.Empty(t, rows)
}

func TestOpenRejectsBadMagicScenario(t *testing.T) {
	data := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x00}
	path := writeFile(t, "badmagic.sst", data)

	_, err := Open(path, nil)
	assert.Error(t, err)
}

func TestOpenRejectsMissingFile(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.sst"), nil)
	assert.Error(t, err)
}

func buildPointGetScenarioFile(t *testing.T) (string, sstfmt.TableID) {
	t.Helper()

	cols := []block.ColumnSpec{{Name: "id", Type: cql.Scalar(cql.TypeInt32)}}
	rows := []block.Row{
		{Key: []byte{0x00}, Columns: []block.ColumnValue{{Name: "id", Value: cql.Int32Value(1)}}},
		{Key: []byte{0x01}, Columns: []block.ColumnValue{{Name: "id", Value: cql.Int32Value(2)}}},
		{Key: []byte{0x02}, Columns: []block.ColumnValue{{Name: "id", Value: cql.Int32Value(3)}}},
	}

	compressed, err := block.EncodeRows(rows, cols, nil, "NONE", nil)
	require.NoError(t, err)

	header := emptyHeader()
	header.Columns = []sstfmt.ColumnDescriptor{{Name: "id", TypeText: "int", IsPrimaryKey: true}}
	header.Statistics.RowCount = int64(len(rows))

	idx := blockindex.Index{{
		FirstKey:         []byte{0x00},
		Offset:           0, // patched below
		CompressedSize:   uint64(len(compressed)),
		UncompressedSize: uint64(len(compressed)),
	}}

	filter := bloom.NewFilter(uint64(len(rows)), bloom.DefaultFalsePositiveRate)
	for _, row := range rows {
		filter.Add(row.Key)
	}

	// The block's file offset is the header length, which buildFile
	// also derives the same way when placing the data blocks.
	idx[0].Offset = uint64(len(header.Bytes()))

	data := buildFile(t, header, compressed, idx, filter)
	path := writeFile(t, "scenario.sst", data)
	return path, header.TableID
}

func TestPointGetAndScanScenario(t *testing.T) {
	path, tableID := buildPointGetScenarioFile(t)

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Get(tableID, []byte{0x01})
	require.NoError(t, err)
	require.NotNil(t, row)
	v, ok := row.Get("id")
	require.True(t, ok)
	assert.Equal(t, int32(2), v.I32)

	row, err = r.Get(tableID, []byte{0x05})
	require.NoError(t, err)
	assert.Nil(t, row)

	var scanned []block.Row
	for row, err := range r.Scan(tableID, []byte{0x00}, []byte{0x02}, 0) {
		require.NoError(t, err)
		scanned = append(scanned, row)
	}
	require.Len(t, scanned, 2)
	v0, _ := scanned[0].Get("id")
	v1, _ := scanned[1].Get("id")
	assert.Equal(t, int32(1), v0.I32)
	assert.Equal(t, int32(2), v1.I32)
}

func TestGetRejectsMismatchedTableID(t *testing.T) {
	path, _ := buildPointGetScenarioFile(t)

	r, err := Open(path, nil)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Get(sstfmt.TableID{0xFF}, []byte{0x00})
	assert.Error(t, err)
}

func TestReaderRejectsUseAfterClose(t *testing.T) {
	path, tableID := buildPointGetScenarioFile(t)

	r, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Get(tableID, []byte{0x00})
	assert.Error(t, err)
}

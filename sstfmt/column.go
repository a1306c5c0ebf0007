package sstfmt

import (
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// ColumnDescriptor is one entry of a header's embedded column list: a
// name, its type in canonical text form (parsed by the schema package's
// type grammar), and the primary-key role flags §4.E specifies.
type ColumnDescriptor struct {
	Name         string
	TypeText     string
	IsPrimaryKey bool
	IsClustering bool
	IsStatic     bool
	PKPosition   int32
}

func parseColumnDescriptors(data []byte, baseOffset int) ([]ColumnDescriptor, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, errs.Corruptf("header.columns", int64(baseOffset), "negative column count %d", count)
	}

	offset := n
	cols := make([]ColumnDescriptor, 0, count)
	for i := int64(0); i < count; i++ {
		var c ColumnDescriptor

		c.Name, n, err = readString(data[offset:], "header.columns.name", baseOffset+offset)
		if err != nil {
			return nil, 0, err
		}
		offset += n

		c.TypeText, n, err = readString(data[offset:], "header.columns.type", baseOffset+offset)
		if err != nil {
			return nil, 0, err
		}
		offset += n

		if len(data) < offset+4 {
			return nil, 0, errs.Corruptf("header.columns", int64(baseOffset+offset), "short column flags/position")
		}
		c.IsPrimaryKey = data[offset] != 0
		c.IsClustering = data[offset+1] != 0
		c.IsStatic = data[offset+2] != 0
		_ = data[offset+3] // reserved
		offset += 4

		pos, n, err := vint.Decode(data[offset:])
		if err != nil {
			return nil, 0, err
		}
		c.PKPosition = int32(pos)
		offset += n

		cols = append(cols, c)
	}

	return cols, offset, nil
}

func appendColumnDescriptors(buf []byte, cols []ColumnDescriptor) []byte {
	buf = vint.Append(buf, int64(len(cols)))
	for _, c := range cols {
		buf = appendString(buf, c.Name)
		buf = appendString(buf, c.TypeText)
		buf = append(buf, boolByte(c.IsPrimaryKey), boolByte(c.IsClustering), boolByte(c.IsStatic), 0)
		buf = vint.Append(buf, int64(c.PKPosition))
	}
	return buf
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}

package sstfmt

import (
	"math"

	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// Statistics carries the summary fields §4.E places in every header:
// row count, the min/max row timestamp seen by the writer, the maximum
// deletion time among any tombstoned row (§6's supplemented deletion
// marker support), a compression ratio, and a row-size histogram.
type Statistics struct {
	RowCount          int64
	MinTimestamp      int64
	MaxTimestamp      int64
	MaxDeletionTime   int64
	CompressionRatio  float64
	// RowSizeHistogram is a vint-prefixed sequence of vints, each an
	// upper bound of a fixed-width size bucket's row count.
	RowSizeHistogram []int64
}

func parseStatistics(data []byte, baseOffset int) (Statistics, int, error) {
	var s Statistics
	offset := 0

	next := func(field string) (int64, error) {
		v, n, err := vint.Decode(data[offset:])
		if err != nil {
			return 0, errs.Wrap(errs.Corrupt, "header.statistics."+field, err)
		}
		offset += n
		return v, nil
	}

	var err error
	if s.RowCount, err = next("row_count"); err != nil {
		return Statistics{}, 0, err
	}
	if s.MinTimestamp, err = next("min_timestamp"); err != nil {
		return Statistics{}, 0, err
	}
	if s.MaxTimestamp, err = next("max_timestamp"); err != nil {
		return Statistics{}, 0, err
	}
	if s.MaxDeletionTime, err = next("max_deletion_time"); err != nil {
		return Statistics{}, 0, err
	}

	if len(data) < offset+8 {
		return Statistics{}, 0, errs.Corruptf("header.statistics", int64(baseOffset+offset), "short compression ratio")
	}
	s.CompressionRatio = math.Float64frombits(engine.Uint64(data[offset : offset+8]))
	offset += 8

	count, n, err := vint.Decode(data[offset:])
	if err != nil {
		return Statistics{}, 0, err
	}
	if count < 0 {
		return Statistics{}, 0, errs.Corruptf("header.statistics", int64(baseOffset+offset), "negative histogram bucket count %d", count)
	}
	offset += n

	s.RowSizeHistogram = make([]int64, 0, count)
	for i := int64(0); i < count; i++ {
		v, n, err := vint.Decode(data[offset:])
		if err != nil {
			return Statistics{}, 0, errs.Wrap(errs.Corrupt, "header.statistics.row_size_histogram", err)
		}
		s.RowSizeHistogram = append(s.RowSizeHistogram, v)
		offset += n
	}

	return s, offset, nil
}

func (s Statistics) appendTo(buf []byte) []byte {
	buf = vint.Append(buf, s.RowCount)
	buf = vint.Append(buf, s.MinTimestamp)
	buf = vint.Append(buf, s.MaxTimestamp)
	buf = vint.Append(buf, s.MaxDeletionTime)
	buf = engine.AppendUint64(buf, math.Float64bits(s.CompressionRatio))
	buf = vint.Append(buf, int64(len(s.RowSizeHistogram)))
	for _, v := range s.RowSizeHistogram {
		buf = vint.Append(buf, v)
	}
	return buf
}

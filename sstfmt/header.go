// Package sstfmt implements the on-disk layout of an "oa"-format SSTable:
// header, footer, compression descriptor, statistics block, column
// descriptors, and the free-form property map that closes out the
// header (§4.E, §6).
package sstfmt

import (
	"github.com/heliumdb/sstable/endian"
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// Magic is the 4-byte constant every "oa" SSTable file begins and ends
// with. A file whose first four bytes are anything else is rejected
// before any other field is even attempted (spec.md §8 item 2).
const Magic uint32 = 0x5A5A5A5A

// Version identifies the header layout this package implements. Its
// value, 0x6F61, is the two ASCII bytes 'o','a' read as a big-endian
// uint16 — the format generation this module targets. Unknown versions
// are rejected outright; there is no version-dispatch table (§9,
// "Forward format versions").
const Version uint16 = 0x6F61

var engine = endian.GetBigEndianEngine()

// TableID is the 16-byte identifier a header carries for its owning
// table, independent of keyspace/table-name text.
type TableID [16]byte

// Header is the parsed form of everything between a file's magic/version
// pair and its first data block (§3 SSTableHeader, §4.E).
type Header struct {
	TableID     TableID
	Keyspace    string
	TableName   string
	Generation  int64
	Compression CompressionDescriptor
	Statistics  Statistics
	Columns     []ColumnDescriptor
	Properties  PropertyMap
}

// ParseHeader reads a Header from the front of data, returning the header
// and the number of bytes consumed. It is strict: truncated input fails
// with Corrupt("header"/"magic"), and an unrecognized version fails with
// UnsupportedVersion before any other field is parsed.
func ParseHeader(data []byte) (Header, int, error) {
	if len(data) < 6 {
		return Header{}, 0, errs.Wrap(errs.Corrupt, "short header", errs.ErrShortHeader)
	}

	magic := engine.Uint32(data[0:4])
	if magic != Magic {
		return Header{}, 0, errs.Corruptf("magic", 0, "bad magic number %#08x", magic)
	}

	version := engine.Uint16(data[4:6])
	if version != Version {
		return Header{}, 0, errs.Wrap(errs.UnsupportedVersion,
			"unsupported header version", errs.ErrUnsupportedVers)
	}

	offset := 6
	var h Header

	if len(data) < offset+16 {
		return Header{}, 0, errs.Corruptf("header", int64(offset), "short table id")
	}
	copy(h.TableID[:], data[offset:offset+16])
	offset += 16

	ks, n, err := readString(data[offset:], "header.keyspace", offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.Keyspace = ks
	offset += n

	tbl, n, err := readString(data[offset:], "header.table_name", offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.TableName = tbl
	offset += n

	gen, n, err := vint.Decode(data[offset:])
	if err != nil {
		return Header{}, 0, err
	}
	h.Generation = gen
	offset += n

	comp, n, err := parseCompressionDescriptor(data[offset:], offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.Compression = comp
	offset += n

	stats, n, err := parseStatistics(data[offset:], offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.Statistics = stats
	offset += n

	cols, n, err := parseColumnDescriptors(data[offset:], offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.Columns = cols
	offset += n

	props, n, err := parsePropertyMap(data[offset:], offset)
	if err != nil {
		return Header{}, 0, err
	}
	h.Properties = props
	offset += n

	return h, offset, nil
}

// Bytes serializes h back to its on-disk form; ParseHeader(h.Bytes())
// reproduces h exactly (spec.md §8, "Header round-trip").
func (h Header) Bytes() []byte {
	buf := engine.AppendUint32(nil, Magic)
	buf = engine.AppendUint16(buf, Version)
	buf = append(buf, h.TableID[:]...)
	buf = appendString(buf, h.Keyspace)
	buf = appendString(buf, h.TableName)
	buf = vint.Append(buf, h.Generation)
	buf = h.Compression.appendTo(buf)
	buf = h.Statistics.appendTo(buf)
	buf = appendColumnDescriptors(buf, h.Columns)
	buf = h.Properties.appendTo(buf)
	return buf
}

func readString(data []byte, stage string, baseOffset int) (string, int, error) {
	length, n, err := vint.Decode(data)
	if err != nil {
		return "", 0, err
	}
	if length < 0 {
		return "", 0, errs.Corruptf(stage, int64(baseOffset), "negative string length %d", length)
	}
	end := n + int(length)
	if end > len(data) {
		return "", 0, errs.Corruptf(stage, int64(baseOffset+n), "string length exceeds remaining bytes")
	}
	return string(data[n:end]), end, nil
}

func appendString(buf []byte, s string) []byte {
	buf = vint.Append(buf, int64(len(s)))
	return append(buf, s...)
}

package sstfmt

import (
	"github.com/heliumdb/sstable/errs"
	"github.com/heliumdb/sstable/vint"
)

// CompressionDescriptor names the per-block compression algorithm and
// its chunk size, plus any algorithm-specific properties (e.g. a ZSTD
// compression level the writer used, irrelevant to the reader but
// preserved on round-trip).
type CompressionDescriptor struct {
	// Algorithm is one of "NONE", "LZ4", "SNAPPY", "DEFLATE", "ZSTD"
	// (§6). It is a plain string rather than compress.Algorithm, so sstfmt
	// does not depend on compress (the decompressor factory); block
	// converts it to compress.Algorithm to look up the codec.
	Algorithm  string
	ChunkSize  uint32
	Properties PropertyMap
}

func parseCompressionDescriptor(data []byte, baseOffset int) (CompressionDescriptor, int, error) {
	algo, n, err := readString(data, "header.compression.algorithm", baseOffset)
	if err != nil {
		return CompressionDescriptor{}, 0, err
	}
	offset := n

	if len(data) < offset+4 {
		return CompressionDescriptor{}, 0, errs.Corruptf("header.compression", int64(baseOffset+offset), "short chunk size")
	}
	chunkSize := engine.Uint32(data[offset : offset+4])
	offset += 4

	props, n, err := parsePropertyMap(data[offset:], baseOffset+offset)
	if err != nil {
		return CompressionDescriptor{}, 0, err
	}
	offset += n

	return CompressionDescriptor{Algorithm: algo, ChunkSize: chunkSize, Properties: props}, offset, nil
}

func (c CompressionDescriptor) appendTo(buf []byte) []byte {
	buf = appendString(buf, c.Algorithm)
	buf = engine.AppendUint32(buf, c.ChunkSize)
	buf = c.Properties.appendTo(buf)
	return buf
}

// PropertyMap is an ordered (name, value) list serialized as a vint count
// followed by that many length-prefixed string pairs (§4.E). Order is
// preserved so Bytes is a faithful inverse of the parser that produced
// the map, matching the header round-trip property (§8).
type PropertyMap []PropertyEntry

// PropertyEntry is one (name, value) pair of a PropertyMap.
type PropertyEntry struct {
	Name  string
	Value string
}

// Get returns the value for name, if present, scanning in order (the map
// is small and order-preserving, not indexed).
func (p PropertyMap) Get(name string) (string, bool) {
	for _, e := range p {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

func parsePropertyMap(data []byte, baseOffset int) (PropertyMap, int, error) {
	count, n, err := vint.Decode(data)
	if err != nil {
		return nil, 0, err
	}
	if count < 0 {
		return nil, 0, errs.Corruptf("header.properties", int64(baseOffset), "negative property count %d", count)
	}

	offset := n
	props := make(PropertyMap, 0, count)
	for i := int64(0); i < count; i++ {
		name, nn, err := readString(data[offset:], "header.properties.name", baseOffset+offset)
		if err != nil {
			return nil, 0, err
		}
		offset += nn

		value, nn, err := readString(data[offset:], "header.properties.value", baseOffset+offset)
		if err != nil {
			return nil, 0, err
		}
		offset += nn

		props = append(props, PropertyEntry{Name: name, Value: value})
	}

	return props, offset, nil
}

func (p PropertyMap) appendTo(buf []byte) []byte {
	buf = vint.Append(buf, int64(len(p)))
	for _, e := range p {
		buf = appendString(buf, e.Name)
		buf = appendString(buf, e.Value)
	}
	return buf
}

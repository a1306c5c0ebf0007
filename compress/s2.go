package compress

import "github.com/klauspost/compress/s2"

// S2Compressor serves the SNAPPY compression algorithm id.
//
// S2 is a strict superset of the Snappy block format: its decoder accepts
// both S2-framed and plain Snappy-framed data, so it can decompress blocks
// written by any Snappy-compatible writer without a second dependency.
type S2Compressor struct{}

var _ Codec = (*S2Compressor)(nil)

// NewS2Compressor creates a new S2 compressor.
func NewS2Compressor() S2Compressor {
	return S2Compressor{}
}

// Compress compresses the input data using S2 compression.
func (c S2Compressor) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

// Decompress decompresses S2- or Snappy-framed data.
func (c S2Compressor) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Decode(nil, data)
}

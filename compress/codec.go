package compress

import "fmt"

// Algorithm identifies a block compression algorithm by the ASCII name used
// in the on-disk compression descriptor (§6 of the on-disk format).
type Algorithm string

const (
	None    Algorithm = "NONE"
	LZ4     Algorithm = "LZ4"
	Snappy  Algorithm = "SNAPPY"
	Deflate Algorithm = "DEFLATE"
	Zstd    Algorithm = "ZSTD"
)

// Compressor compresses a byte slice, used only to build round-trip test
// fixtures; the reader itself never compresses data.
type Compressor interface {
	// Compress compresses the input data and returns the compressed result.
	//
	// Memory management:
	//   - Returned slice is owned by the caller; NoOpCompressor returns the
	//     input slice itself rather than a copy
	//   - Input slice is not modified
	Compress(data []byte) ([]byte, error)
}

// Decompressor decompresses a block's compressed chunk bytes.
//
// Error conditions:
//   - Returns error if input data is corrupted or truncated
//   - Returns error if data was compressed with an incompatible algorithm
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both compression and decompression capabilities.
type Codec interface {
	Compressor
	Decompressor
}

// NoOpCompressor implements Codec for the NONE algorithm: a block stored
// with no compression at all. Compress/Decompress both return the input
// slice unchanged, so callers must not mutate a slice returned from either
// method while the original is still in use.
type NoOpCompressor struct{}

var _ Codec = (*NoOpCompressor)(nil)

// NewNoOpCompressor returns a Codec that passes block bytes through
// unmodified.
func NewNoOpCompressor() NoOpCompressor {
	return NoOpCompressor{}
}

func (c NoOpCompressor) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (c NoOpCompressor) Decompress(data []byte) ([]byte, error) {
	return data, nil
}

// CreateCodec is a factory function that creates a Codec for the named
// algorithm.
//
// Parameters:
//   - algorithm: one of None, LZ4, Snappy, Deflate, Zstd
//   - target: description of target usage (for error messages)
func CreateCodec(algorithm Algorithm, target string) (Codec, error) {
	switch algorithm {
	case None:
		return NewNoOpCompressor(), nil
	case LZ4:
		return NewLZ4Compressor(), nil
	case Snappy:
		return NewS2Compressor(), nil
	case Deflate:
		return NewDeflateCompressor(), nil
	case Zstd:
		return NewZstdCompressor(), nil
	default:
		return nil, fmt.Errorf("invalid %s compression algorithm: %q", target, algorithm)
	}
}

var builtinCodecs = map[Algorithm]Codec{
	None:    NewNoOpCompressor(),
	LZ4:     NewLZ4Compressor(),
	Snappy:  NewS2Compressor(),
	Deflate: NewDeflateCompressor(),
	Zstd:    NewZstdCompressor(),
}

// GetCodec retrieves a built-in Codec for the named algorithm.
func GetCodec(algorithm Algorithm) (Codec, error) {
	if codec, ok := builtinCodecs[algorithm]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression algorithm: %q", algorithm)
}

// Package compress provides the block-level decompression codecs used by the
// SSTable reader.
//
// Cassandra's "oa" SSTable format compresses each data block independently;
// the file header's compression descriptor names the one algorithm used for
// every block by an ASCII string (§6 of the on-disk format): NONE, LZ4,
// SNAPPY, DEFLATE, or ZSTD. This package maps each name to a Codec.
//
// # Architecture
//
// Two interfaces, matching the two directions a reader actually needs
// (decompression) and a writer would need (compression, exercised here only
// for round-trip tests):
//
//	type Compressor interface {
//	    Compress(data []byte) ([]byte, error)
//	}
//
//	type Decompressor interface {
//	    Decompress(data []byte) ([]byte, error)
//	}
//
//	type Codec interface {
//	    Compressor
//	    Decompressor
//	}
//
// # Supported algorithms
//
// NONE passes data through unchanged. LZ4 favors fast decompression over
// compression ratio. SNAPPY is served by the S2 decoder, a strict superset
// of the Snappy block format. DEFLATE and ZSTD trade decompression speed for
// a better ratio, appropriate for cold partitions.
//
// # Thread safety
//
// All Codec implementations in this package are safe for concurrent use;
// internal scratch buffers are pooled rather than held on the codec value.
package compress

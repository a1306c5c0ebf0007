package sstable

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/heliumdb/sstable/cql"
	"github.com/heliumdb/sstable/internal/cache"
	internaloptions "github.com/heliumdb/sstable/internal/options"
	"github.com/heliumdb/sstable/udt"
)

type openOptions struct {
	logger         logr.Logger
	blockCacheSize int
	shardCount     int
	maxDepth       int
	registry       *udt.Registry
}

func defaultOpenOptions() *openOptions {
	return &openOptions{
		logger:         logr.Discard(),
		blockCacheSize: cache.DefaultCapacity,
		shardCount:     cache.DefaultShardCount,
		maxDepth:       cql.DefaultMaxDepth,
	}
}

// Option configures a Reader at Open time. It is the internal/options
// generic functional-option machinery specialized to *openOptions, so an
// Option can reject an invalid value (a non-positive cache size, say)
// instead of only ever mutating state silently.
type Option = internaloptions.Option[*openOptions]

// WithLogger sets the logr.Logger the reader holds. The default is
// logr.Discard(). The current read path emits no log lines through it.
func WithLogger(logger logr.Logger) Option {
	return internaloptions.NoError(func(o *openOptions) {
		o.logger = logger
	})
}

// WithBlockCacheSize overrides the number of decoded blocks cached per
// shard. The default, cache.DefaultCapacity per shard across
// cache.DefaultShardCount shards, is 256 blocks in total (§4.H).
func WithBlockCacheSize(n int) Option {
	return internaloptions.New(func(o *openOptions) error {
		if n <= 0 {
			return fmt.Errorf("sstable: block cache size must be positive, got %d", n)
		}
		o.blockCacheSize = n
		return nil
	})
}

// WithBlockCacheShards overrides the number of stripes the block cache is
// split across (§5's "shard-striped map").
func WithBlockCacheShards(n int) Option {
	return internaloptions.New(func(o *openOptions) error {
		if n <= 0 {
			return fmt.Errorf("sstable: block cache shard count must be positive, got %d", n)
		}
		o.shardCount = n
		return nil
	})
}

// WithMaxDepth overrides the recursion depth the complex-type codec
// tolerates before failing with DepthLimitExceeded (§4.D's default is 16).
func WithMaxDepth(n int) Option {
	return internaloptions.New(func(o *openOptions) error {
		if n <= 0 {
			return fmt.Errorf("sstable: max depth must be positive, got %d", n)
		}
		o.maxDepth = n
		return nil
	})
}

// WithUDTRegistry supplies the UDT registry used to resolve udt(name)
// columns. Without one, UDT columns fall back to the embedded decode
// path (§4.D) with synthetic field names.
func WithUDTRegistry(reg *udt.Registry) Option {
	return internaloptions.NoError(func(o *openOptions) {
		o.registry = reg
	})
}

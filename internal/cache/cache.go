// Package cache implements the shard-striped block cache an SSTable reader
// keeps in front of its data blocks (§4.H, §5): a fixed number of
// independently-locked shards, each holding an LRU of decoded blocks, with
// concurrent misses for the same key collapsed into a single load via
// singleflight.
package cache

import (
	"container/list"
	"sync"

	"golang.org/x/sync/singleflight"
)

// DefaultCapacity is the default number of entries held per shard. With
// DefaultShardCount shards it bounds the cache at 256 entries in total
// (§4.H).
const DefaultCapacity = 256 / DefaultShardCount

// DefaultShardCount is the default number of shards the cache stripes its
// keyspace across.
const DefaultShardCount = 16

type entry struct {
	key   string
	value any
}

// shard is one independently-locked LRU segment. elem.Value is always a
// pointer to entry.
type shard struct {
	mu       sync.Mutex
	capacity int
	items    map[string]*list.Element
	order    *list.List

	group singleflight.Group
}

func newShard(capacity int) *shard {
	return &shard{
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

func (s *shard) get(key string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.items[key]
	if !ok {
		return nil, false
	}
	s.order.MoveToFront(el)
	return el.Value.(*entry).value, true
}

func (s *shard) put(key string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		el.Value.(*entry).value = value
		s.order.MoveToFront(el)
		return
	}

	el := s.order.PushFront(&entry{key: key, value: value})
	s.items[key] = el

	if s.order.Len() > s.capacity {
		oldest := s.order.Back()
		if oldest != nil {
			s.order.Remove(oldest)
			delete(s.items, oldest.Value.(*entry).key)
		}
	}
}

func (s *shard) remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if el, ok := s.items[key]; ok {
		s.order.Remove(el)
		delete(s.items, key)
	}
}

func (s *shard) len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Cache is a sharded, bounded LRU cache keyed by string, sized for caching
// decoded data blocks keyed by their file offset. It is safe for concurrent
// use; each shard has its own mutex and singleflight group, so lookups for
// keys in different shards never contend.
type Cache struct {
	shards []*shard
	mask   uint64
}

// New creates a Cache with the given per-shard capacity and shard count.
// shardCount is rounded up to the next power of two so the shard for a key
// can be picked with a mask instead of a modulo.
func New(capacity, shardCount int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if shardCount <= 0 {
		shardCount = DefaultShardCount
	}
	shardCount = nextPowerOfTwo(shardCount)

	c := &Cache{
		shards: make([]*shard, shardCount),
		mask:   uint64(shardCount - 1),
	}
	for i := range c.shards {
		c.shards[i] = newShard(capacity)
	}
	return c
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (c *Cache) shardFor(key string) *shard {
	return c.shards[fnv64(key)&c.mask]
}

// fnv64 hashes key for shard selection only; it is not used for any data
// integrity purpose, so the plain FNV-1a constants are adequate here and
// keep this package free of an xxhash dependency it doesn't otherwise need.
func fnv64(key string) uint64 {
	const offset64 = 14695981039346656037
	const prime64 = 1099511628211

	h := uint64(offset64)
	for i := 0; i < len(key); i++ {
		h ^= uint64(key[i])
		h *= prime64
	}
	return h
}

// Get returns the cached value for key, if present, moving it to the front
// of its shard's LRU order.
func (c *Cache) Get(key string) (any, bool) {
	return c.shardFor(key).get(key)
}

// Put inserts or updates the cached value for key, evicting the shard's
// least-recently-used entry if it is now over capacity.
func (c *Cache) Put(key string, value any) {
	c.shardFor(key).put(key, value)
}

// Remove evicts key, if present.
func (c *Cache) Remove(key string) {
	c.shardFor(key).remove(key)
}

// Len returns the total number of entries cached across all shards.
func (c *Cache) Len() int {
	total := 0
	for _, s := range c.shards {
		total += s.len()
	}
	return total
}

// GetOrLoad returns the cached value for key if present; otherwise it calls
// load and caches the result. Concurrent GetOrLoad calls for the same key
// within the same shard collapse into a single load call, via that shard's
// singleflight.Group, so a cache stampede on a hot block only decodes it
// once.
func (c *Cache) GetOrLoad(key string, load func() (any, error)) (any, error) {
	s := c.shardFor(key)

	if v, ok := s.get(key); ok {
		return v, nil
	}

	v, err, _ := s.group.Do(key, func() (any, error) {
		if v, ok := s.get(key); ok {
			return v, nil
		}
		v, err := load()
		if err != nil {
			return nil, err
		}
		s.put(key, v)
		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

package schema

import (
	"sync"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru"
	"github.com/pkg/errors"
)

// DefaultCacheSize keeps only the most recent format row, replacing it whenever a different
// row is seen.
const DefaultCacheSize = 1

// Cache memoizes parsed schemas keyed by a hash of the raw format row. It is safe for
// concurrent use; lookups, parses and replacements happen under one lock so a caller never sees
// a partially built Schema.
type Cache struct {
	mu       sync.Mutex
	store    *lru.Cache
	observer func(hit bool, s *Schema)
}

type CacheOption func(*cacheOptions)

type cacheOptions struct {
	size     int
	observer func(hit bool, s *Schema)
}

// WithCacheSize sets how many distinct rows stay parsed.
func WithCacheSize(n int) CacheOption {
	return func(o *cacheOptions) {
		o.size = n
	}
}

// WithObserver registers a callback run after every lookup, inside the cache lock.
func WithObserver(fn func(hit bool, s *Schema)) CacheOption {
	return func(o *cacheOptions) {
		o.observer = fn
	}
}

func NewCache(opts ...CacheOption) (*Cache, error) {
	o := cacheOptions{size: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}

	store, err := lru.New(o.size)
	if err != nil {
		return nil, errors.Wrapf(err, "creating schema cache of size %d", o.size)
	}
	return &Cache{store: store, observer: o.observer}, nil
}

// RowHash hashes the row's descriptors in order. Each descriptor is terminated by a zero byte
// so rows that differ only in where columns split hash differently.
func RowHash(row []string) uint64 {
	d := xxhash.New()
	for _, col := range row {
		_, _ = d.WriteString(col)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// GetOrParse returns the schema for row, parsing it only when the row has not been seen.
func (c *Cache) GetOrParse(row []string) *Schema {
	key := RowHash(row)

	c.mu.Lock()
	defer c.mu.Unlock()

	if v, ok := c.store.Get(key); ok {
		if s := v.(*Schema); sameRow(s, row) {
			c.observe(true, s)
			return s
		}
	}

	s := Parse(row)
	c.store.Add(key, s)
	c.observe(false, s)
	return s
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	return c.store.Len()
}

// Purge drops every cached schema.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Purge()
}

func (c *Cache) observe(hit bool, s *Schema) {
	if c.observer != nil {
		c.observer(hit, s)
	}
}

func sameRow(s *Schema, row []string) bool {
	if s.Len() != len(row) {
		return false
	}
	for i, src := range row {
		if s.fields[i].Source != src {
			return false
		}
	}
	return true
}

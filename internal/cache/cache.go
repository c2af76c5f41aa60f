// Package cache memoizes computed views keyed on the journal revision.
package cache

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/ristretto"
)

// Cache is a TTL cache whose keys embed a revision counter, so bumping the
// revision makes every earlier entry unreachable. A nil *Cache is valid and
// caches nothing.
type Cache struct {
	c        *ristretto.Cache
	ttl      time.Duration
	revision atomic.Uint64
}

// New creates a cache bounded by maxCost entries. A maxCost of zero or
// less disables caching and returns nil.
func New(maxCost int64, ttl time.Duration) (*Cache, error) {
	if maxCost <= 0 {
		return nil, nil
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10 * maxCost,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Cache{c: c, ttl: ttl}, nil
}

// Key joins parts under the current revision.
func (c *Cache) Key(parts ...interface{}) string {
	var b strings.Builder
	fmt.Fprintf(&b, "r%d", c.Revision())
	for _, p := range parts {
		fmt.Fprintf(&b, "|%v", p)
	}
	return b.String()
}

// Revision returns the current revision.
func (c *Cache) Revision() uint64 {
	if c == nil {
		return 0
	}
	return c.revision.Load()
}

func (c *Cache) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	return c.c.Get(key)
}

func (c *Cache) Set(key string, val any) {
	if c == nil {
		return
	}
	c.c.SetWithTTL(key, val, 1, c.ttl)
}

func (c *Cache) Del(key string) {
	if c == nil {
		return
	}
	c.c.Del(key)
}

// Invalidate advances the revision and drops every entry.
func (c *Cache) Invalidate() {
	if c == nil {
		return
	}
	c.revision.Add(1)
	c.c.Clear()
}

// Wait blocks until pending writes are applied.
func (c *Cache) Wait() {
	if c == nil {
		return
	}
	c.c.Wait()
}

// Close stops the cache's background goroutines.
func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.c.Close()
}

// Memo returns the cached value for key or computes and stores it.
// Values of an unexpected type are recomputed.
func Memo[T any](c *Cache, key string, compute func() T) T {
	if v, ok := c.Get(key); ok {
		if typed, ok := v.(T); ok {
			return typed
		}
	}
	v := compute()
	c.Set(key, v)
	return v
}

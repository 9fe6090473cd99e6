package registry

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of keys remembered by a Cached lookup.
const DefaultCacheSize = 256

type cachedAnswer struct {
	version string
	err     error
}

// Cached memoizes answers of an underlying Lookup, failures included, so a
// build file that installs the same extension on several lines queries the
// registry once per run.
type Cached struct {
	next  Lookup
	cache *lru.Cache[string, cachedAnswer]
}

// NewCached wraps next with an LRU of the given size.
func NewCached(next Lookup, size int) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, cachedAnswer](size)
	if err != nil {
		return nil, fmt.Errorf("creating lookup cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

// Latest returns the remembered answer for key or asks the wrapped lookup.
// Answers caused by context cancellation are not remembered.
func (c *Cached) Latest(ctx context.Context, key string) (string, error) {
	if a, ok := c.cache.Get(key); ok {
		return a.version, a.err
	}
	version, err := c.next.Latest(ctx, key)
	if ctx.Err() == nil {
		c.cache.Add(key, cachedAnswer{version: version, err: err})
	}
	return version, err
}

// Len returns the number of cached keys.
func (c *Cached) Len() int {
	return c.cache.Len()
}

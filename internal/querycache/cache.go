// Package querycache memoizes backend reads by query identity and drops them
// when a mutation makes them stale.
package querycache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"laune/reader/internal/metrics"
)

// Query identities.
const (
	FeedsKey    = "feeds"
	ArticlesKey = "articles"
)

// FeedArticlesKey identifies the article list of one feed.
func FeedArticlesKey(feedID string) string { return ArticlesKey + ":" + feedID }

// ArticleKey identifies a single article.
func ArticleKey(id string) string { return "article:" + id }

// SummaryKey identifies the stored summary of an article.
func SummaryKey(articleID string) string { return "summary:" + articleID }

// Cache is a bounded, expiring map from query identity to result. Concurrent
// misses for the same key share a single load.
type Cache struct {
	entries *expirable.LRU[string, any]
	group   singleflight.Group

	mu  sync.Mutex
	gen uint64
}

// New creates a cache holding at most size entries for ttl each. A zero ttl
// keeps entries until evicted or invalidated.
func New(size int, ttl time.Duration) *Cache {
	return &Cache{entries: expirable.NewLRU[string, any](size, nil, ttl)}
}

// Get returns the cached value for key or calls load to produce it. Failed
// loads are not cached. A load that overlaps an invalidation returns its
// result to its callers but does not store it. The shared load runs detached
// from any one caller's cancellation; each caller still returns early when
// its own ctx is done.
func Get[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (T, error) {
	var zero T
	if v, ok := c.entries.Get(key); ok {
		if t, ok := v.(T); ok {
			metrics.RecordCacheLookup("hit")
			return t, nil
		}
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strconv.FormatUint(gen, 10)+"|"+key, func() (any, error) {
		val, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.entries.Add(key, val)
		}
		c.mu.Unlock()
		return val, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res = <-ch:
	}

	if res.Shared {
		metrics.RecordCacheLookup("shared")
	} else {
		metrics.RecordCacheLookup("miss")
	}
	if res.Err != nil {
		return zero, res.Err
	}
	return res.Val.(T), nil
}

// Invalidate drops the given keys.
func (c *Cache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for _, k := range keys {
		c.entries.Remove(k)
	}
}

// InvalidatePrefix drops every key starting with prefix.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	for _, k := range c.entries.Keys() {
		if strings.HasPrefix(k, prefix) {
			c.entries.Remove(k)
		}
	}
}

// Purge drops everything.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.entries.Purge()
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	return c.entries.Len()
}

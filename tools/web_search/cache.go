package web_search

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/medconsensus/tools/web_search/models"
)

// Cache stores search results by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]models.Result, bool, error)
	Set(ctx context.Context, key string, results []models.Result, ttl time.Duration) error
}

// CacheObserver is notified of hits and misses.
type CacheObserver interface {
	ObserveSearchCache(hit bool)
}

// MemoryCache is a bounded in-process LRU with per-cache expiry.
type MemoryCache struct {
	lru *expirable.LRU[string, []models.Result]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 128
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []models.Result](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]models.Result, bool, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	return append([]models.Result(nil), v...), true, nil
}

// Set ignores ttl; expiry is fixed when the cache is built.
func (m *MemoryCache) Set(_ context.Context, key string, results []models.Result, _ time.Duration) error {
	m.lru.Add(key, append([]models.Result(nil), results...))
	return nil
}

func (m *MemoryCache) Len() int { return m.lru.Len() }

type cached struct {
	next     Searcher
	cache    Cache
	ttl      time.Duration
	logger   *zap.Logger
	observer CacheObserver
}

// CachedOption configures the caching decorator.
type CachedOption func(*cached)

func WithCacheObserver(o CacheObserver) CachedOption {
	return func(c *cached) { c.observer = o }
}

// Cached serves repeated identical searches from cache. Cache failures are
// logged and never fail the search. Empty results are not stored.
func Cached(next Searcher, cache Cache, ttl time.Duration, logger *zap.Logger, opts ...CachedOption) Searcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &cached{next: next, cache: cache, ttl: ttl, logger: logger.Named("search_cache")}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CacheKey identifies a search by its exact arguments.
func CacheKey(query string, n int, trusted bool) string {
	return fmt.Sprintf("%s|%d|%t", query, n, trusted)
}

func (c *cached) Search(ctx context.Context, query string, n int, trusted bool) ([]models.Result, error) {
	key := CacheKey(query, n, trusted)
	results, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	}
	if c.observer != nil {
		c.observer.ObserveSearchCache(ok)
	}
	if ok {
		return results, nil
	}
	results, err = c.next.Search(ctx, query, n, trusted)
	if err != nil {
		return nil, err
	}
	if len(results) > 0 {
		if err := c.cache.Set(ctx, key, results, c.ttl); err != nil {
			c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return results, nil
}

// Package cache stores executed search results in Redis, keyed by the
// canonical form of the query plan so that equivalent queries share an entry.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/authority-search/internal/searcher/parser"
	"github.com/Adithya-Monish-Kumar-K/authority-search/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/authority-search/pkg/redis"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store      Store
	ttl        time.Duration
	generation string
	group      singleflight.Group
	metrics    *metrics.Metrics
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

// New creates a QueryCache. generation identifies the index the cached
// results were computed from and is mixed into every key, so entries left by
// an older build are never served. m may be nil.
func New(store Store, ttl time.Duration, generation string, m *metrics.Metrics) *QueryCache {
	return &QueryCache{
		store:      store,
		ttl:        ttl,
		generation: generation,
		metrics:    m,
		logger:     slog.Default().With("component", "query-cache", "generation", generation),
	}
}

// Get returns the cached result for plan. Equivalent plans share an entry, so
// the returned result always echoes plan's own query and terms.
func (c *QueryCache) Get(ctx context.Context, plan *parser.QueryPlan, limit int) (*executor.SearchResult, bool) {
	key := BuildKey(c.generation, plan, limit)
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.recordMiss()
		return nil, false
	}
	var result executor.SearchResult
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return nil, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "query", plan.RawQuery, "key", key)
	return relabel(&result, plan), true
}

func (c *QueryCache) Set(ctx context.Context, plan *parser.QueryPlan, limit int, result *executor.SearchResult) {
	key := BuildKey(c.generation, plan, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result for plan or runs computeFn once per
// key, even when many callers miss at the same time. The boolean reports a
// cache hit.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	plan *parser.QueryPlan,
	limit int,
	computeFn func() (*executor.SearchResult, error),
) (*executor.SearchResult, bool, error) {
	if result, ok := c.Get(ctx, plan, limit); ok {
		return result, true, nil
	}
	key := BuildKey(c.generation, plan, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, plan, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return relabel(val.(*executor.SearchResult), plan), false, nil
}

// relabel returns a copy of result carrying plan's query and terms. The
// ranked results slice is shared; callers treat it as read-only.
func relabel(result *executor.SearchResult, plan *parser.QueryPlan) *executor.SearchResult {
	out := *result
	out.Query = plan.RawQuery
	out.Terms = plan.Terms()
	return &out
}

func (c *QueryCache) Invalidate(ctx context.Context) (int64, error) {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return deleted, fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return deleted, nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.CacheHitsTotal.Inc()
	}
}

func (c *QueryCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.CacheMissesTotal.Inc()
	}
}

// BuildKey derives the Redis key for plan and limit within an index
// generation. "bike AND fish" and "fish and bike" map to the same key.
func BuildKey(generation string, plan *parser.QueryPlan, limit int) string {
	raw := fmt.Sprintf("%s:%s:limit=%d", generation, plan.Canonical(), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}

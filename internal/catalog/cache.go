package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

// SnapshotCache stores whole catalog snapshots.
type SnapshotCache interface {
	Get(ctx context.Context) ([]Product, error)
	Set(ctx context.Context, products []Product, ttl time.Duration) error
}

const snapshotKey = "catalog:snapshot"

// sharedFetchTimeout bounds an upstream fetch shared by concurrent misses.
// The fetch does not follow any one caller's context.
const sharedFetchTimeout = 30 * time.Second

type RedisCache struct {
	client *redis.Client
	key    string
}

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, key: snapshotKey}
}

func (r *RedisCache) Get(ctx context.Context) ([]Product, error) {
	data, err := r.client.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	return products, nil
}

func (r *RedisCache) Set(ctx context.Context, products []Product, ttl time.Duration) error {
	data, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}
	if err := r.client.Set(ctx, r.key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// MemoryCache is the in-process fallback when no Redis is configured.
type MemoryCache struct {
	mu       sync.RWMutex
	products []Product
	expires  time.Time
	now      func() time.Time
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

func (m *MemoryCache) Get(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.products == nil || !m.now().Before(m.expires) {
		return nil, ErrCacheMiss
	}
	return m.products, nil
}

func (m *MemoryCache) Set(ctx context.Context, products []Product, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products = products
	m.expires = m.now().Add(ttl)
	return nil
}

// CachedSource serves snapshots from cache for up to ttl. Concurrent misses
// share a single upstream fetch. Cache faults are logged and bypassed; they
// never turn into catalog errors.
type CachedSource struct {
	next   Source
	cache  SnapshotCache
	ttl    time.Duration
	logger *zap.Logger
	sfg    singleflight.Group
}

func NewCachedSource(next Source, cache SnapshotCache, ttl time.Duration, logger *zap.Logger) *CachedSource {
	return &CachedSource{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (s *CachedSource) Products(ctx context.Context) ([]Product, error) {
	products, err := s.cache.Get(ctx)
	if err == nil {
		return products, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("catalog cache get failed", zap.Error(err))
	}

	ch := s.sfg.DoChan(snapshotKey, func() (interface{}, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		products, err := s.next.Products(fetchCtx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(fetchCtx, products, s.ttl); err != nil {
			s.logger.Warn("catalog cache set failed", zap.Error(err))
		}
		return products, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Product), nil
	}
}

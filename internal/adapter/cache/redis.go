// internal/adapter/cache/redis.go

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"shopmap/internal/domain/shop"
)

// QueryCache caches shop listings in Redis. Every write bumps a generation
// counter that is part of each key, so stale listings are never read and
// simply expire.
type QueryCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// NewQueryCache creates a new query cache
func NewQueryCache(client *redis.Client, prefix string, ttl time.Duration, logger *zap.Logger) *QueryCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueryCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached listing for q. Redis errors count as a miss.
func (c *QueryCache) Get(ctx context.Context, q shop.Query) ([]shop.Shop, bool) {
	gen, err := c.generation(ctx)
	if err != nil {
		c.logger.Debug("Shop cache unavailable", zap.Error(err))
		return nil, false
	}

	data, err := c.client.Get(ctx, c.key(gen, q)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Debug("Shop cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var items []shop.Shop
	if err := json.Unmarshal(data, &items); err != nil {
		c.logger.Warn("Dropping unreadable cache entry", zap.Error(err))
		return nil, false
	}

	return items, true
}

// Set stores the listing for q
func (c *QueryCache) Set(ctx context.Context, q shop.Query, items []shop.Shop) error {
	gen, err := c.generation(ctx)
	if err != nil {
		return err
	}

	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal shops: %w", err)
	}

	if err := c.client.Set(ctx, c.key(gen, q), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache shops: %w", err)
	}
	return nil
}

// Invalidate makes every cached listing unreachable
func (c *QueryCache) Invalidate(ctx context.Context) error {
	if err := c.client.Incr(ctx, c.generationKey()).Err(); err != nil {
		return fmt.Errorf("failed to bump cache generation: %w", err)
	}
	return nil
}

func (c *QueryCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read cache generation: %w", err)
	}
	return gen, nil
}

func (c *QueryCache) generationKey() string {
	return c.prefix + ":gen"
}

func (c *QueryCache) key(gen int64, q shop.Query) string {
	return fmt.Sprintf("%s:%d:%s", c.prefix, gen, queryKey(q))
}

// queryKey identifies a query; coordinates are rounded to about 10cm
func queryKey(q shop.Query) string {
	return fmt.Sprintf("%.6f:%.6f:%d:%s",
		q.Center.Lat,
		q.Center.Lng,
		q.RangeM,
		strings.ToLower(strings.TrimSpace(q.Term)),
	)
}

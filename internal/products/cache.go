package product

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
	"github.com/google/uuid"
)

const (
	cacheKind       = "product"
	defaultCacheTTL = 5 * time.Minute
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(kind, id string) string
}

// Cache is a cache-aside layer for product-by-id reads. A nil *Cache is a no-op.
// Redis failures are logged and the caller falls through to the database.
type Cache struct {
	store cacheStore
	ttl   time.Duration
	logg  *logger.Logger
}

// NewCache builds a product cache over the given store.
func NewCache(store cacheStore, ttl time.Duration, logg *logger.Logger) *Cache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Cache{store: store, ttl: ttl, logg: logg}
}

// Get returns the cached product, if any.
func (c *Cache) Get(ctx context.Context, id uuid.UUID) (*models.Product, bool) {
	if c == nil {
		return nil, false
	}
	raw, err := c.store.Get(ctx, c.key(id))
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		return nil, false
	default:
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "product cache read failed")
		return nil, false
	}
	var product models.Product
	if err := json.Unmarshal([]byte(raw), &product); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "product cache entry unreadable")
		return nil, false
	}
	return &product, true
}

// Set stores the product for the configured TTL.
func (c *Cache) Set(ctx context.Context, product *models.Product) {
	if c == nil || product == nil {
		return
	}
	data, err := json.Marshal(product)
	if err != nil {
		return
	}
	if err := c.store.Set(ctx, c.key(product.ID), string(data), c.ttl); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "product cache write failed")
	}
}

// Invalidate drops the cached entries of the given products.
func (c *Cache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, c.key(id))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logg.Warn(c.logg.WithField(ctx, "error", err.Error()), "product cache invalidation failed")
	}
}

func (c *Cache) key(id uuid.UUID) string {
	return c.store.CacheKey(cacheKind, id.String())
}

package products

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
	"github.com/angelmondragon/storefront-backend/pkg/redis"
)

const (
	cacheName      = "product"
	generationName = "product-gen"
	missMarker     = "null"
	defaultMissTTL = time.Minute
	// generationTTL outlives any single read-through load.
	generationTTL = 10 * time.Minute
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	CacheKey(kind, id string) string
}

// ProductCache is a read-through cache of product payloads. Failures never
// surface to callers; they are logged and the database answers instead.
type ProductCache struct {
	store   cacheStore
	ttl     time.Duration
	missTTL time.Duration
	metrics *metrics.CacheMetrics
	logg    *logger.Logger
}

// NewProductCache returns nil when store is nil, which disables caching.
func NewProductCache(store cacheStore, ttl time.Duration, m *metrics.CacheMetrics, logg *logger.Logger) *ProductCache {
	if store == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &ProductCache{store: store, ttl: ttl, missTTL: defaultMissTTL, metrics: m, logg: logg}
}

type cacheLookup int

const (
	lookupMiss cacheLookup = iota
	lookupHit
	lookupNegative
)

func (c *ProductCache) key(id uuid.UUID) string {
	return c.store.CacheKey(cacheName, id.String())
}

func (c *ProductCache) get(ctx context.Context, id uuid.UUID) (*ProductDTO, cacheLookup) {
	if c == nil {
		return nil, lookupMiss
	}
	raw, err := c.store.Get(ctx, c.key(id))
	if err != nil {
		if redis.IsNil(err) {
			c.metrics.Inc(cacheName, "miss")
			return nil, lookupMiss
		}
		c.metrics.Inc(cacheName, "error")
		c.warn(ctx, "product cache read failed", id, err)
		return nil, lookupMiss
	}
	if raw == missMarker {
		c.metrics.Inc(cacheName, "negative")
		return nil, lookupNegative
	}
	var dto ProductDTO
	if err := json.Unmarshal([]byte(raw), &dto); err != nil {
		c.metrics.Inc(cacheName, "error")
		c.warn(ctx, "product cache entry corrupt", id, err)
		return nil, lookupMiss
	}
	c.metrics.Inc(cacheName, "hit")
	return &dto, lookupHit
}

// generation is the invalidation token seen before a read-through load.
// known is false when the token could not be read, and nothing may be filled.
type generation struct {
	token string
	known bool
}

func (c *ProductCache) generationKey(id uuid.UUID) string {
	return c.store.CacheKey(generationName, id.String())
}

func (c *ProductCache) generation(ctx context.Context, id uuid.UUID) generation {
	if c == nil {
		return generation{}
	}
	token, err := c.store.Get(ctx, c.generationKey(id))
	switch {
	case err == nil:
		return generation{token: token, known: true}
	case redis.IsNil(err):
		return generation{known: true}
	default:
		c.warn(ctx, "product cache generation read failed", id, err)
		return generation{}
	}
}

func (c *ProductCache) put(ctx context.Context, dto *ProductDTO, gen generation) {
	if c == nil || dto == nil {
		return
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		c.warn(ctx, "product cache encode failed", dto.ID, err)
		return
	}
	c.fill(ctx, dto.ID, string(payload), c.ttl, gen)
}

func (c *ProductCache) putMiss(ctx context.Context, id uuid.UUID, gen generation) {
	if c == nil {
		return
	}
	c.fill(ctx, id, missMarker, c.missTTL, gen)
}

// fill writes the entry, then drops it again if an invalidation bumped the
// generation since gen was read. Invalidate bumps before it deletes, so either
// its delete or this re-check removes a payload loaded before the write.
func (c *ProductCache) fill(ctx context.Context, id uuid.UUID, value string, ttl time.Duration, gen generation) {
	if !gen.known {
		return
	}
	key := c.key(id)
	if err := c.store.Set(ctx, key, value, ttl); err != nil {
		c.warn(ctx, "product cache write failed", id, err)
		return
	}
	if now := c.generation(ctx, id); now.known && now.token == gen.token {
		return
	}
	c.metrics.Inc(cacheName, "stale")
	if err := c.store.Del(ctx, key); err != nil {
		c.warn(ctx, "product cache stale entry removal failed", id, err)
	}
}

// Invalidate drops the cached entries of the given products.
func (c *ProductCache) Invalidate(ctx context.Context, ids ...uuid.UUID) {
	if c == nil || len(ids) == 0 {
		return
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		if err := c.store.Set(ctx, c.generationKey(id), uuid.NewString(), generationTTL); err != nil {
			c.warn(ctx, "product cache generation bump failed", id, err)
		}
		keys = append(keys, c.key(id))
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.warn(ctx, "product cache invalidation failed", ids[0], err)
	}
}

func (c *ProductCache) warn(ctx context.Context, msg string, id uuid.UUID, err error) {
	ctx = c.logg.WithFields(ctx, map[string]any{
		"product_id": id.String(),
		"error":      err.Error(),
	})
	c.logg.Warn(ctx, msg)
}

package products

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/db/models"
	"github.com/angelmondragon/storefront-backend/pkg/metrics"
)

type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	ttls    map[string]time.Duration
	failGet bool
}

func newMemStore() *memStore {
	return &memStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return "", errors.New("connection refused")
	}
	v, ok := m.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (m *memStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *memStore) CacheKey(kind, id string) string {
	return "storefront:cache:" + kind + ":" + id
}

func lookupCount(t *testing.T, reg *prometheus.Registry, result string) float64 {
	t.Helper()
	mfs, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range mfs {
		if mf.GetName() != "cache_lookups_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "result" && label.GetValue() == result {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestProductCacheServesHitsAndInvalidatesOnWrite(t *testing.T) {
	store := newMemStore()
	reg := prometheus.NewRegistry()
	f := newFixture(t, NewProductCache(store, time.Minute, metrics.NewCacheMetrics(reg), nil))
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, f.productInput("Canvas Tote"))
	require.NoError(t, err)

	_, err = f.svc.GetProduct(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, float64(1), lookupCount(t, reg, "miss"))
	assert.Equal(t, time.Minute, store.ttls[store.CacheKey(cacheName, created.ID.String())])

	// a direct write bypasses the service, so the cached copy still answers
	require.NoError(t, f.conn.Model(&models.Product{}).Where("id = ?", created.ID).
		Update("product_name", "Renamed Behind The Cache").Error)
	cached, err := f.svc.GetProduct(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Canvas Tote", cached.ProductName)
	assert.Equal(t, float64(1), lookupCount(t, reg, "hit"))

	_, err = f.svc.UpdateProduct(ctx, created.ID, UpdateProductInput{ProductName: strPtr("Canvas Tote XL")})
	require.NoError(t, err)
	fresh, err := f.svc.GetProduct(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Canvas Tote XL", fresh.ProductName)
}

func TestProductCacheRemembersMisses(t *testing.T) {
	store := newMemStore()
	reg := prometheus.NewRegistry()
	f := newFixture(t, NewProductCache(store, time.Minute, metrics.NewCacheMetrics(reg), nil))
	ctx := context.Background()

	missing := uuid.New()
	_, err := f.svc.GetProduct(ctx, missing, false)
	require.Error(t, err)

	key := store.CacheKey(cacheName, missing.String())
	assert.Equal(t, missMarker, store.values[key])
	assert.Equal(t, defaultMissTTL, store.ttls[key])

	_, err = f.svc.GetProduct(ctx, missing, false)
	require.Error(t, err)
	assert.Equal(t, float64(1), lookupCount(t, reg, "negative"))
}

func TestProductCacheHidesInactiveFromPublicReads(t *testing.T) {
	store := newMemStore()
	f := newFixture(t, NewProductCache(store, time.Minute, nil, nil))
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, f.productInput("Retired Mug"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteProduct(ctx, created.ID))

	adminView, err := f.svc.GetProduct(ctx, created.ID, true)
	require.NoError(t, err)
	assert.False(t, adminView.IsActive)

	// served from cache now, still hidden from shoppers
	_, err = f.svc.GetProduct(ctx, created.ID, false)
	require.Error(t, err)
}

func TestProductCacheFallsBackOnStoreErrors(t *testing.T) {
	store := newMemStore()
	store.failGet = true
	reg := prometheus.NewRegistry()
	f := newFixture(t, NewProductCache(store, time.Minute, metrics.NewCacheMetrics(reg), nil))
	ctx := context.Background()

	created, err := f.svc.CreateProduct(ctx, f.productInput("Steel Bottle"))
	require.NoError(t, err)

	got, err := f.svc.GetProduct(ctx, created.ID, false)
	require.NoError(t, err)
	assert.Equal(t, "Steel Bottle", got.ProductName)
	assert.Equal(t, float64(1), lookupCount(t, reg, "error"))
}

func TestNilProductCacheIsInert(t *testing.T) {
	var cache *ProductCache
	assert.Nil(t, NewProductCache(nil, time.Minute, nil, nil))

	dto, lookup := cache.get(context.Background(), uuid.New())
	assert.Nil(t, dto)
	assert.Equal(t, lookupMiss, lookup)
	cache.put(context.Background(), &ProductDTO{}, cache.generation(context.Background(), uuid.New()))
	cache.Invalidate(context.Background(), uuid.New())
}

func TestProductCacheDropsFillRacingAnInvalidation(t *testing.T) {
	store := newMemStore()
	reg := prometheus.NewRegistry()
	cache := NewProductCache(store, time.Minute, metrics.NewCacheMetrics(reg), nil)
	ctx := context.Background()
	id := uuid.New()
	key := store.CacheKey(cacheName, id.String())

	// load starts, a write commits and invalidates, then the old payload lands
	gen := cache.generation(ctx, id)
	cache.Invalidate(ctx, id)
	cache.put(ctx, &ProductDTO{ID: id, ProductName: "Before Rename"}, gen)

	_, present := store.values[key]
	assert.False(t, present)
	assert.Equal(t, float64(1), lookupCount(t, reg, "stale"))

	// the next load sees the bumped generation and sticks
	gen = cache.generation(ctx, id)
	cache.put(ctx, &ProductDTO{ID: id, ProductName: "After Rename"}, gen)
	dto, lookup := cache.get(ctx, id)
	require.Equal(t, lookupHit, lookup)
	assert.Equal(t, "After Rename", dto.ProductName)
}

func TestProductCacheSkipsFillWhenGenerationUnknown(t *testing.T) {
	store := newMemStore()
	cache := NewProductCache(store, time.Minute, nil, nil)
	ctx := context.Background()
	id := uuid.New()

	store.failGet = true
	gen := cache.generation(ctx, id)
	store.failGet = false

	cache.putMiss(ctx, id, gen)
	_, present := store.values[store.CacheKey(cacheName, id.String())]
	assert.False(t, present)
}

package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront-backend/pkg/config"
)

type mockStore struct {
	mu      sync.Mutex
	data    map[string]string
	ttls    map[string]time.Duration
	failGet error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet != nil {
		return "", m.failGet
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(store *mockStore) *Manager {
	return &Manager{store: store, keyer: store, ttl: time.Hour}
}

func TestManagerOpenAndRevoke(t *testing.T) {
	store := newMockStore()
	manager := newTestManager(store)
	ctx := context.Background()
	userID := uuid.New()
	accessID := NewAccessID()

	require.NoError(t, manager.Open(ctx, accessID, userID))
	assert.Equal(t, time.Hour, store.ttls["sess:"+accessID])

	ok, err := manager.HasSession(ctx, accessID, userID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = manager.HasSession(ctx, accessID, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok, "session belongs to a different user")

	require.NoError(t, manager.Revoke(ctx, accessID))
	ok, err = manager.HasSession(ctx, accessID, userID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerValidatesInput(t *testing.T) {
	manager := newTestManager(newMockStore())
	ctx := context.Background()

	assert.Error(t, manager.Open(ctx, "", uuid.New()))
	assert.Error(t, manager.Open(ctx, "jti", uuid.Nil))
	assert.Error(t, manager.Revoke(ctx, " "))
	_, err := manager.HasSession(ctx, "", uuid.New())
	assert.Error(t, err)
}

func TestManagerSurfacesStoreErrors(t *testing.T) {
	store := newMockStore()
	store.failGet = errors.New("connection refused")
	manager := newTestManager(store)

	_, err := manager.HasSession(context.Background(), "jti", uuid.New())
	assert.Error(t, err)
}

func TestNewManagerRequiresClient(t *testing.T) {
	_, err := NewManager(nil, config.JWTConfig{ExpirationMinutes: 10, SessionTTLMinutes: 10})
	assert.Error(t, err)
}

package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryBackend struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{data: map[string]string{}}
}

func (m *memoryBackend) key(owner uint, key string) string {
	return fmt.Sprintf("%d/%s", owner, key)
}

func (m *memoryBackend) Get(_ context.Context, owner uint, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[m.key(owner, key)]
	return v, ok, nil
}

func (m *memoryBackend) Set(_ context.Context, owner uint, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[m.key(owner, key)] = value
	return nil
}

func (m *memoryBackend) Delete(_ context.Context, owner uint, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, m.key(owner, k))
	}
	return nil
}

type profile struct {
	Name string `json:"name"`
}

func TestTTLGetOrFetch(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	cache := NewTTL[profile](newMemoryBackend(), "profile", "profile_at", 15*time.Minute).
		WithClock(func() time.Time { return now })

	calls := 0
	fetch := func(context.Context) (profile, error) {
		calls++
		return profile{Name: "ada"}, nil
	}

	got, err := cache.GetOrFetch(ctx, 1, fetch)
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Name)
	assert.Equal(t, 1, calls)

	now = now.Add(14 * time.Minute)
	_, err = cache.GetOrFetch(ctx, 1, fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "fresh value is served from storage")

	now = now.Add(2 * time.Minute)
	_, ok, fresh, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, fresh)

	_, err = cache.GetOrFetch(ctx, 1, fetch)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestTTLStaleFetchErrorIsReturned(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	cache := NewTTL[profile](newMemoryBackend(), "profile", "profile_at", time.Minute).
		WithClock(func() time.Time { return now })
	require.NoError(t, cache.Set(ctx, 1, profile{Name: "old"}))

	now = now.Add(time.Hour)
	boom := errors.New("remote down")
	_, err := cache.GetOrFetch(ctx, 1, func(context.Context) (profile, error) { return profile{}, boom })
	assert.ErrorIs(t, err, boom)
}

func TestTTLInvalidateAndOwnerIsolation(t *testing.T) {
	ctx := context.Background()
	cache := NewTTL[profile](newMemoryBackend(), "profile", "profile_at", time.Minute)
	require.NoError(t, cache.Set(ctx, 1, profile{Name: "one"}))
	require.NoError(t, cache.Set(ctx, 2, profile{Name: "two"}))

	require.NoError(t, cache.Invalidate(ctx, 1))
	_, ok, _, err := cache.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)

	got, ok, fresh, err := cache.Get(ctx, 2)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, fresh)
	assert.Equal(t, "two", got.Name)
}

func TestHistoryKeys(t *testing.T) {
	assert.Equal(t, "chat:history:abc", HistoryKey("abc"))
	assert.Equal(t, "chat:history:dirty:abc", DirtyKey("abc"))
}

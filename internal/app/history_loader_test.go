package app

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"healthhub/internal/cache"
	"healthhub/internal/model"
)

func TestNormalizeRecordsSyntheticIDsAreDistinct(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []map[string]any{
		{"role": "user", "content": "a", "timestamp": "2026-03-01T08:00:00Z"},
		{"role": "assistant", "content": "b", "timestamp": "2026-03-01T08:00:00Z"},
		{"role": "user", "content": "c", "timestamp": "2026-03-01T08:00:00Z"},
	}

	messages := NormalizeRecords(records, "s-1", now)
	require.Len(t, messages, 3)
	seen := map[string]bool{}
	for _, m := range messages {
		assert.True(t, strings.HasPrefix(m.MessageID, "msg-"), m.MessageID)
		assert.False(t, seen[m.MessageID], "duplicate id %s", m.MessageID)
		seen[m.MessageID] = true
		assert.Equal(t, "s-1", m.SessionID)
	}

	again := NormalizeRecords(records, "s-1", now)
	assert.NotEqual(t, messages[0].MessageID, again[0].MessageID)
}

func TestNormalizeRecordsFieldVariants(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	records := []map[string]any{
		{"sessionId": "other", "sender": "Human", "message": "hi", "createdAt": 1767225600.0, "id": 17.0},
		{"role": "model", "text": map[string]any{"type": "chat", "content": "structured"}, "created_at": 1767225600123.0, "messageId": "m-2"},
		{"role": "bot"},
	}

	messages := NormalizeRecords(records, "s-1", now)
	require.Len(t, messages, 3)

	assert.Equal(t, "other", messages[0].SessionID)
	assert.Equal(t, model.RoleUser, messages[0].Role)
	assert.Equal(t, "hi", messages[0].Content)
	assert.Equal(t, "17", messages[0].MessageID)
	assert.Equal(t, "2026-01-01T00:00:00.000Z", messages[0].Timestamp)

	assert.Equal(t, model.RoleAssistant, messages[1].Role)
	assert.JSONEq(t, `{"type":"chat","content":"structured"}`, messages[1].Content)
	assert.Equal(t, "2026-01-01T00:00:00.123Z", messages[1].Timestamp)
	assert.Equal(t, "m-2", messages[1].MessageID)

	assert.Equal(t, "2026-03-01T08:00:00.000Z", messages[2].Timestamp)
	assert.Equal(t, model.DeliverySent, messages[2].DeliveryStatus)
}

// memoryHistoryCache models the redis key space of cache.HistoryCache: the
// history copy and the dirty marker are separate keys.
type memoryHistoryCache struct {
	keys map[string][]model.Message
}

func newMemoryHistoryCache() *memoryHistoryCache {
	return &memoryHistoryCache{keys: map[string][]model.Message{}}
}

func (c *memoryHistoryCache) GetHistory(_ context.Context, id string) ([]model.Message, bool, error) {
	m, ok := c.keys[cache.HistoryKey(id)]
	return m, ok, nil
}

func (c *memoryHistoryCache) SetHistory(_ context.Context, id string, m []model.Message) error {
	c.keys[cache.HistoryKey(id)] = m
	return nil
}

func (c *memoryHistoryCache) DeleteHistory(_ context.Context, id string) error {
	delete(c.keys, cache.HistoryKey(id))
	return nil
}

func (c *memoryHistoryCache) ClearSession(_ context.Context, id string) error {
	delete(c.keys, cache.HistoryKey(id))
	delete(c.keys, cache.DirtyKey(id))
	return nil
}

func (c *memoryHistoryCache) MarkDirty(_ context.Context, id string) error {
	c.keys[cache.DirtyKey(id)] = nil
	return nil
}

func (c *memoryHistoryCache) IsDirty(_ context.Context, id string) (bool, error) {
	_, ok := c.keys[cache.DirtyKey(id)]
	return ok, nil
}

func (c *memoryHistoryCache) cached(id string) bool {
	_, ok := c.keys[cache.HistoryKey(id)]
	return ok
}

func TestHistoryLoaderUsesCacheUnlessDirty(t *testing.T) {
	env := newTestEnv(t)
	hc := newMemoryHistoryCache()
	loader := NewHistoryLoader(env.api, hc, env.log)
	ctx := context.Background()
	env.api.history["s-1"] = []map[string]any{{"role": "user", "content": "one"}}

	first, err := loader.Load(ctx, "s-1")
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.True(t, hc.cached("s-1"))

	env.api.history["s-1"] = append(env.api.history["s-1"], map[string]any{"role": "assistant", "content": "two"})
	cached, err := loader.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, first, cached)

	require.NoError(t, hc.MarkDirty(ctx, "s-1"))
	fresh, err := loader.Load(ctx, "s-1")
	require.NoError(t, err)
	assert.Len(t, fresh, 2)
}

func TestHistoryLoaderFailureReturnsEmpty(t *testing.T) {
	env := newTestEnv(t)
	env.api.historyErr = errNetwork
	loader := NewHistoryLoader(env.api, nil, env.log)

	messages, err := loader.Load(context.Background(), "s-1")
	require.ErrorIs(t, err, errNetwork)
	assert.NotNil(t, messages)
	assert.Empty(t, messages)

	_, err = loader.Load(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSession)
}

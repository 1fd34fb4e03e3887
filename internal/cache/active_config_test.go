package cache

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/pkg/redis"
)

func testVersion(agentID string, number int) *domain.AgentVersion {
	return &domain.AgentVersion{
		ID:         agentID + "-v",
		AgentID:    agentID,
		Version:    number,
		ConfigJSON: domain.WorkflowDoc(`{"nodes":[{"id":"greet"}]}`),
		IsActive:   true,
	}
}

// loopbackRedis delivers every published message back to all subscribers on
// the same process, the way a real redis instance does.
type loopbackRedis struct {
	mu         sync.Mutex
	handlers   map[string][]func(string)
	subscribed chan struct{}
	published  int
}

func newLoopbackRedis() *loopbackRedis {
	return &loopbackRedis{
		handlers:   make(map[string][]func(string)),
		subscribed: make(chan struct{}),
	}
}

func (l *loopbackRedis) GenerateKey(keyType redis.KeyType, identifier string) string {
	return string(keyType) + ":" + identifier
}

func (l *loopbackRedis) GetValue(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (l *loopbackRedis) SetValue(ctx context.Context, key, value string, ttl time.Duration) error {
	return nil
}

func (l *loopbackRedis) DelValue(ctx context.Context, key string) error { return nil }

func (l *loopbackRedis) Publish(ctx context.Context, channel string, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	l.mu.Lock()
	handlers := append([]func(string){}, l.handlers[channel]...)
	l.published++
	l.mu.Unlock()
	for _, h := range handlers {
		h(string(data))
	}
	return nil
}

func (l *loopbackRedis) Subscribe(ctx context.Context, channel string, handler func(string)) error {
	l.mu.Lock()
	l.handlers[channel] = append(l.handlers[channel], handler)
	l.mu.Unlock()
	close(l.subscribed)
	<-ctx.Done()
	return ctx.Err()
}

func (l *loopbackRedis) Ping(ctx context.Context) error { return nil }

func (l *loopbackRedis) publishCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.published
}

func TestCacheSetAndGet(t *testing.T) {
	cache := NewActiveConfigCache(nil)

	assert.Nil(t, cache.Get("a1"))
	assert.Equal(t, 0, cache.Len())

	cache.Set("a1", testVersion("a1", 2))
	require.Equal(t, 1, cache.Len())

	got := cache.Get("a1")
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Version)
	assert.True(t, got.IsActive)
}

func TestCacheReturnsIsolatedCopies(t *testing.T) {
	cache := NewActiveConfigCache(nil)

	original := testVersion("a1", 1)
	cache.Set("a1", original)

	// mutating what the caller handed in must not touch the cache
	original.Version = 99
	got := cache.Get("a1")
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Version)

	// mutating what Get returned must not touch the cache either
	got.Version = 42
	got.ConfigJSON = domain.WorkflowDoc(`{}`)
	again := cache.Get("a1")
	require.NotNil(t, again)
	assert.Equal(t, 1, again.Version)
	assert.JSONEq(t, `{"nodes":[{"id":"greet"}]}`, string(again.ConfigJSON))
}

func TestCacheInvalidate(t *testing.T) {
	cache := NewActiveConfigCache(nil)
	ctx := context.Background()

	cache.Set("a1", testVersion("a1", 1))
	cache.Set("a2", testVersion("a2", 3))
	require.Equal(t, 2, cache.Len())

	cache.Invalidate("a1")
	assert.Nil(t, cache.Get("a1"))
	assert.NotNil(t, cache.Get("a2"))

	// invalidating an unknown agent is a no-op
	cache.Invalidate("a9")
	assert.Equal(t, 1, cache.Len())

	cache.InvalidateAndPublish(ctx, "a2")
	assert.Equal(t, 0, cache.Len())
}

func TestCacheIgnoresNilVersion(t *testing.T) {
	cache := NewActiveConfigCache(nil)
	cache.Set("a1", nil)
	cache.SetAndPublish(context.Background(), "a1", nil)
	assert.Equal(t, 0, cache.Len())
}

func TestCacheSurvivesOwnPublishedEvents(t *testing.T) {
	loop := newLoopbackRedis()
	cache := NewActiveConfigCache(loop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	cache.StartSubscriber(ctx)
	select {
	case <-loop.subscribed:
	case <-time.After(time.Second):
		t.Fatal("subscriber never attached")
	}

	// the loopback echoes the activation event back to this pod; the entry
	// it just stored must stay warm
	cache.SetAndPublish(ctx, "a1", testVersion("a1", 1))
	require.Equal(t, 1, loop.publishCount())
	got := cache.Get("a1")
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Version)

	// read-fill stores locally without telling anyone
	cache.Set("a2", testVersion("a2", 2))
	assert.Equal(t, 1, loop.publishCount())

	// events from another pod still evict
	payload, err := json.Marshal(invalidationEvent{AgentID: "a1", Origin: "another-pod"})
	require.NoError(t, err)
	loop.mu.Lock()
	handlers := append([]func(string){}, loop.handlers[InvalidationChannel]...)
	loop.mu.Unlock()
	for _, h := range handlers {
		h(string(payload))
	}
	assert.Nil(t, cache.Get("a1"))
	assert.NotNil(t, cache.Get("a2"))
}

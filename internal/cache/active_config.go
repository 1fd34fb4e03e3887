package cache

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"go.uber.org/zap"

	"github.com/ClareAI/astra-admin-console/internal/domain"
	"github.com/ClareAI/astra-admin-console/pkg/logger"
	"github.com/ClareAI/astra-admin-console/pkg/redis"
)

// InvalidationChannel is the redis pub/sub channel used to propagate
// activation events across console pods.
const InvalidationChannel = "astra_admin:active_config_invalidate"

// invalidationEvent is the message published when an agent's active version
// changes. Origin identifies the publishing pod; redis delivers published
// messages back to the publisher, which must not evict its own fresh entry.
type invalidationEvent struct {
	AgentID string `json:"agent_id"`
	Origin  string `json:"origin,omitempty"`
}

// ActiveConfigCache holds the active AgentVersion per agent in memory so
// read-heavy endpoints avoid a DB round trip. Redis keeps pods in sync;
// every failure here is best-effort and never fails a request.
type ActiveConfigCache struct {
	versions map[string]*domain.AgentVersion
	mutex    sync.RWMutex
	redis    redis.RedisServiceInterface
	originID string
}

// NewActiveConfigCache creates an empty cache. redisService may be nil; the
// cache then works purely in-process.
func NewActiveConfigCache(redisService redis.RedisServiceInterface) *ActiveConfigCache {
	return &ActiveConfigCache{
		versions: make(map[string]*domain.AgentVersion),
		redis:    redisService,
		originID: uuid.NewString(),
	}
}

// StartSubscriber listens for invalidation events until ctx is cancelled
func (c *ActiveConfigCache) StartSubscriber(ctx context.Context) {
	if c.redis == nil {
		return
	}

	go func() {
		err := c.redis.Subscribe(ctx, InvalidationChannel, func(payload string) {
			var event invalidationEvent
			if err := json.Unmarshal([]byte(payload), &event); err != nil {
				logger.Base().Warn("Invalid invalidation message", zap.String("payload", payload))
				return
			}
			if event.Origin == c.originID {
				return
			}
			c.Invalidate(event.AgentID)
		})
		if err != nil && ctx.Err() == nil {
			logger.Base().Warn("Active config subscriber stopped", zap.Error(err))
		}
	}()
}

// Get returns a deep copy of the cached active version, or nil on miss
func (c *ActiveConfigCache) Get(agentID string) *domain.AgentVersion {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	version, exists := c.versions[agentID]
	if !exists {
		return nil
	}
	return c.copyVersion(version)
}

// Set stores a deep copy of the active version in this pod only. Read-fill
// paths use it; no event is published since nothing changed in the database.
func (c *ActiveConfigCache) Set(agentID string, version *domain.AgentVersion) {
	if version == nil {
		return
	}

	c.mutex.Lock()
	c.versions[agentID] = c.copyVersion(version)
	c.mutex.Unlock()
}

// SetAndPublish stores the new active version locally and tells other pods
// to drop their stale entry. Used after an activation commits.
func (c *ActiveConfigCache) SetAndPublish(ctx context.Context, agentID string, version *domain.AgentVersion) {
	if version == nil {
		return
	}
	c.Set(agentID, version)
	c.publish(ctx, agentID)
}

// Invalidate drops the cached entry for one agent
func (c *ActiveConfigCache) Invalidate(agentID string) {
	c.mutex.Lock()
	delete(c.versions, agentID)
	c.mutex.Unlock()
}

// InvalidateAndPublish drops the local entry and notifies other pods
func (c *ActiveConfigCache) InvalidateAndPublish(ctx context.Context, agentID string) {
	c.Invalidate(agentID)
	c.publish(ctx, agentID)
}

// Len returns the number of cached entries
func (c *ActiveConfigCache) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.versions)
}

func (c *ActiveConfigCache) publish(ctx context.Context, agentID string) {
	if c.redis == nil {
		return
	}
	if err := c.redis.Publish(ctx, InvalidationChannel, invalidationEvent{AgentID: agentID, Origin: c.originID}); err != nil {
		logger.Base().Warn("Failed to publish invalidation event",
			zap.String("agent_id", agentID),
			zap.Error(err))
	}
}

// copyVersion deep copies a version so callers never share cached memory
func (c *ActiveConfigCache) copyVersion(original *domain.AgentVersion) *domain.AgentVersion {
	if original == nil {
		return nil
	}

	var copied domain.AgentVersion
	if err := copier.CopyWithOption(&copied, original, copier.Option{DeepCopy: true}); err != nil {
		logger.Base().Warn("Failed to copy cached version", zap.Error(err))
		return original
	}
	return &copied
}

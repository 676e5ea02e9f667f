package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"multimodal-rag-be/internal/pkg/logger"
	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "rag:user_state:"
	logModule  = "RedisStateCache"
	defaultTTL = time.Hour
)

// StateCache shares user session state across instances. Redis errors
// degrade to cache misses; the durable repository stays authoritative.
type StateCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger logger.ILogger
}

func NewStateCache(rdb *redis.Client, ttl time.Duration, log logger.ILogger) contract.UserStateCache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &StateCache{rdb: rdb, ttl: ttl, logger: log}
}

func key(userID string) string {
	return keyPrefix + userID
}

func (c *StateCache) Get(ctx context.Context, userID string) (*store.UserSessionState, bool) {
	raw, err := c.rdb.Get(ctx, key(userID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn(logModule, "Cache read failed", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
		}
		return nil, false
	}

	var state store.UserSessionState
	if err := json.Unmarshal(raw, &state); err != nil || !state.Valid() {
		c.rdb.Del(ctx, key(userID))
		return nil, false
	}
	return &state, true
}

func (c *StateCache) Set(ctx context.Context, state *store.UserSessionState) {
	if state == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		c.logger.Error(logModule, "Cache encode failed", map[string]interface{}{
			"user_id": state.UserID,
			"error":   err.Error(),
		})
		return
	}
	if err := c.rdb.Set(ctx, key(state.UserID), raw, c.ttl).Err(); err != nil {
		c.logger.Warn(logModule, "Cache write failed", map[string]interface{}{
			"user_id": state.UserID,
			"error":   err.Error(),
		})
		// A stale entry would outlive the store write.
		c.rdb.Del(ctx, key(state.UserID))
	}
}

func (c *StateCache) Delete(ctx context.Context, userID string) {
	c.rdb.Del(ctx, key(userID))
}

package memory

import (
	"context"
	"time"

	"multimodal-rag-be/internal/repository/contract"
	"multimodal-rag-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

type StateCache struct {
	cache *cache.Cache
}

// NewStateCache keeps entries for ttl and purges expired ones every
// cleanup interval. Zero values fall back to 1h / 10m.
func NewStateCache(ttl, cleanup time.Duration) contract.UserStateCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	if cleanup <= 0 {
		cleanup = 10 * time.Minute
	}
	return &StateCache{cache: cache.New(ttl, cleanup)}
}

func (c *StateCache) Get(_ context.Context, userID string) (*store.UserSessionState, bool) {
	x, found := c.cache.Get(userID)
	if !found {
		return nil, false
	}
	state, ok := x.(*store.UserSessionState)
	if !ok || !state.Valid() {
		c.cache.Delete(userID)
		return nil, false
	}
	return state.Clone(), true
}

func (c *StateCache) Set(_ context.Context, state *store.UserSessionState) {
	if state == nil {
		return
	}
	c.cache.Set(state.UserID, state.Clone(), cache.DefaultExpiration)
}

func (c *StateCache) Delete(_ context.Context, userID string) {
	c.cache.Delete(userID)
}

// setRaw stores an arbitrary value under userID. Tests use it to plant
// corrupt entries.
func (c *StateCache) setRaw(userID string, v interface{}) {
	c.cache.Set(userID, v, cache.DefaultExpiration)
}

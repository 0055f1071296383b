package services

import (
	"context"
	"sync"
	"time"
)

// DefaultModelCacheTTL is how long a fetched model list stays fresh.
const DefaultModelCacheTTL = 15 * time.Minute

// ModelCache wraps an LLMService's model listing with a freshness
// window, so UI refreshes do not hammer the provider's catalog API.
type ModelCache struct {
	svc LLMService
	ttl time.Duration

	mu        sync.Mutex
	models    []string
	fetchedAt time.Time
	now       func() time.Time
}

func NewModelCache(svc LLMService, ttl time.Duration) *ModelCache {
	if ttl <= 0 {
		ttl = DefaultModelCacheTTL
	}
	return &ModelCache{
		svc: svc,
		ttl: ttl,
		now: time.Now,
	}
}

// Models returns the cached model list, refetching when stale. A
// fetch failure with a previously cached list returns the stale copy.
func (c *ModelCache) Models(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.models != nil && c.now().Sub(c.fetchedAt) < c.ttl {
		return c.copyLocked(), nil
	}

	models, err := c.svc.ListModels(ctx)
	if err != nil {
		if c.models != nil {
			return c.copyLocked(), nil
		}
		return nil, err
	}

	c.models = models
	c.fetchedAt = c.now()
	return c.copyLocked(), nil
}

// Invalidate discards the cached list.
func (c *ModelCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = nil
	c.fetchedAt = time.Time{}
}

func (c *ModelCache) copyLocked() []string {
	out := make([]string, len(c.models))
	copy(out, c.models)
	return out
}

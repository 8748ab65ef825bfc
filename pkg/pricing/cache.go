package pricing

import (
	"context"
	"sync"
	"time"

	"github.com/opscart/hardware-explorer/pkg/models"
)

// CachedProvider remembers prices of a provider for ttl. Recommendations price
// every candidate, so the same instance type is asked for many times per run.
type CachedProvider struct {
	base Provider
	ttl  time.Duration
	now  func() time.Time

	mutex sync.RWMutex
	data  map[string]cacheEntry
}

type cacheEntry struct {
	costInfo  models.CostInfo
	expiresAt time.Time
}

func NewCachedProvider(base Provider, ttl time.Duration) *CachedProvider {
	return &CachedProvider{
		base: base,
		ttl:  ttl,
		now:  time.Now,
		data: make(map[string]cacheEntry),
	}
}

func (c *CachedProvider) Name() string {
	return c.base.Name()
}

// HourlyPrice answers from the cache, asking base on a miss. Errors are not cached.
func (c *CachedProvider) HourlyPrice(ctx context.Context, instanceType string) (*models.CostInfo, error) {
	if info, ok := c.get(instanceType); ok {
		return info, nil
	}

	info, err := c.base.HourlyPrice(ctx, instanceType)
	if err != nil {
		return nil, err
	}

	c.mutex.Lock()
	c.data[instanceType] = cacheEntry{costInfo: *info, expiresAt: c.now().Add(c.ttl)}
	c.mutex.Unlock()
	return info, nil
}

func (c *CachedProvider) get(instanceType string) (*models.CostInfo, bool) {
	c.mutex.RLock()
	entry, exists := c.data[instanceType]
	c.mutex.RUnlock()
	if !exists {
		return nil, false
	}

	if c.now().After(entry.expiresAt) {
		c.mutex.Lock()
		delete(c.data, instanceType)
		c.mutex.Unlock()
		return nil, false
	}

	info := entry.costInfo
	return &info, true
}

// Clear drops every cached price
func (c *CachedProvider) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data = make(map[string]cacheEntry)
}

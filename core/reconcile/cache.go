package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cachedChangeSet is a ChangeSet with its build time.
type cachedChangeSet struct {
	changeSet *ChangeSet
	built     time.Time
	ttl       time.Duration
}

// isExpired returns true if this entry has outlived its TTL.
func (c *cachedChangeSet) isExpired() bool {
	if c.ttl == 0 {
		return true // No caching
	}
	return time.Since(c.built) > c.ttl
}

// changeSetCache holds computed ChangeSets keyed by source, target and key
// columns. Each Syncer owns one; there is no process-wide cache.
type changeSetCache struct {
	mu      sync.RWMutex
	entries map[string]*cachedChangeSet
	ttl     time.Duration
	sf      singleflight.Group
}

func newChangeSetCache(ttl time.Duration) *changeSetCache {
	return &changeSetCache{
		entries: make(map[string]*cachedChangeSet),
		ttl:     ttl,
	}
}

// getOrBuild returns a fresh cached ChangeSet or builds one.
// Concurrent callers for the same key share a single build.
func (c *changeSetCache) getOrBuild(ctx context.Context, key string, build func(context.Context) (*ChangeSet, error)) (*ChangeSet, error) {
	if c.ttl == 0 {
		return build(ctx)
	}

	// Fast path: fresh entry
	c.mu.RLock()
	entry, exists := c.entries[key]
	c.mu.RUnlock()

	if exists && !entry.isExpired() {
		return entry.changeSet, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Double-check after winning the flight
		c.mu.RLock()
		entry, exists := c.entries[key]
		c.mu.RUnlock()

		if exists && !entry.isExpired() {
			return entry.changeSet, nil
		}

		cs, err := build(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.entries[key] = &cachedChangeSet{changeSet: cs, built: time.Now(), ttl: c.ttl}
		c.mu.Unlock()

		return cs, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(*ChangeSet), nil
}

// invalidate drops the entry for key.
func (c *changeSetCache) invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

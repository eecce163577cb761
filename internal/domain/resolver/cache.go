package resolver

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cacheValidity is the shared staleness window for the whole table. Entries
// are never expired individually; the entire table is rebuilt together once
// its age exceeds this window.
const cacheValidity = 10 * time.Minute

// populateFunc rebuilds the full table contents from the population probes.
type populateFunc func(ctx context.Context) map[string]ResolvedExecutable

// resolutionCache is the name→target table owned exclusively by one
// resolver instance. A single refresh may run process-wide at a time;
// lookups that arrive while a refresh is in flight wait for it instead of
// reading a partially cleared table.
type resolutionCache struct {
	mu         sync.RWMutex
	table      map[string]ResolvedExecutable
	lastUpdate time.Time

	group    singleflight.Group
	validity time.Duration
	now      func() time.Time
}

func newResolutionCache(validity time.Duration) *resolutionCache {
	return &resolutionCache{
		table:    make(map[string]ResolvedExecutable),
		validity: validity,
		now:      time.Now,
	}
}

// stale reports whether the table age exceeds the validity window. A never
// populated cache is always stale.
func (c *resolutionCache) stale() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now().Sub(c.lastUpdate) > c.validity
}

// ensureFresh refreshes the table if it is stale. Concurrent callers share
// a single refresh execution and re-check staleness after it completes, so
// N stale callers trigger exactly one rebuild. The populate run itself is
// detached from the caller's cancellation: a refresh that has started is
// always allowed to complete rather than leaving the table half-populated.
func (c *resolutionCache) ensureFresh(ctx context.Context, populate populateFunc) {
	if !c.stale() {
		return
	}
	c.group.Do("refresh", func() (interface{}, error) {
		if !c.stale() {
			return nil, nil
		}
		table := populate(context.WithoutCancel(ctx))
		if table == nil {
			table = make(map[string]ResolvedExecutable)
		}

		c.mu.Lock()
		c.table = table
		c.lastUpdate = c.now()
		c.mu.Unlock()
		return nil, nil
	})
}

// lookup finds an entry by exact key first, then by substring match in
// either direction between the query and a cached key. When several keys
// match by substring, which one wins is unspecified; callers may only rely
// on some valid entry being returned.
func (c *resolutionCache) lookup(name string) (ResolvedExecutable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if target, ok := c.table[name]; ok {
		return target, true
	}
	for key, target := range c.table {
		if strings.Contains(key, name) || strings.Contains(name, key) {
			return target, true
		}
	}
	return ResolvedExecutable{}, false
}

// store memoizes a single resolution produced outside a refresh (a detailed
// search hit). The entry lives until the next whole-table rebuild.
func (c *resolutionCache) store(name string, target ResolvedExecutable) {
	c.mu.Lock()
	c.table[name] = target
	c.mu.Unlock()
}

// len returns the current entry count.
func (c *resolutionCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.table)
}

// snapshot copies the table for diagnostics.
func (c *resolutionCache) snapshot() map[string]ResolvedExecutable {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]ResolvedExecutable, len(c.table))
	for key, target := range c.table {
		out[key] = target
	}
	return out
}

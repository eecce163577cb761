package resolver

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheLookupExactAndSubstring(t *testing.T) {
	c := newResolutionCache(cacheValidity)
	c.table = map[string]ResolvedExecutable{
		"vscode":  {Path: "/usr/bin/code"},
		"spotify": {Path: "/usr/bin/spotify"},
	}
	c.lastUpdate = time.Now()

	target, ok := c.lookup("vscode")
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/code", target.Path)

	// Query is a substring of a cached key.
	target, ok = c.lookup("spot")
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/spotify", target.Path)

	// Cached key is a substring of the query.
	target, ok = c.lookup("vscode-insiders")
	assert.True(t, ok)
	assert.Equal(t, "/usr/bin/code", target.Path)

	_, ok = c.lookup("blender")
	assert.False(t, ok)
}

func TestCacheStaleness(t *testing.T) {
	now := time.Now()
	c := newResolutionCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	// Never populated: always stale.
	assert.True(t, c.stale())

	c.ensureFresh(context.Background(), func(ctx context.Context) map[string]ResolvedExecutable {
		return map[string]ResolvedExecutable{"app": {Path: "/bin/app"}}
	})
	assert.False(t, c.stale())

	now = now.Add(9 * time.Minute)
	assert.False(t, c.stale())

	now = now.Add(2 * time.Minute)
	assert.True(t, c.stale())
}

func TestCacheRefreshRebuildsWholeTable(t *testing.T) {
	now := time.Now()
	c := newResolutionCache(10 * time.Minute)
	c.now = func() time.Time { return now }

	c.ensureFresh(context.Background(), func(ctx context.Context) map[string]ResolvedExecutable {
		return map[string]ResolvedExecutable{"old": {Path: "/bin/old"}}
	})
	c.store("memoized", ResolvedExecutable{Path: "/bin/memoized"})
	assert.Equal(t, 2, c.len())

	now = now.Add(11 * time.Minute)
	c.ensureFresh(context.Background(), func(ctx context.Context) map[string]ResolvedExecutable {
		return map[string]ResolvedExecutable{"new": {Path: "/bin/new"}}
	})

	// Everything, memoized entries included, expires with the table.
	_, ok := c.lookup("old")
	assert.False(t, ok)
	_, ok = c.lookup("memoized")
	assert.False(t, ok)
	_, ok = c.lookup("new")
	assert.True(t, ok)
}

func TestCacheConcurrentStaleCallersRefreshOnce(t *testing.T) {
	c := newResolutionCache(10 * time.Minute)

	var refreshes atomic.Int32
	populate := func(ctx context.Context) map[string]ResolvedExecutable {
		refreshes.Add(1)
		time.Sleep(50 * time.Millisecond)
		return map[string]ResolvedExecutable{"app": {Path: "/bin/app"}}
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.ensureFresh(context.Background(), populate)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), refreshes.Load())

	// Every caller observes the completed refresh.
	_, ok := c.lookup("app")
	assert.True(t, ok)
}

func TestCacheRefreshSurvivesCallerCancellation(t *testing.T) {
	c := newResolutionCache(10 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c.ensureFresh(ctx, func(ctx context.Context) map[string]ResolvedExecutable {
		// The populate context is detached from the canceled caller.
		assert.NoError(t, ctx.Err())
		return map[string]ResolvedExecutable{"app": {Path: "/bin/app"}}
	})

	_, ok := c.lookup("app")
	assert.True(t, ok)
}

func TestCacheSnapshotIsACopy(t *testing.T) {
	c := newResolutionCache(cacheValidity)
	c.store("app", ResolvedExecutable{Path: "/bin/app"})

	snap := c.snapshot()
	snap["intruder"] = ResolvedExecutable{Path: "/bin/evil"}

	_, ok := c.lookup("intruder")
	assert.False(t, ok)
}

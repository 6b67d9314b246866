package bom

import (
	"context"
	"sync"

	"github.com/taechang/production-core/pkg/domain/entities"
)

// ExplosionCache stores per-unit explosions keyed by root item. Each entry
// carries the BOM revision it was computed at and Get only returns entries of
// the requested revision.
// It is advisory: a failing cache never fails an explosion.
type ExplosionCache interface {
	Get(ctx context.Context, root entities.ItemID, revision string) ([]ExplosionLine, bool, error)
	Put(ctx context.Context, root entities.ItemID, revision string, perUnit []ExplosionLine) error
	// Purge drops every entry. Stale entries are already unreachable once the
	// revision moves on, so purging only frees space.
	Purge(ctx context.Context) error
}

type cacheEntry struct {
	revision string
	lines    []ExplosionLine
}

// MemoryCache is a process-local ExplosionCache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[entities.ItemID]cacheEntry
}

// NewMemoryCache creates an empty in-process cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[entities.ItemID]cacheEntry)}
}

func (c *MemoryCache) Get(_ context.Context, root entities.ItemID, revision string) ([]ExplosionLine, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[root]
	if !ok || entry.revision != revision {
		return nil, false, nil
	}
	return append([]ExplosionLine(nil), entry.lines...), true, nil
}

func (c *MemoryCache) Put(_ context.Context, root entities.ItemID, revision string, perUnit []ExplosionLine) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[root] = cacheEntry{revision: revision, lines: append([]ExplosionLine(nil), perUnit...)}
	return nil
}

func (c *MemoryCache) Purge(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[entities.ItemID]cacheEntry)
	return nil
}

// Len reports the number of cached roots
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"playlistwatch/internal/core"
)

// CachedStore fronts a SnapshotStore with an LRU read cache keyed by
// playlist ID. Every write invalidates the entry, so a check always diffs
// against what was actually persisted. A per-key generation counter guards
// the read path: a read that started before a concurrent write committed is
// not allowed to repopulate the cache with the pre-write snapshot.
type CachedStore struct {
	inner core.SnapshotStore
	cache *lru.Cache[string, *core.PlaylistSnapshot]

	mu   sync.Mutex
	gens map[string]uint64
}

func NewCachedStore(inner core.SnapshotStore, size int) (*CachedStore, error) {
	if size <= 0 {
		size = core.DefaultSnapshotCacheSize
	}

	cache, err := lru.New[string, *core.PlaylistSnapshot](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create snapshot cache: %w", err)
	}

	return &CachedStore{
		inner: inner,
		cache: cache,
		gens:  make(map[string]uint64),
	}, nil
}

func (c *CachedStore) FindByPlaylistID(ctx context.Context, playlistID string) (*core.PlaylistSnapshot, error) {
	if snapshot, ok := c.cache.Get(playlistID); ok {
		return snapshot, nil
	}

	gen := c.generation(playlistID)

	snapshot, err := c.inner.FindByPlaylistID(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	c.addIfCurrent(playlistID, gen, snapshot)
	return snapshot, nil
}

func (c *CachedStore) Create(ctx context.Context, snapshot *core.PlaylistSnapshot) error {
	// Invalidate rather than populate; the next read goes to the store so
	// the cache never aliases a value the caller may still hold.
	defer c.invalidate(snapshot.PlaylistID)
	return c.inner.Create(ctx, snapshot)
}

func (c *CachedStore) ReplaceTracks(ctx context.Context, playlistID string, info *core.PlaylistInfo, tracks []core.Track, checkedAt time.Time) error {
	defer c.invalidate(playlistID)
	return c.inner.ReplaceTracks(ctx, playlistID, info, tracks, checkedAt)
}

func (c *CachedStore) TouchLastChecked(ctx context.Context, playlistID string, checkedAt time.Time) error {
	defer c.invalidate(playlistID)
	return c.inner.TouchLastChecked(ctx, playlistID, checkedAt)
}

func (c *CachedStore) ListByLastChecked(ctx context.Context, limit int) ([]*core.PlaylistSnapshot, error) {
	return c.inner.ListByLastChecked(ctx, limit)
}

func (c *CachedStore) generation(playlistID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gens[playlistID]
}

// invalidate drops the cached entry and advances the key's generation, so
// in-flight reads that observed the previous generation discard their result.
func (c *CachedStore) invalidate(playlistID string) {
	c.mu.Lock()
	c.gens[playlistID]++
	c.mu.Unlock()

	c.cache.Remove(playlistID)
}

func (c *CachedStore) addIfCurrent(playlistID string, gen uint64, snapshot *core.PlaylistSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gens[playlistID] != gen {
		return
	}
	c.cache.Add(playlistID, snapshot)
}

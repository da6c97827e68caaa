package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// CachingStore decorates a Store with a read-through, write-through cache.
// Without a cache handler every call passes straight to the backing store.
type CachingStore struct {
	backing Store

	mu    sync.RWMutex
	cache CacheHandler
}

// NewCachingStore wraps backing. cache may be nil.
func NewCachingStore(backing Store, cache CacheHandler) *CachingStore {
	return &CachingStore{backing: backing, cache: cache}
}

// SetCacheHandler replaces the cache handler. Passing nil disables caching.
func (c *CachingStore) SetCacheHandler(cache CacheHandler) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = cache
}

// CacheHandler returns the configured cache handler, or nil.
func (c *CachingStore) CacheHandler() CacheHandler {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache
}

// Create persists s, then caches it under the assigned id.
func (c *CachingStore) Create(ctx context.Context, s *Session) (string, error) {
	id, err := c.backing.Create(ctx, s)
	if err != nil {
		return "", err
	}
	if cache := c.CacheHandler(); cache != nil && id != "" {
		if err := cache.Set(ctx, id, s); err != nil {
			return "", fmt.Errorf("failed to cache session %s: %w", id, err)
		}
	}
	return id, nil
}

// Read serves from cache, falling back to the backing store and populating
// the cache on a hit there.
func (c *CachingStore) Read(ctx context.Context, id string) (*Session, error) {
	cache := c.CacheHandler()
	if cache != nil {
		cached, err := cache.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to read cached session %s: %w", id, err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	s, err := c.backing.Read(ctx, id)
	if err != nil || s == nil {
		return nil, err
	}

	if cache != nil {
		if err := cache.Set(ctx, id, s); err != nil {
			return nil, fmt.Errorf("failed to cache session %s: %w", id, err)
		}
	}
	return s, nil
}

// Update writes s to the backing store, then overwrites the cache entry.
// When the backing store no longer has s the cache entry is evicted instead
// and the update is a no-op.
func (c *CachingStore) Update(ctx context.Context, s *Session) error {
	cache := c.CacheHandler()

	err := c.backing.Update(ctx, s)
	if errors.Is(err, ErrSessionNotFound) {
		if cache != nil {
			if err := cache.Delete(ctx, s.ID()); err != nil {
				return fmt.Errorf("failed to evict cached session %s: %w", s.ID(), err)
			}
		}
		return nil
	}
	if err != nil {
		return err
	}
	if cache != nil {
		if err := cache.Set(ctx, s.ID(), s); err != nil {
			return fmt.Errorf("failed to cache session %s: %w", s.ID(), err)
		}
	}
	return nil
}

// Delete evicts the cache entry, then deletes from the backing store.
func (c *CachingStore) Delete(ctx context.Context, s *Session) error {
	if cache := c.CacheHandler(); cache != nil {
		if err := cache.Delete(ctx, s.ID()); err != nil {
			return fmt.Errorf("failed to evict cached session %s: %w", s.ID(), err)
		}
	}
	return c.backing.Delete(ctx, s)
}

// ActiveSessionIDs delegates to the backing store when it can list sessions.
func (c *CachingStore) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	lister, ok := c.backing.(Lister)
	if !ok {
		return nil, fmt.Errorf("%w: backing store %T cannot list sessions", ErrIllegalState, c.backing)
	}
	return lister.ActiveSessionIDs(ctx)
}

package session

import (
	"context"

	"github.com/dmitrymomot/sessionkit/core/cache"
)

// LRUCacheHandler is an in-process CacheHandler bounded by entry count.
type LRUCacheHandler struct {
	lru *cache.LRUCache[string, *Session]
}

// NewLRUCacheHandler creates a cache handler holding at most capacity sessions.
func NewLRUCacheHandler(capacity int) *LRUCacheHandler {
	return &LRUCacheHandler{lru: cache.NewLRUCache[string, *Session](capacity)}
}

func (c *LRUCacheHandler) Get(ctx context.Context, key string) (*Session, error) {
	s, ok := c.lru.Get(key)
	if !ok {
		return nil, nil
	}
	return s.Clone(), nil
}

func (c *LRUCacheHandler) Set(ctx context.Context, key string, s *Session) error {
	c.lru.Put(key, s.Clone())
	return nil
}

func (c *LRUCacheHandler) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len returns the number of cached sessions.
func (c *LRUCacheHandler) Len() int {
	return c.lru.Len()
}

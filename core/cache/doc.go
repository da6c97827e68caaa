// Package cache provides a generic, concurrency-safe LRU cache.
//
//	c := cache.NewLRUCache[string, *session.Session](10_000)
//	c.SetEvictCallback(func(id string, _ *session.Session) {
//		log.Debug("evicted", logger.SessionID(id))
//	})
//
//	c.Put(id, s)
//	if s, ok := c.Get(id); ok {
//		// hit; id is now the most recently used entry
//	}
//	c.Remove(id)
//
// Put on a full cache evicts the least recently used entry and invokes the
// evict callback. Remove and Clear never invoke it.
package cache

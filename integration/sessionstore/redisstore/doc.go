// Package redisstore provides a Redis session.Store and session.CacheHandler.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//
//	mgr := session.NewManager(
//		session.WithStore(redisstore.New(client)),
//		session.WithCacheHandler(redisstore.NewCache(client, redisstore.WithCacheTTL(5*time.Minute))),
//	)
//
// Store keeps a sorted-set index of active sessions, so it satisfies
// session.Lister and works with the validation scheduler. Stopping or
// deleting a session removes it from the index.
//
// With WithTTL the keys expire in Redis. A session whose key expires is gone
// without an expiration event, so pick a TTL longer than the absolute
// session timeout when events matter.
package redisstore

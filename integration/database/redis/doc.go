// Package redis connects go-redis clients with retry and exposes a health
// check.
//
//	var cfg redis.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	check := redis.Healthcheck(client)
//
// Connect accepts redis:// and rediss:// URLs. It pings the server with
// exponential backoff starting at RetryInterval, for at most RetryAttempts
// attempts, bounded overall by ConnectTimeout. Failures match
// ErrRedisNotReady; malformed URLs match ErrFailedToParseRedisConnString.
//
// The client backs the session store and cache in
// integration/sessionstore/redisstore.
package redis

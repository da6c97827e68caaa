// Package mongo creates MongoDB clients with connection retry and exposes a
// health check.
//
//	var cfg mongo.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
//	db, err := mongo.NewWithDatabase(ctx, cfg, "app")
//	if err != nil {
//		return err
//	}
//	store := mongostore.New(db.Collection("sessions"))
//
// Environment variables: MONGODB_URL (required), MONGODB_CONNECT_TIMEOUT,
// MONGODB_MAX_POOL_SIZE, MONGODB_MIN_POOL_SIZE, MONGODB_MAX_CONN_IDLE_TIME,
// MONGODB_RETRY_WRITES, MONGODB_RETRY_READS, MONGODB_RETRY_ATTEMPTS and
// MONGODB_RETRY_INTERVAL.
//
// Errors: ErrEmptyConnectionURL, ErrFailedToConnectToMongo once retries are
// exhausted, and ErrHealthcheckFailed.
package mongo

// Package pgstore provides a PostgreSQL session.Store.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pgstore.Migrate(ctx, pool, log); err != nil {
//		return err
//	}
//
//	mgr := session.NewManager(session.WithStore(pgstore.New(pool)))
//
// Sessions live in the sessionkit_sessions table as JSONB with a stopped
// flag, which backs ActiveSessionIDs for the validation scheduler. The
// schema is embedded and applied with goose under its own version table.
package pgstore

// Package pg manages PostgreSQL connection pools, goose migrations and
// transaction propagation through context.
//
//	pool, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	defer pool.Close()
//
//	if err := pg.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//
// Connect pings the pool with exponential backoff. MigrateFS applies
// migrations from any fs.FS, so packages can ship embedded schemas with
// their own version table.
//
// # Transactions
//
// WithTx stores a pgx.Tx in a context and Conn picks it up, so repository
// writes join a transaction opened by the caller:
//
//	tx, err := pool.Begin(ctx)
//	if err != nil {
//		return err
//	}
//	defer tx.Rollback(ctx)
//
//	ctx = pg.WithTx(ctx, tx)
//	if _, err := mgr.Start(ctx, session.Context{Host: host}); err != nil {
//		return err
//	}
//	return tx.Commit(ctx)
//
// # Errors
//
// IsNotFoundError, IsDuplicateKeyError, IsForeignKeyViolationError and
// IsTxClosedError classify driver errors.
package pg

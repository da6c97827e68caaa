package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/integration/database/pg"
	"github.com/dmitrymomot/sessionkit/integration/sessionstore/pgstore"
)

// Integration tests run when SESSIONKIT_PG_URL points at a disposable database.

func setupPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv("SESSIONKIT_PG_URL")
	if url == "" {
		t.Skip("SESSIONKIT_PG_URL is not set; skipping Postgres integration test")
	}

	ctx := context.Background()
	pool, err := pg.Connect(ctx, pg.Config{
		ConnectionString: url,
		RetryAttempts:    2,
		RetryInterval:    100 * time.Millisecond,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Migrate(ctx, pool, nil))
	return pool
}

func TestStore_CRUD(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := pgstore.New(pool)

	sess := session.New(time.Now().UTC(), "192.0.2.10", 15*time.Minute, time.Hour)
	sess.SetInternalAttribute("role", "admin")

	id, err := store.Create(ctx, sess)
	require.NoError(t, err)
	require.Len(t, id, 26)
	t.Cleanup(func() { _ = store.Delete(ctx, sess) })

	got, err := store.Read(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "192.0.2.10", got.Host())
	role, ok := got.InternalAttribute("role")
	require.True(t, ok)
	assert.Equal(t, "admin", role)

	ids, err := store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.Contains(t, ids, id)

	require.NoError(t, got.Stop(time.Now().UTC()))
	require.NoError(t, store.Update(ctx, got))

	ids, err = store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.NotContains(t, ids, id)

	require.NoError(t, store.Delete(ctx, got))
	missing, err := store.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.ErrorIs(t, store.Update(ctx, got), session.ErrSessionNotFound)
	missing, err = store.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestStore_JoinsTransaction(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()
	store := pgstore.New(pool)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)

	sess := session.New(time.Now().UTC(), "", time.Minute, time.Hour)
	id, err := store.Create(pg.WithTx(ctx, tx), sess)
	require.NoError(t, err)

	require.NoError(t, tx.Rollback(ctx))

	got, err := store.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, got, "rolled back insert must not be visible")
}

func TestStore_WithManager(t *testing.T) {
	pool := setupPool(t)
	ctx := context.Background()

	mgr := session.NewManager(session.WithStore(pgstore.New(pool)))
	h, err := mgr.Start(ctx, session.Context{Host: "192.0.2.11"})
	require.NoError(t, err)

	host, err := h.Host(ctx)
	require.NoError(t, err)
	assert.Equal(t, "192.0.2.11", host)

	require.NoError(t, h.Stop(ctx, "user-9"))
	got, err := mgr.GetSession(ctx, h.Key())
	require.NoError(t, err)
	assert.Nil(t, got, "stopped sessions are deleted by default")
}

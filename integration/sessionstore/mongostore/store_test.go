package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/integration/database/mongo"
	"github.com/dmitrymomot/sessionkit/integration/sessionstore/mongostore"
)

// Integration tests run when SESSIONKIT_MONGO_URL points at a disposable server.

func setupStore(t *testing.T) *mongostore.Store {
	t.Helper()

	url := os.Getenv("SESSIONKIT_MONGO_URL")
	if url == "" {
		t.Skip("SESSIONKIT_MONGO_URL is not set; skipping MongoDB integration test")
	}

	ctx := context.Background()
	db, err := mongo.NewWithDatabase(ctx, mongo.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		RetryAttempts:  2,
		RetryInterval:  100 * time.Millisecond,
	}, "sessionkit_test")
	require.NoError(t, err)

	coll := db.Collection("sessions_" + uuid.NewString())
	t.Cleanup(func() {
		_ = coll.Drop(ctx)
		_ = db.Client().Disconnect(ctx)
	})

	store := mongostore.New(coll)
	require.NoError(t, store.EnsureIndexes(ctx))
	return store
}

func TestStore_CRUD(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	sess := session.New(time.Now().UTC(), "203.0.113.20", 15*time.Minute, time.Hour)
	sess.SetAttribute("lang", "en")

	id, err := store.Create(ctx, sess)
	require.NoError(t, err)

	got, err := store.Read(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	lang, ok := got.Attribute("lang")
	require.True(t, ok)
	assert.Equal(t, "en", lang)

	ids, err := store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{id}, ids)

	require.NoError(t, got.Stop(time.Now().UTC()))
	require.NoError(t, store.Update(ctx, got))

	ids, err = store.ActiveSessionIDs(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, store.Delete(ctx, got))
	missing, err := store.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)

	// Updating a deleted session does not recreate it.
	require.ErrorIs(t, store.Update(ctx, got), session.ErrSessionNotFound)
	missing, err = store.Read(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

package pg_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/integration/database/pg"
)

func TestErrorClassification(t *testing.T) {
	t.Parallel()

	assert.True(t, pg.IsNotFoundError(fmt.Errorf("query: %w", pgx.ErrNoRows)))
	assert.False(t, pg.IsNotFoundError(errors.New("other")))

	assert.True(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, pg.IsDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.True(t, pg.IsForeignKeyViolationError(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23503"})))

	assert.True(t, pg.IsTxClosedError(pgx.ErrTxClosed))
	assert.False(t, pg.IsTxClosedError(nil))
}

type fakeTx struct{ pgx.Tx }

func TestTxContext(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, ok := pg.TxFromContext(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, pg.WithTx(ctx, nil))

	tx := &fakeTx{}
	got, ok := pg.TxFromContext(pg.WithTx(ctx, tx))
	require.True(t, ok)
	assert.Same(t, tx, got)

	assert.Same(t, tx, pg.Conn(pg.WithTx(ctx, tx), nil))
	assert.Nil(t, pg.Conn(ctx, nil))
}

func TestConnect_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := pg.Connect(ctx, pg.Config{})
	assert.ErrorIs(t, err, pg.ErrEmptyConnectionString)

	_, err = pg.Connect(ctx, pg.Config{ConnectionString: "postgres://%zz"})
	assert.ErrorIs(t, err, pg.ErrFailedToParseDBConfig)
}

func TestMigrate_Validation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	err := pg.Migrate(ctx, nil, pg.Config{}, nil)
	assert.ErrorIs(t, err, pg.ErrMigrationPathNotProvided)

	err = pg.Migrate(ctx, nil, pg.Config{MigrationsPath: t.TempDir() + "/missing"}, nil)
	assert.ErrorIs(t, err, pg.ErrMigrationsDirNotFound)
}

package pgstore

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"

	"github.com/dmitrymomot/sessionkit/core/session"
	"github.com/dmitrymomot/sessionkit/integration/database/pg"
)

// MigrationsTable records the versions of the embedded schema.
const MigrationsTable = "sessionkit_migrations"

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate creates or upgrades the sessions table.
func Migrate(ctx context.Context, pool *pgxpool.Pool, log *slog.Logger) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return err
	}
	return pg.MigrateFS(ctx, pool, fsys, MigrationsTable, log)
}

// Store is a session.Store backed by PostgreSQL. Ids are ULIDs, so they sort
// by creation time. Writes join a transaction stored in the context with
// pg.WithTx.
type Store struct {
	pool *pgxpool.Pool
}

// New creates a Store on pool. Run Migrate first.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Create(ctx context.Context, sess *session.Session) (string, error) {
	if err := sess.AssignID(ulid.Make().String()); err != nil {
		return "", err
	}

	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	_, err = pg.Conn(ctx, s.pool).Exec(ctx, `
		INSERT INTO sessionkit_sessions (id, data, stopped, started_at)
		VALUES ($1, $2, $3, $4)
	`, sess.ID(), data, sess.IsStopped(), sess.StartTimestamp())
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}

	return sess.ID(), nil
}

// Read returns nil and no error when no row matches id.
func (s *Store) Read(ctx context.Context, id string) (*session.Session, error) {
	var data []byte
	err := pg.Conn(ctx, s.pool).QueryRow(ctx, `
		SELECT data FROM sessionkit_sessions WHERE id = $1
	`, id).Scan(&data)
	if pg.IsNotFoundError(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	sess := new(session.Session)
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Update rewrites an existing row. Missing rows are not recreated.
func (s *Store) Update(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	tag, err := pg.Conn(ctx, s.pool).Exec(ctx, `
		UPDATE sessionkit_sessions
		SET data = $2, stopped = $3, updated_at = now()
		WHERE id = $1
	`, sess.ID(), data, sess.IsStopped())
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrSessionNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, sess *session.Session) error {
	_, err := pg.Conn(ctx, s.pool).Exec(ctx, `
		DELETE FROM sessionkit_sessions WHERE id = $1
	`, sess.ID())
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// ActiveSessionIDs returns the ids of sessions not yet stopped, oldest first.
func (s *Store) ActiveSessionIDs(ctx context.Context) ([]string, error) {
	rows, err := pg.Conn(ctx, s.pool).Query(ctx, `
		SELECT id FROM sessionkit_sessions WHERE NOT stopped ORDER BY started_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

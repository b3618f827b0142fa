package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/petrijr/flowtree/pkg/api"
)

// PostgresSnapshotStore is a SnapshotStore backed by PostgreSQL.
//
// It expects an *sql.DB that uses a PostgreSQL driver (for example,
// "github.com/jackc/pgx/v5/stdlib").
//
// The caller is responsible for:
//   - importing the driver for its side effects, e.g.:
//     _ "github.com/jackc/pgx/v5/stdlib"
//   - providing a DSN via sql.Open.
type PostgresSnapshotStore struct {
	db *sql.DB
}

// Ensure PostgresSnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*PostgresSnapshotStore)(nil)

// NewPostgresSnapshotStore initializes the required schema in the given
// database and returns a new PostgresSnapshotStore.
func NewPostgresSnapshotStore(db *sql.DB) (*PostgresSnapshotStore, error) {
	s := &PostgresSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *PostgresSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tree_snapshots (
			key TEXT PRIMARY KEY,
			data BYTEA NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);
	`)
	return err
}

func (s *PostgresSnapshotStore) Save(ctx context.Context, key string, snap api.TreeSnapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tree_snapshots (key, data, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET data = EXCLUDED.data, updated_at = now()
	`, key, data)
	return err
}

func (s *PostgresSnapshotStore) Load(ctx context.Context, key string) (api.TreeSnapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM tree_snapshots WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.TreeSnapshot{}, ErrSnapshotNotFound
		}
		return api.TreeSnapshot{}, err
	}
	return DecodeSnapshot(data)
}

func (s *PostgresSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tree_snapshots WHERE key = $1`, key)
	return err
}

func (s *PostgresSnapshotStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key FROM tree_snapshots ORDER BY key ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

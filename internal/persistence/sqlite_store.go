package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/petrijr/flowtree/pkg/api"
)

// SQLiteSnapshotStore is a SnapshotStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteSnapshotStore struct {
	db *sql.DB
}

// Ensure SQLiteSnapshotStore implements SnapshotStore.
var _ SnapshotStore = (*SQLiteSnapshotStore)(nil)

// NewSQLiteSnapshotStore initializes the required schema in the given
// database and returns a new SQLiteSnapshotStore.
func NewSQLiteSnapshotStore(db *sql.DB) (*SQLiteSnapshotStore, error) {
	s := &SQLiteSnapshotStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteSnapshotStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS tree_snapshots (
			key TEXT PRIMARY KEY,
			data BLOB NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
	)
	return err
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, key string, snap api.TreeSnapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tree_snapshots (key, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		key, data, time.Now().UnixNano(),
	)
	return err
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context, key string) (api.TreeSnapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM tree_snapshots WHERE key = ?`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return api.TreeSnapshot{}, ErrSnapshotNotFound
		}
		return api.TreeSnapshot{}, err
	}
	return DecodeSnapshot(data)
}

func (s *SQLiteSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM tree_snapshots WHERE key = ?`, key)
	return err
}

func (s *SQLiteSnapshotStore) List(ctx context.Context) ([]string, error) {
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

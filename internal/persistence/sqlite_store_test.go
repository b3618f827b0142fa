package persistence

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()

	// A file-backed database so every pooled connection sees the same schema.
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "flowtree.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestSQLiteSnapshotStore_Contract(t *testing.T) {
	store, err := NewSQLiteSnapshotStore(openTestSQLite(t))
	require.NoError(t, err)
	testSnapshotStore(t, store)
}

func TestSQLiteSnapshotStore_SchemaIsIdempotent(t *testing.T) {
	db := openTestSQLite(t)
	_, err := NewSQLiteSnapshotStore(db)
	require.NoError(t, err)
	_, err = NewSQLiteSnapshotStore(db)
	require.NoError(t, err)
}

func TestSQLiteEventStore_Contract(t *testing.T) {
	store, err := NewSQLiteEventStore(openTestSQLite(t))
	require.NoError(t, err)
	testEventStore(t, store)
}

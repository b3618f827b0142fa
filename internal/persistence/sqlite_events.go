package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/petrijr/flowtree/pkg/api"
)

// SQLiteEventStore stores runtime events in SQLite.
type SQLiteEventStore struct {
	db *sql.DB
}

// Ensure SQLiteEventStore implements the interfaces.
var _ EventStore = (*SQLiteEventStore)(nil)

func NewSQLiteEventStore(db *sql.DB) (*SQLiteEventStore, error) {
	s := &SQLiteEventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteEventStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS runtime_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			runtime_id TEXT NOT NULL,
			session_id INTEGER NOT NULL DEFAULT 0,
			at INTEGER NOT NULL,
			type TEXT NOT NULL,
			workflow TEXT NOT NULL DEFAULT '',
			key TEXT NOT NULL DEFAULT '',
			detail TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_runtime_events_runtime_id ON runtime_events(runtime_id, id);
	`)
	return err
}

func (s *SQLiteEventStore) AppendEvent(ctx context.Context, ev api.Event) error {
	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runtime_events (runtime_id, session_id, at, type, workflow, key, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.RuntimeID,
		ev.SessionID,
		at.UnixNano(),
		string(ev.Type),
		ev.Workflow,
		ev.Key,
		ev.Detail,
	)
	return err
}

func (s *SQLiteEventStore) ListEvents(ctx context.Context, runtimeID string) ([]api.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT runtime_id, session_id, at, type, workflow, key, detail
		FROM runtime_events
		WHERE runtime_id = ?
		ORDER BY id ASC`, runtimeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []api.Event
	for rows.Next() {
		var (
			id        string
			sessionID int64
			atN       int64
			typ       string
			workflow  string
			key       string
			detail    string
		)
		if err := rows.Scan(&id, &sessionID, &atN, &typ, &workflow, &key, &detail); err != nil {
			return nil, err
		}
		out = append(out, api.Event{
			RuntimeID: id,
			SessionID: sessionID,
			At:        time.Unix(0, atN).UTC(),
			Type:      api.EventType(typ),
			Workflow:  workflow,
			Key:       key,
			Detail:    detail,
		})
	}
	return out, rows.Err()
}

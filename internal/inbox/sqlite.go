package inbox

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// SQLiteInbox is a durable Inbox backed by SQLite. Events are claimed by
// deleting their row inside a transaction, in id order.
type SQLiteInbox struct {
	db           *sql.DB
	pollInterval time.Duration
}

// NewSQLiteInbox initializes the inbox table in db and returns a new inbox.
func NewSQLiteInbox(db *sql.DB) (*SQLiteInbox, error) {
	q := &SQLiteInbox{
		db:           db,
		pollInterval: 20 * time.Millisecond,
	}
	if err := q.initSchema(); err != nil {
		return nil, err
	}
	return q, nil
}

func (q *SQLiteInbox) initSchema() error {
	_, err := q.db.Exec(`
		CREATE TABLE IF NOT EXISTS inbox_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			arg TEXT NOT NULL,
			enqueued_at INTEGER NOT NULL
		);
	`)
	return err
}

// Ensure SQLiteInbox implements Inbox.
var _ Inbox = (*SQLiteInbox)(nil)

func (q *SQLiteInbox) Enqueue(ctx context.Context, ev Event) error {
	at := ev.EnqueuedAt
	if at.IsZero() {
		at = time.Now()
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO inbox_events (name, arg, enqueued_at)
		VALUES (?, ?, ?)`,
		ev.Name, ev.Arg, at.UnixNano(),
	)
	return err
}

func (q *SQLiteInbox) Dequeue(ctx context.Context) (*Event, error) {
	for {
		ev, err := q.claim(ctx)
		if err == nil {
			return ev, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}

		// Nothing available: sleep a bit and retry.
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(q.pollInterval):
		}
	}
}

func (q *SQLiteInbox) claim(ctx context.Context) (*Event, error) {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var (
		ev Event
		at int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, name, arg, enqueued_at
		FROM inbox_events
		ORDER BY id
		LIMIT 1`).Scan(&ev.ID, &ev.Name, &ev.Arg, &at)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inbox_events WHERE id = ?`, ev.ID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	ev.EnqueuedAt = time.Unix(0, at)
	return &ev, nil
}

func (q *SQLiteInbox) Len() int {
	var n int
	if err := q.db.QueryRow(`SELECT COUNT(*) FROM inbox_events`).Scan(&n); err != nil {
		return 0
	}
	return n
}

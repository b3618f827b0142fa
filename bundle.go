package flowtree

import (
	"database/sql"

	"github.com/petrijr/flowtree/internal/persistence"
)

// StoreBundle wires a snapshot store and an event store sharing one
// database.
type StoreBundle struct {
	Snapshots SnapshotStore
	Events    EventStore
}

// NewSQLiteBundle constructs durable snapshot and event stores in the
// provided SQLite database.
//
// Typical usage:
//
//	db, _ := sql.Open("sqlite", "file:flowtree.db?_pragma=journal_mode(WAL)")
//	bundle, err := flowtree.NewSQLiteBundle(db)
//	rt, err := flowtree.Run(ctx, wf, props, bundle.Options("main")...)
func NewSQLiteBundle(db *sql.DB) (*StoreBundle, error) {
	snaps, err := persistence.NewSQLiteSnapshotStore(db)
	if err != nil {
		return nil, err
	}
	events, err := persistence.NewSQLiteEventStore(db)
	if err != nil {
		return nil, err
	}
	return &StoreBundle{Snapshots: snaps, Events: events}, nil
}

// NewInMemoryBundle returns a bundle whose stores live in memory.
func NewInMemoryBundle() *StoreBundle {
	p := persistence.InMemory()
	return &StoreBundle{Snapshots: p.Snapshots, Events: p.Events}
}

// Options returns the options that persist a runtime's snapshot under key
// and record its history.
func (b *StoreBundle) Options(key string) []Option {
	opts := []Option{WithSnapshotStore(b.Snapshots, key)}
	if b.Events != nil {
		opts = append(opts, WithEventStore(b.Events))
	}
	return opts
}

package persistence

import (
	"context"
	"errors"

	"github.com/petrijr/flowtree/pkg/api"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot is stored under a key.
	ErrSnapshotNotFound = errors.New("snapshot not found")
)

// SnapshotStore persists the TreeSnapshot of a runtime under a caller-chosen
// key so a later runtime can resume from it.
type SnapshotStore interface {
	Save(ctx context.Context, key string, snap api.TreeSnapshot) error
	// Load returns ErrSnapshotNotFound when key has never been saved or was
	// deleted.
	Load(ctx context.Context, key string) (api.TreeSnapshot, error)
	// Delete is idempotent.
	Delete(ctx context.Context, key string) error
	// List returns all stored keys in ascending order.
	List(ctx context.Context) ([]string, error)
}

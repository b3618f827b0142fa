package persistence

import (
	"context"

	"github.com/petrijr/flowtree/pkg/api"
)

// EventStore is an append-only history store for runtime events.
type EventStore interface {
	AppendEvent(ctx context.Context, ev api.Event) error
	// ListEvents returns the events of one runtime in append order.
	ListEvents(ctx context.Context, runtimeID string) ([]api.Event, error)
}

// NoopEventStore discards all events.
type NoopEventStore struct{}

func (NoopEventStore) AppendEvent(ctx context.Context, ev api.Event) error { return nil }
func (NoopEventStore) ListEvents(ctx context.Context, runtimeID string) ([]api.Event, error) {
	return nil, nil
}

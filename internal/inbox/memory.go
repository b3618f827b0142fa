package inbox

import (
	"context"
	"sync/atomic"
	"time"
)

// InMemoryInbox is an Inbox backed by a buffered channel. It is safe for
// concurrent use.
type InMemoryInbox struct {
	ch     chan Event
	nextID atomic.Int64
}

// NewInMemoryInbox creates an inbox holding up to capacity events.
// capacity <= 0 defaults to 1024.
func NewInMemoryInbox(capacity int) *InMemoryInbox {
	if capacity <= 0 {
		capacity = 1024
	}
	return &InMemoryInbox{
		ch: make(chan Event, capacity),
	}
}

// Ensure InMemoryInbox implements Inbox.
var _ Inbox = (*InMemoryInbox)(nil)

func (q *InMemoryInbox) Enqueue(ctx context.Context, ev Event) error {
	ev.ID = q.nextID.Add(1)
	if ev.EnqueuedAt.IsZero() {
		ev.EnqueuedAt = time.Now()
	}
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *InMemoryInbox) Dequeue(ctx context.Context) (*Event, error) {
	select {
	case ev := <-q.ch:
		return &ev, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (q *InMemoryInbox) Len() int {
	return len(q.ch)
}

// Package inbox queues external events for a runtime. Events are accepted
// while the runtime is busy or down and delivered in FIFO order by Pump.
package inbox

import (
	"context"
	"time"
)

// Event is an external event waiting to be delivered.
type Event struct {
	ID   int64
	Name string
	Arg  string

	EnqueuedAt time.Time
}

// Inbox is a FIFO queue of events.
type Inbox interface {
	// Enqueue adds an event. It should respect ctx for cancellation.
	Enqueue(ctx context.Context, ev Event) error

	// Dequeue removes and returns the oldest event, blocking until one is
	// available or ctx is cancelled.
	Dequeue(ctx context.Context) (*Event, error)

	// Len returns the approximate number of queued events.
	Len() int
}

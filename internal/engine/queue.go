package engine

import (
	"sync"

	"github.com/petrijr/flowtree/pkg/api"
)

// queuedAction is an action waiting to be applied to the node that sent it.
// An entry with reached set is a barrier: it is closed, not applied.
type queuedAction struct {
	node    *node
	action  api.AnyAction
	reached chan struct{}
}

// actionQueue is an unbounded FIFO of actions. Enqueue never blocks so that
// sinks can be called from render passes, side effects and other goroutines
// alike. It is safe for concurrent use.
type actionQueue struct {
	mu    sync.Mutex
	items []queuedAction
	ready chan struct{}
}

func newActionQueue() *actionQueue {
	return &actionQueue{ready: make(chan struct{}, 1)}
}

func (q *actionQueue) Enqueue(a queuedAction) {
	q.mu.Lock()
	q.items = append(q.items, a)
	q.mu.Unlock()
	q.signal()
}

// Ready is signalled whenever the queue may have items.
func (q *actionQueue) Ready() <-chan struct{} {
	return q.ready
}

// Pop removes the oldest action, if any, and re-arms Ready while items remain.
func (q *actionQueue) Pop() (queuedAction, bool) {
	q.mu.Lock()
	if len(q.items) == 0 {
		q.mu.Unlock()
		return queuedAction{}, false
	}
	a := q.items[0]
	q.items[0] = queuedAction{}
	q.items = q.items[1:]
	remaining := len(q.items)
	q.mu.Unlock()

	if remaining > 0 {
		q.signal()
	}
	return a, true
}

func (q *actionQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

func (q *actionQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}

package persistence

import (
	"context"
	"sort"
	"sync"

	"github.com/petrijr/flowtree/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// SnapshotStore and EventStore backed by maps.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
	events    map[string][]api.Event
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		snapshots: make(map[string][]byte),
		events:    make(map[string][]api.Event),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ SnapshotStore = (*InMemoryStore)(nil)

var _ EventStore = (*InMemoryStore)(nil)

// Save stores an encoded copy so later mutation of snap's byte slices by
// the caller does not leak into the store.
func (s *InMemoryStore) Save(ctx context.Context, key string, snap api.TreeSnapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[key] = data
	return nil
}

func (s *InMemoryStore) Load(ctx context.Context, key string) (api.TreeSnapshot, error) {
	s.mu.RLock()
	data, ok := s.snapshots[key]
	s.mu.RUnlock()

	if !ok {
		return api.TreeSnapshot{}, ErrSnapshotNotFound
	}
	return DecodeSnapshot(data)
}

func (s *InMemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, key)
	return nil
}

func (s *InMemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.snapshots))
	for k := range s.snapshots {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *InMemoryStore) AppendEvent(ctx context.Context, ev api.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events[ev.RuntimeID] = append(s.events[ev.RuntimeID], ev)
	return nil
}

func (s *InMemoryStore) ListEvents(ctx context.Context, runtimeID string) ([]api.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	evs := s.events[runtimeID]
	out := make([]api.Event, len(evs))
	copy(out, evs)
	return out, nil
}

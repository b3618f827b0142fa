package persistence

// Persistence bundles the snapshot and event stores so callers can pass
// a single backend around.
type Persistence struct {
	Snapshots SnapshotStore
	Events    EventStore
}

// InMemory returns a Persistence backed by one InMemoryStore.
func InMemory() Persistence {
	mem := NewInMemoryStore()
	return Persistence{Snapshots: mem, Events: mem}
}

package engine

import (
	"fmt"
	"sort"
	"sync"

	"github.com/petrijr/flowtree/pkg/api"
)

// Entry is a named root workflow together with the props it starts with.
type Entry struct {
	Name        string
	Description string
	Workflow    api.AnyWorkflow
	Props       any
}

// Registry holds root workflows that can be started by name.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Entry
}

func NewRegistry() *Registry {
	return &Registry{
		byName: make(map[string]Entry),
	}
}

func (r *Registry) Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("workflow name is required")
	}
	if e.Workflow == nil {
		return fmt.Errorf("workflow %q has no definition", e.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byName[e.Name]; exists {
		return fmt.Errorf("workflow %q already registered", e.Name)
	}
	r.byName[e.Name] = e
	return nil
}

func (r *Registry) Get(name string) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.byName[name]
	if !ok {
		return Entry{}, fmt.Errorf("workflow %q not found", name)
	}
	return e, nil
}

// Entries returns all entries sorted by name.
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.byName))
	for _, e := range r.byName {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

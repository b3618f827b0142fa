package demo

import (
	"time"

	"github.com/petrijr/flowtree/internal/engine"
)

// DefaultWorkflow is the registry entry the CLI starts when none is named.
const DefaultWorkflow = "todo"

// NewRegistry returns a registry holding the demo workflows.
func NewRegistry() *engine.Registry {
	r := engine.NewRegistry()
	for _, e := range []engine.Entry{
		{
			Name:        "todo",
			Description: "todo list with one child workflow per item",
			Workflow:    ListWorkflow,
			Props:       ListProps{Title: "todo"},
		},
		{
			Name:        "todo-clock",
			Description: "todo list counting seconds while items are open",
			Workflow:    ListWorkflow,
			Props:       ListProps{Title: "todo", TickInterval: time.Second},
		},
		{
			Name:        "counter",
			Description: "counter emitting its count on reset",
			Workflow:    CounterWorkflow,
			Props:       0,
		},
	} {
		if err := r.Register(e); err != nil {
			panic(err)
		}
	}
	return r
}

package flowtree

import (
	"fmt"

	"github.com/petrijr/flowtree/pkg/api"
)

// WorkflowBuilder provides a fluent API for defining workflows:
//
//	counter := flowtree.New[Props, int, string, Rendering]("Counter").
//	    InitialState(func(p Props, snap flowtree.Snapshot) int { return 0 }).
//	    SnapshotState(func(n int) flowtree.Snapshot { return flowtree.SnapshotOf(strconv.Itoa(n)) }).
//	    Render(renderCounter).
//	    Build()
//
//	rt, err := flowtree.Run(ctx, counter, Props{})
type WorkflowBuilder[P, S, O, R any] struct {
	name  string
	funcs api.StatefulFuncs[P, S, O, R]
}

// New creates a new workflow builder with the given name.
func New[P, S, O, R any](name string) *WorkflowBuilder[P, S, O, R] {
	if name == "" {
		panic("flowtree: workflow name must not be empty")
	}
	return &WorkflowBuilder[P, S, O, R]{name: name}
}

// Name returns the workflow name.
func (b *WorkflowBuilder[P, S, O, R]) Name() string {
	return b.name
}

// InitialState sets the function building the state of a new session.
// Without it, sessions start from the zero S.
func (b *WorkflowBuilder[P, S, O, R]) InitialState(fn func(props P, snapshot api.Snapshot) S) *WorkflowBuilder[P, S, O, R] {
	if fn == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has nil initial state function", b.name))
	}
	b.funcs.InitialStateFunc = fn
	return b
}

// OnPropsChanged sets the function reacting to new props. Without it, state
// is kept as is.
func (b *WorkflowBuilder[P, S, O, R]) OnPropsChanged(fn func(old, new P, state S) S) *WorkflowBuilder[P, S, O, R] {
	if fn == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has nil props changed function", b.name))
	}
	b.funcs.OnPropsChangedFunc = fn
	return b
}

// Render sets the render function. It is required.
func (b *WorkflowBuilder[P, S, O, R]) Render(fn func(props P, state S, ctx *api.RenderContext[P, S, O]) R) *WorkflowBuilder[P, S, O, R] {
	if fn == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has nil render function", b.name))
	}
	b.funcs.RenderFunc = fn
	return b
}

// SnapshotState sets the function serializing state. Without it, state is
// not persisted.
func (b *WorkflowBuilder[P, S, O, R]) SnapshotState(fn func(state S) api.Snapshot) *WorkflowBuilder[P, S, O, R] {
	if fn == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has nil snapshot function", b.name))
	}
	b.funcs.SnapshotStateFunc = fn
	return b
}

// Build returns the workflow. It panics if no render function was set.
// The builder may be reused: later changes do not affect built workflows.
func (b *WorkflowBuilder[P, S, O, R]) Build() Workflow[P, O, R] {
	if b.funcs.RenderFunc == nil {
		panic(fmt.Sprintf("flowtree: workflow %q has no render function", b.name))
	}
	funcs := b.funcs
	return api.FromStateful[P, S, O, R](b.name, &funcs)
}

// Stateless returns a workflow without private state.
func Stateless[P, O, R any](name string, render func(props P, ctx *api.RenderContext[P, struct{}, O]) R) Workflow[P, O, R] {
	return api.Stateless(name, render)
}

// NewAction returns an action that runs apply against the current props and
// state of the owning workflow.
func NewAction[P, S, O any](name string, apply func(u *api.Updater[P, S, O])) *api.Action[P, S, O] {
	return api.NewAction(name, apply)
}

// RenderChild renders child with props under key; see api.RenderChild.
func RenderChild[P, S, O, CP, CO, CR any](c *api.RenderContext[P, S, O], child Workflow[CP, CO, CR], props CP, key string, handler func(CO) *api.Action[P, S, O]) CR {
	return api.RenderChild(c, child, props, key, handler)
}

// EventHandler1 returns a callback carrying one event value; see
// api.EventHandler1.
func EventHandler1[P, S, O, E any](c *api.RenderContext[P, S, O], name string, update func(u *api.Updater[P, S, O], event E)) func(E) {
	return api.EventHandler1(c, name, update)
}

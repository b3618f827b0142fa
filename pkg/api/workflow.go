package api

import (
	"fmt"
	"reflect"
)

// AnyWorkflow is the type-erased workflow contract the runtime drives.
// Authors normally implement StatefulWorkflow and wrap it with FromStateful.
type AnyWorkflow interface {
	Identifier() WorkflowIdentifier
	InitialState(props any, snapshot Snapshot) any
	OnPropsChanged(old, new, state any) any
	Render(props, state any, ctx BaseRenderContext) any
	SnapshotState(state any) Snapshot
}

// Workflow is a workflow accepting props P, emitting outputs O and producing
// renderings R. Its state type is private to the implementation.
//
// Values are created with FromStateful, Stateless or the flowtree builder.
type Workflow[P, O, R any] interface {
	AnyWorkflow
	typed(P, O) R
}

// StatefulWorkflow is the authoring interface for a workflow with props P,
// state S, output O and rendering R.
type StatefulWorkflow[P, S, O, R any] interface {
	// InitialState builds the state of a new session. snapshot is non-nil
	// when the session is restored from a previous run.
	InitialState(props P, snapshot Snapshot) S

	// OnPropsChanged is called when the parent renders this workflow with
	// props that differ from the previous pass.
	OnPropsChanged(old, new P, state S) S

	// Render must not block and must not have effects other than those
	// declared through ctx.
	Render(props P, state S, ctx *RenderContext[P, S, O]) R

	// SnapshotState serializes state. Returning nil skips persistence.
	SnapshotState(state S) Snapshot
}

// FromStateful adapts impl to Workflow. An empty name falls back to the Go
// type name of impl.
func FromStateful[P, S, O, R any](name string, impl StatefulWorkflow[P, S, O, R]) Workflow[P, O, R] {
	if impl == nil {
		panic("flowtree: stateful workflow implementation must not be nil")
	}
	if name == "" {
		name = reflect.TypeOf(impl).String()
	}
	return &statefulWorkflow[P, S, O, R]{
		id:   NewIdentifier(name),
		impl: impl,
	}
}

type statefulWorkflow[P, S, O, R any] struct {
	id   WorkflowIdentifier
	impl StatefulWorkflow[P, S, O, R]
}

func (w *statefulWorkflow[P, S, O, R]) Identifier() WorkflowIdentifier {
	return w.id
}

func (w *statefulWorkflow[P, S, O, R]) InitialState(props any, snapshot Snapshot) any {
	return w.impl.InitialState(as[P](props), snapshot)
}

func (w *statefulWorkflow[P, S, O, R]) OnPropsChanged(old, new, state any) any {
	return w.impl.OnPropsChanged(as[P](old), as[P](new), as[S](state))
}

func (w *statefulWorkflow[P, S, O, R]) Render(props, state any, ctx BaseRenderContext) any {
	return w.impl.Render(as[P](props), as[S](state), NewRenderContext[P, S, O](ctx))
}

func (w *statefulWorkflow[P, S, O, R]) SnapshotState(state any) Snapshot {
	return w.impl.SnapshotState(as[S](state))
}

func (w *statefulWorkflow[P, S, O, R]) typed(P, O) R {
	var zero R
	return zero
}

func (w *statefulWorkflow[P, S, O, R]) String() string {
	return fmt.Sprintf("Workflow(%s)", w.id)
}

// StatefulFuncs implements StatefulWorkflow with plain functions.
// RenderFunc is required; the others default to the zero state, keeping
// state on props changes, and not persisting.
type StatefulFuncs[P, S, O, R any] struct {
	InitialStateFunc   func(props P, snapshot Snapshot) S
	OnPropsChangedFunc func(old, new P, state S) S
	RenderFunc         func(props P, state S, ctx *RenderContext[P, S, O]) R
	SnapshotStateFunc  func(state S) Snapshot
}

func (f *StatefulFuncs[P, S, O, R]) InitialState(props P, snapshot Snapshot) S {
	if f.InitialStateFunc == nil {
		var zero S
		return zero
	}
	return f.InitialStateFunc(props, snapshot)
}

func (f *StatefulFuncs[P, S, O, R]) OnPropsChanged(old, new P, state S) S {
	if f.OnPropsChangedFunc == nil {
		return state
	}
	return f.OnPropsChangedFunc(old, new, state)
}

func (f *StatefulFuncs[P, S, O, R]) Render(props P, state S, ctx *RenderContext[P, S, O]) R {
	return f.RenderFunc(props, state, ctx)
}

func (f *StatefulFuncs[P, S, O, R]) SnapshotState(state S) Snapshot {
	if f.SnapshotStateFunc == nil {
		return nil
	}
	return f.SnapshotStateFunc(state)
}

// Stateless returns a workflow without private state.
func Stateless[P, O, R any](name string, render func(props P, ctx *RenderContext[P, struct{}, O]) R) Workflow[P, O, R] {
	if render == nil {
		panic(fmt.Sprintf("flowtree: stateless workflow %q has nil render function", name))
	}
	return FromStateful[P, struct{}, O, R](name, &StatefulFuncs[P, struct{}, O, R]{
		RenderFunc: func(props P, _ struct{}, ctx *RenderContext[P, struct{}, O]) R {
			return render(props, ctx)
		},
	})
}

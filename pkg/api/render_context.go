package api

import "context"

// SideEffect is a keyed task declared during render. It runs in its own
// goroutine and must return once ctx is cancelled.
type SideEffect func(ctx context.Context) error

// OutputHandler maps a child's output to an action for the parent.
// Returning nil drops the output.
type OutputHandler func(output any) AnyAction

// BaseRenderContext is the type-erased capability set handed to a workflow
// for exactly one render call.
type BaseRenderContext interface {
	// ActionSink returns the sink that enqueues actions for the rendering
	// workflow. It stays usable after the render pass ends.
	ActionSink() Sink[AnyAction]

	// RenderChild renders child under key and returns its rendering.
	// Outputs of the child are mapped through handler.
	RenderChild(child AnyWorkflow, props any, key string, handler OutputHandler) any

	// RunningSideEffect ensures effect runs for as long as consecutive render
	// passes keep declaring key.
	RunningSideEffect(key string, effect SideEffect)
}

// RenderContext is the typed facade over BaseRenderContext passed to
// StatefulWorkflow.Render.
type RenderContext[P, S, O any] struct {
	base BaseRenderContext
}

// NewRenderContext wraps base for a workflow with props P, state S, output O.
func NewRenderContext[P, S, O any](base BaseRenderContext) *RenderContext[P, S, O] {
	return &RenderContext[P, S, O]{base: base}
}

// Base returns the erased context.
func (c *RenderContext[P, S, O]) Base() BaseRenderContext {
	return c.base
}

// ActionSink returns a typed sink for this workflow's actions.
func (c *RenderContext[P, S, O]) ActionSink() Sink[*Action[P, S, O]] {
	sink := c.base.ActionSink()
	return SinkFunc[*Action[P, S, O]](func(a *Action[P, S, O]) {
		if a == nil {
			return
		}
		sink.Send(a)
	})
}

// Send enqueues action for this workflow.
func (c *RenderContext[P, S, O]) Send(action *Action[P, S, O]) {
	c.ActionSink().Send(action)
}

// EventHandler returns a callback suitable for a rendering: each call sends
// an action named name that runs update.
func (c *RenderContext[P, S, O]) EventHandler(name string, update func(u *Updater[P, S, O])) func() {
	sink := c.ActionSink()
	return func() {
		sink.Send(NewAction(name, update))
	}
}

// RunningSideEffect declares a keyed side effect for this render pass.
func (c *RenderContext[P, S, O]) RunningSideEffect(key string, effect SideEffect) {
	c.base.RunningSideEffect(key, effect)
}

// EventHandler1 is EventHandler for callbacks carrying one event value.
func EventHandler1[P, S, O, E any](c *RenderContext[P, S, O], name string, update func(u *Updater[P, S, O], event E)) func(E) {
	sink := c.ActionSink()
	return func(event E) {
		sink.Send(NewAction(name, func(u *Updater[P, S, O]) {
			update(u, event)
		}))
	}
}

// RenderChild renders child with props under key and returns its rendering.
// handler may be nil when the parent ignores the child's outputs.
func RenderChild[P, S, O, CP, CO, CR any](
	c *RenderContext[P, S, O],
	child Workflow[CP, CO, CR],
	props CP,
	key string,
	handler func(output CO) *Action[P, S, O],
) CR {
	var h OutputHandler
	if handler != nil {
		h = func(output any) AnyAction {
			a := handler(as[CO](output))
			if a == nil {
				return nil
			}
			return a
		}
	}
	return as[CR](c.base.RenderChild(child, props, key, h))
}

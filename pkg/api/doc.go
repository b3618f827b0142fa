// Package api contains the contract types of the flowtree runtime: workflows,
// actions, render contexts, sessions and the interceptor chain.
//
// Most users interact with the higher-level flowtree package, which
// re-exports selected types and starts runtimes. The api package is the
// place to look when writing workflows by hand or building interceptors.
//
// # Workflows
//
// A workflow is a state machine defined by four functions over props P,
// private state S, output O and rendering R:
//
//   - InitialState builds the state of a new session, optionally from a
//     Snapshot saved by a previous run.
//   - OnPropsChanged reacts to new props from the parent.
//   - Render turns props and state into a rendering. It must not block; it
//     describes work through its RenderContext instead of doing it.
//   - SnapshotState serializes state. nil means "do not persist".
//
// Implement StatefulWorkflow and wrap it with FromStateful, or use
// StatefulFuncs and Stateless for small workflows.
//
// # Actions and outputs
//
// Events reach a workflow as Actions sent to its action sink. The runtime
// applies one action at a time, between render passes. An action may replace
// state and emit one output, which the parent maps to one of its own actions
// through the handler it passed to RenderChild.
//
// # Sessions
//
// Every running workflow instance has a WorkflowSession. Rendering the same
// child identifier under the same key on consecutive passes keeps the
// session; omitting the key ends it and cancels its side effects and
// children.
//
// # Side effects
//
// RunningSideEffect declares a keyed function that runs on its own goroutine
// for as long as consecutive render passes keep declaring the key.
// RunningWorker builds on it to turn a stream of values into actions.
//
// # Interceptors
//
// A WorkflowInterceptor wraps every runtime operation with a proceed
// continuation. Chain composes interceptors left to right; Chain() is Noop
// and Chain(x) is x. OnRender may hand a RenderContextInterceptor to its
// proceed to observe or alter the actions, side effects and children of that
// single render pass.
//
// LoggingInterceptor and BasicMetrics are ready-made interceptors.
package api

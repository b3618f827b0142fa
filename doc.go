// Package flowtree provides an embeddable runtime for trees of composable,
// state-machine workflows.
//
// A workflow turns props and private state into a rendering. It may render
// child workflows, which run as sessions of their own, and declare keyed
// side effects that run concurrently while the workflow keeps declaring
// them. Events from the outside world reach a workflow as actions; the
// runtime applies them one at a time and renders the tree again.
//
// # Core Concepts
//
//  1. Workflow
//  2. Runtime
//  3. WorkflowInterceptor
//  4. SnapshotStore
//  5. LocalRunner
//
// # Workflows
//
// Define workflows with the fluent WorkflowBuilder, or implement
// api.StatefulWorkflow and wrap it with api.FromStateful:
//
//	counter := flowtree.New[struct{}, int, string, Rendering]("counter").
//	    Render(func(_ struct{}, n int, ctx *flowtree.RenderContext[struct{}, int, string]) Rendering {
//	        return Rendering{
//	            N: n,
//	            Inc: ctx.EventHandler("inc", func(u *flowtree.Updater[struct{}, int, string]) {
//	                u.State++
//	            }),
//	        }
//	    }).
//	    Build()
//
// # Runtime
//
// Run starts a runtime for a root workflow. The runtime owns every session
// of the tree on one goroutine: render passes never overlap and state is
// never shared. Renderings are published after every pass:
//
//	rt, err := flowtree.Run(ctx, counter, struct{}{})
//	r := rt.Current().Rendering.(Rendering)
//	r.Inc()
//
// # Interceptors
//
// Interceptors wrap every operation the runtime performs on a session. They
// are passed with WithInterceptors and composed left to right. The pkg/api,
// pkg/metrics and pkg/tracing packages ship logging, Prometheus and
// OpenTelemetry interceptors; pkg/workflowtest ships the render idempotency
// checker and a recording interceptor for tests.
//
// # Persistence
//
// WithSnapshotStore saves the tree snapshot after every pass and restores
// it on start. Stores exist for memory, SQLite, PostgreSQL, Redis and
// MongoDB. WithEventStore records a history of session and side-effect
// events.
//
// # LocalRunner
//
// LocalRunner bundles an in-memory store with a runtime and can restart it
// from the last snapshot, which is handy for trying out process-death
// recovery in development.
package flowtree

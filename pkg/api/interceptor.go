package api

import "context"

// RenderProceed continues a render through the rest of the interceptor chain.
// A non-nil rci intercepts the render context for this pass only.
type RenderProceed func(props, state any, rci RenderContextInterceptor) any

// RenderChildProceed continues a RenderChild call.
type RenderChildProceed func(child AnyWorkflow, props any, key string, handler OutputHandler) any

// WorkflowInterceptor hooks every operation the runtime performs on a
// workflow session. Each hook receives the original arguments plus proceed,
// which invokes the rest of the chain and finally the real operation.
// Calling proceed zero, one or several times is legal.
//
// Embed NoopInterceptor to override only some hooks.
type WorkflowInterceptor interface {
	// OnSessionStarted fires once per session, before OnInitialState. scope is
	// the context that hosts the session's side effects and children; it is
	// cancelled when the session ends.
	OnSessionStarted(scope context.Context, session *WorkflowSession)

	OnInitialState(props any, snapshot Snapshot, proceed func(props any, snapshot Snapshot) any, session *WorkflowSession) any

	OnPropsChanged(old, new, state any, proceed func(old, new, state any) any, session *WorkflowSession) any

	OnRender(props, state any, ctx BaseRenderContext, proceed RenderProceed, session *WorkflowSession) any

	OnSnapshotState(state any, proceed func(state any) Snapshot, session *WorkflowSession) Snapshot

	// OnSideEffectStarting runs once per continuous run of a side-effect key,
	// on the side effect's goroutine. ctx may be decorated with values but
	// proceed must be called with the same cancellation scope.
	OnSideEffectStarting(ctx context.Context, key string, proceed func(ctx context.Context) error, session *WorkflowSession) error
}

// RenderContextInterceptor intercepts calls a workflow makes on its render
// context during a single render pass.
type RenderContextInterceptor interface {
	OnActionSent(action AnyAction, proceed func(action AnyAction))

	// OnRunningSideEffect fires for every declaration of key, including
	// re-declarations of an effect that is already running.
	OnRunningSideEffect(key string, effect SideEffect, proceed func(key string, effect SideEffect))

	OnRenderChild(child AnyWorkflow, props any, key string, handler OutputHandler, proceed RenderChildProceed) any
}

// NoopInterceptor passes every call through unchanged.
type NoopInterceptor struct{}

func (NoopInterceptor) OnSessionStarted(context.Context, *WorkflowSession) {}

func (NoopInterceptor) OnInitialState(props any, snapshot Snapshot, proceed func(any, Snapshot) any, _ *WorkflowSession) any {
	return proceed(props, snapshot)
}

func (NoopInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, _ *WorkflowSession) any {
	return proceed(old, new, state)
}

func (NoopInterceptor) OnRender(props, state any, _ BaseRenderContext, proceed RenderProceed, _ *WorkflowSession) any {
	return proceed(props, state, nil)
}

func (NoopInterceptor) OnSnapshotState(state any, proceed func(any) Snapshot, _ *WorkflowSession) Snapshot {
	return proceed(state)
}

func (NoopInterceptor) OnSideEffectStarting(ctx context.Context, _ string, proceed func(context.Context) error, _ *WorkflowSession) error {
	return proceed(ctx)
}

// Noop is the interceptor used when none is configured. Chain() returns it,
// so callers can test for "no interception" with ==.
var Noop WorkflowInterceptor = NoopInterceptor{}

// NoopRenderContextInterceptor passes every render context call through.
type NoopRenderContextInterceptor struct{}

func (NoopRenderContextInterceptor) OnActionSent(action AnyAction, proceed func(AnyAction)) {
	proceed(action)
}

func (NoopRenderContextInterceptor) OnRunningSideEffect(key string, effect SideEffect, proceed func(string, SideEffect)) {
	proceed(key, effect)
}

func (NoopRenderContextInterceptor) OnRenderChild(child AnyWorkflow, props any, key string, handler OutputHandler, proceed RenderChildProceed) any {
	return proceed(child, props, key, handler)
}

// Intercept returns a workflow whose operations for session are routed
// through interceptor. With Noop, w is returned as is.
func Intercept(w AnyWorkflow, interceptor WorkflowInterceptor, session *WorkflowSession) AnyWorkflow {
	if interceptor == nil || interceptor == Noop {
		return w
	}
	return &interceptedWorkflow{w: w, interceptor: interceptor, session: session}
}

type interceptedWorkflow struct {
	w           AnyWorkflow
	interceptor WorkflowInterceptor
	session     *WorkflowSession
}

func (iw *interceptedWorkflow) Identifier() WorkflowIdentifier {
	return iw.w.Identifier()
}

func (iw *interceptedWorkflow) InitialState(props any, snapshot Snapshot) any {
	return iw.interceptor.OnInitialState(props, snapshot, iw.w.InitialState, iw.session)
}

func (iw *interceptedWorkflow) OnPropsChanged(old, new, state any) any {
	return iw.interceptor.OnPropsChanged(old, new, state, iw.w.OnPropsChanged, iw.session)
}

func (iw *interceptedWorkflow) Render(props, state any, ctx BaseRenderContext) any {
	return iw.interceptor.OnRender(props, state, ctx, func(p, s any, rci RenderContextInterceptor) any {
		return iw.w.Render(p, s, InterceptRenderContext(ctx, rci))
	}, iw.session)
}

func (iw *interceptedWorkflow) SnapshotState(state any) Snapshot {
	return iw.interceptor.OnSnapshotState(state, iw.w.SnapshotState, iw.session)
}

// InterceptRenderContext wraps base so its calls go through rci first.
// A nil rci returns base.
func InterceptRenderContext(base BaseRenderContext, rci RenderContextInterceptor) BaseRenderContext {
	if rci == nil {
		return base
	}
	return &interceptedRenderContext{base: base, rci: rci}
}

type interceptedRenderContext struct {
	base BaseRenderContext
	rci  RenderContextInterceptor
}

func (c *interceptedRenderContext) ActionSink() Sink[AnyAction] {
	sink := c.base.ActionSink()
	return SinkFunc[AnyAction](func(a AnyAction) {
		c.rci.OnActionSent(a, sink.Send)
	})
}

func (c *interceptedRenderContext) RenderChild(child AnyWorkflow, props any, key string, handler OutputHandler) any {
	return c.rci.OnRenderChild(child, props, key, handler, c.base.RenderChild)
}

func (c *interceptedRenderContext) RunningSideEffect(key string, effect SideEffect) {
	c.rci.OnRunningSideEffect(key, effect, c.base.RunningSideEffect)
}

// InterceptSideEffect wraps effect so that it starts through the
// interceptor's OnSideEffectStarting hook. proceed panics with an
// IllegalStateError when called with a context whose cancellation scope is
// not the one the effect was started with.
func InterceptSideEffect(interceptor WorkflowInterceptor, session *WorkflowSession, key string, effect SideEffect) SideEffect {
	if interceptor == nil {
		interceptor = Noop
	}
	return func(ctx context.Context) error {
		return interceptor.OnSideEffectStarting(ctx, key, func(inner context.Context) error {
			if inner == nil || inner.Done() != ctx.Done() {
				panic(IllegalState("OnSideEffectStarting must not call proceed with a different job"))
			}
			return effect(inner)
		}, session)
	}
}

package api

import "context"

// ChainedInterceptor composes interceptors left to right: the first one
// wraps the second, which wraps the next, down to the real operation.
type ChainedInterceptor struct {
	interceptors []WorkflowInterceptor
}

// Chain composes interceptors into one, skipping nil entries.
// With nothing left it returns Noop; with a single interceptor it returns
// that interceptor unchanged.
func Chain(interceptors ...WorkflowInterceptor) WorkflowInterceptor {
	filtered := make([]WorkflowInterceptor, 0, len(interceptors))
	for _, i := range interceptors {
		if i != nil {
			filtered = append(filtered, i)
		}
	}
	if len(filtered) == 0 {
		return Noop
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &ChainedInterceptor{interceptors: filtered}
}

// Interceptors returns the composed interceptors in chain order.
func (c *ChainedInterceptor) Interceptors() []WorkflowInterceptor {
	out := make([]WorkflowInterceptor, len(c.interceptors))
	copy(out, c.interceptors)
	return out
}

func (c *ChainedInterceptor) OnSessionStarted(scope context.Context, session *WorkflowSession) {
	for _, i := range c.interceptors {
		i.OnSessionStarted(scope, session)
	}
}

func (c *ChainedInterceptor) OnInitialState(props any, snapshot Snapshot, proceed func(any, Snapshot) any, session *WorkflowSession) any {
	next := proceed
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		i, inner := c.interceptors[idx], next
		next = func(p any, s Snapshot) any {
			return i.OnInitialState(p, s, inner, session)
		}
	}
	return next(props, snapshot)
}

func (c *ChainedInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, session *WorkflowSession) any {
	next := proceed
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		i, inner := c.interceptors[idx], next
		next = func(o, n, s any) any {
			return i.OnPropsChanged(o, n, s, inner, session)
		}
	}
	return next(old, new, state)
}

func (c *ChainedInterceptor) OnRender(props, state any, ctx BaseRenderContext, proceed RenderProceed, session *WorkflowSession) any {
	next := proceed
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		i, inner := c.interceptors[idx], next
		next = func(p, s any, outer RenderContextInterceptor) any {
			return i.OnRender(p, s, ctx, func(p, s any, own RenderContextInterceptor) any {
				return inner(p, s, ChainRenderContextInterceptors(outer, own))
			}, session)
		}
	}
	return next(props, state, nil)
}

func (c *ChainedInterceptor) OnSnapshotState(state any, proceed func(any) Snapshot, session *WorkflowSession) Snapshot {
	next := proceed
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		i, inner := c.interceptors[idx], next
		next = func(s any) Snapshot {
			return i.OnSnapshotState(s, inner, session)
		}
	}
	return next(state)
}

func (c *ChainedInterceptor) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *WorkflowSession) error {
	next := proceed
	for idx := len(c.interceptors) - 1; idx >= 0; idx-- {
		i, inner := c.interceptors[idx], next
		next = func(ctx context.Context) error {
			return i.OnSideEffectStarting(ctx, key, inner, session)
		}
	}
	return next(ctx)
}

// ChainRenderContextInterceptors returns an interceptor where outer wraps
// inner. Either may be nil.
func ChainRenderContextInterceptors(outer, inner RenderContextInterceptor) RenderContextInterceptor {
	switch {
	case outer == nil:
		return inner
	case inner == nil:
		return outer
	}
	return &chainedRenderContextInterceptor{outer: outer, inner: inner}
}

type chainedRenderContextInterceptor struct {
	outer, inner RenderContextInterceptor
}

func (c *chainedRenderContextInterceptor) OnActionSent(action AnyAction, proceed func(AnyAction)) {
	c.outer.OnActionSent(action, func(a AnyAction) {
		c.inner.OnActionSent(a, proceed)
	})
}

func (c *chainedRenderContextInterceptor) OnRunningSideEffect(key string, effect SideEffect, proceed func(string, SideEffect)) {
	c.outer.OnRunningSideEffect(key, effect, func(k string, e SideEffect) {
		c.inner.OnRunningSideEffect(k, e, proceed)
	})
}

func (c *chainedRenderContextInterceptor) OnRenderChild(child AnyWorkflow, props any, key string, handler OutputHandler, proceed RenderChildProceed) any {
	return c.outer.OnRenderChild(child, props, key, handler, func(ch AnyWorkflow, p any, k string, h OutputHandler) any {
		return c.inner.OnRenderChild(ch, p, k, h, proceed)
	})
}

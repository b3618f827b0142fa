package api

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// traceInterceptor appends BEGIN/END lines around every hook.
type traceInterceptor struct {
	name  string
	trace *[]string
}

func (t *traceInterceptor) begin(hook string) { *t.trace = append(*t.trace, "BEGIN:"+t.name+" "+hook) }
func (t *traceInterceptor) end(hook string)   { *t.trace = append(*t.trace, "END:"+t.name+" "+hook) }

func (t *traceInterceptor) OnSessionStarted(context.Context, *WorkflowSession) {
	t.begin("OnSessionStarted")
	t.end("OnSessionStarted")
}

func (t *traceInterceptor) OnInitialState(props any, snapshot Snapshot, proceed func(any, Snapshot) any, _ *WorkflowSession) any {
	t.begin("OnInitialState")
	defer t.end("OnInitialState")
	return proceed(props, snapshot)
}

func (t *traceInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, _ *WorkflowSession) any {
	t.begin("OnPropsChanged")
	defer t.end("OnPropsChanged")
	return proceed(old, new, state)
}

func (t *traceInterceptor) OnRender(props, state any, _ BaseRenderContext, proceed RenderProceed, _ *WorkflowSession) any {
	t.begin("OnRender")
	defer t.end("OnRender")
	return proceed(props, state, nil)
}

func (t *traceInterceptor) OnSnapshotState(state any, proceed func(any) Snapshot, _ *WorkflowSession) Snapshot {
	t.begin("OnSnapshotState")
	defer t.end("OnSnapshotState")
	return proceed(state)
}

func (t *traceInterceptor) OnSideEffectStarting(ctx context.Context, _ string, proceed func(context.Context) error, _ *WorkflowSession) error {
	t.begin("OnSideEffectStarting")
	defer t.end("OnSideEffectStarting")
	return proceed(ctx)
}

func TestChain_EmptyReturnsNoop(t *testing.T) {
	assert.True(t, Chain() == Noop)
	assert.True(t, Chain(nil, nil) == Noop)
}

func TestChain_SingleReturnsThatInterceptor(t *testing.T) {
	var trace []string
	single := &traceInterceptor{name: "A", trace: &trace}

	got := Chain(nil, single)
	assert.Same(t, single, got)
}

func TestChain_MultipleReturnsChained(t *testing.T) {
	var trace []string
	a := &traceInterceptor{name: "A", trace: &trace}
	b := &traceInterceptor{name: "B", trace: &trace}

	chained, ok := Chain(a, b).(*ChainedInterceptor)
	require.True(t, ok)
	assert.Equal(t, []WorkflowInterceptor{a, b}, chained.Interceptors())
}

func TestChain_HookCallOrder(t *testing.T) {
	session := newTestSession()
	mark := func(name string, trace *[]string) {
		*trace = append(*trace, name)
	}

	tests := []struct {
		hook string
		call func(i WorkflowInterceptor, trace *[]string)
	}{
		{"OnInitialState", func(i WorkflowInterceptor, trace *[]string) {
			i.OnInitialState("p", nil, func(any, Snapshot) any { mark("real", trace); return nil }, session)
		}},
		{"OnPropsChanged", func(i WorkflowInterceptor, trace *[]string) {
			i.OnPropsChanged("o", "n", "s", func(any, any, any) any { mark("real", trace); return nil }, session)
		}},
		{"OnRender", func(i WorkflowInterceptor, trace *[]string) {
			i.OnRender("p", "s", &fakeRenderContext{}, func(any, any, RenderContextInterceptor) any { mark("real", trace); return nil }, session)
		}},
		{"OnSnapshotState", func(i WorkflowInterceptor, trace *[]string) {
			i.OnSnapshotState("s", func(any) Snapshot { mark("real", trace); return nil }, session)
		}},
		{"OnSideEffectStarting", func(i WorkflowInterceptor, trace *[]string) {
			_ = i.OnSideEffectStarting(context.Background(), "k", func(context.Context) error { mark("real", trace); return nil }, session)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.hook, func(t *testing.T) {
			var trace []string
			chain := Chain(&traceInterceptor{name: "A", trace: &trace}, &traceInterceptor{name: "B", trace: &trace})
			tt.call(chain, &trace)
			assert.Equal(t, []string{
				"BEGIN:A " + tt.hook,
				"BEGIN:B " + tt.hook,
				"real",
				"END:B " + tt.hook,
				"END:A " + tt.hook,
			}, trace)
		})
	}
}

func TestChain_OnSessionStartedFiresInOrder(t *testing.T) {
	var trace []string
	chain := Chain(&traceInterceptor{name: "A", trace: &trace}, &traceInterceptor{name: "B", trace: &trace})
	chain.OnSessionStarted(context.Background(), newTestSession())
	assert.Equal(t, []string{
		"BEGIN:A OnSessionStarted", "END:A OnSessionStarted",
		"BEGIN:B OnSessionStarted", "END:B OnSessionStarted",
	}, trace)
}

func TestNoopInterceptor_IsTransparent(t *testing.T) {
	base := FromStateful("counter", &StatefulFuncs[int, int, string, string]{
		InitialStateFunc: func(props int, _ Snapshot) int { return props * 10 },
		OnPropsChangedFunc: func(old, new int, state int) int {
			return state + new - old
		},
		RenderFunc: func(props, state int, _ *RenderContext[int, int, string]) string {
			return fmt.Sprintf("%d/%d", props, state)
		},
		SnapshotStateFunc: func(state int) Snapshot { return SnapshotOf(fmt.Sprint(state)) },
	})

	type embedsNoop struct{ NoopInterceptor }
	session := newTestSession()
	w := Intercept(base, Chain(embedsNoop{}, NoopInterceptor{}), session)

	assert.Equal(t, base.InitialState(3, nil), w.InitialState(3, nil))
	assert.Equal(t, base.OnPropsChanged(1, 4, 10), w.OnPropsChanged(1, 4, 10))
	assert.Equal(t, base.Render(2, 20, &fakeRenderContext{}), w.Render(2, 20, &fakeRenderContext{}))
	assert.Equal(t, base.SnapshotState(7), w.SnapshotState(7))
}

func TestIntercept_NoopReturnsWorkflow(t *testing.T) {
	base := Stateless("plain", func(string, *RenderContext[string, struct{}, string]) string { return "" })
	assert.Same(t, base, Intercept(base, Noop, newTestSession()))
	assert.Same(t, base, Intercept(base, Chain(), newTestSession()))
}

// relabel prefixes inputs and output of OnPropsChanged with its own tag.
type relabel struct {
	NoopInterceptor
	n int
}

func (r relabel) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, _ *WorkflowSession) any {
	tag := fmt.Sprint(r.n)
	out := proceed("old"+tag+": "+old.(string), "new"+tag+": "+new.(string), "state"+tag+": "+state.(string))
	return "r" + tag + ": " + out.(string)
}

func TestChain_RelabelsArgumentsAndResults(t *testing.T) {
	chain := Chain(relabel{n: 1}, relabel{n: 2})
	got := chain.OnPropsChanged("old", "new", "state", func(old, new, state any) any {
		return fmt.Sprintf("(%s|%s|%s)", old, new, state)
	}, newTestSession())
	assert.Equal(t, "r1: r2: (old2: old1: old|new2: new1: new|state2: state1: state)", got)
}

// tagRCI prefixes child keys so the wrapping order is visible.
type tagRCI struct {
	NoopRenderContextInterceptor
	tag string
}

func (r tagRCI) OnRenderChild(child AnyWorkflow, props any, key string, handler OutputHandler, proceed RenderChildProceed) any {
	return proceed(child, props, r.tag+key, handler)
}

// rciInterceptor offers a tagRCI from OnRender.
type rciInterceptor struct {
	NoopInterceptor
	tag string
}

func (r rciInterceptor) OnRender(props, state any, _ BaseRenderContext, proceed RenderProceed, _ *WorkflowSession) any {
	return proceed(props, state, tagRCI{tag: r.tag})
}

func TestChain_RenderContextInterceptorsCompose(t *testing.T) {
	child := Stateless("child", func(string, *RenderContext[string, struct{}, string]) string { return "" })
	parent := Stateless("parent", func(_ string, ctx *RenderContext[string, struct{}, string]) string {
		return RenderChild(ctx, child, "p", "key", nil)
	})

	rc := &fakeRenderContext{}
	w := Intercept(parent, Chain(rciInterceptor{tag: "a-"}, rciInterceptor{tag: "b-"}), newTestSession())
	got := w.Render("p", struct{}{}, rc)

	assert.Equal(t, []string{"b-a-key"}, rc.children)
	assert.Equal(t, "child:b-a-key", got)
}

// forkingInterceptor calls proceed with a context derived by derive.
type forkingInterceptor struct {
	NoopInterceptor
	derive func(context.Context) context.Context
}

func (f forkingInterceptor) OnSideEffectStarting(ctx context.Context, _ string, proceed func(context.Context) error, _ *WorkflowSession) error {
	return proceed(f.derive(ctx))
}

type ctxKey struct{}

func TestInterceptSideEffect_JobMustNotChange(t *testing.T) {
	const msg = "OnSideEffectStarting must not call proceed with a different job"

	tests := []struct {
		name    string
		derive  func(context.Context) context.Context
		wantErr bool
	}{
		{"unchanged", func(ctx context.Context) context.Context { return ctx }, false},
		{"with value", func(ctx context.Context) context.Context { return context.WithValue(ctx, ctxKey{}, "name") }, false},
		{"with cancel", func(ctx context.Context) context.Context {
			c, cancel := context.WithCancel(ctx)
			t.Cleanup(cancel)
			return c
		}, true},
		{"without cancel", context.WithoutCancel, true},
		{"background", func(context.Context) context.Context { return context.Background() }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ran := false
			effect := InterceptSideEffect(Chain(forkingInterceptor{derive: tt.derive}, NoopInterceptor{}), newTestSession(), "k",
				func(ctx context.Context) error {
					ran = true
					return nil
				})

			if tt.wantErr {
				assert.PanicsWithError(t, msg, func() { _ = effect(ctx) })
				assert.False(t, ran)
				return
			}
			require.NoError(t, effect(ctx))
			assert.True(t, ran)
		})
	}
}

func TestIllegalState_IsDetectedThroughWrapping(t *testing.T) {
	err := fmt.Errorf("side effect k: %w", IllegalState("bad %s", "job"))
	assert.True(t, IsIllegalState(err))
	assert.EqualError(t, err, "side effect k: bad job")
	assert.False(t, IsIllegalState(ErrRuntimeClosed))
}

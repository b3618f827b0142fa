package workflowtest

import (
	"context"
	"strconv"

	"github.com/petrijr/flowtree/pkg/api"
)

type treeRendering struct {
	Leaves    []string
	Count     int
	Increment func()
	Finish    func()
}

func newLeaf() api.Workflow[string, string, string] {
	return api.Stateless("leaf", func(props string, _ *api.RenderContext[string, struct{}, string]) string {
		return "leaf:" + props
	})
}

// newTree renders one leaf per props count and keeps a counter in state.
func newTree() api.Workflow[int, string, treeRendering] {
	leaf := newLeaf()
	return api.FromStateful("tree", &api.StatefulFuncs[int, int, string, treeRendering]{
		RenderFunc: func(props int, state int, ctx *api.RenderContext[int, int, string]) treeRendering {
			r := treeRendering{Count: state}
			for i := 0; i < props; i++ {
				key := strconv.Itoa(i)
				r.Leaves = append(r.Leaves, api.RenderChild(ctx, leaf, key, key, nil))
			}
			r.Increment = ctx.EventHandler("increment", func(u *api.Updater[int, int, string]) {
				u.State++
			})
			r.Finish = ctx.EventHandler("finish", func(u *api.Updater[int, int, string]) {
				u.SetOutput("done:" + strconv.Itoa(u.State))
			})
			return r
		},
	})
}

// fakeRenderContext records what a render declared through it.
type fakeRenderContext struct {
	sent     []string
	effects  []string
	children []string
}

var _ api.BaseRenderContext = (*fakeRenderContext)(nil)

func (f *fakeRenderContext) ActionSink() api.Sink[api.AnyAction] {
	return api.SinkFunc[api.AnyAction](func(a api.AnyAction) {
		f.sent = append(f.sent, a.ActionName())
	})
}

func (f *fakeRenderContext) RenderChild(child api.AnyWorkflow, props any, key string, _ api.OutputHandler) any {
	f.children = append(f.children, child.Identifier().Name+"["+key+"]")
	return child.Render(props, child.InitialState(props, nil), f)
}

func (f *fakeRenderContext) RunningSideEffect(key string, _ api.SideEffect) {
	f.effects = append(f.effects, key)
}

// renderWith runs w once through interceptor against base, the way the
// runtime wires an intercepted render.
func renderWith(interceptor api.WorkflowInterceptor, w api.AnyWorkflow, props, state any, base api.BaseRenderContext) any {
	session := &api.WorkflowSession{Identifier: w.Identifier(), SessionID: 1}
	return api.Intercept(w, interceptor, session).Render(props, state, base)
}

func noopEffect(ctx context.Context) error {
	<-ctx.Done()
	return nil
}

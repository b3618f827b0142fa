package engine

import (
	"github.com/petrijr/flowtree/pkg/api"
)

// renderContext is the real BaseRenderContext for one render pass of a node.
// It records what the pass declared so the node can reconcile afterwards.
type renderContext struct {
	node   *node
	frozen bool

	children    map[childKey]*node
	effects     map[string]api.SideEffect
	effectOrder []string
}

var _ api.BaseRenderContext = (*renderContext)(nil)

func newRenderContext(n *node) *renderContext {
	return &renderContext{
		node:     n,
		children: map[childKey]*node{},
		effects:  map[string]api.SideEffect{},
	}
}

func (rc *renderContext) freeze() {
	rc.frozen = true
}

func (rc *renderContext) checkNotFrozen(op string) {
	if rc.frozen {
		panic(api.IllegalState("%s called on the render context of %s after render returned",
			op, rc.node.session.Path()))
	}
}

// ActionSink stays valid after the pass: renderings hand it to event
// handlers. Actions sent to a node whose session ended are dropped.
func (rc *renderContext) ActionSink() api.Sink[api.AnyAction] {
	n := rc.node
	return api.SinkFunc[api.AnyAction](func(a api.AnyAction) {
		if a == nil {
			return
		}
		n.rt.queue.Enqueue(queuedAction{node: n, action: a})
	})
}

func (rc *renderContext) RenderChild(child api.AnyWorkflow, props any, key string, handler api.OutputHandler) any {
	rc.checkNotFrozen("RenderChild")
	if child == nil {
		panic(api.IllegalState("%s rendered a nil child with key %q", rc.node.session.Path(), key))
	}
	return rc.node.renderChild(rc, child, props, key, handler)
}

func (rc *renderContext) RunningSideEffect(key string, effect api.SideEffect) {
	rc.checkNotFrozen("RunningSideEffect")
	if effect == nil {
		panic(api.IllegalState("%s declared nil side effect %q", rc.node.session.Path(), key))
	}
	if _, dup := rc.effects[key]; dup {
		panic(api.IllegalState("%s declared side effect %q more than once in one render pass",
			rc.node.session.Path(), key))
	}
	rc.effects[key] = effect
	rc.effectOrder = append(rc.effectOrder, key)
}

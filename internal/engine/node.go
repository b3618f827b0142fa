package engine

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/petrijr/flowtree/pkg/api"
)

type childKey struct {
	id  api.WorkflowIdentifier
	key string
}

type runningEffect struct {
	cancel context.CancelFunc
}

// node is one running workflow session. All fields are owned by the runtime
// goroutine.
type node struct {
	rt      *Runtime
	parent  *node
	session *api.WorkflowSession

	ctx    context.Context
	cancel context.CancelFunc

	workflow api.AnyWorkflow
	props    any
	state    any
	handler  api.OutputHandler

	children map[childKey]*node
	effects  map[string]*runningEffect

	// restored holds child snapshots until the first render pass has
	// created the children they belong to.
	restored map[string]api.TreeSnapshot
}

func newNode(rt *Runtime, parent *node, w api.AnyWorkflow, props any, key string, handler api.OutputHandler, snap *api.TreeSnapshot) *node {
	parentCtx := rt.ctx
	var parentSession *api.WorkflowSession
	if parent != nil {
		parentCtx = parent.ctx
		parentSession = parent.session
	}

	session := newSession(w.Identifier(), key, parentSession, rt.id)
	ctx, cancel := context.WithCancel(parentCtx)

	n := &node{
		rt:       rt,
		parent:   parent,
		session:  session,
		ctx:      ctx,
		cancel:   cancel,
		workflow: api.Intercept(w, rt.interceptor, session),
		props:    props,
		handler:  handler,
		children: map[childKey]*node{},
		effects:  map[string]*runningEffect{},
	}

	rt.interceptor.OnSessionStarted(ctx, session)

	var own api.Snapshot
	if snap != nil {
		own = snap.Workflow
		n.restored = snap.Children
	}
	n.state = n.workflow.InitialState(props, own)
	rt.logger.Debug("session_started",
		slog.String("path", session.Path()),
		slog.Int64("session_id", session.SessionID),
		slog.Bool("restored", own != nil),
	)
	return n
}

// update replaces the workflow value and props for the next render pass.
// OnPropsChanged only runs when the props actually differ.
func (n *node) update(w api.AnyWorkflow, props any, handler api.OutputHandler) {
	if w != nil {
		n.workflow = api.Intercept(w, n.rt.interceptor, n.session)
	}
	n.handler = handler
	if !reflect.DeepEqual(n.props, props) {
		n.state = n.workflow.OnPropsChanged(n.props, props, n.state)
	}
	n.props = props
}

func (n *node) render() any {
	rc := newRenderContext(n)
	rendering := n.workflow.Render(n.props, n.state, rc)
	rc.freeze()
	n.reconcile(rc)
	n.restored = nil
	return rendering
}

func (n *node) renderChild(rc *renderContext, child api.AnyWorkflow, props any, key string, handler api.OutputHandler) any {
	ck := childKey{id: child.Identifier(), key: key}
	if _, dup := rc.children[ck]; dup {
		panic(api.IllegalState("%s rendered child %s with key %q more than once in one render pass",
			n.session.Path(), ck.id, key))
	}

	c, ok := n.children[ck]
	if ok {
		c.update(child, props, handler)
	} else {
		var snap *api.TreeSnapshot
		if s, found := n.restored[api.ChildSnapshotKey(ck.id, key)]; found {
			snap = &s
		}
		c = newNode(n.rt, n, child, props, key, handler, snap)
	}
	rc.children[ck] = c
	return c.render()
}

// reconcile ends children and side effects the last pass did not declare
// and starts the side effects it declared for the first time.
func (n *node) reconcile(rc *renderContext) {
	for ck, c := range n.children {
		if _, keep := rc.children[ck]; !keep {
			c.teardown()
		}
	}
	n.children = rc.children

	for key, e := range n.effects {
		if _, keep := rc.effects[key]; !keep {
			e.cancel()
			delete(n.effects, key)
		}
	}
	for _, key := range rc.effectOrder {
		if _, running := n.effects[key]; running {
			continue
		}
		n.startSideEffect(key, rc.effects[key])
	}
}

func (n *node) startSideEffect(key string, effect api.SideEffect) {
	rt := n.rt
	ctx, cancel := context.WithCancel(n.ctx)
	n.effects[key] = &runningEffect{cancel: cancel}
	run := api.InterceptSideEffect(rt.interceptor, n.session, key, effect)

	rt.effects.Add(1)
	go func() {
		defer rt.effects.Done()
		defer cancel()

		err := runSideEffect(ctx, run)
		if err == nil || ctx.Err() != nil {
			return
		}
		rt.fail(fmt.Errorf("side effect %q in %s: %w", key, n.session.Path(), err))
	}()
}

func runSideEffect(ctx context.Context, run api.SideEffect) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.PanicError(r)
		}
	}()
	return run(ctx)
}

func (n *node) teardown() {
	n.cancel()
	n.rt.logger.Debug("session_ended",
		slog.String("path", n.session.Path()),
		slog.Int64("session_id", n.session.SessionID),
	)
}

func (n *node) alive() bool {
	return n.ctx.Err() == nil
}

func (n *node) snapshot() api.TreeSnapshot {
	ts := api.TreeSnapshot{Workflow: n.workflow.SnapshotState(n.state)}
	if len(n.children) > 0 {
		ts.Children = make(map[string]api.TreeSnapshot, len(n.children))
		for ck, c := range n.children {
			ts.Children[api.ChildSnapshotKey(ck.id, ck.key)] = c.snapshot()
		}
	}
	return ts
}

// apply runs action against the node's state and propagates any output up
// through the parents' output handlers. Output of the root goes to the
// runtime's output handler.
func (n *node) apply(action api.AnyAction) {
	res := action.ApplyTo(n.props, n.state)
	n.state = res.State

	for cur := n; res.HasOutput; {
		if cur.parent == nil {
			if cur.rt.onOutput != nil {
				cur.rt.onOutput(res.Output)
			}
			return
		}
		if cur.handler == nil {
			return
		}
		next := cur.handler(res.Output)
		if next == nil {
			return
		}
		cur = cur.parent
		res = next.ApplyTo(cur.props, cur.state)
		cur.state = res.State
	}
}

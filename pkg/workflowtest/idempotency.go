package workflowtest

import (
	"github.com/petrijr/flowtree/pkg/api"
)

// RenderIdempotencyChecker renders every workflow twice per pass. The first
// render runs for real while child renderings are recorded. The second one
// replays against the same props and state: child renders are answered from
// the recording, and action sends and side-effect declarations are dropped.
//
// A render that only describes work through its context produces the same
// rendering on both calls. The replayed rendering is the one returned.
type RenderIdempotencyChecker struct {
	api.NoopInterceptor

	// Compare, when set, is called with both renderings of a pass. A false
	// result panics with an IllegalStateError naming the session.
	Compare func(first, replay any) bool
}

var _ api.WorkflowInterceptor = (*RenderIdempotencyChecker)(nil)

func (c *RenderIdempotencyChecker) OnRender(props, state any, _ api.BaseRenderContext, proceed api.RenderProceed, session *api.WorkflowSession) any {
	rec := NewReplayRecorder()
	first := proceed(props, state, rec)

	rec.StartReplaying()
	replay := proceed(props, state, rec)
	rec.StopReplaying()

	if c.Compare != nil && !c.Compare(first, replay) {
		panic(api.IllegalState("render of %s is not idempotent", session.Path()))
	}
	return replay
}

type recorderState int

const (
	recording recorderState = iota
	replaying
	stopped
)

// ReplayRecorder is the render context interceptor used by
// RenderIdempotencyChecker for one pair of render calls.
//
// While recording, every call passes through and child renderings are
// queued. While replaying, RenderChild answers from the queue in the order
// the children were first rendered, and actions and side effects are
// dropped. Once stopped, every call passes through again.
type ReplayRecorder struct {
	state recorderState
	// Stored in reverse so replay pops from the tail.
	renderings []any
	recorded   []any
}

var _ api.RenderContextInterceptor = (*ReplayRecorder)(nil)

// NewReplayRecorder returns a recorder in the recording state.
func NewReplayRecorder() *ReplayRecorder {
	return &ReplayRecorder{}
}

// StartReplaying switches from recording to replaying.
func (r *ReplayRecorder) StartReplaying() {
	switch r.state {
	case replaying:
		panic(api.IllegalState("expected not to be replaying"))
	case stopped:
		panic(api.IllegalState("replay already finished"))
	}
	r.renderings = make([]any, len(r.recorded))
	for i, v := range r.recorded {
		r.renderings[len(r.recorded)-1-i] = v
	}
	r.recorded = nil
	r.state = replaying
}

// StopReplaying ends the replay. Renderings recorded but not replayed mean
// the two render calls rendered different children.
func (r *ReplayRecorder) StopReplaying() {
	if r.state != replaying {
		panic(api.IllegalState("expected to be replaying"))
	}
	left := len(r.renderings)
	r.renderings = nil
	r.state = stopped
	if left > 0 {
		panic(api.IllegalState("replay rendered %d fewer children than the first render", left))
	}
}

// Replaying reports whether the recorder is in the replay phase.
func (r *ReplayRecorder) Replaying() bool {
	return r.state == replaying
}

func (r *ReplayRecorder) OnActionSent(action api.AnyAction, proceed func(api.AnyAction)) {
	if r.state == replaying {
		return
	}
	proceed(action)
}

func (r *ReplayRecorder) OnRunningSideEffect(key string, effect api.SideEffect, proceed func(string, api.SideEffect)) {
	if r.state == replaying {
		return
	}
	proceed(key, effect)
}

func (r *ReplayRecorder) OnRenderChild(child api.AnyWorkflow, props any, key string, handler api.OutputHandler, proceed api.RenderChildProceed) any {
	switch r.state {
	case recording:
		rendering := proceed(child, props, key, handler)
		r.recorded = append(r.recorded, rendering)
		return rendering
	case replaying:
		n := len(r.renderings)
		if n == 0 {
			panic(api.IllegalState("replay rendered child %s[%s] that the first render did not", child.Identifier(), key))
		}
		rendering := r.renderings[n-1]
		r.renderings = r.renderings[:n-1]
		return rendering
	default:
		return proceed(child, props, key, handler)
	}
}

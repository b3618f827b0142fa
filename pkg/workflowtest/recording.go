package workflowtest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/petrijr/flowtree/pkg/api"
)

// EventSink receives the events recorded by a RecordingInterceptor.
// persistence event stores satisfy it.
type EventSink interface {
	AppendEvent(ctx context.Context, ev api.Event) error
}

// RecordingInterceptor records a BEGIN/END trace line around every hook it
// sees, plus one api.Event per hook. It is safe for concurrent use, since
// side-effect hooks run on their own goroutines.
//
// Trace lines look like:
//
//	BEGIN:name OnRender list/item[a]
//	END:name OnRender list/item[a]
type RecordingInterceptor struct {
	Name string

	// Sink, when set, receives a copy of every recorded event. Append errors
	// are collected in Errors.
	Sink EventSink

	mu     sync.Mutex
	trace  []string
	events []api.Event
	errs   []error
}

var _ api.WorkflowInterceptor = (*RecordingInterceptor)(nil)

// NewRecordingInterceptor returns a recorder whose trace lines carry name.
func NewRecordingInterceptor(name string) *RecordingInterceptor {
	return &RecordingInterceptor{Name: name}
}

// Trace returns a copy of the recorded trace lines.
func (r *RecordingInterceptor) Trace() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.trace...)
}

// TraceString joins the trace with newlines, with a trailing newline.
func (r *RecordingInterceptor) TraceString() string {
	lines := r.Trace()
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Events returns a copy of the recorded events.
func (r *RecordingInterceptor) Events() []api.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.Event(nil), r.events...)
}

// Errors returns the errors returned by Sink.
func (r *RecordingInterceptor) Errors() []error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]error(nil), r.errs...)
}

// Reset drops everything recorded so far.
func (r *RecordingInterceptor) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trace = nil
	r.events = nil
	r.errs = nil
}

func (r *RecordingInterceptor) line(phase, hook string, session *api.WorkflowSession, extra string) {
	s := phase + ":" + r.Name + " " + hook
	if session != nil {
		s += " " + session.Path()
	}
	if extra != "" {
		s += " " + extra
	}
	r.mu.Lock()
	r.trace = append(r.trace, s)
	r.mu.Unlock()
}

func (r *RecordingInterceptor) begin(hook string, session *api.WorkflowSession) {
	r.line("BEGIN", hook, session, "")
}

func (r *RecordingInterceptor) end(hook string, session *api.WorkflowSession) {
	r.line("END", hook, session, "")
}

func (r *RecordingInterceptor) record(t api.EventType, session *api.WorkflowSession, key, detail string) {
	ev := api.NewEvent(t, session, key, detail)

	r.mu.Lock()
	r.events = append(r.events, ev)
	sink := r.Sink
	r.mu.Unlock()

	if sink == nil {
		return
	}
	if err := sink.AppendEvent(context.Background(), ev); err != nil {
		r.mu.Lock()
		r.errs = append(r.errs, err)
		r.mu.Unlock()
	}
}

func (r *RecordingInterceptor) OnSessionStarted(scope context.Context, session *api.WorkflowSession) {
	r.begin("OnSessionStarted", session)
	r.record(api.EventSessionStarted, session, session.RenderKey, "")
	context.AfterFunc(scope, func() {
		r.record(api.EventSessionEnded, session, session.RenderKey, "")
	})
	r.end("OnSessionStarted", session)
}

func (r *RecordingInterceptor) OnInitialState(props any, snapshot api.Snapshot, proceed func(any, api.Snapshot) any, session *api.WorkflowSession) any {
	r.begin("OnInitialState", session)
	defer r.end("OnInitialState", session)

	detail := "fresh"
	if snapshot != nil {
		detail = "restored"
	}
	r.record(api.EventInitialState, session, "", detail)
	return proceed(props, snapshot)
}

func (r *RecordingInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, session *api.WorkflowSession) any {
	r.begin("OnPropsChanged", session)
	defer r.end("OnPropsChanged", session)

	r.record(api.EventPropsChanged, session, "", "")
	return proceed(old, new, state)
}

func (r *RecordingInterceptor) OnRender(props, state any, _ api.BaseRenderContext, proceed api.RenderProceed, session *api.WorkflowSession) any {
	r.begin("OnRender", session)
	defer r.end("OnRender", session)

	r.record(api.EventRender, session, "", "")
	return proceed(props, state, &recordingRenderContextInterceptor{r: r, session: session})
}

func (r *RecordingInterceptor) OnSnapshotState(state any, proceed func(any) api.Snapshot, session *api.WorkflowSession) api.Snapshot {
	r.begin("OnSnapshotState", session)
	defer r.end("OnSnapshotState", session)

	snap := proceed(state)
	r.record(api.EventSnapshot, session, "", fmt.Sprintf("%d bytes", len(snap)))
	return snap
}

func (r *RecordingInterceptor) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *api.WorkflowSession) error {
	r.line("BEGIN", "OnSideEffectStarting", session, key)
	r.record(api.EventSideEffectStarted, session, key, "")

	err := proceed(ctx)

	detail := "ok"
	if err != nil {
		detail = err.Error()
	}
	r.record(api.EventSideEffectEnded, session, key, detail)
	r.line("END", "OnSideEffectStarting", session, key)
	return err
}

type recordingRenderContextInterceptor struct {
	api.NoopRenderContextInterceptor
	r       *RecordingInterceptor
	session *api.WorkflowSession
}

func (c *recordingRenderContextInterceptor) OnActionSent(action api.AnyAction, proceed func(api.AnyAction)) {
	c.r.line("BEGIN", "OnActionSent", c.session, action.ActionName())
	c.r.record(api.EventActionSent, c.session, "", action.ActionName())
	proceed(action)
	c.r.line("END", "OnActionSent", c.session, action.ActionName())
}

func (c *recordingRenderContextInterceptor) OnRenderChild(child api.AnyWorkflow, props any, key string, handler api.OutputHandler, proceed api.RenderChildProceed) any {
	label := child.Identifier().Name + "[" + key + "]"
	c.r.line("BEGIN", "OnRenderChild", c.session, label)
	defer c.r.line("END", "OnRenderChild", c.session, label)

	c.r.record(api.EventChildRendered, c.session, key, child.Identifier().Name)
	return proceed(child, props, key, handler)
}

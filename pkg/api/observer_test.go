package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"
)

//
// Helpers
//

// recordingHandler is a minimal slog.Handler that just records log records.
type recordingHandler struct {
	mu      sync.Mutex
	records []slog.Record
}

func (h *recordingHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return true
}

func (h *recordingHandler) Handle(ctx context.Context, r slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	// Copy to avoid reuse issues.
	cpy := slog.Record{
		Time:    r.Time,
		Level:   r.Level,
		Message: r.Message,
	}
	r.Attrs(func(a slog.Attr) bool {
		cpy.AddAttrs(a)
		return true
	})
	h.records = append(h.records, cpy)
	return nil
}

func (h *recordingHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return h
}

func (h *recordingHandler) WithGroup(name string) slog.Handler {
	return h
}

func (h *recordingHandler) snapshot() []slog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]slog.Record, len(h.records))
	copy(out, h.records)
	return out
}

func attrsToMap(r slog.Record) map[string]any {
	m := make(map[string]any)
	r.Attrs(func(a slog.Attr) bool {
		m[a.Key] = a.Value.Any()
		return true
	})
	return m
}

func newTestSession() *WorkflowSession {
	return &WorkflowSession{
		Identifier: NewIdentifier("wf-test"),
		RenderKey:  "k",
		SessionID:  123,
	}
}

// fakeRenderContext records calls made on it.
type fakeRenderContext struct {
	sent     []AnyAction
	effects  []string
	children []string
}

func (f *fakeRenderContext) ActionSink() Sink[AnyAction] {
	return SinkFunc[AnyAction](func(a AnyAction) { f.sent = append(f.sent, a) })
}

func (f *fakeRenderContext) RenderChild(child AnyWorkflow, props any, key string, handler OutputHandler) any {
	f.children = append(f.children, key)
	return child.Identifier().Name + ":" + key
}

func (f *fakeRenderContext) RunningSideEffect(key string, effect SideEffect) {
	f.effects = append(f.effects, key)
}

//
// LoggingInterceptor
//

func TestNewLoggingInterceptor_NilLoggerUsesDefault(t *testing.T) {
	l := NewLoggingInterceptor(nil)
	if l.Logger == nil {
		t.Fatalf("expected non-nil Logger when created with nil")
	}
}

func TestLoggingInterceptor_SessionLifecycle(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoggingInterceptor(slog.New(h))
	session := newTestSession()

	scope, cancel := context.WithCancel(context.Background())
	l.OnSessionStarted(scope, session)
	cancel()

	deadline := time.Now().Add(time.Second)
	for len(h.snapshot()) < 2 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	recs := h.snapshot()
	if len(recs) != 2 {
		t.Fatalf("expected 2 log records, got %d", len(recs))
	}
	if recs[0].Message != "session_started" || recs[1].Message != "session_ended" {
		t.Fatalf("unexpected messages %q, %q", recs[0].Message, recs[1].Message)
	}
	attrs := attrsToMap(recs[0])
	if attrs["workflow"] != "wf-test" {
		t.Fatalf("expected workflow=wf-test, got %v", attrs["workflow"])
	}
	if attrs["session_id"] != int64(123) {
		t.Fatalf("expected session_id=123, got %v", attrs["session_id"])
	}
}

func TestLoggingInterceptor_RenderLogsActions(t *testing.T) {
	h := &recordingHandler{}
	l := NewLoggingInterceptor(slog.New(h))
	rc := &fakeRenderContext{}

	w := Intercept(Stateless("logged", func(_ string, ctx *RenderContext[string, struct{}, string]) string {
		ctx.Send(EmitOutput[string, struct{}]("ping", "out"))
		return "r"
	}), l, newTestSession())

	if got := w.Render("p", struct{}{}, rc); got != "r" {
		t.Fatalf("rendering=%v, want r", got)
	}
	if len(rc.sent) != 1 {
		t.Fatalf("expected 1 action forwarded, got %d", len(rc.sent))
	}

	var messages []string
	for _, r := range h.snapshot() {
		messages = append(messages, r.Message)
	}
	if len(messages) != 2 || messages[0] != "action_sent" || messages[1] != "render" {
		t.Fatalf("unexpected log messages %v", messages)
	}
}

func TestLoggingInterceptor_SideEffectLevelDependsOnError(t *testing.T) {
	ctx := context.Background()
	h := &recordingHandler{}
	l := NewLoggingInterceptor(slog.New(h))
	session := newTestSession()

	_ = l.OnSideEffectStarting(ctx, "ok", func(context.Context) error { return nil }, session)
	_ = l.OnSideEffectStarting(ctx, "cancelled", func(context.Context) error { return context.Canceled }, session)
	err := l.OnSideEffectStarting(ctx, "boom", func(context.Context) error { return errors.New("boom") }, session)
	if err == nil {
		t.Fatalf("expected error to be returned from proceed")
	}

	var completed []slog.Record
	for _, r := range h.snapshot() {
		if r.Message == "side_effect_completed" {
			completed = append(completed, r)
		}
	}
	if len(completed) != 3 {
		t.Fatalf("expected 3 side_effect_completed records, got %d", len(completed))
	}
	if completed[0].Level != slog.LevelDebug || completed[1].Level != slog.LevelDebug {
		t.Fatalf("expected debug level for success and cancellation")
	}
	if completed[2].Level != slog.LevelError {
		t.Fatalf("expected LevelError for failure, got %v", completed[2].Level)
	}
	if attrsToMap(completed[2])["side_effect"] != "boom" {
		t.Fatalf("expected side_effect=boom attribute")
	}
}

//
// BasicMetrics
//

func TestBasicMetrics_CountersAndSnapshot(t *testing.T) {
	m := &BasicMetrics{}
	session := newTestSession()

	scope1, cancel1 := context.WithCancel(context.Background())
	scope2, cancel2 := context.WithCancel(context.Background())
	defer cancel2()
	m.OnSessionStarted(scope1, session)
	m.OnSessionStarted(scope2, session)
	cancel1()

	w := Intercept(Stateless("counted", func(_ string, ctx *RenderContext[string, struct{}, string]) string {
		ctx.Send(EmitOutput[string, struct{}]("a", "x"))
		ctx.Send(EmitOutput[string, struct{}]("b", "y"))
		return "r"
	}), m, session)
	w.Render("p", struct{}{}, &fakeRenderContext{})

	_ = m.OnSideEffectStarting(context.Background(), "ok", func(context.Context) error { return nil }, session)
	_ = m.OnSideEffectStarting(context.Background(), "bad", func(context.Context) error { return errors.New("x") }, session)

	deadline := time.Now().Add(time.Second)
	for m.Snapshot().SessionsEnded == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}

	snap := m.Snapshot()
	if snap.SessionsStarted != 2 || snap.SessionsEnded != 1 || snap.ActiveSessions != 1 {
		t.Fatalf("unexpected session counters %+v", snap)
	}
	if snap.Renders != 1 {
		t.Fatalf("Renders=%d, want 1", snap.Renders)
	}
	if snap.ActionsSent != 2 {
		t.Fatalf("ActionsSent=%d, want 2", snap.ActionsSent)
	}
	if snap.SideEffectsStarted != 2 || snap.SideEffectsFailed != 1 {
		t.Fatalf("unexpected side effect counters %+v", snap)
	}
}

func TestBasicMetrics_SnapshotZeroRendersHasZeroAverage(t *testing.T) {
	var m BasicMetrics
	snap := m.Snapshot()
	if snap.Renders != 0 {
		t.Fatalf("Renders=%d, want 0", snap.Renders)
	}
	if snap.AvgRenderDuration != 0 {
		t.Fatalf("AvgRenderDuration=%v, want 0", snap.AvgRenderDuration)
	}
}

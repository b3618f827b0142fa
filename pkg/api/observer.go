package api

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"
)

// LoggingInterceptor writes structured logs using log/slog.
type LoggingInterceptor struct {
	NoopInterceptor

	Logger *slog.Logger
}

// NewLoggingInterceptor creates an interceptor that logs session lifecycle,
// render passes, actions and side effects using logger. If logger is nil,
// slog.Default() is used.
func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{Logger: logger}
}

func sessionAttrs(session *WorkflowSession) []any {
	return []any{
		slog.String("workflow", session.Identifier.Name),
		slog.String("key", session.RenderKey),
		slog.Int64("session_id", session.SessionID),
	}
}

func (l *LoggingInterceptor) OnSessionStarted(scope context.Context, session *WorkflowSession) {
	l.Logger.InfoContext(scope, "session_started", sessionAttrs(session)...)
	context.AfterFunc(scope, func() {
		l.Logger.Info("session_ended", sessionAttrs(session)...)
	})
}

func (l *LoggingInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, session *WorkflowSession) any {
	l.Logger.Debug("props_changed", sessionAttrs(session)...)
	return proceed(old, new, state)
}

func (l *LoggingInterceptor) OnRender(props, state any, _ BaseRenderContext, proceed RenderProceed, session *WorkflowSession) any {
	start := time.Now()
	rendering := proceed(props, state, &loggingRenderContextInterceptor{logger: l.Logger, session: session})
	l.Logger.Debug("render", append(sessionAttrs(session), slog.Duration("duration", time.Since(start)))...)
	return rendering
}

func (l *LoggingInterceptor) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *WorkflowSession) error {
	attrs := append(sessionAttrs(session), slog.String("side_effect", key))
	l.Logger.DebugContext(ctx, "side_effect_started", attrs...)
	err := proceed(ctx)
	level := slog.LevelDebug
	if err != nil && !errors.Is(err, context.Canceled) {
		level = slog.LevelError
	}
	l.Logger.Log(ctx, level, "side_effect_completed", append(attrs, slog.Any("error", err))...)
	return err
}

type loggingRenderContextInterceptor struct {
	NoopRenderContextInterceptor

	logger  *slog.Logger
	session *WorkflowSession
}

func (r *loggingRenderContextInterceptor) OnActionSent(action AnyAction, proceed func(AnyAction)) {
	r.logger.Debug("action_sent", append(sessionAttrs(r.session), slog.String("action", action.ActionName()))...)
	proceed(action)
}

// BasicMetrics collects simple counters and aggregate render durations.
// It can be combined with LoggingInterceptor via Chain.
type BasicMetrics struct {
	NoopInterceptor

	sessionsStarted    atomic.Int64
	sessionsEnded      atomic.Int64
	renders            atomic.Int64
	totalRenderNanos   atomic.Int64
	actionsSent        atomic.Int64
	sideEffectsStarted atomic.Int64
	sideEffectsFailed  atomic.Int64
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	SessionsStarted int64
	SessionsEnded   int64
	ActiveSessions  int64

	Renders           int64
	AvgRenderDuration time.Duration

	ActionsSent        int64
	SideEffectsStarted int64
	SideEffectsFailed  int64
}

func (m *BasicMetrics) OnSessionStarted(scope context.Context, _ *WorkflowSession) {
	m.sessionsStarted.Add(1)
	context.AfterFunc(scope, func() {
		m.sessionsEnded.Add(1)
	})
}

func (m *BasicMetrics) OnRender(props, state any, _ BaseRenderContext, proceed RenderProceed, _ *WorkflowSession) any {
	start := time.Now()
	rendering := proceed(props, state, metricsRenderContextInterceptor{m: m})
	m.renders.Add(1)
	m.totalRenderNanos.Add(time.Since(start).Nanoseconds())
	return rendering
}

func (m *BasicMetrics) OnSideEffectStarting(ctx context.Context, _ string, proceed func(context.Context) error, _ *WorkflowSession) error {
	m.sideEffectsStarted.Add(1)
	err := proceed(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		m.sideEffectsFailed.Add(1)
	}
	return err
}

type metricsRenderContextInterceptor struct {
	NoopRenderContextInterceptor

	m *BasicMetrics
}

func (r metricsRenderContextInterceptor) OnActionSent(action AnyAction, proceed func(AnyAction)) {
	r.m.actionsSent.Add(1)
	proceed(action)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.sessionsStarted.Load()
	ended := m.sessionsEnded.Load()
	renders := m.renders.Load()
	totalNs := m.totalRenderNanos.Load()

	var avg time.Duration
	if renders > 0 {
		avg = time.Duration(totalNs / renders)
	}

	return BasicMetricsSnapshot{
		SessionsStarted:    started,
		SessionsEnded:      ended,
		ActiveSessions:     started - ended,
		Renders:            renders,
		AvgRenderDuration:  avg,
		ActionsSent:        m.actionsSent.Load(),
		SideEffectsStarted: m.sideEffectsStarted.Load(),
		SideEffectsFailed:  m.sideEffectsFailed.Load(),
	}
}

// Package tracing records workflow sessions, render passes and side effects
// as OpenTelemetry spans.
package tracing

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/petrijr/flowtree/pkg/api"
)

const instrumentationName = "github.com/petrijr/flowtree"

// Interceptor opens one span per session that lives until the session ends,
// and child spans for every render call and side-effect run. Child session
// spans are parented to their parent session's span.
type Interceptor struct {
	api.NoopInterceptor

	tracer trace.Tracer

	mu       sync.Mutex
	sessions map[int64]context.Context
}

var _ api.WorkflowInterceptor = (*Interceptor)(nil)

// NewInterceptor returns an Interceptor using tp. A nil tp uses the global
// provider.
func NewInterceptor(tp trace.TracerProvider) *Interceptor {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Interceptor{
		tracer:   tp.Tracer(instrumentationName),
		sessions: map[int64]context.Context{},
	}
}

func sessionAttrs(session *api.WorkflowSession) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("flowtree.workflow", session.Identifier.Name),
		attribute.String("flowtree.key", session.RenderKey),
		attribute.Int64("flowtree.session_id", session.SessionID),
		attribute.String("flowtree.runtime_id", session.RuntimeID),
	}
}

func (i *Interceptor) sessionContext(session *api.WorkflowSession) context.Context {
	i.mu.Lock()
	defer i.mu.Unlock()
	if ctx, ok := i.sessions[session.SessionID]; ok {
		return ctx
	}
	return context.Background()
}

func (i *Interceptor) OnSessionStarted(scope context.Context, session *api.WorkflowSession) {
	parent := context.Background()
	if session.Parent != nil {
		parent = i.sessionContext(session.Parent)
	}
	ctx, span := i.tracer.Start(parent, "session "+session.Identifier.Name,
		trace.WithAttributes(sessionAttrs(session)...))

	i.mu.Lock()
	i.sessions[session.SessionID] = ctx
	i.mu.Unlock()

	context.AfterFunc(scope, func() {
		i.mu.Lock()
		delete(i.sessions, session.SessionID)
		i.mu.Unlock()
		span.End()
	})
}

func (i *Interceptor) OnRender(props, state any, _ api.BaseRenderContext, proceed api.RenderProceed, session *api.WorkflowSession) any {
	_, span := i.tracer.Start(i.sessionContext(session), "render "+session.Identifier.Name,
		trace.WithAttributes(sessionAttrs(session)...))
	defer span.End()
	return proceed(props, state, &actionEvents{span: span})
}

// OnSideEffectStarting puts the side-effect span into ctx, so effects can
// parent their own spans to it.
func (i *Interceptor) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *api.WorkflowSession) error {
	parent := trace.SpanContextFromContext(i.sessionContext(session))
	_, span := i.tracer.Start(trace.ContextWithSpanContext(context.Background(), parent), "side_effect "+key,
		trace.WithAttributes(append(sessionAttrs(session), attribute.String("flowtree.side_effect", key))...))
	defer span.End()

	err := proceed(trace.ContextWithSpan(ctx, span))
	switch {
	case err == nil:
		span.SetStatus(codes.Ok, "")
	case errors.Is(err, context.Canceled):
		span.SetStatus(codes.Unset, "cancelled")
	default:
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

type actionEvents struct {
	api.NoopRenderContextInterceptor
	span trace.Span
}

// OnActionSent adds an event to the render span for sends made while the
// render is running. Later sends from event handlers are not recorded since
// the span has ended.
func (a *actionEvents) OnActionSent(action api.AnyAction, proceed func(api.AnyAction)) {
	if a.span.IsRecording() {
		a.span.AddEvent("action.sent", trace.WithAttributes(attribute.String("flowtree.action", action.ActionName())))
	}
	proceed(action)
}

var (
	providerOnce sync.Once
	provider     *sdktrace.TracerProvider
	providerErr  error
)

// InitStdout installs a global tracer provider that writes spans as JSON to
// w, or to os.Stdout when w is nil. Only the first call has an effect; later
// calls return the same provider.
func InitStdout(serviceName, serviceVersion string, w io.Writer) (*sdktrace.TracerProvider, error) {
	providerOnce.Do(func() {
		if w == nil {
			w = os.Stdout
		}
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
		if err != nil {
			providerErr = err
			return
		}
		res, err := resource.New(context.Background(),
			resource.WithAttributes(
				attribute.String("service.name", serviceName),
				attribute.String("service.version", serviceVersion),
			),
		)
		if err != nil {
			providerErr = err
			return
		}
		provider = sdktrace.NewTracerProvider(
			sdktrace.WithSpanProcessor(sdktrace.NewSimpleSpanProcessor(exporter)),
			sdktrace.WithResource(res),
		)
		otel.SetTracerProvider(provider)
	})
	return provider, providerErr
}

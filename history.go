package flowtree

import (
	"context"
	"log/slog"

	"github.com/petrijr/flowtree/pkg/api"
)

// HistoryInterceptor appends an api.Event for session lifecycle, props
// changes, actions and side effects to an EventStore. Store errors are
// logged and otherwise ignored.
type HistoryInterceptor struct {
	api.NoopInterceptor

	store  EventStore
	logger *slog.Logger
}

var _ api.WorkflowInterceptor = (*HistoryInterceptor)(nil)

// NewHistoryInterceptor returns a HistoryInterceptor writing to store. If
// logger is nil, slog.Default() is used.
func NewHistoryInterceptor(store EventStore, logger *slog.Logger) *HistoryInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HistoryInterceptor{store: store, logger: logger}
}

func (h *HistoryInterceptor) log() *slog.Logger {
	if h.logger == nil {
		return slog.Default()
	}
	return h.logger
}

func (h *HistoryInterceptor) append(ev api.Event) {
	if err := h.store.AppendEvent(context.Background(), ev); err != nil {
		h.log().Error("history_append_failed",
			slog.String("type", string(ev.Type)),
			slog.String("runtime_id", ev.RuntimeID),
			slog.Any("error", err),
		)
	}
}

func (h *HistoryInterceptor) OnSessionStarted(scope context.Context, session *api.WorkflowSession) {
	h.append(api.NewEvent(api.EventSessionStarted, session, session.RenderKey, session.Path()))
	context.AfterFunc(scope, func() {
		h.append(api.NewEvent(api.EventSessionEnded, session, session.RenderKey, session.Path()))
	})
}

func (h *HistoryInterceptor) OnInitialState(props any, snapshot api.Snapshot, proceed func(any, api.Snapshot) any, session *api.WorkflowSession) any {
	detail := "fresh"
	if snapshot != nil {
		detail = "restored"
	}
	h.append(api.NewEvent(api.EventInitialState, session, "", detail))
	return proceed(props, snapshot)
}

func (h *HistoryInterceptor) OnPropsChanged(old, new, state any, proceed func(any, any, any) any, session *api.WorkflowSession) any {
	h.append(api.NewEvent(api.EventPropsChanged, session, "", ""))
	return proceed(old, new, state)
}

func (h *HistoryInterceptor) OnRender(props, state any, _ api.BaseRenderContext, proceed api.RenderProceed, session *api.WorkflowSession) any {
	return proceed(props, state, &historyRenderContextInterceptor{h: h, session: session})
}

func (h *HistoryInterceptor) OnSideEffectStarting(ctx context.Context, key string, proceed func(context.Context) error, session *api.WorkflowSession) error {
	h.append(api.NewEvent(api.EventSideEffectStarted, session, key, ""))
	err := proceed(ctx)
	detail := "ok"
	if err != nil {
		detail = err.Error()
	}
	h.append(api.NewEvent(api.EventSideEffectEnded, session, key, detail))
	return err
}

type historyRenderContextInterceptor struct {
	api.NoopRenderContextInterceptor
	h       *HistoryInterceptor
	session *api.WorkflowSession
}

func (c *historyRenderContextInterceptor) OnActionSent(action api.AnyAction, proceed func(api.AnyAction)) {
	c.h.append(api.NewEvent(api.EventActionSent, c.session, "", action.ActionName()))
	proceed(action)
}

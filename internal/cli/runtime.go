package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petrijr/flowtree"
	"github.com/petrijr/flowtree/internal/demo"
	"github.com/petrijr/flowtree/internal/inbox"
)

// awaitTimeout bounds how long a command waits for a rendering.
const awaitTimeout = 5 * time.Second

// session is a started runtime and the stores it writes to.
type session struct {
	name   string
	rt     *flowtree.Runtime
	inbox  inbox.Inbox
	logger *slog.Logger
	close  func() error
}

// startSession starts the registered workflow named by cfg.
func startSession(ctx context.Context, cfg Config, logger *slog.Logger, interceptors ...flowtree.WorkflowInterceptor) (*session, error) {
	name := cfg.Workflow
	if name == "" {
		name = demo.DefaultWorkflow
	}
	entry, err := demo.NewRegistry().Get(name)
	if err != nil {
		return nil, err
	}

	st, err := openStores(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	key := cfg.Store.Key
	if key == "" {
		key = entry.Name
	}

	opts := []flowtree.Option{
		flowtree.WithLogger(logger),
		flowtree.WithInterceptors(flowtree.NewLoggingInterceptor(logger)),
		flowtree.WithInterceptors(interceptors...),
		flowtree.WithOutputHandler(func(output any) {
			logger.Info("workflow_output", slog.String("workflow", entry.Name), slog.Any("output", output))
		}),
	}
	if cfg.RuntimeID != "" {
		opts = append(opts, flowtree.WithRuntimeID(cfg.RuntimeID))
	}
	opts = append(opts, st.bundle.Options(key)...)

	rt, err := flowtree.RunAny(ctx, entry.Workflow, entry.Props, opts...)
	if err != nil {
		st.close()
		return nil, fmt.Errorf("start %s: %w", entry.Name, err)
	}
	logger.Info("runtime_started", slog.String("workflow", entry.Name), slog.String("runtime_id", rt.ID()), slog.String("store", cfg.Store.Kind))

	return &session{
		name:   entry.Name,
		rt:     rt,
		inbox:  st.inbox,
		logger: logger,
		close: func() error {
			return errors.Join(rt.Close(), st.close())
		},
	}, nil
}

// send dispatches an event on the current rendering and returns the
// rendering once the runtime has applied it. A concurrent pass, such as a
// clock tick, may be folded into the returned rendering.
func (s *session) send(name, arg string) (any, error) {
	if err := demo.Dispatch(s.rt.Current().Rendering, name, arg); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), awaitTimeout)
	defer cancel()
	rs, err := s.rt.Sync(ctx)
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("no rendering within %s after %s", awaitTimeout, name)
	}
	if err != nil {
		return nil, fmt.Errorf("runtime stopped: %w", err)
	}
	return rs.Rendering, nil
}

// deliver dispatches an inbox event on the current rendering.
func deliver(rt *flowtree.Runtime) func(inbox.Event) error {
	return func(ev inbox.Event) error {
		return demo.Dispatch(rt.Current().Rendering, ev.Name, ev.Arg)
	}
}

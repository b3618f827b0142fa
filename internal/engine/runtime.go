package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/petrijr/flowtree/internal/persistence"
	"github.com/petrijr/flowtree/pkg/api"
)

// Config describes how to construct a Runtime.
// External callers use the functional options of the flowtree package.
type Config struct {
	// Interceptors wrap every session, composed with api.Chain.
	Interceptors []api.WorkflowInterceptor

	// Logger receives runtime diagnostics. nil discards them.
	Logger *slog.Logger

	// Snapshot restores the tree from a previous run. It takes precedence
	// over a snapshot loaded from Store.
	Snapshot *api.TreeSnapshot

	// Store, when set, is read on start and written after every render pass
	// under StoreKey.
	Store    persistence.SnapshotStore
	StoreKey string

	// OnOutput receives outputs emitted by the root workflow. It runs on the
	// runtime goroutine and must not block.
	OnOutput func(output any)

	// RuntimeID overrides the generated runtime id.
	RuntimeID string
}

// Runtime drives one workflow tree. A single goroutine owns every session of
// the tree: it applies queued actions one at a time and re-renders the tree
// after each of them.
type Runtime struct {
	id          string
	logger      *slog.Logger
	interceptor api.WorkflowInterceptor
	store       persistence.SnapshotStore
	storeKey    string
	onOutput    func(any)

	ctx    context.Context
	cancel context.CancelCauseFunc

	root      *node
	rootProps any
	queue     *actionQueue
	props     chan any

	mu      sync.RWMutex
	current api.RenderingAndSnapshot
	updates chan api.RenderingAndSnapshot

	effects sync.WaitGroup
	done    chan struct{}
}

// Start creates the root session of w with props, renders the tree once and
// starts the runtime goroutine. The first render pass runs on the caller's
// goroutine, so a workflow that fails immediately is reported here.
//
// The runtime stops when ctx is cancelled, when Close is called, or when a
// workflow or side effect fails; see Err.
func Start(ctx context.Context, w api.AnyWorkflow, props any, cfg Config) (*Runtime, error) {
	if w == nil {
		return nil, errors.New("root workflow is required")
	}
	if cfg.Store != nil && cfg.StoreKey == "" {
		return nil, errors.New("snapshot store key is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	id := cfg.RuntimeID
	if id == "" {
		id = uuid.NewString()
	}

	snap := cfg.Snapshot
	if snap == nil && cfg.Store != nil {
		loaded, err := cfg.Store.Load(ctx, cfg.StoreKey)
		switch {
		case err == nil:
			snap = &loaded
		case errors.Is(err, persistence.ErrSnapshotNotFound):
		default:
			return nil, fmt.Errorf("load snapshot %q: %w", cfg.StoreKey, err)
		}
	}

	rt := &Runtime{
		id:          id,
		logger:      logger.With(slog.String("runtime_id", id)),
		interceptor: api.Chain(cfg.Interceptors...),
		store:       cfg.Store,
		storeKey:    cfg.StoreKey,
		onOutput:    cfg.OnOutput,
		rootProps:   props,
		queue:       newActionQueue(),
		props:       make(chan any, 1),
		updates:     make(chan api.RenderingAndSnapshot, 1),
		done:        make(chan struct{}),
	}
	rt.ctx, rt.cancel = context.WithCancelCause(ctx)

	err := rt.pass(func() {
		rt.root = newNode(rt, nil, w, props, "", nil, snap)
	})
	if err != nil {
		rt.cancel(err)
		rt.effects.Wait()
		close(rt.done)
		return nil, err
	}

	rt.logger.Info("runtime_started", slog.String("workflow", w.Identifier().Name))
	go rt.loop()
	return rt, nil
}

// ID returns the runtime id, also carried by every session.
func (rt *Runtime) ID() string {
	return rt.id
}

func (rt *Runtime) loop() {
	defer close(rt.done)
	defer rt.effects.Wait()

	for {
		var mutate func()
		select {
		case <-rt.ctx.Done():
			rt.logger.Info("runtime_stopped", slog.Any("cause", context.Cause(rt.ctx)))
			return
		case p := <-rt.props:
			mutate = func() {
				rt.rootProps = p
				rt.root.update(nil, p, nil)
			}
		case <-rt.queue.Ready():
			qa, ok := rt.queue.Pop()
			if !ok {
				continue
			}
			if qa.reached != nil {
				close(qa.reached)
				continue
			}
			if !qa.node.alive() {
				rt.logger.Debug("action_dropped",
					slog.String("action", qa.action.ActionName()),
					slog.String("path", qa.node.session.Path()),
				)
				continue
			}
			mutate = func() {
				qa.node.apply(qa.action)
			}
		}

		if err := rt.pass(mutate); err != nil {
			rt.fail(err)
			return
		}
	}
}

// pass runs mutate, renders the tree, saves the snapshot and publishes the
// result. Panics raised
// by workflows or interceptors are turned into errors.
func (rt *Runtime) pass(mutate func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = api.PanicError(r)
		}
	}()

	if mutate != nil {
		mutate()
	}
	if rt.ctx.Err() != nil {
		return nil
	}
	rendering := rt.root.render()
	snap := rt.root.snapshot()
	rt.save(snap)
	rt.publish(api.RenderingAndSnapshot{Rendering: rendering, Snapshot: snap})
	return nil
}

func (rt *Runtime) publish(rs api.RenderingAndSnapshot) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.current = rs

	select {
	case <-rt.updates:
	default:
	}
	rt.updates <- rs
}

func (rt *Runtime) save(snap api.TreeSnapshot) {
	if rt.store == nil {
		return
	}
	if err := rt.store.Save(context.WithoutCancel(rt.ctx), rt.storeKey, snap); err != nil {
		rt.logger.Error("snapshot_save_failed", slog.String("key", rt.storeKey), slog.Any("error", err))
	}
}

func (rt *Runtime) fail(err error) {
	if rt.ctx.Err() != nil {
		return
	}
	rt.logger.Error("runtime_failed", slog.Any("error", err))
	rt.cancel(err)
}

// Current returns the latest rendering and snapshot.
func (rt *Runtime) Current() api.RenderingAndSnapshot {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.current
}

// Renderings delivers the result of render passes. Slow readers only see the
// latest one.
func (rt *Runtime) Renderings() <-chan api.RenderingAndSnapshot {
	return rt.updates
}

// Snapshot returns the snapshot of the latest render pass.
func (rt *Runtime) Snapshot() api.TreeSnapshot {
	return rt.Current().Snapshot
}

// SetProps replaces the props of the root workflow. Only the latest props
// are kept if the runtime has not consumed earlier ones yet.
func (rt *Runtime) SetProps(props any) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	select {
	case <-rt.props:
	default:
	}
	rt.props <- props
}

// Send enqueues an action for the root workflow.
func (rt *Runtime) Send(action api.AnyAction) {
	if action == nil {
		return
	}
	rt.queue.Enqueue(queuedAction{node: rt.root, action: action})
}

// Sync waits until every action enqueued before the call has been applied
// and returns the rendering current at that point. Passes triggered by other
// goroutines in between may be folded into it.
func (rt *Runtime) Sync(ctx context.Context) (api.RenderingAndSnapshot, error) {
	reached := make(chan struct{})
	rt.queue.Enqueue(queuedAction{reached: reached})

	select {
	case <-reached:
		return rt.Current(), nil
	case <-rt.done:
		if err := rt.Err(); err != nil {
			return api.RenderingAndSnapshot{}, err
		}
		return api.RenderingAndSnapshot{}, api.ErrRuntimeClosed
	case <-ctx.Done():
		return api.RenderingAndSnapshot{}, ctx.Err()
	}
}

// Done is closed once the runtime goroutine and all side effects returned.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}

// Err returns why the runtime stopped. It is nil while running and after a
// regular Close.
func (rt *Runtime) Err() error {
	select {
	case <-rt.done:
	default:
		return nil
	}
	cause := context.Cause(rt.ctx)
	if errors.Is(cause, api.ErrRuntimeClosed) {
		return nil
	}
	return cause
}

// Close stops the runtime, cancelling every session and side effect, and
// waits for them to return.
func (rt *Runtime) Close() error {
	rt.cancel(api.ErrRuntimeClosed)
	<-rt.done
	return rt.Err()
}

package flowtree

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/petrijr/flowtree/internal/persistence"
)

// LocalRunner bundles an in-memory snapshot store and one runtime for
// development and tests. Restart closes the runtime and starts a new one
// from the last saved snapshot, which simulates the process dying and
// coming back.
//
// Typical usage:
//
//	runner := flowtree.NewLocalRunner(todoList, props)
//	rt, _ := runner.Start(ctx)
//	...
//	rt, _ = runner.Restart(ctx) // state survives, side effects restart
//	runner.Stop()
type LocalRunner struct {
	// Store keeps the snapshots and history of every runtime of the runner.
	Store *persistence.InMemoryStore

	// Key is the snapshot key the runner saves under.
	Key string

	workflow AnyWorkflow
	props    any
	opts     []Option
	logger   *slog.Logger

	mu      sync.Mutex
	runtime *Runtime
}

// NewLocalRunner constructs a LocalRunner for w with props. opts are applied
// to every runtime the runner starts, before the runner's own store option.
func NewLocalRunner(w AnyWorkflow, props any, opts ...Option) *LocalRunner {
	logger := buildConfig(opts).Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalRunner{
		logger:   logger,
		Store:    persistence.NewInMemoryStore(),
		Key:      w.Identifier().Name,
		workflow: w,
		props:    props,
		opts:     opts,
	}
}

// Start starts the runtime. It returns an error if one is already running.
func (r *LocalRunner) Start(ctx context.Context) (*Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runtime != nil {
		return nil, errors.New("flowtree: LocalRunner already started")
	}
	return r.startLocked(ctx)
}

func (r *LocalRunner) startLocked(ctx context.Context) (*Runtime, error) {
	opts := append([]Option(nil), r.opts...)
	opts = append(opts, WithSnapshotStore(r.Store, r.Key), WithEventStore(r.Store))

	rt, err := RunAny(ctx, r.workflow, r.props, opts...)
	if err != nil {
		return nil, err
	}
	r.runtime = rt
	return rt, nil
}

// Runtime returns the current runtime, or nil when stopped.
func (r *LocalRunner) Runtime() *Runtime {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runtime
}

// Restart stops the current runtime, if any, and starts a new one that
// resumes from the last saved snapshot. A failure of the stopped runtime is
// logged, since recovering from it is what Restart is for.
func (r *LocalRunner) Restart(ctx context.Context) (*Runtime, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.runtime != nil {
		if err := r.runtime.Close(); err != nil {
			r.logger.Warn("restart_previous_runtime_failed",
				slog.String("runtime_id", r.runtime.ID()),
				slog.String("key", r.Key),
				slog.Any("error", err),
			)
		}
		r.runtime = nil
	}
	return r.startLocked(ctx)
}

// Stop closes the current runtime and returns its error.
func (r *LocalRunner) Stop() error {
	r.mu.Lock()
	rt := r.runtime
	r.runtime = nil
	r.mu.Unlock()

	if rt == nil {
		return nil
	}
	return rt.Close()
}

// Reset stops the runner and forgets the saved snapshot.
func (r *LocalRunner) Reset(ctx context.Context) error {
	err := r.Stop()
	if derr := r.Store.Delete(ctx, r.Key); derr != nil {
		err = errors.Join(err, derr)
	}
	return err
}

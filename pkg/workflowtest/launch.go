package workflowtest

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/petrijr/flowtree/internal/engine"
	"github.com/petrijr/flowtree/pkg/api"
)

// DefaultTimeout bounds every Await call of a Tester.
const DefaultTimeout = 5 * time.Second

type launchConfig struct {
	interceptors []api.WorkflowInterceptor
	checker      bool
	compare      func(first, replay any) bool
	snapshot     *api.TreeSnapshot
	timeout      time.Duration
	logger       *slog.Logger
}

// Option configures Launch.
type Option func(*launchConfig)

// WithInterceptors adds interceptors after the idempotency checker.
func WithInterceptors(interceptors ...api.WorkflowInterceptor) Option {
	return func(c *launchConfig) {
		c.interceptors = append(c.interceptors, interceptors...)
	}
}

// WithoutIdempotencyCheck disables the RenderIdempotencyChecker that Launch
// installs by default.
func WithoutIdempotencyCheck() Option {
	return func(c *launchConfig) {
		c.checker = false
	}
}

// WithRenderingComparer makes the idempotency checker compare both
// renderings of every pass.
func WithRenderingComparer(compare func(first, replay any) bool) Option {
	return func(c *launchConfig) {
		c.compare = compare
	}
}

// WithSnapshot restores the tree from snap.
func WithSnapshot(snap api.TreeSnapshot) Option {
	return func(c *launchConfig) {
		c.snapshot = &snap
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *launchConfig) {
		c.timeout = d
	}
}

// WithLogger sends runtime diagnostics to logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *launchConfig) {
		c.logger = logger
	}
}

// Tester drives a workflow tree in a test. It is created by Launch and torn
// down automatically when the test ends.
type Tester[P, O, R any] struct {
	t       testing.TB
	rt      *engine.Runtime
	timeout time.Duration

	mu      sync.Mutex
	outputs []O
	notify  chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// Launch starts a runtime for w with props. The render idempotency checker
// is installed unless WithoutIdempotencyCheck is given. The runtime is
// closed on test cleanup, and the test fails if it stopped with an error.
func Launch[P, O, R any](t testing.TB, w api.Workflow[P, O, R], props P, opts ...Option) *Tester[P, O, R] {
	t.Helper()

	cfg := launchConfig{checker: true, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	var interceptors []api.WorkflowInterceptor
	if cfg.checker {
		interceptors = append(interceptors, &RenderIdempotencyChecker{Compare: cfg.compare})
	}
	interceptors = append(interceptors, cfg.interceptors...)

	tester := &Tester[P, O, R]{
		t:       t,
		timeout: cfg.timeout,
		notify:  make(chan struct{}, 1),
	}

	rt, err := engine.Start(context.Background(), w, props, engine.Config{
		Interceptors: interceptors,
		Logger:       cfg.logger,
		Snapshot:     cfg.snapshot,
		OnOutput:     tester.pushOutput,
	})
	if err != nil {
		t.Fatalf("workflowtest: start runtime: %v", err)
	}
	tester.rt = rt

	t.Cleanup(func() {
		closed := false
		tester.closeOnce.Do(func() {
			closed = true
			tester.closeErr = rt.Close()
		})
		if closed && tester.closeErr != nil {
			t.Errorf("workflowtest: runtime failed: %v", tester.closeErr)
		}
	})
	return tester
}

func (tt *Tester[P, O, R]) pushOutput(output any) {
	var o O
	if output != nil {
		o = output.(O)
	}
	tt.mu.Lock()
	tt.outputs = append(tt.outputs, o)
	tt.mu.Unlock()

	select {
	case tt.notify <- struct{}{}:
	default:
	}
}

// Runtime exposes the underlying runtime.
func (tt *Tester[P, O, R]) Runtime() *engine.Runtime {
	return tt.rt
}

// Current returns the latest rendering without waiting.
func (tt *Tester[P, O, R]) Current() R {
	return castRendering[R](tt.rt.Current().Rendering)
}

// AwaitNextRendering returns the next published rendering. The rendering of
// the first pass is published by Launch, so the first call returns it.
func (tt *Tester[P, O, R]) AwaitNextRendering() R {
	tt.t.Helper()
	rs, ok := tt.awaitUpdate()
	if !ok {
		tt.t.Fatalf("workflowtest: no rendering within %s", tt.timeout)
	}
	return castRendering[R](rs.Rendering)
}

// AwaitRendering waits until a rendering satisfies match and returns it.
func (tt *Tester[P, O, R]) AwaitRendering(match func(R) bool) R {
	tt.t.Helper()
	deadline := time.Now().Add(tt.timeout)
	if r := tt.Current(); match(r) {
		return r
	}
	for time.Now().Before(deadline) {
		rs, ok := tt.awaitUpdateUntil(deadline)
		if !ok {
			break
		}
		if r := castRendering[R](rs.Rendering); match(r) {
			return r
		}
	}
	tt.t.Fatalf("workflowtest: no matching rendering within %s", tt.timeout)
	var zero R
	return zero
}

// AwaitNextOutput returns the oldest root output not returned yet.
func (tt *Tester[P, O, R]) AwaitNextOutput() O {
	tt.t.Helper()
	timer := time.NewTimer(tt.timeout)
	defer timer.Stop()

	for {
		tt.mu.Lock()
		if len(tt.outputs) > 0 {
			o := tt.outputs[0]
			tt.outputs = tt.outputs[1:]
			tt.mu.Unlock()
			return o
		}
		tt.mu.Unlock()

		select {
		case <-tt.notify:
		case <-tt.rt.Done():
			tt.t.Fatalf("workflowtest: runtime stopped while waiting for output: %v", tt.rt.Err())
		case <-timer.C:
			tt.t.Fatalf("workflowtest: no output within %s", tt.timeout)
		}
	}
}

// Outputs returns the root outputs not consumed by AwaitNextOutput.
func (tt *Tester[P, O, R]) Outputs() []O {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return append([]O(nil), tt.outputs...)
}

// SetProps changes the props of the root workflow.
func (tt *Tester[P, O, R]) SetProps(props P) {
	tt.rt.SetProps(props)
}

// Snapshot returns the snapshot of the latest render pass.
func (tt *Tester[P, O, R]) Snapshot() api.TreeSnapshot {
	return tt.rt.Snapshot()
}

// Close stops the runtime early and returns its error. The error is then
// owned by the caller and no longer fails the test on cleanup.
func (tt *Tester[P, O, R]) Close() error {
	tt.closeOnce.Do(func() {
		tt.closeErr = tt.rt.Close()
	})
	return tt.closeErr
}

func (tt *Tester[P, O, R]) awaitUpdate() (api.RenderingAndSnapshot, bool) {
	return tt.awaitUpdateUntil(time.Now().Add(tt.timeout))
}

func (tt *Tester[P, O, R]) awaitUpdateUntil(deadline time.Time) (api.RenderingAndSnapshot, bool) {
	select {
	case rs := <-tt.rt.Renderings():
		return rs, true
	default:
	}

	timer := time.NewTimer(time.Until(deadline))
	defer timer.Stop()

	select {
	case rs := <-tt.rt.Renderings():
		return rs, true
	case <-tt.rt.Done():
		tt.t.Fatalf("workflowtest: runtime stopped: %v", tt.rt.Err())
	case <-timer.C:
	}
	return api.RenderingAndSnapshot{}, false
}

func castRendering[R any](v any) R {
	if v == nil {
		var zero R
		return zero
	}
	return v.(R)
}

package flowtree

import (
	"log/slog"

	"github.com/petrijr/flowtree/internal/engine"
	"github.com/petrijr/flowtree/pkg/api"
)

// Option configures a runtime started with Run.
type Option func(*engine.Config)

func buildConfig(opts []Option) engine.Config {
	var cfg engine.Config
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	// WithEventStore may come before WithLogger.
	for _, i := range cfg.Interceptors {
		if h, ok := i.(*HistoryInterceptor); ok && h.logger == nil {
			h.logger = cfg.Logger
		}
	}
	return cfg
}

// WithInterceptors appends interceptors to the chain wrapping every session.
// The first interceptor is the outermost.
func WithInterceptors(interceptors ...api.WorkflowInterceptor) Option {
	return func(c *engine.Config) {
		c.Interceptors = append(c.Interceptors, interceptors...)
	}
}

// WithLogger sets the logger for runtime diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *engine.Config) {
		c.Logger = logger
	}
}

// WithSnapshot restores the tree from snap on start.
func WithSnapshot(snap api.TreeSnapshot) Option {
	return func(c *engine.Config) {
		c.Snapshot = &snap
	}
}

// WithSnapshotStore restores the tree from store on start, if key was saved
// before, and saves the snapshot under key after every render pass.
func WithSnapshotStore(store SnapshotStore, key string) Option {
	return func(c *engine.Config) {
		c.Store = store
		c.StoreKey = key
	}
}

// WithOutputHandler receives outputs of the root workflow on the runtime
// goroutine. fn must not block.
func WithOutputHandler(fn func(output any)) Option {
	return func(c *engine.Config) {
		c.OnOutput = fn
	}
}

// WithRuntimeID sets the runtime id instead of generating one.
func WithRuntimeID(id string) Option {
	return func(c *engine.Config) {
		c.RuntimeID = id
	}
}

// WithEventStore appends a HistoryInterceptor writing to store. Its errors
// go to the runtime logger, or slog.Default() when none is set.
func WithEventStore(store EventStore) Option {
	return func(c *engine.Config) {
		c.Interceptors = append(c.Interceptors, &HistoryInterceptor{store: store})
	}
}

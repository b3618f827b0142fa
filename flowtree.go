package flowtree

import (
	"context"
	"database/sql"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/petrijr/flowtree/internal/engine"
	"github.com/petrijr/flowtree/internal/persistence"
	"github.com/petrijr/flowtree/pkg/api"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	AnyWorkflow              = api.AnyWorkflow
	AnyAction                = api.AnyAction
	WorkflowIdentifier       = api.WorkflowIdentifier
	WorkflowSession          = api.WorkflowSession
	Snapshot                 = api.Snapshot
	TreeSnapshot             = api.TreeSnapshot
	RenderingAndSnapshot     = api.RenderingAndSnapshot
	SideEffect               = api.SideEffect
	WorkflowInterceptor      = api.WorkflowInterceptor
	RenderContextInterceptor = api.RenderContextInterceptor
	NoopInterceptor          = api.NoopInterceptor
	LoggingInterceptor       = api.LoggingInterceptor
	BasicMetrics             = api.BasicMetrics
	BasicMetricsSnapshot     = api.BasicMetricsSnapshot
	Event                    = api.Event
	IllegalStateError        = api.IllegalStateError

	// Runtime drives one workflow tree; see Run.
	Runtime = engine.Runtime

	SnapshotStore = persistence.SnapshotStore
	EventStore    = persistence.EventStore
)

// Generic aliases.

type (
	Workflow[P, O, R any]            = api.Workflow[P, O, R]
	StatefulWorkflow[P, S, O, R any] = api.StatefulWorkflow[P, S, O, R]
	RenderContext[P, S, O any]       = api.RenderContext[P, S, O]
	Action[P, S, O any]              = api.Action[P, S, O]
	Updater[P, S, O any]             = api.Updater[P, S, O]
	Worker[T any]                    = api.Worker[T]
)

// Re-export common interceptor helpers.

var (
	Chain                  = api.Chain
	NewLoggingInterceptor  = api.NewLoggingInterceptor
	SnapshotOf             = api.SnapshotOf
	IsIllegalState         = api.IsIllegalState
	ErrRuntimeClosed       = api.ErrRuntimeClosed
	ErrSnapshotNotFound    = persistence.ErrSnapshotNotFound
	Noop                   = api.Noop
	InterceptRenderContext = api.InterceptRenderContext
)

// Run starts a runtime for w with props. The first render pass runs before
// Run returns; use Runtime.Renderings or Runtime.Current to read renderings.
func Run[P, O, R any](ctx context.Context, w Workflow[P, O, R], props P, opts ...Option) (*Runtime, error) {
	return engine.Start(ctx, w, props, buildConfig(opts))
}

// RunAny is Run for type-erased workflows, used by registries and the CLI.
func RunAny(ctx context.Context, w AnyWorkflow, props any, opts ...Option) (*Runtime, error) {
	return engine.Start(ctx, w, props, buildConfig(opts))
}

// Store constructors.
// These wrap the internal/persistence package so external callers
// never need to import internal packages.

// NewInMemoryStore returns a SnapshotStore and EventStore kept in memory.
func NewInMemoryStore() *persistence.InMemoryStore {
	return persistence.NewInMemoryStore()
}

// NewSQLiteSnapshotStore returns a SnapshotStore persisted in a SQLite
// database. The caller imports the driver, e.g. modernc.org/sqlite.
func NewSQLiteSnapshotStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewSQLiteSnapshotStore(db)
}

// NewSQLiteEventStore returns an EventStore persisted in a SQLite database.
func NewSQLiteEventStore(db *sql.DB) (EventStore, error) {
	return persistence.NewSQLiteEventStore(db)
}

// NewPostgresSnapshotStore returns a SnapshotStore persisted in PostgreSQL.
// The caller imports the driver, e.g. github.com/jackc/pgx/v5/stdlib.
func NewPostgresSnapshotStore(db *sql.DB) (SnapshotStore, error) {
	return persistence.NewPostgresSnapshotStore(db)
}

// NewRedisSnapshotStore returns a SnapshotStore and EventStore in Redis.
func NewRedisSnapshotStore(client *redis.Client, prefix string) *persistence.RedisSnapshotStore {
	return persistence.NewRedisSnapshotStore(client, prefix)
}

// NewMongoSnapshotStore returns a SnapshotStore persisted in MongoDB.
func NewMongoSnapshotStore(client *mongo.Client, dbName, collName string) SnapshotStore {
	return persistence.NewMongoSnapshotStore(client, dbName, collName)
}

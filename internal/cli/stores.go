package cli

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	_ "modernc.org/sqlite"

	"github.com/petrijr/flowtree"
	"github.com/petrijr/flowtree/internal/inbox"
)

// stores are the persistence backends of one command.
type stores struct {
	bundle *flowtree.StoreBundle
	inbox  inbox.Inbox
	close  func() error
}

// openStores opens the backend described by cfg. The inbox is durable for
// sqlite and kept in memory otherwise.
func openStores(ctx context.Context, cfg StoreConfig) (*stores, error) {
	noop := func() error { return nil }
	memInbox := inbox.NewInMemoryInbox(0)

	switch cfg.Kind {
	case "", "memory":
		return &stores{bundle: flowtree.NewInMemoryBundle(), inbox: memInbox, close: noop}, nil

	case "sqlite":
		db, err := sql.Open("sqlite", cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("open sqlite %s: %w", cfg.Path, err)
		}
		// SQLite allows one writer; the inbox pump and the runtime share it.
		db.SetMaxOpenConns(1)

		bundle, err := flowtree.NewSQLiteBundle(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		ib, err := inbox.NewSQLiteInbox(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &stores{bundle: bundle, inbox: ib, close: db.Close}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.Addr})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, fmt.Errorf("connect redis %s: %w", cfg.Addr, err)
		}
		store := flowtree.NewRedisSnapshotStore(client, cfg.Prefix)
		return &stores{
			bundle: &flowtree.StoreBundle{Snapshots: store, Events: store},
			inbox:  memInbox,
			close:  client.Close,
		}, nil

	case "postgres":
		db, err := sql.Open("pgx", cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store, err := flowtree.NewPostgresSnapshotStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		return &stores{bundle: &flowtree.StoreBundle{Snapshots: store}, inbox: memInbox, close: db.Close}, nil

	case "mongo":
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		store := flowtree.NewMongoSnapshotStore(client, cfg.Database, "")
		return &stores{
			bundle: &flowtree.StoreBundle{Snapshots: store},
			inbox:  memInbox,
			close:  func() error { return client.Disconnect(context.Background()) },
		}, nil
	}
	return nil, fmt.Errorf("unknown store %q", cfg.Kind)
}

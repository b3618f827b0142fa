package persistence

import (
	"context"
	"errors"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/petrijr/flowtree/pkg/api"
)

// RedisSnapshotStore is a SnapshotStore and EventStore backed by Redis.
// It uses a simple key structure:
//
//	<prefix>snap:<key>         => gob-encoded TreeSnapshot
//	<prefix>idx:snapshots      => SET of all snapshot keys
//	<prefix>events:<runtimeID> => LIST of gob-encoded events
type RedisSnapshotStore struct {
	client *redis.Client
	prefix string
}

var _ SnapshotStore = (*RedisSnapshotStore)(nil)

var _ EventStore = (*RedisSnapshotStore)(nil)

// NewRedisSnapshotStore creates a RedisSnapshotStore.
// prefix is optional but recommended (e.g. "flowtree:").
func NewRedisSnapshotStore(client *redis.Client, prefix string) *RedisSnapshotStore {
	if prefix == "" {
		prefix = "flowtree:"
	}
	return &RedisSnapshotStore{
		client: client,
		prefix: prefix,
	}
}

func (s *RedisSnapshotStore) keySnapshot(key string) string {
	return s.prefix + "snap:" + key
}

func (s *RedisSnapshotStore) keyIndex() string {
	return s.prefix + "idx:snapshots"
}

func (s *RedisSnapshotStore) keyEvents(runtimeID string) string {
	return s.prefix + "events:" + runtimeID
}

func (s *RedisSnapshotStore) Save(ctx context.Context, key string, snap api.TreeSnapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.keySnapshot(key), data, 0)
	pipe.SAdd(ctx, s.keyIndex(), key)
	_, err = pipe.Exec(ctx)
	return err
}

func (s *RedisSnapshotStore) Load(ctx context.Context, key string) (api.TreeSnapshot, error) {
	data, err := s.client.Get(ctx, s.keySnapshot(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return api.TreeSnapshot{}, ErrSnapshotNotFound
		}
		return api.TreeSnapshot{}, err
	}
	return DecodeSnapshot(data)
}

func (s *RedisSnapshotStore) Delete(ctx context.Context, key string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.keySnapshot(key))
	pipe.SRem(ctx, s.keyIndex(), key)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisSnapshotStore) List(ctx context.Context) ([]string, error) {
	keys, err := s.client.SMembers(ctx, s.keyIndex()).Result()
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *RedisSnapshotStore) AppendEvent(ctx context.Context, ev api.Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return s.client.RPush(ctx, s.keyEvents(ev.RuntimeID), data).Err()
}

func (s *RedisSnapshotStore) ListEvents(ctx context.Context, runtimeID string) ([]api.Event, error) {
	raw, err := s.client.LRange(ctx, s.keyEvents(runtimeID), 0, -1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]api.Event, 0, len(raw))
	for _, r := range raw {
		ev, err := decodeEvent([]byte(r))
		if err != nil {
			return nil, err
		}
		out = append(out, ev)
	}
	return out, nil
}

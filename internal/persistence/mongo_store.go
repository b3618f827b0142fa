package persistence

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/petrijr/flowtree/pkg/api"
)

type MongoSnapshotStore struct {
	coll *mongo.Collection
}

// Ensure it implements SnapshotStore.
var _ SnapshotStore = (*MongoSnapshotStore)(nil)

// NewMongoSnapshotStore creates a Mongo-backed snapshot store.
// dbName defaults to "flowtree" if empty, collName defaults to "snapshots".
func NewMongoSnapshotStore(client *mongo.Client, dbName, collName string) *MongoSnapshotStore {
	if dbName == "" {
		dbName = "flowtree"
	}
	if collName == "" {
		collName = "snapshots"
	}

	return &MongoSnapshotStore{
		coll: client.Database(dbName).Collection(collName),
	}
}

type mongoSnapshotDoc struct {
	Key       string    `bson:"_id"`
	Data      []byte    `bson:"data"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func (s *MongoSnapshotStore) Save(ctx context.Context, key string, snap api.TreeSnapshot) error {
	data, err := EncodeSnapshot(snap)
	if err != nil {
		return err
	}

	doc := mongoSnapshotDoc{
		Key:       key,
		Data:      data,
		UpdatedAt: time.Now().UTC(),
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *MongoSnapshotStore) Load(ctx context.Context, key string) (api.TreeSnapshot, error) {
	var doc mongoSnapshotDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return api.TreeSnapshot{}, ErrSnapshotNotFound
		}
		return api.TreeSnapshot{}, err
	}
	return DecodeSnapshot(doc.Data)
}

func (s *MongoSnapshotStore) Delete(ctx context.Context, key string) error {
	_, err := s.coll.DeleteOne(ctx, bson.M{"_id": key})
	return err
}

func (s *MongoSnapshotStore) List(ctx context.Context) ([]string, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"_id": 1})

	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var keys []string
	for cur.Next(ctx) {
		var doc struct {
			Key string `bson:"_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		keys = append(keys, doc.Key)
	}
	return keys, cur.Err()
}

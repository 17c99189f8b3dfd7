package store

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/schemasnap/schemasnap/pkg/errors"
)

// MongoStore keeps archives in a MongoDB collection, for deployments that
// retain snapshot history across restarts.
type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB and uses the "snapshots" collection of
// the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "connecting to %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "pinging %s", uri)
	}
	return &MongoStore{
		client:     client,
		collection: client.Database(database).Collection("snapshots"),
	}, nil
}

// Put stores an archive, replacing any existing one with the same ID.
func (s *MongoStore) Put(ctx context.Context, a *Archive) error {
	_, err := s.collection.ReplaceOne(ctx,
		bson.M{"_id": a.ID}, a, options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "storing snapshot %s", a.ID)
	}
	return nil
}

// Get retrieves an archive by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Archive, error) {
	var a Archive
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&a)
	if err == mongo.ErrNoDocuments {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "loading snapshot %s", id)
	}
	return &a, nil
}

// List returns all archives, newest first.
func (s *MongoStore) List(ctx context.Context) ([]*Archive, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "captured_at", Value: -1},
		{Key: "_id", Value: 1},
	})
	cursor, err := s.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "listing snapshots")
	}
	var out []*Archive
	if err := cursor.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "listing snapshots")
	}
	return out, nil
}

// Delete removes an archive.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "deleting snapshot %s", id)
	}
	if res.DeletedCount == 0 {
		return notFound(id)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)

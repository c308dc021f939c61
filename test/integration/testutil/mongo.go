package testutil

import (
	"context"
	"testing"
	"time"

	"brokerage/internal/holds/repository"
	"brokerage/pkg/client"
	"brokerage/pkg/logger"
	"brokerage/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "brokerage_test"
	ConnectionTimeout   = 10 * time.Second
)

type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	testLogger := logger.New(logger.Config{
		Service: "holds-integration",
		Level:   "debug",
	})

	c := client.NewClient()
	c.SetMongo(testLogger, mongoURI, ConnectionTimeout)

	return &MongoHelper{
		Client:   c.Mongo,
		Database: c.Mongo.Database(dbName),
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanHolds removes every hold. Indexes and validators stay in place.
func (m *MongoHelper) CleanHolds(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	result, err := m.Database.Collection(repository.HoldsCollectionName).DeleteMany(ctx, bson.M{})
	if err != nil {
		t.Fatalf("failed to clean holds: %v", err)
	}
	t.Logf("Cleaned %d holds", result.DeletedCount)
}

// SeedProperty upserts a listing with the given status.
func (m *MongoHelper) SeedProperty(t *testing.T, id string, status model.PropertyStatus) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.Database.Collection(repository.PropertiesCollectionName).UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		t.Fatalf("failed to seed property %s: %v", id, err)
	}
}

// ForceDue moves a hold's deadline into the past so the next sweep expires it.
func (m *MongoHelper) ForceDue(t *testing.T, holdID string) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.Database.Collection(repository.HoldsCollectionName).UpdateOne(ctx,
		bson.M{"_id": holdID},
		bson.M{"$set": bson.M{"hold_until": time.Now().Add(-time.Minute).UTC()}},
	)
	if err != nil {
		t.Fatalf("failed to backdate hold %s: %v", holdID, err)
	}
}

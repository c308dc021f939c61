package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"brokerage/internal/migrations/mongo/validators"
	"brokerage/pkg/logger"
)

const (
	PropertyHoldsCollection = "Property_holds"
	SystemConfigsCollection = "System_configs"
)

var (
	PropertyHoldsIndexes = []mongo.IndexModel{
		{
			// At most one ACTIVE hold per property.
			Keys: bson.D{{Key: "property_id", Value: 1}},
			Options: options.Index().
				SetName("uniq_active_hold_per_property").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": "ACTIVE"}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "hold_until", Value: 1}}},
		{Keys: bson.D{{Key: "ctv_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	SystemConfigsIndexes = []mongo.IndexModel{
		{Keys: bson.D{{Key: "group", Value: 1}}},
	}
)

type collectionDef struct {
	Name      string
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func RunMigration(ctx context.Context, db *mongo.Database, log *logger.Logger) error {
	log.Info("Running Mongo migrations", "database", db.Name())

	collections := []collectionDef{
		{Name: PropertyHoldsCollection, Indexes: PropertyHoldsIndexes, Validator: validators.PropertyHoldValidator},
		{Name: SystemConfigsCollection, Indexes: SystemConfigsIndexes, Validator: validators.SystemConfigValidator},
	}

	for _, def := range collections {
		if err := ensureCollection(ctx, db, def.Name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", def.Name, err)
		}
		if err := ensureIndexes(ctx, db, def.Name, def.Indexes, log); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", def.Name, err)
		}
	}

	log.Info("All Mongo migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection().SetValidator(validator)
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	log.Info("Collection already exists, updating validator", "collection", name)
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel, log *logger.Logger) error {
	names, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	if err != nil {
		return err
	}
	log.Info("Ensured indexes", "collection", name, "indexes", names)
	return nil
}

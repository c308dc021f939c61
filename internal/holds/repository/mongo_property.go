package repository

import (
	"context"
	"errors"
	"fmt"

	holdserrors "brokerage/internal/holds/errors"
	"brokerage/pkg/config"
	"brokerage/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoPropertyChecker struct {
	cfg        *config.Config
	collection *mongo.Collection
}

// NewMongoPropertyChecker reads listing status from the Properties collection.
func NewMongoPropertyChecker(cfg *config.Config) PropertyChecker {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoPropertyChecker{
		cfg:        cfg,
		collection: db.Collection(PropertiesCollectionName),
	}
}

func (p *mongoPropertyChecker) Status(ctx context.Context, propertyID string) (model.PropertyStatus, error) {
	ctx, cancel := withTimeout(ctx, p.cfg.ReadTimeout)
	defer cancel()

	var doc struct {
		Status model.PropertyStatus `bson:"status"`
	}
	opts := options.FindOne().SetProjection(bson.M{"status": 1})
	if err := p.collection.FindOne(ctx, bson.M{"_id": propertyID}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", holdserrors.ErrPropertyNotFound
		}
		return "", fmt.Errorf("failed to read property status: %w", err)
	}
	return doc.Status, nil
}

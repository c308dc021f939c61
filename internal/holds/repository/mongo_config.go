package repository

import (
	"context"
	"fmt"

	"brokerage/pkg/config"
	mongotx "brokerage/pkg/db/mongo"
	"brokerage/pkg/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoConfigRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoConfigRepository(cfg *config.Config) ConfigRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoConfigRepository{
		cfg:        cfg,
		collection: db.Collection(ConfigsCollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoConfigRepository) FindByGroup(ctx context.Context, group string) ([]model.SystemConfig, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, bson.M{"group": group}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find system configs: %w", err)
	}
	defer cursor.Close(ctx)

	rows := make([]model.SystemConfig, 0)
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode system configs: %w", err)
	}
	return rows, nil
}

func (r *mongoConfigRepository) UpsertMany(ctx context.Context, rows []model.SystemConfig) error {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	return r.txManager.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		for _, row := range rows {
			_, err := r.collection.ReplaceOne(txCtx, bson.M{"_id": row.Key}, row, options.Replace().SetUpsert(true))
			if err != nil {
				return fmt.Errorf("failed to upsert system config %s: %w", row.Key, err)
			}
		}
		return nil
	})
}

func (r *mongoConfigRepository) InsertMissing(ctx context.Context, rows []model.SystemConfig) (int, error) {
	ctx, cancel := withTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	added := 0
	for _, row := range rows {
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": row.Key},
			bson.M{"$setOnInsert": row},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return added, fmt.Errorf("failed to seed system config %s: %w", row.Key, err)
		}
		added += int(res.UpsertedCount)
	}
	return added, nil
}

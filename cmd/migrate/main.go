package main

import (
	"context"
	"time"

	"brokerage/internal/holds/policy"
	"brokerage/internal/holds/repository"
	"brokerage/internal/holds/service"
	mongoMigration "brokerage/internal/migrations/mongo"
	postgresMigration "brokerage/internal/migrations/postgres"
	"brokerage/pkg/config"
)

const JobName = "hold-migration"

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	cfg := config.Load(JobName)
	cfg.SetStore()
	defer cfg.GracefulShutdown()
	cfg.Log.Info("Starting migration job", "store", cfg.StoreDriver)

	if err := migrate(ctx, cfg); err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Migration failed", "error", err)
	}
	if err := seedHoldConfig(ctx, cfg); err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Seeding hold config failed", "error", err)
	}
	cfg.Log.Info("Migration completed successfully")
}

func migrate(ctx context.Context, cfg *config.Config) error {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		return postgresMigration.Apply(ctx, cfg.Client.Postgres, cfg.Log)
	}
	return mongoMigration.RunMigration(ctx, cfg.Client.Mongo.Database(cfg.MongoDatabaseName), cfg.Log)
}

// seedHoldConfig stores the env defaults as hold settings unless an admin
// already set them.
func seedHoldConfig(ctx context.Context, cfg *config.Config) error {
	stores := repository.NewStores(cfg)
	rows := policy.ConfigRows(service.Defaults(cfg), nil, time.Now().UTC())

	added, err := stores.Configs.InsertMissing(ctx, rows)
	if err != nil {
		return err
	}
	cfg.Log.Info("Hold config seeded", "added", added, "total", len(rows))
	return nil
}

package main

import (
	"brokerage/internal/holds/events"
	"brokerage/internal/holds/handler"
	"brokerage/internal/holds/repository"
	"brokerage/internal/holds/service"
	"brokerage/internal/holds/sweeper"
	"brokerage/internal/holds/validator"
	"brokerage/pkg/app"
	"brokerage/pkg/clock"
	"brokerage/pkg/config"
)

const ServiceName = "holds"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetStore()
	cfg.Log.Info("Starting Property Hold service", "store", cfg.StoreDriver, "events", cfg.EventsDriver)

	stores := repository.NewStores(cfg)

	publisher, err := events.NewPublisher(cfg, ServiceName)
	if err != nil {
		cfg.GracefulShutdown()
		cfg.Log.Fatal("Failed to create hold event publisher", "driver", cfg.EventsDriver, "error", err)
	}

	clk := clock.NewSystem()
	holdService := service.NewHoldService(
		stores.Holds,
		stores.Configs,
		stores.Properties,
		publisher,
		validator.NewHoldValidator(),
		clk,
		cfg,
	)
	cfg.Log.Info("Hold service initialized")

	application := app.NewApplication(cfg)
	application.SetApp(
		handler.NewHealthHandler(stores.Holds, cfg.Log),
		handler.NewHoldHandler(holdService, clk, cfg.Log),
	)

	if cfg.HoldSweepEnabled {
		application.AddWorker(sweeper.New(holdService, clk, cfg.HoldSweepInterval, cfg.Log).Run)
	} else {
		cfg.Log.Info("Hold sweeper disabled; expire holds with holdctl sweep")
	}

	application.OnShutdown(cfg.GracefulShutdown)
	application.OnShutdown(func() {
		if err := publisher.Close(); err != nil {
			cfg.Log.Error("Failed to close hold event publisher", "error", err)
		}
	})

	application.Run()
}

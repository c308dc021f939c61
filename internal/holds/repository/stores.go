package repository

import "brokerage/pkg/config"

// Stores bundles the repositories of one storage backend.
type Stores struct {
	Holds      HoldRepository
	Configs    ConfigRepository
	Properties PropertyChecker
}

// NewStores builds the repositories for cfg.StoreDriver. The matching client
// must already be connected with cfg.SetStore.
func NewStores(cfg *config.Config) Stores {
	if cfg.StoreDriver == config.StoreDriverPostgres {
		return Stores{
			Holds:      NewPostgresHoldRepository(cfg),
			Configs:    NewPostgresConfigRepository(cfg),
			Properties: NewPostgresPropertyChecker(cfg),
		}
	}
	return Stores{
		Holds:      NewMongoHoldRepository(cfg),
		Configs:    NewMongoConfigRepository(cfg),
		Properties: NewMongoPropertyChecker(cfg),
	}
}

// restore-seed upserts the demo office and customers into the configured database.
// Run it after `freightops migrate` on a fresh database.
//
// Usage: go run ./cmd/restore-seed
package main

import (
	"context"
	"os"

	"freightops/internal/config"
	"freightops/internal/db"
	"freightops/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		cfgLogger := logging.WithComponent("restore-seed")
		cfgLogger.Fatal().Err(err).Msg("config")
	}
	logger, err := logging.Setup(cfg.LoggerConfig())
	if err != nil {
		os.Exit(1)
	}
	logger = logger.With().Str("component", "restore-seed").Logger()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect")
	}
	defer pool.Close()

	if err := db.SeedDemo(ctx, pool); err != nil {
		logger.Fatal().Err(err).Msg("seed failed")
	}
	logger.Info().
		Str("office", db.DemoOffice.Code).
		Int("customers", len(db.DemoCustomers)).
		Msg("seed data restored")
}

package cli

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"freightops/internal/app"
	"freightops/internal/config"
	"freightops/internal/core"
	"freightops/internal/db"
	"freightops/internal/logging"
	"freightops/internal/metrics"
)

// runtime is the wired process state shared by every subcommand.
type runtime struct {
	cfg     *config.Config
	logger  zerolog.Logger
	pool    *pgxpool.Pool
	metrics *metrics.Metrics
	svc     app.ApplicationService
}

// openDatabase loads config, sets up logging and opens the pool.
func openDatabase(ctx context.Context) (*config.Config, zerolog.Logger, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	logger, err := logging.Setup(cfg.LoggerConfig())
	if err != nil {
		return nil, zerolog.Nop(), nil, fmt.Errorf("setup logging: %w", err)
	}
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return nil, zerolog.Nop(), nil, err
	}
	return cfg, logger, pool, nil
}

// openRuntime wires the application service. Pending migrations are applied first when
// allowMigrate is set and MIGRATE_ON_START is true.
func openRuntime(ctx context.Context, allowMigrate bool) (*runtime, error) {
	cfg, logger, pool, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}

	if allowMigrate && cfg.MigrateOnStart {
		if err := db.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		logger.Info().Msg("migrations applied")
	}

	ref, err := core.NewReferenceData(ctx, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}

	m := metrics.New()
	services := app.NewServices(pool, ref, logger)
	svc := app.NewAppService(pool, services, m, logger, cfg.PrintServiceURL)

	return &runtime{cfg: cfg, logger: logger, pool: pool, metrics: m, svc: svc}, nil
}

func (rt *runtime) Close() {
	rt.pool.Close()
}

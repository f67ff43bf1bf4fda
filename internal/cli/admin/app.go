package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/finder/internal/catalog"
	"github.com/cloo-solutions/finder/internal/config"
	"github.com/cloo-solutions/finder/internal/database"
	"github.com/cloo-solutions/finder/internal/logging"
	"github.com/cloo-solutions/finder/internal/repository"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// backend bundles the stores picked by FINDER_DB_DRIVER.
type backend struct {
	cfg    *config.Config
	logger *zap.Logger

	pool *pgxpool.Pool
	gorm *gorm.DB

	entities service.EntityRepository
	logs     service.SearchLogRepository
}

func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, logger, nil
}

func openBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*backend, error) {
	b := &backend{cfg: cfg, logger: logger}
	// The table is always known so the audit can check it exists; user names
	// are only joined while user ids are logged.
	users := repository.UserDirectory{Table: cfg.UsersTable}
	if cfg.LogUserIDs {
		users.NameColumn = cfg.UsersNameColumn
	}

	if cfg.DBDriver == "" || cfg.DBDriver == "pgx" {
		pool, err := database.NewPool(ctx, database.Config{URL: cfg.DatabaseURL})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		b.pool = pool
		b.entities = repository.NewEntityRepository(pool)
		b.logs = repository.NewSearchLogRepository(pool, users)
		logger.Info("connected to database", zap.String("driver", "pgx"))
		return b, nil
	}

	db, err := database.OpenGorm(cfg.DBDriver, cfg.DatabaseURL, cfg.Debug)
	if err != nil {
		return nil, err
	}
	b.gorm = db
	if b.entities, err = repository.NewGormEntityRepository(db); err != nil {
		b.Close()
		return nil, err
	}
	if b.logs, err = repository.NewGormSearchLogRepository(db, users); err != nil {
		b.Close()
		return nil, err
	}
	logger.Info("connected to database", zap.String("driver", cfg.DBDriver))
	return b, nil
}

func (b *backend) migrateOptions() database.MigrateOptions {
	return database.MigrateOptions{
		EnableSearchLogs: b.cfg.EnableSearchLogs,
		LogUserIDs:       b.cfg.LogUserIDs,
		UsersTable:       b.cfg.UsersTable,
	}
}

func (b *backend) Migrate(ctx context.Context) error {
	if b.pool != nil {
		return database.Migrate(ctx, b.cfg.DatabaseURL, b.pool, b.migrateOptions(), b.logger)
	}
	return database.MigrateGorm(b.gorm.WithContext(ctx), b.migrateOptions(), b.logger)
}

func (b *backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
	if b.gorm != nil {
		if sqlDB, err := b.gorm.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}

// loadRegistry registers every entity of the catalog file.
func loadRegistry(path string, logger *zap.Logger) (*service.Registry, error) {
	entities, err := catalog.Load(path)
	if err != nil {
		return nil, err
	}

	registry := service.NewRegistry()
	for _, e := range entities {
		if err := registry.Register(e); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", e.Name, err)
		}
	}
	logger.Info("catalog loaded", zap.String("path", path), zap.Strings("entities", registry.Names()))
	return registry, nil
}

func (b *backend) searchService(registry *service.Registry) *service.SearchService {
	svc := service.NewSearchService(registry, b.entities, b.logs, config.Switches{}, b.cfg.DefaultPerPage, b.logger)
	if b.pool != nil {
		svc.UseSnapshots(repository.NewTxRunner(b.pool))
	}
	return svc
}

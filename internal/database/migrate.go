package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/cloo-solutions/finder/internal/sqlgen"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SearchLogsTable is the audit table name.
const SearchLogsTable = "search_logs"

const userForeignKey = "fk_search_logs_user"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrateOptions carries the switches that shape the audit schema. The
// user_id column always exists because LogUserIDs may change at runtime;
// only the foreign key depends on it.
type MigrateOptions struct {
	EnableSearchLogs bool
	LogUserIDs       bool
	UsersTable       string
}

// Migrate applies the embedded Postgres migrations and, when user ids are
// logged and the users table exists, attaches the user foreign key.
func Migrate(ctx context.Context, databaseURL string, pool *pgxpool.Pool, opts MigrateOptions, logger *zap.Logger) error {
	if !opts.EnableSearchLogs {
		logger.Info("migrations: search logs disabled, skipping")
		return nil
	}

	if err := runMigrations(databaseURL, logger); err != nil {
		return err
	}

	if !opts.LogUserIDs {
		return nil
	}
	return attachUserForeignKey(ctx, pool, opts.UsersTable, logger)
}

func runMigrations(databaseURL string, logger *zap.Logger) error {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database for migrations: %w", err)
	}
	defer db.Close()

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get migration version: %w", verr)
	}
	if dirty {
		return fmt.Errorf("migration version %d is dirty - manual intervention required", version)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("migrations: database is up to date", zap.Uint("version", version))
	} else {
		logger.Info("migrations: applied successfully", zap.Uint("version", version))
	}
	return nil
}

func attachUserForeignKey(ctx context.Context, pool *pgxpool.Pool, usersTable string, logger *zap.Logger) error {
	var hasUsers bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = $1)`, usersTable).Scan(&hasUsers); err != nil {
		return fmt.Errorf("failed to look up users table: %w", err)
	}
	if !hasUsers {
		logger.Info("migrations: users table missing, search logs keep unlinked user ids", zap.String("table", usersTable))
		return nil
	}

	var hasKey bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = $1)`,
		userForeignKey,
	).Scan(&hasKey)
	if err != nil {
		return fmt.Errorf("failed to look up user foreign key: %w", err)
	}
	if hasKey {
		return nil
	}

	_, err = pool.Exec(ctx, fmt.Sprintf(
		`ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (user_id) REFERENCES %s (id) ON DELETE SET NULL`,
		SearchLogsTable, userForeignKey, sqlgen.Postgres.QuoteIdent(usersTable),
	))
	if err != nil {
		return fmt.Errorf("failed to add user foreign key: %w", err)
	}
	logger.Info("migrations: linked search logs to users", zap.String("table", usersTable))
	return nil
}

// MigrateGorm creates the audit table through GORM for the postgres, mysql
// and sqlite drivers. SQLite cannot add a foreign key to an existing table,
// so there the user link stays unenforced.
func MigrateGorm(db *gorm.DB, opts MigrateOptions, logger *zap.Logger) error {
	if !opts.EnableSearchLogs {
		logger.Info("migrations: search logs disabled, skipping")
		return nil
	}

	if err := db.AutoMigrate(&SearchLogModel{}); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", SearchLogsTable, err)
	}

	if !opts.LogUserIDs {
		return nil
	}
	if db.Dialector.Name() == "sqlite" {
		logger.Info("migrations: sqlite cannot add foreign keys to existing tables, skipping user link")
		return nil
	}

	m := db.Migrator()
	if !m.HasTable(opts.UsersTable) {
		logger.Info("migrations: users table missing, search logs keep unlinked user ids", zap.String("table", opts.UsersTable))
		return nil
	}
	if m.HasConstraint(&SearchLogModel{}, userForeignKey) {
		return nil
	}

	dialect, err := sqlgen.DialectFor(db.Dialector.Name())
	if err != nil {
		return err
	}
	stmt := fmt.Sprintf(
		"ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (user_id) REFERENCES %s (id) ON DELETE SET NULL",
		SearchLogsTable, userForeignKey, dialect.QuoteIdent(opts.UsersTable),
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("failed to add user foreign key: %w", err)
	}
	logger.Info("migrations: linked search logs to users", zap.String("table", opts.UsersTable))
	return nil
}

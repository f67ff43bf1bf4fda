package database

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := OpenGorm("sqlite", ":memory:", false)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"migrations/000001_create_search_logs.up.sql",
		"migrations/000001_create_search_logs.down.sql",
	}, names)

	up, err := fs.ReadFile(migrationsFS, "migrations/000001_create_search_logs.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(up), "user_id BIGINT NULL")
}

func TestMigrateGorm_Disabled(t *testing.T) {
	db := openSQLite(t)

	err := MigrateGorm(db, MigrateOptions{EnableSearchLogs: false}, zap.NewNop())

	require.NoError(t, err)
	assert.False(t, db.Migrator().HasTable(SearchLogsTable))
}

func TestMigrateGorm_CreatesTableWithNullableUser(t *testing.T) {
	db := openSQLite(t)

	err := MigrateGorm(db, MigrateOptions{EnableSearchLogs: true, LogUserIDs: true, UsersTable: "users"}, zap.NewNop())

	require.NoError(t, err)
	require.True(t, db.Migrator().HasTable(SearchLogsTable))
	for _, column := range []string{"id", "user_id", "query", "results_found", "created_at", "updated_at"} {
		assert.True(t, db.Migrator().HasColumn(&SearchLogModel{}, column), column)
	}

	require.NoError(t, db.Create(&SearchLogModel{Query: "anonymous"}).Error)

	require.NoError(t, MigrateGorm(db, MigrateOptions{EnableSearchLogs: true}, zap.NewNop()))
}

func TestOpenGorm_UnknownDriver(t *testing.T) {
	_, err := OpenGorm("oracle", "dsn", false)
	assert.Error(t, err)
}

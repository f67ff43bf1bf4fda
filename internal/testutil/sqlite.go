package testutil

import (
	"testing"

	"github.com/cloo-solutions/finder/internal/database"
	"gorm.io/gorm"
)

// NewSQLiteDB opens a private in-memory SQLite database through GORM. The
// pool is pinned to one connection because every new connection to
// ":memory:" would see an empty database.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenGorm("sqlite", ":memory:", false)
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sqlite handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	return db
}

// ExecAll runs schema or fixture statements in order.
func ExecAll(t *testing.T, db *gorm.DB, statements ...string) {
	t.Helper()
	for _, stmt := range statements {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("failed to exec %q: %v", stmt, err)
		}
	}
}

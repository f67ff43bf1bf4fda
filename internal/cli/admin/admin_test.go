package admin

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/finder/internal/database"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testCatalog = `
entities:
  - name: Product
    soft_delete_column: deleted_at
    columns: [name, "!sku"]
    relations:
      category:
        table: categories
        parent_column: category_id
        columns: [name]
`

// setupSQLite points the config at a fresh sqlite file with a small catalog.
func setupSQLite(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "finder.db")
	catalogPath := filepath.Join(dir, "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(testCatalog), 0o600))

	db, err := database.OpenGorm("sqlite", dbPath, false)
	require.NoError(t, err)
	for _, stmt := range []string{
		`CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE products (id INTEGER PRIMARY KEY, name TEXT NOT NULL, sku TEXT NOT NULL, category_id INTEGER, deleted_at DATETIME NULL)`,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO categories (id, name) VALUES (1, 'Shoes'), (2, 'Hats')`,
		`INSERT INTO products (id, name, sku, category_id, deleted_at) VALUES
			(1, 'Red Runner', 'RR-1', 1, NULL),
			(2, 'Sun Hat', 'SH-1', 2, NULL),
			(3, 'Old Runner', 'OR-1', 1, '2025-01-01 00:00:00')`,
		`INSERT INTO users (id, name) VALUES (42, 'Ada Lovelace')`,
	} {
		require.NoError(t, db.Exec(stmt).Error)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	t.Setenv("FINDER_DATABASE_URL", dbPath)
	t.Setenv("FINDER_DB_DRIVER", "sqlite")
	t.Setenv("FINDER_CATALOG_PATH", catalogPath)
	t.Setenv("FINDER_ENABLE_SEARCH_LOGS", "true")
	t.Setenv("FINDER_LOG_USER_IDS", "false")
	return dir
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestSearchAndLogsCommands(t *testing.T) {
	dir := setupSQLite(t)

	out, err := execute(t, MigrateCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Migrations applied")

	out, err = execute(t, SearchCmd(), "runner", "-o", "json")
	require.NoError(t, err)
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	products := body["products"].(map[string]any)
	assert.Equal(t, float64(1), products["total_items"])

	out, err = execute(t, SearchCmd(), "shoes", "--where", "products.category.name=Shoes", "--queries")
	require.NoError(t, err)
	assert.Contains(t, out, "products: 1 items, 1 pages")
	assert.Contains(t, out, "query: SELECT")
	assert.Contains(t, out, `"Red Runner"`)

	_, err = execute(t, SearchCmd(), "hat", "--no-log")
	require.NoError(t, err)

	out, err = execute(t, logsListCmd(), "-o", "json")
	require.NoError(t, err)
	var page struct {
		Total int64 `json:"total"`
		Items []struct {
			Query        string `json:"query"`
			ResultsFound int64  `json:"results_found"`
		} `json:"items"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &page))
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "shoes", page.Items[0].Query)

	out, err = execute(t, logsListCmd(), "--search", "runner")
	require.NoError(t, err)
	assert.Contains(t, out, "runner")
	assert.Contains(t, out, "1 of 2 shown (1 match)")

	exportPath := filepath.Join(dir, "export.csv")
	_, err = execute(t, logsExportCmd(), "--file", exportPath)
	require.NoError(t, err)
	data, err := os.ReadFile(exportPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, "id,query,results_found,user_id,user_name,created_at", lines[0])
	assert.Len(t, lines, 3)

	out, err = execute(t, logsPruneCmd(), "--days", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 0 search logs")
}

func TestSearchCmd_UnknownType(t *testing.T) {
	setupSQLite(t)

	_, err := execute(t, SearchCmd(), "runner", "--type", "ghosts")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid searchable entity")
}

func TestLogsCmd_Disabled(t *testing.T) {
	setupSQLite(t)
	t.Setenv("FINDER_ENABLE_SEARCH_LOGS", "false")

	_, err := execute(t, logsListCmd())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "search logs are disabled")
}

func TestParseWheres(t *testing.T) {
	got, err := parseWheres([]string{"products.category.name=Shoes", " products.status =a=b"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"products.category.name": "Shoes", "products.status": "a=b"}, got)

	got, err = parseWheres(nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = parseWheres([]string{"no-value"})
	assert.Error(t, err)
	_, err = parseWheres([]string{"=x"})
	assert.Error(t, err)
}

func TestPrintSearchLogs_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printSearchLogs(&out, &service.SearchLogPage{}, "text"))
	assert.Equal(t, "No search logs found\n", out.String())
}

func TestTokenGenerate(t *testing.T) {
	out, err := execute(t, tokenGenerateCmd(), "--user", "42", "-o", "json")
	require.NoError(t, err)

	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	token := body["token"].(string)
	assert.True(t, service.IsValidAPIToken(token))
	assert.Equal(t, token+":42", body["entry"])
	assert.Equal(t, "FINDER_ADMIN_TOKENS", body["env"])

	_, err = execute(t, tokenGenerateCmd())
	assert.Error(t, err)
}

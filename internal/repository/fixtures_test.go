package repository

import (
	"testing"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/testutil"
	"gorm.io/gorm"
)

var catalogSchema = []string{
	`CREATE TABLE categories (id INTEGER PRIMARY KEY, name TEXT NOT NULL, visible INTEGER NOT NULL DEFAULT 1)`,
	`CREATE TABLE products (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		sku TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active',
		category_id INTEGER REFERENCES categories (id),
		deleted_at DATETIME NULL
	)`,
	`CREATE TABLE posts (id INTEGER PRIMARY KEY, title TEXT NOT NULL)`,
	`CREATE TABLE tags (id INTEGER PRIMARY KEY, slug TEXT NOT NULL)`,
	`CREATE TABLE post_tag (post_id INTEGER NOT NULL, tag_id INTEGER NOT NULL)`,
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
}

var catalogRows = []string{
	`INSERT INTO categories (id, name, visible) VALUES (1, 'Shoes', 1), (2, 'Hats', 1), (3, 'Hidden shoes', 0)`,
	`INSERT INTO products (id, name, sku, status, category_id, deleted_at) VALUES
		(1, 'Red Runner', 'RR-1', 'active', 1, NULL),
		(2, 'Blue Runner', 'BR-1', 'active', 1, NULL),
		(3, 'Sun Hat', 'SH-1', 'active', 2, NULL),
		(4, 'Old Runner', 'OR-1', 'active', 1, '2025-01-01 00:00:00'),
		(5, 'Plain Cap', 'runner', 'draft', 2, NULL),
		(6, '50% off socks', 'SO-1', 'active', 3, NULL),
		(7, '500 socks', 'SO-2', 'active', 3, NULL)`,
	`INSERT INTO posts (id, title) VALUES (1, 'Release notes'), (2, 'Roadmap')`,
	`INSERT INTO tags (id, slug) VALUES (1, 'go'), (2, 'rust')`,
	`INSERT INTO post_tag (post_id, tag_id) VALUES (1, 1), (2, 2)`,
	`INSERT INTO users (id, name) VALUES (42, 'Ada Lovelace'), (7, 'Grace Hopper')`,
}

func newCatalogDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	testutil.ExecAll(t, db, catalogSchema...)
	testutil.ExecAll(t, db, catalogRows...)
	return db
}

type Product struct{}

func (Product) SearchConfig() domain.SearchConfig {
	return domain.SearchConfig{
		Columns: domain.Columns("name", "!sku"),
		Relations: map[string]domain.RelationSpec{
			"category": {
				Table:   "categories",
				Join:    domain.Join{RelatedColumn: "id", ParentColumn: "category_id"},
				Columns: domain.Columns("name"),
			},
		},
	}
}

func (Product) SoftDeleteColumn() string { return "deleted_at" }

type Post struct{}

func (Post) SearchConfig() domain.SearchConfig {
	return domain.SearchConfig{
		Relations: map[string]domain.RelationSpec{
			"tags": {
				Table:   "tags",
				Join:    domain.Join{RelatedColumn: "id", ParentColumn: "id"},
				Pivot:   &domain.Pivot{Table: "post_tag", ParentColumn: "post_id", RelatedColumn: "tag_id"},
				Columns: domain.Columns("!slug"),
			},
		},
	}
}

func describe(t *testing.T, entity domain.Searchable, name string) domain.SearchConfig {
	t.Helper()
	cfg, err := domain.Describe(entity, name)
	if err != nil {
		t.Fatalf("describe %s: %v", name, err)
	}
	return cfg
}

package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleCatalog = `
entities:
  - name: Product
    soft_delete_column: deleted_at
    columns: [name, "!sku"]
    wheres:
      status: active
    order_by:
      - column: name
        desc: true
    relations:
      category:
        table: categories
        parent_column: category_id
        columns: [name]
  - name: Post
    key: articles
    table: blog_posts
    relations:
      tags:
        table: tags
        pivot:
          table: post_tag
          parent_column: post_id
          related_column: tag_id
        columns: ["!slug"]
`

func TestParse(t *testing.T) {
	entities, err := Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)
	require.Len(t, entities, 2)

	product := entities[0]
	assert.Equal(t, "Product", product.EntityName())
	cfg, err := domain.Describe(product, product.Name)
	require.NoError(t, err)
	assert.Equal(t, "products", cfg.Key)
	assert.Equal(t, "products", cfg.Table)
	assert.Equal(t, "id", cfg.PrimaryKey)
	assert.Equal(t, "deleted_at", cfg.SoftDeleteColumn)
	assert.Equal(t, []domain.ColumnSpec{{Name: "name"}, {Name: "sku", Strict: true}}, cfg.Columns)
	assert.Equal(t, map[string]any{"status": "active"}, cfg.Wheres)
	assert.Equal(t, []domain.OrderSpec{{Column: "name", Desc: true}}, cfg.OrderBy)
	assert.Equal(t, domain.Join{RelatedColumn: "id", ParentColumn: "category_id"}, cfg.Relations["category"].Join)

	post := entities[1]
	cfg, err = domain.Describe(post, post.Name)
	require.NoError(t, err)
	assert.Equal(t, "articles", cfg.Key)
	assert.Equal(t, "blog_posts", cfg.Table)
	tags := cfg.Relations["tags"]
	require.NotNil(t, tags.Pivot)
	assert.Equal(t, domain.Pivot{Table: "post_tag", ParentColumn: "post_id", RelatedColumn: "tag_id"}, *tags.Pivot)
	assert.Equal(t, domain.Join{RelatedColumn: "id", ParentColumn: "id"}, tags.Join)
}

func TestParse_RegistersByNameAndKey(t *testing.T) {
	entities, err := Parse(strings.NewReader(sampleCatalog))
	require.NoError(t, err)

	registry := service.NewRegistry()
	for _, e := range entities {
		require.NoError(t, registry.Register(e))
	}

	assert.Equal(t, []string{"Product", "Post"}, registry.Names())
	_, ok := registry.Lookup("articles")
	assert.True(t, ok)
	_, ok = registry.Lookup("product")
	assert.True(t, ok)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"empty document", "", "catalog is empty"},
		{"no entities", "entities: []", "Entities"},
		{"missing name", "entities:\n  - columns: [name]", "Name"},
		{"unknown field", "entities:\n  - name: Product\n    colums: [name]", "colums"},
		{"duplicate name", "entities:\n  - name: Product\n  - name: Product", "declared twice"},
		{"bad column", "entities:\n  - name: Product\n    columns: [\"name; drop\"]", "name; drop"},
		{"reserved key", "entities:\n  - name: Page\n    key: page", "reserved"},
		{"relation without table", "entities:\n  - name: Product\n    relations:\n      category:\n        columns: [name]", "category"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidSearchConfig)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleCatalog), 0o600))

	entities, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, entities, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

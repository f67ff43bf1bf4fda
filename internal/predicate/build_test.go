package predicate

import (
	"testing"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_ColumnsOnly(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:        "products",
		Table:      "products",
		PrimaryKey: "id",
		Columns:    domain.Columns("name", "!sku"),
	}

	got := Build(cfg, "shoe")

	assert.Equal(t, And{
		Or{
			Contains{Column: Ref{Alias: "t0", Column: "name"}, Value: "shoe"},
			Eq{Column: Ref{Alias: "t0", Column: "sku"}, Value: "shoe", Text: true},
		},
	}, got)
}

func TestBuild_NoColumnsMatchesAll(t *testing.T) {
	cfg := domain.SearchConfig{Key: "tags", Table: "tags", PrimaryKey: "id"}

	got := Build(cfg, "anything")

	assert.True(t, MatchesAll(got))
}

func TestBuild_WheresAndSoftDelete(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:              "posts",
		Table:            "posts",
		PrimaryKey:       "id",
		Columns:          domain.Columns("title"),
		Wheres:           map[string]any{"status": "published", "lang": "en"},
		SoftDeleteColumn: "deleted_at",
	}

	got := Build(cfg, "go")

	assert.Equal(t, And{
		Eq{Column: Ref{Alias: "t0", Column: "lang"}, Value: "en"},
		Eq{Column: Ref{Alias: "t0", Column: "status"}, Value: "published"},
		Or{Contains{Column: Ref{Alias: "t0", Column: "title"}, Value: "go"}},
		IsNull{Column: Ref{Alias: "t0", Column: "deleted_at"}},
	}, got)
}

func TestBuild_WithTrashedSkipsSoftDelete(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:              "posts",
		Table:            "posts",
		PrimaryKey:       "id",
		Columns:          domain.Columns("title"),
		SoftDeleteColumn: "deleted_at",
		WithTrashed:      true,
	}

	got := Build(cfg, "go")

	for _, n := range got.(And) {
		_, isNull := n.(IsNull)
		assert.False(t, isNull)
	}
}

func TestBuild_Relation(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:        "products",
		Table:      "products",
		PrimaryKey: "id",
		Columns:    domain.Columns("name"),
		Relations: map[string]domain.RelationSpec{
			"category": {
				Table:   "categories",
				Join:    domain.Join{RelatedColumn: "id", ParentColumn: "category_id"},
				Columns: domain.Columns("name"),
				Wheres:  map[string]any{"visible": true},
			},
		},
	}

	got := Build(cfg, "shoes")

	assert.Equal(t, And{
		Or{
			Contains{Column: Ref{Alias: "t0", Column: "name"}, Value: "shoes"},
			Exists{
				From: Table{Name: "categories", Alias: "t1"},
				Where: And{
					ColumnsEqual{Left: Ref{Alias: "t1", Column: "id"}, Right: Ref{Alias: "t0", Column: "category_id"}},
					Eq{Column: Ref{Alias: "t1", Column: "visible"}, Value: true},
					Or{Contains{Column: Ref{Alias: "t1", Column: "name"}, Value: "shoes"}},
				},
			},
		},
	}, got)
}

func TestBuild_RelationWithoutColumnsIsExistence(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:        "users",
		Table:      "users",
		PrimaryKey: "id",
		Relations: map[string]domain.RelationSpec{
			"orders": {
				Table:  "orders",
				Join:   domain.Join{RelatedColumn: "user_id", ParentColumn: "id"},
				Wheres: map[string]any{"status": "paid"},
			},
		},
	}

	got := Build(cfg, "ignored")

	require.Len(t, got, 1)
	group := got.(And)[0].(Or)
	require.Len(t, group, 1)
	assert.Equal(t, Exists{
		From: Table{Name: "orders", Alias: "t1"},
		Where: And{
			ColumnsEqual{Left: Ref{Alias: "t1", Column: "user_id"}, Right: Ref{Alias: "t0", Column: "id"}},
			Eq{Column: Ref{Alias: "t1", Column: "status"}, Value: "paid"},
		},
	}, group[0])
}

func TestBuild_NestedAndPivotRelations(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:        "posts",
		Table:      "posts",
		PrimaryKey: "id",
		Relations: map[string]domain.RelationSpec{
			"tags": {
				Table: "tags",
				Join:  domain.Join{RelatedColumn: "id", ParentColumn: "id"},
				Pivot: &domain.Pivot{Table: "post_tag", ParentColumn: "post_id", RelatedColumn: "tag_id"},
				Relations: map[string]domain.RelationSpec{
					"group": {
						Table:            "tag_groups",
						Join:             domain.Join{RelatedColumn: "id", ParentColumn: "group_id"},
						SoftDeleteColumn: "deleted_at",
						Columns:          domain.Columns("!code"),
					},
				},
			},
		},
	}

	got := Build(cfg, "x")

	tags := got.(And)[0].(Or)[0].(Exists)
	assert.Equal(t, Table{Name: "tags", Alias: "t1"}, tags.From)
	assert.Equal(t, []InnerJoin{{
		Table: Table{Name: "post_tag", Alias: "p1"},
		On:    ColumnsEqual{Left: Ref{Alias: "p1", Column: "tag_id"}, Right: Ref{Alias: "t1", Column: "id"}},
	}}, tags.Joins)

	where := tags.Where.(And)
	assert.Equal(t, ColumnsEqual{Left: Ref{Alias: "p1", Column: "post_id"}, Right: Ref{Alias: "t0", Column: "id"}}, where[0])

	group := where[1].(Or)[0].(Exists)
	assert.Equal(t, Table{Name: "tag_groups", Alias: "t2"}, group.From)
	assert.Equal(t, And{
		ColumnsEqual{Left: Ref{Alias: "t2", Column: "id"}, Right: Ref{Alias: "t1", Column: "group_id"}},
		IsNull{Column: Ref{Alias: "t2", Column: "deleted_at"}},
		Or{Eq{Column: Ref{Alias: "t2", Column: "code"}, Value: "x", Text: true}},
	}, group.Where)
}

func TestBuild_Deterministic(t *testing.T) {
	cfg := domain.SearchConfig{
		Key:        "products",
		Table:      "products",
		PrimaryKey: "id",
		Columns:    domain.Columns("name"),
		Wheres:     map[string]any{"a": 1, "b": 2, "c": 3},
		Relations: map[string]domain.RelationSpec{
			"brand":    {Table: "brands", Join: domain.Join{RelatedColumn: "id", ParentColumn: "brand_id"}, Columns: domain.Columns("name")},
			"category": {Table: "categories", Join: domain.Join{RelatedColumn: "id", ParentColumn: "category_id"}, Columns: domain.Columns("name")},
		},
	}

	first := Build(cfg, "kw")
	for range 10 {
		assert.Equal(t, first, Build(cfg, "kw"))
	}
}

func TestMatchesAll(t *testing.T) {
	assert.True(t, MatchesAll(nil))
	assert.True(t, MatchesAll(And{}))
	assert.True(t, MatchesAll(And{And{}}))
	assert.False(t, MatchesAll(And{IsNull{Column: Ref{Alias: "t0", Column: "x"}}}))
	assert.False(t, MatchesAll(Or{}))
}

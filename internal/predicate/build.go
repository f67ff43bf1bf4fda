package predicate

import (
	"strconv"

	"github.com/cloo-solutions/finder/internal/domain"
)

// BaseAlias is the alias of the entity's base table in every built predicate.
const BaseAlias = "t0"

type builder struct {
	keyword string
	next    int
}

// Build composes the filter for one entity:
//
//	wheres AND (columns OR relations) AND not-soft-deleted
//
// Constant wheres always narrow the result. Column and relation matches are
// alternatives: a row matches when any of its own columns or any declared
// relation matches the keyword. A config with neither columns nor relations
// places no keyword restriction.
func Build(cfg domain.SearchConfig, keyword string) Node {
	b := &builder{keyword: keyword}

	root := And{}
	root = append(root, b.wheres(BaseAlias, cfg.Wheres)...)

	match := b.columns(BaseAlias, cfg.Columns)
	match = append(match, b.relations(BaseAlias, cfg.Relations)...)
	if len(match) > 0 {
		root = append(root, match)
	}

	if cfg.SoftDeleteColumn != "" && !cfg.WithTrashed {
		root = append(root, IsNull{Column: Ref{Alias: BaseAlias, Column: cfg.SoftDeleteColumn}})
	}

	return root
}

func (b *builder) alias(prefix string) string {
	b.next++
	return prefix + strconv.Itoa(b.next)
}

func (b *builder) wheres(alias string, wheres map[string]any) []Node {
	nodes := make([]Node, 0, len(wheres))
	for _, column := range domain.SortedKeys(wheres) {
		nodes = append(nodes, Eq{Column: Ref{Alias: alias, Column: column}, Value: wheres[column]})
	}
	return nodes
}

func (b *builder) columns(alias string, cols []domain.ColumnSpec) Or {
	group := Or{}
	for _, col := range cols {
		ref := Ref{Alias: alias, Column: col.Name}
		if col.Strict {
			group = append(group, Eq{Column: ref, Value: b.keyword, Text: true})
		} else {
			group = append(group, Contains{Column: ref, Value: b.keyword})
		}
	}
	return group
}

func (b *builder) relations(parent string, rels map[string]domain.RelationSpec) []Node {
	nodes := make([]Node, 0, len(rels))
	for _, name := range domain.SortedKeys(rels) {
		nodes = append(nodes, b.relation(parent, rels[name]))
	}
	return nodes
}

// relation builds EXISTS over the related table correlated with parent, then
// narrows it by the relation's wheres and its own keyword matches.
func (b *builder) relation(parent string, rel domain.RelationSpec) Node {
	alias := b.alias("t")
	exists := Exists{From: Table{Name: rel.Table, Alias: alias}}

	where := And{}
	parentRef := Ref{Alias: parent, Column: rel.Join.ParentColumn}
	relatedRef := Ref{Alias: alias, Column: rel.Join.RelatedColumn}

	if rel.Pivot != nil {
		pivot := "p" + alias[1:]
		exists.Joins = []InnerJoin{{
			Table: Table{Name: rel.Pivot.Table, Alias: pivot},
			On:    ColumnsEqual{Left: Ref{Alias: pivot, Column: rel.Pivot.RelatedColumn}, Right: relatedRef},
		}}
		where = append(where, ColumnsEqual{Left: Ref{Alias: pivot, Column: rel.Pivot.ParentColumn}, Right: parentRef})
	} else {
		where = append(where, ColumnsEqual{Left: relatedRef, Right: parentRef})
	}

	if rel.SoftDeleteColumn != "" {
		where = append(where, IsNull{Column: Ref{Alias: alias, Column: rel.SoftDeleteColumn}})
	}

	where = append(where, b.wheres(alias, rel.Wheres)...)

	match := b.columns(alias, rel.Columns)
	match = append(match, b.relations(alias, rel.Relations)...)
	if len(match) > 0 {
		where = append(where, match)
	}

	exists.Where = where
	return exists
}

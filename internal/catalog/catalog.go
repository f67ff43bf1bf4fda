// Package catalog loads searchable entities from a YAML file so a deployment
// can declare its searchable tables without code.
package catalog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Entity is one catalog entry. It satisfies domain.Searchable and names
// itself in the registry.
type Entity struct {
	Name   string
	Config domain.SearchConfig
}

func (e *Entity) SearchConfig() domain.SearchConfig { return e.Config }

func (e *Entity) EntityName() string { return e.Name }

type file struct {
	Entities []entityDoc `yaml:"entities" validate:"required,min=1,dive"`
}

type entityDoc struct {
	Name             string                 `yaml:"name" validate:"required,alphanum"`
	Key              string                 `yaml:"key"`
	Table            string                 `yaml:"table"`
	PrimaryKey       string                 `yaml:"primary_key"`
	SoftDeleteColumn string                 `yaml:"soft_delete_column"`
	WithTrashed      bool                   `yaml:"with_trashed"`
	Columns          []string               `yaml:"columns"`
	Wheres           map[string]any         `yaml:"wheres"`
	OrderBy          []orderDoc             `yaml:"order_by"`
	Relations        map[string]relationDoc `yaml:"relations"`
}

type orderDoc struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc"`
}

type relationDoc struct {
	Table            string                 `yaml:"table"`
	RelatedColumn    string                 `yaml:"related_column"`
	ParentColumn     string                 `yaml:"parent_column"`
	Pivot            *pivotDoc              `yaml:"pivot"`
	SoftDeleteColumn string                 `yaml:"soft_delete_column"`
	Columns          []string               `yaml:"columns"`
	Wheres           map[string]any         `yaml:"wheres"`
	Relations        map[string]relationDoc `yaml:"relations"`
}

type pivotDoc struct {
	Table         string `yaml:"table"`
	ParentColumn  string `yaml:"parent_column"`
	RelatedColumn string `yaml:"related_column"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the catalog at path.
func Load(path string) ([]*Entity, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	entities, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return entities, nil
}

// Parse decodes a catalog document. Unknown fields and duplicate names are
// errors; each entity is described and validated before it is returned.
func Parse(r io.Reader) ([]*Entity, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc file
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrInvalidSearchConfig.Withf("catalog is empty")
		}
		return nil, domain.ErrInvalidSearchConfig.Wrap(err)
	}
	if err := validate.Struct(doc); err != nil {
		return nil, domain.ErrInvalidSearchConfig.Wrap(err)
	}

	seen := make(map[string]bool, len(doc.Entities))
	entities := make([]*Entity, 0, len(doc.Entities))
	for _, e := range doc.Entities {
		if seen[e.Name] {
			return nil, domain.ErrInvalidSearchConfig.Withf("entity %q declared twice", e.Name)
		}
		seen[e.Name] = true

		entity := &Entity{Name: e.Name, Config: e.config()}
		if _, err := domain.Describe(entity, entity.Name); err != nil {
			return nil, fmt.Errorf("entity %s: %w", e.Name, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (e entityDoc) config() domain.SearchConfig {
	cfg := domain.SearchConfig{
		Key:              e.Key,
		Table:            e.Table,
		PrimaryKey:       e.PrimaryKey,
		SoftDeleteColumn: e.SoftDeleteColumn,
		WithTrashed:      e.WithTrashed,
		Columns:          domain.Columns(e.Columns...),
		Wheres:           e.Wheres,
		Relations:        relations(e.Relations),
	}
	for _, o := range e.OrderBy {
		cfg.OrderBy = append(cfg.OrderBy, domain.OrderSpec{Column: o.Column, Desc: o.Desc})
	}
	return cfg
}

func relations(docs map[string]relationDoc) map[string]domain.RelationSpec {
	if len(docs) == 0 {
		return nil
	}
	out := make(map[string]domain.RelationSpec, len(docs))
	for name, d := range docs {
		rel := domain.RelationSpec{
			Table:            d.Table,
			Join:             domain.Join{RelatedColumn: d.RelatedColumn, ParentColumn: d.ParentColumn},
			SoftDeleteColumn: d.SoftDeleteColumn,
			Columns:          domain.Columns(d.Columns...),
			Wheres:           d.Wheres,
			Relations:        relations(d.Relations),
		}
		if rel.Join.RelatedColumn == "" {
			rel.Join.RelatedColumn = "id"
		}
		if d.Pivot != nil {
			rel.Pivot = &domain.Pivot{Table: d.Pivot.Table, ParentColumn: d.Pivot.ParentColumn, RelatedColumn: d.Pivot.RelatedColumn}
		}
		out[name] = rel
	}
	return out
}

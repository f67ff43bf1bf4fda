package domain

import (
	"maps"
	"regexp"
	"sort"
	"strings"
	"unicode"

	pluralize "github.com/gertd/go-pluralize"
	"github.com/go-playground/validator/v10"
)

// StrictMarker prefixes a column name that must match the keyword exactly.
const StrictMarker = "!"

// MaxRelationDepth bounds relation nesting so a self-referential config
// cannot recurse without end.
const MaxRelationDepth = 8

// Reserved bucket keys; they collide with the pagination fields of a result.
var reservedKeys = map[string]bool{"page": true, "per_page": true}

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("identifier", func(fl validator.FieldLevel) bool {
		return identifierPattern.MatchString(fl.Field().String())
	})
	return v
}

// Searchable is implemented by every entity type that takes part in keyword search.
type Searchable interface {
	SearchConfig() SearchConfig
}

// TableNamer lets an entity name its base table.
type TableNamer interface {
	TableName() string
}

// SoftDeletable marks an entity whose rows are soft deleted through a nullable
// timestamp column.
type SoftDeletable interface {
	SoftDeleteColumn() string
}

// ColumnSpec is a searchable column. Strict columns compare the keyword for
// equality, the others for substring containment.
type ColumnSpec struct {
	Name   string `json:"name" validate:"required,identifier"`
	Strict bool   `json:"strict,omitempty"`
}

// ParseColumn reads the string form of a column, where a leading "!" marks it strict.
func ParseColumn(s string) ColumnSpec {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, StrictMarker) {
		return ColumnSpec{Name: strings.TrimSpace(strings.TrimPrefix(s, StrictMarker)), Strict: true}
	}
	return ColumnSpec{Name: s}
}

// Columns parses a list of string-form columns.
func Columns(specs ...string) []ColumnSpec {
	cols := make([]ColumnSpec, 0, len(specs))
	for _, s := range specs {
		cols = append(cols, ParseColumn(s))
	}
	return cols
}

func (c ColumnSpec) String() string {
	if c.Strict {
		return StrictMarker + c.Name
	}
	return c.Name
}

// Join describes how a related row points at its parent:
// related.RelatedColumn = parent.ParentColumn.
type Join struct {
	RelatedColumn string `json:"related_column" validate:"required,identifier"`
	ParentColumn  string `json:"parent_column" validate:"required,identifier"`
}

// Pivot routes a many-to-many relation through a link table:
// pivot.ParentColumn = parent.<Join.ParentColumn> and
// pivot.RelatedColumn = related.<Join.RelatedColumn>.
type Pivot struct {
	Table         string `json:"table" validate:"required,identifier"`
	ParentColumn  string `json:"parent_column" validate:"required,identifier"`
	RelatedColumn string `json:"related_column" validate:"required,identifier"`
}

// RelationSpec declares a related table whose columns also match the keyword.
type RelationSpec struct {
	Table            string                  `json:"table" validate:"required,identifier"`
	Join             Join                    `json:"join"`
	Pivot            *Pivot                  `json:"pivot,omitempty"`
	SoftDeleteColumn string                  `json:"soft_delete_column,omitempty" validate:"omitempty,identifier"`
	Columns          []ColumnSpec            `json:"columns,omitempty"`
	Wheres           map[string]any          `json:"wheres,omitempty"`
	Relations        map[string]RelationSpec `json:"relations,omitempty"`
}

// OrderSpec orders the fetched page.
type OrderSpec struct {
	Column string `json:"column" validate:"required,identifier"`
	Desc   bool   `json:"desc,omitempty"`
}

// SearchConfig is the search declaration of one entity type.
type SearchConfig struct {
	Key              string                  `json:"key" validate:"required"`
	Table            string                  `json:"table" validate:"required,identifier"`
	PrimaryKey       string                  `json:"primary_key" validate:"required,identifier"`
	Columns          []ColumnSpec            `json:"columns,omitempty"`
	Wheres           map[string]any          `json:"wheres,omitempty"`
	Relations        map[string]RelationSpec `json:"relations,omitempty"`
	WithTrashed      bool                    `json:"with_trashed,omitempty"`
	SoftDeleteColumn string                  `json:"soft_delete_column,omitempty" validate:"omitempty,identifier"`
	OrderBy          []OrderSpec             `json:"order_by,omitempty"`
}

// Clone returns a deep copy, so patching a registration never touches the
// config value an entity handed out.
func (c SearchConfig) Clone() SearchConfig {
	out := c
	out.Columns = append([]ColumnSpec(nil), c.Columns...)
	out.OrderBy = append([]OrderSpec(nil), c.OrderBy...)
	out.Wheres = maps.Clone(c.Wheres)
	out.Relations = cloneRelations(c.Relations)
	return out
}

func cloneRelations(in map[string]RelationSpec) map[string]RelationSpec {
	if in == nil {
		return nil
	}
	out := make(map[string]RelationSpec, len(in))
	for name, rel := range in {
		out[name] = rel.clone()
	}
	return out
}

func (r RelationSpec) clone() RelationSpec {
	out := r
	if r.Pivot != nil {
		p := *r.Pivot
		out.Pivot = &p
	}
	out.Columns = append([]ColumnSpec(nil), r.Columns...)
	out.Wheres = maps.Clone(r.Wheres)
	out.Relations = cloneRelations(r.Relations)
	return out
}

// WithWhere returns a copy of c with an extra constant filter column = value.
// relations addresses the nested relation that carries the filter; an empty
// slice targets the base table.
func (c SearchConfig) WithWhere(relations []string, column string, value any) (SearchConfig, error) {
	if !identifierPattern.MatchString(column) {
		return SearchConfig{}, ErrInvalidWherePath.Withf("column %q is not a valid identifier", column)
	}

	out := c.Clone()
	if len(relations) == 0 {
		if out.Wheres == nil {
			out.Wheres = make(map[string]any)
		}
		out.Wheres[column] = value
		return out, nil
	}

	rels, err := withRelationWhere(out.Relations, relations, column, value)
	if err != nil {
		return SearchConfig{}, err
	}
	out.Relations = rels
	return out, nil
}

func withRelationWhere(rels map[string]RelationSpec, path []string, column string, value any) (map[string]RelationSpec, error) {
	rel, ok := rels[path[0]]
	if !ok {
		return nil, ErrInvalidWherePath.Withf("relation %q is not declared", path[0])
	}

	if len(path) == 1 {
		if rel.Wheres == nil {
			rel.Wheres = make(map[string]any)
		}
		rel.Wheres[column] = value
	} else {
		nested, err := withRelationWhere(rel.Relations, path[1:], column, value)
		if err != nil {
			return nil, err
		}
		rel.Relations = nested
	}

	rels[path[0]] = rel
	return rels, nil
}

// Validate checks identifiers, required join metadata and relation depth.
func (c SearchConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return ErrInvalidSearchConfig.Wrap(err)
	}
	if reservedKeys[c.Key] {
		return ErrInvalidSearchConfig.Withf("key %q is reserved", c.Key)
	}
	if err := validateColumns(c.Columns); err != nil {
		return err
	}
	if err := validateWheres(c.Wheres); err != nil {
		return err
	}
	for _, o := range c.OrderBy {
		if err := validate.Struct(o); err != nil {
			return ErrInvalidSearchConfig.Wrap(err)
		}
	}
	return validateRelations(c.Relations, 1)
}

func validateColumns(cols []ColumnSpec) error {
	for _, col := range cols {
		if err := validate.Struct(col); err != nil {
			return ErrInvalidSearchConfig.Withf("column %q: %v", col.String(), err)
		}
	}
	return nil
}

func validateWheres(wheres map[string]any) error {
	for column := range wheres {
		if !identifierPattern.MatchString(column) {
			return ErrInvalidSearchConfig.Withf("where column %q is not a valid identifier", column)
		}
	}
	return nil
}

func validateRelations(rels map[string]RelationSpec, depth int) error {
	if len(rels) == 0 {
		return nil
	}
	if depth > MaxRelationDepth {
		return ErrInvalidSearchConfig.Withf("relations nested deeper than %d levels", MaxRelationDepth)
	}
	for name, rel := range rels {
		if !identifierPattern.MatchString(name) {
			return ErrInvalidSearchConfig.Withf("relation name %q is not a valid identifier", name)
		}
		if err := validate.Struct(rel); err != nil {
			return ErrInvalidSearchConfig.Withf("relation %q: %v", name, err)
		}
		if err := validateColumns(rel.Columns); err != nil {
			return err
		}
		if err := validateWheres(rel.Wheres); err != nil {
			return err
		}
		if err := validateRelations(rel.Relations, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// SortedKeys returns map keys in lexical order for deterministic query text.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DefaultKey derives a bucket key from a type name: BlogPost becomes blogposts.
func DefaultKey(typeName string) string {
	return plural.Plural(strings.ToLower(typeName))
}

// DefaultTable derives a table name from a type name: BlogPost becomes blog_posts.
func DefaultTable(typeName string) string {
	return plural.Plural(snakeCase(typeName))
}

var plural = pluralize.NewClient()

func snakeCase(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Describe resolves the registration config of an entity: it clones the
// declared config, fills the defaults an entity may leave out and validates
// the result.
func Describe(entity Searchable, typeName string) (SearchConfig, error) {
	cfg := entity.SearchConfig().Clone()

	if cfg.Key == "" {
		cfg.Key = DefaultKey(typeName)
	}
	if cfg.Table == "" {
		if tn, ok := entity.(TableNamer); ok {
			cfg.Table = tn.TableName()
		} else {
			cfg.Table = DefaultTable(typeName)
		}
	}
	if cfg.PrimaryKey == "" {
		cfg.PrimaryKey = "id"
	}
	if cfg.SoftDeleteColumn == "" {
		if sd, ok := entity.(SoftDeletable); ok {
			cfg.SoftDeleteColumn = sd.SoftDeleteColumn()
		}
	}
	cfg.Relations = defaultJoins(cfg.Relations, cfg.PrimaryKey)

	if err := cfg.Validate(); err != nil {
		return SearchConfig{}, err
	}
	return cfg, nil
}

func defaultJoins(rels map[string]RelationSpec, parentKey string) map[string]RelationSpec {
	for name, rel := range rels {
		if rel.Join.ParentColumn == "" {
			rel.Join.ParentColumn = parentKey
		}
		rel.Relations = defaultJoins(rel.Relations, "id")
		rels[name] = rel
	}
	return rels
}

package domain

import "strings"

// WherePath addresses a constant filter on a registered entity. Relations
// lists the relation chain from the entity's base table down to the table
// that owns Column.
type WherePath struct {
	Entity    string
	Relations []string
	Column    string
}

// ParseWherePath reads the dotted form "entity.relation...column".
// "products.category.name" targets column name of relation category on the
// products registration; "products.status" targets the base table.
func ParseWherePath(s string) (WherePath, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return WherePath{}, ErrInvalidWherePath.Withf("%q needs at least an entity key and a column", s)
	}
	for _, p := range parts {
		if p == "" {
			return WherePath{}, ErrInvalidWherePath.Withf("%q has an empty segment", s)
		}
	}

	return WherePath{
		Entity:    parts[0],
		Relations: parts[1 : len(parts)-1],
		Column:    parts[len(parts)-1],
	}, nil
}

func (p WherePath) String() string {
	segments := append([]string{p.Entity}, p.Relations...)
	return strings.Join(append(segments, p.Column), ".")
}

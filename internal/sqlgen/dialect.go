// Package sqlgen renders predicate trees as parameterized SQL.
package sqlgen

import (
	"fmt"
	"strconv"
	"strings"
)

// LikeEscape is the escape character used in every generated LIKE pattern.
const LikeEscape = '!'

// Dialect captures the SQL differences between the supported stores.
type Dialect struct {
	Name string
	// Numbered placeholders ($1, $2, ...) instead of "?".
	Numbered bool
	// Quote wraps identifiers.
	Quote byte
	// Like is the case-insensitive pattern operator.
	Like string
	// TextCast wraps keyword-matched columns in CAST(... AS TEXT). Postgres
	// does not coerce non-text columns to compare with a text keyword.
	TextCast bool
}

var (
	// Postgres is used with pgx, which expects numbered placeholders.
	Postgres = Dialect{Name: "pgx", Numbered: true, Quote: '"', Like: "ILIKE", TextCast: true}
	// GormPostgres is Postgres behind GORM, which rewrites "?" itself.
	GormPostgres = Dialect{Name: "postgres", Quote: '"', Like: "ILIKE", TextCast: true}
	// MySQL compares case-insensitively under its default collations.
	MySQL = Dialect{Name: "mysql", Quote: '`', Like: "LIKE"}
	// SQLite LIKE is case-insensitive for ASCII.
	SQLite = Dialect{Name: "sqlite", Quote: '"', Like: "LIKE"}
)

// DialectFor returns the dialect of a configured database driver.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "", Postgres.Name:
		return Postgres, nil
	case GormPostgres.Name:
		return GormPostgres, nil
	case MySQL.Name:
		return MySQL, nil
	case SQLite.Name:
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Placeholder returns the bind marker for the n-th argument (1-based).
func (d Dialect) Placeholder(n int) string {
	if d.Numbered {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

// QuoteIdent quotes a single identifier. Identifiers are validated at
// registration, so embedded quote characters are only doubled for safety.
func (d Dialect) QuoteIdent(name string) string {
	q := string(d.Quote)
	return q + strings.ReplaceAll(name, q, q+q) + q
}

// EscapeLike escapes the pattern metacharacters of s for use with LikeEscape.
func EscapeLike(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case LikeEscape, '%', '_':
			b.WriteRune(LikeEscape)
		}
		b.WriteRune(r)
	}
	return b.String()
}

package sqlgen

import (
	"strconv"
	"strings"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/predicate"
)

// Query is a SQL statement with its bind arguments.
type Query struct {
	SQL  string
	Args []any
}

type compiler struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (c *compiler) bind(v any) string {
	c.args = append(c.args, v)
	return c.d.Placeholder(len(c.args))
}

func (c *compiler) ref(r predicate.Ref) string {
	return r.Alias + "." + c.d.QuoteIdent(r.Column)
}

func (c *compiler) table(t predicate.Table) string {
	return c.d.QuoteIdent(t.Name) + " AS " + t.Alias
}

func (c *compiler) from(cfg domain.SearchConfig) {
	c.sb.WriteString(" FROM ")
	c.sb.WriteString(c.table(predicate.Table{Name: cfg.Table, Alias: predicate.BaseAlias}))
}

func (c *compiler) where(n predicate.Node) {
	if predicate.MatchesAll(n) {
		return
	}
	c.sb.WriteString(" WHERE ")
	c.node(n)
}

func (c *compiler) node(n predicate.Node) {
	switch v := n.(type) {
	case predicate.And:
		c.group(v, " AND ", "1 = 1")
	case predicate.Or:
		c.group(v, " OR ", "1 = 0")
	case predicate.Eq:
		if v.Value == nil {
			c.sb.WriteString(c.ref(v.Column) + " IS NULL")
			return
		}
		col := c.ref(v.Column)
		if v.Text {
			col = c.text(v.Column)
		}
		c.sb.WriteString(col + " = " + c.bind(v.Value))
	case predicate.Contains:
		pattern := "%" + EscapeLike(v.Value) + "%"
		c.sb.WriteString(c.text(v.Column) + " " + c.d.Like + " " + c.bind(pattern) + " ESCAPE '" + string(LikeEscape) + "'")
	case predicate.IsNull:
		c.sb.WriteString(c.ref(v.Column) + " IS NULL")
	case predicate.ColumnsEqual:
		c.sb.WriteString(c.ref(v.Left) + " = " + c.ref(v.Right))
	case predicate.Exists:
		c.sb.WriteString("EXISTS (SELECT 1 FROM " + c.table(v.From))
		for _, j := range v.Joins {
			c.sb.WriteString(" INNER JOIN " + c.table(j.Table) + " ON ")
			c.node(j.On)
		}
		c.where(v.Where)
		c.sb.WriteString(")")
	}
}

// text renders a column compared against the keyword.
func (c *compiler) text(r predicate.Ref) string {
	if c.d.TextCast {
		return "CAST(" + c.ref(r) + " AS TEXT)"
	}
	return c.ref(r)
}

func (c *compiler) group(children []predicate.Node, sep, empty string) {
	switch len(children) {
	case 0:
		c.sb.WriteString(empty)
	case 1:
		c.node(children[0])
	default:
		for i, child := range children {
			if i > 0 {
				c.sb.WriteString(sep)
			}
			if compound(child) {
				c.sb.WriteString("(")
				c.node(child)
				c.sb.WriteString(")")
				continue
			}
			c.node(child)
		}
	}
}

func compound(n predicate.Node) bool {
	switch v := n.(type) {
	case predicate.And:
		return len(v) > 1
	case predicate.Or:
		return len(v) > 1
	}
	return false
}

func (c *compiler) orderBy(cfg domain.SearchConfig) {
	order := cfg.OrderBy
	hasKey := false
	for _, o := range order {
		if o.Column == cfg.PrimaryKey {
			hasKey = true
		}
	}
	if !hasKey {
		order = append(append([]domain.OrderSpec(nil), order...), domain.OrderSpec{Column: cfg.PrimaryKey})
	}

	c.sb.WriteString(" ORDER BY ")
	for i, o := range order {
		if i > 0 {
			c.sb.WriteString(", ")
		}
		c.sb.WriteString(c.ref(predicate.Ref{Alias: predicate.BaseAlias, Column: o.Column}))
		if o.Desc {
			c.sb.WriteString(" DESC")
		} else {
			c.sb.WriteString(" ASC")
		}
	}
}

// Where renders only the condition of n, without the WHERE keyword.
// It returns an empty string when n matches every row.
func Where(d Dialect, n predicate.Node) Query {
	c := &compiler{d: d}
	if !predicate.MatchesAll(n) {
		c.node(n)
	}
	return Query{SQL: c.sb.String(), Args: c.args}
}

// Select renders one page of matching base rows. The primary key is always
// the last ordering term so pages are stable.
func Select(d Dialect, cfg domain.SearchConfig, n predicate.Node, limit, offset int) Query {
	c := &compiler{d: d}
	c.sb.WriteString("SELECT " + predicate.BaseAlias + ".*")
	c.from(cfg)
	c.where(n)
	c.orderBy(cfg)
	c.sb.WriteString(" LIMIT " + strconv.Itoa(limit) + " OFFSET " + strconv.Itoa(offset))
	return Query{SQL: c.sb.String(), Args: c.args}
}

// Count renders the number of matching base rows.
func Count(d Dialect, cfg domain.SearchConfig, n predicate.Node) Query {
	c := &compiler{d: d}
	c.sb.WriteString("SELECT COUNT(*)")
	c.from(cfg)
	c.where(n)
	return Query{SQL: c.sb.String(), Args: c.args}
}

// Package predicate turns a search config and a keyword into a tree of
// filter conditions. The tree is storage agnostic; see package sqlgen for
// rendering it as SQL.
package predicate

// Node is one condition in a predicate tree.
type Node interface {
	node()
}

// Ref is a column qualified by the alias of the table it belongs to.
type Ref struct {
	Alias  string
	Column string
}

// And holds when every child holds. An empty And matches all rows.
type And []Node

// Or holds when any child holds. An empty Or is never produced by Build.
type Or []Node

// Eq compares a column with a literal value. Text marks a keyword match,
// which compares the column's text form.
type Eq struct {
	Column Ref
	Value  any
	Text   bool
}

// Contains holds when the column contains Value as a case-insensitive substring.
type Contains struct {
	Column Ref
	Value  string
}

// IsNull holds when the column is NULL.
type IsNull struct {
	Column Ref
}

// ColumnsEqual compares two columns, typically to correlate a subquery with its parent.
type ColumnsEqual struct {
	Left  Ref
	Right Ref
}

// Table is a table reference with its alias.
type Table struct {
	Name  string
	Alias string
}

// InnerJoin joins an extra table inside an Exists subquery.
type InnerJoin struct {
	Table Table
	On    Node
}

// Exists holds when at least one row of From, joined with Joins, satisfies Where.
type Exists struct {
	From  Table
	Joins []InnerJoin
	Where Node
}

func (And) node()          {}
func (Or) node()           {}
func (Eq) node()           {}
func (Contains) node()     {}
func (IsNull) node()       {}
func (ColumnsEqual) node() {}
func (Exists) node()       {}

// MatchesAll reports whether n places no restriction on rows.
func MatchesAll(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case And:
		for _, child := range v {
			if !MatchesAll(child) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

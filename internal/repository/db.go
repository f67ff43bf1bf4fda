package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserDirectory names the users table that search log user ids point at. A
// Table alone lets the audit check the table exists; with NameColumn the
// listing also joins the user's display name.
type UserDirectory struct {
	Table      string
	NameColumn string
}

func (u UserDirectory) enabled() bool {
	return u.Table != "" && u.NameColumn != ""
}

package repository

import (
	"context"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/predicate"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/sqlgen"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

// EntityRepository runs entity searches on Postgres through pgx.
type EntityRepository struct {
	db dbtx
}

func NewEntityRepository(pool *pgxpool.Pool) *EntityRepository {
	return &EntityRepository{db: pool}
}

func NewEntityRepositoryWithTx(tx pgx.Tx) *EntityRepository {
	return &EntityRepository{db: tx}
}

func (r *EntityRepository) FetchPage(ctx context.Context, cfg domain.SearchConfig, where predicate.Node, limit, offset int) ([]service.Row, error) {
	q := sqlgen.Select(sqlgen.Postgres, cfg, where, limit, offset)
	rows, err := r.db.Query(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	var out []service.Row
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make(service.Row, len(fields))
		for i, fd := range fields {
			row[fd.Name] = normalizePgValue(values[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *EntityRepository) Count(ctx context.Context, cfg domain.SearchConfig, where predicate.Node) (int64, error) {
	q := sqlgen.Count(sqlgen.Postgres, cfg, where)
	var n int64
	if err := r.db.QueryRow(ctx, q.SQL, q.Args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (r *EntityRepository) Explain(cfg domain.SearchConfig, where predicate.Node, limit, offset int) string {
	return sqlgen.Inline(sqlgen.Postgres, sqlgen.Select(sqlgen.Postgres, cfg, where, limit, offset))
}

// normalizePgValue converts pgx native values that do not encode to JSON
// naturally.
func normalizePgValue(v any) any {
	switch x := v.(type) {
	case [16]byte:
		return uuid.UUID(x).String()
	case pgtype.Numeric:
		if !x.Valid {
			return nil
		}
		f, err := x.Float64Value()
		if err != nil || !f.Valid {
			return nil
		}
		return f.Float64
	case []byte:
		return string(x)
	default:
		return v
	}
}

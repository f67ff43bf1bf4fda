package repository

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/predicate"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/sqlgen"
	"gorm.io/gorm"
)

// GormEntityRepository runs entity searches through GORM, for the postgres,
// mysql and sqlite drivers.
type GormEntityRepository struct {
	db      *gorm.DB
	dialect sqlgen.Dialect
}

func NewGormEntityRepository(db *gorm.DB) (*GormEntityRepository, error) {
	dialect, err := sqlgen.DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	if dialect.Numbered {
		return nil, fmt.Errorf("gorm dialect %q must use positional placeholders", dialect.Name)
	}
	return &GormEntityRepository{db: db, dialect: dialect}, nil
}

func (r *GormEntityRepository) FetchPage(ctx context.Context, cfg domain.SearchConfig, where predicate.Node, limit, offset int) ([]service.Row, error) {
	q := sqlgen.Select(r.dialect, cfg, where, limit, offset)

	var records []map[string]any
	if err := r.db.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&records).Error; err != nil {
		return nil, err
	}

	out := make([]service.Row, 0, len(records))
	for _, record := range records {
		row := make(service.Row, len(record))
		for k, v := range record {
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[k] = v
		}
		out = append(out, row)
	}
	return out, nil
}

func (r *GormEntityRepository) Count(ctx context.Context, cfg domain.SearchConfig, where predicate.Node) (int64, error) {
	q := sqlgen.Count(r.dialect, cfg, where)
	var n int64
	if err := r.db.WithContext(ctx).Raw(q.SQL, q.Args...).Scan(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func (r *GormEntityRepository) Explain(cfg domain.SearchConfig, where predicate.Node, limit, offset int) string {
	return sqlgen.Inline(r.dialect, sqlgen.Select(r.dialect, cfg, where, limit, offset))
}

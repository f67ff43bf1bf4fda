package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/sqlgen"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SearchLogRepository stores the search audit log in Postgres.
type SearchLogRepository struct {
	db    dbtx
	users UserDirectory
}

func NewSearchLogRepository(pool *pgxpool.Pool, users UserDirectory) *SearchLogRepository {
	return &SearchLogRepository{db: pool, users: users}
}

func (r *SearchLogRepository) Append(ctx context.Context, log *domain.SearchLog) error {
	return r.db.QueryRow(ctx,
		`INSERT INTO search_logs (user_id, query, results_found, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		log.UserID, log.Query, log.ResultsFound, log.CreatedAt, log.UpdatedAt,
	).Scan(&log.ID)
}

func (r *SearchLogRepository) List(ctx context.Context, q service.SearchLogQuery) (*service.SearchLogPage, error) {
	page := &service.SearchLogPage{Items: []domain.SearchLogView{}}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM search_logs`).Scan(&page.Total); err != nil {
		return nil, err
	}

	from, filter, args := r.listClauses(q.Search)
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) `+from+filter, args...).Scan(&page.Filtered); err != nil {
		return nil, err
	}

	userName := "NULL"
	if r.users.enabled() {
		userName = "u." + sqlgen.Postgres.QuoteIdent(r.users.NameColumn)
	}
	order := `l.created_at DESC, l.id DESC`
	if q.BeforeID > 0 {
		args = append(args, q.BeforeID)
		cond := fmt.Sprintf(`l.id < $%d`, len(args))
		if filter == "" {
			filter = ` WHERE ` + cond
		} else {
			filter += ` AND ` + cond
		}
		order = `l.id DESC`
	}
	args = append(args, q.Limit, q.Offset)
	rows, err := r.db.Query(ctx,
		fmt.Sprintf(`SELECT l.id, l.user_id, l.query, l.results_found, l.created_at, l.updated_at, %s %s%s
		 ORDER BY %s
		 LIMIT $%d OFFSET $%d`, userName, from, filter, order, len(args)-1, len(args)),
		args...,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var v domain.SearchLogView
		var name *string
		if err := rows.Scan(&v.ID, &v.UserID, &v.Query, &v.ResultsFound, &v.CreatedAt, &v.UpdatedAt, &name); err != nil {
			return nil, err
		}
		v.UserName = name
		page.Items = append(page.Items, v)
	}
	return page, rows.Err()
}

// listClauses builds the FROM and WHERE parts shared by the filtered count
// and the window query.
func (r *SearchLogRepository) listClauses(search string) (string, string, []any) {
	from := `FROM search_logs l`
	if r.users.enabled() {
		from += ` LEFT JOIN ` + sqlgen.Postgres.QuoteIdent(r.users.Table) + ` u ON u.id = l.user_id`
	}

	search = strings.TrimSpace(search)
	if search == "" {
		return from, "", nil
	}

	pattern := "%" + sqlgen.EscapeLike(search) + "%"
	filter := ` WHERE l.query ILIKE $1 ESCAPE '!'`
	if r.users.enabled() {
		filter = ` WHERE (l.query ILIKE $1 ESCAPE '!' OR u.` + sqlgen.Postgres.QuoteIdent(r.users.NameColumn) + ` ILIKE $1 ESCAPE '!')`
	}
	return from, filter, []any{pattern}
}

func (r *SearchLogRepository) HasUserTable(ctx context.Context) (bool, error) {
	if r.users.Table == "" {
		return false, nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT to_regclass($1) IS NOT NULL`, r.users.Table).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *SearchLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM search_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

package repository

import (
	"context"
	"strings"
	"time"

	"github.com/cloo-solutions/finder/internal/database"
	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/cloo-solutions/finder/internal/sqlgen"
	"gorm.io/gorm"
)

// GormSearchLogRepository stores the search audit log through GORM.
type GormSearchLogRepository struct {
	db      *gorm.DB
	dialect sqlgen.Dialect
	users   UserDirectory
}

func NewGormSearchLogRepository(db *gorm.DB, users UserDirectory) (*GormSearchLogRepository, error) {
	dialect, err := sqlgen.DialectFor(db.Dialector.Name())
	if err != nil {
		return nil, err
	}
	return &GormSearchLogRepository{db: db, dialect: dialect, users: users}, nil
}

func (r *GormSearchLogRepository) Append(ctx context.Context, log *domain.SearchLog) error {
	model := database.SearchLogModel{
		UserID:       log.UserID,
		Query:        log.Query,
		ResultsFound: log.ResultsFound,
		CreatedAt:    log.CreatedAt,
		UpdatedAt:    log.UpdatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return err
	}
	log.ID = model.ID
	return nil
}

type searchLogRow struct {
	ID           int64
	UserID       *int64
	Query        string
	ResultsFound int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
	UserName     *string
}

func (r *GormSearchLogRepository) List(ctx context.Context, q service.SearchLogQuery) (*service.SearchLogPage, error) {
	db := r.db.WithContext(ctx)
	page := &service.SearchLogPage{Items: []domain.SearchLogView{}}

	if err := db.Model(&database.SearchLogModel{}).Count(&page.Total).Error; err != nil {
		return nil, err
	}

	if err := r.filtered(db, q.Search).Count(&page.Filtered).Error; err != nil {
		return nil, err
	}

	userName := "NULL"
	if r.users.enabled() {
		userName = "u." + r.dialect.QuoteIdent(r.users.NameColumn)
	}

	window := r.filtered(db, q.Search).
		Select("l.id, l.user_id, l.query, l.results_found, l.created_at, l.updated_at, " + userName + " AS user_name")
	if q.BeforeID > 0 {
		window = window.Where("l.id < ?", q.BeforeID).Order("l.id DESC")
	} else {
		window = window.Order("l.created_at DESC, l.id DESC")
	}

	var rows []searchLogRow
	err := window.
		Limit(q.Limit).
		Offset(q.Offset).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		page.Items = append(page.Items, domain.SearchLogView{
			SearchLog: domain.SearchLog{
				ID:           row.ID,
				UserID:       row.UserID,
				Query:        row.Query,
				ResultsFound: row.ResultsFound,
				CreatedAt:    row.CreatedAt,
				UpdatedAt:    row.UpdatedAt,
			},
			UserName: row.UserName,
		})
	}
	return page, nil
}

// filtered returns the joined and filtered listing query shared by the
// filtered count and the window, so both agree.
func (r *GormSearchLogRepository) filtered(db *gorm.DB, search string) *gorm.DB {
	tx := db.Table(database.SearchLogsTable + " AS l")
	if r.users.enabled() {
		tx = tx.Joins("LEFT JOIN " + r.dialect.QuoteIdent(r.users.Table) + " u ON u.id = l.user_id")
	}
	if cond, args := r.searchCondition(search); cond != "" {
		tx = tx.Where(cond, args...)
	}
	return tx
}

func (r *GormSearchLogRepository) HasUserTable(ctx context.Context) (bool, error) {
	if r.users.Table == "" {
		return false, nil
	}
	return r.db.WithContext(ctx).Migrator().HasTable(r.users.Table), nil
}

func (r *GormSearchLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("created_at < ?", cutoff.UTC()).Delete(&database.SearchLogModel{})
	return res.RowsAffected, res.Error
}

func (r *GormSearchLogRepository) searchCondition(search string) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	pattern := "%" + sqlgen.EscapeLike(search) + "%"
	like := r.dialect.Like
	if r.users.enabled() {
		return "(l.query " + like + " ? ESCAPE '!' OR u." + r.dialect.QuoteIdent(r.users.NameColumn) + " " + like + " ? ESCAPE '!')", []any{pattern, pattern}
	}
	return "l.query " + like + " ? ESCAPE '!'", []any{pattern}
}

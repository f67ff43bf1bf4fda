package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/metrics"
	"go.uber.org/zap"
)

const exportBatchSize = 500

// SearchLogQuery selects a window of the admin listing.
type SearchLogQuery struct {
	// Search filters by query text or user name, case-insensitively.
	Search string
	Offset int
	Limit  int
	// BeforeID, when positive, keeps only logs with a smaller id and orders
	// the window by id descending. Exports page with it instead of Offset.
	BeforeID int64
}

// SearchLogPage is one window of the admin listing, newest first.
type SearchLogPage struct {
	Total    int64
	Filtered int64
	Items    []domain.SearchLogView
}

// SearchLogRepository is the audit store: the append side used by searches
// plus the read and retention side used by admins.
type SearchLogRepository interface {
	SearchLogSink
	List(ctx context.Context, q SearchLogQuery) (*SearchLogPage, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// SearchLogService serves the admin side of the audit log.
type SearchLogService struct {
	repo   SearchLogRepository
	logger *zap.Logger
}

// NewSearchLogService creates a SearchLogService.
func NewSearchLogService(repo SearchLogRepository, logger *zap.Logger) *SearchLogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchLogService{repo: repo, logger: logger}
}

// List returns a window of search logs.
func (s *SearchLogService) List(ctx context.Context, q SearchLogQuery) (*SearchLogPage, error) {
	if q.Offset < 0 || q.Limit < 1 || q.BeforeID < 0 {
		return nil, domain.ErrInvalidPagination.Withf("offset %d, limit %d", q.Offset, q.Limit)
	}

	page, err := s.repo.List(ctx, q)
	if err != nil {
		return nil, domain.ErrStoreUnavailable.Wrap(fmt.Errorf("list search logs: %w", err))
	}
	return page, nil
}

// Prune deletes search logs created before cutoff and reports how many went.
func (s *SearchLogService) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.DeleteBefore(ctx, cutoff)
	if err != nil {
		return 0, domain.ErrStoreUnavailable.Wrap(fmt.Errorf("prune search logs: %w", err))
	}
	metrics.SearchLogsPruned.Add(float64(n))
	s.logger.Info("pruned search logs", zap.Time("cutoff", cutoff), zap.Int64("deleted", n))
	return n, nil
}

// WriteCSV streams every search log, highest id first, as CSV with a header
// row. Batches continue below the last id written, so rows appended during
// the export are not repeated. It returns the number of data rows written.
func (s *SearchLogService) WriteCSV(ctx context.Context, w io.Writer) (int, error) {
	out := csv.NewWriter(w)
	if err := out.Write([]string{"id", "query", "results_found", "user_id", "user_name", "created_at"}); err != nil {
		return 0, err
	}

	written := 0
	cursor := int64(math.MaxInt64)
	for {
		page, err := s.List(ctx, SearchLogQuery{BeforeID: cursor, Limit: exportBatchSize})
		if err != nil {
			return written, err
		}

		for _, item := range page.Items {
			record := []string{
				strconv.FormatInt(item.ID, 10),
				item.Query,
				strconv.FormatInt(item.ResultsFound, 10),
				"",
				"",
				item.CreatedAt.UTC().Format(time.RFC3339),
			}
			if item.UserID != nil {
				record[3] = strconv.FormatInt(*item.UserID, 10)
			}
			if item.UserName != nil {
				record[4] = *item.UserName
			}
			if err := out.Write(record); err != nil {
				return written, err
			}
			written++
			cursor = item.ID
		}

		if len(page.Items) < exportBatchSize {
			break
		}
	}

	out.Flush()
	return written, out.Error()
}

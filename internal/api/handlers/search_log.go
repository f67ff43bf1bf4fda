package handlers

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cloo-solutions/finder/internal/api"
	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"go.uber.org/zap"
)

const (
	defaultFeedLength = 10
	maxFeedLength     = 100
	htmlPreviewLength = 25
)

//go:embed templates/*.html
var templatesFS embed.FS

var searchLogsPage = template.Must(template.New("search_logs.html").Funcs(template.FuncMap{
	"deref": func(s *string) string { return *s },
}).ParseFS(templatesFS, "templates/search_logs.html"))

type SearchLogService interface {
	List(ctx context.Context, q service.SearchLogQuery) (*service.SearchLogPage, error)
	WriteCSV(ctx context.Context, w io.Writer) (int, error)
}

type SearchLogHandler struct {
	svc       SearchLogService
	showUsers bool
	logger    *zap.Logger
}

// NewSearchLogHandler creates a SearchLogHandler. showUsers adds the user name
// column to the listing.
func NewSearchLogHandler(svc SearchLogService, showUsers bool, logger *zap.Logger) *SearchLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchLogHandler{svc: svc, showUsers: showUsers, logger: logger}
}

type searchLogsView struct {
	Title     string
	FeedURL   string
	ShowUsers bool
	Total     int64
	Items     []domain.SearchLogView
}

// Index renders the admin listing with the newest rows inline; the table
// pages further through Pagination.
func (h *SearchLogHandler) Index(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.List(r.Context(), service.SearchLogQuery{Limit: htmlPreviewLength})
	if err != nil {
		h.logger.Error("list search logs failed", zap.Error(err))
		api.HandleError(w, err)
		return
	}

	view := searchLogsView{
		Title:     "Search logs",
		FeedURL:   "/admin/search/pagination",
		ShowUsers: h.showUsers,
		Total:     page.Total,
		Items:     page.Items,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := searchLogsPage.Execute(w, view); err != nil {
		h.logger.Error("render search logs failed", zap.Error(err))
	}
}

type PaginationResponse struct {
	Draw            int             `json:"draw"`
	RecordsTotal    int64           `json:"recordsTotal"`
	RecordsFiltered int64           `json:"recordsFiltered"`
	Data            []SearchLogItem `json:"data"`
}

type SearchLogItem struct {
	ID           int64   `json:"id"`
	Query        string  `json:"query"`
	UserName     *string `json:"user_name,omitempty"`
	ResultsFound int64   `json:"results_found"`
	CreatedAt    string  `json:"created_at"`
}

// Pagination serves the DataTables server-side feed: draw, start, length and
// search[value] in, draw, recordsTotal, recordsFiltered and data out.
func (h *SearchLogHandler) Pagination(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	draw, err := nonNegative(q, "draw", 0)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	start, err := nonNegative(q, "start", 0)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	length, err := nonNegative(q, "length", defaultFeedLength)
	if err != nil {
		api.HandleError(w, err)
		return
	}
	// DataTables sends -1 for "all"; cap every window.
	if length == 0 || length > maxFeedLength {
		length = maxFeedLength
	}

	page, err := h.svc.List(r.Context(), service.SearchLogQuery{
		Search: q.Get("search[value]"),
		Offset: start,
		Limit:  length,
	})
	if err != nil {
		h.logger.Error("search log feed failed", zap.Error(err))
		api.HandleError(w, err)
		return
	}

	resp := PaginationResponse{
		Draw:            draw,
		RecordsTotal:    page.Total,
		RecordsFiltered: page.Filtered,
		Data:            make([]SearchLogItem, 0, len(page.Items)),
	}
	for _, item := range page.Items {
		row := SearchLogItem{
			ID:           item.ID,
			Query:        item.Query,
			ResultsFound: item.ResultsFound,
			CreatedAt:    item.CreatedAt.UTC().Format(time.RFC3339),
		}
		if h.showUsers {
			row.UserName = item.UserName
		}
		resp.Data = append(resp.Data, row)
	}

	api.JSON(w, http.StatusOK, resp)
}

// Export streams every search log as CSV.
func (h *SearchLogHandler) Export(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="search_logs_%s.csv"`, time.Now().UTC().Format("20060102")))

	n, err := h.svc.WriteCSV(r.Context(), w)
	if err != nil {
		// Headers are already out once a row was written.
		h.logger.Error("export search logs failed", zap.Int("rows", n), zap.Error(err))
		if n == 0 {
			w.Header().Del("Content-Disposition")
			api.HandleError(w, err)
		}
		return
	}
	h.logger.Info("exported search logs", zap.Int("rows", n))
}

// nonNegative reads an integer parameter. The DataTables "all" value -1 reads as 0.
func nonNegative(q url.Values, name string, fallback int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < -1 {
		return 0, domain.ErrInvalidPagination.Withf("%s must be a non-negative integer, got %q", name, raw)
	}
	if n == -1 {
		return 0, nil
	}
	return n, nil
}

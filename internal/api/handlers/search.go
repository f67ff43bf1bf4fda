package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/cloo-solutions/finder/internal/api"
	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"go.uber.org/zap"
)

type SearchService interface {
	Search(ctx context.Context, req service.SearchRequest) (*service.Results, error)
}

type SearchHandler struct {
	svc        SearchService
	maxPerPage int
	logger     *zap.Logger
}

// NewSearchHandler creates a SearchHandler. A per_page above maxPerPage is
// clamped to it.
func NewSearchHandler(svc SearchService, maxPerPage int, logger *zap.Logger) *SearchHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchHandler{svc: svc, maxPerPage: maxPerPage, logger: logger}
}

// Search handles GET /search?q=&type=&where[path]=&page=&per_page=&queries=&no_log=
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	req, err := h.parseRequest(r.URL.Query())
	if err != nil {
		api.HandleError(w, err)
		return
	}

	results, err := h.svc.Search(r.Context(), req)
	if err != nil {
		var domainErr *domain.DomainError
		if !errors.As(err, &domainErr) || domainErr.Code != domain.ErrCodeValidation {
			h.logger.Error("search failed", zap.String("keyword", req.Keyword), zap.Strings("types", req.Types), zap.Error(err))
		}
		api.HandleError(w, err)
		return
	}

	api.JSON(w, http.StatusOK, results)
}

func (h *SearchHandler) parseRequest(q url.Values) (service.SearchRequest, error) {
	req := service.SearchRequest{
		Keyword: strings.TrimSpace(q.Get("q")),
		Types:   splitList(q["type"]),
	}

	for key, values := range q {
		if !strings.HasPrefix(key, "where[") || !strings.HasSuffix(key, "]") || len(values) == 0 {
			continue
		}
		if req.Wheres == nil {
			req.Wheres = make(map[string]string)
		}
		req.Wheres[key[len("where["):len(key)-1]] = values[len(values)-1]
	}

	var err error
	if req.Page, err = intParam(q, "page"); err != nil {
		return req, err
	}
	if req.PerPage, err = intParam(q, "per_page"); err != nil {
		return req, err
	}
	if h.maxPerPage > 0 && req.PerPage > h.maxPerPage {
		req.PerPage = h.maxPerPage
	}
	if req.WithQueries, err = boolParam(q, "queries"); err != nil {
		return req, err
	}
	if req.NoLog, err = boolParam(q, "no_log"); err != nil {
		return req, err
	}
	return req, nil
}

// splitList accepts both repeated and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func intParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.ErrInvalidPagination.Withf("%s must be a positive integer, got %q", name, raw)
	}
	return n, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewDomainError(domain.ErrCodeValidation, name+" must be a boolean")
	}
	return b, nil
}

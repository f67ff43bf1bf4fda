package server

import (
	"net/http"

	"github.com/cloo-solutions/finder/internal/api"
	"github.com/cloo-solutions/finder/internal/api/handlers"
	"github.com/cloo-solutions/finder/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type RouterConfig struct {
	TokenValidator   middleware.TokenValidator
	SearchHandler    *handlers.SearchHandler
	SearchLogHandler *handlers.SearchLogHandler
	Logger           *zap.Logger
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const (
		maxBodyBytes  int64 = 1 * 1024 * 1024
		maxQueryBytes       = 8 * 1024
	)

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(logger))
	r.Use(middleware.Prometheus)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))
	r.Use(middleware.MaxQueryBytes(maxQueryBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.OptionalTokenAuth(cfg.TokenValidator))
		r.Get("/search", cfg.SearchHandler.Search)
	})

	// The audit routes only exist when the audit table does.
	if cfg.SearchLogHandler != nil {
		r.Route("/admin/search", func(r chi.Router) {
			r.Use(middleware.TokenAuth(cfg.TokenValidator))
			r.Get("/", cfg.SearchLogHandler.Index)
			r.Get("/pagination", cfg.SearchLogHandler.Pagination)
			r.Get("/export.csv", cfg.SearchLogHandler.Export)
		})
	}

	return r
}

package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/predicate"
	"go.uber.org/zap"
)

// DefaultPerPage applies when no page size is configured.
const DefaultPerPage = 20

// EntityRepository executes built predicates against the entity store.
type EntityRepository interface {
	FetchPage(ctx context.Context, cfg domain.SearchConfig, where predicate.Node, limit, offset int) ([]Row, error)
	Count(ctx context.Context, cfg domain.SearchConfig, where predicate.Node) (int64, error)
	// Explain renders the page query with its arguments inlined, for display.
	Explain(cfg domain.SearchConfig, where predicate.Node, limit, offset int) string
}

// SearchLogSink receives one audit row per logged search.
type SearchLogSink interface {
	Append(ctx context.Context, log *domain.SearchLog) error
	// HasUserTable reports whether the users table that logged user ids
	// refer to exists. Without it user ids are not recorded.
	HasUserTable(ctx context.Context) (bool, error)
}

// Switches are the audit settings. Implementations may re-read their source
// on every call, so a change takes effect without a restart.
type Switches interface {
	SearchLogsEnabled() bool
	LogUserIDs() bool
}

// SearchService is the long-lived entry point for keyword searches. It holds
// no per-request state; every request works on its own Finder.
type SearchService struct {
	registry *Registry
	entities EntityRepository
	logs     SearchLogSink
	switches Switches
	tx       TxRunner
	perPage  int
	logger   *zap.Logger
	now      func() time.Time
}

// NewSearchService creates a SearchService. perPage below 1 falls back to DefaultPerPage.
func NewSearchService(
	registry *Registry,
	entities EntityRepository,
	logs SearchLogSink,
	switches Switches,
	perPage int,
	logger *zap.Logger,
) *SearchService {
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SearchService{
		registry: registry,
		entities: entities,
		logs:     logs,
		switches: switches,
		perPage:  perPage,
		logger:   logger,
		now:      time.Now,
	}
}

// UseSnapshots makes every bucket read its page and count inside one
// transaction from runner. Without it the two reads may see different data.
func (s *SearchService) UseSnapshots(runner TxRunner) *SearchService {
	s.tx = runner
	return s
}

// Registry returns the registry the service resolves entity names through.
func (s *SearchService) Registry() *Registry {
	return s.registry
}

// NewFinder starts a new search with default pagination and logging enabled.
func (s *SearchService) NewFinder() *Finder {
	return &Finder{
		svc:     s,
		index:   make(map[string]int),
		page:    1,
		perPage: s.perPage,
		logging: true,
	}
}

// SearchRequest is the transport-neutral form of one search, used by the
// HTTP handler and the CLI.
type SearchRequest struct {
	Keyword string
	// Types are registry names or bucket keys; empty means every registered entity.
	Types []string
	// Wheres maps dotted paths such as "products.category.name" to values.
	Wheres      map[string]string
	Page        int
	PerPage     int
	WithQueries bool
	NoLog       bool
}

// Search runs req on a fresh Finder.
func (s *SearchService) Search(ctx context.Context, req SearchRequest) (*Results, error) {
	types := req.Types
	if len(types) == 0 {
		types = s.registry.Names()
	}

	args := make([]any, 0, len(types))
	for _, t := range types {
		args = append(args, t)
	}

	f := s.NewFinder().Of(args...)
	for _, path := range domain.SortedKeys(req.Wheres) {
		f.WhereString(path, req.Wheres[path])
	}
	if req.Page != 0 {
		f.SetPage(req.Page)
	}
	if req.PerPage != 0 {
		f.SetRecordsPerPage(req.PerPage)
	}
	if req.WithQueries {
		f.WithQueries()
	}
	if req.NoLog {
		f.WithoutLogging()
	}

	return f.Find(ctx, req.Keyword)
}

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/metrics"
	"github.com/cloo-solutions/finder/internal/predicate"
	"github.com/cloo-solutions/finder/internal/telemetry"
	"go.uber.org/zap"
)

type registration struct {
	key string
	cfg domain.SearchConfig
}

// Finder builds and runs one multi-entity search. Builder methods return the
// Finder for chaining; the first failure is kept and returned by Find and Err,
// and later builder calls become no-ops. A Finder is not safe for concurrent use.
type Finder struct {
	svc *SearchService

	regs  []registration
	index map[string]int

	page    int
	perPage int
	logging bool
	queries bool

	err error
}

// Err returns the first error recorded by a builder method.
func (f *Finder) Err() error {
	return f.err
}

// Of registers entities for the search. Each argument is a registry name, an
// entity value or a reflect.Type of an entity type. Registering a key twice
// replaces the earlier registration but keeps its position.
func (f *Finder) Of(types ...any) *Finder {
	if f.err != nil {
		return f
	}

	for _, t := range types {
		entity, name, err := f.svc.registry.resolve(t)
		if err != nil {
			f.svc.logger.Debug("rejected searchable entity", zap.Any("entity", t))
			f.err = err
			return f
		}

		cfg, err := domain.Describe(entity, name)
		if err != nil {
			f.err = err
			return f
		}
		f.register(cfg)
	}
	return f
}

func (f *Finder) register(cfg domain.SearchConfig) {
	if i, ok := f.index[cfg.Key]; ok {
		f.regs[i].cfg = cfg
		return
	}
	f.index[cfg.Key] = len(f.regs)
	f.regs = append(f.regs, registration{key: cfg.Key, cfg: cfg})
}

// Where adds the constant filter column = value at path. The entity segment
// of path is the bucket key of a registration made earlier with Of.
func (f *Finder) Where(path domain.WherePath, value any) *Finder {
	if f.err != nil {
		return f
	}

	i, ok := f.index[path.Entity]
	if !ok {
		f.err = domain.ErrInvalidWherePath.Withf("entity %q is not registered", path.Entity)
		return f
	}

	cfg, err := f.regs[i].cfg.WithWhere(path.Relations, path.Column, value)
	if err != nil {
		f.err = err
		return f
	}
	f.regs[i].cfg = cfg
	return f
}

// WhereString is Where with a dotted path such as "products.category.name".
func (f *Finder) WhereString(path string, value any) *Finder {
	if f.err != nil {
		return f
	}

	p, err := domain.ParseWherePath(path)
	if err != nil {
		f.err = err
		return f
	}
	return f.Where(p, value)
}

// SetPage selects the 1-based page.
func (f *Finder) SetPage(page int) *Finder {
	if f.err != nil {
		return f
	}
	if page < 1 {
		f.err = domain.ErrInvalidPagination.Withf("page must be at least 1, got %d", page)
		return f
	}
	f.page = page
	return f
}

// SetRecordsPerPage sets the page size of every bucket.
func (f *Finder) SetRecordsPerPage(perPage int) *Finder {
	if f.err != nil {
		return f
	}
	if perPage < 1 {
		f.err = domain.ErrInvalidPagination.Withf("records per page must be at least 1, got %d", perPage)
		return f
	}
	f.perPage = perPage
	return f
}

// WithoutLogging skips the audit row of this search.
func (f *Finder) WithoutLogging() *Finder {
	f.logging = false
	return f
}

// WithQueries attaches the executed page query, arguments inlined, to each bucket.
func (f *Finder) WithQueries() *Finder {
	f.queries = true
	return f
}

// Find runs the search for keyword over every registration in order. Any
// store failure aborts the whole search; no partial results are returned.
// When audit logging is on and not suppressed, exactly one search log is
// appended, carrying the summed match count.
func (f *Finder) Find(ctx context.Context, keyword string) (*Results, error) {
	if f.err != nil {
		return nil, f.err
	}

	ctx, span := telemetry.StartSpan(ctx, "Finder.Find", telemetry.SpanAttributes{
		Operation: "search",
		Entities:  len(f.regs),
	})
	defer span.End()

	start := time.Now()
	results, err := f.find(ctx, keyword)
	metrics.SearchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SearchesTotal.WithLabelValues("error").Inc()
		span.SetError(err)
		fields := []zap.Field{zap.String("keyword", keyword), zap.Error(err)}
		if id := RequestID(ctx); id != "" {
			fields = append(fields, zap.String("request_id", id))
		}
		f.svc.logger.Error("search failed", fields...)
		return nil, err
	}

	metrics.SearchesTotal.WithLabelValues("ok").Inc()
	return results, nil
}

func (f *Finder) find(ctx context.Context, keyword string) (*Results, error) {
	results := newResults(f.page, f.perPage)
	offset := (f.page - 1) * f.perPage

	for _, reg := range f.regs {
		where := predicate.Build(reg.cfg, keyword)

		bucket, err := f.fetchBucket(ctx, reg, where, offset)
		if err != nil {
			return nil, err
		}

		metrics.BucketItems.WithLabelValues(reg.key).Observe(float64(bucket.TotalItems))
		results.add(reg.key, bucket)
	}

	if err := f.audit(ctx, keyword, results.TotalItems()); err != nil {
		return nil, err
	}
	return results, nil
}

// fetchBucket reads one bucket, inside a snapshot when the service has a TxRunner.
func (f *Finder) fetchBucket(ctx context.Context, reg registration, where predicate.Node, offset int) (Bucket, error) {
	if f.svc.tx == nil {
		return f.readBucket(ctx, f.svc.entities, reg, where, offset)
	}

	var bucket Bucket
	err := f.svc.tx.WithTx(ctx, func(repos TxRepositories) error {
		var err error
		bucket, err = f.readBucket(ctx, repos.Entities(), reg, where, offset)
		return err
	})
	if err != nil && !errors.Is(err, domain.ErrStoreUnavailable) {
		err = domain.ErrStoreUnavailable.Wrap(fmt.Errorf("snapshot %s: %w", reg.key, err))
	}
	return bucket, err
}

func (f *Finder) readBucket(ctx context.Context, repo EntityRepository, reg registration, where predicate.Node, offset int) (Bucket, error) {
	rows, err := repo.FetchPage(ctx, reg.cfg, where, f.perPage, offset)
	if err != nil {
		return Bucket{}, domain.ErrStoreUnavailable.Wrap(fmt.Errorf("fetch %s: %w", reg.key, err))
	}
	total, err := repo.Count(ctx, reg.cfg, where)
	if err != nil {
		return Bucket{}, domain.ErrStoreUnavailable.Wrap(fmt.Errorf("count %s: %w", reg.key, err))
	}

	if rows == nil {
		rows = []Row{}
	}
	bucket := Bucket{
		TotalItems: total,
		TotalPages: TotalPages(total, f.perPage),
		Results:    rows,
	}
	if f.queries {
		q := repo.Explain(reg.cfg, where, f.perPage, offset)
		bucket.Query = &q
	}
	return bucket, nil
}

func (f *Finder) audit(ctx context.Context, keyword string, found int64) error {
	if !f.logging || !f.svc.switches.SearchLogsEnabled() {
		return nil
	}

	userID, err := f.auditUser(ctx)
	if err != nil {
		metrics.SearchLogWrites.WithLabelValues("error").Inc()
		return err
	}

	entry := domain.NewSearchLog(keyword, found, userID)
	entry.CreatedAt = f.svc.now().UTC()
	entry.UpdatedAt = entry.CreatedAt

	if err := f.svc.logs.Append(ctx, entry); err != nil {
		metrics.SearchLogWrites.WithLabelValues("error").Inc()
		return domain.ErrStoreUnavailable.Wrap(fmt.Errorf("append search log: %w", err))
	}
	metrics.SearchLogWrites.WithLabelValues("ok").Inc()
	return nil
}

// auditUser is the user recorded on the audit row: the acting user, when user
// ids are logged and the store has a users table to point at.
func (f *Finder) auditUser(ctx context.Context) (*int64, error) {
	if !f.svc.switches.LogUserIDs() {
		return nil, nil
	}
	id, ok := ActingUser(ctx)
	if !ok {
		return nil, nil
	}
	linked, err := f.svc.logs.HasUserTable(ctx)
	if err != nil {
		return nil, domain.ErrStoreUnavailable.Wrap(fmt.Errorf("look up users table: %w", err))
	}
	if !linked {
		return nil, nil
	}
	return &id, nil
}

// TotalPages is ceil(total/perPage), never less than 1.
func TotalPages(total int64, perPage int) int {
	if perPage < 1 || total <= 0 {
		return 1
	}
	pages := (total + int64(perPage) - 1) / int64(perPage)
	return int(pages)
}

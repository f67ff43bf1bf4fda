package service

import (
	"context"
	"time"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/predicate"
	"github.com/stretchr/testify/mock"
)

// MockEntityRepository is a mock implementation of EntityRepository
type MockEntityRepository struct {
	mock.Mock
}

func (m *MockEntityRepository) FetchPage(ctx context.Context, cfg domain.SearchConfig, where predicate.Node, limit, offset int) ([]Row, error) {
	args := m.Called(ctx, cfg, where, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Row), args.Error(1)
}

func (m *MockEntityRepository) Count(ctx context.Context, cfg domain.SearchConfig, where predicate.Node) (int64, error) {
	args := m.Called(ctx, cfg, where)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockEntityRepository) Explain(cfg domain.SearchConfig, where predicate.Node, limit, offset int) string {
	args := m.Called(cfg, where, limit, offset)
	return args.String(0)
}

// MockSearchLogRepository is a mock implementation of SearchLogRepository
type MockSearchLogRepository struct {
	mock.Mock
}

func (m *MockSearchLogRepository) Append(ctx context.Context, log *domain.SearchLog) error {
	args := m.Called(ctx, log)
	return args.Error(0)
}

func (m *MockSearchLogRepository) HasUserTable(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockSearchLogRepository) List(ctx context.Context, q SearchLogQuery) (*SearchLogPage, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*SearchLogPage), args.Error(1)
}

func (m *MockSearchLogRepository) DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	args := m.Called(ctx, cutoff)
	return args.Get(0).(int64), args.Error(1)
}

type staticSwitches struct {
	logs    bool
	userIDs bool
}

func (s staticSwitches) SearchLogsEnabled() bool { return s.logs }
func (s staticSwitches) LogUserIDs() bool        { return s.userIDs }

type Product struct{}

func (Product) SearchConfig() domain.SearchConfig {
	return domain.SearchConfig{
		Columns: domain.Columns("name", "!sku"),
		Relations: map[string]domain.RelationSpec{
			"category": {
				Table:   "categories",
				Join:    domain.Join{RelatedColumn: "id", ParentColumn: "category_id"},
				Columns: domain.Columns("name"),
			},
		},
	}
}

type Order struct{}

func (Order) SearchConfig() domain.SearchConfig {
	return domain.SearchConfig{Columns: domain.Columns("reference")}
}

type Plain struct{}

type broken struct{}

func (broken) SearchConfig() domain.SearchConfig {
	return domain.SearchConfig{Columns: domain.Columns("bad column")}
}

func configFor(key string) any {
	return mock.MatchedBy(func(cfg domain.SearchConfig) bool { return cfg.Key == key })
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cloo-solutions/finder/internal/domain"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) Search(ctx context.Context, req service.SearchRequest) (*service.Results, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Results), args.Error(1)
}

func TestSearchHandler_ParsesQuery(t *testing.T) {
	svc := new(MockSearchService)
	expected := service.SearchRequest{
		Keyword:     "runner",
		Types:       []string{"products", "orders", "Post"},
		Wheres:      map[string]string{"products.category.name": "Shoes", "products.status": "active"},
		Page:        2,
		PerPage:     50,
		WithQueries: true,
		NoLog:       true,
	}
	svc.On("Search", mock.Anything, expected).Return(&service.Results{Page: 2, PerPage: 50}, nil)

	h := NewSearchHandler(svc, 50, nil)
	req := httptest.NewRequest(http.MethodGet,
		"/search?q=+runner+&type=products,orders&type=Post&where[products.category.name]=Shoes&where[products.status]=active&page=2&per_page=500&queries=true&no_log=1", nil)
	w := httptest.NewRecorder()

	h.Search(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, float64(2), body["page"])
	assert.Equal(t, float64(50), body["per_page"])
	svc.AssertExpectations(t)
}

func TestSearchHandler_Defaults(t *testing.T) {
	svc := new(MockSearchService)
	svc.On("Search", mock.Anything, service.SearchRequest{Keyword: "hat"}).Return(&service.Results{Page: 1, PerPage: 20}, nil)

	w := httptest.NewRecorder()
	NewSearchHandler(svc, 100, nil).Search(w, httptest.NewRequest(http.MethodGet, "/search?q=hat", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"page":1,"per_page":20}`, w.Body.String())
	svc.AssertExpectations(t)
}

func TestSearchHandler_InvalidParameters(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non numeric page", "page=abc"},
		{"zero page", "page=0"},
		{"negative per page", "per_page=-5"},
		{"bad boolean", "queries=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSearchService)
			w := httptest.NewRecorder()
			NewSearchHandler(svc, 100, nil).Search(w, httptest.NewRequest(http.MethodGet, "/search?q=x&"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
		})
	}
}

func TestSearchHandler_ServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown entity", domain.ErrInvalidSearchableEntity, http.StatusBadRequest},
		{"bad where path", domain.ErrInvalidWherePath.Withf("relation %q is not declared", "brand"), http.StatusBadRequest},
		{"store down", domain.ErrStoreUnavailable.Wrap(assert.AnError), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSearchService)
			svc.On("Search", mock.Anything, mock.Anything).Return(nil, tt.err)

			w := httptest.NewRecorder()
			NewSearchHandler(svc, 100, nil).Search(w, httptest.NewRequest(http.MethodGet, "/search?q=x&type=ghosts", nil))

			assert.Equal(t, tt.status, w.Code)
		})
	}
}

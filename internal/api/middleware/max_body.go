package middleware

import (
	"fmt"
	"net/http"

	"github.com/cloo-solutions/finder/internal/api"
)

// MaxBodyBytes limits request body size. Every finder route is a GET, so any
// body above the limit is rejected before a handler runs.
func MaxBodyBytes(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit <= 0 || r.Body == nil {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength > limit && r.ContentLength != -1 {
				api.Error(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("request body exceeds %d bytes", limit))
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}

// MaxQueryBytes rejects requests whose raw query string exceeds limit. The
// search keyword and admin filter arrive in the query, and each keyword is
// bound once per searchable column and relation.
func MaxQueryBytes(limit int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if limit > 0 && len(r.URL.RawQuery) > limit {
				api.Error(w, http.StatusRequestURITooLong, fmt.Sprintf("query string exceeds %d bytes", limit))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

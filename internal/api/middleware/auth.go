package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/cloo-solutions/finder/internal/api"
	"github.com/cloo-solutions/finder/internal/service"
	"github.com/getsentry/sentry-go"
)

type contextKey string

type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (int64, error)
}

// TokenAuth requires a bearer token and records the user it belongs to as the
// acting user of the request.
func TokenAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return tokenAuth(validator, true)
}

// OptionalTokenAuth lets anonymous requests through but still rejects a bad
// token, so an identified caller is never silently treated as anonymous.
func OptionalTokenAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return tokenAuth(validator, false)
}

func tokenAuth(validator TokenValidator, required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				if !required {
					next.ServeHTTP(w, r)
					return
				}
				api.Error(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				api.Error(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")

			userID, err := validator.ValidateToken(r.Context(), token)
			if err != nil {
				api.Error(w, http.StatusUnauthorized, "invalid token")
				return
			}

			// Outer middleware only sees the original request, so the id also
			// travels in a header.
			r.Header.Set("X-User-ID", strconv.FormatInt(userID, 10))
			if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
				hub.Scope().SetUser(sentry.User{ID: strconv.FormatInt(userID, 10)})
			}

			ctx := service.WithActingUser(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the acting user id, or "" for anonymous requests.
func GetUserID(ctx context.Context) string {
	userID, ok := service.ActingUser(ctx)
	if !ok {
		return ""
	}
	return strconv.FormatInt(userID, 10)
}

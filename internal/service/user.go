package service

import "context"

type actingUserKey struct{}

// WithActingUser marks ctx as issued by the given user.
func WithActingUser(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, actingUserKey{}, userID)
}

// ActingUser returns the user that issued the request, if any.
func ActingUser(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(actingUserKey{}).(int64)
	return id, ok
}

type requestIDKey struct{}

// WithRequestID tags ctx with the id of the HTTP request it serves.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the id set by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

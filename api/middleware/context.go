package middleware

import (
	"context"
	"strconv"

	"github.com/nsets/erp-backend/internal/access"
)

type contextKey string

const ctxAccessID contextKey = "access_id"

// UserIDFromContext returns the authenticated user's id as a string, or "".
func UserIDFromContext(ctx context.Context) string {
	actor := access.FromContext(ctx)
	if actor == nil || actor.UserID == 0 {
		return ""
	}
	return strconv.FormatInt(actor.UserID, 10)
}

// AccessIDFromContext returns the session id (JWT jti) of the current request.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithAccessID injects the session identifier into the context.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

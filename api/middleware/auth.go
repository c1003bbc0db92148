package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/auth"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

// Authenticator resolves a bearer token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, bearer string) (*auth.Principal, error)
}

// Auth validates the bearer token and seeds the request context with the actor.
func Auth(authenticator Authenticator, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "auth service unavailable"))
				return
			}
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			principal, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			actor := *principal.Actor
			actor.IPAddress = clientIP(r)
			actor.UserAgent = r.UserAgent()

			ctx := access.WithActor(r.Context(), &actor)
			ctx = WithAccessID(ctx, principal.AccessID)
			if logg != nil {
				ctx = logg.WithUserID(ctx, actor.UserID)
				ctx = logg.WithUsername(ctx, actor.Username)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

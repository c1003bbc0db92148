package middleware

import (
	"net/http"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/nsets/erp-backend/pkg/logger"
)

// RequirePermission rejects requests whose actor lacks perm.
func RequirePermission(perm enums.Permission, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := access.Authorize(access.FromContext(r.Context()), perm); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin gates the administration routes.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return RequirePermission(enums.PermissionAdmin, logg)
}

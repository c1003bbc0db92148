package controllers

import (
	"net/http"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/internal/access"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

func actorFrom(r *http.Request) *access.Actor {
	return access.FromContext(r.Context())
}

// unavailable reports a handler that was wired without its service.
func unavailable(w http.ResponseWriter, r *http.Request, logg *logger.Logger, name string) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable"))
}

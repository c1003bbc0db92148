package controllers

import (
	"context"
	"io"
	"net/http"
	"path"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

type AttachmentOpener interface {
	Open(ctx context.Context, ref string) (io.ReadCloser, string, error)
}

// attachmentPermissions maps a storage category to the permission needed to
// download from it.
var attachmentPermissions = map[string]enums.Permission{
	"queries":            enums.PermissionQueries,
	"supplier-responses": enums.PermissionQueries,
}

// AttachmentDownload streams a stored file addressed as {category}/{name}.
func AttachmentDownload(store AttachmentOpener, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			unavailable(w, r, logg, "attachment")
			return
		}
		category := chi.URLParam(r, "category")
		name := chi.URLParam(r, "name")
		perm, ok := attachmentPermissions[category]
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "attachment not found"))
			return
		}
		if err := access.Authorize(actorFrom(r), perm); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body, contentType, err := store.Open(r.Context(), path.Join(category, name))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer body.Close()

		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(name))
		w.WriteHeader(http.StatusOK)
		if _, err := io.Copy(w, body); err != nil {
			logg.Error(r.Context(), "attachment.stream_failed", err)
		}
	}
}

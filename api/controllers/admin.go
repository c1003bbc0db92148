package controllers

import (
	"net/http"
	"strings"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/api/validators"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/system"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/nsets/erp-backend/pkg/pagination"
)

// AdminActivityLogs pages the audit trail, newest first.
func AdminActivityLogs(svc activity.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "activity")
			return
		}

		page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := r.URL.Query()
		filter := activity.ListFilter{
			Action:     enums.ActivityAction(strings.TrimSpace(params.Get("action"))),
			EntityType: enums.EntityType(strings.TrimSpace(params.Get("entity_type"))),
			Page:       pagination.Params{Page: page, Limit: limit},
		}
		if filter.UserID, err = validators.ParseQueryID(r, "user_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), actorFrom(r), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func AdminSystemInfo(svc system.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "system")
			return
		}
		info, err := svc.Info(r.Context(), actorFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, info)
	}
}

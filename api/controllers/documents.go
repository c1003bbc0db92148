package controllers

import (
	"context"
	"net/http"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/api/validators"
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/pkg/logger"
)

// DocumentService is the CRUD surface shared by quotations, purchase orders
// and invoices. T is the stored model and I the create/update payload.
type DocumentService[T any, I any] interface {
	List(ctx context.Context, actor *access.Actor) ([]T, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*T, error)
	Create(ctx context.Context, actor *access.Actor, input I) (*T, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input I) (*T, error)
	Delete(ctx context.Context, actor *access.Actor, id int64) error
}

// DocumentHandlers groups the handlers for one document kind.
type DocumentHandlers struct {
	List   http.HandlerFunc
	Get    http.HandlerFunc
	Create http.HandlerFunc
	Update http.HandlerFunc
	Delete http.HandlerFunc
}

func NewDocumentHandlers[T any, I any](svc DocumentService[T, I], name string, logg *logger.Logger) DocumentHandlers {
	return DocumentHandlers{
		List: func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				unavailable(w, r, logg, name)
				return
			}
			list, err := svc.List(r.Context(), actorFrom(r))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, list)
		},
		Get: func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				unavailable(w, r, logg, name)
				return
			}
			id, err := validators.ParsePathID(r, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			doc, err := svc.Get(r.Context(), actorFrom(r), id)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, doc)
		},
		Create: func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				unavailable(w, r, logg, name)
				return
			}
			var body I
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			doc, err := svc.Create(r.Context(), actorFrom(r), body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteCreated(w, doc)
		},
		Update: func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				unavailable(w, r, logg, name)
				return
			}
			id, err := validators.ParsePathID(r, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			var body I
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			doc, err := svc.Update(r.Context(), actorFrom(r), id, body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, doc)
		},
		Delete: func(w http.ResponseWriter, r *http.Request) {
			if svc == nil {
				unavailable(w, r, logg, name)
				return
			}
			id, err := validators.ParsePathID(r, "id")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if err := svc.Delete(r.Context(), actorFrom(r), id); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteNoContent(w)
		},
	}
}

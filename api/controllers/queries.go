package controllers

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/nsets/erp-backend/api/responses"
	"github.com/nsets/erp-backend/api/validators"
	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/internal/suggestions"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
)

// maxSupplierAttachments caps the supplier_attachment_{i} fields read from a
// status update.
const maxSupplierAttachments = 10

// QueriesList lists active queries. ?status narrows by status and
// ?deleted=true returns the soft-deleted ones instead.
func QueriesList(svc queries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		deleted, err := validators.ParseQueryBool(r, "deleted")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter := queries.ListFilter{
			Status:  strings.TrimSpace(r.URL.Query().Get("status")),
			Deleted: deleted,
		}

		list, err := svc.List(r.Context(), actorFrom(r), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

func QueryGet(svc queries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		query, err := svc.Get(r.Context(), actorFrom(r), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, query)
	}
}

// QueryCreate accepts JSON or multipart/form-data with an optional
// "attachment" file and the item list as a JSON string in "items".
func QueryCreate(svc queries.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		form, upload, closeUpload, err := decodeQueryForm(w, r, maxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUpload()

		query, err := svc.Create(r.Context(), actorFrom(r), queries.CreateInput{Fields: form.Fields, Attachment: upload})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteCreated(w, query)
	}
}

func QueryUpdate(svc queries.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		form, upload, closeUpload, err := decodeQueryForm(w, r, maxUploadBytes)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		defer closeUpload()

		query, err := svc.Update(r.Context(), actorFrom(r), id, queries.UpdateInput{
			Fields:           form.Fields,
			RemoveAttachment: form.RemoveAttachment,
			Attachment:       upload,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, query)
	}
}

// QueryDelete soft-deletes; the retention job purges later.
func QueryDelete(svc queries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.SoftDelete(r.Context(), actorFrom(r), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// QueryChangeStatus moves a query through its lifecycle. Multipart requests
// carry supplier_responses as a JSON string and may attach one file per
// response as supplier_attachment_{index}.
func QueryChangeStatus(svc queries.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var input queries.StatusChangeInput
		var closers []io.Closer
		defer func() {
			for _, c := range closers {
				c.Close()
			}
		}()

		if validators.IsMultipart(r) {
			if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Status = strings.TrimSpace(r.FormValue("status"))
			if err := validators.DecodeFormJSON(r, "supplier_responses", &input.Responses); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			for i := range input.Responses {
				if i >= maxSupplierAttachments {
					break
				}
				file, header, err := validators.FormFile(r, fmt.Sprintf("supplier_attachment_%d", i))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				if file == nil {
					continue
				}
				closers = append(closers, file)
				input.Responses[i].Attachment = &queries.Upload{Filename: header.Filename, Content: file}
			}
			if err := validators.ValidateStruct(&input); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		} else if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query, err := svc.ChangeStatus(r.Context(), actorFrom(r), id, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, query)
	}
}

// QueriesForQuotation lists the picker rows for drafting a quotation.
func QueriesForQuotation(svc queries.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		rows, err := svc.ForQuotation(r.Context(), actorFrom(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// QuerySupplierAttachment stores one file for a supplier without touching the
// query. The supplier is addressed by supplier_index, or by supplier_name
// matched against the query's "sent to" list.
func QuerySupplierAttachment(svc queries.Service, maxUploadBytes int64, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(w, r, logg, "query")
			return
		}
		id, err := validators.ParsePathID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		file, header, err := validators.FormFile(r, "attachment")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if file == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "no file uploaded"))
			return
		}
		defer file.Close()

		index, err := supplierIndex(r, svc, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.UploadSupplierAttachment(r.Context(), actorFrom(r), id, index, queries.Upload{Filename: header.Filename, Content: file})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func supplierIndex(r *http.Request, svc queries.Service, id int64) (int, error) {
	if raw := strings.TrimSpace(r.FormValue("supplier_index")); raw != "" {
		index, err := strconv.Atoi(raw)
		if err != nil {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "supplier_index must be numeric")
		}
		return index, nil
	}
	name := strings.TrimSpace(r.FormValue("supplier_name"))
	if name == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "supplier_index or supplier_name is required")
	}
	query, err := svc.Get(r.Context(), actorFrom(r), id)
	if err != nil {
		return 0, err
	}
	for i, supplier := range suggestions.SplitSuppliers(query.QuerySentTo) {
		if strings.EqualFold(strings.TrimSpace(supplier), name) {
			return i, nil
		}
	}
	return 0, pkgerrors.New(pkgerrors.CodeValidation, "supplier not found on query").WithDetails(map[string]any{"supplier_name": name})
}

// queryForm is the create/update body. RemoveAttachment is ignored on create.
type queryForm struct {
	queries.Fields
	RemoveAttachment bool `json:"remove_attachment"`
}

// decodeQueryForm reads query fields from JSON or multipart. The returned
// close func must always be called.
func decodeQueryForm(w http.ResponseWriter, r *http.Request, maxUploadBytes int64) (queryForm, *queries.Upload, func(), error) {
	noop := func() {}
	var form queryForm
	if !validators.IsMultipart(r) {
		if err := validators.DecodeJSONBody(r, &form); err != nil {
			return form, nil, noop, err
		}
		return form, nil, noop, nil
	}

	if err := validators.ParseMultipart(w, r, maxUploadBytes); err != nil {
		return form, nil, noop, err
	}
	form.Fields = queries.Fields{
		OrgDepartment:           r.FormValue("org_department"),
		ClientCaseNumber:        r.FormValue("client_case_number"),
		NSETSCaseNumber:         r.FormValue("nsets_case_number"),
		Date:                    strings.TrimSpace(r.FormValue("date")),
		LastSubmissionDate:      strings.TrimSpace(r.FormValue("last_submission_date")),
		EnquiryDate:             strings.TrimSpace(r.FormValue("enquiry_date")),
		LastSubmissionExcelDate: strings.TrimSpace(r.FormValue("last_submission_excel_date")),
		ClientName:              r.FormValue("client_name"),
		QuerySentTo:             r.FormValue("query_sent_to"),
	}
	if raw := strings.TrimSpace(r.FormValue("remove_attachment")); raw != "" {
		remove, err := strconv.ParseBool(raw)
		if err != nil {
			return form, nil, noop, pkgerrors.New(pkgerrors.CodeValidation, "remove_attachment must be a boolean")
		}
		form.RemoveAttachment = remove
	}
	if err := validators.DecodeFormJSON(r, "items", &form.Items); err != nil {
		return form, nil, noop, err
	}
	if err := validators.ValidateStruct(&form); err != nil {
		return form, nil, noop, err
	}

	file, header, err := validators.FormFile(r, "attachment")
	if err != nil {
		return form, nil, noop, err
	}
	if file == nil {
		return form, nil, noop, nil
	}
	return form, &queries.Upload{Filename: header.Filename, Content: file}, func() { file.Close() }, nil
}

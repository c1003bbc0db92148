package queries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/suggestions"
	"github.com/nsets/erp-backend/pkg/db"
	"github.com/nsets/erp-backend/pkg/db/models"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	queryAttachmentCategory    = "queries"
	supplierAttachmentCategory = "supplier-responses"
)

// AttachmentStore persists uploaded files and hands back an opaque reference.
// SaveOwned embeds owner in the reference name.
type AttachmentStore interface {
	Save(ctx context.Context, category, filename string, r io.Reader) (string, error)
	SaveOwned(ctx context.Context, category, owner, filename string, r io.Reader) (string, error)
	Delete(ctx context.Context, ref string) error
}

// Service drives the query lifecycle.
type Service interface {
	Create(ctx context.Context, actor *access.Actor, input CreateInput) (*models.Query, error)
	Get(ctx context.Context, actor *access.Actor, id int64) (*models.Query, error)
	Update(ctx context.Context, actor *access.Actor, id int64, input UpdateInput) (*models.Query, error)
	SoftDelete(ctx context.Context, actor *access.Actor, id int64) error
	ChangeStatus(ctx context.Context, actor *access.Actor, id int64, input StatusChangeInput) (*models.Query, error)
	List(ctx context.Context, actor *access.Actor, filter ListFilter) ([]models.Query, error)
	ForQuotation(ctx context.Context, actor *access.Actor) ([]ForQuotationRow, error)
	UploadSupplierAttachment(ctx context.Context, actor *access.Actor, id int64, supplierIndex int, upload Upload) (*SupplierAttachment, error)
}

type ServiceParams struct {
	Repository  Repository
	Tx          db.TxRunner
	Attachments AttachmentStore
	Suggestions suggestions.Service
	Activity    activity.Recorder
	Logger      *logger.Logger
}

type service struct {
	repo        Repository
	tx          db.TxRunner
	attachments AttachmentStore
	suggestions suggestions.Service
	activity    activity.Recorder
	logg        *logger.Logger
	now         func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repository == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "queries repository required")
	case params.Tx == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	case params.Attachments == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "attachment store required")
	case params.Suggestions == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "suggestions service required")
	case params.Activity == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "activity recorder required")
	case params.Logger == nil:
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:        params.Repository,
		tx:          params.Tx,
		attachments: params.Attachments,
		suggestions: params.Suggestions,
		activity:    params.Activity,
		logg:        params.Logger,
		now:         func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Create(ctx context.Context, actor *access.Actor, input CreateInput) (*models.Query, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}

	var saved []string
	query := &models.Query{Status: enums.QueryStatusPending}
	input.apply(query)

	if input.Attachment != nil {
		ref, err := s.attachments.Save(ctx, queryAttachmentCategory, input.Attachment.Filename, input.Attachment.Content)
		if err != nil {
			return nil, err
		}
		saved = append(saved, ref)
		query.AttachmentPath = &ref
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, query); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "create query")
		}
		if err := repo.ReplaceItems(ctx, query.ID, input.itemModels(query.ID)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "insert query items")
		}
		return s.suggestions.Learn(ctx, tx, suggestions.LearnInput{
			OrgDepartment: query.OrgDepartment,
			ClientName:    query.ClientName,
			QuerySentTo:   query.QuerySentTo,
		})
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "create query")
	}

	s.record(ctx, actor, enums.ActivityActionCreate, query, "")
	return s.load(ctx, query.ID)
}

func (s *service) Get(ctx context.Context, actor *access.Actor, id int64) (*models.Query, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	return s.load(ctx, id)
}

func (s *service) Update(ctx context.Context, actor *access.Actor, id int64, input UpdateInput) (*models.Query, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	current, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is deleted")
	}

	updated := *current
	input.apply(&updated)

	var saved []string
	var replaced *string
	switch {
	case input.Attachment != nil:
		ref, err := s.attachments.Save(ctx, queryAttachmentCategory, input.Attachment.Filename, input.Attachment.Content)
		if err != nil {
			return nil, err
		}
		saved = append(saved, ref)
		replaced = current.AttachmentPath
		updated.AttachmentPath = &ref
	case input.RemoveAttachment:
		replaced = current.AttachmentPath
		updated.AttachmentPath = nil
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UpdateFields(ctx, &updated); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "update query")
		}
		if err := repo.ReplaceItems(ctx, id, input.itemModels(id)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replace query items")
		}
		return s.suggestions.Learn(ctx, tx, suggestions.LearnInput{
			OrgDepartment: updated.OrgDepartment,
			ClientName:    updated.ClientName,
			QuerySentTo:   updated.QuerySentTo,
		})
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "update query")
	}
	if replaced != nil {
		s.discard(ctx, []string{*replaced})
	}

	s.record(ctx, actor, enums.ActivityActionUpdate, &updated, "")
	return s.load(ctx, id)
}

func (s *service) SoftDelete(ctx context.Context, actor *access.Actor, id int64) error {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return err
	}
	query, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if query.IsDeleted() {
		return nil
	}
	if err := s.repo.SoftDelete(ctx, id, s.now()); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "soft delete query")
	}
	s.record(ctx, actor, enums.ActivityActionDelete, query, "moved to deleted")
	return nil
}

// ChangeStatus sets the status and, when submitting or when responses are
// supplied, replaces every stored supplier response with the supplied set.
// Submitting requires at least one "yes". A response may only reference a
// file uploaded for this query or one it already holds; files dropped by the
// replacement are removed after commit.
func (s *service) ChangeStatus(ctx context.Context, actor *access.Actor, id int64, input StatusChangeInput) (*models.Query, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	target, err := enums.ParseQueryStatus(input.Status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status")
	}
	if target == enums.QueryStatusSubmitted && !anyYes(input.Responses) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one supplier must respond yes to submit")
	}

	query, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if query.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "query is deleted")
	}

	if err := s.checkSupplierRefs(ctx, id, input.Responses); err != nil {
		return nil, err
	}

	suppliers := suggestions.SplitSuppliers(query.QuerySentTo)
	responses := make([]models.SupplierResponse, 0, len(input.Responses))
	kept := make(map[string]bool, len(input.Responses))
	var saved []string
	for i, in := range input.Responses {
		row := models.SupplierResponse{
			QueryID:      id,
			SupplierName: supplierName(in.Supplier, suppliers, i),
			Response:     strings.TrimSpace(in.Response),
		}
		switch {
		case in.Attachment != nil:
			ref, err := s.attachments.SaveOwned(ctx, supplierAttachmentCategory, supplierOwner(id), in.Attachment.Filename, in.Attachment.Content)
			if err != nil {
				s.discard(ctx, saved)
				return nil, err
			}
			saved = append(saved, ref)
			row.AttachmentPath = &ref
		case strings.TrimSpace(in.AttachmentPath) != "":
			ref := strings.TrimSpace(in.AttachmentPath)
			row.AttachmentPath = &ref
		}
		if row.AttachmentPath != nil {
			kept[*row.AttachmentPath] = true
		}
		responses = append(responses, row)
	}

	replace := target == enums.QueryStatusSubmitted || len(responses) > 0
	var prior []string
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.SetStatus(ctx, id, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "set query status")
		}
		if !replace {
			return nil
		}
		refs, err := repo.SupplierAttachmentRefs(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load supplier attachments")
		}
		if err := repo.ReplaceSupplierResponses(ctx, id, responses); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "replace supplier responses")
		}
		prior = refs
		return nil
	})
	if err != nil {
		s.discard(ctx, saved)
		return nil, pkgerrors.Passthrough(err, pkgerrors.CodePersistence, "change query status")
	}
	var dropped []string
	for _, ref := range prior {
		if !kept[ref] {
			dropped = append(dropped, ref)
		}
	}
	s.discard(ctx, dropped)

	s.record(ctx, actor, enums.ActivityActionStatusChange, query,
		fmt.Sprintf("status %s -> %s; %d supplier responses", query.Status, target, len(responses)))
	return s.load(ctx, id)
}

func (s *service) List(ctx context.Context, actor *access.Actor, filter ListFilter) ([]models.Query, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	params := listParams{Deleted: filter.Deleted}
	if !filter.Deleted && strings.TrimSpace(filter.Status) != "" {
		status, err := enums.ParseQueryStatus(filter.Status)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		params.Status = status
	}
	rows, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list queries")
	}
	if rows == nil {
		rows = []models.Query{}
	}
	return rows, nil
}

// ForQuotation lists active queries for the quotation form picker. Quotation
// editors need it, so either permission is enough.
func (s *service) ForQuotation(ctx context.Context, actor *access.Actor) ([]ForQuotationRow, error) {
	if err := access.Authorize(actor, enums.PermissionQuotations); err != nil {
		if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
			return nil, err
		}
	}
	rows, err := s.repo.ListForQuotation(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "list queries for quotation")
	}
	if rows == nil {
		rows = []ForQuotationRow{}
	}
	return rows, nil
}

// UploadSupplierAttachment stores a file for the supplier at supplierIndex in
// the query's "sent to" list. The reference is persisted later by
// ChangeStatus.
func (s *service) UploadSupplierAttachment(ctx context.Context, actor *access.Actor, id int64, supplierIndex int, upload Upload) (*SupplierAttachment, error) {
	if err := access.Authorize(actor, enums.PermissionQueries); err != nil {
		return nil, err
	}
	query, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	suppliers := suggestions.SplitSuppliers(query.QuerySentTo)
	if supplierIndex < 0 || supplierIndex >= len(suppliers) {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "supplier index %d out of range", supplierIndex)
	}
	ref, err := s.attachments.SaveOwned(ctx, supplierAttachmentCategory, supplierOwner(id), upload.Filename, upload.Content)
	if err != nil {
		return nil, err
	}
	return &SupplierAttachment{
		AttachmentPath: ref,
		SupplierName:   strings.TrimSpace(suppliers[supplierIndex]),
	}, nil
}

// checkSupplierRefs rejects attachment_path values that were neither issued
// for this query nor already attached to one of its responses.
func (s *service) checkSupplierRefs(ctx context.Context, id int64, inputs []SupplierResponseInput) error {
	var held map[string]bool
	for i, in := range inputs {
		ref := strings.TrimSpace(in.AttachmentPath)
		if in.Attachment != nil || ref == "" || ownsSupplierRef(id, ref) {
			continue
		}
		if held == nil {
			refs, err := s.repo.SupplierAttachmentRefs(ctx, id)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load supplier attachments")
			}
			held = make(map[string]bool, len(refs))
			for _, r := range refs {
				held[r] = true
			}
		}
		if !held[ref] {
			return pkgerrors.New(pkgerrors.CodeValidation, "attachment_path was not uploaded for this query").
				WithDetails(map[string]any{"field": fmt.Sprintf("supplier_responses[%d].attachment_path", i)})
		}
	}
	return nil
}

func supplierOwner(queryID int64) string {
	return fmt.Sprintf("q%d", queryID)
}

func ownsSupplierRef(queryID int64, ref string) bool {
	prefix := supplierAttachmentCategory + "/" + supplierOwner(queryID) + "-"
	return path.Clean(ref) == ref &&
		strings.HasPrefix(ref, prefix) &&
		len(ref) > len(prefix) &&
		!strings.Contains(ref[len(prefix):], "/")
}

func (s *service) find(ctx context.Context, id int64) (*models.Query, error) {
	query, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "query not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load query")
	}
	return query, nil
}

func (s *service) load(ctx context.Context, id int64) (*models.Query, error) {
	query, err := s.repo.FindWithChildren(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "query not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePersistence, err, "load query")
	}
	return query, nil
}

// discard removes stored files that no row references. Failures only log.
func (s *service) discard(ctx context.Context, refs []string) {
	for _, ref := range refs {
		if err := s.attachments.Delete(ctx, ref); err != nil {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{"ref": ref, "error": err.Error()}), "queries.attachment_cleanup_failed")
		}
	}
}

func (s *service) record(ctx context.Context, actor *access.Actor, action enums.ActivityAction, query *models.Query, details string) {
	name := query.NSETSCaseNumber
	if name == "" {
		name = query.ClientCaseNumber
	}
	s.activity.Record(activity.Entry{
		Actor:      actor,
		Action:     action,
		EntityType: enums.EntityTypeQuery,
		EntityID:   query.ID,
		EntityName: name,
		Details:    details,
	})
	s.logg.Info(s.logg.WithEntity(ctx, string(enums.EntityTypeQuery), query.ID), "queries."+string(action))
}

func validateItems(items []ItemInput) error {
	for i, item := range items {
		if item.Quantity < 0 {
			return pkgerrors.Newf(pkgerrors.CodeValidation, "item %d: quantity must not be negative", i+1)
		}
	}
	return nil
}

func anyYes(responses []SupplierResponseInput) bool {
	for _, r := range responses {
		if r.IsYes() {
			return true
		}
	}
	return false
}

func supplierName(explicit string, suppliers []string, index int) string {
	if name := strings.TrimSpace(explicit); name != "" {
		return name
	}
	if index < len(suppliers) {
		return strings.TrimSpace(suppliers[index])
	}
	return ""
}

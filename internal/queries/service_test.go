package queries

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/activity"
	"github.com/nsets/erp-backend/internal/suggestions"
	"github.com/nsets/erp-backend/pkg/db/dbtest"
	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type memoryAttachments struct {
	mu      sync.Mutex
	files   map[string]string
	seq     int
	saveErr error
	deleted []string
}

func newMemoryAttachments() *memoryAttachments {
	return &memoryAttachments{files: map[string]string{}}
}

func (m *memoryAttachments) Save(ctx context.Context, category, filename string, r io.Reader) (string, error) {
	return m.save(category, "", filename, r)
}

func (m *memoryAttachments) SaveOwned(ctx context.Context, category, owner, filename string, r io.Reader) (string, error) {
	return m.save(category, owner+"-", filename, r)
}

func (m *memoryAttachments) save(category, prefix, filename string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	ref := fmt.Sprintf("%s/%s%d-%s", category, prefix, m.seq, filename)
	m.files[ref] = string(data)
	return ref, nil
}

func (m *memoryAttachments) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, ref)
	m.deleted = append(m.deleted, ref)
	return nil
}

type failingTx struct{}

func (failingTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return errors.New("connection reset")
}

type fixture struct {
	svc         Service
	repo        Repository
	conn        *gorm.DB
	attachments *memoryAttachments
	audit       *activity.Memory
	suggestions suggestions.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	client, conn := dbtest.Client(t)
	sugg, err := suggestions.NewService(suggestions.NewRepository(conn))
	require.NoError(t, err)

	f := &fixture{
		repo:        NewRepository(conn),
		conn:        conn,
		attachments: newMemoryAttachments(),
		audit:       &activity.Memory{},
		suggestions: sugg,
	}
	f.svc, err = NewService(ServiceParams{
		Repository:  f.repo,
		Tx:          client,
		Attachments: f.attachments,
		Suggestions: sugg,
		Activity:    f.audit,
		Logger:      logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)
	return f
}

func queryUser() *access.Actor {
	return &access.Actor{UserID: 7, Username: "clerk", Role: enums.RoleUser, Permissions: dbtypes.Permissions{Queries: true}}
}

func sampleFields(items ...ItemInput) Fields {
	return Fields{
		OrgDepartment:    "Navy Stores",
		ClientCaseNumber: "CC-100",
		NSETSCaseNumber:  "NS-100",
		Date:             "2026-03-01",
		ClientName:       "Acme Marine",
		QuerySentTo:      "Bolt Co, Zeta Supplies",
		Items:            items,
	}
}

func TestQueryEndToEndLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields(
		ItemInput{ManufacturerNumber: "MN-1", Quantity: 2},
		ItemInput{ManufacturerNumber: "MN-2", Quantity: 5},
	)})
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusPending, created.Status)
	assert.Nil(t, created.DeletedAt)

	fetched, err := f.svc.Get(ctx, actor, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 2)
	assert.Equal(t, 1, fetched.Items[0].SerialNumber)
	assert.Equal(t, "MN-1", fetched.Items[0].ManufacturerNumber)
	assert.Equal(t, 2, fetched.Items[1].SerialNumber)
	assert.Equal(t, "MN-2", fetched.Items[1].ManufacturerNumber)

	_, err = f.svc.Update(ctx, actor, created.ID, UpdateInput{Fields: sampleFields(ItemInput{ManufacturerNumber: "MN-9", Quantity: 1})})
	require.NoError(t, err)
	fetched, err = f.svc.Get(ctx, actor, created.ID)
	require.NoError(t, err)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "MN-9", fetched.Items[0].ManufacturerNumber)
	assert.Equal(t, 1, fetched.Items[0].SerialNumber)

	require.NoError(t, f.svc.SoftDelete(ctx, actor, created.ID))

	active, err := f.svc.List(ctx, actor, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, active)

	deleted, err := f.svc.List(ctx, actor, ListFilter{Deleted: true})
	require.NoError(t, err)
	require.Len(t, deleted, 1)
	assert.Equal(t, created.ID, deleted[0].ID)
	assert.Equal(t, enums.QueryStatusPending, deleted[0].Status)

	var actions []enums.ActivityAction
	for _, e := range f.audit.Entries() {
		actions = append(actions, e.Action)
		assert.Equal(t, enums.EntityTypeQuery, e.EntityType)
	}
	assert.Equal(t, []enums.ActivityAction{enums.ActivityActionCreate, enums.ActivityActionUpdate, enums.ActivityActionDelete}, actions)
}

func TestUpdateIsIdempotentForItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields(ItemInput{Brand: "X", Quantity: 1})})
	require.NoError(t, err)

	payload := UpdateInput{Fields: sampleFields(
		ItemInput{Brand: "A", Description: "valve", Quantity: 3},
		ItemInput{Brand: "B", Description: "gasket", Quantity: 4},
	)}

	first, err := f.svc.Update(ctx, actor, created.ID, payload)
	require.NoError(t, err)
	second, err := f.svc.Update(ctx, actor, created.ID, payload)
	require.NoError(t, err)

	require.Len(t, second.Items, len(first.Items))
	for i := range first.Items {
		a, b := first.Items[i], second.Items[i]
		assert.Equal(t, a.SerialNumber, b.SerialNumber)
		assert.Equal(t, a.Brand, b.Brand)
		assert.Equal(t, a.Description, b.Description)
		assert.Equal(t, a.Quantity, b.Quantity)
	}
}

func TestUpdateKeepsStatusAndReplacesAttachment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{
		Fields:     sampleFields(),
		Attachment: &Upload{Filename: "spec.pdf", Content: strings.NewReader("v1")},
	})
	require.NoError(t, err)
	require.NotNil(t, created.AttachmentPath)
	original := *created.AttachmentPath

	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Response: "yes"}},
	})
	require.NoError(t, err)

	updated, err := f.svc.Update(ctx, actor, created.ID, UpdateInput{Fields: sampleFields()})
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusSubmitted, updated.Status)
	require.NotNil(t, updated.AttachmentPath)
	assert.Equal(t, original, *updated.AttachmentPath)

	updated, err = f.svc.Update(ctx, actor, created.ID, UpdateInput{
		Fields:     sampleFields(),
		Attachment: &Upload{Filename: "spec.pdf", Content: strings.NewReader("v2")},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentPath)
	assert.NotEqual(t, original, *updated.AttachmentPath)
	assert.Contains(t, f.attachments.deleted, original)
}

func TestChangeStatusRequiresYesResponse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Supplier: "A", Response: "no"}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{Status: "submitted"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	unchanged, err := f.svc.Get(ctx, actor, created.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusPending, unchanged.Status)
	assert.Empty(t, unchanged.SupplierResponses)
}

func TestChangeStatusReplacesSupplierResponses(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status: "submitted",
		Responses: []SupplierResponseInput{
			{Supplier: "Old", Response: "yes"},
			{Supplier: "Older", Response: "no"},
			{Supplier: "Oldest", Response: "no"},
		},
	})
	require.NoError(t, err)

	result, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status: "submitted",
		Responses: []SupplierResponseInput{
			{Supplier: "A", Response: "no"},
			{Supplier: "B", Response: " YES ", Attachment: &Upload{Filename: "quote.pdf", Content: strings.NewReader("pdf")}},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusSubmitted, result.Status)
	require.Len(t, result.SupplierResponses, 2)
	assert.Equal(t, "A", result.SupplierResponses[0].SupplierName)
	assert.Nil(t, result.SupplierResponses[0].AttachmentPath)
	assert.Equal(t, "B", result.SupplierResponses[1].SupplierName)
	require.NotNil(t, result.SupplierResponses[1].AttachmentPath)
	assert.True(t, strings.HasPrefix(*result.SupplierResponses[1].AttachmentPath, supplierAttachmentCategory+"/"))

	var stored int64
	require.NoError(t, f.conn.Model(&models.SupplierResponse{}).Where("query_id = ?", created.ID).Count(&stored).Error)
	assert.EqualValues(t, 2, stored)
}

func TestChangeStatusNamesSuppliersByPosition(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	uploaded, err := f.svc.UploadSupplierAttachment(ctx, actor, created.ID, 1, Upload{Filename: "z.pdf", Content: strings.NewReader("z")})
	require.NoError(t, err)
	assert.Equal(t, "Zeta Supplies", uploaded.SupplierName)

	result, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status: "submitted",
		Responses: []SupplierResponseInput{
			{Response: "no"},
			{Response: "yes", AttachmentPath: uploaded.AttachmentPath},
		},
	})
	require.NoError(t, err)
	require.Len(t, result.SupplierResponses, 2)
	assert.Equal(t, "Bolt Co", result.SupplierResponses[0].SupplierName)
	assert.Equal(t, "Zeta Supplies", result.SupplierResponses[1].SupplierName)
	require.NotNil(t, result.SupplierResponses[1].AttachmentPath)
	assert.Equal(t, uploaded.AttachmentPath, *result.SupplierResponses[1].AttachmentPath)

	_, err = f.svc.UploadSupplierAttachment(ctx, actor, created.ID, 5, Upload{Filename: "x.pdf", Content: strings.NewReader("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestChangeStatusBackToPendingKeepsResponsesWhenNoneSupplied(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Supplier: "A", Response: "yes"}},
	})
	require.NoError(t, err)

	result, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{Status: "pending"})
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusPending, result.Status)
	assert.Len(t, result.SupplierResponses, 1)
}

func TestChangeStatusRejectsDeletedAndUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	_, err := f.svc.ChangeStatus(ctx, actor, 999, StatusChangeInput{Status: "pending"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.ChangeStatus(ctx, actor, 999, StatusChangeInput{Status: "archived"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, actor, created.ID))

	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{Status: "pending"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestListFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	pending, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	submitted, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, actor, submitted.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Supplier: "A", Response: "yes"}},
	})
	require.NoError(t, err)
	gone, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	require.NoError(t, f.svc.SoftDelete(ctx, actor, gone.ID))

	rows, err := f.svc.List(ctx, actor, ListFilter{Status: "pending"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)

	rows, err = f.svc.List(ctx, actor, ListFilter{Status: "submitted"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, submitted.ID, rows[0].ID)

	rows, err = f.svc.List(ctx, actor, ListFilter{Status: "submitted", Deleted: true})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, gone.ID, rows[0].ID)

	rows, err = f.svc.List(ctx, actor, ListFilter{})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = f.svc.List(ctx, actor, ListFilter{Status: "bogus"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	picker, err := f.svc.ForQuotation(ctx, actor)
	require.NoError(t, err)
	assert.Len(t, picker, 2)
}

func TestCreateLearnsSuggestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	_, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	suppliers, err := f.suggestions.List(ctx, actor, "supplier")
	require.NoError(t, err)
	assert.Equal(t, []string{"Bolt Co", "Zeta Supplies"}, suppliers)
}

func TestAccessControl(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.List(ctx, nil, ListFilter{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))

	invoicesOnly := &access.Actor{UserID: 2, Role: enums.RoleUser, Permissions: dbtypes.Permissions{Invoices: true}}
	_, err = f.svc.Create(ctx, invoicesOnly, CreateInput{Fields: sampleFields()})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	admin := &access.Actor{UserID: 1, Role: enums.RoleAdmin}
	_, err = f.svc.Create(ctx, admin, CreateInput{Fields: sampleFields()})
	assert.NoError(t, err)
}

func TestNotFoundAndValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	_, err := f.svc.Get(ctx, actor, 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.SoftDelete(ctx, actor, 404)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields(ItemInput{Quantity: -1})})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestCreateCleansUpAttachmentOnStoreFailure(t *testing.T) {
	conn := dbtest.Open(t)
	sugg, err := suggestions.NewService(suggestions.NewRepository(conn))
	require.NoError(t, err)
	files := newMemoryAttachments()
	svc, err := NewService(ServiceParams{
		Repository:  NewRepository(conn),
		Tx:          failingTx{},
		Attachments: files,
		Suggestions: sugg,
		Activity:    &activity.Memory{},
		Logger:      logger.New(logger.Options{Output: io.Discard}),
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), queryUser(), CreateInput{
		Fields:     sampleFields(),
		Attachment: &Upload{Filename: "a.pdf", Content: strings.NewReader("a")},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodePersistence))
	assert.Empty(t, files.files)
	assert.Len(t, files.deleted, 1)
}

func TestRepositoryPurgeRemovesChildren(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields(ItemInput{Quantity: 1})})
	require.NoError(t, err)
	_, err = f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Supplier: "A", Response: "yes"}},
	})
	require.NoError(t, err)
	require.NoError(t, f.repo.SoftDelete(ctx, created.ID, time.Now().UTC().AddDate(0, 0, -31)))

	stale, err := f.repo.ListDeletedBefore(ctx, time.Now().UTC().AddDate(0, 0, -30))
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Len(t, stale[0].SupplierResponses, 1)

	purged, err := f.repo.Purge(ctx, []int64{created.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, purged)

	var items int64
	require.NoError(t, f.conn.Model(&models.QueryItem{}).Where("query_id = ?", created.ID).Count(&items).Error)
	assert.Zero(t, items)

	count, err := f.repo.CountActive(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChangeStatusRejectsAttachmentFromAnotherDocument(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	a, err := f.svc.Create(ctx, actor, CreateInput{
		Fields:     sampleFields(),
		Attachment: &Upload{Filename: "a.pdf", Content: strings.NewReader("a")},
	})
	require.NoError(t, err)
	require.NotNil(t, a.AttachmentPath)
	aUpload, err := f.svc.UploadSupplierAttachment(ctx, actor, a.ID, 0, Upload{Filename: "r.pdf", Content: strings.NewReader("r")})
	require.NoError(t, err)

	b, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	for _, ref := range []string{
		*a.AttachmentPath,
		aUpload.AttachmentPath,
		fmt.Sprintf("supplier-responses/q%d-../%s", b.ID, *a.AttachmentPath),
		fmt.Sprintf("supplier-responses/q%d-", b.ID),
	} {
		_, err = f.svc.ChangeStatus(ctx, actor, b.ID, StatusChangeInput{
			Status:    "submitted",
			Responses: []SupplierResponseInput{{Supplier: "A", Response: "yes", AttachmentPath: ref}},
		})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), ref)
	}

	stored, err := f.svc.Get(ctx, actor, b.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.QueryStatusPending, stored.Status)
	assert.Empty(t, stored.SupplierResponses)
	assert.Empty(t, f.attachments.deleted)
}

func TestChangeStatusKeepsReferenceAlreadyHeld(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)
	legacy := "supplier-responses/legacy.pdf"
	require.NoError(t, f.conn.Create(&models.SupplierResponse{QueryID: created.ID, SupplierName: "Bolt Co", Response: "yes", AttachmentPath: &legacy}).Error)

	result, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status:    "submitted",
		Responses: []SupplierResponseInput{{Supplier: "Bolt Co", Response: "yes", AttachmentPath: legacy}},
	})
	require.NoError(t, err)
	require.Len(t, result.SupplierResponses, 1)
	require.NotNil(t, result.SupplierResponses[0].AttachmentPath)
	assert.Equal(t, legacy, *result.SupplierResponses[0].AttachmentPath)
	assert.NotContains(t, f.attachments.deleted, legacy)
}

func TestChangeStatusDiscardsReplacedAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{Fields: sampleFields()})
	require.NoError(t, err)

	first, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status: "submitted",
		Responses: []SupplierResponseInput{
			{Supplier: "A", Response: "yes", Attachment: &Upload{Filename: "one.pdf", Content: strings.NewReader("1")}},
			{Supplier: "B", Response: "no", Attachment: &Upload{Filename: "two.pdf", Content: strings.NewReader("2")}},
		},
	})
	require.NoError(t, err)
	require.Len(t, first.SupplierResponses, 2)
	one := *first.SupplierResponses[0].AttachmentPath
	two := *first.SupplierResponses[1].AttachmentPath

	second, err := f.svc.ChangeStatus(ctx, actor, created.ID, StatusChangeInput{
		Status: "submitted",
		Responses: []SupplierResponseInput{
			{Supplier: "A", Response: "yes", AttachmentPath: one},
			{Supplier: "B", Response: "no", Attachment: &Upload{Filename: "three.pdf", Content: strings.NewReader("3")}},
		},
	})
	require.NoError(t, err)
	require.Len(t, second.SupplierResponses, 2)
	assert.Equal(t, one, *second.SupplierResponses[0].AttachmentPath)

	assert.Equal(t, []string{two}, f.attachments.deleted)
	assert.Contains(t, f.attachments.files, one)
	assert.NotContains(t, f.attachments.files, two)
}

func TestUpdateRemoveAttachmentClearsReference(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	actor := queryUser()

	created, err := f.svc.Create(ctx, actor, CreateInput{
		Fields:     sampleFields(),
		Attachment: &Upload{Filename: "spec.pdf", Content: strings.NewReader("v1")},
	})
	require.NoError(t, err)
	require.NotNil(t, created.AttachmentPath)
	original := *created.AttachmentPath

	updated, err := f.svc.Update(ctx, actor, created.ID, UpdateInput{Fields: sampleFields(), RemoveAttachment: true})
	require.NoError(t, err)
	assert.Nil(t, updated.AttachmentPath)
	assert.Equal(t, enums.QueryStatusPending, updated.Status)
	assert.Contains(t, f.attachments.deleted, original)

	updated, err = f.svc.Update(ctx, actor, created.ID, UpdateInput{
		Fields:           sampleFields(),
		RemoveAttachment: true,
		Attachment:       &Upload{Filename: "spec.pdf", Content: strings.NewReader("v2")},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.AttachmentPath)
}

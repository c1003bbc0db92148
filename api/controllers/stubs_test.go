package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/nsets/erp-backend/internal/access"
	"github.com/nsets/erp-backend/internal/queries"
	"github.com/nsets/erp-backend/pkg/db/models"
	dbtypes "github.com/nsets/erp-backend/pkg/db/types"
	"github.com/nsets/erp-backend/pkg/enums"
	"github.com/nsets/erp-backend/pkg/logger"
	"github.com/stretchr/testify/require"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard})
}

func clerk() *access.Actor {
	return &access.Actor{UserID: 7, Username: "clerk", Role: enums.RoleUser, Permissions: dbtypes.DefaultPermissions()}
}

func admin() *access.Actor {
	return &access.Actor{UserID: 1, Username: "admin", Role: enums.RoleAdmin, Permissions: dbtypes.FullPermissions()}
}

// withRoute attaches the actor and chi URL params the router would set.
func withRoute(req *http.Request, actor *access.Actor, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rc)
	if actor != nil {
		ctx = access.WithActor(ctx, actor)
	}
	return req.WithContext(ctx)
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

type stubQueries struct {
	queries.Service
	query       *models.Query
	err         error
	created     queries.CreateInput
	createdBody []byte
	updated     queries.UpdateInput
	status      queries.StatusChangeInput
	statusFiles map[int][]byte
	uploadIndex int
	uploadBody  []byte
	listFilter  queries.ListFilter
}

func (s *stubQueries) Create(ctx context.Context, actor *access.Actor, input queries.CreateInput) (*models.Query, error) {
	s.created = input
	if input.Attachment != nil {
		s.createdBody, _ = io.ReadAll(input.Attachment.Content)
	}
	return s.query, s.err
}

func (s *stubQueries) Update(ctx context.Context, actor *access.Actor, id int64, input queries.UpdateInput) (*models.Query, error) {
	s.updated = input
	return s.query, s.err
}

func (s *stubQueries) Get(ctx context.Context, actor *access.Actor, id int64) (*models.Query, error) {
	return s.query, s.err
}

func (s *stubQueries) List(ctx context.Context, actor *access.Actor, filter queries.ListFilter) ([]models.Query, error) {
	s.listFilter = filter
	return []models.Query{}, s.err
}

func (s *stubQueries) ChangeStatus(ctx context.Context, actor *access.Actor, id int64, input queries.StatusChangeInput) (*models.Query, error) {
	s.status = input
	s.statusFiles = map[int][]byte{}
	for i, resp := range input.Responses {
		if resp.Attachment != nil {
			s.statusFiles[i], _ = io.ReadAll(resp.Attachment.Content)
		}
	}
	return s.query, s.err
}

func (s *stubQueries) UploadSupplierAttachment(ctx context.Context, actor *access.Actor, id int64, supplierIndex int, upload queries.Upload) (*queries.SupplierAttachment, error) {
	s.uploadIndex = supplierIndex
	s.uploadBody, _ = io.ReadAll(upload.Content)
	return &queries.SupplierAttachment{AttachmentPath: "supplier-responses/x.pdf", SupplierName: "Beta"}, s.err
}

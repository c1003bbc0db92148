package validators

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	pkgerrors "github.com/nsets/erp-backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loginBody struct {
	Username string `json:"username" validate:"required,max=8"`
	Password string `json:"password" validate:"required"`
}

func TestDecodeJSONBodyReportsFieldNames(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"much-too-long"}`))
	var body loginBody
	err := DecodeJSONBody(req, &body)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details, ok := typed.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be at most 8", details["username"])
	assert.Equal(t, "is required", details["password"])
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"username":"a","password":"b","role":"admin"}`))
	var body loginBody
	assert.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &body), pkgerrors.CodeValidation))
}

func TestParsePathID(t *testing.T) {
	withParam := func(value string) *http.Request {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rc := chi.NewRouteContext()
		rc.URLParams.Add("id", value)
		return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
	}

	id, err := ParsePathID(withParam("42"), "id")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "0", "-3", "abc"} {
		_, err := ParsePathID(withParam(bad), "id")
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), "value %q", bad)
	}
}

func TestMultipartHelpers(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("items", `[{"description":"valve","quantity":2}]`))
	part, err := mw.CreateFormFile("attachment", "spec.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	require.True(t, IsMultipart(req))
	require.NoError(t, ParseMultipart(httptest.NewRecorder(), req, 1<<20))

	var items []struct {
		Description string `json:"description"`
		Quantity    int    `json:"quantity"`
	}
	require.NoError(t, DecodeFormJSON(req, "items", &items))
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)

	file, header, err := FormFile(req, "attachment")
	require.NoError(t, err)
	require.NotNil(t, file)
	defer file.Close()
	assert.Equal(t, "spec.pdf", header.Filename)

	file, header, err = FormFile(req, "missing")
	require.NoError(t, err)
	assert.Nil(t, file)
	assert.Nil(t, header)
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&limit=900", nil)
	page, err := ParseQueryInt(req, "page", 1, 1, 1000)
	require.NoError(t, err)
	assert.Equal(t, 3, page)

	_, err = ParseQueryInt(req, "limit", 50, 1, 200)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?user_id=42&bad=-1&word=abc", nil)
	id, err := ParseQueryID(req, "user_id")
	require.NoError(t, err)
	assert.EqualValues(t, 42, id)

	id, err = ParseQueryID(req, "missing")
	require.NoError(t, err)
	assert.Zero(t, id)

	for _, key := range []string{"bad", "word"} {
		_, err = ParseQueryID(req, key)
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation), key)
	}
}

func TestParseQueryBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?deleted=true&flag=maybe", nil)
	deleted, err := ParseQueryBool(req, "deleted")
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = ParseQueryBool(req, "flag")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

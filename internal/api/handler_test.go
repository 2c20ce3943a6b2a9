package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stanza-hq/stanza-backend/internal/api"
	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
	"github.com/stanza-hq/stanza-backend/internal/resource"
	"github.com/stanza-hq/stanza-backend/internal/store"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	sqlDB, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := store.New(sqlDB, store.SQLite, zerolog.Nop())
	reg := entity.NewRegistry()
	require.NoError(t, resource.RegisterTypes(reg))
	require.NoError(t, db.CreateTables(context.Background(), reg))

	root := api.NewRouter(zerolog.Nop())
	cultures, err := resource.NewService[model.Culture](db, reg, zerolog.Nop())
	require.NoError(t, err)
	api.Mount(root, cultures, zerolog.Nop())
	rcs, err := resource.NewService[model.ResourceCulture](db, reg, zerolog.Nop())
	require.NoError(t, err)
	api.Mount(root, rcs, zerolog.Nop())

	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createCulture(t *testing.T, srv *httptest.Server, code, name string) model.Culture {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/api/cultures", model.Culture{Code: code, Name: name})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[model.Culture](t, resp)
}

func TestCreateReturnsStampedRecord(t *testing.T) {
	srv := newTestServer(t)

	created := createCulture(t, srv, "en-US", "English")
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.EqualValues(t, 1, created.Version)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, uuid.Nil, created.CreatedBy)
}

func TestCreateRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/cultures", "application/json", bytes.NewBufferString("{nope"))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestListEnvelope(t *testing.T) {
	srv := newTestServer(t)
	for _, code := range []string{"aa", "bb", "cc"} {
		createCulture(t, srv, code, "lang "+code)
	}

	resp, err := http.Get(srv.URL + "/api/cultures?sortBy=code&sortDesc=true&page=0&pageSize=2")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	res := decode[resource.ListResult[model.Culture]](t, resp)
	assert.Equal(t, 3, res.TotalItems)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cc", res.Items[0].Code)
}

func TestListRejectsBadPagination(t *testing.T) {
	srv := newTestServer(t)

	for _, q := range []string{"page=x&pageSize=2", "page=0&pageSize=-1"} {
		resp, err := http.Get(srv.URL + "/api/cultures?" + q)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestGetByID(t *testing.T) {
	srv := newTestServer(t)
	created := createCulture(t, srv, "fr-FR", "French")

	resp, err := http.Get(srv.URL + "/api/cultures/" + created.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[model.Culture](t, resp)
	assert.Equal(t, "French", got.Name)

	resp, err = http.Get(srv.URL + "/api/cultures/" + uuid.New().String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/api/cultures/not-a-uuid")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFindRoute(t *testing.T) {
	srv := newTestServer(t)
	createCulture(t, srv, "en-US", "English")
	createCulture(t, srv, "de-DE", "German")

	resp, err := http.Get(srv.URL + `/api/cultures/find?filter=` + "code%20%3D%3D%20%22de-DE%22")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	res := decode[resource.FindResult[model.Culture]](t, resp)
	assert.Equal(t, 1, res.Count)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "German", res.Items[0].Name)

	// empty and malformed filters are client errors
	for _, q := range []string{"", "filter=bogus%20%3D%3D%201"} {
		resp, err := http.Get(srv.URL + "/api/cultures/find?" + q)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestExistsRoute(t *testing.T) {
	srv := newTestServer(t)
	createCulture(t, srv, "ja-JP", "Japanese")

	resp, err := http.Get(srv.URL + "/api/cultures/exists?property=code&value=ja-JP")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, decode[bool](t, resp))

	resp, err = http.Get(srv.URL + "/api/cultures/exists?property=code&value=xx")
	require.NoError(t, err)
	assert.False(t, decode[bool](t, resp))

	resp, err = http.Get(srv.URL + "/api/cultures/exists?property=nope&value=x")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestUpdateFlow(t *testing.T) {
	srv := newTestServer(t)
	created := createCulture(t, srv, "es-ES", "Spanish")

	created.Name = "Espanol"
	resp := doJSON(t, http.MethodPut, srv.URL+"/api/cultures/"+created.ID.String(), created)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// stale version now conflicts
	created.Name = "Castellano"
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cultures/"+created.ID.String(), created)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	// id mismatch between path and body
	resp = doJSON(t, http.MethodPut, srv.URL+"/api/cultures/"+uuid.New().String(), created)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeleteFlow(t *testing.T) {
	srv := newTestServer(t)
	created := createCulture(t, srv, "pt-BR", "Portuguese")

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/api/cultures/"+created.ID.String(), nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	// hidden afterwards
	resp, err = http.Get(srv.URL + "/api/cultures/" + created.ID.String())
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDeleteSoftOnPlainTypeIsClientError(t *testing.T) {
	srv := newTestServer(t)

	resp := doJSON(t, http.MethodPost, srv.URL+"/api/resource_cultures", model.ResourceCulture{
		Text: "hello", ResourceID: uuid.New(), CultureID: uuid.New(),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decode[model.ResourceCulture](t, resp)

	url := fmt.Sprintf("%s/api/resource_cultures/%s?softDelete=true", srv.URL, created.ID)
	req, err := http.NewRequest(http.MethodDelete, url, nil)
	require.NoError(t, err)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestHealthHandler(t *testing.T) {
	up := api.NewHealthHandler(func() bool { return true })
	w := httptest.NewRecorder()
	up.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"healthy"`)

	down := api.NewHealthHandler(func() bool { return false })
	w = httptest.NewRecorder()
	down.CheckHealth(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"unhealthy"`)
}

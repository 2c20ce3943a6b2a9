package client_test

import (
	"context"
	"errors"
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
	"github.com/stanza-hq/stanza-backend/pkg/client"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	sqlDB, err := store.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db := store.New(sqlDB, store.SQLite, zerolog.Nop())
	reg := entity.NewRegistry()
	require.NoError(t, resource.RegisterTypes(reg))
	require.NoError(t, db.CreateTables(context.Background(), reg))

	root := api.NewRouter(zerolog.Nop())
	svc, err := resource.NewService[model.Culture](db, reg, zerolog.Nop())
	require.NoError(t, err)
	api.Mount(root, svc, zerolog.Nop())

	srv := httptest.NewServer(root)
	t.Cleanup(srv.Close)
	return srv
}

func TestClientCRUDRoundTrip(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	cultures := client.NewResource[model.Culture](client.New(srv.URL), "cultures")

	created, err := cultures.Create(ctx, &model.Culture{Code: "en-US", Name: "English"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.EqualValues(t, 1, created.Version)

	got, err := cultures.Get(ctx, created.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "English", got.Name)

	created.Name = "English (US)"
	require.NoError(t, cultures.Update(ctx, created.ID.String(), created))

	found, err := cultures.Exists(ctx, "code", "en-US")
	require.NoError(t, err)
	assert.True(t, found)

	res, err := cultures.Find(ctx, `name == "English (US)"`)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Count)

	all, err := cultures.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, cultures.Delete(ctx, created.ID.String(), nil))
	_, err = cultures.Get(ctx, created.ID.String())
	assert.ErrorIs(t, err, client.ErrNotFound)
}

func TestClientListOptions(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	cultures := client.NewResource[model.Culture](client.New(srv.URL), "cultures")

	for _, code := range []string{"aa", "bb", "cc"} {
		_, err := cultures.Create(ctx, &model.Culture{Code: code, Name: "lang " + code})
		require.NoError(t, err)
	}

	page, size := 0, 2
	res, err := cultures.List(ctx, client.ListOptions{SortBy: "code", SortDesc: true, Page: &page, PageSize: &size})
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalItems)
	require.Len(t, res.Items, 2)
	assert.Equal(t, "cc", res.Items[0].Code)

	res, err = cultures.List(ctx, client.ListOptions{Search: "lang bb"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalItems)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := newBackend(t)
	ctx := context.Background()
	cultures := client.NewResource[model.Culture](client.New(srv.URL), "cultures")

	_, err := cultures.Find(ctx, `bogus == 1`)
	var apiErr *client.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Contains(t, apiErr.Message, "bogus")

	_, err = cultures.Get(ctx, uuid.New().String())
	assert.ErrorIs(t, err, client.ErrNotFound)
}

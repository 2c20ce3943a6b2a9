package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signedToken(t *testing.T, sub string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": sub})
	s, err := tok.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func newAuthServer(t *testing.T, secret string, got *[]*uuid.UUID) *httptest.Server {
	t.Helper()
	r := mux.NewRouter()
	r.Use(Middleware(secret, zerolog.Nop()))
	r.HandleFunc("/probe", func(w http.ResponseWriter, req *http.Request) {
		*got = append(*got, ActorFrom(req.Context()))
		w.WriteHeader(http.StatusOK)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func get(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	return resp
}

func TestActorContextRoundTrip(t *testing.T) {
	assert.Nil(t, ActorFrom(context.Background()))

	id := uuid.New()
	ctx := WithActor(context.Background(), id)
	got := ActorFrom(ctx)
	require.NotNil(t, got)
	assert.Equal(t, id, *got)
}

func TestMiddlewareValidToken(t *testing.T) {
	var actors []*uuid.UUID
	srv := newAuthServer(t, testSecret, &actors)
	id := uuid.New()

	resp := get(t, srv.URL+"/probe", signedToken(t, id.String()))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, actors, 1)
	require.NotNil(t, actors[0])
	assert.Equal(t, id, *actors[0])
}

func TestMiddlewareNoTokenIsAnonymous(t *testing.T) {
	var actors []*uuid.UUID
	srv := newAuthServer(t, testSecret, &actors)

	resp := get(t, srv.URL+"/probe", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, actors, 1)
	assert.Nil(t, actors[0])
}

func TestMiddlewareRejectsBadSignature(t *testing.T) {
	var actors []*uuid.UUID
	srv := newAuthServer(t, testSecret, &actors)

	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": uuid.New().String()})
	signed, err := tok.SignedString([]byte("wrong-secret"))
	require.NoError(t, err)

	resp := get(t, srv.URL+"/probe", signed)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Empty(t, actors)
}

func TestMiddlewareNonUUIDSubjectIsAnonymous(t *testing.T) {
	var actors []*uuid.UUID
	srv := newAuthServer(t, testSecret, &actors)

	resp := get(t, srv.URL+"/probe", signedToken(t, "service-account"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, actors, 1)
	assert.Nil(t, actors[0])
}

func TestMiddlewareDisabledWithoutSecret(t *testing.T) {
	var actors []*uuid.UUID
	srv := newAuthServer(t, "", &actors)

	resp := get(t, srv.URL+"/probe", "garbage-token")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, actors, 1)
	assert.Nil(t, actors[0])
}

func TestBearerToken(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := BearerToken(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Basic abc")
	_, err = BearerToken(r)
	assert.Error(t, err)

	r.Header.Set("Authorization", "Bearer tok123")
	tok, err := BearerToken(r)
	require.NoError(t, err)
	assert.Equal(t, "tok123", tok)
}

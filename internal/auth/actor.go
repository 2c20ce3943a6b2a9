// Package auth resolves the caller identity used for audit stamping. The
// service does not perform authorization; it only extracts a pre-issued
// actor id from a bearer token and carries it on the request context.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanza-hq/stanza-backend/internal/api/respond"
)

type actorKey struct{}

// WithActor returns a context carrying the caller identity.
func WithActor(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, actorKey{}, id)
}

// ActorFrom returns the caller identity, or nil for anonymous requests.
func ActorFrom(ctx context.Context) *uuid.UUID {
	if id, ok := ctx.Value(actorKey{}).(uuid.UUID); ok {
		return &id
	}
	return nil
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	h := r.Header.Get("Authorization")
	if h == "" {
		return "", errors.New("missing Authorization header")
	}
	parts := strings.Split(h, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.New("invalid Authorization header format, expected 'Bearer <token>'")
	}
	return parts[1], nil
}

// Middleware validates a Bearer JWT (HS256) and attaches its "sub" claim as
// the actor identity. Requests without a token proceed anonymously; requests
// with an invalid token are rejected. With no secret configured every
// request is treated as anonymous.
func Middleware(secret string, log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r)
			if err != nil || secret == "" {
				next.ServeHTTP(w, r)
				return
			}
			tok, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				return []byte(secret), nil
			}, jwt.WithValidMethods([]string{"HS256"}))
			if err != nil || !tok.Valid {
				log.Warn().Err(err).Msg("rejected bearer token")
				respond.WriteError(w, http.StatusUnauthorized, "invalid token")
				return
			}
			sub, err := tok.Claims.GetSubject()
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			id, err := uuid.Parse(sub)
			if err != nil {
				// authenticated but not an entity actor; treat as anonymous
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), id)))
		})
	}
}

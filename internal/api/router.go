// Package api exposes registered entity types as REST resources and carries
// the service's HTTP plumbing.
package api

import (
	"net/http"
	"runtime/debug"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanza-hq/stanza-backend/internal/api/respond"
)

// NewRouter creates the root router with panic recovery installed. Callers
// register resources and middleware on it.
func NewRouter(log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.Use(recoverPanics(log))
	return r
}

// recoverPanics converts downstream panics into JSON 500 responses so one bad
// request cannot take the process down.
func recoverPanics(log zerolog.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					log.Error().
						Interface("panic", rec).
						Str("method", r.Method).
						Str("url", r.URL.String()).
						Bytes("stack", debug.Stack()).
						Msg("panic recovered")
					respond.WriteInternalError(w, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/stanza-hq/stanza-backend/internal/api/respond"
	"github.com/stanza-hq/stanza-backend/internal/model"
	"github.com/stanza-hq/stanza-backend/internal/query"
	"github.com/stanza-hq/stanza-backend/internal/resource"
)

// Resource serves the REST surface of one entity type.
type Resource[T any] struct {
	svc *resource.Service[T]
	log zerolog.Logger
}

// Mount registers the resource's routes under /api/{name}. The find and
// exists routes must precede the {id} route so mux matches them first.
func Mount[T any](r *mux.Router, svc *resource.Service[T], log zerolog.Logger) {
	h := &Resource[T]{svc: svc, log: log}
	base := "/api/" + svc.Name()
	r.HandleFunc(base+"/find", h.Find).Methods(http.MethodGet)
	r.HandleFunc(base+"/exists", h.Exists).Methods(http.MethodGet)
	r.HandleFunc(base, h.List).Methods(http.MethodGet)
	r.HandleFunc(base, h.Create).Methods(http.MethodPost)
	r.HandleFunc(base+"/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc(base+"/{id}", h.Update).Methods(http.MethodPut)
	r.HandleFunc(base+"/{id}", h.Delete).Methods(http.MethodDelete)
}

func intParam(r *http.Request, name string) (*int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, model.ErrInvalidPage
	}
	return &n, nil
}

// List handles GET /api/{name} with search, filter, sort and pagination
// query parameters.
func (h *Resource[T]) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := intParam(r, "page")
	if err != nil {
		h.writeError(w, err)
		return
	}
	pageSize, err := intParam(r, "pageSize")
	if err != nil {
		h.writeError(w, err)
		return
	}
	params := query.ListParams{
		Search:   q.Get("search"),
		Filter:   q.Get("filter"),
		SortBy:   q.Get("sortBy"),
		SortDesc: q.Get("sortDesc") == "true",
		Page:     page,
		PageSize: pageSize,
	}
	result, err := h.svc.List(r.Context(), params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

// Find handles GET /api/{name}/find?filter=expr.
func (h *Resource[T]) Find(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.Find(r.Context(), r.URL.Query().Get("filter"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

// Exists handles GET /api/{name}/exists?property=p&value=v.
func (h *Resource[T]) Exists(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	found, err := h.svc.Exists(r.Context(), q.Get("property"), q.Get("value"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, found)
}

// Get handles GET /api/{name}/{id}.
func (h *Resource[T]) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.svc.GetByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, item)
}

// Create handles POST /api/{name}.
func (h *Resource[T]) Create(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	created, err := h.svc.Create(r.Context(), &item)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, created)
}

// Update handles PUT /api/{name}/{id}.
func (h *Resource[T]) Update(w http.ResponseWriter, r *http.Request) {
	var item T
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		respond.WriteBadRequest(w, "Invalid JSON")
		return
	}
	if err := h.svc.Update(r.Context(), mux.Vars(r)["id"], &item); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/{name}/{id}?softDelete=true|false. Without the
// parameter the type's own capability decides.
func (h *Resource[T]) Delete(w http.ResponseWriter, r *http.Request) {
	var soft *bool
	if raw := r.URL.Query().Get("softDelete"); raw != "" {
		v := raw == "true"
		soft = &v
	}
	if err := h.svc.Delete(r.Context(), mux.Vars(r)["id"], soft); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Resource[T]) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		respond.WriteNotFound(w, err.Error())
	case errors.Is(err, model.ErrConcurrencyConflict):
		respond.WriteConflict(w, err.Error())
	case errors.Is(err, model.ErrInvalidIdentifier),
		errors.Is(err, model.ErrUnknownProperty),
		errors.Is(err, model.ErrUnknownSortField),
		errors.Is(err, model.ErrTypeMismatch),
		errors.Is(err, model.ErrInvalidFilter),
		errors.Is(err, model.ErrInvalidPage),
		errors.Is(err, model.ErrIDMismatch),
		errors.Is(err, model.ErrUnsupportedSoftDelete):
		respond.WriteBadRequest(w, err.Error())
	default:
		h.log.Error().Err(err).Str("resource", h.svc.Name()).Msg("request failed")
		respond.WriteInternalError(w, "internal server error")
	}
}

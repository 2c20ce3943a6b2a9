// Package resource exposes the full operation surface of one registered
// entity type as a typed facade over its collection. One Service handles one
// type; the HTTP layer is a thin shell around it.
package resource

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
	"github.com/stanza-hq/stanza-backend/internal/query"
	"github.com/stanza-hq/stanza-backend/internal/store"
)

// Service wires the operation surface of one entity type.
type Service[T any] struct {
	col *store.Collection[T]
	log zerolog.Logger
}

// NewService builds a service for T, which must already be registered.
func NewService[T any](db *store.DB, reg *entity.Registry, log zerolog.Logger) (*Service[T], error) {
	col, err := store.NewCollection[T](db, reg)
	if err != nil {
		return nil, err
	}
	return &Service[T]{col: col, log: log}, nil
}

// Name returns the collection name used in URLs, i.e. the table name.
func (s *Service[T]) Name() string { return s.col.Descriptor().Table }

// ListResult is the paginated list envelope.
type ListResult[T any] struct {
	TotalItems int `json:"totalItems"`
	Items      []T `json:"items"`
}

// FindResult is the filter-query envelope.
type FindResult[T any] struct {
	Count int `json:"count"`
	Items []T `json:"items"`
}

// List returns the windowed result set plus the total count of the filtered
// set regardless of the window.
func (s *Service[T]) List(ctx context.Context, p query.ListParams) (*ListResult[T], error) {
	total, items, err := s.col.List(ctx, p)
	if err != nil {
		return nil, err
	}
	return &ListResult[T]{TotalItems: total, Items: items}, nil
}

// Find evaluates a filter expression against the visible set.
func (s *Service[T]) Find(ctx context.Context, filter string) (*FindResult[T], error) {
	if strings.TrimSpace(filter) == "" {
		return nil, fmt.Errorf("%w: empty expression", model.ErrInvalidFilter)
	}
	items, err := s.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &FindResult[T]{Count: len(items), Items: items}, nil
}

// GetByID parses the raw identifier and fetches the record.
func (s *Service[T]) GetByID(ctx context.Context, idRaw string) (*T, error) {
	id, err := s.col.Descriptor().ParseID(idRaw)
	if err != nil {
		return nil, err
	}
	return s.col.GetByID(ctx, id)
}

// Exists reports whether any visible record has property == value.
func (s *Service[T]) Exists(ctx context.Context, property, value string) (bool, error) {
	return s.col.Exists(ctx, property, value)
}

// Create persists a new record and returns it with id, version and audit
// fields populated.
func (s *Service[T]) Create(ctx context.Context, item *T) (*T, error) {
	if err := s.col.Insert(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Update persists a modified record. The path identifier must match the
// payload's identifier.
func (s *Service[T]) Update(ctx context.Context, idRaw string, item *T) error {
	if _, err := s.col.Descriptor().ParseID(idRaw); err != nil {
		return err
	}
	bodyID := fmt.Sprint(s.col.Descriptor().IDValue(item))
	if !strings.EqualFold(idRaw, bodyID) {
		return fmt.Errorf("%w: path %s, body %s", model.ErrIDMismatch, idRaw, bodyID)
	}
	return s.col.Update(ctx, item)
}

// Delete removes a record. When soft is nil the type's capability decides:
// soft-deletable types are soft-deleted, others removed physically. An
// explicit soft=true on a type without the capability is an error.
func (s *Service[T]) Delete(ctx context.Context, idRaw string, soft *bool) error {
	id, err := s.col.Descriptor().ParseID(idRaw)
	if err != nil {
		return err
	}
	useSoft := s.col.Descriptor().SoftDelete
	if soft != nil {
		useSoft = *soft
	}
	return s.col.Delete(ctx, id, useSoft)
}

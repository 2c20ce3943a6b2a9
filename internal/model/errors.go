package model

import "errors"

// Sentinel errors for the resource operation surface. Handlers map these to
// HTTP status codes; anything unmatched is treated as a store failure.
var (
	ErrNotFound              = errors.New("not found")
	ErrInvalidIdentifier     = errors.New("invalid identifier")
	ErrUnknownProperty       = errors.New("unknown property")
	ErrUnknownSortField      = errors.New("unknown sort field")
	ErrTypeMismatch          = errors.New("type mismatch")
	ErrInvalidFilter         = errors.New("invalid filter expression")
	ErrInvalidPage           = errors.New("invalid page parameters")
	ErrIDMismatch            = errors.New("id mismatch")
	ErrUnsupportedSoftDelete = errors.New("soft delete not supported")
	ErrConcurrencyConflict   = errors.New("concurrency conflict")
)

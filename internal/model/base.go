package model

import (
	"time"

	"github.com/google/uuid"
)

// Base carries the identifier and the optimistic-concurrency token shared by
// every entity. Version starts at 1 on create and is bumped by the store on
// each successful write; updates must echo the stored value back.
type Base struct {
	ID      uuid.UUID `json:"id" db:"id"`
	Version int64     `json:"version" db:"version"`
}

// Audit extends Base with provenance fields and the soft-delete flag.
// Entities embedding it are stamped transparently by the store and their
// deletes are redirected to a flag update unless a hard delete is requested.
type Audit struct {
	Base
	CreatedAt time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" db:"updated_at"`
	DeletedAt *time.Time `json:"deletedAt,omitempty" db:"deleted_at"`
	CreatedBy uuid.UUID  `json:"createdBy" db:"created_by"`
	UpdatedBy *uuid.UUID `json:"updatedBy,omitempty" db:"updated_by"`
	DeletedBy *uuid.UUID `json:"deletedBy,omitempty" db:"deleted_by"`
	IsDeleted bool       `json:"isDeleted" db:"is_deleted"`
}

// Auditable is implemented by entities carrying the full audit field set.
// The store stamps through these methods; payload-supplied values for the
// stamped fields never survive a commit.
type Auditable interface {
	TouchCreated(at time.Time, by uuid.UUID)
	TouchUpdated(at time.Time, by *uuid.UUID)
}

// SoftDeletable is implemented by entities whose deletes can be redirected
// into a flag-and-timestamp update.
type SoftDeletable interface {
	MarkDeleted(at time.Time, by *uuid.UUID)
	Deleted() bool
}

// TouchCreated records creation provenance. An anonymous caller is recorded
// as uuid.Nil. The soft-delete flag is forced off regardless of payload.
func (a *Audit) TouchCreated(at time.Time, by uuid.UUID) {
	a.CreatedAt = at
	a.CreatedBy = by
	a.IsDeleted = false
}

// TouchUpdated records modification provenance.
func (a *Audit) TouchUpdated(at time.Time, by *uuid.UUID) {
	a.UpdatedAt = &at
	a.UpdatedBy = by
}

// MarkDeleted flips the soft-delete flag and records deletion provenance.
func (a *Audit) MarkDeleted(at time.Time, by *uuid.UUID) {
	a.DeletedAt = &at
	a.DeletedBy = by
	a.IsDeleted = true
}

// Deleted reports whether the record is soft-deleted.
func (a *Audit) Deleted() bool { return a.IsDeleted }

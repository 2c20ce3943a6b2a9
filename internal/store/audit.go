package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stanza-hq/stanza-backend/internal/auth"
	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
)

func actorFrom(ctx context.Context) *uuid.UUID {
	return auth.ActorFrom(ctx)
}

// stampCreate sets the creation audit fields on audited types. Anonymous
// writes record uuid.Nil as the creator.
func stampCreate(d *entity.Descriptor, item any, now time.Time, actor *uuid.UUID) {
	if !d.Audited {
		return
	}
	a, ok := item.(model.Auditable)
	if !ok {
		return
	}
	by := uuid.Nil
	if actor != nil {
		by = *actor
	}
	a.TouchCreated(now, by)
}

// stampUpdate sets the modification audit fields on audited types.
func stampUpdate(d *entity.Descriptor, item any, now time.Time, actor *uuid.UUID) {
	if !d.Audited {
		return
	}
	a, ok := item.(model.Auditable)
	if !ok {
		return
	}
	a.TouchUpdated(now, actor)
}

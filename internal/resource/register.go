package resource

import (
	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
)

// RegisterTypes registers every served entity type. Relation targets must be
// registered before the types that reference them.
func RegisterTypes(reg *entity.Registry) error {
	if _, err := entity.Register[model.Company](reg, "companies"); err != nil {
		return err
	}
	if _, err := entity.Register[model.Culture](reg, "cultures"); err != nil {
		return err
	}
	if _, err := entity.Register[model.Resource](reg, "resources"); err != nil {
		return err
	}
	if _, err := entity.Register[model.User](reg, "users"); err != nil {
		return err
	}
	if _, err := entity.Register[model.ResourceCulture](reg, "resource_cultures"); err != nil {
		return err
	}
	return nil
}

package entity

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/stanza-hq/stanza-backend/internal/model"
)

// ParseValue converts a raw string into the field's scalar kind. The result
// is a strongly-typed value suitable for statement parameters; raw strings
// are never interpolated into SQL.
func ParseValue(f *Field, raw string) (any, error) {
	switch f.Kind {
	case KindText:
		return raw, nil
	case KindBool:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, mismatch(f, raw)
		}
		return v, nil
	case KindInt:
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, mismatch(f, raw)
		}
		return v, nil
	case KindFloat:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, mismatch(f, raw)
		}
		return v, nil
	case KindUUID:
		v, err := uuid.Parse(raw)
		if err != nil {
			return nil, mismatch(f, raw)
		}
		return v, nil
	case KindTime:
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, mismatch(f, raw)
		}
		return v, nil
	}
	return nil, mismatch(f, raw)
}

func mismatch(f *Field, raw string) error {
	return fmt.Errorf("%w: %q is not a valid %s value for %s", model.ErrTypeMismatch, raw, f.Kind, f.Name)
}

// ParseID converts a path identifier into the type's identifier kind.
func (d *Descriptor) ParseID(raw string) (any, error) {
	v, err := ParseValue(&d.ID, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a valid %s id", model.ErrInvalidIdentifier, raw, d.ID.Kind)
	}
	return v, nil
}

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/stanza-hq/stanza-backend/internal/entity"
)

// CreateTables creates one table per registered descriptor, in registration
// order. This is a bootstrap for the sqlite/dev targets and tests; production
// schemas are managed outside this service.
func (db *DB) CreateTables(ctx context.Context, reg *entity.Registry) error {
	for _, d := range reg.All() {
		stmt := createTableSQL(d, db.dialect)
		if _, err := db.sqlDB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create table %s: %w", d.Table, err)
		}
	}
	return nil
}

func createTableSQL(d *entity.Descriptor, dialect Dialect) string {
	cols := make([]string, 0, len(d.Columns))
	for i := range d.Columns {
		f := &d.Columns[i]
		decl := f.Column + " " + columnType(f.Kind, dialect)
		switch {
		case f.Column == d.ID.Column:
			decl += " PRIMARY KEY"
		case !f.Nullable:
			decl += " NOT NULL"
		}
		cols = append(cols, decl)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", d.Table, strings.Join(cols, ",\n  "))
}

func columnType(k entity.Kind, dialect Dialect) string {
	if dialect.Name == "postgres" {
		switch k {
		case entity.KindUUID:
			return "UUID"
		case entity.KindText:
			return "TEXT"
		case entity.KindBool:
			return "BOOLEAN"
		case entity.KindInt:
			return "BIGINT"
		case entity.KindFloat:
			return "DOUBLE PRECISION"
		case entity.KindTime:
			return "TIMESTAMPTZ"
		}
		return "TEXT"
	}
	// sqlite types are advisory; TIMESTAMP matters for time round-trips
	switch k {
	case entity.KindBool:
		return "BOOLEAN"
	case entity.KindInt:
		return "BIGINT"
	case entity.KindFloat:
		return "REAL"
	case entity.KindTime:
		return "TIMESTAMP"
	}
	return "TEXT"
}

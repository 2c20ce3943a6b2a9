package store

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
	"github.com/stanza-hq/stanza-backend/internal/query"
)

// Collection executes persistence operations for one registered entity type.
// SQL is generated from the capability descriptor; audit stamping and
// soft-delete redirection happen transparently on every write.
type Collection[T any] struct {
	db   *DB
	desc *entity.Descriptor
}

// NewCollection binds a collection to the registered descriptor of T.
func NewCollection[T any](db *DB, reg *entity.Registry) (*Collection[T], error) {
	t := reflect.TypeOf((*T)(nil)).Elem()
	d, ok := reg.ForType(t)
	if !ok {
		return nil, fmt.Errorf("store: type %s is not registered", t)
	}
	return &Collection[T]{db: db, desc: d}, nil
}

// Descriptor exposes the collection's capability descriptor.
func (c *Collection[T]) Descriptor() *entity.Descriptor { return c.desc }

func (c *Collection[T]) ph(n int) string { return c.db.dialect.Placeholder(n) }

// fail logs a store-level failure with operation context and wraps it.
// Taxonomy errors pass through fail's callers untouched.
func (c *Collection[T]) fail(op string, id any, err error) error {
	ev := c.db.log.Error().Err(err).Str("entity", c.desc.Name).Str("op", op)
	if id != nil {
		ev = ev.Str("id", fmt.Sprint(id))
	}
	ev.Msg("store operation failed")
	return fmt.Errorf("%s %s: %w", op, c.desc.Name, err)
}

// List runs the filtered/sorted/windowed query and independently counts the
// filtered set, so totals never depend on the pagination window.
func (c *Collection[T]) List(ctx context.Context, p query.ListParams) (int, []T, error) {
	cl, err := query.Compose(c.desc, p, c.db.dialect.Placeholder)
	if err != nil {
		return 0, nil, err
	}
	total, err := c.count(ctx, cl)
	if err != nil {
		return 0, nil, c.fail("list", nil, err)
	}
	items, err := c.selectMany(ctx, cl)
	if err != nil {
		return 0, nil, c.fail("list", nil, err)
	}
	return total, items, nil
}

// Find runs a raw filter expression, with the soft-delete exclusion AND-ed in.
func (c *Collection[T]) Find(ctx context.Context, filter string) ([]T, error) {
	cl, err := query.Compose(c.desc, query.ListParams{Filter: filter}, c.db.dialect.Placeholder)
	if err != nil {
		return nil, err
	}
	items, err := c.selectMany(ctx, cl)
	if err != nil {
		return nil, c.fail("find", nil, err)
	}
	return items, nil
}

// GetByID fetches a single record by typed identifier. Soft-deleted records
// are invisible through this path.
func (c *Collection[T]) GetByID(ctx context.Context, id any) (*T, error) {
	sel, specs := c.selectSQL()
	where := fmt.Sprintf("t.%s = %s", c.desc.ID.Column, c.ph(1))
	if c.desc.SoftDelete {
		where += " AND t.is_deleted = FALSE"
	}
	rows, err := c.db.sqlDB.QueryContext(ctx, sel+" WHERE "+where, id)
	if err != nil {
		return nil, c.fail("get", id, err)
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, c.fail("get", id, err)
		}
		return nil, model.ErrNotFound
	}
	item, err := scanRow[T](rows, c.desc, specs)
	if err != nil {
		return nil, c.fail("get", id, err)
	}
	return &item, nil
}

// Exists reports whether any visible record has the given property value.
func (c *Collection[T]) Exists(ctx context.Context, property, value string) (bool, error) {
	pred, err := query.Equality(c.desc, property, value, c.db.dialect.Placeholder, 0)
	if err != nil {
		return false, err
	}
	where := pred.SQL
	if c.desc.SoftDelete {
		where += " AND t.is_deleted = FALSE"
	}
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s t WHERE %s)", c.desc.Table, where)
	var found bool
	if err := c.db.sqlDB.QueryRowContext(ctx, q, pred.Args...).Scan(&found); err != nil {
		return false, c.fail("exists", nil, err)
	}
	return found, nil
}

// Insert persists a new record. Creation provenance is stamped, the
// soft-delete flag is forced off, a missing UUID id is generated and the
// concurrency token starts at 1.
func (c *Collection[T]) Insert(ctx context.Context, item *T) error {
	stampCreate(c.desc, item, c.db.now(), actorFrom(ctx))
	id := c.desc.EnsureID(item)
	c.desc.SetVersion(item, 1)

	rv := reflect.ValueOf(item).Elem()
	cols := make([]string, 0, len(c.desc.Columns))
	phs := make([]string, 0, len(c.desc.Columns))
	args := make([]any, 0, len(c.desc.Columns))
	for i := range c.desc.Columns {
		f := &c.desc.Columns[i]
		cols = append(cols, f.Column)
		args = append(args, f.Value(rv))
		phs = append(phs, c.ph(len(args)))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		c.desc.Table, strings.Join(cols, ", "), strings.Join(phs, ", "))
	if _, err := c.db.sqlDB.ExecContext(ctx, q, args...); err != nil {
		return c.fail("create", id, err)
	}
	return nil
}

// protected columns never change through the update path, even when the
// payload carries different values for them.
func (c *Collection[T]) protectedColumns() map[string]bool {
	p := map[string]bool{
		c.desc.ID.Column: true,
		"created_at":     true,
		"created_by":     true,
		"deleted_at":     true,
		"deleted_by":     true,
	}
	if c.desc.Version != nil {
		p[c.desc.Version.Column] = true
	}
	return p
}

// Update persists a modified record. The payload must carry the current
// concurrency token; a stale token fails the whole commit with
// ErrConcurrencyConflict and writes nothing.
func (c *Collection[T]) Update(ctx context.Context, item *T) error {
	stampUpdate(c.desc, item, c.db.now(), actorFrom(ctx))

	rv := reflect.ValueOf(item).Elem()
	protected := c.protectedColumns()
	var sets []string
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return c.ph(len(args))
	}
	for i := range c.desc.Columns {
		f := &c.desc.Columns[i]
		if protected[f.Column] {
			continue
		}
		sets = append(sets, f.Column+" = "+bind(f.Value(rv)))
	}
	version := c.desc.VersionValue(item)
	if c.desc.Version != nil {
		vcol := c.desc.Version.Column
		sets = append(sets, fmt.Sprintf("%s = %s + 1", vcol, vcol))
	}

	id := c.desc.IDValue(item)
	where := fmt.Sprintf("%s = %s", c.desc.ID.Column, bind(id))
	if c.desc.Version != nil {
		where += fmt.Sprintf(" AND %s = %s", c.desc.Version.Column, bind(version))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s", c.desc.Table, strings.Join(sets, ", "), where)
	res, err := c.db.sqlDB.ExecContext(ctx, q, args...)
	if err != nil {
		return c.fail("update", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return c.fail("update", id, err)
	}
	if n == 0 {
		if c.desc.Version == nil {
			return model.ErrNotFound
		}
		exists, err := c.rowExists(ctx, id)
		if err != nil {
			return c.fail("update", id, err)
		}
		if exists {
			return model.ErrConcurrencyConflict
		}
		return model.ErrNotFound
	}
	c.desc.SetVersion(item, version+1)
	return nil
}

// Delete removes a record. With soft semantics the physical removal is
// redirected into a flag-and-timestamp update; the choice is an explicit
// per-call parameter, never shared state.
func (c *Collection[T]) Delete(ctx context.Context, id any, soft bool) error {
	if !soft {
		q := fmt.Sprintf("DELETE FROM %s WHERE %s = %s", c.desc.Table, c.desc.ID.Column, c.ph(1))
		res, err := c.db.sqlDB.ExecContext(ctx, q, id)
		if err != nil {
			return c.fail("delete", id, err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return c.fail("delete", id, err)
		} else if n == 0 {
			return model.ErrNotFound
		}
		return nil
	}

	if !c.desc.SoftDelete {
		return fmt.Errorf("%w: %s", model.ErrUnsupportedSoftDelete, c.desc.Name)
	}
	now := c.db.now()
	actor := actorFrom(ctx)
	var args []any
	bind := func(v any) string {
		args = append(args, v)
		return c.ph(len(args))
	}
	sets := []string{"is_deleted = TRUE"}
	if f, ok := c.desc.FieldByName("DeletedAt"); ok {
		sets = append(sets, f.Column+" = "+bind(now))
	}
	if f, ok := c.desc.FieldByName("DeletedBy"); ok {
		var by any
		if actor != nil {
			by = *actor
		}
		sets = append(sets, f.Column+" = "+bind(by))
	}
	if c.desc.Version != nil {
		vcol := c.desc.Version.Column
		sets = append(sets, fmt.Sprintf("%s = %s + 1", vcol, vcol))
	}
	q := fmt.Sprintf("UPDATE %s SET %s WHERE %s = %s AND is_deleted = FALSE",
		c.desc.Table, strings.Join(sets, ", "), c.desc.ID.Column, bind(id))
	res, err := c.db.sqlDB.ExecContext(ctx, q, args...)
	if err != nil {
		return c.fail("delete", id, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return c.fail("delete", id, err)
	} else if n == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (c *Collection[T]) count(ctx context.Context, cl query.Clauses) (int, error) {
	q := "SELECT COUNT(*) FROM " + c.desc.Table + " t"
	if cl.Where != "" {
		q += " WHERE " + cl.Where
	}
	var n int
	err := c.db.sqlDB.QueryRowContext(ctx, q, cl.Args...).Scan(&n)
	return n, err
}

func (c *Collection[T]) rowExists(ctx context.Context, id any) (bool, error) {
	q := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s t WHERE t.%s = %s)",
		c.desc.Table, c.desc.ID.Column, c.ph(1))
	var found bool
	err := c.db.sqlDB.QueryRowContext(ctx, q, id).Scan(&found)
	return found, err
}

func (c *Collection[T]) selectMany(ctx context.Context, cl query.Clauses) ([]T, error) {
	sel, specs := c.selectSQL()
	q := sel
	if cl.Where != "" {
		q += " WHERE " + cl.Where
	}
	if cl.OrderBy != "" {
		q += " ORDER BY " + cl.OrderBy
	}
	if cl.Window != nil {
		q += fmt.Sprintf(" LIMIT %d OFFSET %d", cl.Window.Limit, cl.Window.Offset)
	}
	rows, err := c.db.sqlDB.QueryContext(ctx, q, cl.Args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []T{}
	for rows.Next() {
		item, err := scanRow[T](rows, c.desc, specs)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// selectSQL renders the projection with every to-one relation LEFT JOINed,
// and the scan layout matching it column for column.
func (c *Collection[T]) selectSQL() (string, []scanSpec) {
	var cols []string
	var specs []scanSpec
	for i := range c.desc.Columns {
		f := &c.desc.Columns[i]
		cols = append(cols, "t."+f.Column)
		specs = append(specs, scanSpec{field: f})
	}
	var joins strings.Builder
	for ri := range c.desc.Relations {
		rel := &c.desc.Relations[ri]
		alias := fmt.Sprintf("r%d", ri)
		for j := range rel.Target.Columns {
			f := &rel.Target.Columns[j]
			cols = append(cols, alias+"."+f.Column)
			specs = append(specs, scanSpec{field: f, rel: rel})
		}
		fmt.Fprintf(&joins, " LEFT JOIN %s %s ON %s.%s = t.%s",
			rel.Target.Table, alias, alias, rel.Target.ID.Column, rel.FK.Column)
	}
	return "SELECT " + strings.Join(cols, ", ") + " FROM " + c.desc.Table + " t" + joins.String(), specs
}

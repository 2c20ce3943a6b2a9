// Package query turns untyped request parameters (search text, sort field,
// filter expressions, property/value pairs) into parameterized SQL predicates
// and clauses validated against an entity descriptor. All values travel as
// statement parameters; nothing caller-supplied reaches the SQL text.
package query

import (
	"fmt"
	"strings"

	"github.com/stanza-hq/stanza-backend/internal/entity"
	"github.com/stanza-hq/stanza-backend/internal/model"
)

// Placeholder renders the n-th (1-based) statement parameter for a dialect.
type Placeholder func(n int) string

// Predicate is a compiled boolean condition plus its bound arguments.
type Predicate struct {
	SQL  string
	Args []any
}

// ListParams captures the untyped inputs of the list and find operations.
type ListParams struct {
	Search   string
	Filter   string
	SortBy   string
	SortDesc bool
	Page     *int
	PageSize *int
}

// Window is a validated pagination window.
type Window struct {
	Offset int
	Limit  int
}

// Clauses is the composed, executable shape of one list/find request. The
// entity table is always aliased "t".
type Clauses struct {
	Where   string // without the WHERE keyword, empty when unfiltered
	Args    []any
	OrderBy string // e.g. "t.email DESC", empty means store-defined order
	Window  *Window
}

// Compose assembles filtering, ordering and pagination for a request. The
// soft-delete exclusion is AND-ed first, unconditionally, whenever the type
// supports it; callers cannot opt out through the read paths.
func Compose(d *entity.Descriptor, p ListParams, ph Placeholder) (Clauses, error) {
	var c Clauses
	var parts []string
	add := func(pred Predicate) {
		if pred.SQL != "" {
			parts = append(parts, pred.SQL)
			c.Args = append(c.Args, pred.Args...)
		}
	}

	if d.SoftDelete {
		parts = append(parts, "t.is_deleted = FALSE")
	}
	add(Search(d, p.Search, ph, len(c.Args)))
	if p.Filter != "" {
		fp, err := Filter(d, p.Filter, ph, len(c.Args))
		if err != nil {
			return Clauses{}, err
		}
		add(fp)
	}
	c.Where = strings.Join(parts, " AND ")

	if p.SortBy != "" {
		col, err := SortColumn(d, p.SortBy)
		if err != nil {
			return Clauses{}, err
		}
		dir := "ASC"
		if p.SortDesc {
			dir = "DESC"
		}
		c.OrderBy = "t." + col + " " + dir
	}

	w, err := PageWindow(p.Page, p.PageSize)
	if err != nil {
		return Clauses{}, err
	}
	c.Window = w
	return c, nil
}

// Search builds a case-insensitive substring match OR-ed across every
// text-kind field. A type with no text fields or an empty term yields an
// empty predicate, so search simply has no effect.
func Search(d *entity.Descriptor, term string, ph Placeholder, argBase int) Predicate {
	if term == "" || len(d.Search) == 0 {
		return Predicate{}
	}
	pattern := "%" + strings.ToLower(term) + "%"
	parts := make([]string, 0, len(d.Search))
	args := make([]any, 0, len(d.Search))
	for i := range d.Search {
		args = append(args, pattern)
		parts = append(parts, fmt.Sprintf("LOWER(t.%s) LIKE %s", d.Search[i].Column, ph(argBase+len(args))))
	}
	return Predicate{SQL: "(" + strings.Join(parts, " OR ") + ")", Args: args}
}

// Equality builds the property = value predicate used by the existence
// check. The raw value is converted to the field's kind before binding.
func Equality(d *entity.Descriptor, property, raw string, ph Placeholder, argBase int) (Predicate, error) {
	f, ok := d.FieldByName(property)
	if !ok {
		return Predicate{}, fmt.Errorf("%w: %s has no property %q", model.ErrUnknownProperty, d.Name, property)
	}
	v, err := entity.ParseValue(f, raw)
	if err != nil {
		return Predicate{}, err
	}
	return Predicate{SQL: fmt.Sprintf("t.%s = %s", f.Column, ph(argBase+1)), Args: []any{v}}, nil
}

// SortColumn resolves a sort property name to its column.
func SortColumn(d *entity.Descriptor, name string) (string, error) {
	f, ok := d.FieldByName(name)
	if !ok {
		return "", fmt.Errorf("%w: %s has no field %q", model.ErrUnknownSortField, d.Name, name)
	}
	return f.Column, nil
}

// PageWindow validates pagination. Both page and size must be present to
// paginate; otherwise the full result set is returned. Page is zero-based.
func PageWindow(page, size *int) (*Window, error) {
	if page == nil || size == nil {
		return nil, nil
	}
	if *page < 0 || *size < 0 {
		return nil, fmt.Errorf("%w: page=%d pageSize=%d", model.ErrInvalidPage, *page, *size)
	}
	return &Window{Offset: *page * *size, Limit: *size}, nil
}

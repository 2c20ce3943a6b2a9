package store

import (
	"database/sql"
	"reflect"

	"github.com/google/uuid"

	"github.com/stanza-hq/stanza-backend/internal/entity"
)

// scanSpec ties one projected column to its destination field; rel is nil
// for the entity's own columns.
type scanSpec struct {
	field *entity.Field
	rel   *entity.Relation
}

// colValue is a kind-dispatched scan buffer for one column.
type colValue struct {
	spec scanSpec
	s    sql.NullString
	b    sql.NullBool
	i    sql.NullInt64
	f    sql.NullFloat64
	t    sql.NullTime
	u    uuid.NullUUID
}

func (cv *colValue) dest() any {
	switch cv.spec.field.Kind {
	case entity.KindText:
		return &cv.s
	case entity.KindBool:
		return &cv.b
	case entity.KindInt:
		return &cv.i
	case entity.KindFloat:
		return &cv.f
	case entity.KindTime:
		return &cv.t
	case entity.KindUUID:
		return &cv.u
	}
	return new(any)
}

func (cv *colValue) valid() bool {
	switch cv.spec.field.Kind {
	case entity.KindText:
		return cv.s.Valid
	case entity.KindBool:
		return cv.b.Valid
	case entity.KindInt:
		return cv.i.Valid
	case entity.KindFloat:
		return cv.f.Valid
	case entity.KindTime:
		return cv.t.Valid
	case entity.KindUUID:
		return cv.u.Valid
	}
	return false
}

// assign writes the scanned value into the destination struct, allocating
// for pointer fields and zeroing them on NULL.
func (cv *colValue) assign(target reflect.Value) {
	fv := target.FieldByIndex(cv.spec.field.Index)
	set := func(dst reflect.Value) {
		switch cv.spec.field.Kind {
		case entity.KindText:
			dst.SetString(cv.s.String)
		case entity.KindBool:
			dst.SetBool(cv.b.Bool)
		case entity.KindInt:
			dst.SetInt(cv.i.Int64)
		case entity.KindFloat:
			dst.SetFloat(cv.f.Float64)
		case entity.KindTime:
			dst.Set(reflect.ValueOf(cv.t.Time))
		case entity.KindUUID:
			dst.Set(reflect.ValueOf(cv.u.UUID))
		}
	}
	if fv.Kind() == reflect.Pointer {
		if !cv.valid() {
			fv.SetZero()
			return
		}
		p := reflect.New(fv.Type().Elem())
		set(p.Elem())
		fv.Set(p)
		return
	}
	if cv.valid() {
		set(fv)
	} else {
		fv.SetZero()
	}
}

// scanRow materializes one result row, populating relation pointers whenever
// the joined row's identifier came back non-null.
func scanRow[T any](rows *sql.Rows, d *entity.Descriptor, specs []scanSpec) (T, error) {
	var item T
	vals := make([]colValue, len(specs))
	dests := make([]any, len(specs))
	for i := range specs {
		vals[i].spec = specs[i]
		dests[i] = vals[i].dest()
	}
	if err := rows.Scan(dests...); err != nil {
		return item, err
	}

	rv := reflect.ValueOf(&item).Elem()
	for i := range vals {
		if vals[i].spec.rel == nil {
			vals[i].assign(rv)
		}
	}
	for ri := range d.Relations {
		rel := &d.Relations[ri]
		present := false
		for i := range vals {
			if vals[i].spec.rel == rel && vals[i].spec.field.Column == rel.Target.ID.Column && vals[i].valid() {
				present = true
				break
			}
		}
		if !present {
			continue
		}
		tv := reflect.New(rel.Target.Type)
		for i := range vals {
			if vals[i].spec.rel == rel {
				vals[i].assign(tv.Elem())
			}
		}
		rv.FieldByIndex(rel.Index).Set(tv)
	}
	return item, nil
}

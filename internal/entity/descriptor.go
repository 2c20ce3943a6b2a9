// Package entity derives per-type capability descriptors for registered
// entity types. A descriptor is computed once at registration from struct
// tags and interface assertions, then cached for the process lifetime; the
// query and store layers drive everything off it so no per-entity persistence
// code exists anywhere else.
package entity

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/stanza-hq/stanza-backend/internal/model"
)

// Kind classifies a mapped field's scalar type.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindText
	KindBool
	KindInt
	KindFloat
	KindTime
	KindUUID
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	case KindUUID:
		return "uuid"
	}
	return "invalid"
}

// Field describes one mapped scalar field of an entity struct.
type Field struct {
	Name     string // exported Go field name
	Column   string // SQL column name from the db tag
	Kind     Kind
	Nullable bool
	Index    []int // struct index path, cached for runtime access
}

// Value returns the field's driver-ready value from an entity struct value.
// Nullable fields with a nil pointer yield nil.
func (f *Field) Value(rv reflect.Value) any {
	fv := rv.FieldByIndex(f.Index)
	if f.Nullable {
		if fv.IsNil() {
			return nil
		}
		fv = fv.Elem()
	}
	return fv.Interface()
}

// Relation describes a to-one navigation that is eagerly loaded on reads.
type Relation struct {
	Name   string // pointer field name, e.g. "Company"
	FK     *Field // owning foreign-key field
	Index  []int  // index path of the pointer field holding the target
	Target *Descriptor
}

// Descriptor is the cached capability summary of one entity type.
type Descriptor struct {
	Name       string
	Table      string
	Type       reflect.Type
	ID         Field
	Version    *Field
	Columns    []Field // every mapped scalar column, id and audit included
	Search     []Field // text-kind columns eligible for free-text search
	Relations  []Relation
	SoftDelete bool
	Audited    bool

	fields map[string]*Field // keyed by lower-cased Go field name
}

// FieldByName resolves a caller-supplied property name case-insensitively.
func (d *Descriptor) FieldByName(name string) (*Field, bool) {
	f, ok := d.fields[strings.ToLower(name)]
	return f, ok
}

// IDValue returns the identifier value of an entity instance.
func (d *Descriptor) IDValue(item any) any {
	return d.ID.Value(structValue(item))
}

// EnsureID assigns a fresh UUID when the identifier is zero and returns the
// resulting id. Non-UUID identifiers are returned as-is; callers own them.
func (d *Descriptor) EnsureID(item any) any {
	rv := structValue(item)
	fv := rv.FieldByIndex(d.ID.Index)
	if d.ID.Kind == KindUUID && fv.Interface().(uuid.UUID) == uuid.Nil {
		fv.Set(reflect.ValueOf(uuid.New()))
	}
	return fv.Interface()
}

// VersionValue returns the concurrency token, or 0 when the type has none.
func (d *Descriptor) VersionValue(item any) int64 {
	if d.Version == nil {
		return 0
	}
	return structValue(item).FieldByIndex(d.Version.Index).Int()
}

// SetVersion stores the concurrency token on an entity instance.
func (d *Descriptor) SetVersion(item any, v int64) {
	if d.Version == nil {
		return
	}
	structValue(item).FieldByIndex(d.Version.Index).SetInt(v)
}

func structValue(item any) reflect.Value {
	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	return rv
}

var (
	uuidType          = reflect.TypeOf(uuid.UUID{})
	timeType          = reflect.TypeOf(time.Time{})
	auditableType     = reflect.TypeOf((*model.Auditable)(nil)).Elem()
	softDeletableType = reflect.TypeOf((*model.SoftDeletable)(nil)).Elem()
)

func kindOf(t reflect.Type) (Kind, bool) {
	nullable := false
	if t.Kind() == reflect.Pointer {
		nullable = true
		t = t.Elem()
	}
	switch t {
	case uuidType:
		return KindUUID, nullable
	case timeType:
		return KindTime, nullable
	}
	switch t.Kind() {
	case reflect.String:
		return KindText, nullable
	case reflect.Bool:
		return KindBool, nullable
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, nullable
	case reflect.Float32, reflect.Float64:
		return KindFloat, nullable
	}
	return KindInvalid, nullable
}

var auditColumns = []string{"created_at", "created_by", "updated_at", "updated_by", "deleted_at", "deleted_by"}

// describe walks the struct once and derives the descriptor. Relation targets
// must already be registered. Callers hold the registry lock.
func describe(t reflect.Type, table string, reg *Registry) (*Descriptor, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("entity: %s is not a struct type", t)
	}
	d := &Descriptor{
		Name:   t.Name(),
		Table:  table,
		Type:   t,
		fields: make(map[string]*Field),
	}

	type pendingRel struct {
		name   string
		fk     string
		index  []int
		target reflect.Type
	}
	var rels []pendingRel

	var walk func(st reflect.Type, base []int) error
	walk = func(st reflect.Type, base []int) error {
		for i := 0; i < st.NumField(); i++ {
			sf := st.Field(i)
			if !sf.IsExported() {
				continue
			}
			idx := append(append([]int{}, base...), i)
			tag := sf.Tag.Get("db")
			if tag == "-" {
				if ref := sf.Tag.Get("ref"); ref != "" {
					if sf.Type.Kind() != reflect.Pointer || sf.Type.Elem().Kind() != reflect.Struct {
						return fmt.Errorf("entity %s: relation field %s must be a struct pointer", d.Name, sf.Name)
					}
					rels = append(rels, pendingRel{name: sf.Name, fk: ref, index: idx, target: sf.Type.Elem()})
				}
				continue
			}
			if sf.Anonymous && sf.Type.Kind() == reflect.Struct && tag == "" {
				if err := walk(sf.Type, idx); err != nil {
					return err
				}
				continue
			}
			if tag == "" {
				// unmapped field, e.g. computed values
				continue
			}
			kind, nullable := kindOf(sf.Type)
			if kind == KindInvalid {
				return fmt.Errorf("entity %s: field %s has unsupported type %s", d.Name, sf.Name, sf.Type)
			}
			d.Columns = append(d.Columns, Field{Name: sf.Name, Column: tag, Kind: kind, Nullable: nullable, Index: idx})
		}
		return nil
	}
	if err := walk(t, nil); err != nil {
		return nil, err
	}

	hasColumn := func(col string) bool {
		for i := range d.Columns {
			if d.Columns[i].Column == col {
				return true
			}
		}
		return false
	}

	for i := range d.Columns {
		f := &d.Columns[i]
		d.fields[strings.ToLower(f.Name)] = f
		if f.Kind == KindText {
			d.Search = append(d.Search, *f)
		}
	}

	id, ok := d.fields["id"]
	if !ok {
		return nil, fmt.Errorf("entity %s: no identifier field", d.Name)
	}
	d.ID = *id
	if v, ok := d.fields["version"]; ok {
		d.Version = v
	}

	// Soft-delete capability needs the flag column and the marking interface.
	d.SoftDelete = hasColumn("is_deleted") && reflect.PointerTo(t).Implements(softDeletableType)

	// Audit capability requires the full column set and the compile-checked
	// stamping interface; anything partial fails closed.
	d.Audited = reflect.PointerTo(t).Implements(auditableType)
	for _, col := range auditColumns {
		if !hasColumn(col) {
			d.Audited = false
			break
		}
	}

	for _, pr := range rels {
		fk, ok := d.fields[strings.ToLower(pr.fk)]
		if !ok {
			return nil, fmt.Errorf("entity %s: relation %s references unknown foreign-key field %s", d.Name, pr.name, pr.fk)
		}
		td, ok := reg.lookupLocked(pr.target)
		if !ok {
			return nil, fmt.Errorf("entity %s: relation target %s is not registered", d.Name, pr.target.Name())
		}
		d.Relations = append(d.Relations, Relation{Name: pr.name, FK: fk, Index: pr.index, Target: td})
	}

	return d, nil
}

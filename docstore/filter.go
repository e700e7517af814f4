package docstore

import (
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// FilterKind tells which variant a Filter carries.
type FilterKind int

const (
	// FilterByID selects exactly one document by its ID.
	FilterByID FilterKind = iota + 1

	// FilterByFields selects documents whose fields equal all given values.
	FilterByFields
)

func (k FilterKind) String() string {
	switch k {
	case FilterByID:
		return "by-id"
	case FilterByFields:
		return "by-fields"
	default:
		return "unknown"
	}
}

/***** FieldValue *****/

// FieldValue is one equality constraint of a FilterByFields filter.
type FieldValue struct {
	field string
	value any
}

// F builds a present FieldValue.
func F(field string, value any) FieldValue {
	return FieldValue{field: field, value: value}
}

// Opt builds a FieldValue from an optional value. A nil pointer yields an absent field which the filter drops.
func Opt[T any](field string, value *T) FieldValue {
	if value == nil {
		return FieldValue{field: field}
	}

	return FieldValue{field: field, value: *value}
}

func (fv FieldValue) Field() string {
	return fv.field
}

func (fv FieldValue) Value() any {
	return fv.value
}

/***** Filter *****/

// Filter is an immutable "what to fetch" value. A nil *Filter means "fetch nothing".
type Filter struct {
	kind   FilterKind
	id     string
	fields []FieldValue
}

// ByID creates a filter selecting the document with the given ID.
func ByID(id string) *Filter {
	return &Filter{kind: FilterByID, id: id}
}

// ByFields creates a filter selecting documents matching every present field.
//
// It sanitizes the input:
//   - removing absent fields (empty field name, nil value, or typed nil such as a nil *string)
//   - sorting the fields by name
//   - keeping only the first value of a duplicate field name
func ByFields(fields ...FieldValue) *Filter {
	return &Filter{kind: FilterByFields, fields: sanitizeFieldValues(fields)}
}

func sanitizeFieldValues(fields []FieldValue) []FieldValue {
	all := slices.Clone(fields)
	all = slices.DeleteFunc(all, func(fv FieldValue) bool { return fv.field == "" || isNil(fv.value) })
	slices.SortStableFunc(all, func(a, b FieldValue) int { return strings.Compare(a.field, b.field) })
	all = slices.CompactFunc(all, func(a, b FieldValue) bool { return a.field == b.field })
	all = slices.Clip(all)

	return all
}

func isNil(value any) bool {
	if value == nil {
		return true
	}

	switch v := reflect.ValueOf(value); v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return v.IsNil()
	default:
		return false
	}
}

func (f Filter) Kind() FilterKind {
	return f.kind
}

// ID returns the document ID of a FilterByID filter, or "" for other kinds.
func (f Filter) ID() string {
	return f.id
}

// Fields returns the present field constraints of a FilterByFields filter, sorted by field name.
func (f Filter) Fields() []FieldValue {
	return f.fields
}

// Equal reports whether both filters select the same documents.
func (f *Filter) Equal(other *Filter) bool {
	if f == nil || other == nil {
		return f == other
	}

	if f.kind != other.kind || f.id != other.id || len(f.fields) != len(other.fields) {
		return false
	}

	for i := range f.fields {
		if f.fields[i].field != other.fields[i].field ||
			!reflect.DeepEqual(f.fields[i].value, other.fields[i].value) {
			return false
		}
	}

	return true
}

func (f *Filter) String() string {
	if f == nil {
		return "none"
	}

	switch f.kind {
	case FilterByID:
		return "id=" + f.id
	case FilterByFields:
		if len(f.fields) == 0 {
			return "all"
		}

		parts := make([]string, 0, len(f.fields))
		for _, fv := range f.fields {
			parts = append(parts, fmt.Sprintf("%s=%v", fv.field, fv.value))
		}

		return strings.Join(parts, ",")
	default:
		return "unknown"
	}
}

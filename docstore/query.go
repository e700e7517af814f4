package docstore

import (
	"reflect"
	"slices"
	"strings"
)

// Constraint is one field equality a query result must satisfy.
type Constraint struct {
	Field string
	Value any
}

// Query selects documents of one collection matching all constraints, in natural store order.
// A Limit of 0 means no limit.
type Query struct {
	Collection  string
	Constraints []Constraint
	Limit       int
}

// NewQuery creates an unconstrained query over collection.
func NewQuery(collection string) Query {
	return Query{Collection: collection}
}

// QueryFromFilter translates the field constraints of a filter into a query.
// FilterByID filters translate into an unconstrained query, callers read those as documents.
func QueryFromFilter(collection string, filter Filter, limit int) Query {
	q := NewQuery(collection).WithLimit(limit)

	for _, fv := range filter.Fields() {
		q = q.Where(fv.Field(), fv.Value())
	}

	return q
}

// Where returns a copy of the query with one more equality constraint.
func (q Query) Where(field string, value any) Query {
	q.Constraints = append(slices.Clip(q.Constraints), Constraint{Field: field, Value: value})

	return q
}

// WithLimit returns a copy of the query with the given limit.
func (q Query) WithLimit(limit int) Query {
	q.Limit = limit

	return q
}

// Validate checks that the query can be executed.
func (q Query) Validate() error {
	if q.Collection == "" {
		return ErrEmptyCollection
	}

	return nil
}

// Equal reports whether both queries select the same documents. Constraint order does not matter.
func (q Query) Equal(other Query) bool {
	if q.Collection != other.Collection || q.Limit != other.Limit || len(q.Constraints) != len(other.Constraints) {
		return false
	}

	a, b := sortedConstraints(q.Constraints), sortedConstraints(other.Constraints)
	for i := range a {
		if a[i].Field != b[i].Field || !reflect.DeepEqual(a[i].Value, b[i].Value) {
			return false
		}
	}

	return true
}

func sortedConstraints(constraints []Constraint) []Constraint {
	sorted := slices.Clone(constraints)
	slices.SortStableFunc(sorted, func(a, b Constraint) int { return strings.Compare(a.Field, b.Field) })

	return sorted
}

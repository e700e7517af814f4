package livequery

import (
	"context"
	"errors"
	"fmt"

	"github.com/heavy-duty/docstate/docstore"
)

var (
	ErrMappingFailed     = errors.New("mapping the document failed")
	ErrUnknownFilterKind = errors.New("unknown filter kind")
)

// Mapper converts the data of one document into a domain value.
type Mapper[T any] func(id string, data docstore.Fields) (T, error)

func (m Mapper[T]) apply(id string, data docstore.Fields) (T, error) {
	value, err := m(id, data)
	if err != nil {
		return value, errors.Join(ErrMappingFailed, fmt.Errorf("document %q: %w", id, err))
	}

	return value, nil
}

/***** EntityResolver *****/

// EntityResolver resolves filters into live single-entity reads of one collection.
//
//   - ByID watches the document; a missing document yields nil.
//   - ByFields watches the first match in natural order (limit 1); no match yields nil.
type EntityResolver[T any] struct {
	client     docstore.Reader
	collection string
	mapper     Mapper[T]
}

// NewEntityResolver creates an EntityResolver over collection.
func NewEntityResolver[T any](client docstore.Reader, collection string, mapper Mapper[T]) *EntityResolver[T] {
	return &EntityResolver[T]{client: client, collection: collection, mapper: mapper}
}

// Collection returns the collection this resolver reads.
func (r *EntityResolver[T]) Collection() string {
	return r.collection
}

// Query returns the query a ByFields filter resolves to.
func (r *EntityResolver[T]) Query(filter docstore.Filter) docstore.Query {
	return docstore.QueryFromFilter(r.collection, filter, 1)
}

// Resolve returns the live query for filter, or nil for a nil filter.
func (r *EntityResolver[T]) Resolve(filter *docstore.Filter) *LiveQuery[*T] {
	if filter == nil {
		return nil
	}

	switch filter.Kind() {
	case docstore.FilterByID:
		ref := docstore.Doc(r.collection, filter.ID())

		return New(func(ctx context.Context) Source[*T] {
			return documentSource[*T]{
				it:      r.client.WatchDocument(ctx, ref),
				convert: r.fromDocument,
			}
		})

	case docstore.FilterByFields:
		query := r.Query(*filter)

		return New(func(ctx context.Context) Source[*T] {
			return querySource[*T]{
				it:      r.client.WatchQuery(ctx, query),
				convert: r.fromFirstMatch,
			}
		})

	default:
		return Failed[*T](fmt.Errorf("%w: %d", ErrUnknownFilterKind, filter.Kind()))
	}
}

func (r *EntityResolver[T]) fromDocument(snapshot docstore.DocumentSnapshot) (*T, error) {
	if !snapshot.Exists {
		return nil, nil
	}

	entity, err := r.mapper.apply(snapshot.ID, snapshot.Data)
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

func (r *EntityResolver[T]) fromFirstMatch(snapshot docstore.QuerySnapshot) (*T, error) {
	if snapshot.Empty() {
		return nil, nil
	}

	first := snapshot.Docs[0]

	entity, err := r.mapper.apply(first.ID, first.Data)
	if err != nil {
		return nil, err
	}

	return &entity, nil
}

/***** CollectionResolver *****/

// CollectionResolver resolves filters into live reads of a whole collection.
//
//   - ByFields watches all matches in natural order; no constraints means the full collection.
//   - ByID watches the single document and yields it as a one-element slice, or an empty one.
type CollectionResolver[T any] struct {
	client     docstore.Reader
	collection string
	mapper     Mapper[T]
}

// NewCollectionResolver creates a CollectionResolver over collection.
func NewCollectionResolver[T any](client docstore.Reader, collection string, mapper Mapper[T]) *CollectionResolver[T] {
	return &CollectionResolver[T]{client: client, collection: collection, mapper: mapper}
}

// Collection returns the collection this resolver reads.
func (r *CollectionResolver[T]) Collection() string {
	return r.collection
}

// Query returns the query a ByFields filter resolves to.
func (r *CollectionResolver[T]) Query(filter docstore.Filter) docstore.Query {
	return docstore.QueryFromFilter(r.collection, filter, 0)
}

// Resolve returns the live query for filter, or nil for a nil filter.
func (r *CollectionResolver[T]) Resolve(filter *docstore.Filter) *LiveQuery[[]T] {
	if filter == nil {
		return nil
	}

	switch filter.Kind() {
	case docstore.FilterByID:
		ref := docstore.Doc(r.collection, filter.ID())

		return New(func(ctx context.Context) Source[[]T] {
			return documentSource[[]T]{
				it:      r.client.WatchDocument(ctx, ref),
				convert: r.fromDocument,
			}
		})

	case docstore.FilterByFields:
		query := r.Query(*filter)

		return New(func(ctx context.Context) Source[[]T] {
			return querySource[[]T]{
				it:      r.client.WatchQuery(ctx, query),
				convert: r.fromQuery,
			}
		})

	default:
		return Failed[[]T](fmt.Errorf("%w: %d", ErrUnknownFilterKind, filter.Kind()))
	}
}

func (r *CollectionResolver[T]) fromDocument(snapshot docstore.DocumentSnapshot) ([]T, error) {
	if !snapshot.Exists {
		return []T{}, nil
	}

	entity, err := r.mapper.apply(snapshot.ID, snapshot.Data)
	if err != nil {
		return nil, err
	}

	return []T{entity}, nil
}

func (r *CollectionResolver[T]) fromQuery(snapshot docstore.QuerySnapshot) ([]T, error) {
	entities := make([]T, 0, snapshot.Size())

	for _, doc := range snapshot.Docs {
		entity, err := r.mapper.apply(doc.ID, doc.Data)
		if err != nil {
			return nil, err
		}

		entities = append(entities, entity)
	}

	return entities, nil
}

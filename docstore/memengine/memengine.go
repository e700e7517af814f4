// Package memengine provides an in-process docstore.Client.
//
// Fields go through the same JSON normalization as the SQL engines, so numbers read back as
// float64 and times as RFC 3339 strings. Watches wake up on every write. FailNext and
// BreakWatches inject failures for tests and demos.
package memengine

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/docstore/internal/codec"
	"github.com/heavy-duty/docstate/docstore/internal/watch"
)

// Op names an operation for fault injection.
type Op string

const (
	OpGet    Op = "get"
	OpQuery  Op = "query"
	OpAdd    Op = "add"
	OpSet    Op = "set"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type document struct {
	seq        uint64
	data       docstore.Fields
	createTime time.Time
	updateTime time.Time
}

// Client is an in-memory docstore.Client. The zero value is not usable, use New.
type Client struct {
	mu          sync.RWMutex
	collections map[string]map[string]*document
	seq         uint64
	faults      map[Op][]error
	watchErr    error
	now         func() time.Time
	changes     *watch.Broadcaster
}

// Option defines a functional option for configuring Client.
type Option func(*Client) error

// WithClock sets the time source used for server timestamps and create/update times.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}

// New creates an empty Client.
func New(options ...Option) (*Client, error) {
	c := &Client{
		collections: make(map[string]map[string]*document),
		faults:      make(map[Op][]error),
		now:         time.Now,
		changes:     watch.NewBroadcaster(),
	}

	for _, option := range options {
		if err := option(c); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// FailNext makes the next call of op fail with err. Calls queue up per op.
func (c *Client) FailNext(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.faults[op] = append(c.faults[op], err)
}

// BreakWatches makes every running and future watch fail with err on its next fetch.
// Passing nil heals future watches.
func (c *Client) BreakWatches(err error) {
	c.mu.Lock()
	c.watchErr = err
	c.mu.Unlock()

	c.changes.Broadcast()
}

func (c *Client) takeFault(op Op) error {
	queued := c.faults[op]
	if len(queued) == 0 {
		return nil
	}

	c.faults[op] = queued[1:]

	return queued[0]
}

/***** Reads *****/

func (c *Client) GetDocument(ctx context.Context, ref docstore.DocumentRef) (docstore.DocumentSnapshot, error) {
	if err := ref.Validate(); err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	if ctxErr := docstore.FromContextError(ctx.Err()); ctxErr != nil {
		return docstore.DocumentSnapshot{}, ctxErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFault(OpGet); err != nil {
		return docstore.DocumentSnapshot{}, err
	}

	doc, ok := c.collections[ref.Collection][ref.ID]
	if !ok {
		return docstore.DocumentSnapshot{ID: ref.ID}, nil
	}

	return doc.snapshot(ref.ID), nil
}

func (c *Client) RunQuery(ctx context.Context, query docstore.Query) (docstore.QuerySnapshot, error) {
	if err := query.Validate(); err != nil {
		return docstore.QuerySnapshot{}, err
	}

	if ctxErr := docstore.FromContextError(ctx.Err()); ctxErr != nil {
		return docstore.QuerySnapshot{}, ctxErr
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.takeFault(OpQuery); err != nil {
		return docstore.QuerySnapshot{}, err
	}

	collection := c.collections[query.Collection]
	ids := slices.SortedFunc(maps.Keys(collection), func(a, b string) int {
		return compareSeq(collection[a].seq, collection[b].seq)
	})

	docs := make([]docstore.DocumentSnapshot, 0)
	for _, id := range ids {
		doc := collection[id]
		if !codec.Matches(doc.data, query.Constraints) {
			continue
		}

		docs = append(docs, doc.snapshot(id))

		if query.Limit > 0 && len(docs) == query.Limit {
			break
		}
	}

	return docstore.QuerySnapshot{Docs: docs}, nil
}

func (c *Client) WatchDocument(ctx context.Context, ref docstore.DocumentRef) docstore.DocumentSnapshotIterator {
	if err := ref.Validate(); err != nil {
		return watch.Failed[docstore.DocumentSnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.DocumentSnapshot, error) {
		if err := c.brokenWatch(); err != nil {
			return docstore.DocumentSnapshot{}, err
		}

		return c.GetDocument(ctx, ref)
	}, c.changes.Trigger())
}

func (c *Client) WatchQuery(ctx context.Context, query docstore.Query) docstore.QuerySnapshotIterator {
	if err := query.Validate(); err != nil {
		return watch.Failed[docstore.QuerySnapshot](err)
	}

	return watch.New(ctx, func(ctx context.Context) (docstore.QuerySnapshot, error) {
		if err := c.brokenWatch(); err != nil {
			return docstore.QuerySnapshot{}, err
		}

		return c.RunQuery(ctx, query)
	}, c.changes.Trigger())
}

func (c *Client) brokenWatch() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.watchErr
}

/***** Writes *****/

func (c *Client) Add(ctx context.Context, collection string, fields docstore.Fields) (docstore.DocumentRef, error) {
	if collection == "" {
		return docstore.DocumentRef{}, docstore.ErrEmptyCollection
	}

	id, err := uuid.NewV7()
	if err != nil {
		return docstore.DocumentRef{}, errors.Join(docstore.ErrWritingFailed, docstore.NewError(docstore.CodeInternal, "generating document id", err))
	}

	ref := docstore.Doc(collection, id.String())

	err = c.write(ctx, OpAdd, func(now time.Time) error {
		return c.put(ref, fields, now, false)
	})
	if err != nil {
		return docstore.DocumentRef{}, err
	}

	return ref, nil
}

func (c *Client) Set(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, OpSet, func(now time.Time) error {
		return c.put(ref, fields, now, true)
	})
}

func (c *Client) Update(ctx context.Context, ref docstore.DocumentRef, fields docstore.Fields) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, OpUpdate, func(now time.Time) error {
		doc, ok := c.collections[ref.Collection][ref.ID]
		if !ok {
			return docstore.NewError(docstore.CodeNotFound, "no document to update: "+ref.String(), nil)
		}

		patch, err := normalize(fields, now)
		if err != nil {
			return err
		}

		merged := maps.Clone(doc.data)
		maps.Copy(merged, patch)

		doc.data = merged
		doc.updateTime = now

		return nil
	})
}

func (c *Client) Delete(ctx context.Context, ref docstore.DocumentRef) error {
	if err := ref.Validate(); err != nil {
		return err
	}

	return c.write(ctx, OpDelete, func(time.Time) error {
		delete(c.collections[ref.Collection], ref.ID)
		return nil
	})
}

func (c *Client) write(ctx context.Context, op Op, apply func(now time.Time) error) error {
	if ctxErr := docstore.FromContextError(ctx.Err()); ctxErr != nil {
		return errors.Join(docstore.ErrWritingFailed, ctxErr)
	}

	c.mu.Lock()

	if err := c.takeFault(op); err != nil {
		c.mu.Unlock()
		return err
	}

	err := apply(c.now().UTC())
	c.mu.Unlock()

	if err != nil {
		return errors.Join(docstore.ErrWritingFailed, err)
	}

	c.changes.Broadcast()

	return nil
}

func (c *Client) put(ref docstore.DocumentRef, fields docstore.Fields, now time.Time, replace bool) error {
	data, err := normalize(fields, now)
	if err != nil {
		return err
	}

	collection, ok := c.collections[ref.Collection]
	if !ok {
		collection = make(map[string]*document)
		c.collections[ref.Collection] = collection
	}

	if existing, exists := collection[ref.ID]; exists {
		if !replace {
			return docstore.NewError(docstore.CodeAlreadyExists, "document exists: "+ref.String(), nil)
		}

		existing.data = data
		existing.updateTime = now

		return nil
	}

	c.seq++
	collection[ref.ID] = &document{seq: c.seq, data: data, createTime: now, updateTime: now}

	return nil
}

func (d *document) snapshot(id string) docstore.DocumentSnapshot {
	return docstore.DocumentSnapshot{
		ID:         id,
		Exists:     true,
		Data:       cloneFields(d.data),
		CreateTime: d.createTime,
		UpdateTime: d.updateTime,
	}
}

func normalize(fields docstore.Fields, now time.Time) (docstore.Fields, error) {
	data, err := codec.Normalize(fields, now)
	if err != nil {
		return nil, errors.Join(err, docstore.NewError(docstore.CodeInvalidArgument, "fields are not encodable", nil))
	}

	return data, nil
}

// cloneFields deep-copies normalized fields so callers cannot mutate stored documents.
func cloneFields(fields docstore.Fields) docstore.Fields {
	clone, err := codec.Normalize(fields, time.Time{})
	if err != nil {
		return maps.Clone(fields)
	}

	return clone
}

func compareSeq(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

package livequery

import (
	"context"
	"errors"

	"github.com/heavy-duty/docstate/docstore"
)

// Source delivers successive values of one live read. Next blocks until the next value is
// available and returns docstore.ErrIteratorDone once Stop was called or the context ended.
type Source[D any] interface {
	Next() (D, error)
	Stop()
}

// OpenFunc opens a Source bound to ctx.
type OpenFunc[D any] func(ctx context.Context) Source[D]

// LiveQuery is a live data handle. It is inert until subscribed.
type LiveQuery[D any] struct {
	open OpenFunc[D]
}

// New creates a LiveQuery from an open function.
func New[D any](open OpenFunc[D]) *LiveQuery[D] {
	return &LiveQuery[D]{open: open}
}

// Failed creates a LiveQuery whose every subscription fails with err.
func Failed[D any](err error) *LiveQuery[D] {
	return New(func(context.Context) Source[D] {
		return failedSource[D]{err: err}
	})
}

// Subscribe starts delivering values to next until ctx ends, Unsubscribe is called, or the
// source fails. A failure is reported once through fail and ends the subscription; cancellation
// is silent.
func (lq *LiveQuery[D]) Subscribe(ctx context.Context, next func(D), fail func(error)) *Subscription {
	subCtx, cancel := context.WithCancel(ctx)
	sub := &Subscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)
		defer cancel()

		source := lq.open(subCtx)
		defer source.Stop()

		for {
			value, err := source.Next()
			if err != nil {
				if subCtx.Err() != nil || errors.Is(err, docstore.ErrIteratorDone) {
					return
				}

				fail(err)

				return
			}

			if subCtx.Err() != nil {
				return
			}

			next(value)
		}
	}()

	return sub
}

// Get reads the current value once.
func (lq *LiveQuery[D]) Get(ctx context.Context) (D, error) {
	source := lq.open(ctx)
	defer source.Stop()

	return source.Next()
}

// Subscription is one running delivery of a LiveQuery.
type Subscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

// Unsubscribe cancels the subscription without waiting for its goroutine.
func (s *Subscription) Unsubscribe() {
	s.cancel()
}

// Done is closed once the subscription goroutine has returned.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

/***** sources *****/

type failedSource[D any] struct {
	err error
}

func (s failedSource[D]) Next() (D, error) {
	var zero D
	return zero, s.err
}

func (failedSource[D]) Stop() {}

// documentSource maps every document snapshot through convert.
type documentSource[D any] struct {
	it      docstore.DocumentSnapshotIterator
	convert func(docstore.DocumentSnapshot) (D, error)
}

func (s documentSource[D]) Next() (D, error) {
	snapshot, err := s.it.Next()
	if err != nil {
		var zero D
		return zero, err
	}

	return s.convert(snapshot)
}

func (s documentSource[D]) Stop() {
	s.it.Stop()
}

// querySource maps every query snapshot through convert.
type querySource[D any] struct {
	it      docstore.QuerySnapshotIterator
	convert func(docstore.QuerySnapshot) (D, error)
}

func (s querySource[D]) Next() (D, error) {
	snapshot, err := s.it.Next()
	if err != nil {
		var zero D
		return zero, err
	}

	return s.convert(snapshot)
}

func (s querySource[D]) Stop() {
	s.it.Stop()
}

// Package watch turns repeated one-shot reads into live snapshot iterators.
//
// An Iterator arms a Trigger before every fetch and only yields a snapshot when its
// JSON fingerprint differs from the previously yielded one, so engines can implement
// watches either by polling or by signalling on every write.
package watch

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/heavy-duty/docstate/docstore"
)

var fingerprintAPI = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrFingerprintFailed is returned when a fetched snapshot cannot be fingerprinted.
var ErrFingerprintFailed = errors.New("fingerprinting the snapshot failed")

// Fetch reads the current state of the watched data.
type Fetch[T any] func(ctx context.Context) (T, error)

// Trigger returns a channel which is closed once the watched data may have changed.
type Trigger func() <-chan struct{}

// Poll creates a Trigger that fires after every interval.
func Poll(interval time.Duration) Trigger {
	return func() <-chan struct{} {
		fired := make(chan struct{})
		time.AfterFunc(interval, func() { close(fired) })

		return fired
	}
}

// Iterator yields every distinct state of the watched data. It is not safe for concurrent
// calls to Next, but Stop may be called from any goroutine.
type Iterator[T any] struct {
	ctx     context.Context
	cancel  context.CancelFunc
	fetch   Fetch[T]
	trigger Trigger
	changed <-chan struct{}
	last    string
	started bool
	err     error
}

// New creates an Iterator bound to ctx. Cancelling ctx has the same effect as Stop.
func New[T any](ctx context.Context, fetch Fetch[T], trigger Trigger) *Iterator[T] {
	iterCtx, cancel := context.WithCancel(ctx)

	return &Iterator[T]{
		ctx:     iterCtx,
		cancel:  cancel,
		fetch:   fetch,
		trigger: trigger,
	}
}

// Failed creates an Iterator whose Next always returns err.
func Failed[T any](err error) *Iterator[T] {
	return &Iterator[T]{
		cancel: func() {},
		err:    err,
	}
}

// Next blocks until the first or the next changed snapshot is available.
func (it *Iterator[T]) Next() (T, error) {
	var zero T

	if it.err != nil {
		return zero, it.err
	}

	for {
		if it.changed != nil {
			select {
			case <-it.changed:
			case <-it.ctx.Done():
			}
		}

		if it.ctx.Err() != nil {
			return zero, it.done()
		}

		it.changed = it.trigger()

		snapshot, err := it.fetch(it.ctx)
		if err != nil {
			if it.ctx.Err() != nil {
				return zero, it.done()
			}

			return zero, it.fail(err)
		}

		fingerprint, err := fingerprintAPI.MarshalToString(snapshot)
		if err != nil {
			return zero, it.fail(errors.Join(ErrFingerprintFailed, err))
		}

		if it.started && fingerprint == it.last {
			continue
		}

		it.started = true
		it.last = fingerprint

		return snapshot, nil
	}
}

// Stop ends the watch. Pending and later calls to Next return docstore.ErrIteratorDone.
func (it *Iterator[T]) Stop() {
	it.cancel()
}

func (it *Iterator[T]) done() error {
	it.err = docstore.ErrIteratorDone
	it.cancel()

	return it.err
}

func (it *Iterator[T]) fail(err error) error {
	it.err = err
	it.cancel()

	return err
}

package livequery

import (
	"context"
	"sync"

	"github.com/heavy-duty/docstate/docstore"
)

// Resolver turns a filter into a live query. A nil result means nothing to subscribe to.
type Resolver[D any] interface {
	Resolve(filter *docstore.Filter) *LiveQuery[D]
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc[D any] func(filter *docstore.Filter) *LiveQuery[D]

func (f ResolverFunc[D]) Resolve(filter *docstore.Filter) *LiveQuery[D] {
	return f(filter)
}

// Handlers receive the lifecycle of a Switch. Switched, Value and Failed run under the switch
// lock, one at a time, and only for the current generation. They must not call back into the
// Switch. Settled is the exception.
type Handlers[D any] struct {
	// Switched runs on every Set, before the new subscription opens. subscribing is false when
	// the filter was nil or resolved to nothing.
	Switched func(filter *docstore.Filter, subscribing bool)

	// Value runs for every emission; first is true for the first emission after a Set.
	Value func(value D, first bool)

	// Failed runs once when the current subscription fails; the subscription is gone afterward.
	Failed func(err error)

	// Settled runs after the switch lock is released following Set or any emission or failure.
	// It may call back into the Switch.
	Settled func()
}

// Switch keeps at most one live subscription, replacing it on every Set.
type Switch[D any] struct {
	ctx      context.Context
	resolver Resolver[D]
	handlers Handlers[D]

	mu         sync.Mutex
	generation uint64
	current    *Subscription
	received   bool
	closed     bool
	stopClose  func() bool
}

// NewSwitch creates a Switch whose subscriptions live at most as long as ctx.
// Ending ctx closes the Switch.
func NewSwitch[D any](ctx context.Context, resolver Resolver[D], handlers Handlers[D]) *Switch[D] {
	s := &Switch[D]{ctx: ctx, resolver: resolver, handlers: handlers}

	s.mu.Lock()
	s.stopClose = context.AfterFunc(ctx, s.Close)
	s.mu.Unlock()

	return s
}

// Set cancels the current subscription and subscribes to the live query of filter.
func (s *Switch[D]) Set(filter *docstore.Filter) {
	s.set(filter)
	s.settle()
}

func (s *Switch[D]) set(filter *docstore.Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.generation++
	s.unsubscribe()

	var lq *LiveQuery[D]
	if filter != nil {
		lq = s.resolver.Resolve(filter)
	}

	if s.handlers.Switched != nil {
		s.handlers.Switched(filter, lq != nil)
	}

	if lq == nil {
		return
	}

	generation := s.generation
	s.received = false
	s.current = lq.Subscribe(
		s.ctx,
		func(value D) { s.deliver(generation, value) },
		func(err error) { s.fail(generation, err) },
	)
}

// Active reports whether a subscription is currently live.
func (s *Switch[D]) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.current != nil
}

// Close cancels the current subscription; later calls to Set are ignored.
func (s *Switch[D]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.closed = true
	s.generation++
	s.unsubscribe()

	if s.stopClose != nil {
		s.stopClose()
	}
}

func (s *Switch[D]) unsubscribe() {
	if s.current == nil {
		return
	}

	s.current.Unsubscribe()
	s.current = nil
}

func (s *Switch[D]) settle() {
	if s.handlers.Settled != nil {
		s.handlers.Settled()
	}
}

func (s *Switch[D]) deliver(generation uint64, value D) {
	defer s.settle()

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}

	first := !s.received
	s.received = true

	if s.handlers.Value != nil {
		s.handlers.Value(value, first)
	}
}

func (s *Switch[D]) fail(generation uint64, err error) {
	defer s.settle()

	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation {
		return
	}

	s.current = nil

	if s.handlers.Failed != nil {
		s.handlers.Failed(err)
	}
}

package viewstate

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/heavy-duty/docstate/docstore"
	"github.com/heavy-duty/docstate/livequery"
)

var ErrNilContext = errors.New("context must not be nil")

const (
	logMsgFiltersChanged = "view state filters changed"
	logMsgLiveQueryError = "view state live query failed"
	logAttrStore         = "store"
	logAttrFilters       = "filters"
	logAttrError         = "error"
)

// State is the view state of one store.
type State[D any] struct {
	Data      D
	Filters   *docstore.Filter
	IsLoading bool
	Err       error
}

// Store caches the result of the live query selected by its filters.
type Store[D any] struct {
	empty  func() D
	cfg    config
	sw     *livequery.Switch[D]
	cancel context.CancelFunc

	mu        sync.RWMutex
	state     State[D]
	listeners map[uint64]func(State[D])
	nextID    uint64
	pending   []State[D]
	flushing  bool
}

// NewEntityStore creates a store holding at most one entity; nil Data means absent.
func NewEntityStore[T any](resolver *livequery.EntityResolver[T], options ...Option) (*Store[*T], error) {
	return New[*T](resolver, func() *T { return nil }, options...)
}

// NewCollectionStore creates a store holding an ordered list of entities; Data is never nil.
func NewCollectionStore[T any](resolver *livequery.CollectionResolver[T], options ...Option) (*Store[[]T], error) {
	return New[[]T](resolver, func() []T { return []T{} }, options...)
}

// New creates a store over any resolver. empty produces the Data value of an unset store.
func New[D any](resolver livequery.Resolver[D], empty func() D, options ...Option) (*Store[D], error) {
	cfg := config{ctx: context.Background()}

	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	ctx, cancel := context.WithCancel(cfg.ctx)

	s := &Store[D]{
		empty:     empty,
		cfg:       cfg,
		cancel:    cancel,
		state:     State[D]{Data: empty()},
		listeners: make(map[uint64]func(State[D])),
	}

	s.sw = livequery.NewSwitch(ctx, resolver, livequery.Handlers[D]{
		Switched: s.switched,
		Value:    s.value,
		Failed:   s.failed,
		Settled:  s.flush,
	})

	return s, nil
}

// State returns a copy of the current state.
func (s *Store[D]) State() State[D] {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.state
}

func (s *Store[D]) Data() D {
	return s.State().Data
}

func (s *Store[D]) Filters() *docstore.Filter {
	return s.State().Filters
}

func (s *Store[D]) IsLoading() bool {
	return s.State().IsLoading
}

func (s *Store[D]) Err() error {
	return s.State().Err
}

// Active reports whether the store holds a live subscription.
func (s *Store[D]) Active() bool {
	return s.sw.Active()
}

// SetFilters replaces the filters and re-subscribes, even when filters equal the current ones.
// A nil filter clears Data and leaves the store without subscription.
func (s *Store[D]) SetFilters(filters *docstore.Filter) {
	s.sw.Set(filters)
}

// Subscribe registers listener for every state change and returns its unsubscribe function.
// Listeners run outside the store's locks, one state at a time in change order, and may call
// SetFilters. A state change triggered from inside a listener is delivered after it returns.
func (s *Store[D]) Subscribe(listener func(State[D])) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = listener

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		delete(s.listeners, id)
	}
}

// Close releases the live subscription. The state keeps its last value.
func (s *Store[D]) Close() {
	s.sw.Close()
	s.cancel()
}

/***** switch handlers *****/

func (s *Store[D]) switched(filters *docstore.Filter, subscribing bool) {
	s.logFiltersChanged(filters)

	s.patch(func(state *State[D]) {
		state.Filters = filters
		state.IsLoading = subscribing

		if !subscribing || s.cfg.resetOnSwitch {
			state.Data = s.empty()
		}
	})
}

func (s *Store[D]) value(data D, _ bool) {
	s.patch(func(state *State[D]) {
		state.Data = data
		state.IsLoading = false
		state.Err = nil
	})
}

func (s *Store[D]) failed(err error) {
	s.logFailure(err)

	s.patch(func(state *State[D]) {
		state.Err = err
		state.IsLoading = false
	})
}

// patch runs under the switch lock; the new state reaches listeners in flush.
func (s *Store[D]) patch(update func(state *State[D])) {
	s.mu.Lock()
	defer s.mu.Unlock()

	update(&s.state)
	s.pending = append(s.pending, s.state)
}

// flush delivers pending states. Only one goroutine flushes at a time; the others leave their
// states to it.
func (s *Store[D]) flush() {
	s.mu.Lock()
	if s.flushing {
		s.mu.Unlock()
		return
	}
	s.flushing = true
	s.mu.Unlock()

	drained := false
	defer func() {
		if !drained {
			s.mu.Lock()
			s.flushing = false
			s.mu.Unlock()
		}
	}()

	for {
		state, listeners, ok := s.nextPending()
		if !ok {
			drained = true
			return
		}

		for _, listener := range listeners {
			listener(state)
		}
	}
}

// nextPending pops the oldest pending state. It ends the flush when none is left.
func (s *Store[D]) nextPending() (State[D], []func(State[D]), bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.pending) == 0 {
		s.flushing = false
		return State[D]{}, nil, false
	}

	state := s.pending[0]
	s.pending = s.pending[1:]

	return state, s.sortedListeners(), true
}

func (s *Store[D]) sortedListeners() []func(State[D]) {
	ids := make([]uint64, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	listeners := make([]func(State[D]), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, s.listeners[id])
	}

	return listeners
}

func (s *Store[D]) logFiltersChanged(filters *docstore.Filter) {
	if s.cfg.logger == nil {
		return
	}

	s.cfg.logger.Debug(logMsgFiltersChanged, logAttrStore, s.cfg.name, logAttrFilters, filters.String())
}

func (s *Store[D]) logFailure(err error) {
	if s.cfg.logger == nil {
		return
	}

	s.cfg.logger.Warn(logMsgLiveQueryError, logAttrStore, s.cfg.name, logAttrError, err.Error())
}

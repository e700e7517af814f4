package mutation

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/heavy-duty/docstate/internal/observe"
)

var (
	ErrEmptyRunnerName = errors.New("runner name must not be empty")
	ErrNilAction       = errors.New("action must not be nil")
	ErrNilNotifier     = errors.New("notifier must not be nil")
)

const (
	logMsgRunFailed = "mutation failed"
	logAttrRunner   = "runner"
	logAttrMessage  = "message"
	logAttrDuration = "duration_ms"
)

// Action performs exactly one remote write.
type Action[P any] func(ctx context.Context, payload P) error

// Runner runs an Action and tracks its State.
type Runner[P any] struct {
	name        string
	action      Action[P]
	classifier  Classifier
	cfg         runnerConfig
	instruments observe.Instruments

	mu        sync.Mutex
	running   int
	state     State
	listeners map[uint64]func(State)
	nextID    uint64
}

// NewRunner creates a Runner. name identifies it in logs, metrics and spans, e.g. "delete_event".
func NewRunner[P any](name string, action Action[P], classifier Classifier, options ...Option) (*Runner[P], error) {
	if name == "" {
		return nil, ErrEmptyRunnerName
	}

	if action == nil {
		return nil, ErrNilAction
	}

	var cfg runnerConfig
	for _, option := range options {
		if err := option(&cfg); err != nil {
			return nil, err
		}
	}

	return &Runner[P]{
		name:       name,
		action:     action,
		classifier: classifier,
		cfg:        cfg,
		instruments: observe.Instruments{
			Prefix:           "mutation",
			Logger:           cfg.logger,
			ContextualLogger: cfg.contextualLogger,
			Metrics:          cfg.metrics,
			Tracing:          cfg.tracing,
		},
		listeners: make(map[uint64]func(State)),
	}, nil
}

// Name returns the runner name.
func (r *Runner[P]) Name() string {
	return r.name
}

// State returns a copy of the current run state.
func (r *Runner[P]) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.state.clone()
}

// Subscribe registers listener for every state change and returns its unsubscribe function.
func (r *Runner[P]) Subscribe(listener func(State)) (unsubscribe func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := r.nextID
	r.nextID++
	r.listeners[id] = listener

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		delete(r.listeners, id)
	}
}

// Run performs the action once with payload. It returns after Ends was notified.
// IsRunning stays true while any run of this runner is in flight.
func (r *Runner[P]) Run(ctx context.Context, payload P) {
	r.patch(func(state *State) {
		r.running++
		state.IsRunning = true

		if r.cfg.clearErrorOnStart {
			state.Error = nil
		}
	})
	defer func() {
		r.patch(func(state *State) {
			r.running--
			state.IsRunning = r.running > 0
		})
		r.notify(Notifier.Ends)
	}()

	r.notify(Notifier.Starts)

	op, ctx := r.instruments.Start(ctx, r.name, nil)

	failure := r.invoke(ctx, payload)
	if failure == nil {
		duration := op.Success(-1)
		r.instruments.LogOperation(ctx, r.name, logAttrDuration, observe.ToMilliseconds(duration))
		r.notify(Notifier.Success)

		return
	}

	message := r.classifier.Classify(failure)
	duration := op.Error(errorType(failure))

	r.patch(func(state *State) {
		state.Error = &message
	})

	r.logFailure(ctx, failure, message, duration)
	r.notify(func(n Notifier) { n.Error(message) })
}

// invoke returns the action's error or the value of a recovered panic.
func (r *Runner[P]) invoke(ctx context.Context, payload P) (failure any) {
	defer func() {
		if recovered := recover(); recovered != nil {
			failure = recovered
		}
	}()

	if err := r.action(ctx, payload); err != nil {
		return err
	}

	return nil
}

func (r *Runner[P]) patch(update func(state *State)) {
	r.mu.Lock()
	update(&r.state)
	state := r.state.clone()
	listeners := r.sortedListeners()
	r.mu.Unlock()

	for _, listener := range listeners {
		listener(state)
	}
}

func (r *Runner[P]) sortedListeners() []func(State) {
	ids := make([]uint64, 0, len(r.listeners))
	for id := range r.listeners {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	listeners := make([]func(State), 0, len(ids))
	for _, id := range ids {
		listeners = append(listeners, r.listeners[id])
	}

	return listeners
}

func (r *Runner[P]) notify(call func(Notifier)) {
	for _, notifier := range r.cfg.notifiers {
		call(notifier)
	}
}

func (r *Runner[P]) logFailure(ctx context.Context, failure any, message string, duration time.Duration) {
	err, ok := failure.(error)
	if !ok {
		err = Message(message)
	}

	r.instruments.LogWarn(ctx, logMsgRunFailed, err,
		logAttrRunner, r.name,
		logAttrMessage, message,
		logAttrDuration, observe.ToMilliseconds(duration),
	)
}

package mutation

import (
	"github.com/heavy-duty/docstate/docstore"
)

// Option configures a Runner.
type Option func(*runnerConfig) error

type runnerConfig struct {
	notifiers         []Notifier
	clearErrorOnStart bool
	logger            docstore.Logger
	contextualLogger  docstore.ContextualLogger
	metrics           docstore.MetricsCollector
	tracing           docstore.TracingCollector
}

// WithNotifier adds a Notifier; notifiers are called in the order they were added.
func WithNotifier(notifier Notifier) Option {
	return func(c *runnerConfig) error {
		if notifier == nil {
			return ErrNilNotifier
		}

		c.notifiers = append(c.notifiers, notifier)

		return nil
	}
}

// WithClearErrorOnStart clears the previous Error when a run starts.
// Without it the last error stays visible until the next failure replaces it.
func WithClearErrorOnStart() Option {
	return func(c *runnerConfig) error {
		c.clearErrorOnStart = true

		return nil
	}
}

func WithLogger(logger docstore.Logger) Option {
	return func(c *runnerConfig) error {
		c.logger = logger

		return nil
	}
}

func WithContextualLogger(logger docstore.ContextualLogger) Option {
	return func(c *runnerConfig) error {
		c.contextualLogger = logger

		return nil
	}
}

// WithMetrics records "mutation_<name>_duration_seconds" per run and counts failures in
// "mutation_errors_total".
func WithMetrics(collector docstore.MetricsCollector) Option {
	return func(c *runnerConfig) error {
		c.metrics = collector

		return nil
	}
}

// WithTracing opens a "mutation.<name>" span per run; the write runs inside it.
func WithTracing(collector docstore.TracingCollector) Option {
	return func(c *runnerConfig) error {
		c.tracing = collector

		return nil
	}
}

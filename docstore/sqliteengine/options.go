package sqliteengine

import (
	"time"

	"github.com/heavy-duty/docstate/docstore"
)

// Option defines a functional option for configuring Client.
type Option func(*Client) error

// WithTableName sets the documents table name.
func WithTableName(tableName string) Option {
	return func(c *Client) error {
		if tableName == "" {
			return docstore.ErrEmptyTableName
		}

		c.tableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the Client.
func WithLogger(logger docstore.Logger) Option {
	return func(c *Client) error {
		c.instruments.Logger = logger
		return nil
	}
}

// WithContextualLogger sets the contextual logger for the Client.
func WithContextualLogger(logger docstore.ContextualLogger) Option {
	return func(c *Client) error {
		c.instruments.ContextualLogger = logger
		return nil
	}
}

// WithMetrics sets the metrics collector for the Client.
func WithMetrics(collector docstore.MetricsCollector) Option {
	return func(c *Client) error {
		c.instruments.Metrics = collector
		return nil
	}
}

// WithTracing sets the tracing collector for the Client.
func WithTracing(collector docstore.TracingCollector) Option {
	return func(c *Client) error {
		c.instruments.Tracing = collector
		return nil
	}
}

// WithPollInterval sets how often watches look for writes made by other processes. Default: 1s.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) error {
		if interval <= 0 {
			return docstore.ErrInvalidPollInterval
		}

		c.pollInterval = interval

		return nil
	}
}

// WithClock sets the time source used for server timestamps and create/update times.
func WithClock(now func() time.Time) Option {
	return func(c *Client) error {
		c.now = now
		return nil
	}
}

package viewstate

import (
	"context"

	"github.com/heavy-duty/docstate/docstore"
)

// Option configures a Store.
type Option func(*config) error

type config struct {
	ctx           context.Context
	resetOnSwitch bool
	logger        docstore.Logger
	name          string
}

// WithContext sets the base context of the store. Ending it closes the store.
func WithContext(ctx context.Context) Option {
	return func(c *config) error {
		if ctx == nil {
			return ErrNilContext
		}

		c.ctx = ctx

		return nil
	}
}

// WithResetOnSwitch clears Data on every filter change instead of keeping the previous data
// visible while the new filter loads.
func WithResetOnSwitch() Option {
	return func(c *config) error {
		c.resetOnSwitch = true

		return nil
	}
}

// WithLogger logs filter changes at debug level and live query failures at warn level.
func WithLogger(logger docstore.Logger) Option {
	return func(c *config) error {
		c.logger = logger

		return nil
	}
}

// WithName sets the store name used in log records.
func WithName(name string) Option {
	return func(c *config) error {
		c.name = name

		return nil
	}
}

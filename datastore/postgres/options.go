/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres

import (
	"log/slog"
	"time"

	"github.com/suparena/recordstore/storagemodels"
)

type options struct {
	schema      storagemodels.Schema
	logger      *slog.Logger
	maxPageSize int
	clock       func() time.Time
}

// Option configures a Store.
type Option func(*options)

// WithSchema binds the store to schema instead of the one registered for T.
func WithSchema(schema storagemodels.Schema) Option {
	return func(o *options) { o.schema = schema }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithMaxPageSize bounds List page sizes.
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxPageSize = n }
}

// WithClock sets the timestamp source used for audit stamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

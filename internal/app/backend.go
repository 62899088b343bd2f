/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/datastore"
	"github.com/suparena/recordstore/datastore/ddb"
	"github.com/suparena/recordstore/datastore/memory"
	"github.com/suparena/recordstore/datastore/postgres"
	"github.com/suparena/recordstore/storagemodels"
)

// Backend holds the connections shared by every store of the configured
// backend.
type Backend struct {
	cfg    *config.Config
	logger *slog.Logger
	pool   *pgxpool.Pool
	client ddb.Client
}

// NewBackend connects to the backend selected in cfg.
func NewBackend(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Backend, error) {
	b := &Backend{cfg: cfg, logger: logger}

	switch cfg.Store.Backend {
	case config.BackendMemory:
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		b.pool = pool
	case config.BackendDynamoDB:
		client, err := ddb.NewDynamoDBClient(ctx, cfg.DynamoDB)
		if err != nil {
			return nil, err
		}
		b.client = client
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Store.Backend)
	}

	logger.Info("backend ready", "backend", cfg.Store.Backend)
	return b, nil
}

// Kind returns the configured backend name.
func (b *Backend) Kind() string {
	return b.cfg.Store.Backend
}

// PageSpec fills in the configured default page size.
func (b *Backend) PageSpec(p storagemodels.PageSpec) storagemodels.PageSpec {
	if p.Size <= 0 {
		p.Size = b.cfg.Page.DefaultSize
	}
	return p
}

// Close releases the backend connections.
func (b *Backend) Close() {
	if b.pool != nil {
		b.pool.Close()
	}
}

// Open creates the store for T on b, using the schema registered for T.
func Open[T any](b *Backend) (datastore.DataStore[T], error) {
	switch b.cfg.Store.Backend {
	case config.BackendMemory:
		s, err := memory.New[T](
			memory.WithLogger(b.logger),
			memory.WithMaxPageSize(b.cfg.Page.MaxSize),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendPostgres:
		s, err := postgres.New[T](b.pool,
			postgres.WithLogger(b.logger),
			postgres.WithMaxPageSize(b.cfg.Page.MaxSize),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendDynamoDB:
		s, err := ddb.New[T](b.client, b.cfg.DynamoDB.Table,
			ddb.WithLogger(b.logger),
			ddb.WithMaxPageSize(b.cfg.Page.MaxSize),
		)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", b.cfg.Store.Backend)
	}
}

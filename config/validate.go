/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"strings"
)

// Validate checks the settings required by the selected backend.
// Load calls it automatically.
func (c *Config) Validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))

	switch c.Store.Backend {
	case BackendMemory:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return fmt.Errorf("database.dsn is required for the postgres backend")
		}
		if c.Database.MaxConns <= 0 {
			return fmt.Errorf("database.max_conns must be > 0 (got %d)", c.Database.MaxConns)
		}
		if c.Database.MinConns < 0 || c.Database.MinConns > c.Database.MaxConns {
			return fmt.Errorf("database.min_conns must be within [0, max_conns] (got %d)", c.Database.MinConns)
		}
	case BackendDynamoDB:
		if c.DynamoDB.Table == "" {
			return fmt.Errorf("dynamodb.table is required for the dynamodb backend")
		}
		if c.DynamoDB.Region == "" {
			return fmt.Errorf("dynamodb.region is required for the dynamodb backend")
		}
		if (c.DynamoDB.AccessKey == "") != (c.DynamoDB.SecretKey == "") {
			return fmt.Errorf("dynamodb.access_key and dynamodb.secret_key must be set together")
		}
	default:
		return fmt.Errorf("store.backend must be one of memory, postgres, dynamodb (got %q)", c.Store.Backend)
	}

	if c.Page.MaxSize <= 0 {
		return fmt.Errorf("page.max_size must be > 0 (got %d)", c.Page.MaxSize)
	}
	if c.Page.DefaultSize <= 0 || c.Page.DefaultSize > c.Page.MaxSize {
		return fmt.Errorf("page.default_size must be within [1, max_size] (got %d)", c.Page.DefaultSize)
	}

	switch strings.ToLower(c.Log.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("log.format must be json or text (got %q)", c.Log.Format)
	}

	return nil
}

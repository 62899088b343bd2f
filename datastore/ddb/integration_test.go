//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"log"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

// getProjectStore connects to the table named by DYNAMODB_TABLE. Settings
// come from a .env file when present, otherwise from the environment.
func getProjectStore(t *testing.T) *Store[project] {
	t.Helper()
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, proceeding with environment variables")
	}

	var cfg config.Config
	cfg.DynamoDB.Region = envOr("AWS_REGION", "us-east-1")
	cfg.DynamoDB.AccessKey = envOr("AWS_ACCESS_KEY_ID", "")
	cfg.DynamoDB.SecretKey = envOr("AWS_SECRET_ACCESS_KEY", "")
	cfg.DynamoDB.Table = envOr("DYNAMODB_TABLE", "")
	cfg.DynamoDB.Endpoint = envOr("DYNAMODB_ENDPOINT", "")
	if cfg.DynamoDB.Table == "" {
		t.Skip("DYNAMODB_TABLE not set")
	}

	client, err := NewDynamoDBClient(context.Background(), cfg.DynamoDB)
	require.NoError(t, err)

	schema := projectSchema
	suffix := time.Now().UnixNano()
	schema.Name = fmt.Sprintf("Project%d", suffix)
	schema.Table = fmt.Sprintf("itest_%d", suffix)
	store, err := New[project](client, cfg.DynamoDB.Table, WithSchema(schema))
	require.NoError(t, err)
	return store
}

func TestIntegrationLifecycle(t *testing.T) {
	store := getProjectStore(t)
	ctx := context.Background()

	alpha, err := store.Insert(ctx, project{Name: "Alpha Project", Code: "P001"})
	require.NoError(t, err)
	t.Cleanup(func() { _, _ = store.DeleteByID(ctx, fmt.Sprint(alpha.ID)) })

	found, err := store.FindByID(ctx, fmt.Sprint(alpha.ID))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Alpha Project", found.Name)

	updated, err := store.UpdateFields(ctx, fmt.Sprint(alpha.ID), map[string]any{"status": 2})
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Status)

	page, err := store.List(ctx, filter.Predicate{}.And(filter.Like("name", "PROJECT")), storagemodels.PageSpec{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	deleted, err := store.DeleteByID(ctx, fmt.Sprint(alpha.ID))
	require.NoError(t, err)
	assert.True(t, deleted)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

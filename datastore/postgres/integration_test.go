//go:build integration

/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package postgres_test

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/suparena/recordstore/config"
	"github.com/suparena/recordstore/datastore/postgres"
	rserrors "github.com/suparena/recordstore/errors"
	"github.com/suparena/recordstore/filter"
	"github.com/suparena/recordstore/storagemodels"
)

var (
	once      sync.Once
	sharedDSN string
	initErr   error
)

// setupTestDB starts one PostgreSQL container for the test run, applies the
// goose migrations in testdata and returns a pool connected to it.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	once.Do(func() {
		sharedDSN, initErr = startContainerAndMigrate()
	})
	if initErr != nil {
		t.Fatalf("failed to setup test DB: %v", initErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, config.DatabaseConfig{DSN: sharedDSN, MaxConns: 4})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, "TRUNCATE project RESTART IDENTITY")
	require.NoError(t, err)
	return pool
}

func startContainerAndMigrate() (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:17-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "testuser",
				"POSTGRES_PASSWORD": "testpass",
				"POSTGRES_DB":       "testdb",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		return "", fmt.Errorf("start container: %w", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		return "", fmt.Errorf("get container host: %w", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return "", fmt.Errorf("get mapped port: %w", err)
	}
	dsn := fmt.Sprintf("postgres://testuser:testpass@%s:%s/testdb?sslmode=disable", host, port.Port())

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return "", fmt.Errorf("sql.Open: %w", err)
	}
	defer db.Close()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, os.DirFS(migrationsPath()))
	if err != nil {
		return "", fmt.Errorf("goose new provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return "", fmt.Errorf("goose up: %w", err)
	}
	return dsn, nil
}

func migrationsPath() string {
	_, currentFile, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(currentFile), "testdata", "migrations")
}

func TestIntegrationLifecycle(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	store, err := postgres.New[project](pool, postgres.WithSchema(projectSchema))
	require.NoError(t, err)

	alpha, err := store.Insert(ctx, project{Name: "Alpha Project", Code: "P001"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), alpha.ID)
	_, err = store.Insert(ctx, project{Name: "Beta", Code: "P002", Status: 1})
	require.NoError(t, err)
	_, err = store.Insert(ctx, project{Name: "gamma project", Code: "P003", Status: 1})
	require.NoError(t, err)

	_, err = store.Insert(ctx, project{Name: "Dup", Code: "P001"})
	assert.True(t, rserrors.IsConflict(err), "duplicate code: %v", err)

	page, err := store.List(ctx, filter.Predicate{}.And(filter.Like("name", "PROJ")), storagemodels.PageSpec{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "Alpha Project", page.Items[0].Name)

	updated, err := store.UpdateFields(ctx, "2", map[string]any{"status": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Status)

	deleted, err := store.DeleteByID(ctx, "1")
	require.NoError(t, err)
	assert.True(t, deleted)

	found, err := store.FindByID(ctx, "1")
	require.NoError(t, err)
	assert.Nil(t, found)

	var streamed int
	for r := range store.Stream(ctx, filter.Predicate{}, storagemodels.WithPageSize(1)) {
		require.NoError(t, r.Error)
		streamed++
	}
	assert.Equal(t, 2, streamed)
}

func TestIntegrationWithTx(t *testing.T) {
	pool := setupTestDB(t)
	ctx := context.Background()

	store, err := postgres.New[project](pool, postgres.WithSchema(projectSchema))
	require.NoError(t, err)

	tx, err := pool.Begin(ctx)
	require.NoError(t, err)
	_, err = store.Insert(postgres.WithTx(ctx, tx), project{Name: "Rolled back", Code: "RB"})
	require.NoError(t, err)
	require.NoError(t, tx.Rollback(ctx))

	page, err := store.List(ctx, filter.Predicate{}, storagemodels.PageSpec{})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}

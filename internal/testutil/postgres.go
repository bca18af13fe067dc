// Package testutil provides shared test infrastructure, following the
// pattern of net/http/httptest.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/proposalkb/proposalkb/db"
)

// TestDB wraps a PostgreSQL test container with a ready connection pool.
// The container runs the pgvector image and has the full schema migrated,
// including the hybrid search functions.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a pgvector-enabled PostgreSQL container, applies the
// schema migrations, and returns a pool plus a cleanup function.
func SetupTestDB(t *testing.T) (*TestDB, func()) {
	t.Helper()

	tdb, cleanup, err := SetupTestDBForMain()
	if err != nil {
		t.Fatalf("setting up test database: %v", err)
	}
	return tdb, cleanup
}

// SetupTestDBForMain is the TestMain variant of SetupTestDB: it reports
// failures as errors instead of requiring a *testing.T.
func SetupTestDBForMain() (*TestDB, func(), error) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("proposalkb_test"),
		postgres.WithUsername("proposalkb_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("starting postgres container: %w", err)
	}

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, nil, fmt.Errorf("container connection string: %w", err)
	}

	if err := db.Migrate(connStr); err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, nil, fmt.Errorf("migrating test database: %w", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		_ = pgContainer.Terminate(ctx)
		return nil, nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
		return nil, nil, fmt.Errorf("pinging test database: %w", err)
	}

	tdb := &TestDB{Container: pgContainer, Pool: pool, ConnStr: connStr}
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}
	return tdb, cleanup, nil
}

// CleanTables truncates all mutable tables for test isolation.
func CleanTables(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	_, err := pool.Exec(context.Background(),
		`TRUNCATE internal_resources, external_resources, policies, experience,
		          rfps, proposals, validation_requests, validation_tokens CASCADE`)
	if err != nil {
		t.Fatalf("truncating tables: %v", err)
	}
}

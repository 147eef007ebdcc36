// Package testutil provides shared test infrastructure, most notably a
// disposable PostgreSQL container with the pgvector extension installed.
package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/perchapp/perch/db"
	"github.com/perchapp/perch/internal/database"
)

// SetupPostgres starts a PostgreSQL container with pgvector support, runs all
// migrations against it, and returns a connection pool ready for use. The
// container and pool are torn down via t.Cleanup.
//
// Tests calling this are skipped when PERCH_SKIP_DOCKER is set, so the rest
// of the suite still runs on machines without a container runtime.
func SetupPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if os.Getenv("PERCH_SKIP_DOCKER") != "" {
		t.Skip("PERCH_SKIP_DOCKER set, skipping container-backed test")
	}
	if testing.Short() {
		t.Skip("skipping container-backed test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("perch_test"),
		postgres.WithUsername("perch_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminating postgres container: %v", err)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	if err := db.Migrate(connStr); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	pool, err := database.Open(ctx, connStr)
	if err != nil {
		t.Fatalf("opening connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return pool
}

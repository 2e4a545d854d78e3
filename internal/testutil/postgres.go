// Package testutil provides shared test infrastructure: a disposable
// PostgreSQL instance with the pgvector extension and a deterministic
// embedder for retrieval tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/iordanov05/AutoSMM/db"
	"github.com/iordanov05/AutoSMM/internal/database"
)

// TestDB wraps a migrated PostgreSQL test container.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB starts a PostgreSQL container with the pgvector extension,
// runs the embedded migrations and returns a ready connection pool. The
// pool is opened through database.Open so vector columns scan natively.
//
// Skips the test when Docker is unavailable (AUTOSMM_SKIP_DOCKER_TESTS=1).
// Cleanup is registered on t automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	if os.Getenv("AUTOSMM_SKIP_DOCKER_TESTS") != "" {
		t.Skip("AUTOSMM_SKIP_DOCKER_TESTS set - skipping container-backed test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"pgvector/pgvector:pg16",
		postgres.WithDatabase("autosmm_test"),
		postgres.WithUsername("autosmm_test"),
		postgres.WithPassword("test_password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Skipf("starting PostgreSQL container (is Docker running?): %v", err)
	}
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("getting connection string: %v", err)
	}

	if err := db.Migrate(connStr, QuietLogger()); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	pool, err := database.Open(ctx, connStr)
	if err != nil {
		t.Fatalf("opening connection pool: %v", err)
	}
	t.Cleanup(pool.Close)

	return &TestDB{
		Container: pgContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// QuietLogger returns a logger that only surfaces warnings, keeping test
// output readable.
func QuietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelWarn}))
}
